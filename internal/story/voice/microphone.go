package voice

import (
	"context"
	"fmt"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/sirupsen/logrus"
)

// Source streams 16-bit little-endian mono PCM frames until ctx ends.
type Source interface {
	Open(ctx context.Context, sampleRate int) (<-chan []byte, error)
}

// Microphone captures from the default input device.
type Microphone struct {
	once    sync.Once
	initErr error
}

func NewMicrophone() *Microphone {
	return &Microphone{}
}

func (m *Microphone) init() error {
	m.once.Do(func() {
		if err := portaudio.Initialize(); err != nil {
			m.initErr = fmt.Errorf("%w: portaudio initialize: %v", ErrNotSupported, err)
		}
	})
	return m.initErr
}

// Close releases portaudio.
func (m *Microphone) Close() error {
	if m.init() != nil {
		return nil
	}
	return portaudio.Terminate()
}

func (m *Microphone) Open(ctx context.Context, sampleRate int) (<-chan []byte, error) {
	if err := m.init(); err != nil {
		return nil, err
	}
	device, err := portaudio.DefaultInputDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotSupported, err)
	}

	frames := make(chan []byte, 32)
	params := portaudio.StreamParameters{
		Input: portaudio.StreamDeviceParameters{
			Device:   device,
			Channels: 1,
			Latency:  device.DefaultLowInputLatency,
		},
		SampleRate:      float64(sampleRate),
		FramesPerBuffer: sampleRate / 100,
	}
	stream, err := portaudio.OpenStream(params, func(in []int16) {
		buf := make([]byte, len(in)*2)
		for i, sample := range in {
			buf[i*2] = byte(sample & 0xff)
			buf[i*2+1] = byte((sample >> 8) & 0xff)
		}
		select {
		case frames <- buf:
		default:
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input stream: %w", err)
	}
	if err := stream.Start(); err != nil {
		stream.Close()
		return nil, fmt.Errorf("start input stream: %w", err)
	}
	logrus.WithFields(logrus.Fields{
		"component": "voice",
		"device":    device.Name,
	}).Debug("microphone started")

	out := make(chan []byte)
	go func() {
		defer close(out)
		defer stream.Close()
		defer stream.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case buf := <-frames:
				select {
				case out <- buf:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
