package tts

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"
)

// pcmFromWAV decodes a WAV file and re-encodes it as mono 16-bit PCM at
// SampleRate, resampling when the source rate differs.
func pcmFromWAV(data []byte) ([]byte, error) {
	streamer, format, err := wav.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to decode wav: %w", err)
	}
	defer streamer.Close()

	var s beep.Streamer = streamer
	if format.SampleRate != SampleRate {
		s = beep.Resample(4, format.SampleRate, SampleRate, streamer)
	}
	return encodeMono16(s)
}

// encodeMono16 drains s, downmixing stereo frames to one channel.
func encodeMono16(s beep.Streamer) ([]byte, error) {
	var out bytes.Buffer
	buf := make([][2]float64, 512)
	frame := make([]byte, 2)
	for {
		n, ok := s.Stream(buf)
		for _, sample := range buf[:n] {
			binary.LittleEndian.PutUint16(frame, uint16(toInt16((sample[0]+sample[1])/2)))
			out.Write(frame)
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("failed to read samples: %w", err)
	}
	return out.Bytes(), nil
}

func toInt16(v float64) int16 {
	switch {
	case v >= 1:
		return 32767
	case v <= -1:
		return -32768
	default:
		return int16(v * 32767)
	}
}
