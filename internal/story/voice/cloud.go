package voice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/sirupsen/logrus"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// CloudRecognizer streams microphone audio to Google Cloud Speech-to-Text
// and reports a single utterance.
type CloudRecognizer struct {
	client     *speech.Client
	source     Source
	sampleRate int

	mu     sync.Mutex
	cancel context.CancelFunc
}

func NewCloudRecognizer(ctx context.Context, source Source, sampleRate int) (*CloudRecognizer, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return &CloudRecognizer{client: client, source: source, sampleRate: sampleRate}, nil
}

func (r *CloudRecognizer) Start(ctx context.Context, locale string, h Handlers) error {
	ctx, cancel := context.WithCancel(ctx)

	stream, err := r.client.StreamingRecognize(ctx)
	if err != nil {
		cancel()
		return mapError(err)
	}
	err = stream.Send(&speechpb.StreamingRecognizeRequest{
		StreamingRequest: &speechpb.StreamingRecognizeRequest_StreamingConfig{
			StreamingConfig: &speechpb.StreamingRecognitionConfig{
				Config: &speechpb.RecognitionConfig{
					Encoding:        speechpb.RecognitionConfig_LINEAR16,
					SampleRateHertz: int32(r.sampleRate),
					LanguageCode:    locale,
				},
				InterimResults:  true,
				SingleUtterance: true,
			},
		},
	})
	if err != nil {
		cancel()
		return mapError(err)
	}

	micCtx, stopMic := context.WithCancel(ctx)
	frames, err := r.source.Open(micCtx, r.sampleRate)
	if err != nil {
		stopMic()
		cancel()
		return err
	}

	r.mu.Lock()
	r.cancel = cancel
	r.mu.Unlock()

	go r.send(stream, frames)
	go r.receive(ctx, cancel, stopMic, stream, h)
	return nil
}

func (r *CloudRecognizer) send(stream speechpb.Speech_StreamingRecognizeClient, frames <-chan []byte) {
	for frame := range frames {
		err := stream.Send(&speechpb.StreamingRecognizeRequest{
			StreamingRequest: &speechpb.StreamingRecognizeRequest_AudioContent{AudioContent: frame},
		})
		if err != nil {
			logrus.WithError(err).WithField("component", "voice").Debug("audio send stopped")
			break
		}
	}
	if err := stream.CloseSend(); err != nil {
		logrus.WithError(err).WithField("component", "voice").Debug("close send")
	}
}

func (r *CloudRecognizer) receive(ctx context.Context, cancel, stopMic context.CancelFunc, stream speechpb.Speech_StreamingRecognizeClient, h Handlers) {
	defer h.OnEnd()
	defer cancel()

	heard := false
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			if ctx.Err() == nil {
				h.OnError(mapError(err))
			}
			return
		}
		if resp.Error != nil {
			h.OnError(mapError(status.ErrorProto(resp.Error)))
			return
		}
		if resp.SpeechEventType == speechpb.StreamingRecognizeResponse_END_OF_SINGLE_UTTERANCE {
			stopMic()
		}
		for _, result := range resp.Results {
			if len(result.Alternatives) == 0 {
				continue
			}
			text := result.Alternatives[0].Transcript
			if result.IsFinal {
				heard = true
				h.OnFinal(text)
			} else {
				h.OnPartial(text)
			}
		}
	}
	if !heard {
		h.OnNoSpeech()
	}
}

func (r *CloudRecognizer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	return nil
}

func (r *CloudRecognizer) Close() error {
	r.Stop()
	return r.client.Close()
}

func mapError(err error) error {
	if errors.Is(err, ErrNotSupported) {
		return err
	}
	switch status.Code(err) {
	case codes.PermissionDenied, codes.Unauthenticated:
		return fmt.Errorf("%w: %v", ErrPermissionDenied, err)
	case codes.Unimplemented:
		return fmt.Errorf("%w: %v", ErrNotSupported, err)
	}
	return err
}
