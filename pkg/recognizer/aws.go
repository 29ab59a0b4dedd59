package recognizer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming"
	"github.com/aws/aws-sdk-go-v2/service/transcribestreaming/types"
	"go.uber.org/zap"
)

var errSessionDead = errors.New("recognizer: session is dead")

// keepAliveInterval paces silence injection so the provider does not drop the
// stream during quiet stretches. Must stay at or under 8 s.
const keepAliveInterval = 8 * time.Second

// silenceFrame is 20 ms of PCM16 silence.
var silenceFrame = make([]byte, SampleRate/50*2)

// awsSession streams audio to Amazon Transcribe. One upstream stream at a
// time; the run loop rotates streams on refresh and recreates them with
// linear backoff on transient errors.
type awsSession struct {
	client  *transcribestreaming.Client
	lang    string
	handler TranscriptHandler
	logger  *zap.Logger

	queue  *frameQueue
	ctx    context.Context
	cancel context.CancelFunc

	alive      atomic.Bool
	finishing  atomic.Bool
	finishOnce sync.Once
	finishReq  chan struct{}
	done       chan struct{} // closed when the run loop exits
}

func newAWSSession(client *transcribestreaming.Client, lang string, handler TranscriptHandler, logger *zap.Logger) *awsSession {
	if logger == nil {
		logger = zap.L()
	}
	s := &awsSession{
		client:    client,
		lang:      lang,
		handler:   handler,
		logger:    logger,
		queue:     newFrameQueue(),
		finishReq: make(chan struct{}),
		done:      make(chan struct{}),
	}
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.alive.Store(true)
	go s.run()
	return s
}

func (s *awsSession) Push(frame []byte) error {
	if !s.alive.Load() {
		return errSessionDead
	}
	s.queue.Push(frame)
	return nil
}

func (s *awsSession) Alive() bool {
	return s.alive.Load()
}

// Finish closes the audio input and waits for terminal transcripts to drain.
func (s *awsSession) Finish() {
	s.finishing.Store(true)
	s.finishOnce.Do(func() { close(s.finishReq) })
	select {
	case <-s.done:
	case <-time.After(10 * time.Second):
		s.cancel()
	}
}

func (s *awsSession) Stop() {
	s.alive.Store(false)
	s.cancel()
	select {
	case <-s.done:
	case <-time.After(2 * time.Second):
	}
}

// streamExit is why a single upstream stream ended.
type streamExit int

const (
	exitFinish streamExit = iota
	exitRefresh
	exitIdle
	exitCancel
	exitError
)

func (s *awsSession) run() {
	defer close(s.done)
	defer s.alive.Store(false)

	opened := false
	attempt := 0
	for {
		exit, err := s.streamOnce(&opened)
		switch exit {
		case exitRefresh:
			s.logger.Info("transcribe stream refreshed before provider session cap",
				zap.String("language", s.lang))
			attempt = 0
			continue
		case exitFinish, exitCancel:
			return
		case exitIdle:
			s.logger.Warn("transcribe stream closed after idle timeout",
				zap.String("language", s.lang))
			return
		}

		if !opened {
			// Never connected at all: dead immediately, no retries.
			s.logger.Error("transcribe connect failed", zap.Error(err), zap.String("language", s.lang))
			return
		}
		attempt++
		if attempt >= maxConnectAttempts {
			s.logger.Error("transcribe retries exhausted",
				zap.Error(err), zap.Int("attempts", attempt), zap.String("language", s.lang))
			return
		}
		delay := time.Duration(attempt) * retryBaseDelay
		s.logger.Warn("transcribe stream error, reconnecting",
			zap.Error(err), zap.Int("attempt", attempt), zap.Duration("delay", delay))
		// Audio that arrived during the gap is stale; start the next attempt
		// with an empty FIFO.
		s.queue.Reset()
		select {
		case <-s.ctx.Done():
			return
		case <-time.After(delay):
		}
	}
}

// streamOnce runs one upstream stream to completion.
func (s *awsSession) streamOnce(opened *bool) (streamExit, error) {
	out, err := s.client.StartStreamTranscription(s.ctx, &transcribestreaming.StartStreamTranscriptionInput{
		LanguageCode:         types.LanguageCode(s.lang),
		MediaEncoding:        types.MediaEncodingPcm,
		MediaSampleRateHertz: aws.Int32(SampleRate),
	})
	if err != nil {
		if s.ctx.Err() != nil {
			return exitCancel, nil
		}
		return exitError, err
	}
	*opened = true
	stream := out.GetStream()

	sctx, scancel := context.WithCancel(s.ctx)
	defer scancel()

	readEnd := make(chan error, 1)
	go func() {
		for event := range stream.Events() {
			if te, ok := event.(*types.TranscriptResultStreamMemberTranscriptEvent); ok {
				s.deliver(te.Value)
			}
		}
		err := stream.Err()
		scancel()
		readEnd <- err
	}()

	exit, werr := s.writeLoop(sctx, stream)

	// End of audio: closing the input makes the service flush buffered audio
	// and emit terminal transcripts before closing its side.
	_ = stream.Close()
	var rerr error
	select {
	case rerr = <-readEnd:
	case <-time.After(10 * time.Second):
	case <-s.ctx.Done():
	}

	switch {
	case werr != nil:
		return exitError, werr
	case exit == exitCancel && s.ctx.Err() == nil && !s.finishing.Load():
		// The reader ended first: the service closed on us mid-stream.
		if rerr == nil {
			rerr = errors.New("transcript stream closed by service")
		}
		return exitError, rerr
	default:
		return exit, nil
	}
}

func (s *awsSession) writeLoop(ctx context.Context, stream *transcribestreaming.StartStreamTranscriptionEventStream) (streamExit, error) {
	refresh := time.NewTimer(sessionRefreshAfter)
	defer refresh.Stop()
	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()

	for {
		select {
		case <-ctx.Done():
			return exitCancel, nil
		case <-s.finishReq:
			return exitFinish, nil
		case <-refresh.C:
			return exitRefresh, nil
		case <-idle.C:
			return exitIdle, nil
		case <-keepAlive.C:
			if err := s.send(ctx, stream, silenceFrame); err != nil {
				return exitError, err
			}
		case frame := <-s.queue.C():
			idle.Reset(idleTimeout)
			keepAlive.Reset(keepAliveInterval)
			if err := s.send(ctx, stream, frame); err != nil {
				return exitError, err
			}
		}
	}
}

func (s *awsSession) send(ctx context.Context, stream *transcribestreaming.StartStreamTranscriptionEventStream, chunk []byte) error {
	return stream.Send(ctx, &types.AudioStreamMemberAudioEvent{
		Value: types.AudioEvent{AudioChunk: chunk},
	})
}

func (s *awsSession) deliver(ev types.TranscriptEvent) {
	if ev.Transcript == nil {
		return
	}
	for _, r := range ev.Transcript.Results {
		text := ""
		if len(r.Alternatives) > 0 && r.Alternatives[0].Transcript != nil {
			text = *r.Alternatives[0].Transcript
		}
		s.handler(Transcript{
			Text:     text,
			IsFinal:  !r.IsPartial,
			LangCode: s.lang,
			StartMs:  int64(r.StartTime * 1000),
			EndMs:    int64(r.EndTime * 1000),
		})
	}
}
