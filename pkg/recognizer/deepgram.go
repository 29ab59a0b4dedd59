package recognizer

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	msginterfaces "github.com/deepgram/deepgram-go-sdk/pkg/api/listen/v1/websocket/interfaces"
	clientinterfaces "github.com/deepgram/deepgram-go-sdk/pkg/client/interfaces"
	listen "github.com/deepgram/deepgram-go-sdk/pkg/client/listen"
	"go.uber.org/zap"
)

// deepgramConn is the slice of the SDK live client the session uses.
type deepgramConn interface {
	Connect() bool
	Write(p []byte) (int, error)
	Finalize() error
	Stop()
}

// deepgramSession streams audio to Deepgram's live transcription socket.
// Reconnection and keep-alive pings are delegated to the SDK; the session
// only tracks liveness and maps results onto Transcript.
type deepgramSession struct {
	lang    string
	handler TranscriptHandler
	logger  *zap.Logger

	conn   deepgramConn
	cancel context.CancelFunc

	alive      atomic.Bool
	finishOnce sync.Once
	closed     chan struct{} // closed when the SDK reports the socket closed
}

func newDeepgramSession(apiKey, lang string, handler TranscriptHandler, logger *zap.Logger) (*deepgramSession, error) {
	if logger == nil {
		logger = zap.L()
	}
	s := &deepgramSession{
		lang:    lang,
		handler: handler,
		logger:  logger,
		closed:  make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel

	cOptions := &clientinterfaces.ClientOptions{
		EnableKeepAlive: true, // SDK pings inside the 8 s silence budget
	}
	tOptions := &clientinterfaces.LiveTranscriptionOptions{
		Model:          "nova-2",
		Language:       lang,
		Encoding:       "linear16",
		SampleRate:     SampleRate,
		Channels:       1,
		Punctuate:      true,
		SmartFormat:    true,
		InterimResults: true,
	}

	conn, err := listen.NewWebSocketUsingCallback(ctx, apiKey, cOptions, tOptions, s)
	if err != nil {
		cancel()
		return nil, err
	}
	s.conn = conn

	if !conn.Connect() {
		// Dead on arrival; the SDK already logged the dial failure.
		cancel()
		return s, nil
	}
	s.alive.Store(true)
	return s, nil
}

func (s *deepgramSession) Push(frame []byte) error {
	if !s.alive.Load() {
		return errSessionDead
	}
	_, err := s.conn.Write(frame)
	return err
}

func (s *deepgramSession) Alive() bool {
	return s.alive.Load()
}

func (s *deepgramSession) Finish() {
	s.finishOnce.Do(func() {
		if s.alive.Load() {
			if err := s.conn.Finalize(); err != nil {
				s.logger.Warn("deepgram finalize failed", zap.Error(err))
			}
			// Terminal results arrive on the callback; give them a moment
			// before tearing the socket down.
			select {
			case <-s.closed:
			case <-time.After(3 * time.Second):
			}
		}
		s.shutdown()
	})
}

func (s *deepgramSession) Stop() {
	s.finishOnce.Do(func() {})
	s.shutdown()
}

func (s *deepgramSession) shutdown() {
	if s.alive.Swap(false) {
		s.conn.Stop()
	}
	s.cancel()
}

// LiveMessageCallback implementation; the SDK invokes these from its socket
// reader goroutine.

func (s *deepgramSession) Open(or *msginterfaces.OpenResponse) error {
	s.logger.Debug("deepgram socket open", zap.String("language", s.lang))
	return nil
}

func (s *deepgramSession) Message(mr *msginterfaces.MessageResponse) error {
	if len(mr.Channel.Alternatives) == 0 {
		return nil
	}
	alt := mr.Channel.Alternatives[0]
	startMs := int64(mr.Start * 1000)
	s.handler(Transcript{
		Text:     alt.Transcript,
		IsFinal:  mr.IsFinal,
		LangCode: s.lang,
		StartMs:  startMs,
		EndMs:    startMs + int64(mr.Duration*1000),
	})
	return nil
}

func (s *deepgramSession) Metadata(md *msginterfaces.MetadataResponse) error {
	return nil
}

func (s *deepgramSession) SpeechStarted(ssr *msginterfaces.SpeechStartedResponse) error {
	return nil
}

func (s *deepgramSession) UtteranceEnd(ur *msginterfaces.UtteranceEndResponse) error {
	return nil
}

func (s *deepgramSession) Close(cr *msginterfaces.CloseResponse) error {
	s.alive.Store(false)
	select {
	case <-s.closed:
	default:
		close(s.closed)
	}
	return nil
}

func (s *deepgramSession) Error(er *msginterfaces.ErrorResponse) error {
	s.logger.Warn("deepgram stream error",
		zap.String("type", er.Type),
		zap.String("description", er.Description))
	return nil
}

func (s *deepgramSession) UnhandledEvent(byData []byte) error {
	return nil
}
