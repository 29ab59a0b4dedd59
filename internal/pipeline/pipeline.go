// Package pipeline orchestrates one connection's translation plane: audio in,
// transcripts from the recognizer, translation toward the partner's language,
// speculative and stale-partial speech synthesis, and caption/audio fan-out.
//
// All pipeline state is owned by a single worker goroutine that consumes a
// unified event stream of transcripts, timer fires, and control messages.
// Frame ingest bypasses the worker: it only touches the recognizer handle.
package pipeline

import (
	"context"
	"encoding/base64"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/voxlink-ai/voxlink/internal/protocol"
	"github.com/voxlink-ai/voxlink/internal/session"
	"github.com/voxlink-ai/voxlink/pkg/languages"
	"github.com/voxlink-ai/voxlink/pkg/recognizer"
	"github.com/voxlink-ai/voxlink/pkg/synthesizer"
	"github.com/voxlink-ai/voxlink/pkg/translator"
)

// SessionFactory opens recognizer sessions. *recognizer.Factory satisfies it.
type SessionFactory interface {
	NewSession(lang string, handler recognizer.TranscriptHandler) (recognizer.Session, error)
}

// timings holds the observable latency tunables. Tests shrink them.
type timings struct {
	partialThrottle time.Duration // min spacing between emitted partials
	preSynthEvery   time.Duration // min spacing between speculative synths
	staleAfter      time.Duration // partial age that triggers interim audio
	synthAwait      time.Duration // how long a final waits on a cached synth
}

func defaultTimings() timings {
	return timings{
		partialThrottle: 100 * time.Millisecond,
		preSynthEvery:   1000 * time.Millisecond,
		staleAfter:      5000 * time.Millisecond,
		synthAwait:      10 * time.Second,
	}
}

// minSpeakRunes is the shortest translated text worth synthesizing early.
const minSpeakRunes = 10

type eventKind int

const (
	evTranscript eventKind = iota
	evStaleTimer
	evMicOn
	evMicOff
	evStop
)

type event struct {
	kind eventKind
	seg  recognizer.Transcript
	gen  uint64 // stale-timer generation, evStaleTimer only
}

// preSynthSlot is one speculative synthesis in flight. audio carries the
// result exactly once; abandoned slots are never awaited.
type preSynthSlot struct {
	translated string
	audio      chan []byte
}

// Pipeline drives translation for one participant connection.
type Pipeline struct {
	participant *session.Participant
	registry    *session.Registry
	factory     SessionFactory
	translate   translator.Service
	synth       synthesizer.Service
	logger      *zap.Logger
	timings     timings

	ctx    context.Context
	cancel context.CancelFunc

	events    chan event
	done      chan struct{}
	closeOnce sync.Once

	asrMu sync.Mutex
	asr   recognizer.Session

	// Worker-owned; never touched outside the run goroutine.
	lastPartialEmitAt time.Time
	lastPreSynthAt    time.Time
	cachedOriginal    string
	cachedTranslated  string
	preSynth          *preSynthSlot
	staleTimer        *time.Timer
	timerGen          uint64
	latestPartial     string
	latestTargetLoc   string
	interimFired      bool
}

func New(p *session.Participant, registry *session.Registry, factory SessionFactory,
	translate translator.Service, synth synthesizer.Service, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.L()
	}
	pl := &Pipeline{
		participant: p,
		registry:    registry,
		factory:     factory,
		translate:   translate,
		synth:       synth,
		logger: logger.With(
			zap.String("connectionId", p.ConnectionID),
			zap.String("meetingId", p.MeetingID),
			zap.String("attendeeName", p.Name),
		),
		timings: defaultTimings(),
		events:  make(chan event, 128),
		done:    make(chan struct{}),
	}
	pl.ctx, pl.cancel = context.WithCancel(context.Background())
	return pl
}

// Start launches the worker and opens the first recognizer session.
func (p *Pipeline) Start() {
	go p.run()
	if err := p.ensureASR(); err != nil {
		p.logger.Error("initial recognizer session failed", zap.Error(err))
	}
}

// OnAudioFrame ingests one binary frame from the client. Oversized frames
// are dropped without a reply. A dead recognizer session is replaced before
// the frame is forwarded, so audio after a restart is never lost.
func (p *Pipeline) OnAudioFrame(frame []byte) {
	if len(frame) > protocol.MaxAudioFrameBytes {
		p.logger.Debug("dropping oversized audio frame", zap.Int("bytes", len(frame)))
		return
	}
	if err := p.ensureASR(); err != nil {
		p.logger.Warn("recognizer restart failed, dropping frame", zap.Error(err))
		return
	}
	p.asrMu.Lock()
	asr := p.asr
	p.asrMu.Unlock()
	if err := asr.Push(frame); err != nil {
		p.logger.Debug("recognizer rejected frame", zap.Error(err))
	}
}

func (p *Pipeline) OnMicOn()  { p.post(event{kind: evMicOn}) }
func (p *Pipeline) OnMicOff() { p.post(event{kind: evMicOff}) }
func (p *Pipeline) OnStop()   { p.post(event{kind: evStop}) }

// Close tears the pipeline down: recognizer hard-stopped, worker cancelled,
// registry entry removed. Safe to call more than once.
func (p *Pipeline) Close() {
	p.closeOnce.Do(func() {
		close(p.done)
		p.cancel()
		p.stopASR()
		p.registry.Remove(p.participant.ConnectionID)
	})
}

func (p *Pipeline) post(ev event) {
	select {
	case p.events <- ev:
	case <-p.done:
	}
}

// ensureASR opens a recognizer session when none exists or the current one
// died. The handle is swapped under its own mutex so frame ingest never
// waits on the worker.
func (p *Pipeline) ensureASR() error {
	p.asrMu.Lock()
	defer p.asrMu.Unlock()
	if p.asr != nil && p.asr.Alive() {
		return nil
	}
	asrCode := languages.ASR(p.participant.SpokenLocale)
	s, err := p.factory.NewSession(asrCode, p.onTranscript)
	if err != nil {
		return err
	}
	p.asr = s
	p.logger.Info("recognizer session opened", zap.String("asrCode", asrCode))
	return nil
}

func (p *Pipeline) stopASR() {
	p.asrMu.Lock()
	asr := p.asr
	p.asr = nil
	p.asrMu.Unlock()
	if asr != nil {
		asr.Stop()
	}
}

func (p *Pipeline) finishASR() {
	p.asrMu.Lock()
	asr := p.asr
	p.asr = nil
	p.asrMu.Unlock()
	if asr != nil {
		asr.Finish()
	}
}

func (p *Pipeline) onTranscript(t recognizer.Transcript) {
	p.post(event{kind: evTranscript, seg: t})
}

func (p *Pipeline) run() {
	for {
		select {
		case <-p.done:
			p.clearUtteranceState()
			return
		case ev := <-p.events:
			switch ev.kind {
			case evTranscript:
				p.handleTranscript(ev.seg)
			case evStaleTimer:
				p.handleStaleTimer(ev.gen)
			case evMicOn:
				p.clearUtteranceState()
				if err := p.ensureASR(); err != nil {
					p.logger.Error("mic_on recognizer session failed", zap.Error(err))
				}
			case evMicOff:
				p.finishASR()
				p.clearUtteranceState()
			case evStop:
				p.stopASR()
				p.clearUtteranceState()
			}
		}
	}
}

// handleTranscript implements the per-segment translation flow: throttle,
// translate (with partial-result reuse), caption, then the speculative and
// stale-partial synthesis paths.
func (p *Pipeline) handleTranscript(seg recognizer.Transcript) {
	if seg.Text == "" {
		// An empty final still ends the utterance.
		if seg.IsFinal {
			p.resetUtterance()
		}
		return
	}

	now := time.Now()
	if !seg.IsFinal && now.Sub(p.lastPartialEmitAt) < p.timings.partialThrottle {
		return
	}

	partner := p.registry.Partner(p.participant.MeetingID, p.participant.ConnectionID)
	srcMT := languages.MTFromASR(seg.LangCode)
	targetLocale := p.participant.TargetLocale
	if partner != nil {
		targetLocale = partner.SpokenLocale
	}
	dstMT := languages.MT(targetLocale)

	translated := p.translateSegment(seg, srcMT, dstMT)

	if !seg.IsFinal {
		p.lastPartialEmitAt = now
		p.cachedOriginal, p.cachedTranslated = seg.Text, translated
	} else {
		p.cachedOriginal, p.cachedTranslated = "", ""
	}

	if partner != nil && partner.Open() {
		p.sendCaption(partner, seg, translated, srcMT, dstMT)
	}

	if seg.IsFinal {
		p.handleFinal(partner, translated, targetLocale, dstMT)
		return
	}
	if partner == nil || utf8.RuneCountInString(translated) <= minSpeakRunes {
		return
	}

	// Speculative synthesis: start early so a matching final can reuse the
	// audio without paying synthesis latency.
	if now.Sub(p.lastPreSynthAt) >= p.timings.preSynthEvery {
		p.lastPreSynthAt = now
		p.startPreSynth(translated, targetLocale)
	}

	// Stale-partial timer: long speech with no final gets one interim clip.
	if !p.interimFired {
		p.latestPartial = translated
		p.latestTargetLoc = targetLocale
		p.rescheduleStaleTimer()
	}
}

func (p *Pipeline) translateSegment(seg recognizer.Transcript, srcMT, dstMT string) string {
	if srcMT == dstMT {
		return seg.Text
	}
	if seg.IsFinal && p.cachedOriginal == seg.Text {
		return p.cachedTranslated
	}
	translated, err := p.translate.Translate(p.ctx, seg.Text, srcMT, dstMT)
	if err != nil {
		// Translator already fell back to the original text.
		p.logger.Warn("translation failed, captioning original",
			zap.String("src", srcMT), zap.String("dst", dstMT), zap.Error(err))
	}
	return translated
}

func (p *Pipeline) sendCaption(partner *session.Participant, seg recognizer.Transcript, translated, srcMT, dstMT string) {
	ev := protocol.CaptionEvent{
		Type:              protocol.TypeCaption,
		SpeakerAttendeeID: p.participant.AttendeeID,
		SpeakerName:       p.participant.Name,
		OriginalText:      seg.Text,
		TranslatedText:    translated,
		IsFinal:           seg.IsFinal,
		DetectedLanguage:  srcMT,
		TargetLanguage:    dstMT,
		StartTimeMs:       seg.StartMs,
		EndTimeMs:         seg.EndMs,
	}
	if err := partner.SendJSON(ev); err != nil {
		p.logger.Debug("caption dropped", zap.Error(err))
	}
}

func (p *Pipeline) startPreSynth(translated, targetLocale string) {
	slot := &preSynthSlot{translated: translated, audio: make(chan []byte, 1)}
	p.preSynth = slot
	go func() {
		audio, err := p.synth.Synthesize(p.ctx, translated, targetLocale)
		if err != nil {
			p.logger.Warn("speculative synthesis failed", zap.Error(err))
			audio = nil
		}
		slot.audio <- audio
	}()
}

func (p *Pipeline) rescheduleStaleTimer() {
	if p.staleTimer != nil {
		p.staleTimer.Stop()
	}
	p.timerGen++
	gen := p.timerGen
	p.staleTimer = time.AfterFunc(p.timings.staleAfter, func() {
		p.post(event{kind: evStaleTimer, gen: gen})
	})
}

// handleStaleTimer emits the one interim clip an utterance is allowed when
// speech runs long without a final.
func (p *Pipeline) handleStaleTimer(gen uint64) {
	if gen != p.timerGen || p.interimFired || p.latestPartial == "" {
		return
	}
	partner := p.registry.Partner(p.participant.MeetingID, p.participant.ConnectionID)
	if partner == nil || !partner.Open() {
		return
	}

	audio, err := p.synth.Synthesize(p.ctx, p.latestPartial, p.latestTargetLoc)
	if err != nil || audio == nil {
		if err != nil {
			p.logger.Warn("interim synthesis failed", zap.Error(err))
		}
		return
	}
	// The flag marks a delivered interim clip; a failed synthesis or send
	// must not suppress the final audio.
	if p.sendAudio(partner, audio, languages.MT(p.latestTargetLoc)) == nil {
		p.interimFired = true
	}
}

// handleFinal closes out the utterance: cancel the stale timer, settle the
// interim-versus-final audio decision, and reset per-utterance state.
func (p *Pipeline) handleFinal(partner *session.Participant, translated, targetLocale, dstMT string) {
	p.cancelStaleTimer()
	p.latestPartial = ""
	p.latestTargetLoc = ""

	slot := p.preSynth
	p.preSynth = nil

	if p.interimFired {
		// The interim clip already covered this utterance.
		p.interimFired = false
		return
	}
	if partner == nil || !partner.Open() {
		return
	}

	var audio []byte
	if slot != nil && slot.translated == translated {
		select {
		case audio = <-slot.audio:
		case <-time.After(p.timings.synthAwait):
			p.logger.Warn("speculative synthesis too slow, synthesizing fresh")
		case <-p.done:
			return
		}
	}
	if audio == nil {
		var err error
		audio, err = p.synth.Synthesize(p.ctx, translated, targetLocale)
		if err != nil {
			p.logger.Warn("final synthesis failed, caption only", zap.Error(err))
			return
		}
	}
	if audio == nil {
		return
	}
	p.sendAudio(partner, audio, dstMT)
}

func (p *Pipeline) sendAudio(partner *session.Participant, audio []byte, targetLang string) error {
	ev := protocol.AudioEvent{
		Type:              protocol.TypeAudio,
		SpeakerAttendeeID: p.participant.AttendeeID,
		AudioData:         base64.StdEncoding.EncodeToString(audio),
		TargetLanguage:    targetLang,
	}
	if err := partner.SendJSON(ev); err != nil {
		p.logger.Debug("audio dropped", zap.Error(err))
		return err
	}
	return nil
}

func (p *Pipeline) cancelStaleTimer() {
	if p.staleTimer != nil {
		p.staleTimer.Stop()
		p.staleTimer = nil
	}
	p.timerGen++
}

// resetUtterance drops everything tied to the current utterance. The wall
// clock throttles survive; they pace the connection, not the utterance.
func (p *Pipeline) resetUtterance() {
	p.cancelStaleTimer()
	p.cachedOriginal, p.cachedTranslated = "", ""
	p.preSynth = nil
	p.latestPartial = ""
	p.latestTargetLoc = ""
	p.interimFired = false
}

func (p *Pipeline) clearUtteranceState() {
	p.resetUtterance()
	p.lastPartialEmitAt = time.Time{}
	p.lastPreSynthAt = time.Time{}
}
