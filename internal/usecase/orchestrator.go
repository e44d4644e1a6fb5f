package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"voicehud/internal/domain"
	"voicehud/internal/ports"
)

// Config controls loop timing and history retention. The delays are the
// empirically chosen pauses between a stage outcome and the next listening
// round; they give the user time to read status text before the microphone
// reopens and keep a failing backend from being hammered.
type Config struct {
	HistoryLimit     int
	ResumeAfterSpeak time.Duration
	CaptureRetry     time.Duration
	InferRetry       time.Duration
}

func (c Config) withDefaults() Config {
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = domain.DefaultHistoryLimit
	}
	if c.ResumeAfterSpeak <= 0 {
		c.ResumeAfterSpeak = 500 * time.Millisecond
	}
	if c.CaptureRetry <= 0 {
		c.CaptureRetry = 2 * time.Second
	}
	if c.InferRetry <= 0 {
		c.InferRetry = 3 * time.Second
	}
	return c
}

// Orchestrator drives the continuous conversation loop: capture an
// utterance, infer a reply, speak it, listen again. All state lives on a
// single control goroutine fed by one event channel; stages run on worker
// goroutines and post exactly one terminal result back, tagged with the
// session generation it belongs to.
type Orchestrator struct {
	capture   ports.SpeechCapturer
	responder ports.Responder
	synth     ports.Synthesizer
	ui        ports.UISink
	log       zerolog.Logger
	cfg       Config

	events chan any
	done   chan struct{}

	mu      sync.RWMutex
	state   domain.OverlayState
	history *domain.History

	// Owned by the control loop; never read or written outside run().
	generation uint64
	ctx        context.Context
	cancel     context.CancelFunc
	resume     *time.Timer
}

func NewOrchestrator(
	capture ports.SpeechCapturer,
	responder ports.Responder,
	synth ports.Synthesizer,
	ui ports.UISink,
	log zerolog.Logger,
	cfg Config,
) *Orchestrator {
	cfg = cfg.withDefaults()
	o := &Orchestrator{
		capture:   capture,
		responder: responder,
		synth:     synth,
		ui:        ui,
		log:       log.With().Str("component", "orchestrator").Logger(),
		cfg:       cfg,
		events:    make(chan any, 64),
		done:      make(chan struct{}),
		state:     domain.StateIdle,
		history:   domain.NewHistory(cfg.HistoryLimit),
	}
	go o.run()
	return o
}

// Activate shows the overlay and starts listening. No-op when already active.
func (o *Orchestrator) Activate() { o.post(command{kind: cmdActivate}) }

// Deactivate aborts any in-flight stage and hides the overlay. Idempotent;
// it never blocks on worker goroutines, their late results are discarded.
func (o *Orchestrator) Deactivate() { o.post(command{kind: cmdDeactivate}) }

// Toggle deactivates when active, activates otherwise.
func (o *Orchestrator) Toggle() { o.post(command{kind: cmdToggle}) }

// State reports the current loop state.
func (o *Orchestrator) State() domain.OverlayState {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

// HistorySnapshot returns a copy of the conversation so far.
func (o *Orchestrator) HistorySnapshot() []domain.Turn {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.history.Turns()
}

// Close stops the control loop. Meant for process shutdown only.
func (o *Orchestrator) Close() {
	req := shutdown{done: make(chan struct{})}
	select {
	case o.events <- req:
	case <-o.done:
		return
	}
	select {
	case <-req.done:
	case <-o.done:
	}
}

func (o *Orchestrator) post(ev any) {
	select {
	case o.events <- ev:
	case <-o.done:
	}
}

func (o *Orchestrator) run() {
	defer close(o.done)

	for ev := range o.events {
		switch ev := ev.(type) {
		case command:
			switch ev.kind {
			case cmdActivate:
				o.doActivate()
			case cmdDeactivate:
				o.doDeactivate()
			case cmdToggle:
				if o.State() == domain.StateIdle {
					o.doActivate()
				} else {
					o.doDeactivate()
				}
			}
		case captureReady:
			o.onCaptureReady(ev)
		case captureResult:
			o.onCaptureResult(ev)
		case inferResult:
			o.onInferResult(ev)
		case speakResult:
			o.onSpeakResult(ev)
		case resumeDue:
			o.onResumeDue(ev)
		case shutdown:
			o.doDeactivate()
			close(ev.done)
			return
		}
	}
}

func (o *Orchestrator) doActivate() {
	if o.State() != domain.StateIdle {
		return
	}

	o.generation++
	o.ctx, o.cancel = context.WithCancel(context.Background())

	o.setState(domain.StateListening)
	o.ui.ShowCollapsed()
	o.startCapture()
	o.log.Info().Uint64("generation", o.generation).Msg("session activated")
}

func (o *Orchestrator) doDeactivate() {
	if o.State() == domain.StateIdle {
		return
	}

	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.stopResume()
	o.generation++

	o.setState(domain.StateIdle)
	o.ui.PulseStop()
	o.ui.Hide()
	o.log.Info().Msg("session deactivated")
}

func (o *Orchestrator) startCapture() {
	o.ui.PulseStart()
	o.ui.Notify(statusListening, domain.ToneAccent)

	gen, ctx := o.generation, o.ctx
	go func() {
		text, err := o.capture.Capture(ctx, func() {
			o.post(captureReady{generation: gen})
		})
		o.post(captureResult{generation: gen, text: text, err: err})
	}()
}

func (o *Orchestrator) onCaptureReady(ev captureReady) {
	if ev.generation != o.generation || o.State() != domain.StateListening {
		return
	}
	o.ui.Notify(statusSpeakNow, domain.ToneAccent)
}

func (o *Orchestrator) onCaptureResult(ev captureResult) {
	if ev.generation != o.generation || o.State() != domain.StateListening {
		o.log.Debug().Uint64("generation", ev.generation).Msg("dropping stale capture result")
		return
	}

	o.ui.PulseStop()

	if ev.err != nil {
		kind := domain.KindOf(ev.err)
		o.log.Warn().Err(ev.err).Str("kind", string(kind)).Msg("capture failed")
		o.ui.Notify(failureMessage(kind), domain.ToneError)
		o.setState(domain.StateCooldown)
		o.scheduleResume(o.cfg.CaptureRetry)
		return
	}

	o.ui.Notify(heardMessage(ev.text), domain.ToneNormal)
	o.setState(domain.StateThinking)
	o.startInference(ev.text)
}

func (o *Orchestrator) startInference(userText string) {
	o.ui.Notify(statusThinking, domain.ToneAccent)

	snapshot := o.HistorySnapshot()
	gen, ctx := o.generation, o.ctx
	go func() {
		reply, err := o.responder.Respond(ctx, userText, snapshot)
		o.post(inferResult{generation: gen, userText: userText, reply: reply, err: err})
	}()
}

func (o *Orchestrator) onInferResult(ev inferResult) {
	if ev.generation != o.generation || o.State() != domain.StateThinking {
		o.log.Debug().Uint64("generation", ev.generation).Msg("dropping stale inference result")
		return
	}

	if ev.err != nil {
		kind := domain.KindOf(ev.err)
		o.log.Warn().Err(ev.err).Str("kind", string(kind)).Msg("inference failed")
		o.ui.Notify(failureMessage(kind), domain.ToneError)
		o.setState(domain.StateCooldown)
		o.scheduleResume(o.cfg.InferRetry)
		return
	}

	o.appendExchange(ev.userText, ev.reply)
	o.ui.Notify(statusAnswer, domain.ToneNormal)
	o.ui.ShowExpanded(ev.reply)
	o.setState(domain.StateSpeaking)

	gen, ctx := o.generation, o.ctx
	go func() {
		err := o.synth.Speak(ctx, ev.reply)
		o.post(speakResult{generation: gen, err: err})
	}()
}

func (o *Orchestrator) onSpeakResult(ev speakResult) {
	if ev.generation != o.generation || o.State() != domain.StateSpeaking {
		o.log.Debug().Uint64("generation", ev.generation).Msg("dropping stale synthesis result")
		return
	}

	// Synthesis and playback failures are non-fatal: the reply stays on
	// screen and the loop resumes listening after the usual pause.
	if ev.err != nil {
		o.log.Warn().Err(ev.err).Msg("synthesis failed")
	}
	o.scheduleResume(o.cfg.ResumeAfterSpeak)
}

func (o *Orchestrator) onResumeDue(ev resumeDue) {
	if ev.generation != o.generation {
		return
	}
	state := o.State()
	if state != domain.StateSpeaking && state != domain.StateCooldown {
		return
	}

	o.setState(domain.StateListening)
	o.ui.ShowCollapsed()
	o.startCapture()
}

func (o *Orchestrator) scheduleResume(delay time.Duration) {
	o.stopResume()
	gen := o.generation
	o.resume = time.AfterFunc(delay, func() {
		o.post(resumeDue{generation: gen})
	})
}

func (o *Orchestrator) stopResume() {
	if o.resume != nil {
		o.resume.Stop()
		o.resume = nil
	}
}

func (o *Orchestrator) setState(state domain.OverlayState) {
	o.mu.Lock()
	o.state = state
	o.mu.Unlock()
}

func (o *Orchestrator) appendExchange(userText string, reply string) {
	o.mu.Lock()
	o.history.AppendExchange(userText, reply)
	o.mu.Unlock()
}
