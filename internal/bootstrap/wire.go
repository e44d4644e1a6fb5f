package bootstrap

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"voicehud/internal/audio"
	"voicehud/internal/capture"
	"voicehud/internal/config"
	"voicehud/internal/ports"
	"voicehud/internal/providers/deepgram"
	"voicehud/internal/providers/edgetts"
	"voicehud/internal/providers/openclaw"
	"voicehud/internal/synth"
	"voicehud/internal/usecase"
)

// Services is the assembled runtime graph.
type Services struct {
	Orchestrator *usecase.Orchestrator
	Config       config.Config
	Logger       zerolog.Logger
}

// Build wires all backend dependencies for the current runtime. A broken
// config file degrades to defaults rather than refusing to start.
func Build(ui ports.UISink) (Services, error) {
	cfg, cfgErr := config.Load()

	logger, err := newLogger(cfg.Log)
	if err != nil {
		return Services{}, err
	}
	if cfgErr != nil {
		logger.Warn().Err(cfgErr).Msg("using default configuration")
	}

	captureStage := capture.NewStage(
		audio.NewRecorder(cfg.Audio.RecorderCommand),
		deepgram.NewRecognizer(deepgram.Config{
			APIKey:     cfg.STT.APIKey,
			APIBaseURL: cfg.STT.APIBase,
			Model:      cfg.STT.Model,
		}),
		logger,
		capture.Config{
			Audio: ports.AudioConfig{
				SampleRate:  cfg.Audio.SampleRate,
				Channels:    cfg.Audio.Channels,
				InputFormat: cfg.Audio.InputFormat,
				InputDevice: cfg.Audio.InputDevice,
			},
			Language:        cfg.STT.Language,
			EnergyThreshold: cfg.STT.EnergyThreshold,
			PauseThreshold:  cfg.STT.PauseThreshold,
			PhraseTimeLimit: cfg.STT.PhraseTimeLimit,
			ChunkSize:       cfg.Audio.ChunkSize,
		},
	)

	responder := openclaw.New(openclaw.Config{
		URL:         cfg.LLM.URL,
		Model:       cfg.LLM.Model,
		APIKey:      cfg.LLM.APIKey,
		Timeout:     cfg.LLM.Timeout,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})

	synthStage := synth.NewStage(
		edgetts.NewClient(edgetts.Config{Voice: cfg.TTS.Voice}),
		audio.NewCommandPlayer(cfg.TTS.PlayerCommand),
		logger,
	)

	orchestrator := usecase.NewOrchestrator(
		captureStage,
		responder,
		synthStage,
		ui,
		logger,
		usecase.Config{
			HistoryLimit:     cfg.Loop.HistoryLimit,
			ResumeAfterSpeak: cfg.Loop.ResumeAfterSpeak,
			CaptureRetry:     cfg.Loop.CaptureRetry,
			InferRetry:       cfg.Loop.InferRetry,
		},
	)

	return Services{Orchestrator: orchestrator, Config: cfg, Logger: logger}, nil
}

func newLogger(cfg config.LogConfig) (zerolog.Logger, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr}
	if cfg.Path != "" {
		file, err := os.OpenFile(cfg.Path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, err
		}
		out = zerolog.MultiLevelWriter(out, file)
	}

	return zerolog.New(out).Level(level).With().Timestamp().Logger(), nil
}
