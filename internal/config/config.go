package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config stores runtime configuration for the assistant overlay.
type Config struct {
	LLM    LLMConfig
	STT    STTConfig
	TTS    TTSConfig
	Audio  AudioConfig
	Loop   LoopConfig
	UI     UIConfig
	Log    LogConfig
	Hotkey string
}

type LLMConfig struct {
	URL         string
	Model       string
	APIKey      string
	Timeout     time.Duration
	Temperature float64
	MaxTokens   int
}

type STTConfig struct {
	Language        string
	EnergyThreshold int
	PauseThreshold  time.Duration
	PhraseTimeLimit time.Duration
	APIKey          string
	APIBase         string
	Model           string
}

type TTSConfig struct {
	Voice         string
	PlayerCommand string
}

type AudioConfig struct {
	RecorderCommand string
	InputFormat     string
	InputDevice     string
	SampleRate      int
	Channels        int
	ChunkSize       int
}

type LoopConfig struct {
	HistoryLimit     int
	ResumeAfterSpeak time.Duration
	CaptureRetry     time.Duration
	InferRetry       time.Duration
}

type UIConfig struct {
	BarWidth      int
	AutoHideDelay time.Duration
}

type LogConfig struct {
	Level string
	Path  string
}

// Load resolves configuration from config.yaml, environment variables
// (VOICEHUD_ prefixed) and defaults. A malformed config file never fails the
// caller: defaults are returned together with the error so it can be
// reported once at startup.
func Load() (Config, error) {
	return LoadFrom("")
}

// LoadFrom loads from an explicit file path instead of the search path.
func LoadFrom(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("VOICEHUD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", "voicehud"))
		}
		v.AddConfigPath(".")
	}

	var loadErr error
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			// Overrides are lost but the getters below still serve
			// defaults and environment values.
			loadErr = fmt.Errorf("config file ignored: %w", err)
		}
	}

	return fromViper(v), loadErr
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("llm.url", "http://localhost:4000/v1")
	v.SetDefault("llm.model", "openclaw")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.timeout", 60.0)
	v.SetDefault("llm.temperature", 0.7)
	v.SetDefault("llm.max_tokens", 1024)

	v.SetDefault("stt.language", "th-TH")
	v.SetDefault("stt.energy_threshold", 300)
	v.SetDefault("stt.pause_threshold", 1.5)
	v.SetDefault("stt.phrase_time_limit", 30.0)
	v.SetDefault("stt.api_key", "")
	v.SetDefault("stt.api_base", "https://api.deepgram.com/v1")
	v.SetDefault("stt.model", "nova-2")

	v.SetDefault("tts.voice", "th-TH-PremwadeeNeural")
	v.SetDefault("tts.player_command", "afplay")

	v.SetDefault("audio.recorder_command", "ffmpeg")
	v.SetDefault("audio.input_format", "pulse")
	v.SetDefault("audio.input_device", "default")
	v.SetDefault("audio.sample_rate", 16000)
	v.SetDefault("audio.channels", 1)
	v.SetDefault("audio.chunk_size", 4096)

	v.SetDefault("loop.history_limit", 40)
	v.SetDefault("loop.resume_after_speak_ms", 500)
	v.SetDefault("loop.capture_retry_ms", 2000)
	v.SetDefault("loop.infer_retry_ms", 3000)

	v.SetDefault("ui.bar_width", 680)
	v.SetDefault("ui.auto_hide_delay", 5000)

	v.SetDefault("hotkey", "alt+space")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.path", "")
}

func fromViper(v *viper.Viper) Config {
	cfg := Config{
		LLM: LLMConfig{
			URL:         v.GetString("llm.url"),
			Model:       v.GetString("llm.model"),
			APIKey:      v.GetString("llm.api_key"),
			Timeout:     seconds(v.GetFloat64("llm.timeout")),
			Temperature: v.GetFloat64("llm.temperature"),
			MaxTokens:   v.GetInt("llm.max_tokens"),
		},
		STT: STTConfig{
			Language:        v.GetString("stt.language"),
			EnergyThreshold: v.GetInt("stt.energy_threshold"),
			PauseThreshold:  seconds(v.GetFloat64("stt.pause_threshold")),
			PhraseTimeLimit: seconds(v.GetFloat64("stt.phrase_time_limit")),
			APIKey:          v.GetString("stt.api_key"),
			APIBase:         v.GetString("stt.api_base"),
			Model:           v.GetString("stt.model"),
		},
		TTS: TTSConfig{
			Voice:         v.GetString("tts.voice"),
			PlayerCommand: v.GetString("tts.player_command"),
		},
		Audio: AudioConfig{
			RecorderCommand: v.GetString("audio.recorder_command"),
			InputFormat:     v.GetString("audio.input_format"),
			InputDevice:     v.GetString("audio.input_device"),
			SampleRate:      v.GetInt("audio.sample_rate"),
			Channels:        v.GetInt("audio.channels"),
			ChunkSize:       v.GetInt("audio.chunk_size"),
		},
		Loop: LoopConfig{
			HistoryLimit:     v.GetInt("loop.history_limit"),
			ResumeAfterSpeak: time.Duration(v.GetInt("loop.resume_after_speak_ms")) * time.Millisecond,
			CaptureRetry:     time.Duration(v.GetInt("loop.capture_retry_ms")) * time.Millisecond,
			InferRetry:       time.Duration(v.GetInt("loop.infer_retry_ms")) * time.Millisecond,
		},
		UI: UIConfig{
			BarWidth:      v.GetInt("ui.bar_width"),
			AutoHideDelay: time.Duration(v.GetInt("ui.auto_hide_delay")) * time.Millisecond,
		},
		Log: LogConfig{
			Level: v.GetString("log.level"),
			Path:  v.GetString("log.path"),
		},
		Hotkey: v.GetString("hotkey"),
	}
	return clamp(cfg)
}

// clamp repairs out-of-range values back to defaults so a bad override can
// never put a stage into an unusable configuration.
func clamp(cfg Config) Config {
	if cfg.LLM.Timeout <= 0 {
		cfg.LLM.Timeout = 60 * time.Second
	}
	if cfg.LLM.Temperature < 0 || cfg.LLM.Temperature > 2 {
		cfg.LLM.Temperature = 0.7
	}
	if cfg.LLM.MaxTokens <= 0 {
		cfg.LLM.MaxTokens = 1024
	}
	if cfg.STT.EnergyThreshold <= 0 {
		cfg.STT.EnergyThreshold = 300
	}
	if cfg.STT.PauseThreshold <= 0 {
		cfg.STT.PauseThreshold = 1500 * time.Millisecond
	}
	if cfg.STT.PhraseTimeLimit <= 0 {
		cfg.STT.PhraseTimeLimit = 30 * time.Second
	}
	if cfg.Audio.SampleRate <= 0 {
		cfg.Audio.SampleRate = 16000
	}
	if cfg.Audio.Channels <= 0 {
		cfg.Audio.Channels = 1
	}
	if cfg.Audio.ChunkSize < 256 {
		cfg.Audio.ChunkSize = 4096
	}
	if cfg.Loop.HistoryLimit <= 0 {
		cfg.Loop.HistoryLimit = 40
	}
	if cfg.Loop.ResumeAfterSpeak <= 0 {
		cfg.Loop.ResumeAfterSpeak = 500 * time.Millisecond
	}
	if cfg.Loop.CaptureRetry <= 0 {
		cfg.Loop.CaptureRetry = 2 * time.Second
	}
	if cfg.Loop.InferRetry <= 0 {
		cfg.Loop.InferRetry = 3 * time.Second
	}
	if cfg.UI.BarWidth <= 0 {
		cfg.UI.BarWidth = 680
	}
	return cfg
}

func seconds(value float64) time.Duration {
	return time.Duration(value * float64(time.Second))
}
