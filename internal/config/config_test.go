package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFromEmptyFileUsesDefaults(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.LLM.URL != "http://localhost:4000/v1" {
		t.Fatalf("unexpected llm url: %q", cfg.LLM.URL)
	}
	if cfg.LLM.Model != "openclaw" {
		t.Fatalf("unexpected llm model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Fatalf("unexpected llm timeout: %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.Temperature != 0.7 || cfg.LLM.MaxTokens != 1024 {
		t.Fatalf("unexpected sampling defaults: %v / %d", cfg.LLM.Temperature, cfg.LLM.MaxTokens)
	}
	if cfg.STT.Language != "th-TH" || cfg.STT.EnergyThreshold != 300 {
		t.Fatalf("unexpected stt defaults: %q / %d", cfg.STT.Language, cfg.STT.EnergyThreshold)
	}
	if cfg.STT.PauseThreshold != 1500*time.Millisecond {
		t.Fatalf("unexpected pause threshold: %v", cfg.STT.PauseThreshold)
	}
	if cfg.STT.PhraseTimeLimit != 30*time.Second {
		t.Fatalf("unexpected phrase time limit: %v", cfg.STT.PhraseTimeLimit)
	}
	if cfg.TTS.Voice != "th-TH-PremwadeeNeural" || cfg.TTS.PlayerCommand != "afplay" {
		t.Fatalf("unexpected tts defaults: %q / %q", cfg.TTS.Voice, cfg.TTS.PlayerCommand)
	}
	if cfg.Loop.HistoryLimit != 40 {
		t.Fatalf("unexpected history limit: %d", cfg.Loop.HistoryLimit)
	}
	if cfg.Loop.ResumeAfterSpeak != 500*time.Millisecond {
		t.Fatalf("unexpected resume delay: %v", cfg.Loop.ResumeAfterSpeak)
	}
	if cfg.Loop.CaptureRetry != 2*time.Second || cfg.Loop.InferRetry != 3*time.Second {
		t.Fatalf("unexpected retry delays: %v / %v", cfg.Loop.CaptureRetry, cfg.Loop.InferRetry)
	}
	if cfg.UI.BarWidth != 680 {
		t.Fatalf("unexpected bar width: %d", cfg.UI.BarWidth)
	}
	if cfg.Hotkey != "alt+space" {
		t.Fatalf("unexpected hotkey: %q", cfg.Hotkey)
	}
}

func TestLoadFromAppliesOverridesAndCoercesTypes(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `
llm:
  model: gemma
  timeout: 15
  max_tokens: "256"
stt:
  language: en-US
  pause_threshold: 0.8
ui:
  bar_width: "720"
loop:
  resume_after_speak_ms: 250
`))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}

	if cfg.LLM.Model != "gemma" {
		t.Fatalf("unexpected model: %q", cfg.LLM.Model)
	}
	if cfg.LLM.Timeout != 15*time.Second {
		t.Fatalf("unexpected timeout: %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.MaxTokens != 256 {
		t.Fatalf("quoted max_tokens not coerced: %d", cfg.LLM.MaxTokens)
	}
	if cfg.STT.Language != "en-US" {
		t.Fatalf("unexpected language: %q", cfg.STT.Language)
	}
	if cfg.STT.PauseThreshold != 800*time.Millisecond {
		t.Fatalf("unexpected pause threshold: %v", cfg.STT.PauseThreshold)
	}
	if cfg.UI.BarWidth != 720 {
		t.Fatalf("quoted bar_width not coerced: %d", cfg.UI.BarWidth)
	}
	if cfg.Loop.ResumeAfterSpeak != 250*time.Millisecond {
		t.Fatalf("unexpected resume delay: %v", cfg.Loop.ResumeAfterSpeak)
	}
	// Untouched keys keep their defaults.
	if cfg.LLM.Temperature != 0.7 {
		t.Fatalf("temperature default lost: %v", cfg.LLM.Temperature)
	}
}

func TestLoadFromMalformedFileReturnsDefaultsWithError(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, "llm: [not: a: mapping"))
	if err == nil {
		t.Fatal("expected an error for malformed yaml")
	}
	if cfg.LLM.Model != "openclaw" || cfg.Loop.HistoryLimit != 40 {
		t.Fatalf("malformed config did not fall back to defaults: %+v", cfg)
	}
}

func TestLoadFromEnvironmentOverrides(t *testing.T) {
	t.Setenv("VOICEHUD_LLM_MODEL", "qwen")
	t.Setenv("VOICEHUD_STT_API_KEY", "dg-secret")

	cfg, err := LoadFrom(writeConfig(t, ""))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.LLM.Model != "qwen" {
		t.Fatalf("env override not applied: %q", cfg.LLM.Model)
	}
	if cfg.STT.APIKey != "dg-secret" {
		t.Fatalf("env api key not applied: %q", cfg.STT.APIKey)
	}
}

func TestLoadFromClampsOutOfRangeValues(t *testing.T) {
	cfg, err := LoadFrom(writeConfig(t, `
llm:
  timeout: -5
  temperature: 9.0
stt:
  energy_threshold: 0
loop:
  history_limit: -1
ui:
  bar_width: 0
`))
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.LLM.Timeout != 60*time.Second {
		t.Fatalf("timeout not clamped: %v", cfg.LLM.Timeout)
	}
	if cfg.LLM.Temperature != 0.7 {
		t.Fatalf("temperature not clamped: %v", cfg.LLM.Temperature)
	}
	if cfg.STT.EnergyThreshold != 300 {
		t.Fatalf("energy threshold not clamped: %d", cfg.STT.EnergyThreshold)
	}
	if cfg.Loop.HistoryLimit != 40 {
		t.Fatalf("history limit not clamped: %d", cfg.Loop.HistoryLimit)
	}
	if cfg.UI.BarWidth != 680 {
		t.Fatalf("bar width not clamped: %d", cfg.UI.BarWidth)
	}
}
