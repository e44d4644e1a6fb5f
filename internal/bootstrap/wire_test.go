package bootstrap

import (
	"os"
	"path/filepath"
	"testing"

	"voicehud/internal/domain"
)

func TestBuildSuccess(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VOICEHUD_STT_API_KEY", "test-key")

	services, err := Build(noopSink{})
	if err != nil {
		t.Fatalf("build failed: %v", err)
	}
	defer services.Orchestrator.Close()

	if services.Orchestrator == nil {
		t.Fatal("expected orchestrator")
	}
	if services.Orchestrator.State() != domain.StateIdle {
		t.Fatalf("fresh orchestrator not idle: %s", services.Orchestrator.State())
	}
	if services.Config.LLM.Model != "openclaw" {
		t.Fatalf("unexpected config: %+v", services.Config.LLM)
	}
}

func TestBuildToleratesMalformedConfig(t *testing.T) {
	home := t.TempDir()
	dir := filepath.Join(home, ".config", "voicehud")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("llm: [broken"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv("HOME", home)

	services, err := Build(noopSink{})
	if err != nil {
		t.Fatalf("build failed on malformed config: %v", err)
	}
	defer services.Orchestrator.Close()

	if services.Config.Loop.HistoryLimit != 40 {
		t.Fatalf("defaults not applied: %+v", services.Config.Loop)
	}
}

func TestBuildFailsOnUnwritableLogPath(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("VOICEHUD_LOG_PATH", filepath.Join(home, "missing-dir", "voicehud.log"))

	if _, err := Build(noopSink{}); err == nil {
		t.Fatal("expected build error for unwritable log path")
	}
}

type noopSink struct{}

func (noopSink) Notify(_ string, _ domain.StatusTone) {}
func (noopSink) ShowCollapsed()                       {}
func (noopSink) ShowExpanded(_ string)                {}
func (noopSink) PulseStart()                          {}
func (noopSink) PulseStop()                           {}
func (noopSink) Hide()                                {}
