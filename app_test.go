package main

import (
	"errors"
	"testing"
	"time"

	"voicehud/internal/domain"
)

func TestRequireReady(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.requireReady(); err == nil {
		t.Fatal("expected uninitialized error")
	}

	bootErr := errors.New("boot")
	app.bootErr = bootErr
	if err := app.requireReady(); !errors.Is(err, bootErr) {
		t.Fatalf("expected boot error, got %v", err)
	}
}

func TestControlsFailBeforeStartup(t *testing.T) {
	t.Parallel()

	app := &App{}
	if err := app.Activate(); err == nil {
		t.Fatal("expected activate to fail before startup")
	}
	if err := app.Deactivate(); err == nil {
		t.Fatal("expected deactivate to fail before startup")
	}
	if err := app.Toggle(); err == nil {
		t.Fatal("expected toggle to fail before startup")
	}
}

func TestGetStateWhenNotInitialized(t *testing.T) {
	t.Parallel()

	app := &App{}
	if got := app.GetState(); got != string(domain.StateIdle) {
		t.Fatalf("unexpected state: %q", got)
	}
	if turns := app.GetConversation(); turns != nil {
		t.Fatalf("unexpected conversation: %v", turns)
	}
}

func TestGetRuntimeInfoReportsBootError(t *testing.T) {
	t.Parallel()

	app := &App{bootErr: errors.New("boot")}
	info := app.GetRuntimeInfo()
	if info["error"] != "boot" {
		t.Fatalf("unexpected info: %v", info)
	}
}

func TestGetRuntimeInfoExposesAutoHideDelay(t *testing.T) {
	t.Parallel()

	app := &App{}
	app.cfg.UI.AutoHideDelay = 5 * time.Second
	app.cfg.LLM.Model = "openclaw"

	info := app.GetRuntimeInfo()
	if info["autoHideMs"] != "5000" {
		t.Fatalf("unexpected autoHideMs: %q", info["autoHideMs"])
	}
	if info["llmModel"] != "openclaw" {
		t.Fatalf("unexpected llmModel: %q", info["llmModel"])
	}
}

func TestSinkMethodsAreSafeBeforeStartup(t *testing.T) {
	t.Parallel()

	// The orchestrator may emit before the Wails context exists; none of
	// these may panic.
	app := &App{}
	app.Notify("hello", domain.ToneNormal)
	app.ShowCollapsed()
	app.ShowExpanded("reply")
	app.PulseStart()
	app.PulseStop()
	app.Hide()
}

func TestSetAutostartWithoutAgent(t *testing.T) {
	t.Parallel()

	app := &App{}
	if app.AutostartEnabled() {
		t.Fatal("autostart enabled without agent")
	}
	if err := app.SetAutostart(true); err == nil {
		t.Fatal("expected error without agent")
	}
}
