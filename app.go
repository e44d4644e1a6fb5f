package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/wailsapp/wails/v2/pkg/runtime"

	"voicehud/internal/autostart"
	"voicehud/internal/bootstrap"
	"voicehud/internal/config"
	"voicehud/internal/domain"
	"voicehud/internal/usecase"
)

const (
	eventStatus  = "assistant:status"
	eventPanel   = "assistant:panel"
	eventPulse   = "assistant:pulse"
	eventVisible = "assistant:visible"
)

// App is the Wails application root. It renders orchestrator output as
// frontend events and exposes the loop controls as bound methods.
type App struct {
	ctx context.Context

	orchestrator *usecase.Orchestrator
	cfg          config.Config
	agent        *autostart.Agent
	bootErr      error
}

func NewApp() *App {
	return &App{}
}

func (a *App) startup(ctx context.Context) {
	a.ctx = ctx

	services, err := bootstrap.Build(a)
	if err != nil {
		a.bootErr = err
		a.Notify("Startup failed: "+err.Error(), domain.ToneError)
		return
	}
	a.cfg = services.Config
	a.orchestrator = services.Orchestrator

	if agent, err := autostart.NewAgent(""); err == nil {
		a.agent = agent
	} else {
		services.Logger.Warn().Err(err).Msg("autostart unavailable")
	}
}

func (a *App) shutdown(ctx context.Context) {
	if a.orchestrator != nil {
		a.orchestrator.Close()
	}
}

// Activate shows the overlay and starts the conversation loop.
func (a *App) Activate() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.orchestrator.Activate()
	return nil
}

// Deactivate stops the loop and hides the overlay.
func (a *App) Deactivate() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.orchestrator.Deactivate()
	return nil
}

// Toggle flips activation. Bound to the global hotkey on the frontend.
func (a *App) Toggle() error {
	if err := a.requireReady(); err != nil {
		return err
	}
	a.orchestrator.Toggle()
	return nil
}

// GetState returns the current loop state for the UI.
func (a *App) GetState() string {
	if a.orchestrator == nil {
		return string(domain.StateIdle)
	}
	return string(a.orchestrator.State())
}

// GetConversation returns a copy of the conversation history.
func (a *App) GetConversation() []domain.Turn {
	if a.orchestrator == nil {
		return nil
	}
	return a.orchestrator.HistorySnapshot()
}

// GetRuntimeInfo returns non-sensitive config for the UI.
func (a *App) GetRuntimeInfo() map[string]string {
	if a.bootErr != nil {
		return map[string]string{"error": a.bootErr.Error()}
	}
	return map[string]string{
		"llmModel":    a.cfg.LLM.Model,
		"llmUrl":      a.cfg.LLM.URL,
		"sttModel":    a.cfg.STT.Model,
		"language":    a.cfg.STT.Language,
		"voice":       a.cfg.TTS.Voice,
		"hotkey":      a.cfg.Hotkey,
		"audioDevice": a.cfg.Audio.InputDevice,
		"audioFormat": a.cfg.Audio.InputFormat,
		"autoHideMs":  strconv.FormatInt(a.cfg.UI.AutoHideDelay.Milliseconds(), 10),
	}
}

// AutostartEnabled reports whether the login agent is installed.
func (a *App) AutostartEnabled() bool {
	return a.agent != nil && a.agent.Enabled()
}

// SetAutostart installs or removes the login agent.
func (a *App) SetAutostart(enabled bool) error {
	if a.agent == nil {
		return fmt.Errorf("autostart is not available")
	}
	if enabled {
		return a.agent.Install()
	}
	return a.agent.Remove()
}

func (a *App) requireReady() error {
	if a.bootErr != nil {
		return a.bootErr
	}
	if a.orchestrator == nil {
		return fmt.Errorf("application is not initialized")
	}
	return nil
}

// Notify emits a status line update.
func (a *App) Notify(text string, tone domain.StatusTone) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventStatus, map[string]string{
		"text": text,
		"tone": string(tone),
	})
}

// ShowCollapsed shows the overlay as the single status bar.
func (a *App) ShowCollapsed() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventVisible, map[string]bool{"visible": true})
	runtime.EventsEmit(a.ctx, eventPanel, map[string]string{"mode": "collapsed", "text": ""})
}

// ShowExpanded expands the overlay with the reply text.
func (a *App) ShowExpanded(text string) {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventVisible, map[string]bool{"visible": true})
	runtime.EventsEmit(a.ctx, eventPanel, map[string]string{"mode": "expanded", "text": text})
}

// PulseStart starts the listening animation.
func (a *App) PulseStart() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPulse, map[string]bool{"on": true})
}

// PulseStop stops the listening animation.
func (a *App) PulseStop() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventPulse, map[string]bool{"on": false})
}

// Hide hides the overlay window.
func (a *App) Hide() {
	if a.ctx == nil {
		return
	}
	runtime.EventsEmit(a.ctx, eventVisible, map[string]bool{"visible": false})
}
