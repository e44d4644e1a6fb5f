package autostart

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

const agentLabel = "com.voicehud.app"

// Agent manages a login LaunchAgent so the overlay starts with the user
// session. The runner indirection keeps launchctl out of tests.
type Agent struct {
	executable string
	agentsDir  string
	runner     func(name string, args ...string) error
}

func NewAgent(executable string) (*Agent, error) {
	if executable == "" {
		path, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("resolve executable: %w", err)
		}
		executable = path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("resolve home directory: %w", err)
	}
	return &Agent{
		executable: executable,
		agentsDir:  filepath.Join(home, "Library", "LaunchAgents"),
		runner:     runCommand,
	}, nil
}

func runCommand(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

func (a *Agent) plistPath() string {
	return filepath.Join(a.agentsDir, agentLabel+".plist")
}

// Enabled reports whether the agent is currently installed.
func (a *Agent) Enabled() bool {
	_, err := os.Stat(a.plistPath())
	return err == nil
}

// Install writes the agent plist and loads it. Idempotent.
func (a *Agent) Install() error {
	if err := os.MkdirAll(a.agentsDir, 0o755); err != nil {
		return fmt.Errorf("create agents directory: %w", err)
	}

	path := a.plistPath()
	if err := os.WriteFile(path, []byte(a.plist()), 0o644); err != nil {
		return fmt.Errorf("write agent plist: %w", err)
	}
	if err := a.runner("launchctl", "load", path); err != nil {
		return fmt.Errorf("load agent: %w", err)
	}
	return nil
}

// Remove unloads and deletes the agent. Removing an absent agent is not an
// error.
func (a *Agent) Remove() error {
	path := a.plistPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	// Unload can fail when the agent was never loaded this session.
	_ = a.runner("launchctl", "unload", path)

	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove agent plist: %w", err)
	}
	return nil
}

func (a *Agent) plist() string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Label</key>
	<string>%s</string>
	<key>ProgramArguments</key>
	<array>
		<string>%s</string>
	</array>
	<key>RunAtLoad</key>
	<true/>
</dict>
</plist>
`, agentLabel, a.executable)
}
