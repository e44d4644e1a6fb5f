package autostart

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testAgent(t *testing.T) (*Agent, *[]string) {
	t.Helper()
	var calls []string
	agent := &Agent{
		executable: "/Applications/VoiceHUD.app/Contents/MacOS/voicehud",
		agentsDir:  t.TempDir(),
		runner: func(name string, args ...string) error {
			calls = append(calls, name+" "+strings.Join(args, " "))
			return nil
		},
	}
	return agent, &calls
}

func TestInstallWritesPlistAndLoads(t *testing.T) {
	t.Parallel()

	agent, calls := testAgent(t)
	if agent.Enabled() {
		t.Fatal("agent enabled before install")
	}

	if err := agent.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}
	if !agent.Enabled() {
		t.Fatal("agent not enabled after install")
	}

	contents, err := os.ReadFile(agent.plistPath())
	if err != nil {
		t.Fatalf("read plist: %v", err)
	}
	plist := string(contents)
	if !strings.Contains(plist, "<string>com.voicehud.app</string>") {
		t.Fatalf("label missing from plist: %s", plist)
	}
	if !strings.Contains(plist, "<string>/Applications/VoiceHUD.app/Contents/MacOS/voicehud</string>") {
		t.Fatalf("executable missing from plist: %s", plist)
	}
	if !strings.Contains(plist, "<key>RunAtLoad</key>") {
		t.Fatalf("RunAtLoad missing from plist: %s", plist)
	}

	if len(*calls) != 1 || !strings.HasPrefix((*calls)[0], "launchctl load ") {
		t.Fatalf("unexpected runner calls: %v", *calls)
	}

	// Reinstalling is fine.
	if err := agent.Install(); err != nil {
		t.Fatalf("reinstall: %v", err)
	}
}

func TestRemoveUnloadsAndDeletes(t *testing.T) {
	t.Parallel()

	agent, calls := testAgent(t)
	if err := agent.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}

	if err := agent.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if agent.Enabled() {
		t.Fatal("agent still enabled after remove")
	}
	if len(*calls) != 2 || !strings.HasPrefix((*calls)[1], "launchctl unload ") {
		t.Fatalf("unexpected runner calls: %v", *calls)
	}

	if _, err := os.Stat(filepath.Join(agent.agentsDir, agentLabel+".plist")); !os.IsNotExist(err) {
		t.Fatalf("plist not deleted: %v", err)
	}
}

func TestRemoveAbsentAgentIsNoop(t *testing.T) {
	t.Parallel()

	agent, calls := testAgent(t)
	if err := agent.Remove(); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if len(*calls) != 0 {
		t.Fatalf("runner called for absent agent: %v", *calls)
	}
}
