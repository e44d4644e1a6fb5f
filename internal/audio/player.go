package audio

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// CommandPlayer plays an audio file by running an external player command
// with the file path as its only argument.
type CommandPlayer struct {
	command string
}

func NewCommandPlayer(command string) *CommandPlayer {
	if command == "" {
		command = "afplay"
	}
	return &CommandPlayer{command: command}
}

func (p *CommandPlayer) Play(ctx context.Context, path string) error {
	cmd := exec.CommandContext(ctx, p.command, path)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := trimmed(&stderr); msg != "" {
			return fmt.Errorf("play %s: %w: %s", path, err, msg)
		}
		return fmt.Errorf("play %s: %w", path, err)
	}
	return nil
}
