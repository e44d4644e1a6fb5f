package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"voicehud/internal/ports"
)

const (
	// How long a freshly started recorder must survive before we trust it.
	warmup = 250 * time.Millisecond
	// Grace period between SIGINT and SIGKILL during Stop.
	stopGrace = 1200 * time.Millisecond
)

// Recorder captures raw s16le microphone audio by shelling out to ffmpeg
// (or any drop-in command with the same flags).
type Recorder struct {
	command string
}

func NewRecorder(command string) *Recorder {
	if command == "" {
		command = "ffmpeg"
	}
	return &Recorder{command: command}
}

func (r *Recorder) Start(ctx context.Context, cfg ports.AudioConfig) (ports.AudioSession, error) {
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 16000
	}
	if cfg.Channels <= 0 {
		cfg.Channels = 1
	}
	if cfg.InputFormat == "" {
		cfg.InputFormat = "pulse"
	}
	if cfg.InputDevice == "" {
		cfg.InputDevice = "default"
	}

	cmd := exec.CommandContext(ctx, r.command,
		"-nostdin",
		"-hide_banner",
		"-loglevel", "warning",
		"-f", cfg.InputFormat,
		"-i", cfg.InputDevice,
		"-ac", strconv.Itoa(cfg.Channels),
		"-ar", strconv.Itoa(cfg.SampleRate),
		"-f", "s16le",
		"-",
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("recorder stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start recorder: %w", err)
	}

	exited := make(chan error, 1)
	go func() {
		exited <- cmd.Wait()
		close(exited)
	}()

	// A recorder that dies within the warmup window almost always means the
	// device is missing or busy; surface its stderr instead of a pipe EOF.
	select {
	case err := <-exited:
		if err != nil {
			return nil, fmt.Errorf("recorder exited during warmup: %w: %s", err, trimmed(&stderr))
		}
		return nil, errors.New("recorder exited during warmup")
	case <-time.After(warmup):
	}

	return &recorderSession{
		stdout:  stdout,
		stderr:  &stderr,
		process: cmd.Process,
		exited:  exited,
	}, nil
}

type recorderSession struct {
	stdout io.ReadCloser
	stderr *bytes.Buffer

	process *os.Process
	exited  <-chan error

	stopOnce sync.Once
	stopErr  error
}

func (s *recorderSession) Read(p []byte) (int, error) {
	return s.stdout.Read(p)
}

func (s *recorderSession) Close() error {
	return s.Stop()
}

// Stop interrupts the recorder and waits for it to exit, escalating to a
// kill after stopGrace. A non-zero exit status is expected here and not
// reported as an error.
func (s *recorderSession) Stop() error {
	s.stopOnce.Do(func() {
		if s.process != nil {
			_ = s.process.Signal(os.Interrupt)
		}

		select {
		case err, ok := <-s.exited:
			if ok {
				s.stopErr = ignoreExitStatus(err)
			}
		case <-time.After(stopGrace):
			if s.process != nil {
				_ = s.process.Kill()
			}
			if err, ok := <-s.exited; ok {
				s.stopErr = ignoreExitStatus(err)
			}
		}

		if err := s.stdout.Close(); err != nil && !errors.Is(err, os.ErrClosed) && s.stopErr == nil {
			s.stopErr = err
		}
		if s.stopErr != nil && s.stderr.Len() > 0 {
			s.stopErr = fmt.Errorf("%w: %s", s.stopErr, trimmed(s.stderr))
		}
	})
	return s.stopErr
}

func ignoreExitStatus(err error) error {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return nil
	}
	return err
}

func trimmed(buf *bytes.Buffer) string {
	return strings.TrimSpace(buf.String())
}
