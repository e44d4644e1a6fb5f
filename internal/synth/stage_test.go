package synth

import (
	"context"
	"errors"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"voicehud/internal/domain"
)

type fakeSynthClient struct {
	audio []byte
	err   error
}

func (f *fakeSynthClient) Synthesize(ctx context.Context, text string, dst io.Writer) error {
	if f.err != nil {
		return f.err
	}
	_, err := dst.Write(f.audio)
	return err
}

type fakePlayer struct {
	err error

	mu     sync.Mutex
	played []string
	// captured while the file still exists
	sizes []int64
}

func (f *fakePlayer) Play(ctx context.Context, path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.played = append(f.played, path)
	if info, err := os.Stat(path); err == nil {
		f.sizes = append(f.sizes, info.Size())
	}
	return f.err
}

func TestSpeakRendersPlaysAndRemovesFile(t *testing.T) {
	t.Parallel()

	client := &fakeSynthClient{audio: []byte("mp3 bytes")}
	player := &fakePlayer{}
	stage := NewStage(client, player, zerolog.Nop())

	if err := stage.Speak(context.Background(), "hello"); err != nil {
		t.Fatalf("speak: %v", err)
	}

	if len(player.played) != 1 {
		t.Fatalf("expected one playback, got %d", len(player.played))
	}
	if len(player.sizes) != 1 || player.sizes[0] != int64(len("mp3 bytes")) {
		t.Fatalf("player did not see the rendered audio: %v", player.sizes)
	}
	if _, err := os.Stat(player.played[0]); !os.IsNotExist(err) {
		t.Fatalf("temp file not removed: %v", err)
	}
}

func TestSpeakSynthesisFailure(t *testing.T) {
	t.Parallel()

	client := &fakeSynthClient{err: errors.New("service down")}
	player := &fakePlayer{}
	stage := NewStage(client, player, zerolog.Nop())

	err := stage.Speak(context.Background(), "hello")
	if domain.KindOf(err) != domain.FailureSynthesis {
		t.Fatalf("expected synthesis kind, got %v", err)
	}
	if len(player.played) != 0 {
		t.Fatal("player ran despite synthesis failure")
	}
}

func TestSpeakPlaybackFailureStillRemovesFile(t *testing.T) {
	t.Parallel()

	client := &fakeSynthClient{audio: []byte("mp3")}
	player := &fakePlayer{err: errors.New("no output device")}
	stage := NewStage(client, player, zerolog.Nop())

	err := stage.Speak(context.Background(), "hello")
	if domain.KindOf(err) != domain.FailurePlayback {
		t.Fatalf("expected playback kind, got %v", err)
	}
	if len(player.played) != 1 {
		t.Fatalf("expected one playback attempt, got %d", len(player.played))
	}
	if _, statErr := os.Stat(player.played[0]); !os.IsNotExist(statErr) {
		t.Fatalf("temp file not removed after playback failure: %v", statErr)
	}
}
