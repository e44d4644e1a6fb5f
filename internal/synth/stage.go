package synth

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"voicehud/internal/domain"
	"voicehud/internal/ports"
)

// Stage is the synthesis-and-playback stage: render the reply to a temporary
// audio file, play it, and always remove the file afterwards.
type Stage struct {
	client ports.SynthesisClient
	player ports.Player
	log    zerolog.Logger
}

func NewStage(client ports.SynthesisClient, player ports.Player, log zerolog.Logger) *Stage {
	return &Stage{
		client: client,
		player: player,
		log:    log.With().Str("component", "synth").Logger(),
	}
}

func (s *Stage) Speak(ctx context.Context, text string) error {
	file, err := os.CreateTemp("", "voicehud-*.mp3")
	if err != nil {
		return domain.NewStageError(domain.FailureSynthesis, fmt.Errorf("create audio file: %w", err))
	}
	path := file.Name()
	defer func() {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			s.log.Warn().Err(err).Str("path", path).Msg("leaking temp audio file")
		}
	}()

	if err := s.client.Synthesize(ctx, text, file); err != nil {
		_ = file.Close()
		return domain.NewStageError(domain.FailureSynthesis, err)
	}
	if err := file.Close(); err != nil {
		return domain.NewStageError(domain.FailureSynthesis, fmt.Errorf("flush audio file: %w", err))
	}

	if err := s.player.Play(ctx, path); err != nil {
		return domain.NewStageError(domain.FailurePlayback, err)
	}
	return nil
}
