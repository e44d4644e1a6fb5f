package capture

import (
	"encoding/binary"
	"math"
	"sync"
	"time"
)

// voiceGate tracks whether microphone audio has crossed the energy
// threshold, and when it last did. It separates speech from room noise so
// the pause endpoint only runs after the user actually talked.
type voiceGate struct {
	threshold float64

	mu        sync.Mutex
	heard     bool
	lastVoice time.Time
}

func newVoiceGate(threshold int) *voiceGate {
	if threshold <= 0 {
		threshold = 300
	}
	return &voiceGate{threshold: float64(threshold)}
}

func (g *voiceGate) Observe(pcm []byte) {
	if rms(pcm) < g.threshold {
		return
	}
	g.mu.Lock()
	g.heard = true
	g.lastVoice = time.Now()
	g.mu.Unlock()
}

func (g *voiceGate) Heard() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.heard
}

func (g *voiceGate) LastVoice() time.Time {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastVoice
}

// rms computes the root mean square of little-endian signed 16-bit samples.
func rms(pcm []byte) float64 {
	n := len(pcm) / 2
	if n == 0 {
		return 0
	}
	var sum float64
	for i := 0; i+1 < len(pcm); i += 2 {
		sample := float64(int16(binary.LittleEndian.Uint16(pcm[i:])))
		sum += sample * sample
	}
	return math.Sqrt(sum / float64(n))
}
