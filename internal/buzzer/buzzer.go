// Package buzzer sounds short tones on button presses, standing in for the
// piezo buzzer of a small board.
package buzzer

import (
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/generators"
	"github.com/gopxl/beep/speaker"
	"go.uber.org/zap"
)

const (
	sampleRate = beep.SampleRate(44100)
	clickFreq  = 880
	clickLen   = 40 * time.Millisecond
)

// Buzzer plays a click for every button press. Without an audio device it
// stays silent.
type Buzzer struct {
	enabled bool
	logger  *zap.Logger
}

// New initializes the speaker. Audio failures are not fatal: the buzzer is
// returned disabled and the error logged.
func New(enabled bool, logger *zap.Logger) *Buzzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Buzzer{logger: logger}
	if !enabled {
		return b
	}
	if err := speaker.Init(sampleRate, sampleRate.N(time.Second/10)); err != nil {
		logger.Warn("audio initialization failed, buzzer disabled", zap.Error(err))
		return b
	}
	b.enabled = true
	return b
}

// Enabled reports whether clicks are audible.
func (b *Buzzer) Enabled() bool {
	return b.enabled
}

// Click plays one short tone.
func (b *Buzzer) Click() {
	if !b.enabled {
		return
	}
	sine, err := generators.SineTone(sampleRate, clickFreq)
	if err != nil {
		b.logger.Debug("tone generation failed", zap.Error(err))
		return
	}
	speaker.Play(beep.Take(sampleRate.N(clickLen), sine))
}

func (b *Buzzer) ButtonPressed(name string) {
	b.Click()
}

func (b *Buzzer) ButtonReleased(name string) {}
