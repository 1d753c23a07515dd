// Package feedback plays tones and shows desktop notifications.
package feedback

import (
	clog "github.com/charmbracelet/log"
	"github.com/gen2brain/beeep"
)

type Tone int

const (
	ToneStart Tone = iota
	ToneStop
	ToneError
)

// Notifier gives audible and desktop feedback. A disabled Notifier does
// nothing.
type Notifier struct {
	enabled bool
	log     *clog.Logger
	beep    func(freq float64, duration int) error
	notify  func(title, message string) error
}

func New(enabled bool, logger *clog.Logger) *Notifier {
	return &Notifier{
		enabled: enabled,
		log:     logger,
		beep:    beeep.Beep,
		notify: func(title, message string) error {
			return beeep.Notify(title, message, "")
		},
	}
}

// Play sounds a tone; start and stop are distinguishable by pitch.
func (n *Notifier) Play(t Tone) {
	if !n.enabled {
		return
	}

	freq, duration := beeep.DefaultFreq, beeep.DefaultDuration/2
	switch t {
	case ToneStop:
		freq, duration = beeep.DefaultFreq*2, beeep.DefaultDuration/3
	case ToneError:
		freq, duration = beeep.DefaultFreq/2, beeep.DefaultDuration
	}
	if err := n.beep(freq, duration); err != nil {
		n.log.Debug("beep failed", "err", err)
	}
}

// Alert shows a desktop notification.
func (n *Notifier) Alert(title, message string) {
	if !n.enabled {
		return
	}
	if err := n.notify(title, message); err != nil {
		n.log.Warn("desktop notification failed", "title", title, "err", err)
	}
}
