// Package notification provides desktop notification utilities.
package notification

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/gen2brain/beeep"
	"github.com/xvierd/keeper/internal/config"
	"github.com/xvierd/keeper/internal/domain"
	"github.com/xvierd/keeper/internal/ports"
)

const title = "Productivity Keeper"

// Notifier handles desktop notifications.
// Delivery runs in the background so a slow notification daemon never
// holds up the caller.
type Notifier struct {
	cfg      *config.NotificationConfig
	settings ports.SettingsRepository
	logger   *log.Logger
	pending  sync.WaitGroup

	// notify and alert are the beeep entry points, replaceable in tests.
	notify func(title, message string) error
	alert  func(title, message string) error
}

// Ensure Notifier implements ports.Notifier.
var _ ports.Notifier = (*Notifier)(nil)

// New creates a new notifier with the given configuration.
// When settings is non-nil the user's notification sound preference is honoured.
// Delivery failures go to logger; a nil logger discards them.
func New(cfg *config.NotificationConfig, settings ports.SettingsRepository, logger *log.Logger) *Notifier {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Notifier{
		cfg:      cfg,
		settings: settings,
		logger:   logger,
		notify:   func(title, message string) error { return beeep.Notify(title, message, "") },
		alert:    func(title, message string) error { return beeep.Alert(title, message, "") },
	}
}

// NotifyPhaseComplete announces a finished phase, with sound unless the
// user picked the gentle sound or sound is disabled. It returns before the
// notification is shown.
func (n *Notifier) NotifyPhaseComplete(finished domain.Mode) error {
	if !n.IsEnabled() {
		return nil
	}

	deliver := n.notify
	if n.cfg.Sound && n.sound() != domain.SoundGentle {
		deliver = n.alert
	}
	message := domain.CompletionMessage(finished)

	n.pending.Add(1)
	go func() {
		defer n.pending.Done()
		if err := deliver(title, message); err != nil {
			n.logger.Printf("failed to show notification: %v", err)
		}
	}()
	return nil
}

// Wait blocks until every notification in flight has been delivered.
func (n *Notifier) Wait() {
	n.pending.Wait()
}

// IsEnabled returns true if notifications are enabled.
func (n *Notifier) IsEnabled() bool {
	return n.cfg != nil && n.cfg.Enabled
}

func (n *Notifier) sound() string {
	if n.settings == nil {
		return domain.SoundBell
	}
	s, err := n.settings.Load(context.Background())
	if err != nil || s == nil || s.NotificationSound == "" {
		return domain.SoundBell
	}
	return s.NotificationSound
}
