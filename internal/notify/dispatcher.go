package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/UkralStul/pulse-social/internal/domain"
	"github.com/UkralStul/pulse-social/internal/metrics"
)

// PreferenceSource resolves a user's notification preferences.
type PreferenceSource interface {
	Notifications(ctx context.Context, userID string) (domain.NotificationPreferences, error)
}

// Deliverer is a side-channel a notification is handed to once it passed the
// preference gate.
type Deliverer interface {
	Deliver(ctx context.Context, n domain.Notification) error
}

// Dispatcher gates notification events on the target's preferences and hands
// the survivors to every deliverer. It never returns an error to the caller.
type Dispatcher struct {
	prefs      PreferenceSource
	deliverers []Deliverer
	log        *zap.Logger
	metrics    *metrics.Metrics
}

func NewDispatcher(prefs PreferenceSource, log *zap.Logger, m *metrics.Metrics, deliverers ...Deliverer) *Dispatcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		prefs:      prefs,
		deliverers: deliverers,
		log:        log.Named("notify"),
		metrics:    m,
	}
}

// Notify delivers n to targetID when the target has push enabled and the
// event type switched on. It reports whether the event was handed to the
// side-channels.
func (d *Dispatcher) Notify(ctx context.Context, targetID string, n domain.Notification) bool {
	kind := string(n.Type)
	log := d.log.With(zap.String("target_id", targetID), zap.String("type", kind))

	p, err := d.prefs.Notifications(ctx, targetID)
	if err != nil {
		// unknown preferences never leak a notification
		log.Warn("notification preferences unavailable, dropping event", zap.Error(err))
		d.metrics.Notification(kind, "error")
		return false
	}
	if !p.Allows(n.Type) {
		log.Debug("notification suppressed by preferences")
		d.metrics.Notification(kind, "suppressed")
		return false
	}

	n.TargetID = targetID
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	for _, dl := range d.deliverers {
		if err := dl.Deliver(ctx, n); err != nil {
			log.Warn("notification delivery failed", zap.Error(err))
		}
	}
	d.metrics.Notification(kind, "delivered")
	log.Debug("notification delivered", zap.String("notification_id", n.ID))
	return true
}
