package notify

import (
	"context"
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/repo"
)

// dispatchTotal tracks delivery outcomes. Dispatch is best-effort: failed
// deliveries are logged and counted, never retried and never surfaced to
// the workflow that queued them.
var dispatchTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notifications_dispatched_total",
		Help: "Notification dispatch attempts by outcome.",
	},
	[]string{"result"},
)

// ErrBroadcastTarget is returned when a broadcast names both or neither of
// a role and a user.
var ErrBroadcastTarget = errors.New("broadcast requires exactly one of role or user")

// RolePseudoID returns the legacy role-feed recipient id for privileged
// roles. Older rows were addressed to these feeds instead of individual
// users; reads merge them in.
func RolePseudoID(role domain.Role) string { return string(role) + "_notifications" }

// Dispatcher renders templates and writes notification rows. It is shared
// by the workflow (post-commit fan-out) and the operator broadcast surface.
type Dispatcher struct {
	DB  *gorm.DB
	Log zerolog.Logger
}

// Templates returns the effective template set: built-in defaults overlaid
// with operator-stored overrides.
func (d *Dispatcher) Templates(ctx context.Context) (map[string]Template, error) {
	out := Defaults()
	rows, err := repo.ListNotificationTemplates(ctx, d.DB)
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		base := out[row.TemplateID]
		tpl := Template{
			ID:          row.TemplateID,
			Name:        row.Name,
			Description: row.Description,
			Text:        row.Template,
		}
		if tpl.Name == "" {
			tpl.Name = base.Name
		}
		if tpl.Description == "" {
			tpl.Description = base.Description
		}
		out[row.TemplateID] = tpl
	}
	return out, nil
}

// Notify renders the template identified by key with vars and stores one
// system notification for userID. It never returns an error: an unknown
// key or a failed write is logged, counted, and dropped, so a notification
// problem can never fail the operation that triggered it.
func (d *Dispatcher) Notify(ctx context.Context, key string, vars map[string]string, userID, orderID string) {
	if userID == "" {
		return
	}
	templates, err := d.Templates(ctx)
	if err != nil {
		dispatchTotal.WithLabelValues("error").Inc()
		d.Log.Error().Err(err).Str("template", key).Msg("notification template lookup failed")
		return
	}
	tpl, ok := templates[key]
	if !ok {
		dispatchTotal.WithLabelValues("unknown_template").Inc()
		d.Log.Warn().Str("template", key).Msg("unknown notification template; skipping")
		return
	}

	n := &domain.Notification{
		UserID:  userID,
		Message: Render(tpl.Text, vars),
		OrderID: orderID,
		Source:  domain.SourceSystem,
	}
	if err := repo.CreateNotification(ctx, d.DB, n); err != nil {
		dispatchTotal.WithLabelValues("error").Inc()
		d.Log.Error().Err(err).
			Str("template", key).
			Str("user_id", userID).
			Str("order_id", orderID).
			Msg("notification write failed")
		return
	}
	dispatchTotal.WithLabelValues("ok").Inc()
}

// Broadcast stores an operator message for exactly one target: either
// every current holder of a role, or a single user. It returns the number
// of rows written. Unlike Notify, persistence failures are returned,
// because a broadcast is itself the operation being performed.
func (d *Dispatcher) Broadcast(ctx context.Context, message string, role *domain.Role, userID string) (int, error) {
	if (role == nil) == (userID == "") {
		return 0, ErrBroadcastTarget
	}

	var recipients []string
	if userID != "" {
		recipients = []string{userID}
	} else {
		holders, err := repo.ListUsersByRole(ctx, d.DB, *role)
		if err != nil {
			return 0, err
		}
		for _, h := range holders {
			recipients = append(recipients, h.ID)
		}
	}

	written := 0
	for _, rid := range recipients {
		n := &domain.Notification{
			UserID:  rid,
			Message: message,
			Source:  domain.SourceBroadcast,
		}
		if err := repo.CreateNotification(ctx, d.DB, n); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}
