// Package services – NotificationService
//
// This file implements NotificationService, which serves each user's
// notification feed, the mark-all-read operation, operator broadcasts, and
// the template override surface. Privileged roles additionally read the
// legacy role feed (addressed to a role pseudo-id) merged into their own.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-homework-backend/internal/cache"
	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/notify"
	"github.com/tbourn/go-homework-backend/internal/repo"
)

// NotificationService reads and mutates notification feeds.
type NotificationService struct {
	DB         *gorm.DB
	Dispatcher *notify.Dispatcher
	Cache      *cache.Cache

	// FeedTTL bounds cached feeds between mutations.
	FeedTTL time.Duration
	// TemplateTTL bounds the cached effective template set.
	TemplateTTL time.Duration
}

// NotificationFeed is one user's notifications plus the unread count.
type NotificationFeed struct {
	Items  []domain.Notification `json:"items"`
	Unread int64                 `json:"unread"`
}

// recipientIDs returns the ids a user reads notifications under: their own
// id plus, for privileged roles, the legacy role feed.
func recipientIDs(u *domain.User) []string {
	ids := []string{u.ID}
	switch u.Role {
	case domain.RoleSuperAgent, domain.RoleSuperWorker:
		ids = append(ids, notify.RolePseudoID(u.Role))
	}
	return ids
}

// ListForUser returns the user's feed, newest first, with the unread count.
func (s *NotificationService) ListForUser(ctx context.Context, userID string) (*NotificationFeed, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "ListForUser",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	key := cache.NotificationsKey(userID)
	if v, ok := s.Cache.Get(key); ok {
		if feed, ok := v.(*NotificationFeed); ok {
			return feed, nil
		}
	}

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := recipientIDs(u)
	items, err := repo.ListNotifications(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	unread, err := repo.CountUnread(ctx, s.DB, ids)
	if err != nil {
		return nil, err
	}
	feed := &NotificationFeed{Items: items, Unread: unread}
	s.Cache.Set(key, feed, s.FeedTTL)
	return feed, nil
}

// MarkAllRead flips the read flag on every notification addressed to the
// user (role feed included) and returns how many rows were touched.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "MarkAllRead",
		trace.WithAttributes(attribute.String("user.id", userID)),
	)
	defer span.End()

	u, err := s.getUser(ctx, userID)
	if err != nil {
		return 0, err
	}
	n, err := repo.MarkNotificationsRead(ctx, s.DB, recipientIDs(u))
	if err != nil {
		return 0, err
	}
	s.Cache.Delete(cache.NotificationsKey(userID))
	return n, nil
}

// Broadcast sends an operator message to every holder of a role or to one
// user, returning the number of recipients. Operator only.
func (s *NotificationService) Broadcast(ctx context.Context, actorRole domain.Role, message string, role *domain.Role, userID string) (int, error) {
	tr := otel.Tracer("services/NotificationService")
	ctx, span := tr.Start(ctx, "Broadcast")
	defer span.End()

	if actorRole != domain.RoleSuperAgent {
		return 0, ErrForbidden
	}
	message = strings.TrimSpace(message)
	if message == "" {
		return 0, ErrEmptyMessage
	}
	if role != nil && !domain.KnownRole(*role) {
		return 0, ErrUnknownRole
	}
	n, err := s.Dispatcher.Broadcast(ctx, message, role, userID)
	if err != nil {
		return n, err
	}
	s.Cache.DeletePrefix(cache.NotificationsPrefix)
	return n, nil
}

// Templates returns the effective template set (defaults overlaid with
// stored overrides), cached between edits.
func (s *NotificationService) Templates(ctx context.Context) (map[string]notify.Template, error) {
	if v, ok := s.Cache.Get(cache.TemplatesKey); ok {
		if templates, ok := v.(map[string]notify.Template); ok {
			return templates, nil
		}
	}
	templates, err := s.Dispatcher.Templates(ctx)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(cache.TemplatesKey, templates, s.TemplateTTL)
	return templates, nil
}

// SaveTemplate stores an override for a built-in template. Operator only;
// unknown template ids are rejected.
func (s *NotificationService) SaveTemplate(ctx context.Context, actorRole domain.Role, tpl notify.Template) error {
	if actorRole != domain.RoleSuperAgent {
		return ErrForbidden
	}
	if _, ok := notify.Defaults()[tpl.ID]; !ok {
		return ErrUnknownTemplate
	}
	if strings.TrimSpace(tpl.Text) == "" {
		return ErrUnknownTemplate
	}
	err := repo.UpsertNotificationTemplate(ctx, s.DB, &domain.NotificationTemplate{
		TemplateID:  tpl.ID,
		Name:        tpl.Name,
		Description: tpl.Description,
		Template:    tpl.Text,
	})
	if err != nil {
		return err
	}
	s.Cache.Delete(cache.TemplatesKey)
	return nil
}

func (s *NotificationService) getUser(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}
