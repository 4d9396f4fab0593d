// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for notifications
// and notification template overrides.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/go-homework-backend/internal/domain"
)

// CreateNotification inserts one notification row. The ID and timestamp
// are filled in when absent.
func CreateNotification(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	if n.Source == "" {
		n.Source = domain.SourceSystem
	}
	return db.WithContext(ctx).Create(n).Error
}

// ListNotifications returns notifications addressed to any of the given
// recipient ids (a user id plus, for privileged roles, the legacy role
// pseudo-id), newest first.
func ListNotifications(ctx context.Context, db *gorm.DB, recipientIDs []string) ([]domain.Notification, error) {
	var out []domain.Notification
	err := db.WithContext(ctx).
		Where("user_id IN ?", recipientIDs).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountUnread returns how many unread notifications the given recipient
// ids hold.
func CountUnread(ctx context.Context, db *gorm.DB, recipientIDs []string) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id IN ? AND is_read = ?", recipientIDs, false).
		Count(&n).Error
	return n, err
}

// MarkNotificationsRead flips the read flag on every notification addressed
// to the given recipient ids and returns the number of rows touched. Rows
// of other recipients are never affected.
func MarkNotificationsRead(ctx context.Context, db *gorm.DB, recipientIDs []string) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("user_id IN ? AND is_read = ?", recipientIDs, false).
		Update("is_read", true)
	return res.RowsAffected, res.Error
}

// ListNotificationTemplates returns all stored template override rows.
func ListNotificationTemplates(ctx context.Context, db *gorm.DB) ([]domain.NotificationTemplate, error) {
	var out []domain.NotificationTemplate
	err := db.WithContext(ctx).Order("template_id").Find(&out).Error
	return out, err
}

// UpsertNotificationTemplate stores or replaces one template override.
func UpsertNotificationTemplate(ctx context.Context, db *gorm.DB, tpl *domain.NotificationTemplate) error {
	tpl.UpdatedAt = time.Now().UTC()
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "template_id"}},
			UpdateAll: true,
		}).
		Create(tpl).Error
}
