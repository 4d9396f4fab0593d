// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for users and
// reference codes.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-homework-backend/internal/domain"
)

// CreateUser inserts a new user row. Returns ErrDuplicate when the ID or
// email is already taken.
func CreateUser(ctx context.Context, db *gorm.DB, u *domain.User) error {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(u).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetUser fetches a user by ID, or ErrNotFound.
func GetUser(ctx context.Context, db *gorm.DB, id string) (*domain.User, error) {
	var u domain.User
	err := db.WithContext(ctx).First(&u, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListUsers returns all users, newest first. Operator view.
func ListUsers(ctx context.Context, db *gorm.DB) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// ListUsersByRole returns every user holding the given role.
func ListUsersByRole(ctx context.Context, db *gorm.DB, role domain.Role) ([]domain.User, error) {
	var out []domain.User
	err := db.WithContext(ctx).
		Where("role = ?", role).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// UpdateUserRole changes a user's role. Returns ErrNotFound when the user
// does not exist.
func UpdateUserRole(ctx context.Context, db *gorm.DB, id string, role domain.Role) error {
	res := db.WithContext(ctx).
		Model(&domain.User{}).
		Where("id = ?", id).
		Update("role", role)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// CreateReferenceCode inserts a registration code. Returns ErrDuplicate
// when the code already exists.
func CreateReferenceCode(ctx context.Context, db *gorm.DB, rc *domain.ReferenceCode) error {
	if rc.CreatedAt.IsZero() {
		rc.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(rc).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetReferenceCode fetches a registration code, or ErrNotFound.
func GetReferenceCode(ctx context.Context, db *gorm.DB, code string) (*domain.ReferenceCode, error) {
	var rc domain.ReferenceCode
	err := db.WithContext(ctx).First(&rc, "code = ?", code).Error
	if err != nil {
		return nil, err
	}
	return &rc, nil
}
