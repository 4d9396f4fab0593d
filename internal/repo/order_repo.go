// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order
// aggregate: the order row itself, its files, and its change requests.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
//
// Error semantics:
//   - When a row is not found, functions return gorm.ErrRecordNotFound
//     (also exported here as ErrNotFound for convenience).
//   - Versioned updates return ErrVersionConflict when the row exists but
//     its version no longer matches the caller's snapshot.
//   - On other DB errors (constraint violations, connectivity issues, etc.)
//     the raw gorm error is propagated.
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tbourn/go-homework-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// ErrVersionConflict is returned by versioned order updates when the row
// exists but was modified since the caller loaded it.
var ErrVersionConflict = errors.New("version conflict")

// CreateOrder inserts a new order row. On a primary-key collision of the
// short order ID it returns ErrDuplicate so the caller can regenerate.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) error {
	if o.CreatedAt.IsZero() {
		o.CreatedAt = time.Now().UTC()
	}
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

// GetOrder fetches a single order by ID, or ErrNotFound.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	err := db.WithContext(ctx).First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListOrders returns all orders, most recent first. Operator view.
func ListOrders(ctx context.Context, db *gorm.DB) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).Order("created_at desc").Find(&out).Error
	return out, err
}

// ListOrdersByField returns orders where the given column equals userID,
// most recent first. Column must be one of the assignment columns; callers
// pass constants, never user input.
func listOrdersByColumn(ctx context.Context, db *gorm.DB, column, userID string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where(column+" = ?", userID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// ListOrdersByStudent returns the orders a student submitted.
func ListOrdersByStudent(ctx context.Context, db *gorm.DB, studentID string) ([]domain.Order, error) {
	return listOrdersByColumn(ctx, db, "student_id", studentID)
}

// ListOrdersByAgent returns the orders attributed to an agent.
func ListOrdersByAgent(ctx context.Context, db *gorm.DB, agentID string) ([]domain.Order, error) {
	return listOrdersByColumn(ctx, db, "agent_id", agentID)
}

// ListOrdersByWorker returns the orders assigned to a worker.
func ListOrdersByWorker(ctx context.Context, db *gorm.DB, workerID string) ([]domain.Order, error) {
	return listOrdersByColumn(ctx, db, "worker_id", workerID)
}

// ListOrdersBySuperWorker returns the orders assigned to a super worker.
func ListOrdersBySuperWorker(ctx context.Context, db *gorm.DB, superWorkerID string) ([]domain.Order, error) {
	return listOrdersByColumn(ctx, db, "super_worker_id", superWorkerID)
}

// UpdateOrderVersioned applies fields to the order identified by id, but
// only when its version still equals version; the version column is
// incremented in the same statement. Returns ErrVersionConflict when the
// order exists with a different version, ErrNotFound when it is missing.
func UpdateOrderVersioned(ctx context.Context, db *gorm.DB, id string, version int64, fields map[string]any) error {
	updates := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		updates[k] = v
	}
	updates["version"] = version + 1

	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND version = ?", id, version).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var n int64
		if err := db.WithContext(ctx).
			Model(&domain.Order{}).
			Where("id = ?", id).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	return nil
}

// InsertOrderFiles persists a batch of uploaded files. IDs and timestamps
// are filled in when absent.
func InsertOrderFiles(ctx context.Context, db *gorm.DB, files []domain.OrderFile) error {
	if len(files) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range files {
		if files[i].ID == "" {
			files[i].ID = uuid.NewString()
		}
		if files[i].CreatedAt.IsZero() {
			files[i].CreatedAt = now
		}
		files[i].IsLatest = true
	}
	return db.WithContext(ctx).Create(&files).Error
}

// SupersedePhaseFiles flips is_latest off for every file of the given
// phase on the order. Superseded rows are kept for history.
func SupersedePhaseFiles(ctx context.Context, db *gorm.DB, orderID string, phase domain.FilePhase) error {
	return db.WithContext(ctx).
		Model(&domain.OrderFile{}).
		Where("order_id = ? AND phase = ? AND is_latest = ?", orderID, phase, true).
		Update("is_latest", false).Error
}

// ListOrderFiles returns all files of an order, newest first.
func ListOrderFiles(ctx context.Context, db *gorm.DB, orderID string) ([]domain.OrderFile, error) {
	var out []domain.OrderFile
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// CountLatestPhaseFiles returns how many current files the order has in the
// given phase.
func CountLatestPhaseFiles(ctx context.Context, db *gorm.DB, orderID string, phase domain.FilePhase) (int64, error) {
	var n int64
	err := db.WithContext(ctx).
		Model(&domain.OrderFile{}).
		Where("order_id = ? AND phase = ? AND is_latest = ?", orderID, phase, true).
		Count(&n).Error
	return n, err
}

// PromotePhaseFiles re-labels the current files of one phase as another
// phase (e.g. promoting worker drafts straight to final when no review
// round happened). Returns the number of promoted rows.
func PromotePhaseFiles(ctx context.Context, db *gorm.DB, orderID string, from, to domain.FilePhase) (int64, error) {
	res := db.WithContext(ctx).
		Model(&domain.OrderFile{}).
		Where("order_id = ? AND phase = ? AND is_latest = ?", orderID, from, true).
		Update("phase", to)
	return res.RowsAffected, res.Error
}

// CreateChangeRequest inserts a change-request row. The ID and timestamp
// are filled in when absent.
func CreateChangeRequest(ctx context.Context, db *gorm.DB, cr *domain.ChangeRequest) error {
	if cr.ID == "" {
		cr.ID = uuid.NewString()
	}
	if cr.CreatedAt.IsZero() {
		cr.CreatedAt = time.Now().UTC()
	}
	return db.WithContext(ctx).Create(cr).Error
}

// ListChangeRequests returns all change requests of an order, newest first.
func ListChangeRequests(ctx context.Context, db *gorm.DB, orderID string) ([]domain.ChangeRequest, error) {
	var out []domain.ChangeRequest
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// LatestProposal returns the most recent word-count or deadline proposal on
// the order, or ErrNotFound when none exists.
func LatestProposal(ctx context.Context, db *gorm.DB, orderID string) (*domain.ChangeRequest, error) {
	var cr domain.ChangeRequest
	err := db.WithContext(ctx).
		Where("order_id = ? AND kind IN ?", orderID,
			[]domain.ChangeKind{domain.ChangeWordCountProposal, domain.ChangeDeadlineProposal}).
		Order("created_at desc").
		First(&cr).Error
	if err != nil {
		return nil, err
	}
	return &cr, nil
}
