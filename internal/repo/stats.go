// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides the aggregate queries behind the
// operator dashboard and the per-role analytics endpoints. Earnings
// components are extracted from the JSON snapshot stored on each order, so
// historical rows keep the rates that were in force when they were priced.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/go-homework-backend/internal/domain"
)

// OrderTotals is the headline block of the operator dashboard.
type OrderTotals struct {
	Orders    int64   `json:"orders"`
	Completed int64   `json:"completed"`
	Declined  int64   `json:"declined"`
	Refunded  int64   `json:"refunded"`
	Revenue   float64 `json:"revenue"`
	Profit    float64 `json:"profit"`
}

// PayoutRow is one party's accumulated share over a period. Declined and
// refunded orders claw their previously recorded share back, so the amount
// can be negative.
type PayoutRow struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

// SeriesPoint is one day of order activity.
type SeriesPoint struct {
	Day       string `json:"day"`
	Orders    int64  `json:"orders"`
	Completed int64  `json:"completed"`
}

// OrderStatsTotals aggregates order counts, revenue, and profit for orders
// created in [from, to).
func OrderStatsTotals(ctx context.Context, db *gorm.DB, from, to time.Time) (OrderTotals, error) {
	var out OrderTotals
	base := db.WithContext(ctx).Model(&domain.Order{}).
		Where("created_at >= ? AND created_at < ?", from, to)

	if err := base.Session(&gorm.Session{}).Count(&out.Orders).Error; err != nil {
		return out, err
	}

	counts := []struct {
		status domain.Status
		dst    *int64
	}{
		{domain.StatusCompleted, &out.Completed},
		{domain.StatusDeclined, &out.Declined},
		{domain.StatusRefund, &out.Refunded},
	}
	for _, c := range counts {
		if err := base.Session(&gorm.Session{}).
			Where("status = ?", c.status).
			Count(c.dst).Error; err != nil {
			return out, err
		}
	}

	var money struct {
		Revenue float64
		Profit  float64
	}
	err := base.Session(&gorm.Session{}).
		Where("status = ?", domain.StatusCompleted).
		Select("COALESCE(SUM(price), 0) AS revenue, COALESCE(SUM(json_extract(earnings, '$.profit')), 0) AS profit").
		Scan(&money).Error
	if err != nil {
		return out, err
	}
	out.Revenue = money.Revenue
	out.Profit = money.Profit
	return out, nil
}

// SuperWorkerPayouts sums each super worker's earnings share over orders
// created in [from, to). Completed orders add their share; declined and
// refunded ones subtract it.
func SuperWorkerPayouts(ctx context.Context, db *gorm.DB, from, to time.Time) ([]PayoutRow, error) {
	var out []PayoutRow
	err := db.WithContext(ctx).Model(&domain.Order{}).
		Select(`super_worker_id AS user_id,
			COALESCE(SUM(CASE WHEN status = ? THEN json_extract(earnings, '$.super_worker')
			                  ELSE -json_extract(earnings, '$.super_worker') END), 0) AS amount`,
			domain.StatusCompleted).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status IN ?", []domain.Status{domain.StatusCompleted, domain.StatusDeclined, domain.StatusRefund}).
		Where("super_worker_id <> ''").
		Group("super_worker_id").
		Order("super_worker_id").
		Scan(&out).Error
	return out, err
}

// AgentPayouts sums each agent's commission over orders created in
// [from, to), with the same decline/refund clawback as SuperWorkerPayouts.
// Orders without an agent share contribute nothing.
func AgentPayouts(ctx context.Context, db *gorm.DB, from, to time.Time) ([]PayoutRow, error) {
	var out []PayoutRow
	err := db.WithContext(ctx).Model(&domain.Order{}).
		Select(`agent_id AS user_id,
			COALESCE(SUM(CASE WHEN status = ? THEN COALESCE(json_extract(earnings, '$.agent'), 0)
			                  ELSE -COALESCE(json_extract(earnings, '$.agent'), 0) END), 0) AS amount`,
			domain.StatusCompleted).
		Where("created_at >= ? AND created_at < ?", from, to).
		Where("status IN ?", []domain.Status{domain.StatusCompleted, domain.StatusDeclined, domain.StatusRefund}).
		Where("agent_id <> ''").
		Group("agent_id").
		Order("agent_id").
		Scan(&out).Error
	return out, err
}

// OrderSeries returns the per-day order counts for orders created in
// [from, to), optionally scoped to one column/user pair (e.g. a super
// worker looking at their own throughput). Pass an empty column for the
// global series.
func OrderSeries(ctx context.Context, db *gorm.DB, from, to time.Time, column, userID string) ([]SeriesPoint, error) {
	q := db.WithContext(ctx).Model(&domain.Order{}).
		Select(`strftime('%Y-%m-%d', created_at) AS day,
			COUNT(*) AS orders,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS completed`,
			domain.StatusCompleted).
		Where("created_at >= ? AND created_at < ?", from, to)
	if column != "" {
		q = q.Where(column+" = ?", userID)
	}
	var out []SeriesPoint
	err := q.Group("day").Order("day").Scan(&out).Error
	return out, err
}
