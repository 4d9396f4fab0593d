// Package services – StatsService
//
// This file implements StatsService, the read side behind the operator
// dashboard and the per-role activity series. Money figures come from the
// earnings snapshots stored on the orders, so historical rows report the
// rates in force when they were priced.
package services

import (
	"context"
	"time"

	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/repo"
)

// StatsService aggregates order activity.
type StatsService struct {
	DB *gorm.DB
}

// Dashboard is the operator overview for a period.
type Dashboard struct {
	From         time.Time        `json:"from"`
	To           time.Time        `json:"to"`
	Totals       repo.OrderTotals `json:"totals"`
	SuperWorkers []repo.PayoutRow `json:"super_worker_payouts"`
	Agents       []repo.PayoutRow `json:"agent_payouts"`
}

// Dashboard returns the order totals and the per-party payout sums for
// [from, to). Zero bounds default to the last 30 days. Operator only.
func (s *StatsService) Dashboard(ctx context.Context, role domain.Role, from, to time.Time) (*Dashboard, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Dashboard")
	defer span.End()

	if role != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	from, to = statsWindow(from, to)

	totals, err := repo.OrderStatsTotals(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	superWorkers, err := repo.SuperWorkerPayouts(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	agents, err := repo.AgentPayouts(ctx, s.DB, from, to)
	if err != nil {
		return nil, err
	}
	return &Dashboard{
		From:         from,
		To:           to,
		Totals:       totals,
		SuperWorkers: superWorkers,
		Agents:       agents,
	}, nil
}

// Series returns per-day order counts for [from, to), scoped to the orders
// the user sees in their role: everything for operators, their own column
// otherwise. Zero bounds default to the last 30 days.
func (s *StatsService) Series(ctx context.Context, userID string, role domain.Role, from, to time.Time) ([]repo.SeriesPoint, error) {
	tr := otel.Tracer("services/StatsService")
	ctx, span := tr.Start(ctx, "Series",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("user.role", string(role)),
		),
	)
	defer span.End()

	var column string
	switch role {
	case domain.RoleSuperAgent:
		column = ""
	case domain.RoleStudent:
		column = "student_id"
	case domain.RoleAgent:
		column = "agent_id"
	case domain.RoleWorker:
		column = "worker_id"
	case domain.RoleSuperWorker:
		column = "super_worker_id"
	default:
		return nil, ErrUnknownRole
	}

	from, to = statsWindow(from, to)
	return repo.OrderSeries(ctx, s.DB, from, to, column, userID)
}

// statsWindow fills zero bounds: to defaults to now, from to 30 days back.
func statsWindow(from, to time.Time) (time.Time, time.Time) {
	if to.IsZero() {
		to = time.Now().UTC()
	}
	if from.IsZero() {
		from = to.AddDate(0, 0, -30)
	}
	return from, to
}
