// Package services – UserService
//
// This file implements UserService: registration through reference codes,
// operator role changes, and the operator user listing. Registering with a
// code grants the code's role and records the code owner as referrer, which
// is what later binds a student's orders to an agent. Granting the agent or
// super-worker role seeds the user's default fee override row.
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/tbourn/go-homework-backend/internal/domain"
	"github.com/tbourn/go-homework-backend/internal/notify"
	"github.com/tbourn/go-homework-backend/internal/repo"
)

// UserService owns accounts, reference codes, and role administration.
type UserService struct {
	DB         *gorm.DB
	Pricing    *PricingService
	Dispatcher *notify.Dispatcher
	Log        zerolog.Logger
}

// RegisterInput carries a registration request.
type RegisterInput struct {
	Name          string
	Email         string
	ReferenceCode string
}

// Register creates an account from a reference code. The code determines
// the new account's role; its owner becomes the referrer.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "Register")
	defer span.End()

	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || in.Email == "" || !strings.Contains(in.Email, "@") {
		return nil, ErrInvalidUser
	}

	code, err := repo.GetReferenceCode(ctx, s.DB, strings.TrimSpace(in.ReferenceCode))
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrInvalidReferenceCode
		}
		return nil, err
	}

	u := &domain.User{
		ID:         uuid.NewString(),
		Name:       in.Name,
		Email:      in.Email,
		Role:       code.Role,
		ReferredBy: code.OwnerID,
	}
	if err := repo.CreateUser(ctx, s.DB, u); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateEmail
		}
		return nil, err
	}

	if err := s.ensureFeeRow(ctx, u); err != nil {
		s.Log.Error().Err(err).Str("user_id", u.ID).Msg("seeding default fee row failed")
	}

	vars := map[string]string{
		"user_name":      u.Name,
		"reference_code": code.Code,
	}
	s.Dispatcher.Notify(ctx, notify.TplUserRegistration, vars, code.OwnerID, "")
	s.notifyOperators(ctx, notify.TplUserRegistration, vars, code.OwnerID)
	return u, nil
}

// Get returns one account by id.
func (s *UserService) Get(ctx context.Context, userID string) (*domain.User, error) {
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return u, nil
}

// List returns every account. Operator only.
func (s *UserService) List(ctx context.Context, actorRole domain.Role) ([]domain.User, error) {
	if actorRole != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	return repo.ListUsers(ctx, s.DB)
}

// UpdateRole changes an account's role, seeds the fee row the new role
// needs, and notifies the user. Operator only.
func (s *UserService) UpdateRole(ctx context.Context, actorRole domain.Role, userID string, role domain.Role) (*domain.User, error) {
	tr := otel.Tracer("services/UserService")
	ctx, span := tr.Start(ctx, "UpdateRole",
		trace.WithAttributes(
			attribute.String("user.id", userID),
			attribute.String("user.role", string(role)),
		),
	)
	defer span.End()

	if actorRole != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	if !domain.KnownRole(role) {
		return nil, ErrUnknownRole
	}
	if err := repo.UpdateUserRole(ctx, s.DB, userID, role); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	u, err := repo.GetUser(ctx, s.DB, userID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureFeeRow(ctx, u); err != nil {
		s.Log.Error().Err(err).Str("user_id", u.ID).Msg("seeding default fee row failed")
	}

	s.Dispatcher.Notify(ctx, notify.TplRoleChange, map[string]string{
		"role": notify.Humanize(string(role)),
	}, u.ID, "")
	return u, nil
}

// CreateReferenceCode mints a registration code granting the given role.
// Operator only.
func (s *UserService) CreateReferenceCode(ctx context.Context, actorRole domain.Role, code, ownerID string, role domain.Role) (*domain.ReferenceCode, error) {
	if actorRole != domain.RoleSuperAgent {
		return nil, ErrForbidden
	}
	code = strings.TrimSpace(code)
	if code == "" || ownerID == "" {
		return nil, ErrInvalidUser
	}
	if !domain.KnownRole(role) {
		return nil, ErrUnknownRole
	}
	rc := &domain.ReferenceCode{Code: code, OwnerID: ownerID, Role: role}
	if err := repo.CreateReferenceCode(ctx, s.DB, rc); err != nil {
		if errors.Is(err, repo.ErrDuplicate) {
			return nil, ErrDuplicateCode
		}
		return nil, err
	}
	return rc, nil
}

// ensureFeeRow seeds the default per-user fee row the role requires.
func (s *UserService) ensureFeeRow(ctx context.Context, u *domain.User) error {
	switch u.Role {
	case domain.RoleAgent:
		return s.Pricing.EnsureAgentFee(ctx, u.ID)
	case domain.RoleSuperWorker:
		return s.Pricing.EnsureSuperWorkerFee(ctx, u.ID)
	}
	return nil
}

// notifyOperators fans a notification out to every operator, skipping one
// user id (e.g. a code owner already notified directly).
func (s *UserService) notifyOperators(ctx context.Context, template string, vars map[string]string, skipID string) {
	operators, err := repo.ListUsersByRole(ctx, s.DB, domain.RoleSuperAgent)
	if err != nil {
		s.Log.Error().Err(err).Msg("operator lookup for fan-out failed")
		return
	}
	for _, op := range operators {
		if op.ID == skipID {
			continue
		}
		s.Dispatcher.Notify(ctx, template, vars, op.ID, "")
	}
}
