package repo

import (
	"context"
	"errors"
	"testing"

	"github.com/tbourn/go-homework-backend/internal/domain"
)

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := CreateUser(ctx, db, &domain.User{
		ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleStudent,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := CreateUser(ctx, db, &domain.User{
		ID: "u2", Name: "Other", Email: "ada@example.com", Role: domain.RoleStudent,
	})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetUser_NotFound(t *testing.T) {
	db := newRepoDB(t)

	if _, err := GetUser(context.Background(), db, "ghost"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListUsersByRole(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	for _, u := range []*domain.User{
		{ID: "s1", Name: "S1", Email: "s1@example.com", Role: domain.RoleStudent},
		{ID: "a1", Name: "A1", Email: "a1@example.com", Role: domain.RoleAgent},
		{ID: "a2", Name: "A2", Email: "a2@example.com", Role: domain.RoleAgent},
	} {
		if err := CreateUser(ctx, db, u); err != nil {
			t.Fatalf("seed %s: %v", u.ID, err)
		}
	}

	agents, err := ListUsersByRole(ctx, db, domain.RoleAgent)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(agents) != 2 {
		t.Fatalf("expected 2 agents, got %d", len(agents))
	}
	for _, a := range agents {
		if a.Role != domain.RoleAgent {
			t.Fatalf("wrong role in result: %+v", a)
		}
	}
}

func TestUpdateUserRole(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	if err := CreateUser(ctx, db, &domain.User{
		ID: "u1", Name: "Ada", Email: "ada@example.com", Role: domain.RoleStudent,
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := UpdateUserRole(ctx, db, "u1", domain.RoleWorker); err != nil {
		t.Fatalf("update: %v", err)
	}
	u, err := GetUser(ctx, db, "u1")
	if err != nil || u.Role != domain.RoleWorker {
		t.Fatalf("role did not persist: %+v, %v", u, err)
	}

	if err := UpdateUserRole(ctx, db, "ghost", domain.RoleWorker); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestReferenceCode_RoundTrip_And_Duplicate(t *testing.T) {
	db := newRepoDB(t)
	ctx := context.Background()

	rc := &domain.ReferenceCode{Code: "AG-1", OwnerID: "op1", Role: domain.RoleAgent}
	if err := CreateReferenceCode(ctx, db, rc); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := GetReferenceCode(ctx, db, "AG-1")
	if err != nil || got.OwnerID != "op1" || got.Role != domain.RoleAgent {
		t.Fatalf("round-trip failed: %+v, %v", got, err)
	}

	if err := CreateReferenceCode(ctx, db, &domain.ReferenceCode{
		Code: "AG-1", OwnerID: "op2", Role: domain.RoleStudent,
	}); !errors.Is(err, ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	if _, err := GetReferenceCode(ctx, db, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
