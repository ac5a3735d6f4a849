package users_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/db/testutil"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/users"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

func TestCreateRejectsDuplicateEmail(t *testing.T) {
	repo := users.NewRepo(testutil.OpenMigratedPool(t))
	ctx := context.Background()

	if _, err := repo.Create(ctx, users.CreateParams{
		Email: "ayse@example.edu", FullName: "Ayse", Role: domain.RoleAcademician, PasswordHash: "x",
	}); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := repo.Create(ctx, users.CreateParams{
		Email: "AYSE@example.edu", FullName: "Ayse Again", Role: domain.RoleManager, PasswordHash: "x",
	})
	if !errors.Is(err, users.ErrEmailTaken) {
		t.Fatalf("duplicate email: got %v, want ErrEmailTaken", err)
	}
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("duplicate email kind: got %v, want conflict", err)
	}
}

func TestDeleteGuards(t *testing.T) {
	pg := testutil.OpenMigratedPool(t)
	repo := users.NewRepo(pg)
	projectsRepo := projects.NewRepo(pg)
	ctx := context.Background()

	create := func(email string) *users.User {
		t.Helper()
		u, err := repo.Create(ctx, users.CreateParams{
			Email: email, FullName: email, Role: domain.RoleAcademician, PasswordHash: "x",
		})
		if err != nil {
			t.Fatalf("create %s: %v", email, err)
		}
		return u
	}

	leader := create("leader@example.edu")
	if _, err := projectsRepo.Create(ctx, projects.CreateParams{
		Code: "TTO-2026-010", Name: "Flow meter",
		StartDate:      util.NewDate(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		CommissionRate: decimal.NewFromInt(15),
		VATRate:        decimal.NewFromInt(20),
	}, []projects.RepresentativeInput{
		{Owner: domain.UserOwner(leader.ID), SharePercentage: decimal.NewFromInt(100), Role: domain.RepresentativeLeader},
	}); err != nil {
		t.Fatalf("create project: %v", err)
	}
	if err := repo.Delete(ctx, leader.ID); !errors.Is(err, users.ErrInUse) {
		t.Errorf("delete representative: got %v, want ErrInUse", err)
	}

	holder := create("holder@example.edu")
	if _, err := pg.Exec(ctx, `UPDATE balances SET available_amount = 12.50 WHERE user_id = $1`, holder.ID); err != nil {
		t.Fatalf("seed balance: %v", err)
	}
	if err := repo.Delete(ctx, holder.ID); !errors.Is(err, users.ErrInUse) {
		t.Errorf("delete with balance: got %v, want ErrInUse", err)
	}
	if _, err := repo.FindByID(ctx, holder.ID); err != nil {
		t.Errorf("refused delete removed the user: %v", err)
	}

	free := create("free@example.edu")
	if err := repo.Delete(ctx, free.ID); err != nil {
		t.Fatalf("delete free user: %v", err)
	}
	if _, err := repo.FindByID(ctx, free.ID); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("after delete: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, free.ID); !errors.Is(err, users.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
}
