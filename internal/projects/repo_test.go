package projects_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Mikbal34/muhasebe-sub003/internal/db/testutil"
	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/personnel"
	"github.com/Mikbal34/muhasebe-sub003/internal/projects"
	"github.com/Mikbal34/muhasebe-sub003/internal/util"
)

func newProject(t *testing.T, pg *pgxpool.Pool, code string) *projects.Project {
	t.Helper()
	ctx := context.Background()
	p, err := personnel.NewRepo(pg).Create(ctx, personnel.CreateParams{FullName: "Lead " + code})
	if err != nil {
		t.Fatalf("create personnel: %v", err)
	}
	project, err := projects.NewRepo(pg).Create(ctx, projectParams(code), []projects.RepresentativeInput{
		{Owner: domain.PersonnelOwner(p.ID), SharePercentage: decimal.NewFromInt(100), Role: domain.RepresentativeLeader},
	})
	if err != nil {
		t.Fatalf("create project %s: %v", code, err)
	}
	return project
}

func projectParams(code string) projects.CreateParams {
	return projects.CreateParams{
		Code: code, Name: "Project " + code,
		StartDate:      util.NewDate(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)),
		CommissionRate: decimal.NewFromInt(15),
		VATRate:        decimal.NewFromInt(20),
	}
}

func TestCreateRejectsDuplicateCode(t *testing.T) {
	pg := testutil.OpenMigratedPool(t)
	newProject(t, pg, "TTO-2026-030")

	_, err := projects.NewRepo(pg).Create(context.Background(), projectParams("TTO-2026-030"), nil)
	if !errors.Is(err, projects.ErrCodeTaken) {
		t.Fatalf("duplicate code: got %v, want ErrCodeTaken", err)
	}
}

func TestDeleteRefusesProjectWithActivity(t *testing.T) {
	pg := testutil.OpenMigratedPool(t)
	repo := projects.NewRepo(pg)
	ctx := context.Background()

	tests := []struct {
		name string
		code string
		seed string
	}{
		{
			name: "income",
			code: "TTO-2026-031",
			seed: `INSERT INTO incomes (project_id, invoice_date, gross_amount, vat_rate, vat_amount, net_amount,
    commission_rate, commission_amount, distributable_amount)
VALUES ($1, CURRENT_DATE, 1200, 20, 200, 1000, 15, 150, 850)`,
		},
		{
			name: "expense",
			code: "TTO-2026-032",
			seed: `INSERT INTO expenses (project_id, amount, expense_date, expense_type) VALUES ($1, 90, CURRENT_DATE, 'tto')`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			project := newProject(t, pg, tt.code)
			if _, err := pg.Exec(ctx, tt.seed, project.ID); err != nil {
				t.Fatalf("seed %s: %v", tt.name, err)
			}
			if err := repo.Delete(ctx, project.ID); !errors.Is(err, projects.ErrHasActivity) {
				t.Fatalf("delete: got %v, want ErrHasActivity", err)
			}
			if _, err := repo.FindByID(ctx, project.ID); err != nil {
				t.Fatalf("refused delete removed the project: %v", err)
			}
		})
	}

	idle := newProject(t, pg, "TTO-2026-033")
	if err := repo.Delete(ctx, idle.ID); err != nil {
		t.Fatalf("delete idle project: %v", err)
	}
	if err := repo.Delete(ctx, idle.ID); !errors.Is(err, projects.ErrNotFound) {
		t.Errorf("second delete: got %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, uuid.New()); !errors.Is(err, projects.ErrNotFound) {
		t.Errorf("unknown project: got %v, want ErrNotFound", err)
	}
}
