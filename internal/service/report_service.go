package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/Mikbal34/muhasebe-sub003/internal/domain"
	"github.com/Mikbal34/muhasebe-sub003/internal/reports"
	"github.com/Mikbal34/muhasebe-sub003/internal/storage"
	"github.com/Mikbal34/muhasebe-sub003/internal/store"
)

const (
	reportsDir = "reports"

	sharedLoadTimeout = 30 * time.Second
)

type ReportService struct {
	repo   *reports.Repo
	files  *storage.Local
	cache  *store.ReportCache
	sf     singleflight.Group
	logger *zap.Logger
}

// NewReportService creates a ReportService. If cache is nil, every dashboard
// request hits Postgres.
func NewReportService(r *reports.Repo, files *storage.Local, cache *store.ReportCache, logger *zap.Logger) *ReportService {
	return &ReportService{repo: r, files: files, cache: cache, logger: logger}
}

func (s *ReportService) Dashboard(ctx context.Context) (*reports.Dashboard, error) {
	if !s.cache.Enabled() {
		return s.repo.Dashboard(ctx)
	}
	v, err := s.shared(ctx, "dashboard", func(ctx context.Context) (interface{}, error) {
		var d reports.Dashboard
		if ok, err := s.cache.GetDashboard(ctx, &d); err == nil && ok {
			return &d, nil
		} else if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		fresh, err := s.repo.Dashboard(ctx)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetDashboard(ctx, fresh); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*reports.Dashboard), nil
}

func (s *ReportService) ProjectSummary(ctx context.Context, projectID uuid.UUID) (*reports.ProjectSummary, error) {
	if !s.cache.Enabled() {
		return s.repo.ProjectSummary(ctx, projectID)
	}
	key := projectID.String()
	v, err := s.shared(ctx, "summary:"+key, func(ctx context.Context) (interface{}, error) {
		var ps reports.ProjectSummary
		if ok, err := s.cache.GetProjectSummary(ctx, key, &ps); err == nil && ok {
			return &ps, nil
		} else if err != nil {
			s.logger.Warn("project summary cache read failed", zap.Error(err))
		}
		fresh, err := s.repo.ProjectSummary(ctx, projectID)
		if err != nil {
			return nil, err
		}
		if err := s.cache.SetProjectSummary(ctx, key, fresh); err != nil {
			s.logger.Warn("project summary cache write failed", zap.Error(err))
		}
		return fresh, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*reports.ProjectSummary), nil
}

// shared runs load once for all concurrent callers of key. The load is
// detached from the caller that started it, so one cancelled request does not
// fail the others waiting on the same key.
func (s *ReportService) shared(ctx context.Context, key string, load func(context.Context) (interface{}, error)) (interface{}, error) {
	ch := s.sf.DoChan(key, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLoadTimeout)
		defer cancel()
		return load(lctx)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		return r.Val, r.Err
	}
}

// Generate renders an xlsx report, stores it under reports/ and records it.
func (s *ReportService) Generate(ctx context.Context, typ domain.ReportType, p reports.Params, by *uuid.UUID) (*reports.Report, error) {
	if !typ.Valid() {
		return nil, domain.Invalid("type", "error.invalid_report_type")
	}
	if p.From != nil && p.To != nil && p.To.Before(*p.From) {
		return nil, domain.Invalid("to", "error.invalid_date_range")
	}
	sheet, err := s.repo.Sheet(ctx, typ, p)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := reports.WriteXLSX(&buf, sheet); err != nil {
		return nil, fmt.Errorf("render %s report: %w", typ, err)
	}
	params, err := json.Marshal(p)
	if err != nil {
		return nil, err
	}

	id := uuid.New()
	rel, err := s.files.Save(&buf, reportsDir, id.String()+".xlsx", 0)
	if err != nil {
		return nil, err
	}
	rep, err := s.repo.Insert(ctx, reports.Report{
		ID:          id,
		Type:        typ,
		Title:       sheet.Title,
		Parameters:  params,
		FilePath:    rel,
		RowCount:    len(sheet.Rows),
		GeneratedBy: by,
	})
	if err != nil {
		if rmErr := s.files.Remove(rel); rmErr != nil {
			s.logger.Warn("orphan report file", zap.String("path", rel), zap.Error(rmErr))
		}
		return nil, err
	}
	return rep, nil
}

// Open returns the report and the absolute path of its file.
func (s *ReportService) Open(ctx context.Context, id uuid.UUID) (*reports.Report, string, error) {
	rep, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, "", err
	}
	path, err := s.files.Path(rep.FilePath)
	if err != nil {
		return nil, "", err
	}
	return rep, path, nil
}

func (s *ReportService) Delete(ctx context.Context, id uuid.UUID) error {
	rel, err := s.repo.Delete(ctx, id)
	if err != nil {
		return err
	}
	if err := s.files.Remove(rel); err != nil {
		s.logger.Warn("report file remove failed", zap.String("path", rel), zap.Error(err))
	}
	return nil
}
