package job

import (
	"context"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/hitoshi/jobtrack/internal/model"
)

// --- モック定義 ---

type mockUserRepository struct {
	addJobFn    func(ctx context.Context, userID string, job *model.Job) error
	updateJobFn func(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error)
	removeJobFn func(ctx context.Context, userID, jobID string) (int64, error)
	clearJobsFn func(ctx context.Context, userID string) (int64, error)
	listJobsFn  func(ctx context.Context, userID string, q *Query) ([]model.Job, int, error)
}

func (m *mockUserRepository) AddJob(ctx context.Context, userID string, job *model.Job) error {
	if m.addJobFn != nil {
		return m.addJobFn(ctx, userID, job)
	}
	return nil
}

func (m *mockUserRepository) UpdateJob(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error) {
	if m.updateJobFn != nil {
		return m.updateJobFn(ctx, userID, jobID, patch)
	}
	return 1, nil
}

func (m *mockUserRepository) RemoveJob(ctx context.Context, userID, jobID string) (int64, error) {
	if m.removeJobFn != nil {
		return m.removeJobFn(ctx, userID, jobID)
	}
	return 1, nil
}

func (m *mockUserRepository) ClearJobs(ctx context.Context, userID string) (int64, error) {
	if m.clearJobsFn != nil {
		return m.clearJobsFn(ctx, userID)
	}
	return 0, nil
}

func (m *mockUserRepository) ListJobs(ctx context.Context, userID string, q *Query) ([]model.Job, int, error) {
	if m.listJobsFn != nil {
		return m.listJobsFn(ctx, userID, q)
	}
	return nil, 0, nil
}

type mockMetrics struct {
	jobsCreated int
}

func (m *mockMetrics) RecordJobCreated() {
	m.jobsCreated++
}

// --- テスト ---

func TestService_Add_Success(t *testing.T) {
	var saved *model.Job
	repo := &mockUserRepository{
		addJobFn: func(ctx context.Context, userID string, job *model.Job) error {
			saved = job
			return nil
		},
	}
	metrics := &mockMetrics{}
	svc := NewService(repo, metrics)

	j, err := svc.Add(context.Background(), "user-1", "Acme", "Engineer", "2025-05-01")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if j.ID == "" {
		t.Error("expected generated job ID")
	}
	if j.Company != "Acme" || j.Position != "Engineer" {
		t.Errorf("job = %+v, unexpected fields", j)
	}
	want := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	if !j.Date.Equal(want) {
		t.Errorf("Date = %v, want %v", j.Date, want)
	}
	if j.Stage != "" {
		t.Errorf("Stage = %q, want empty initial stage", j.Stage)
	}
	if saved == nil || saved.ID != j.ID {
		t.Error("job was not passed to the repository")
	}
	if metrics.jobsCreated != 1 {
		t.Errorf("jobsCreated = %d, want 1", metrics.jobsCreated)
	}
}

func TestService_Add_MissingFields(t *testing.T) {
	svc := NewService(&mockUserRepository{}, nil)

	tests := []struct {
		name                     string
		company, position, date string
	}{
		{"missing company", "", "Engineer", "2025-05-01"},
		{"missing position", "Acme", "", "2025-05-01"},
		{"missing date", "Acme", "Engineer", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), "user-1", tt.company, tt.position, tt.date)

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("error type = %T, want *model.APIError", err)
			}
			if apiErr.Code != model.ErrCodeValidationFailed {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
			}
		})
	}
}

func TestService_Add_InvalidDate(t *testing.T) {
	svc := NewService(&mockUserRepository{}, nil)

	_, err := svc.Add(context.Background(), "user-1", "Acme", "Engineer", "next tuesday")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
	}
}

func TestService_Add_SanitizesHTML(t *testing.T) {
	var saved *model.Job
	repo := &mockUserRepository{
		addJobFn: func(ctx context.Context, userID string, job *model.Job) error {
			saved = job
			return nil
		},
	}
	svc := NewService(repo, nil)

	_, err := svc.Add(context.Background(), "user-1", `<script>alert(1)</script>Acme`, "Engineer", "2025-05-01")
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	if saved.Company != "Acme" {
		t.Errorf("Company = %q, want sanitized %q", saved.Company, "Acme")
	}
}

func TestService_Add_NilMetricsIsSafe(t *testing.T) {
	svc := NewService(&mockUserRepository{}, nil)

	if _, err := svc.Add(context.Background(), "user-1", "Acme", "Engineer", "2025-05-01"); err != nil {
		t.Fatalf("Add() error = %v", err)
	}
}

func TestService_Update_Success(t *testing.T) {
	var gotPatch *model.JobPatch
	repo := &mockUserRepository{
		updateJobFn: func(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error) {
			gotPatch = patch
			return 1, nil
		},
	}
	svc := NewService(repo, nil)

	company := "Globex"
	stage := "Offer"
	modified, err := svc.Update(context.Background(), "user-1", "job-1", UpdateInput{
		Company: &company,
		Stage:   &stage,
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if modified != 1 {
		t.Errorf("modified = %d, want 1", modified)
	}

	if gotPatch.Company == nil || *gotPatch.Company != "Globex" {
		t.Errorf("patch.Company = %v, want Globex", gotPatch.Company)
	}
	if gotPatch.Stage == nil || *gotPatch.Stage != "Offer" {
		t.Errorf("patch.Stage = %v, want Offer", gotPatch.Stage)
	}
	if gotPatch.Position != nil || gotPatch.Date != nil {
		t.Error("unspecified fields should remain nil in patch")
	}
}

func TestService_Update_EmptyStageIsValidValue(t *testing.T) {
	var gotPatch *model.JobPatch
	repo := &mockUserRepository{
		updateJobFn: func(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error) {
			gotPatch = patch
			return 1, nil
		},
	}
	svc := NewService(repo, nil)

	stage := ""
	if _, err := svc.Update(context.Background(), "user-1", "job-1", UpdateInput{Stage: &stage}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	if gotPatch.Stage == nil || *gotPatch.Stage != "" {
		t.Errorf("patch.Stage = %v, want pointer to empty string", gotPatch.Stage)
	}
}

func TestService_Update_NoFieldsIsValidationError(t *testing.T) {
	svc := NewService(&mockUserRepository{}, nil)

	_, err := svc.Update(context.Background(), "user-1", "job-1", UpdateInput{})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
	}
}

func TestService_Update_InvalidDate(t *testing.T) {
	svc := NewService(&mockUserRepository{}, nil)

	bad := "99/99/9999"
	_, err := svc.Update(context.Background(), "user-1", "job-1", UpdateInput{Date: &bad})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
	}
}

func TestService_Update_NotFound(t *testing.T) {
	repo := &mockUserRepository{
		updateJobFn: func(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error) {
			return 0, nil
		},
	}
	svc := NewService(repo, nil)

	stage := "Offer"
	_, err := svc.Update(context.Background(), "user-1", "missing", UpdateInput{Stage: &stage})

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeJobNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeJobNotFound)
	}
}

func TestService_Delete_NotFound(t *testing.T) {
	repo := &mockUserRepository{
		removeJobFn: func(ctx context.Context, userID, jobID string) (int64, error) {
			return 0, nil
		},
	}
	svc := NewService(repo, nil)

	err := svc.Delete(context.Background(), "user-1", "missing")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeJobNotFound {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeJobNotFound)
	}
}

func TestService_Cleanup_ReturnsRemovedCount(t *testing.T) {
	repo := &mockUserRepository{
		clearJobsFn: func(ctx context.Context, userID string) (int64, error) {
			if userID != "user-1" {
				t.Errorf("userID = %q, want user-1", userID)
			}
			return 4, nil
		},
	}
	svc := NewService(repo, nil)

	removed, err := svc.Cleanup(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("Cleanup() error = %v", err)
	}
	if removed != 4 {
		t.Errorf("removed = %d, want 4", removed)
	}
}

func TestService_List_PropagatesQueryError(t *testing.T) {
	svc := NewService(&mockUserRepository{}, nil)

	values := url.Values{}
	values.Set("dateFrom", "garbage")

	_, _, err := svc.List(context.Background(), "user-1", values)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error type = %T, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeValidationFailed {
		t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeValidationFailed)
	}
}

func TestService_List_PassesParsedQueryToRepo(t *testing.T) {
	var gotQuery *Query
	repo := &mockUserRepository{
		listJobsFn: func(ctx context.Context, userID string, q *Query) ([]model.Job, int, error) {
			gotQuery = q
			return []model.Job{}, 0, nil
		},
	}
	svc := NewService(repo, nil)

	values := url.Values{}
	values.Set("company", "Acme")
	values.Set("sort", "oldest")
	values.Set("page", "2")

	if _, _, err := svc.List(context.Background(), "user-1", values); err != nil {
		t.Fatalf("List() error = %v", err)
	}

	if len(gotQuery.Companies) != 1 || gotQuery.Companies[0] != "Acme" {
		t.Errorf("Companies = %v, want [Acme]", gotQuery.Companies)
	}
	if gotQuery.Sort != SortOldest {
		t.Errorf("Sort = %q, want oldest", gotQuery.Sort)
	}
	if gotQuery.Page != 2 {
		t.Errorf("Page = %d, want 2", gotQuery.Page)
	}
}
