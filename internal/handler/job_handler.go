package handler

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/jobtrack/internal/job"
	"github.com/hitoshi/jobtrack/internal/middleware"
	"github.com/hitoshi/jobtrack/internal/model"
)

// JobServiceInterface は応募記録ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	// Add は新しい応募記録を追加する。
	Add(ctx context.Context, userID, company, position, date string) (*model.Job, error)
	// List はクエリパラメータを解釈し、一覧とフィルタ一致総数を返す。
	List(ctx context.Context, userID string, params url.Values) ([]model.Job, int, error)
	// Update は指定応募記録に部分更新を適用し、更新件数を返す。
	Update(ctx context.Context, userID, jobID string, input job.UpdateInput) (int64, error)
	// Delete は指定応募記録を削除する。
	Delete(ctx context.Context, userID, jobID string) error
	// Cleanup は操作ユーザーの全応募記録を削除し、削除件数を返す。
	Cleanup(ctx context.Context, userID string) (int64, error)
}

// JobHandler は応募記録管理のHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// --- リクエスト・レスポンス型 ---

// addJobRequest は応募記録作成リクエストのボディ。
type addJobRequest struct {
	Company  string `json:"company"`
	Position string `json:"position"`
	Date     string `json:"date"`
}

// updateJobRequest は応募記録更新リクエストのボディ。
// 省略されたフィールドは変更しない。stageは空文字列も有効な値。
type updateJobRequest struct {
	Company  *string `json:"company,omitempty"`
	Position *string `json:"position,omitempty"`
	Date     *string `json:"date,omitempty"`
	Stage    *string `json:"stage,omitempty"`
}

// jobResponse は応募記録1件のレスポンス。
type jobResponse struct {
	ID       string `json:"id"`
	Company  string `json:"company"`
	Position string `json:"position"`
	Date     string `json:"date"`
	Stage    string `json:"stage"`
}

// jobListResponse は応募記録一覧のレスポンス。
type jobListResponse struct {
	Jobs  []jobResponse `json:"jobs"`
	Total int           `json:"total"`
}

// createdJobResponse は応募記録作成のレスポンス。
type createdJobResponse struct {
	Message string      `json:"message"`
	Job     jobResponse `json:"job"`
}

// updatedJobResponse は応募記録更新のレスポンス。
type updatedJobResponse struct {
	Message       string `json:"message"`
	ModifiedCount int64  `json:"modifiedCount"`
}

// deletedJobResponse は応募記録削除のレスポンス。
type deletedJobResponse struct {
	Message      string `json:"message"`
	DeletedCount int64  `json:"deletedCount"`
}

func toJobResponse(j *model.Job) jobResponse {
	return jobResponse{
		ID:       j.ID,
		Company:  j.Company,
		Position: j.Position,
		Date:     j.Date.Format(time.RFC3339),
		Stage:    j.Stage,
	}
}

// AddJob は新しい応募記録を作成する。
// POST /api/jobs
func (h *JobHandler) AddJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req addJobRequest
	if err := decodeJSONBody(r, &req); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := h.service.Add(r.Context(), identity.UserID, req.Company, req.Position, req.Date)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, createdJobResponse{
		Message: "job created",
		Job:     toJobResponse(created),
	})
}

// ListJobs は応募記録の一覧をフィルタ・ソート・ページネーション付きで取得する。
// GET /api/jobs?company=A,B&position=...&stage=...&dateFrom=...&dateTo=...&q=...&sort=oldest&page=1&pageSize=10
func (h *JobHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	jobs, total, err := h.service.List(r.Context(), identity.UserID, r.URL.Query())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	out := make([]jobResponse, 0, len(jobs))
	for i := range jobs {
		out = append(out, toJobResponse(&jobs[i]))
	}

	writeJSON(w, http.StatusOK, jobListResponse{
		Jobs:  out,
		Total: total,
	})
}

// UpdateJob は指定応募記録に部分更新を適用する。
// PUT /api/jobs/{id}
func (h *JobHandler) UpdateJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	jobID := chi.URLParam(r, "id")

	var req updateJobRequest
	if err := decodeJSONBody(r, &req); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	modified, err := h.service.Update(r.Context(), identity.UserID, jobID, job.UpdateInput{
		Company:  req.Company,
		Position: req.Position,
		Date:     req.Date,
		Stage:    req.Stage,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, updatedJobResponse{
		Message:       "job updated",
		ModifiedCount: modified,
	})
}

// DeleteJob は指定応募記録を削除する。
// DELETE /api/jobs/{id}
func (h *JobHandler) DeleteJob(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	jobID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), identity.UserID, jobID); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedJobResponse{
		Message:      "job deleted",
		DeletedCount: 1,
	})
}

// Cleanup は操作ユーザーの全応募記録を削除する。
// DELETE /api/cleanup
//
// スコープは常に操作ユーザー。他ユーザーの記録には影響しない。
func (h *JobHandler) Cleanup(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	removed, err := h.service.Cleanup(r.Context(), identity.UserID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, deletedJobResponse{
		Message:      "jobs cleaned up",
		DeletedCount: removed,
	})
}
