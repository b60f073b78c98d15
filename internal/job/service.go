package job

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hitoshi/jobtrack/internal/model"
)

// UserRepository は応募記録サービスが必要とする永続化インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserRepository interface {
	// AddJob はユーザーのjobs配列に応募記録を追加する。
	AddJob(ctx context.Context, userID string, job *model.Job) error
	// UpdateJob は指定応募記録に部分更新を適用し、一致件数を返す。
	UpdateJob(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error)
	// RemoveJob は指定応募記録を削除し、削除件数を返す。
	RemoveJob(ctx context.Context, userID, jobID string) (int64, error)
	// ClearJobs はユーザーの全応募記録を削除し、削除件数を返す。
	ClearJobs(ctx context.Context, userID string) (int64, error)
	// ListJobs はクエリ仕様を評価し、ページとフィルタ一致総数を返す。
	ListJobs(ctx context.Context, userID string, q *Query) ([]model.Job, int, error)
}

// MetricsRecorder は応募記録の操作メトリクスを記録するインターフェース。
type MetricsRecorder interface {
	RecordJobCreated()
}

// UpdateInput は応募記録更新リクエストの入力を表す。
// nilフィールドは「未指定」を意味し、Stageの空文字列は有効な値として扱う。
type UpdateInput struct {
	Company  *string
	Position *string
	Date     *string
	Stage    *string
}

// Service は応募記録の操作のビジネスロジックを提供する。
type Service struct {
	repo      UserRepository
	sanitizer *bluemonday.Policy
	metrics   MetricsRecorder // nil可
}

// NewService はServiceを生成する。
// 自由記述フィールドはクライアントがinnerHTMLで描画するため、
// 保存時にHTMLを全て除去するポリシーでサニタイズする。
func NewService(repo UserRepository, metrics MetricsRecorder) *Service {
	return &Service{
		repo:      repo,
		sanitizer: bluemonday.StrictPolicy(),
		metrics:   metrics,
	}
}

// Add は新しい応募記録をユーザーのスコープに追加する。
// company・position・dateのいずれかが欠けている場合は検証エラーを返す。
func (s *Service) Add(ctx context.Context, userID, company, position, date string) (*model.Job, error) {
	if company == "" || position == "" || date == "" {
		return nil, model.NewValidationError("company, position and date are required")
	}

	parsed, err := parseDate(date)
	if err != nil {
		return nil, model.NewValidationError(fmt.Sprintf("invalid date: %s", date))
	}

	j := &model.Job{
		ID:       primitive.NewObjectID().Hex(),
		Company:  s.sanitizer.Sanitize(company),
		Position: s.sanitizer.Sanitize(position),
		Date:     parsed,
	}

	if err := s.repo.AddJob(ctx, userID, j); err != nil {
		return nil, fmt.Errorf("failed to add job: %w", err)
	}

	if s.metrics != nil {
		s.metrics.RecordJobCreated()
	}

	slog.Info("job created",
		slog.String("user_id", userID),
		slog.String("job_id", j.ID),
	)

	return j, nil
}

// Update は指定応募記録に部分更新を適用し、更新件数を返す。
// 更新対象フィールドが1つもない場合は検証エラー、該当記録がない場合はNotFoundを返す。
func (s *Service) Update(ctx context.Context, userID, jobID string, input UpdateInput) (int64, error) {
	patch := &model.JobPatch{}

	if input.Company != nil {
		v := s.sanitizer.Sanitize(*input.Company)
		patch.Company = &v
	}
	if input.Position != nil {
		v := s.sanitizer.Sanitize(*input.Position)
		patch.Position = &v
	}
	if input.Stage != nil {
		v := s.sanitizer.Sanitize(*input.Stage)
		patch.Stage = &v
	}
	if input.Date != nil {
		parsed, err := parseDate(*input.Date)
		if err != nil {
			return 0, model.NewValidationError(fmt.Sprintf("invalid date: %s", *input.Date))
		}
		patch.Date = &parsed
	}

	if patch.IsEmpty() {
		return 0, model.NewValidationError("no updatable fields provided")
	}

	matched, err := s.repo.UpdateJob(ctx, userID, jobID, patch)
	if err != nil {
		return 0, fmt.Errorf("failed to update job: %w", err)
	}
	if matched == 0 {
		return 0, model.NewJobNotFoundError(jobID)
	}

	return matched, nil
}

// Delete は指定応募記録を削除する。該当記録がない場合はNotFoundを返す。
func (s *Service) Delete(ctx context.Context, userID, jobID string) error {
	removed, err := s.repo.RemoveJob(ctx, userID, jobID)
	if err != nil {
		return fmt.Errorf("failed to delete job: %w", err)
	}
	if removed == 0 {
		return model.NewJobNotFoundError(jobID)
	}
	return nil
}

// Cleanup は操作ユーザーの全応募記録を削除し、削除件数を返す。
// スコープは常にユーザー単位（グローバル削除は提供しない）。
func (s *Service) Cleanup(ctx context.Context, userID string) (int64, error) {
	removed, err := s.repo.ClearJobs(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup jobs: %w", err)
	}

	slog.Info("jobs cleaned up",
		slog.String("user_id", userID),
		slog.Int64("removed", removed),
	)

	return removed, nil
}

// List はHTTPクエリパラメータを解釈し、フィルタ・ソート・ページネーション済みの
// 応募記録一覧とフィルタ一致総数を返す。
func (s *Service) List(ctx context.Context, userID string, params url.Values) ([]model.Job, int, error) {
	q, err := ParseQuery(params)
	if err != nil {
		return nil, 0, err
	}

	jobs, total, err := s.repo.ListJobs(ctx, userID, q)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	return jobs, total, nil
}
