// Package repository はデータ永続化のインターフェースと実装を定義する。
//
// 実装はMongoDB（MongoUserRepo）とインメモリ（MemoryUserRepo）の2つで、
// 呼び出し側から見た振る舞いは同一でなければならない。接続URIが
// 設定されていない環境ではインメモリ実装が選択される。
package repository

import (
	"context"

	"github.com/hitoshi/jobtrack/internal/job"
	"github.com/hitoshi/jobtrack/internal/model"
)

// UserRepository はユーザーと埋め込み応募記録の永続化インターフェース。
type UserRepository interface {
	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)

	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// Create はユーザーを作成し、生成されたIDを返す。
	Create(ctx context.Context, user *model.User) (string, error)

	// AddJob はユーザーのjobs配列に応募記録を追加する。
	// ユーザーが存在しない場合はUserNotFoundエラーを返す。
	AddJob(ctx context.Context, userID string, j *model.Job) error

	// UpdateJob は指定応募記録に部分更新を適用し、一致件数（0または1）を返す。
	UpdateJob(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error)

	// RemoveJob は指定応募記録を配列から取り除き、削除件数（0または1）を返す。
	RemoveJob(ctx context.Context, userID, jobID string) (int64, error)

	// ClearJobs はユーザーの全応募記録を削除し、削除件数を返す。
	ClearJobs(ctx context.Context, userID string) (int64, error)

	// ListJobs はクエリ仕様を評価し、要求ページとフィルタ一致総数を返す。
	// ユーザーが存在しない場合は空ページと総数0を返す。
	ListJobs(ctx context.Context, userID string, q *job.Query) ([]model.Job, int, error)

	// Ping はバックエンドの到達性を確認する。ヘルスチェック用。
	Ping(ctx context.Context) error
}
