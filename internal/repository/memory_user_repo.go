package repository

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/hitoshi/jobtrack/internal/job"
	"github.com/hitoshi/jobtrack/internal/model"
)

// MemoryUserRepo はプロセス内リストを使用したユーザーリポジトリ。
// MONGO_URI未設定時のスタンドインとして、MongoUserRepoと同一の
// 振る舞いを提供する。プロセス終了でデータは消える。
//
// 全操作を単一のミューテックスで直列化する。並行リクエストからの
// 同時アクセスに対して順序は保証しないが、データ競合は起きない。
type MemoryUserRepo struct {
	mu    sync.Mutex
	users []model.User
}

// NewMemoryUserRepo はMemoryUserRepoを生成する。
func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{}
}

// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByUsername(ctx context.Context, username string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.users {
		if r.users[i].Username == username {
			return copyUser(&r.users[i]), nil
		}
	}
	return nil, nil
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *MemoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if u := r.findByID(id); u != nil {
		return copyUser(u), nil
	}
	return nil, nil
}

// Create はユーザーを作成し、生成されたIDを返す。
// IDはMongo実装と互換のObjectID（タイムスタンプ + ランダム）の16進表現。
func (r *MemoryUserRepo) Create(ctx context.Context, user *model.User) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *copyUser(user)
	stored.ID = primitive.NewObjectID().Hex()
	r.users = append(r.users, stored)
	return stored.ID, nil
}

// AddJob はユーザーのjobs配列に応募記録を追加する。
func (r *MemoryUserRepo) AddJob(ctx context.Context, userID string, j *model.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(userID)
	if u == nil {
		return model.NewUserNotFoundError()
	}
	u.Jobs = append(u.Jobs, *j)
	return nil
}

// UpdateJob は指定応募記録に部分更新を適用し、一致件数を返す。
func (r *MemoryUserRepo) UpdateJob(ctx context.Context, userID, jobID string, patch *model.JobPatch) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(userID)
	if u == nil {
		return 0, nil
	}

	for i := range u.Jobs {
		if u.Jobs[i].ID != jobID {
			continue
		}
		if patch.Company != nil {
			u.Jobs[i].Company = *patch.Company
		}
		if patch.Position != nil {
			u.Jobs[i].Position = *patch.Position
		}
		if patch.Date != nil {
			u.Jobs[i].Date = *patch.Date
		}
		if patch.Stage != nil {
			u.Jobs[i].Stage = *patch.Stage
		}
		return 1, nil
	}
	return 0, nil
}

// RemoveJob は指定応募記録を配列から取り除き、削除件数を返す。
func (r *MemoryUserRepo) RemoveJob(ctx context.Context, userID, jobID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(userID)
	if u == nil {
		return 0, nil
	}

	for i := range u.Jobs {
		if u.Jobs[i].ID == jobID {
			u.Jobs = append(u.Jobs[:i], u.Jobs[i+1:]...)
			return 1, nil
		}
	}
	return 0, nil
}

// ClearJobs はユーザーの全応募記録を削除し、削除件数を返す。
func (r *MemoryUserRepo) ClearJobs(ctx context.Context, userID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(userID)
	if u == nil {
		return 0, nil
	}

	removed := int64(len(u.Jobs))
	u.Jobs = []model.Job{}
	return removed, nil
}

// ListJobs はクエリ仕様をインメモリ評価（job.Apply）で実行する。
// ユーザーが存在しない場合は空ページと総数0を返す。
func (r *MemoryUserRepo) ListJobs(ctx context.Context, userID string, q *job.Query) ([]model.Job, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u := r.findByID(userID)
	if u == nil {
		return []model.Job{}, 0, nil
	}

	page, total := job.Apply(u.Jobs, q)
	return page, total, nil
}

// Ping は常に成功する。インメモリストアに到達性の概念はない。
func (r *MemoryUserRepo) Ping(ctx context.Context) error {
	return nil
}

// findByID はロック保持中に内部スライスからユーザーを検索する。
func (r *MemoryUserRepo) findByID(id string) *model.User {
	for i := range r.users {
		if r.users[i].ID == id {
			return &r.users[i]
		}
	}
	return nil
}

// copyUser は内部状態のエイリアシングを避けるためのディープコピーを返す。
func copyUser(u *model.User) *model.User {
	out := *u
	out.Jobs = make([]model.Job, len(u.Jobs))
	copy(out.Jobs, u.Jobs)
	return &out
}
