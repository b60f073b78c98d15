package auth

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hitoshi/jobtrack/internal/model"
)

// UserRepository は認証サービスが必要とする永続化インターフェース。
// repository.UserRepositoryの部分集合として定義する。
type UserRepository interface {
	// FindByUsername はユーザー名でユーザーを検索する。見つからない場合はnilを返す。
	FindByUsername(ctx context.Context, username string) (*model.User, error)
	// Create はユーザーを作成し、生成されたIDを返す。
	Create(ctx context.Context, user *model.User) (string, error)
}

// Service は登録・ログイン・トークン検証のビジネスロジックを提供する。
type Service struct {
	repo     UserRepository
	secret   []byte
	tokenTTL time.Duration
}

// NewService はServiceを生成する。
func NewService(repo UserRepository, secret []byte, tokenTTL time.Duration) *Service {
	return &Service{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
	}
}

// Register は新規ユーザーを登録し、発行したトークンを返す。
// ユーザー名が既に使用されている場合はConflictエラーを返す。
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", model.NewValidationError("username and password are required")
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to check username: %w", err)
	}
	if existing != nil {
		return "", model.NewDuplicateUsernameError()
	}

	hash, err := HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Username:     username,
		PasswordHash: hash,
		Jobs:         []model.Job{},
	}

	id, err := s.repo.Create(ctx, user)
	if err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("user registered", slog.String("user_id", id))

	return GenerateToken(id, username, s.secret, s.tokenTTL)
}

// Login は認証情報を検証し、発行したトークンを返す。
// ユーザー不存在とパスワード不一致はどちらも同じ認証失敗エラーになる。
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", model.NewValidationError("username and password are required")
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return "", fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return "", model.NewInvalidCredentialsError()
	}

	if !VerifyPassword(user.PasswordHash, password) {
		return "", model.NewInvalidCredentialsError()
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))

	return GenerateToken(user.ID, user.Username, s.secret, s.tokenTTL)
}

// VerifyToken はトークンを検証し、主体を返す。
// ミドルウェアから利用される。
func (s *Service) VerifyToken(tokenString string) (*model.Identity, error) {
	return ParseToken(tokenString, s.secret)
}

// EnsureDefaultUser は環境変数で指定されたオペレーター用アカウントを
// ストアに自動作成する。既に存在する場合は何もしない。
// username/passwordのどちらかが空の場合はスキップする。
func (s *Service) EnsureDefaultUser(ctx context.Context, username, password string) error {
	if username == "" || password == "" {
		return nil
	}

	existing, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("failed to check default user: %w", err)
	}
	if existing != nil {
		return nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash default user password: %w", err)
	}

	id, err := s.repo.Create(ctx, &model.User{
		Username:     username,
		PasswordHash: hash,
		Jobs:         []model.Job{},
	})
	if err != nil {
		return fmt.Errorf("failed to create default user: %w", err)
	}

	slog.Info("default user created from env", slog.String("user_id", id))
	return nil
}
