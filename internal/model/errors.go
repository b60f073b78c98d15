// Package model はドメインモデルを定義する。
package model

import (
	"fmt"
	"net/http"
)

// APIError は統一エラーフォーマットを表す。
// HTTPステータスへの対応付けを持ち、ハンドラー境界でJSONレスポンスに変換される。
type APIError struct {
	Code    string // エラーコード
	Message string // クライアントに返すメッセージ
	Status  int    // 対応するHTTPステータスコード
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeValidationFailed   = "VALIDATION_FAILED"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeDuplicateUsername  = "DUPLICATE_USERNAME"
	ErrCodeJobNotFound        = "JOB_NOT_FOUND"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
)

// NewValidationError は入力検証エラー（400）を生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:    ErrCodeValidationFailed,
		Message: message,
		Status:  http.StatusBadRequest,
	}
}

// NewUnauthorizedError は認証情報の欠落エラー（401）を生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:    ErrCodeUnauthorized,
		Message: "unauthorized",
		Status:  http.StatusUnauthorized,
	}
}

// NewInvalidCredentialsError は認証失敗エラー（401）を生成する。
// ユーザー不存在とパスワード不一致を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:    ErrCodeInvalidCredentials,
		Message: "invalid credentials",
		Status:  http.StatusUnauthorized,
	}
}

// NewForbiddenError は無効または期限切れトークンのエラー（403）を生成する。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:    ErrCodeForbidden,
		Message: "invalid or expired token",
		Status:  http.StatusForbidden,
	}
}

// NewDuplicateUsernameError はユーザー名重複エラー（409）を生成する。
func NewDuplicateUsernameError() *APIError {
	return &APIError{
		Code:    ErrCodeDuplicateUsername,
		Message: "user already exists",
		Status:  http.StatusConflict,
	}
}

// NewJobNotFoundError は応募記録未検出エラー（404）を生成する。
func NewJobNotFoundError(jobID string) *APIError {
	return &APIError{
		Code:    ErrCodeJobNotFound,
		Message: fmt.Sprintf("job not found: %s", jobID),
		Status:  http.StatusNotFound,
	}
}

// NewUserNotFoundError はユーザー未検出エラー（404）を生成する。
// 有効なトークンを持つがストアに存在しないユーザーが対象の操作を行った場合に返る。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:    ErrCodeUserNotFound,
		Message: "user not found",
		Status:  http.StatusNotFound,
	}
}
