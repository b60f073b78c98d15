package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/jobtrack/internal/middleware"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	// Register は新規ユーザーを登録し、発行したトークンを返す。
	Register(ctx context.Context, username, password string) (string, error)
	// Login は認証情報を検証し、発行したトークンを返す。
	Login(ctx context.Context, username, password string) (string, error)
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// credentialsRequest は登録・ログインリクエストのボディ。
type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse はトークンを返すレスポンス。
type tokenResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// messageResponse はメッセージのみのレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// userResponse は認証済みユーザー情報のレスポンス。
type userResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// Register は新規ユーザーを登録する。
// POST /api/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Register(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, tokenResponse{
		Message: "created",
		Token:   token,
	})
}

// Login は認証情報を検証しトークンを発行する。
// POST /api/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	token, err := h.service.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		Message: "login successful",
		Token:   token,
	})
}

// Logout はログアウトを受け付ける。
// POST /api/logout
//
// トークンはステートレスでサーバー側に破棄対象の状態を持たないため、
// クライアントがトークンを破棄する前提の応答のみを返す。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, messageResponse{Message: "logged out"})
}

// Me は認証済みユーザー情報を返す。
// GET /api/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity, err := middleware.IdentityFromContext(r.Context())
	if err != nil {
		middleware.WriteJSONError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	writeJSON(w, http.StatusOK, map[string]userResponse{
		"user": {
			ID:       identity.UserID,
			Username: identity.Username,
		},
	})
}

// decodeCredentials はリクエストボディからcredentialsRequestを読み取る。
// デコードに失敗した場合は400を書き込みfalseを返す。
func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	if err := decodeJSONBody(r, &req); err != nil {
		middleware.WriteJSONError(w, http.StatusBadRequest, "invalid request body")
		return credentialsRequest{}, false
	}
	return req, true
}
