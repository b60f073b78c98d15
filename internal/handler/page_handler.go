package handler

import (
	"context"
	"io/fs"
	"net/http"
)

// HealthChecker はデータストアの疎通確認インターフェース。
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// HealthHandler はヘルスチェックのHTTPハンドラー。
type HealthHandler struct {
	checker HealthChecker
}

// NewHealthHandler はHealthHandlerを生成する。
func NewHealthHandler(checker HealthChecker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Health はデータストアの疎通を確認して稼働状態を返す。
// GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.Ping(r.Context()); err != nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// PageHandler は画面HTMLと静的アセットを配信するハンドラー。
type PageHandler struct {
	assets fs.FS
}

// NewPageHandler は埋め込みアセットを配信するPageHandlerを生成する。
func NewPageHandler(assets fs.FS) *PageHandler {
	return &PageHandler{assets: assets}
}

// Login はログイン画面を返す。
// GET /
func (h *PageHandler) Login(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "login.html")
}

// Home は応募記録管理画面を返す。
// GET /home
//
// 画面自体は無条件で返す。API呼び出しの認可はトークン検証側で行い、
// 未認証クライアントは画面側のスクリプトがログインへ誘導する。
func (h *PageHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.servePage(w, r, "home.html")
}

// Static は/static/配下の静的アセットを配信するハンドラーを返す。
func (h *PageHandler) Static() http.Handler {
	return http.StripPrefix("/static/", http.FileServer(http.FS(h.assets)))
}

func (h *PageHandler) servePage(w http.ResponseWriter, r *http.Request, name string) {
	data, err := fs.ReadFile(h.assets, name)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(data)
}
