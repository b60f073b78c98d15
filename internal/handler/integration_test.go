package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"testing/fstest"
	"time"

	"github.com/hitoshi/jobtrack/internal/auth"
	"github.com/hitoshi/jobtrack/internal/job"
	"github.com/hitoshi/jobtrack/internal/middleware"
	"github.com/hitoshi/jobtrack/internal/repository"
)

// createIntegrationRouter は実サービスとインメモリストアで構成した
// ルーターを返す。モックを使わず、API境界を通したエンドツーエンドの
// 振る舞いを検証する。
func createIntegrationRouter(t *testing.T) http.Handler {
	t.Helper()

	repo := repository.NewMemoryUserRepo()
	authService := auth.NewService(repo, []byte("integration-secret"), time.Hour)
	jobService := job.NewService(repo, nil)

	rateLimiter := middleware.NewRateLimiter(middleware.NewRateLimiterConfig(10000))
	t.Cleanup(rateLimiter.Stop)

	assets := fstest.MapFS{
		"login.html": &fstest.MapFile{Data: []byte("<html>login</html>")},
		"home.html":  &fstest.MapFile{Data: []byte("<html>home</html>")},
	}

	return NewRouter(&RouterDeps{
		TokenVerifier:     authService,
		CORSAllowedOrigin: "http://localhost:3000",
		RateLimiter:       rateLimiter,
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),

		AuthService: authService,
		JobService:  jobService,

		HealthChecker: repo,
		Assets:        assets,
	})
}

func doJSON(t *testing.T, router http.Handler, method, target, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func registerAndGetToken(t *testing.T, router http.Handler, username string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/register", "",
		fmt.Sprintf(`{"username":%q,"password":"pass123"}`, username))
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("register: decode error = %v", err)
	}
	if body.Token == "" {
		t.Fatal("register: expected token")
	}
	return body.Token
}

func addJob(t *testing.T, router http.Handler, token, company, position, date string) string {
	t.Helper()
	w := doJSON(t, router, http.MethodPost, "/api/jobs", token,
		fmt.Sprintf(`{"company":%q,"position":%q,"date":%q}`, company, position, date))
	if w.Code != http.StatusCreated {
		t.Fatalf("add job: status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Job struct {
			ID string `json:"id"`
		} `json:"job"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("add job: decode error = %v", err)
	}
	return body.Job.ID
}

func listJobs(t *testing.T, router http.Handler, token, query string) (jobs []map[string]interface{}, total int) {
	t.Helper()
	w := doJSON(t, router, http.MethodGet, "/api/jobs"+query, token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list jobs: status = %d, body = %s", w.Code, w.Body.String())
	}
	var body struct {
		Jobs  []map[string]interface{} `json:"jobs"`
		Total int                      `json:"total"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("list jobs: decode error = %v", err)
	}
	return body.Jobs, body.Total
}

// --- テスト ---

func TestIntegration_RegisterLoginMe(t *testing.T) {
	router := createIntegrationRouter(t)

	token := registerAndGetToken(t, router, "alice")

	// 登録直後のトークンで/api/meが引ける
	w := doJSON(t, router, http.MethodGet, "/api/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("me: status = %d", w.Code)
	}
	var me struct {
		User struct {
			Username string `json:"username"`
		} `json:"user"`
	}
	json.NewDecoder(w.Body).Decode(&me)
	if me.User.Username != "alice" {
		t.Errorf("username = %q, want alice", me.User.Username)
	}

	// 同じ認証情報でログインし直せる
	w = doJSON(t, router, http.MethodPost, "/api/login", "",
		`{"username":"alice","password":"pass123"}`)
	if w.Code != http.StatusOK {
		t.Errorf("login: status = %d, body = %s", w.Code, w.Body.String())
	}
}

func TestIntegration_DuplicateRegisterReturns409(t *testing.T) {
	router := createIntegrationRouter(t)

	registerAndGetToken(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/register", "",
		`{"username":"alice","password":"other"}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
}

func TestIntegration_ProtectedRoutesRequireToken(t *testing.T) {
	router := createIntegrationRouter(t)

	w := doJSON(t, router, http.MethodGet, "/api/jobs", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w = doJSON(t, router, http.MethodGet, "/api/jobs", "tampered-token", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("bad token: status = %d, want 403", w.Code)
	}
}

func TestIntegration_JobLifecycle(t *testing.T) {
	router := createIntegrationRouter(t)
	token := registerAndGetToken(t, router, "alice")

	jobID := addJob(t, router, token, "Acme", "Engineer", "2025-05-01")

	// 一覧に出る
	jobs, total := listJobs(t, router, token, "")
	if total != 1 || len(jobs) != 1 {
		t.Fatalf("total = %d, len = %d, want 1/1", total, len(jobs))
	}

	// ステージを更新
	w := doJSON(t, router, http.MethodPut, "/api/jobs/"+jobID, token, `{"stage":"Offer"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("update: status = %d, body = %s", w.Code, w.Body.String())
	}

	jobs, _ = listJobs(t, router, token, "")
	if jobs[0]["stage"] != "Offer" {
		t.Errorf("stage = %v, want Offer", jobs[0]["stage"])
	}

	// 削除
	w = doJSON(t, router, http.MethodDelete, "/api/jobs/"+jobID, token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d", w.Code)
	}

	// 2回目の削除は404
	w = doJSON(t, router, http.MethodDelete, "/api/jobs/"+jobID, token, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want 404", w.Code)
	}

	_, total = listJobs(t, router, token, "")
	if total != 0 {
		t.Errorf("total after delete = %d, want 0", total)
	}
}

func TestIntegration_FilterSortAndPagination(t *testing.T) {
	router := createIntegrationRouter(t)
	token := registerAndGetToken(t, router, "alice")

	addJob(t, router, token, "Acme", "Engineer", "2025-01-10")
	addJob(t, router, token, "Globex", "Designer", "2025-02-05")
	addJob(t, router, token, "Acme", "Manager", "2025-03-01")

	// 会社フィルタ + oldestソート
	jobs, total := listJobs(t, router, token, "?company=Acme&sort=oldest")
	if total != 2 {
		t.Fatalf("total = %d, want 2", total)
	}
	if jobs[0]["position"] != "Engineer" || jobs[1]["position"] != "Manager" {
		t.Errorf("order = [%v %v], want [Engineer Manager]", jobs[0]["position"], jobs[1]["position"])
	}

	// ページネーション: 3件中pageSize=1でpage=2は2番目（newest順でGlobex）
	jobs, total = listJobs(t, router, token, "?page=2&pageSize=1")
	if total != 3 {
		t.Errorf("total = %d, want 3", total)
	}
	if len(jobs) != 1 || jobs[0]["company"] != "Globex" {
		t.Errorf("page 2 = %+v, want the Globex job", jobs)
	}

	// 範囲外ページは空ページ + 総数
	jobs, total = listJobs(t, router, token, "?page=9")
	if total != 3 || len(jobs) != 0 {
		t.Errorf("out-of-range page: total = %d, len = %d, want 3/0", total, len(jobs))
	}

	// 部分一致検索
	jobs, total = listJobs(t, router, token, "?q=desig")
	if total != 1 || jobs[0]["company"] != "Globex" {
		t.Errorf("search: total = %d, jobs = %+v, want the Globex job", total, jobs)
	}

	// 不正な日付フィルタは400
	w := doJSON(t, router, http.MethodGet, "/api/jobs?dateFrom=garbage", token, "")
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid dateFrom: status = %d, want 400", w.Code)
	}
}

func TestIntegration_UsersAreIsolated(t *testing.T) {
	router := createIntegrationRouter(t)
	aliceToken := registerAndGetToken(t, router, "alice")
	bobToken := registerAndGetToken(t, router, "bob")

	aliceJob := addJob(t, router, aliceToken, "Acme", "Engineer", "2025-05-01")
	addJob(t, router, bobToken, "Globex", "Designer", "2025-05-02")

	// bobにはaliceの記録が見えない
	_, total := listJobs(t, router, bobToken, "")
	if total != 1 {
		t.Errorf("bob total = %d, want 1", total)
	}

	// bobはaliceの記録を削除できない
	w := doJSON(t, router, http.MethodDelete, "/api/jobs/"+aliceJob, bobToken, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-user delete: status = %d, want 404", w.Code)
	}

	// cleanupは操作ユーザーのみに効く
	w = doJSON(t, router, http.MethodDelete, "/api/cleanup", bobToken, "")
	if w.Code != http.StatusOK {
		t.Fatalf("cleanup: status = %d", w.Code)
	}
	_, total = listJobs(t, router, aliceToken, "")
	if total != 1 {
		t.Errorf("alice total after bob cleanup = %d, want 1", total)
	}
}

func TestIntegration_PagesAndHealth(t *testing.T) {
	router := createIntegrationRouter(t)

	for _, target := range []string{"/", "/home"} {
		w := doJSON(t, router, http.MethodGet, target, "", "")
		if w.Code != http.StatusOK {
			t.Errorf("GET %s: status = %d, want 200", target, w.Code)
		}
		if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
			t.Errorf("GET %s: Content-Type = %q, want text/html", target, ct)
		}
	}

	w := doJSON(t, router, http.MethodGet, "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("GET /health: status = %d, want 200", w.Code)
	}
}

func TestIntegration_LogoutIsStateless(t *testing.T) {
	router := createIntegrationRouter(t)
	token := registerAndGetToken(t, router, "alice")

	w := doJSON(t, router, http.MethodPost, "/api/logout", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("logout: status = %d", w.Code)
	}

	// トークンはサーバー側で無効化されない（クライアント破棄前提）
	w = doJSON(t, router, http.MethodGet, "/api/me", token, "")
	if w.Code != http.StatusOK {
		t.Errorf("me after logout: status = %d, want 200", w.Code)
	}
}
