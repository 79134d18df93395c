package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/todoapi/internal/account"
	"github.com/hitoshi/todoapi/internal/auth"
	"github.com/hitoshi/todoapi/internal/database"
	"github.com/hitoshi/todoapi/internal/metrics"
	"github.com/hitoshi/todoapi/internal/middleware"
	"github.com/hitoshi/todoapi/internal/model"
	"github.com/hitoshi/todoapi/internal/repository"
	"github.com/hitoshi/todoapi/internal/security"
	"github.com/hitoshi/todoapi/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

// --- 統合テスト用のスタブ ---

// stubOAuthProvider は認可コードに対応するプロフィールを返すOAuthプロバイダー。
type stubOAuthProvider struct {
	profiles map[string]*auth.OAuthUserInfo
}

func (p *stubOAuthProvider) GetLoginURL(state string) string {
	return "https://accounts.google.com/o/oauth2/auth?state=" + state
}

func (p *stubOAuthProvider) ExchangeCode(ctx context.Context, code string) (*auth.OAuthUserInfo, error) {
	info, ok := p.profiles[code]
	if !ok {
		return nil, fmt.Errorf("%w: unknown code", auth.ErrIdentityVerification)
	}
	return info, nil
}

const testSigningSecret = "integration-test-secret"

// testServer は実際のリポジトリ・サービス・ミドルウェアで構成したルーター。
type testServer struct {
	handler  http.Handler
	registry *prometheus.Registry
	tokens   *auth.TokenManager
}

type testServerOption func(deps *RouterDeps)

func newTestServer(t *testing.T, opts ...testServerOption) *testServer {
	t.Helper()

	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "handler.db")
	if err := database.RunMigrations(dbURL); err != nil {
		t.Fatalf("マイグレーション実行に失敗: %v", err)
	}
	db, err := database.Open(dbURL)
	if err != nil {
		t.Fatalf("データベースへの接続に失敗: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	tokens, err := auth.NewTokenManager(testSigningSecret, time.Hour)
	if err != nil {
		t.Fatalf("NewTokenManager returned error: %v", err)
	}

	accounts := account.NewService(repository.NewSQLAccountRepo(db))
	provider := &stubOAuthProvider{profiles: map[string]*auth.OAuthUserInfo{
		"alice-code": {ProviderUserID: "google-alice", Email: "alice@example.com", Name: "Alice", Provider: "google"},
		"bob-code":   {ProviderUserID: "google-bob", Email: "bob@example.com", Name: "Bob", Provider: "google"},
	}}

	general := middleware.NewRateLimiter(middleware.RateLimiterConfig{Name: "general"})
	authLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{Name: "auth"})
	t.Cleanup(general.Stop)
	t.Cleanup(authLimiter.Stop)

	docs, err := NewDocsHandler("")
	if err != nil {
		t.Fatalf("NewDocsHandler returned error: %v", err)
	}

	reg := prometheus.NewRegistry()
	deps := &RouterDeps{
		Logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigins: []string{"http://localhost:3000"},
		GeneralLimiter:     general,
		AuthLimiter:        authLimiter,
		TokenVerifier:      tokens,
		AccountFinder:      accounts,
		Metrics:            metrics.NewCollector(reg),
		MetricsGatherer:    reg,
		AuthService:        auth.NewService(provider, accounts, tokens),
		AuthConfig:         AuthHandlerConfig{FrontendURL: "http://localhost:3000/"},
		TaskService:        task.NewService(repository.NewSQLTaskRepo(db), security.NewMarkupGuard()),
		DB:                 db,
		Docs:               docs,
	}
	for _, opt := range opts {
		opt(deps)
	}

	return &testServer{
		handler:  NewRouter(deps),
		registry: reg,
		tokens:   tokens,
	}
}

// login はOAuthフローを最初から実行し、リダイレクトURLのトークンを返す。
func (s *testServer) login(t *testing.T, code string) string {
	t.Helper()

	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/auth/google", nil))
	if w.Code != http.StatusFound {
		t.Fatalf("login: status = %d, want %d", w.Code, http.StatusFound)
	}

	var state string
	for _, c := range w.Result().Cookies() {
		if c.Name == oauthStateCookie {
			state = c.Value
		}
	}
	if state == "" {
		t.Fatal("login: oauth_state cookie not set")
	}

	q := url.Values{"code": {code}, "state": {state}}
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+q.Encode(), nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: state})
	w = httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	if w.Code != http.StatusFound {
		t.Fatalf("callback: status = %d, want %d (body=%s)", w.Code, http.StatusFound, w.Body.String())
	}

	loc, err := url.Parse(w.Header().Get("Location"))
	if err != nil {
		t.Fatalf("callback: invalid Location: %v", err)
	}
	token := loc.Query().Get("token")
	if token == "" {
		t.Fatal("callback: token missing from redirect")
	}
	return token
}

// do は必要に応じてBearerトークンを付けてリクエストを実行する。
func (s *testServer) do(method, path, token, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

func (s *testServer) createTask(t *testing.T, token, title string) taskResponse {
	t.Helper()
	w := s.do(http.MethodPost, "/api/todos", token, fmt.Sprintf(`{"title":%q}`, title))
	if w.Code != http.StatusCreated {
		t.Fatalf("create %q: status = %d, want %d (body=%s)", title, w.Code, http.StatusCreated, w.Body.String())
	}
	var got taskResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("create: failed to decode: %v", err)
	}
	return got
}

func (s *testServer) listTasks(t *testing.T, token string) []taskResponse {
	t.Helper()
	w := s.do(http.MethodGet, "/api/todos", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("list: status = %d, want %d", w.Code, http.StatusOK)
	}
	var got []taskResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("list: failed to decode: %v", err)
	}
	return got
}

func (s *testServer) stats(t *testing.T, token string) statsResponse {
	t.Helper()
	w := s.do(http.MethodGet, "/api/todos/stats", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("stats: status = %d, want %d", w.Code, http.StatusOK)
	}
	var got statsResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("stats: failed to decode: %v", err)
	}
	return got
}

// --- テスト ---

func TestRouter_LoginThenCreateAndList(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")

	created := s.createTask(t, token, "buy milk")
	if created.ID == "" {
		t.Error("created task should have an id")
	}

	tasks := s.listTasks(t, token)
	if len(tasks) != 1 {
		t.Fatalf("len = %d, want 1", len(tasks))
	}
	if tasks[0].Title != "buy milk" || tasks[0].Completed || tasks[0].ID == "" {
		t.Errorf("listed task = %+v", tasks[0])
	}
}

func TestRouter_Me_ReturnsLoggedInAccount(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")

	w := s.do(http.MethodGet, "/api/me", token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var me accountResponse
	if err := json.NewDecoder(w.Body).Decode(&me); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if me.Email != "alice@example.com" || me.DisplayName != "Alice" || me.ID == "" {
		t.Errorf("me = %+v", me)
	}
}

func TestRouter_RepeatedLogin_SameAccount(t *testing.T) {
	s := newTestServer(t)

	first := s.login(t, "alice-code")
	second := s.login(t, "alice-code")

	id1, err := s.tokens.Verify(first)
	if err != nil {
		t.Fatalf("Verify(first) returned error: %v", err)
	}
	id2, err := s.tokens.Verify(second)
	if err != nil {
		t.Fatalf("Verify(second) returned error: %v", err)
	}
	if id1 != id2 {
		t.Errorf("account IDs differ across logins: %q vs %q", id1, id2)
	}

	// 2回目のログインで発行したトークンでも同じタスクが見える
	s.createTask(t, first, "shared")
	if tasks := s.listTasks(t, second); len(tasks) != 1 {
		t.Errorf("len = %d, want 1", len(tasks))
	}
}

func TestRouter_CallbackWithUnknownCode_Returns401(t *testing.T) {
	s := newTestServer(t)

	q := url.Values{"code": {"forged"}, "state": {"st"}}
	req := httptest.NewRequest(http.MethodGet, "/auth/google/callback?"+q.Encode(), nil)
	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: "st"})
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

func TestRouter_EmptyPatch_LeavesTaskUnchanged(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")
	created := s.createTask(t, token, "read book")

	w := s.do(http.MethodPatch, "/api/todos/"+created.ID, token, "{}")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got taskResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if got != created {
		t.Errorf("task changed by empty patch: got %+v, want %+v", got, created)
	}
}

func TestRouter_PatchUpdatesOnlyGivenFields(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")
	created := s.createTask(t, token, "write report")

	w := s.do(http.MethodPatch, "/api/todos/"+created.ID, token, `{"completed":true,"description":"by friday"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	var got taskResponse
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if !got.Completed {
		t.Error("completed should be true")
	}
	if got.Title != "write report" {
		t.Errorf("title = %q, want unchanged", got.Title)
	}
	if got.Description != "by friday" {
		t.Errorf("description = %q, want %q", got.Description, "by friday")
	}
}

// TestRouter_TaskTextRoundTripsVerbatim は記号や文字実体を含むタイトルが
// 作成・一覧・再送のいずれでも書き換えられないことを検証する。
func TestRouter_TaskTextRoundTripsVerbatim(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")

	titles := []string{"AT&amp;T", "&lt;b&gt;", "5 &lt; 6", "Tom & Jerry's \"plan\"", "1 < 2 > 0"}
	for _, title := range titles {
		created := s.createTask(t, token, title)
		if created.Title != title {
			t.Errorf("created title = %q, want %q", created.Title, title)
		}

		// 受け取ったタイトルをそのまま送り返しても受け入れられる
		body, _ := json.Marshal(map[string]string{"title": created.Title})
		w := s.do(http.MethodPatch, "/api/todos/"+created.ID, token, string(body))
		if w.Code != http.StatusOK {
			t.Fatalf("echo patch %q: status = %d, want %d (body=%s)", title, w.Code, http.StatusOK, w.Body.String())
		}
	}

	tasks := s.listTasks(t, token)
	if len(tasks) != len(titles) {
		t.Fatalf("len = %d, want %d", len(tasks), len(titles))
	}
	for i, task := range tasks {
		if task.Title != titles[i] {
			t.Errorf("tasks[%d].Title = %q, want %q", i, task.Title, titles[i])
		}
	}
}

func TestRouter_MarkupInTaskText_Returns400AndStoresNothing(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")

	for _, body := range []string{
		`{"title":"<script>alert(1)</script>buy"}`,
		`{"title":"x<y and y>z"}`,
		`{"title":"ok","description":"<img src=x onerror=alert(1)>"}`,
	} {
		w := s.do(http.MethodPost, "/api/todos", token, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("POST %s: status = %d, want %d", body, w.Code, http.StatusBadRequest)
			continue
		}
		if got := decodeErrorBody(t, w); got.Code != model.ErrCodeValidation {
			t.Errorf("POST %s: code = %q, want %q", body, got.Code, model.ErrCodeValidation)
		}
	}

	if tasks := s.listTasks(t, token); len(tasks) != 0 {
		t.Errorf("rejected input must not be stored, got %+v", tasks)
	}
}

func TestRouter_TrailingDataAfterJSON_Returns400(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")

	w := s.do(http.MethodPost, "/api/todos", token, `{"title":"ok"} garbage`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
	if got := decodeErrorBody(t, w); got.Code != model.ErrCodeInvalidRequest {
		t.Errorf("code = %q, want %q", got.Code, model.ErrCodeInvalidRequest)
	}
	if tasks := s.listTasks(t, token); len(tasks) != 0 {
		t.Errorf("no task should be created, got %+v", tasks)
	}
}

func TestRouter_DeleteNonexistent_Returns404AndKeepsOtherTasks(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")
	s.createTask(t, token, "keep me")

	for _, id := range []string{"00000000-0000-0000-0000-000000000000", "not-a-uuid"} {
		w := s.do(http.MethodDelete, "/api/todos/"+id, token, "")
		if w.Code != http.StatusNotFound {
			t.Errorf("DELETE %s: status = %d, want %d", id, w.Code, http.StatusNotFound)
		}
	}

	if tasks := s.listTasks(t, token); len(tasks) != 1 {
		t.Errorf("len = %d, want 1", len(tasks))
	}
}

func TestRouter_DeleteOwnTask(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")
	created := s.createTask(t, token, "temporary")

	w := s.do(http.MethodDelete, "/api/todos/"+created.ID, token, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if tasks := s.listTasks(t, token); len(tasks) != 0 {
		t.Errorf("len = %d, want 0", len(tasks))
	}

	// 2回目は404
	w = s.do(http.MethodDelete, "/api/todos/"+created.ID, token, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: status = %d, want %d", w.Code, http.StatusNotFound)
	}
}

func TestRouter_ForeignTask_IsInvisible(t *testing.T) {
	s := newTestServer(t)
	alice := s.login(t, "alice-code")
	bob := s.login(t, "bob-code")

	aliceTask := s.createTask(t, alice, "alice only")

	if tasks := s.listTasks(t, bob); len(tasks) != 0 {
		t.Errorf("bob sees %d tasks, want 0", len(tasks))
	}

	w := s.do(http.MethodPatch, "/api/todos/"+aliceTask.ID, bob, `{"title":"hijacked","completed":true}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign PATCH: status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := decodeErrorBody(t, w); body.Code != "TASK_NOT_FOUND" {
		t.Errorf("foreign PATCH: code = %q, want TASK_NOT_FOUND", body.Code)
	}

	w = s.do(http.MethodDelete, "/api/todos/"+aliceTask.ID, bob, "")
	if w.Code != http.StatusNotFound {
		t.Errorf("foreign DELETE: status = %d, want %d", w.Code, http.StatusNotFound)
	}

	tasks := s.listTasks(t, alice)
	if len(tasks) != 1 || tasks[0] != aliceTask {
		t.Errorf("alice's task was modified: %+v", tasks)
	}
}

func TestRouter_Stats(t *testing.T) {
	s := newTestServer(t)
	token := s.login(t, "alice-code")

	if got := s.stats(t, token); got != (statsResponse{Total: 0, Completed: 0}) {
		t.Errorf("stats = %+v, want {0 0}", got)
	}

	first := s.createTask(t, token, "one")
	s.createTask(t, token, "two")
	s.createTask(t, token, "three")
	if w := s.do(http.MethodPatch, "/api/todos/"+first.ID, token, `{"completed":true}`); w.Code != http.StatusOK {
		t.Fatalf("complete: status = %d", w.Code)
	}

	if got := s.stats(t, token); got != (statsResponse{Total: 3, Completed: 1}) {
		t.Errorf("stats = %+v, want {3 1}", got)
	}
}

func TestRouter_ProtectedRoutes_RejectBadCredentials(t *testing.T) {
	s := newTestServer(t)

	otherSecret, _ := auth.NewTokenManager("another-secret", time.Hour)
	forged, _ := otherSecret.Issue("acc-1")
	orphan, _ := s.tokens.Issue("no-such-account")

	tests := []struct {
		name   string
		header string
		reason string
	}{
		{"ヘッダーなし", "", middleware.RejectMissingCredentials},
		{"Bearer以外のスキーム", "Basic dXNlcjpwYXNz", middleware.RejectMissingCredentials},
		{"不正な形式", "Bearer not-a-jwt", middleware.RejectMalformedToken},
		{"別の秘密鍵で署名", "Bearer " + forged, middleware.RejectInvalidSignature},
		{"存在しないアカウント", "Bearer " + orphan, middleware.RejectUnknownAccount},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/todos", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			s.handler.ServeHTTP(w, req)

			if w.Code != http.StatusUnauthorized {
				t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
			}
			if body := decodeErrorBody(t, w); body.Code != "UNAUTHORIZED" {
				t.Errorf("code = %q, want UNAUTHORIZED", body.Code)
			}
		})
	}

	// 拒否理由ごとにメトリクスが記録される
	families, err := s.registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	reasons := map[string]float64{}
	for _, mf := range families {
		if mf.GetName() != "todoapi_auth_rejections_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if lp.GetName() == "reason" {
					reasons[lp.GetValue()] = m.GetCounter().GetValue()
				}
			}
		}
	}
	want := map[string]float64{
		middleware.RejectMissingCredentials: 2,
		middleware.RejectMalformedToken:     1,
		middleware.RejectInvalidSignature:   1,
		middleware.RejectUnknownAccount:     1,
	}
	for reason, count := range want {
		if reasons[reason] != count {
			t.Errorf("auth_rejections_total{reason=%q} = %v, want %v", reason, reasons[reason], count)
		}
	}
}

func TestRouter_PublicEndpoints(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		path         string
		wantStatus   int
		wantContains string
	}{
		{"/", http.StatusOK, "documentation"},
		{"/health", http.StatusOK, `"ok"`},
		{"/api-docs/openapi.yaml", http.StatusOK, "/api/todos/{id}"},
		{"/api-docs/openapi.json", http.StatusOK, "/api/todos/stats"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.path, "", "")
			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			if !strings.Contains(w.Body.String(), tt.wantContains) {
				t.Errorf("body does not contain %q", tt.wantContains)
			}
		})
	}
}

func TestRouter_MetricsEndpoint_ExposesRequestCounters(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/health", "", "")

	w := s.do(http.MethodGet, "/metrics", "", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusOK)
	}
	body := w.Body.String()
	if !strings.Contains(body, "todoapi_http_requests_total") {
		t.Error("metrics output does not contain todoapi_http_requests_total")
	}
	if !strings.Contains(body, `route="/health"`) {
		t.Error("metrics output does not contain the /health route label")
	}
}

func TestRouter_UnknownRoute_ReturnsJSON404(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/no/such/route", "", "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
	if body := decodeErrorBody(t, w); body.Code != "NOT_FOUND" {
		t.Errorf("code = %q, want NOT_FOUND", body.Code)
	}
}

func TestRouter_GlobalInterceptors(t *testing.T) {
	s := newTestServer(t)

	// CORSプリフライトは認証ゲートより前に処理される
	req := httptest.NewRequest(http.MethodOptions, "/api/todos", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("security headers missing: X-Content-Type-Options = %q", got)
	}
}

func TestRouter_AuthRoutesHaveTheirOwnRateLimit(t *testing.T) {
	authLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Name:   "auth",
		Policy: middleware.RateLimitPolicy{Requests: 1, Window: time.Hour},
	})
	t.Cleanup(authLimiter.Stop)

	s := newTestServer(t, func(deps *RouterDeps) {
		deps.AuthLimiter = authLimiter
	})

	if w := s.do(http.MethodGet, "/auth/google", "", ""); w.Code != http.StatusFound {
		t.Fatalf("first login: status = %d, want %d", w.Code, http.StatusFound)
	}
	w := s.do(http.MethodGet, "/auth/google", "", "")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("second login: status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}

	// 認証ルートの制限は他のルートに影響しない
	if w := s.do(http.MethodGet, "/health", "", ""); w.Code != http.StatusOK {
		t.Errorf("health: status = %d, want %d", w.Code, http.StatusOK)
	}
}
