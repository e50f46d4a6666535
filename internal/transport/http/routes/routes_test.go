package routes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	red "github.com/redis/go-redis/v9"
	"go.uber.org/zap/zaptest"

	"github.com/arklim/campus-records/internal/core/port"
	"github.com/arklim/campus-records/internal/infra/config"
	"github.com/arklim/campus-records/internal/infra/security"
	"github.com/arklim/campus-records/internal/repository/memory"
	redisrepo "github.com/arklim/campus-records/internal/repository/redis"
	"github.com/arklim/campus-records/internal/transport/http/middleware"
	httproutes "github.com/arklim/campus-records/internal/transport/http/routes"
	"github.com/arklim/campus-records/internal/usecase"
)

type staticChecker struct {
	name string
	err  error
}

func (s staticChecker) Name() string                  { return s.name }
func (s staticChecker) Check(_ context.Context) error { return s.err }

type server struct {
	engine *gin.Engine
	store  *memory.Store
}

func testConfig() *config.AppConfig {
	return &config.AppConfig{
		App:  config.AppSettings{Env: "test"},
		Auth: config.AuthSettings{SessionTTL: time.Hour, CookieName: "records_session"},
		RateLimit: config.RateLimitSettings{
			WindowDuration:       time.Minute,
			LoginMaxAttempts:     20,
			PrincipalMaxRequests: 100,
		},
		Records: config.RecordsSettings{CascadeOwnerDelete: true},
		Bootstrap: config.BootstrapSettings{
			Enabled: true,
			Teacher: config.BootstrapRecord{
				Identifier: "admin",
				Password:   "admin-password",
				Name:       "Admin Teacher",
				Email:      "admin@campus.edu",
				UniqueKey:  "EMP-1",
			},
		},
	}
}

func newServer(t *testing.T, checkers ...httproutes.Checker) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	client := red.NewClient(&red.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	cfg := testConfig()
	log := zaptest.NewLogger(t)

	hasher, err := security.NewArgon2Hasher(port.Argon2Params{Memory: 8 * 1024, Iterations: 1, Parallelism: 1, SaltLength: 16, KeyLength: 32})
	if err != nil {
		t.Fatalf("NewArgon2Hasher: %v", err)
	}
	tokens, err := security.NewSessionTokenManager("0123456789abcdef0123456789abcdef", "campus-records")
	if err != nil {
		t.Fatalf("NewSessionTokenManager: %v", err)
	}

	store := memory.NewStore()
	if _, err := usecase.NewBootstrapService(store, hasher, log).Seed(context.Background(), cfg.Bootstrap); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	limits := redisrepo.NewRateLimitRepository(client, "test:rl", time.Hour)
	policy := usecase.NewAccessPolicy(store)
	students := usecase.NewStudentService(store, policy, hasher, log)
	teachers := usecase.NewTeacherService(store, policy, hasher, log)

	metrics, err := middleware.NewHTTPMetrics(middleware.HTTPMetricsOptions{Registerer: prometheus.NewRegistry()})
	if err != nil {
		t.Fatalf("NewHTTPMetrics: %v", err)
	}

	engine := httproutes.Register(httproutes.Dependencies{
		Config:      cfg,
		Logger:      log,
		RateLimiter: middleware.NewRateLimiter(limits, log),
		Metrics:     metrics,
		Checkers:    checkers,
		Services: httproutes.ServiceSet{
			Auth: usecase.NewAuthService(cfg.Auth, store.Principals(), redisrepo.NewSessionStore(client, "test:session"), hasher, tokens, log).
				WithRateLimiter(limits, cfg.RateLimit),
			Students:    students,
			Teachers:    teachers,
			Courses:     usecase.NewCourseService(store, policy, log),
			Departments: usecase.NewDepartmentService(store, policy, log),
			Profiles:    usecase.NewProfileService(store, students, teachers),
		},
	})

	return &server{engine: engine, store: store}
}

func (s *server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var payload bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&payload).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *server) login(t *testing.T, identifier, password string) string {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": identifier, "password": password})
	if w.Code != http.StatusOK {
		t.Fatalf("login %s: status %d body %s", identifier, w.Code, w.Body.String())
	}
	var resp struct {
		AccessToken string `json:"access_token"`
	}
	decode(t, w, &resp)
	if resp.AccessToken == "" {
		t.Fatalf("login %s returned no token", identifier)
	}
	if cookies := w.Result().Cookies(); len(cookies) == 0 || cookies[0].Name != "records_session" {
		t.Fatalf("expected session cookie, got %v", cookies)
	}
	return resp.AccessToken
}

func decode(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, want int) {
	t.Helper()
	if w.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, w.Code, w.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	srv := newServer(t)

	expectStatus(t, srv.do(t, http.MethodGet, "/healthz", "", nil), http.StatusOK)
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	srv := newServer(t,
		staticChecker{name: "store"},
		staticChecker{name: "redis", err: errors.New("connection refused")},
	)

	w := srv.do(t, http.MethodGet, "/readyz", "", nil)
	expectStatus(t, w, http.StatusServiceUnavailable)

	var resp struct {
		Status string            `json:"status"`
		Checks map[string]string `json:"checks"`
	}
	decode(t, w, &resp)
	if resp.Checks["store"] != "ok" || resp.Checks["redis"] != "connection refused" {
		t.Fatalf("unexpected checks %v", resp.Checks)
	}
}

func TestRecordsRequireSession(t *testing.T) {
	srv := newServer(t)

	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students", "", nil), http.StatusUnauthorized)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students", "not-a-token", nil), http.StatusUnauthorized)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newServer(t)

	w := srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "admin", "password": "wrong"})
	expectStatus(t, w, http.StatusUnauthorized)

	w = srv.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{"identifier": "admin"})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestStudentSelfServiceFlow(t *testing.T) {
	srv := newServer(t)
	teacherToken := srv.login(t, "admin", "admin-password")

	create := func(name, roll, username string) string {
		w := srv.do(t, http.MethodPost, "/api/v1/students", teacherToken, map[string]any{
			"name":        name,
			"roll_number": roll,
			"email":       username + "@campus.edu",
			"account":     map[string]string{"username": username, "password": "pw-" + username},
		})
		expectStatus(t, w, http.StatusCreated)
		var resp struct {
			ID string `json:"id"`
		}
		decode(t, w, &resp)
		return resp.ID
	}
	adaID := create("Ada", "R-1", "ada")
	bobID := create("Bob", "R-2", "bob")

	w := srv.do(t, http.MethodPost, "/api/v1/students", teacherToken, map[string]any{
		"name": "Dup", "roll_number": "R-1", "email": "dup@campus.edu",
	})
	expectStatus(t, w, http.StatusConflict)

	studentToken := srv.login(t, "ada", "pw-ada")

	w = srv.do(t, http.MethodGet, "/api/v1/students", studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	var listed []map[string]any
	decode(t, w, &listed)
	if len(listed) != 2 {
		t.Fatalf("expected 2 students, got %d", len(listed))
	}

	w = srv.do(t, http.MethodPatch, "/api/v1/students/"+adaID, studentToken, map[string]any{"phone_number": "555-0100"})
	expectStatus(t, w, http.StatusOK)
	var updated struct {
		PhoneNumber string `json:"phone_number"`
		RollNumber  string `json:"roll_number"`
	}
	decode(t, w, &updated)
	if updated.PhoneNumber != "555-0100" || updated.RollNumber != "R-1" {
		t.Fatalf("unexpected update result %+v", updated)
	}

	w = srv.do(t, http.MethodPatch, "/api/v1/students/"+adaID, studentToken, map[string]any{"roll_number": "R-9", "name": "Ada L."})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &updated)
	if updated.RollNumber != "R-1" {
		t.Fatalf("student changed own roll number to %q", updated.RollNumber)
	}
	expectStatus(t, srv.do(t, http.MethodPut, "/api/v1/students/"+bobID, studentToken, map[string]any{"name": "Mallory"}), http.StatusForbidden)
	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/students/"+bobID, studentToken, nil), http.StatusForbidden)
	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/courses", studentToken, map[string]any{"name": "Go", "code": "GO-1"}), http.StatusForbidden)

	w = srv.do(t, http.MethodGet, "/api/v1/me", studentToken, nil)
	expectStatus(t, w, http.StatusOK)
	var profile struct {
		Principal struct {
			Role string `json:"role"`
		} `json:"principal"`
		Student *struct {
			ID string `json:"id"`
		} `json:"student"`
	}
	decode(t, w, &profile)
	if profile.Student == nil || profile.Student.ID != adaID {
		t.Fatalf("profile did not include the owned record: %s", w.Body.String())
	}

	expectStatus(t, srv.do(t, http.MethodPatch, "/api/v1/me/profile", studentToken, map[string]any{"address": "1 Main St"}), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodPatch, "/api/v1/me/profile", studentToken, map[string]any{"email": "not-an-email"}), http.StatusBadRequest)
}

func TestDeleteCascadeOverride(t *testing.T) {
	srv := newServer(t)
	teacherToken := srv.login(t, "admin", "admin-password")

	w := srv.do(t, http.MethodPost, "/api/v1/students", teacherToken, map[string]any{
		"name":        "Ada",
		"roll_number": "R-1",
		"email":       "ada@campus.edu",
		"account":     map[string]string{"username": "ada", "password": "pw-ada"},
	})
	expectStatus(t, w, http.StatusCreated)
	var created struct {
		ID string `json:"id"`
	}
	decode(t, w, &created)

	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/students/"+created.ID+"?cascade=maybe", teacherToken, nil), http.StatusBadRequest)
	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/students/"+created.ID+"?cascade=false", teacherToken, nil), http.StatusNoContent)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/students/"+created.ID, teacherToken, nil), http.StatusNotFound)

	exists, err := srv.store.Principals().ExistsByIdentifier(context.Background(), "ada")
	if err != nil || !exists {
		t.Fatalf("orphan delete should keep the principal, exists=%v err=%v", exists, err)
	}
}

func TestCatalogueCRUD(t *testing.T) {
	srv := newServer(t)
	token := srv.login(t, "admin", "admin-password")

	w := srv.do(t, http.MethodPost, "/api/v1/courses", token, map[string]any{"name": "Compilers", "code": "CS-401", "credit": 4})
	expectStatus(t, w, http.StatusCreated)
	var course struct {
		ID     string `json:"id"`
		Credit int    `json:"credit"`
	}
	decode(t, w, &course)

	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/courses", token, map[string]any{"name": "Bad", "code": "X", "credit": -1}), http.StatusBadRequest)

	w = srv.do(t, http.MethodPatch, "/api/v1/courses/"+course.ID, token, map[string]any{"credit": 5})
	expectStatus(t, w, http.StatusOK)
	decode(t, w, &course)
	if course.Credit != 5 {
		t.Fatalf("expected credit 5, got %d", course.Credit)
	}

	w = srv.do(t, http.MethodPost, "/api/v1/departments", token, map[string]any{"name": "Physics"})
	expectStatus(t, w, http.StatusCreated)

	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/courses/"+course.ID, token, nil), http.StatusNoContent)
	expectStatus(t, srv.do(t, http.MethodDelete, "/api/v1/courses/"+course.ID, token, nil), http.StatusNotFound)
}

func TestLogoutRevokesSession(t *testing.T) {
	srv := newServer(t)
	token := srv.login(t, "admin", "admin-password")

	expectStatus(t, srv.do(t, http.MethodPost, "/api/v1/auth/logout", token, nil), http.StatusOK)
	expectStatus(t, srv.do(t, http.MethodGet, "/api/v1/me", token, nil), http.StatusUnauthorized)
}
