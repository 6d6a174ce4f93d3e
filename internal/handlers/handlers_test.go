package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/api"
	"github.com/inihikam/ngobrol/internal/api/middleware"
	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/auth"
	"github.com/inihikam/ngobrol/internal/handlers"
	"github.com/inihikam/ngobrol/internal/models"
	"github.com/inihikam/ngobrol/internal/service"
	"github.com/inihikam/ngobrol/internal/store/storetest"
)

type fakePinger struct{ err error }

func (f *fakePinger) Ping(ctx context.Context) error { return f.err }

// newTestServer wires the full router with in-memory stores.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	users := storetest.NewUsers()
	rooms := storetest.NewRooms(users)
	tokens := auth.NewTokenService("test-secret", time.Hour)
	logger := zerolog.Nop()

	authSvc := service.NewAuthService(users, tokens, nil, logger)
	roomSvc := service.NewRoomService(rooms, logger)

	h := handlers.NewHandler(authSvc, roomSvc, logger).
		WithHealthChecks(&fakePinger{}, &fakePinger{})
	mw := middleware.NewAuthMiddleware(authSvc)

	srv := httptest.NewServer(api.NewRouter(logger, h, mw))
	t.Cleanup(srv.Close)
	return srv
}

func do(t *testing.T, method, url, token string, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeInto(t *testing.T, resp *http.Response, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func wantStatus(t *testing.T, resp *http.Response, status int) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d", resp.StatusCode, status)
	}
}

func wantErrCode(t *testing.T, resp *http.Response, status int, code string) {
	t.Helper()
	wantStatus(t, resp, status)
	var env apperr.Envelope
	decodeInto(t, resp, &env)
	if env.Error.Code != code {
		t.Errorf("error code = %q, want %q", env.Error.Code, code)
	}
}

func registerUser(t *testing.T, srv *httptest.Server, username, email string) models.AuthResponse {
	t.Helper()
	resp := do(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "password123",
	})
	wantStatus(t, resp, http.StatusCreated)
	var out models.AuthResponse
	decodeInto(t, resp, &out)
	return out
}

func TestRegisterEndpoint(t *testing.T) {
	srv := newTestServer(t)

	out := registerUser(t, srv, "alice", "alice@example.com")
	if out.Token == "" {
		t.Error("register response has no token")
	}
	if out.User.Username != "alice" {
		t.Errorf("username = %q, want alice", out.User.Username)
	}

	resp := do(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username": "alice2",
		"email":    "alice@example.com",
		"password": "password123",
	})
	wantErrCode(t, resp, http.StatusConflict, "USER_EMAIL_EXISTS")

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/register", "", map[string]string{
		"username": "x",
		"email":    "bad",
		"password": "short",
	})
	wantErrCode(t, resp, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestLoginEndpoint(t *testing.T) {
	srv := newTestServer(t)
	registerUser(t, srv, "alice", "alice@example.com")

	resp := do(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "password123",
	})
	wantStatus(t, resp, http.StatusOK)
	var out models.AuthResponse
	decodeInto(t, resp, &out)
	if out.User.Status != models.StatusOnline {
		t.Errorf("status = %q, want online", out.User.Status)
	}

	resp = do(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong-password",
	})
	wantErrCode(t, resp, http.StatusUnauthorized, "AUTH_INVALID_CREDENTIALS")
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/api/auth/me", "", nil)
	wantErrCode(t, resp, http.StatusUnauthorized, "AUTH_MISSING_TOKEN")

	resp = do(t, http.MethodGet, srv.URL+"/api/rooms", "garbage-token", nil)
	wantErrCode(t, resp, http.StatusUnauthorized, "AUTH_INVALID_TOKEN")
}

func TestMeAndProfileUpdate(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice", "alice@example.com")

	resp := do(t, http.MethodGet, srv.URL+"/api/auth/me", alice.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var me models.UserResponse
	decodeInto(t, resp, &me)
	if me.ID != alice.User.ID {
		t.Errorf("me id = %s, want %s", me.ID, alice.User.ID)
	}

	resp = do(t, http.MethodPut, srv.URL+"/api/users/me", alice.Token, map[string]string{
		"display_name": "Alice A.",
		"status":       models.StatusAway,
	})
	wantStatus(t, resp, http.StatusOK)
	decodeInto(t, resp, &me)
	if me.DisplayName == nil || *me.DisplayName != "Alice A." {
		t.Errorf("display_name = %v, want Alice A.", me.DisplayName)
	}
	if me.Status != models.StatusAway {
		t.Errorf("status = %q, want away", me.Status)
	}
}

func TestLogoutEndpoint(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice", "alice@example.com")

	resp := do(t, http.MethodPost, srv.URL+"/api/auth/logout", alice.Token, nil)
	wantStatus(t, resp, http.StatusOK)

	// The token is stateless and still works after logout.
	resp = do(t, http.MethodGet, srv.URL+"/api/auth/me", alice.Token, nil)
	wantStatus(t, resp, http.StatusOK)
}

func TestRoomEndpoints(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice", "alice@example.com")
	bob := registerUser(t, srv, "bob", "bob@example.com")

	// Create.
	resp := do(t, http.MethodPost, srv.URL+"/api/rooms", alice.Token, map[string]interface{}{
		"name":      "general",
		"room_type": "public",
	})
	wantStatus(t, resp, http.StatusCreated)
	var room models.RoomResponse
	decodeInto(t, resp, &room)
	if room.MemberCount != 1 {
		t.Errorf("member count = %d, want 1", room.MemberCount)
	}

	// List.
	resp = do(t, http.MethodGet, srv.URL+"/api/rooms", bob.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var page struct {
		Items      []models.RoomResponse `json:"items"`
		Pagination handlers.Pagination   `json:"pagination"`
	}
	decodeInto(t, resp, &page)
	if len(page.Items) != 1 || page.Pagination.TotalItems != 1 {
		t.Errorf("list = %d items, total %d; want 1/1", len(page.Items), page.Pagination.TotalItems)
	}

	roomURL := srv.URL + "/api/rooms/" + room.ID.String()

	// Join.
	resp = do(t, http.MethodPost, roomURL+"/join", bob.Token, nil)
	wantStatus(t, resp, http.StatusCreated)
	var member models.RoomMemberInfo
	decodeInto(t, resp, &member)
	if member.Role != models.RoleMember {
		t.Errorf("joined role = %s, want member", member.Role)
	}

	resp = do(t, http.MethodPost, roomURL+"/join", bob.Token, nil)
	wantErrCode(t, resp, http.StatusConflict, "ROOM_ALREADY_JOINED")

	// Detail.
	resp = do(t, http.MethodGet, roomURL, bob.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var detail models.RoomDetail
	decodeInto(t, resp, &detail)
	if !detail.IsMember || len(detail.Members) != 2 {
		t.Errorf("detail: is_member=%v members=%d, want true/2", detail.IsMember, len(detail.Members))
	}

	// Update requires admin.
	resp = do(t, http.MethodPut, roomURL, bob.Token, map[string]string{"name": "renamed"})
	wantErrCode(t, resp, http.StatusForbidden, "AUTH_INSUFFICIENT_PERMISSIONS")
	resp = do(t, http.MethodPut, roomURL, alice.Token, map[string]string{"name": "renamed"})
	wantStatus(t, resp, http.StatusOK)

	// Members.
	resp = do(t, http.MethodGet, roomURL+"/members", alice.Token, nil)
	wantStatus(t, resp, http.StatusOK)
	var members []models.RoomMemberInfo
	decodeInto(t, resp, &members)
	if len(members) != 2 {
		t.Errorf("members = %d, want 2", len(members))
	}

	// Leave.
	resp = do(t, http.MethodPost, roomURL+"/leave", bob.Token, nil)
	wantStatus(t, resp, http.StatusNoContent)
	resp = do(t, http.MethodPost, roomURL+"/leave", alice.Token, nil)
	wantErrCode(t, resp, http.StatusForbidden, "ROOM_OWNER_REQUIRED")

	// Delete.
	resp = do(t, http.MethodDelete, roomURL, bob.Token, nil)
	wantErrCode(t, resp, http.StatusForbidden, "ROOM_OWNER_REQUIRED")
	resp = do(t, http.MethodDelete, roomURL, alice.Token, nil)
	wantStatus(t, resp, http.StatusNoContent)
	resp = do(t, http.MethodGet, roomURL, alice.Token, nil)
	wantErrCode(t, resp, http.StatusNotFound, "ROOM_NOT_FOUND")
}

func TestPrivateRoomAccess(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice", "alice@example.com")
	bob := registerUser(t, srv, "bob", "bob@example.com")

	resp := do(t, http.MethodPost, srv.URL+"/api/rooms", alice.Token, map[string]interface{}{
		"name":      "secret-club",
		"room_type": "private",
	})
	wantStatus(t, resp, http.StatusCreated)
	var room models.RoomResponse
	decodeInto(t, resp, &room)

	roomURL := srv.URL + "/api/rooms/" + room.ID.String()

	resp = do(t, http.MethodGet, roomURL, bob.Token, nil)
	wantErrCode(t, resp, http.StatusForbidden, "ROOM_PRIVATE_NO_ACCESS")
	resp = do(t, http.MethodPost, roomURL+"/join", bob.Token, nil)
	wantErrCode(t, resp, http.StatusForbidden, "ROOM_PRIVATE_NO_ACCESS")
}

func TestInvalidRoomID(t *testing.T) {
	srv := newTestServer(t)
	alice := registerUser(t, srv, "alice", "alice@example.com")

	resp := do(t, http.MethodGet, srv.URL+"/api/rooms/not-a-uuid", alice.Token, nil)
	wantErrCode(t, resp, http.StatusUnprocessableEntity, "VALIDATION_ERROR")
}

func TestHealthEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/health", "", nil)
	wantStatus(t, resp, http.StatusOK)
	var health handlers.HealthResponse
	decodeInto(t, resp, &health)
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if health.Checks["postgres"].Status != "pass" {
		t.Errorf("postgres check = %+v, want pass", health.Checks["postgres"])
	}
}

func TestHealthDegraded(t *testing.T) {
	users := storetest.NewUsers()
	logger := zerolog.Nop()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	authSvc := service.NewAuthService(users, tokens, nil, logger)
	roomSvc := service.NewRoomService(storetest.NewRooms(users), logger)

	h := handlers.NewHandler(authSvc, roomSvc, logger).
		WithHealthChecks(&fakePinger{err: errors.New("down")}, &fakePinger{})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
}

func TestHealthWithoutOptionalCache(t *testing.T) {
	users := storetest.NewUsers()
	logger := zerolog.Nop()
	tokens := auth.NewTokenService("test-secret", time.Hour)
	authSvc := service.NewAuthService(users, tokens, nil, logger)
	roomSvc := service.NewRoomService(storetest.NewRooms(users), logger)

	// No redis configured: the check is skipped, not failed.
	h := handlers.NewHandler(authSvc, roomSvc, logger).
		WithHealthChecks(&fakePinger{}, nil)

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var health handlers.HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if health.Status != "healthy" {
		t.Errorf("status = %q, want healthy", health.Status)
	}
	if _, ok := health.Checks["redis"]; ok {
		t.Error("unconfigured redis still appears in checks")
	}
}

func TestRootEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp := do(t, http.MethodGet, srv.URL+"/", "", nil)
	wantStatus(t, resp, http.StatusOK)
	var root handlers.RootResponse
	decodeInto(t, resp, &root)
	if root.Version != "1.0.0" {
		t.Errorf("version = %q, want 1.0.0", root.Version)
	}
}
