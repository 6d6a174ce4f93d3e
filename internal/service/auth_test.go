package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/inihikam/ngobrol/internal/apperr"
	"github.com/inihikam/ngobrol/internal/auth"
	"github.com/inihikam/ngobrol/internal/models"
	"github.com/inihikam/ngobrol/internal/store/storetest"
)

type fakePresence struct {
	calls map[string]string
	err   error
}

func (f *fakePresence) SetPresence(ctx context.Context, userID, status string) error {
	if f.err != nil {
		return f.err
	}
	if f.calls == nil {
		f.calls = make(map[string]string)
	}
	f.calls[userID] = status
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *storetest.Users, *fakePresence) {
	t.Helper()
	users := storetest.NewUsers()
	cache := &fakePresence{}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := NewAuthService(users, tokens, cache, zerolog.Nop())
	return svc, users, cache
}

func wantKind(t *testing.T, err error, kind apperr.Kind) *apperr.Error {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		t.Fatalf("error %v is not an *apperr.Error", err)
	}
	if appErr.Kind != kind {
		t.Fatalf("error kind = %s, want kind %s", appErr.Code(), apperr.New(kind).Code())
	}
	return appErr
}

func registerInput(username, email string) *models.CreateUserInput {
	return &models.CreateUserInput{
		Username: username,
		Email:    email,
		Password: "password123",
	}
}

func TestRegister(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	resp, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if resp.Token == "" {
		t.Error("no token issued at registration")
	}
	if resp.User.Username != "alice" {
		t.Errorf("username = %q, want alice", resp.User.Username)
	}
	if resp.User.Status != models.StatusOffline {
		t.Errorf("initial status = %q, want offline", resp.User.Status)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	longName := strings.Repeat("x", 101)
	tests := []struct {
		name  string
		in    *models.CreateUserInput
		field string
	}{
		{"username too short", registerInput("al", "alice@example.com"), "username"},
		{"username too long", registerInput(strings.Repeat("a", 51), "alice@example.com"), "username"},
		{"bad email", registerInput("alice", "not-an-email"), "email"},
		{"short password", &models.CreateUserInput{Username: "alice", Email: "alice@example.com", Password: "short"}, "password"},
		{"long display name", &models.CreateUserInput{Username: "alice", Email: "alice@example.com", Password: "password123", DisplayName: &longName}, "display_name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tt.in)
			appErr := wantKind(t, err, apperr.KindValidation)
			if _, ok := appErr.Details[tt.field]; !ok {
				t.Errorf("details %v do not mention field %q", appErr.Details, tt.field)
			}
		})
	}
}

func TestRegisterConflicts(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("alice", "alice@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err := svc.Register(ctx, registerInput("bob", "alice@example.com"))
	wantKind(t, err, apperr.KindEmailExists)

	_, err = svc.Register(ctx, registerInput("alice", "alice2@example.com"))
	wantKind(t, err, apperr.KindUsernameExists)
}

// Racing registrations for one email must produce exactly one account;
// every loser gets the email conflict, whether the pre-check or the
// store's unique constraint caught it.
func TestRegisterConcurrentDuplicates(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	const n = 8
	results := make(chan error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Register(ctx, registerInput(fmt.Sprintf("alice%d", i), "alice@example.com"))
			results <- err
		}(i)
	}
	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		if err == nil {
			successes++
			continue
		}
		var appErr *apperr.Error
		if !errors.As(err, &appErr) || appErr.Kind != apperr.KindEmailExists {
			t.Errorf("unexpected error: %v", err)
			continue
		}
		conflicts++
	}
	if successes != 1 {
		t.Errorf("successes = %d, want exactly 1", successes)
	}
	if conflicts != n-1 {
		t.Errorf("email conflicts = %d, want %d", conflicts, n-1)
	}
}

func TestLogin(t *testing.T) {
	svc, _, cache := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	resp, err := svc.Login(ctx, &models.LoginInput{Email: "alice@example.com", Password: "password123"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if resp.Token == "" {
		t.Error("no token issued at login")
	}
	if resp.User.Status != models.StatusOnline {
		t.Errorf("status after login = %q, want online", resp.User.Status)
	}
	if got := cache.calls[reg.User.ID.String()]; got != models.StatusOnline {
		t.Errorf("cached presence = %q, want online", got)
	}
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("alice", "alice@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, errUnknown := svc.Login(ctx, &models.LoginInput{Email: "nobody@example.com", Password: "password123"})
	_, errWrongPw := svc.Login(ctx, &models.LoginInput{Email: "alice@example.com", Password: "wrong-password"})

	a := wantKind(t, errUnknown, apperr.KindInvalidCredentials)
	b := wantKind(t, errWrongPw, apperr.KindInvalidCredentials)
	if a.Message() != b.Message() {
		t.Errorf("unknown email and wrong password produce different messages: %q vs %q", a.Message(), b.Message())
	}
}

func TestLogout(t *testing.T) {
	svc, _, cache := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, &models.LoginInput{Email: "alice@example.com", Password: "password123"}); err != nil {
		t.Fatalf("Login: %v", err)
	}

	if err := svc.Logout(ctx, reg.User.ID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	me, err := svc.Me(ctx, reg.User.ID)
	if err != nil {
		t.Fatalf("Me: %v", err)
	}
	if me.Status != models.StatusOffline {
		t.Errorf("status after logout = %q, want offline", me.Status)
	}
	if got := cache.calls[reg.User.ID.String()]; got != models.StatusOffline {
		t.Errorf("cached presence = %q, want offline", got)
	}
}

func TestVerifyToken(t *testing.T) {
	svc, users, _ := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	user, err := svc.VerifyToken(ctx, reg.Token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if user.ID != reg.User.ID {
		t.Errorf("verified user = %s, want %s", user.ID, reg.User.ID)
	}

	_, err = svc.VerifyToken(ctx, "not-a-token")
	wantKind(t, err, apperr.KindInvalidToken)

	// A valid signature no longer grants access once the account is gone.
	users.Deactivate(reg.User.ID)
	_, err = svc.VerifyToken(ctx, reg.Token)
	wantKind(t, err, apperr.KindUserNotFound)
}

func TestVerifyTokenExpired(t *testing.T) {
	users := storetest.NewUsers()
	tokens := auth.NewTokenService("test-secret", -time.Minute)
	svc := NewAuthService(users, tokens, nil, zerolog.Nop())
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	_, err = svc.VerifyToken(ctx, reg.Token)
	wantKind(t, err, apperr.KindTokenExpired)
}

func TestUpdateProfile(t *testing.T) {
	svc, _, _ := newAuthService(t)
	ctx := context.Background()

	reg, err := svc.Register(ctx, registerInput("alice", "alice@example.com"))
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Register(ctx, registerInput("bob", "bob@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}

	display := "Alice A."
	updated, err := svc.UpdateProfile(ctx, reg.User.ID, models.UserPatch{DisplayName: &display})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.DisplayName == nil || *updated.DisplayName != display {
		t.Errorf("display name = %v, want %q", updated.DisplayName, display)
	}

	taken := "bob"
	_, err = svc.UpdateProfile(ctx, reg.User.ID, models.UserPatch{Username: &taken})
	wantKind(t, err, apperr.KindUsernameExists)

	bad := "invisible"
	_, err = svc.UpdateProfile(ctx, reg.User.ID, models.UserPatch{Status: &bad})
	wantKind(t, err, apperr.KindValidation)
}

func TestPresenceCacheFailureDoesNotFailLogin(t *testing.T) {
	users := storetest.NewUsers()
	cache := &fakePresence{err: errors.New("redis down")}
	tokens := auth.NewTokenService("test-secret", time.Hour)
	svc := NewAuthService(users, tokens, cache, zerolog.Nop())
	ctx := context.Background()

	if _, err := svc.Register(ctx, registerInput("alice", "alice@example.com")); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.Login(ctx, &models.LoginInput{Email: "alice@example.com", Password: "password123"}); err != nil {
		t.Errorf("Login failed on a cache error: %v", err)
	}
}
