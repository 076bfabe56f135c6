package web

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ChutneyCheeseball/blabber/internal/common"
	"github.com/ChutneyCheeseball/blabber/internal/logging"
	"github.com/ChutneyCheeseball/blabber/internal/server/auth"
	"github.com/ChutneyCheeseball/blabber/internal/server/metrics"
	"github.com/ChutneyCheeseball/blabber/internal/server/models"
)

const testSecret = "test-secret"

// fakeIdentities implements users.Repository for guard tests.
type fakeIdentities struct {
	byID   map[string]*models.User
	getErr error
}

func (f *fakeIdentities) Create(ctx context.Context, u *models.User) (*models.User, error) {
	return u, nil
}

func (f *fakeIdentities) GetByID(ctx context.Context, id string) (*models.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, common.ErrorNotFound
}

func (f *fakeIdentities) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func (f *fakeIdentities) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return nil, common.ErrorNotFound
}

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func newTestServer(identities *fakeIdentities, us UserService, bs BlabService) *Server {
	return NewServer(":0", discardLogger(), us, bs, identities, testSecret, time.Second, metrics.New())
}

func signToken(t *testing.T, user *models.User, validity time.Duration) string {
	t.Helper()
	tok, err := auth.GenerateToken(user.ID, user.Username, user.Email, []byte(testSecret), validity)
	if err != nil {
		t.Fatalf("GenerateToken error: %v", err)
	}
	return tok
}

func guardedRequest(t *testing.T, s *Server, authorization string) (*httptest.ResponseRecorder, *bool, **models.User) {
	t.Helper()

	called := false
	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
		seen, _ = UserFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, "/blabs", nil)
	if authorization != "" {
		req.Header.Set(common.AuthorizationHeaderName, authorization)
	}
	rec := httptest.NewRecorder()
	s.guard(next).ServeHTTP(rec, req)
	return rec, &called, &seen
}

func TestGuard_MissingHeader(t *testing.T) {
	s := newTestServer(&fakeIdentities{}, nil, nil)

	rec, called, _ := guardedRequest(t, s, "")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatalf("handler must not run on rejected request")
	}
}

func TestGuard_MalformedHeader(t *testing.T) {
	s := newTestServer(&fakeIdentities{}, nil, nil)

	rec, called, _ := guardedRequest(t, s, "Basic abc123")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatalf("handler must not run on rejected request")
	}
}

func TestGuard_ForgedToken(t *testing.T) {
	s := newTestServer(&fakeIdentities{}, nil, nil)

	rec, called, _ := guardedRequest(t, s, "Bearer not.a.real.token")
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatalf("handler must not run on rejected request")
	}
}

func TestGuard_ExpiredToken(t *testing.T) {
	user := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}
	s := newTestServer(&fakeIdentities{byID: map[string]*models.User{"u-1": user}}, nil, nil)

	tok := signToken(t, user, -time.Minute)
	rec, called, _ := guardedRequest(t, s, "Bearer "+tok)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if *called {
		t.Fatalf("handler must not run on rejected request")
	}
}

// A validly signed token whose subject has since been deleted must be
// rejected, and the rejection must short-circuit: the wrapped handler may
// not execute. (One observed variant of this service replied "Unknown
// user" but let the handler run anyway.)
func TestGuard_UnknownUserDoesNotInvokeHandler(t *testing.T) {
	deleted := &models.User{ID: "u-gone", Username: "ghost", Email: "ghost@example.com"}
	s := newTestServer(&fakeIdentities{byID: map[string]*models.User{}}, nil, nil)

	tok := signToken(t, deleted, time.Hour)
	rec, called, _ := guardedRequest(t, s, "Bearer "+tok)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
	if body := rec.Body.String(); !strings.Contains(body, "Unknown user") {
		t.Fatalf("expected unknown-user message, got %s", body)
	}
	if *called {
		t.Fatalf("handler must not run when the token subject no longer exists")
	}
}

func TestGuard_StoreErrorIsServerFailure(t *testing.T) {
	user := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}
	s := newTestServer(&fakeIdentities{getErr: errors.New("db down")}, nil, nil)

	tok := signToken(t, user, time.Hour)
	rec, called, _ := guardedRequest(t, s, "Bearer "+tok)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if *called {
		t.Fatalf("handler must not run when the identity lookup fails")
	}
}

func TestGuard_AttachesStoreIdentity(t *testing.T) {
	// The store row is authoritative, not the claims: the attached user
	// carries whatever the store returned for the subject id.
	stored := &models.User{ID: "u-1", Username: "alice", Email: "alice@example.com"}
	s := newTestServer(&fakeIdentities{byID: map[string]*models.User{"u-1": stored}}, nil, nil)

	tok := signToken(t, stored, time.Hour)
	rec, called, seen := guardedRequest(t, s, "Bearer "+tok)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !*called {
		t.Fatalf("handler must run for a verified request")
	}
	if *seen == nil || (*seen).ID != "u-1" || (*seen).Username != "alice" {
		t.Fatalf("expected verified identity in context, got %+v", *seen)
	}
}
