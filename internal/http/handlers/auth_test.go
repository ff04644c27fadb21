package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/reelops/reelops-api/internal/domain/user"
	"github.com/reelops/reelops-api/internal/http/handlers"
	"github.com/reelops/reelops-api/internal/security"
)

type authResponse struct {
	Message string    `json:"message"`
	Token   string    `json:"token"`
	User    user.User `json:"user"`
}

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		createErr  error
		wantStatus int
		wantRole   user.Role
		wantResult string
	}{
		{name: "default role", body: `{"name":"Ann","email":"ann@r.test","password":"secret1"}`, wantStatus: http.StatusCreated, wantRole: user.RoleProducer, wantResult: "register:success"},
		{name: "explicit crew", body: `{"name":"Ann","email":"ann@r.test","password":"secret1","role":"crew"}`, wantStatus: http.StatusCreated, wantRole: user.RoleCrew, wantResult: "register:success"},
		{name: "unknown role", body: `{"name":"Ann","email":"ann@r.test","password":"secret1","role":"root"}`, wantStatus: http.StatusBadRequest, wantResult: "register:invalid"},
		{name: "short password", body: `{"name":"Ann","email":"ann@r.test","password":"123"}`, wantStatus: http.StatusBadRequest, wantResult: "register:invalid"},
		{name: "taken", body: `{"name":"Ann","email":"ann@r.test","password":"secret1"}`, createErr: user.ErrEmailTaken, wantStatus: http.StatusConflict, wantResult: "register:conflict"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stored user.NewUser
			repo := &fakeUsersRepo{
				createFn: func(ctx context.Context, nu user.NewUser) (user.User, error) {
					stored = nu
					if tt.createErr != nil {
						return user.User{}, tt.createErr
					}
					return user.User{ID: 3, Name: nu.Name, Email: nu.Email, Role: nu.Role, PasswordHash: nu.PasswordHash}, nil
				},
			}
			obs := &recordingObserver{}

			h := handlers.NewAuthHandler(repo, fakeIssuer{token: "tok"}, obs)
			r := setupRouter(http.MethodPost, "/auth/register", nil, h.Register)

			w := serve(r, http.MethodPost, "/auth/register", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if len(obs.results) == 0 || obs.results[len(obs.results)-1] != tt.wantResult {
				t.Fatalf("observed %v, want %s", obs.results, tt.wantResult)
			}
			if tt.wantStatus != http.StatusCreated {
				return
			}

			var resp authResponse
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Token != "tok" || resp.User.Role != tt.wantRole {
				t.Fatalf("unexpected response: %+v", resp)
			}
			if stored.PasswordHash == "secret1" || security.CheckPassword(stored.PasswordHash, "secret1") != nil {
				t.Fatalf("password not stored as verifier")
			}
			if resp.User.PasswordHash != "" {
				t.Fatalf("verifier leaked in response")
			}
		})
	}
}

func TestLoginHandler(t *testing.T) {
	hash, err := security.HashPassword("secret1")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}

	repo := &fakeUsersRepo{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			switch email {
			case "ann@r.test":
				return user.User{ID: 3, Email: email, Role: user.RoleCrew, PasswordHash: hash}, nil
			case "down@r.test":
				return user.User{}, errors.New("pool closed")
			}
			return user.User{}, user.ErrNotFound
		},
	}

	tests := []struct {
		name       string
		body       string
		issuerErr  error
		wantStatus int
	}{
		{name: "ok", body: `{"email":"ann@r.test","password":"secret1"}`, wantStatus: http.StatusOK},
		{name: "wrong password", body: `{"email":"ann@r.test","password":"nope"}`, wantStatus: http.StatusUnauthorized},
		{name: "unknown email", body: `{"email":"bob@r.test","password":"secret1"}`, wantStatus: http.StatusUnauthorized},
		{name: "store down", body: `{"email":"down@r.test","password":"secret1"}`, wantStatus: http.StatusInternalServerError},
		{name: "signing fails", body: `{"email":"ann@r.test","password":"secret1"}`, issuerErr: errors.New("boom"), wantStatus: http.StatusInternalServerError},
		{name: "missing password", body: `{"email":"ann@r.test"}`, wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := handlers.NewAuthHandler(repo, fakeIssuer{token: "tok", err: tt.issuerErr}, nil)
			r := setupRouter(http.MethodPost, "/auth/login", nil, h.Login)

			w := serve(r, http.MethodPost, "/auth/login", tt.body)

			if w.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d, body=%s", w.Code, tt.wantStatus, w.Body.String())
			}
			if w.Code == http.StatusUnauthorized {
				if env := decodeError(t, w); env.Error.Code != "invalid_credentials" {
					t.Fatalf("code = %q", env.Error.Code)
				}
			}
		})
	}
}

func TestMeHandler(t *testing.T) {
	repo := &fakeUsersRepo{
		getByIDFn: func(ctx context.Context, id int64) (user.User, error) {
			return user.User{ID: id, Name: "Pat", Role: user.RoleProducer}, nil
		},
	}

	h := handlers.NewAuthHandler(repo, fakeIssuer{}, nil)
	r := setupRouter(http.MethodGet, "/auth/me", &producerID, h.Me)

	w := serve(r, http.MethodGet, "/auth/me", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body=%s", w.Code, w.Body.String())
	}

	var u user.User
	if err := json.Unmarshal(w.Body.Bytes(), &u); err != nil || u.ID != producerID.UserID {
		t.Fatalf("unexpected body %s (%v)", w.Body.String(), err)
	}
}
