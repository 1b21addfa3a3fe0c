package auth

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testStack wires the real service onto the in-memory store so handler
// tests exercise the whole pipeline end to end.
type testStack struct {
	router chi.Router
	repo   *InMemUserRepo
	tokens *TokenIssuer
}

func newTestStack() *testStack {
	logger := slog.Default()
	repo := NewInMemUserRepo()
	tokens := NewTokenIssuer(testJWTConfig())
	service := NewAuthService(repo, testHasher(), tokens, logger)
	handler := NewAuthHandler(service, logger)

	r := chi.NewRouter()
	r.Post("/auth/register", handler.Register)
	r.Post("/auth/login", handler.Login)
	r.Group(func(r chi.Router) {
		r.Use(Authenticate(logger, tokens))
		r.Get("/auth/me", handler.Me)
	})

	return &testStack{router: r, repo: repo, tokens: tokens}
}

func (s *testStack) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func registerPayload() map[string]string {
	return map[string]string{
		"name":             "Ann",
		"email":            "ann@x.com",
		"password":         "longenough1",
		"confirm_password": "longenough1",
		"role":             "student",
	}
}

func TestRegisterHandler(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		stack := newTestStack()

		w := stack.do(t, http.MethodPost, "/auth/register", registerPayload(), nil)
		require.Equal(t, http.StatusCreated, w.Code)

		var resp AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "student", resp.User.Role)
		assert.Equal(t, "ann@x.com", resp.User.Email)
		require.NotEmpty(t, resp.AccessToken)

		claims, err := stack.tokens.Verify(resp.AccessToken)
		require.NoError(t, err)
		subject, err := claims.UserID()
		require.NoError(t, err)
		assert.Equal(t, resp.User.ID, subject)
	})

	t.Run("ShortPasswordNamesTheRule", func(t *testing.T) {
		stack := newTestStack()

		payload := registerPayload()
		payload["password"] = "short"
		payload["confirm_password"] = "short"

		w := stack.do(t, http.MethodPost, "/auth/register", payload, nil)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp struct {
			Errors []struct {
				Field   string `json:"field"`
				Message string `json:"message"`
			} `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Errors, 1)
		assert.Equal(t, "password", resp.Errors[0].Field)
		assert.Contains(t, resp.Errors[0].Message, "at least 8 characters")
	})

	t.Run("AdminRoleForbidden", func(t *testing.T) {
		stack := newTestStack()

		payload := registerPayload()
		payload["role"] = "admin"

		w := stack.do(t, http.MethodPost, "/auth/register", payload, nil)
		require.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "Ask an existing admin")
		assert.Equal(t, 0, stack.repo.Count())
	})

	t.Run("DuplicateEmailConflict", func(t *testing.T) {
		stack := newTestStack()

		first := stack.do(t, http.MethodPost, "/auth/register", registerPayload(), nil)
		require.Equal(t, http.StatusCreated, first.Code)

		payload := registerPayload()
		payload["name"] = "Another Ann"
		second := stack.do(t, http.MethodPost, "/auth/register", payload, nil)

		assert.Equal(t, http.StatusConflict, second.Code)
		assert.Equal(t, 1, stack.repo.Count(), "conflict must not create a new identity")
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		stack := newTestStack()

		req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewBufferString(`{"email":`))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		stack.router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestLoginHandler(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		stack := newTestStack()
		stack.do(t, http.MethodPost, "/auth/register", registerPayload(), nil)

		w := stack.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ann@x.com",
			"password": "longenough1",
		}, nil)

		require.Equal(t, http.StatusOK, w.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, "Login successful.", resp.Message)
		assert.NotEmpty(t, resp.AccessToken)
	})

	t.Run("BadCredentialsDoNotRevealWhichFieldIsWrong", func(t *testing.T) {
		stack := newTestStack()
		stack.do(t, http.MethodPost, "/auth/register", registerPayload(), nil)

		wrongPassword := stack.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "ann@x.com",
			"password": "wrong",
		}, nil)
		unknownEmail := stack.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "nobody@x.com",
			"password": "wrong",
		}, nil)

		assert.Equal(t, http.StatusUnauthorized, wrongPassword.Code)
		assert.Equal(t, http.StatusUnauthorized, unknownEmail.Code)
		assert.Equal(t, wrongPassword.Body.String(), unknownEmail.Body.String())
		assert.NotContains(t, wrongPassword.Body.String(), "exist")
	})

	t.Run("ValidationFailure", func(t *testing.T) {
		stack := newTestStack()

		w := stack.do(t, http.MethodPost, "/auth/login", map[string]string{
			"email":    "nope",
			"password": "",
		}, nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestMeHandler(t *testing.T) {
	register := func(t *testing.T, stack *testStack) AuthResponse {
		t.Helper()
		w := stack.do(t, http.MethodPost, "/auth/register", registerPayload(), nil)
		require.Equal(t, http.StatusCreated, w.Code)
		var resp AuthResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return resp
	}

	t.Run("Success", func(t *testing.T) {
		stack := newTestStack()
		created := register(t, stack)

		w := stack.do(t, http.MethodGet, "/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + created.AccessToken,
		})

		require.Equal(t, http.StatusOK, w.Code)
		var user UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &user))
		assert.Equal(t, created.User.ID, user.ID)
		assert.Equal(t, "student", user.Role)
	})

	t.Run("IdentityVanished", func(t *testing.T) {
		stack := newTestStack()
		created := register(t, stack)
		stack.repo.Delete(created.User.ID)

		w := stack.do(t, http.MethodGet, "/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + created.AccessToken,
		})

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("ExpiredToken", func(t *testing.T) {
		stack := newTestStack()
		register(t, stack)

		expired := signAt(t, testJWTConfig(), testUser(), time.Now().Add(-2*time.Hour))
		w := stack.do(t, http.MethodGet, "/auth/me", nil, map[string]string{
			"Authorization": "Bearer " + expired,
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MissingHeader", func(t *testing.T) {
		stack := newTestStack()

		w := stack.do(t, http.MethodGet, "/auth/me", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("MangledHeader", func(t *testing.T) {
		stack := newTestStack()

		w := stack.do(t, http.MethodGet, "/auth/me", nil, map[string]string{
			"Authorization": "Token abc",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
