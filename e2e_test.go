package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/coursehub/campus-api/config"
	"github.com/coursehub/campus-api/internal/api/auth"
	apiRouter "github.com/coursehub/campus-api/internal/router"
)

// E2ETestSuite drives the full router with the in-memory identity store,
// covering the register → login → me flow end to end.
type E2ETestSuite struct {
	suite.Suite
	server    *httptest.Server
	client    *http.Client
	baseURL   string
	userEmail string
}

func (s *E2ETestSuite) SetupSuite() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))

	jwtCfg := config.JWTConfig{
		SecretKey:      "e2e-test-secret",
		Issuer:         "campus-api",
		Audience:       "campus-web",
		AccessTokenTTL: time.Hour,
	}

	repo := auth.NewInMemUserRepo()
	hasher := auth.NewHasher(config.AuthConfig{BcryptCost: bcrypt.MinCost})
	tokens := auth.NewTokenIssuer(jwtCfg)
	service := auth.NewAuthService(repo, hasher, tokens, logger)
	handler := auth.NewAuthHandler(service, logger)

	router := apiRouter.SetupRouter(&apiRouter.Config{
		AuthHandler:            handler,
		AuthenticateMiddleware: auth.Authenticate(logger, tokens),
	})

	s.server = httptest.NewServer(router)
	s.baseURL = s.server.URL
	s.client = &http.Client{Timeout: 30 * time.Second}
	s.userEmail = fmt.Sprintf("e2etest+%d@example.com", time.Now().Unix())
}

func (s *E2ETestSuite) TearDownSuite() {
	if s.server != nil {
		s.server.Close()
	}
}

func (s *E2ETestSuite) postJSON(path string, body map[string]string) (*http.Response, map[string]interface{}) {
	payload, err := json.Marshal(body)
	require.NoError(s.T(), err)

	resp, err := s.client.Post(s.baseURL+path, "application/json", bytes.NewReader(payload))
	require.NoError(s.T(), err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(s.T(), err)

	var decoded map[string]interface{}
	require.NoError(s.T(), json.Unmarshal(raw, &decoded))
	return resp, decoded
}

func (s *E2ETestSuite) TestFullAuthFlow() {
	// Register
	resp, body := s.postJSON("/api/v1/auth/register", map[string]string{
		"name":             "E2E Student",
		"email":            s.userEmail,
		"password":         "longenough1",
		"confirm_password": "longenough1",
		"role":             "student",
	})
	s.Equal(http.StatusCreated, resp.StatusCode)
	s.NotEmpty(body["access_token"])

	// Login
	resp, body = s.postJSON("/api/v1/auth/login", map[string]string{
		"email":    s.userEmail,
		"password": "longenough1",
	})
	s.Equal(http.StatusOK, resp.StatusCode)
	token, _ := body["access_token"].(string)
	s.NotEmpty(token)

	// Me
	req, err := http.NewRequest(http.MethodGet, s.baseURL+"/api/v1/auth/me", nil)
	s.Require().NoError(err)
	req.Header.Set("Authorization", "Bearer "+token)

	meResp, err := s.client.Do(req)
	s.Require().NoError(err)
	defer meResp.Body.Close()
	s.Equal(http.StatusOK, meResp.StatusCode)

	var me map[string]interface{}
	s.Require().NoError(json.NewDecoder(meResp.Body).Decode(&me))
	s.Equal(s.userEmail, me["email"])
	s.Equal("student", me["role"])
}

func (s *E2ETestSuite) TestAdminRegistrationRejected() {
	resp, _ := s.postJSON("/api/v1/auth/register", map[string]string{
		"name":             "Wannabe Admin",
		"email":            fmt.Sprintf("admin+%d@example.com", time.Now().UnixNano()),
		"password":         "longenough1",
		"confirm_password": "longenough1",
		"role":             "admin",
	})
	s.Equal(http.StatusForbidden, resp.StatusCode)
}

func (s *E2ETestSuite) TestHealthCheck() {
	resp, err := s.client.Get(s.baseURL + "/ping")
	s.Require().NoError(err)
	defer resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)
}

func TestE2ETestSuite(t *testing.T) {
	suite.Run(t, new(E2ETestSuite))
}
