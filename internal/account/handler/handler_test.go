package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"agegate/internal/account/lockout"
	"agegate/internal/account/service"
	userstore "agegate/internal/account/store/user"
	"agegate/internal/agepolicy"
	"agegate/internal/platform/middleware"
	"agegate/internal/token"
	"agegate/pkg/requestcontext"
)

var handlerNow = time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

// AccountHandlerSuite drives the HTTP surface against the real in-memory
// stack so request, middleware, service, and policy behavior are covered
// together.
type AccountHandlerSuite struct {
	suite.Suite
	router chi.Router
	now    time.Time
}

func TestAccountHandlerSuite(t *testing.T) {
	suite.Run(t, new(AccountHandlerSuite))
}

func (s *AccountHandlerSuite) SetupTest() {
	s.now = handlerNow

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := token.NewService("handler-test-key", 10*time.Minute)

	lockouts, err := lockout.New(lockout.NewInMemoryStore())
	s.Require().NoError(err)

	accounts := service.New(userstore.New(), tokens,
		service.WithLogger(logger),
		service.WithLockout(lockouts),
	)

	requirement, err := agepolicy.NewRequirement(18)
	s.Require().NoError(err)

	h := New(accounts, agepolicy.NewEnforcer(requirement), logger, nil, nil)

	s.router = chi.NewRouter()
	// Pin the request clock so expiry and age boundaries are deterministic.
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(requestcontext.WithTime(r.Context(), s.now)))
		})
	})
	s.router.Use(middleware.RequestID)
	h.Register(s.router, middleware.RequireAuth(tokens, logger))
}

func (s *AccountHandlerSuite) do(method, path string, body any, header http.Header) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	for key, values := range header {
		req.Header[key] = values
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *AccountHandlerSuite) registerBody(username, birthDate string) map[string]string {
	return map[string]string{
		"username":         username,
		"email":            username + "@example.com",
		"password":         "Sup3r-Secret!",
		"confirm_password": "Sup3r-Secret!",
		"birth_date":       birthDate,
	}
}

func (s *AccountHandlerSuite) register(username, birthDate string) {
	w := s.do(http.MethodPost, "/register", s.registerBody(username, birthDate), nil)
	s.Require().Equal(http.StatusOK, w.Code)
}

func (s *AccountHandlerSuite) login(username, password string) string {
	w := s.do(http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	}, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("bearer", resp["token_type"])
	return resp["access_token"].(string)
}

func bearer(token string) http.Header {
	return http.Header{"Authorization": []string{"Bearer " + token}}
}

func (s *AccountHandlerSuite) TestRegisterLoginAccessFlow() {
	s.register("alice", "2000-01-01")

	tokenString := s.login("alice", "Sup3r-Secret!")

	w := s.do(http.MethodGet, "/access", nil, bearer(tokenString))
	s.Require().Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("granted", resp["access"])
	s.Equal(float64(18), resp["minimum_age"])
}

func (s *AccountHandlerSuite) TestRegisterResponseOmitsSecrets() {
	w := s.do(http.MethodPost, "/register", s.registerBody("bob", "1990-06-01"), nil)
	s.Require().Equal(http.StatusOK, w.Code)

	var resp map[string]any
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("bob", resp["username"])
	s.Equal("1990-06-01", resp["birth_date"])
	s.NotEmpty(resp["id"])
	s.NotContains(w.Body.String(), "password")
}

func (s *AccountHandlerSuite) TestRegisterValidation() {
	cases := []struct {
		name   string
		mutate func(map[string]string)
	}{
		{"missing username", func(m map[string]string) { m["username"] = "" }},
		{"bad email", func(m map[string]string) { m["email"] = "not-an-email" }},
		{"short password", func(m map[string]string) { m["password"] = "Ab1!"; m["confirm_password"] = "Ab1!" }},
		{"weak password", func(m map[string]string) { m["password"] = "alllowercase"; m["confirm_password"] = "alllowercase" }},
		{"mismatched confirmation", func(m map[string]string) { m["confirm_password"] = "Different1!" }},
		{"malformed birth date", func(m map[string]string) { m["birth_date"] = "01/02/2000" }},
		{"future birth date", func(m map[string]string) { m["birth_date"] = "2030-01-01" }},
	}

	for _, tc := range cases {
		s.Run(tc.name, func() {
			body := s.registerBody("carol", "2000-01-01")
			tc.mutate(body)
			w := s.do(http.MethodPost, "/register", body, nil)
			s.Equal(http.StatusBadRequest, w.Code)
		})
	}
}

func (s *AccountHandlerSuite) TestRegisterDuplicateIsGeneric() {
	s.register("dave", "2000-01-01")

	w := s.do(http.MethodPost, "/register", s.registerBody("dave", "1999-05-05"), nil)
	s.Require().Equal(http.StatusBadRequest, w.Code)

	var resp map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("bad_request", resp["error"])
	s.Equal("registration failed", resp["error_description"])
}

func (s *AccountHandlerSuite) TestLoginFailuresAreUniform() {
	s.register("eve", "2000-01-01")

	ghost := s.do(http.MethodPost, "/login", map[string]string{
		"username": "ghost", "password": "whatever123",
	}, nil)
	wrongPassword := s.do(http.MethodPost, "/login", map[string]string{
		"username": "eve", "password": "wrong password",
	}, nil)

	s.Equal(http.StatusUnauthorized, ghost.Code)
	s.Equal(http.StatusUnauthorized, wrongPassword.Code)
	s.JSONEq(ghost.Body.String(), wrongPassword.Body.String())
}

func (s *AccountHandlerSuite) TestLoginLockout() {
	s.register("frank", "2000-01-01")

	for i := 0; i < 5; i++ {
		w := s.do(http.MethodPost, "/login", map[string]string{
			"username": "frank", "password": fmt.Sprintf("wrong-%d", i),
		}, nil)
		if i < 4 {
			s.Equal(http.StatusUnauthorized, w.Code)
		} else {
			s.Equal(http.StatusForbidden, w.Code)
		}
	}

	// Correct credentials are still refused while the lock holds.
	w := s.do(http.MethodPost, "/login", map[string]string{
		"username": "frank", "password": "Sup3r-Secret!",
	}, nil)
	s.Equal(http.StatusForbidden, w.Code)
}

func (s *AccountHandlerSuite) TestAccessUnderage() {
	// Eighteen years old one day from now.
	s.register("kid", "2006-03-16")
	tokenString := s.login("kid", "Sup3r-Secret!")

	w := s.do(http.MethodGet, "/access", nil, bearer(tokenString))
	s.Require().Equal(http.StatusForbidden, w.Code)

	var resp map[string]string
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	s.Equal("forbidden", resp["error"])
}

func (s *AccountHandlerSuite) TestAccessBirthdayBoundary() {
	// Turns eighteen exactly today, so access is granted.
	s.register("birthday", "2006-03-15")
	tokenString := s.login("birthday", "Sup3r-Secret!")

	w := s.do(http.MethodGet, "/access", nil, bearer(tokenString))
	s.Equal(http.StatusOK, w.Code)
}

func (s *AccountHandlerSuite) TestAccessWithoutToken() {
	w := s.do(http.MethodGet, "/access", nil, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountHandlerSuite) TestAccessWithTamperedToken() {
	s.register("grace", "2000-01-01")
	tokenString := s.login("grace", "Sup3r-Secret!")

	tampered := []byte(tokenString)
	last := len(tampered) - 1
	if tampered[last] == 'A' {
		tampered[last] = 'B'
	} else {
		tampered[last] = 'A'
	}

	w := s.do(http.MethodGet, "/access", nil, bearer(string(tampered)))
	s.Equal(http.StatusUnauthorized, w.Code)
}

func (s *AccountHandlerSuite) TestAccessWithExpiredToken() {
	s.register("henry", "2000-01-01")
	tokenString := s.login("henry", "Sup3r-Secret!")

	// Advance the request clock to exactly the expiry instant. The token
	// lifetime is inclusive of issuance and exclusive of expiry.
	s.now = handlerNow.Add(10 * time.Minute)
	w := s.do(http.MethodGet, "/access", nil, bearer(tokenString))
	s.Equal(http.StatusUnauthorized, w.Code)

	s.now = handlerNow.Add(10*time.Minute - time.Second)
	w = s.do(http.MethodGet, "/access", nil, bearer(tokenString))
	s.Equal(http.StatusOK, w.Code)
}

func (s *AccountHandlerSuite) TestRequestIDEchoed() {
	w := s.do(http.MethodGet, "/access", nil, http.Header{
		"X-Request-Id": []string{"req-123"},
	})
	s.Equal("req-123", w.Header().Get("X-Request-ID"))
}
