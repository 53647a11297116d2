package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"agegate/internal/account/metrics"
	"agegate/internal/account/models"
	"agegate/internal/account/service"
	"agegate/internal/agepolicy"
	id "agegate/pkg/domain"
	dErrors "agegate/pkg/domain-errors"
	"agegate/pkg/platform/audit"
	"agegate/pkg/platform/httputil"
	"agegate/pkg/requestcontext"
)

// AccountService defines the interface for account operations.
type AccountService interface {
	Register(ctx context.Context, req service.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, username, password string) (*service.LoginResult, error)
	GetUser(ctx context.Context, userID id.UserID) (*models.User, error)
}

// Handler wires the account endpoints to the account service and the age
// policy enforcer.
type Handler struct {
	service  AccountService
	enforcer *agepolicy.Enforcer
	logger   *slog.Logger
	metrics  *metrics.Metrics
	audit    *audit.Recorder
}

// New constructs an account handler with its dependencies. The metrics and
// audit recorder may be nil.
func New(service AccountService, enforcer *agepolicy.Enforcer, logger *slog.Logger, metrics *metrics.Metrics, recorder *audit.Recorder) *Handler {
	return &Handler{
		service:  service,
		enforcer: enforcer,
		logger:   logger,
		metrics:  metrics,
		audit:    recorder,
	}
}

// Register mounts account endpoints on the router. The auth middleware guards
// GET /access and populates the user ID in the request context.
func (h *Handler) Register(r chi.Router, auth func(http.Handler) http.Handler) {
	r.Post("/register", h.HandleRegister)
	r.Post("/login", h.HandleLogin)
	r.With(auth).Get("/access", h.HandleAccess)
}

// HandleRegister handles POST /register requests.
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	var req RegisterRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.WarnContext(ctx, "registration rejected",
			"request_id", requestID,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	user, err := h.service.Register(ctx, service.RegisterRequest{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		BirthDate: req.ParsedBirthDate(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "registration failed",
			"request_id", requestID,
			"username", req.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "user registered",
		"request_id", requestID,
		"user_id", user.ID,
	)
	httputil.WriteJSON(w, http.StatusOK, FromUser(user))
}

// HandleLogin handles POST /login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	var req LoginRequest
	if err := httputil.DecodeJSON(r, &req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.service.Login(ctx, req.Username, req.Password)
	if err != nil {
		// The username is logged but never echoed back in the response.
		h.logger.WarnContext(ctx, "login failed",
			"request_id", requestID,
			"username", req.Username,
			"error", err,
		)
		httputil.WriteError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "login succeeded",
		"request_id", requestID,
		"user_id", result.User.ID,
		"duration_ms", time.Since(start).Milliseconds(),
	)
	httputil.WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken: result.Token,
		TokenType:   "bearer",
		ExpiresIn:   result.ExpiresIn,
	})
}

// HandleAccess handles GET /access requests. The decision is made on the
// request-scoped clock so a token that is valid at the middleware stays
// consistent with the age computed here.
func (h *Handler) HandleAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	now := requestcontext.Now(ctx)

	subject, err := h.subjectFromContext(ctx)
	if err != nil {
		h.denyAccess(ctx, w, requestID, string(agepolicy.DenialUnauthenticated), err)
		return
	}

	decision := h.enforcer.Authorize(subject, now)
	if !decision.Granted() {
		h.denyAccess(ctx, w, requestID, string(decision.Reason()), decision.Err())
		return
	}

	h.logger.InfoContext(ctx, "access granted",
		"request_id", requestID,
		"user_id", requestcontext.UserID(ctx),
	)
	h.audit.Record(ctx, audit.Event{
		UserID: requestcontext.UserID(ctx),
		Action: audit.ActionAccessGranted,
	})
	if h.metrics != nil {
		h.metrics.AccessGranted.Inc()
	}
	httputil.WriteJSON(w, http.StatusOK, AccessResponse{
		Access:     "granted",
		MinimumAge: h.enforcer.Requirement().MinimumAge,
	})
}

// subjectFromContext resolves the authenticated user into a policy subject.
// A missing or unknown user yields a nil subject and an unauthorized error.
func (h *Handler) subjectFromContext(ctx context.Context) (*agepolicy.Subject, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return nil, agepolicy.ErrUnauthenticated
	}

	user, err := h.service.GetUser(ctx, userID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeUnauthorized) {
			return nil, agepolicy.ErrUnauthenticated
		}
		return nil, err
	}
	return &agepolicy.Subject{BirthDate: user.BirthDate}, nil
}

func (h *Handler) denyAccess(ctx context.Context, w http.ResponseWriter, requestID, reason string, err error) {
	h.logger.WarnContext(ctx, "access denied",
		"request_id", requestID,
		"reason", reason,
	)
	h.audit.Record(ctx, audit.Event{
		UserID: requestcontext.UserID(ctx),
		Action: audit.ActionAccessDenied,
		Reason: reason,
	})
	if h.metrics != nil {
		h.metrics.AccessDenied.WithLabelValues(reason).Inc()
	}
	httputil.WriteError(w, err)
}
