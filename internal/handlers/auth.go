package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/veotube/backend/internal/auth"
	"github.com/veotube/backend/internal/logging"
	"github.com/veotube/backend/internal/metrics"
	"github.com/veotube/backend/internal/models"
	"github.com/veotube/backend/internal/navigation"
	"github.com/veotube/backend/internal/tasks"
)

// AuthHandler implements the mock sign-in endpoints. Sign-in completes after
// a simulated delay owned by the login modal; dismissing the modal first
// abandons it.
type AuthHandler struct {
	Identity   IdentityManager
	Navigation Navigator
	Delay      time.Duration
	NowFunc    func() time.Time
}

type loginRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type authResponse struct {
	User  models.User      `json:"user"`
	Frame navigation.Frame `json:"frame"`
}

// Login handles POST /api/v1/auth/login. Only Microsoft consumer mail
// domains are accepted.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := auth.NewEmailIdentity(req.Name, req.Email, h.now())
	if err != nil {
		metrics.Logins.WithLabelValues("email", "rejected").Inc()
		if errors.Is(err, auth.ErrEmailDomainNotAllowed) || errors.Is(err, auth.ErrInvalidEmail) {
			respondError(ctx, w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	h.signIn(w, r, "email", user)
}

// YouTube handles POST /api/v1/auth/youtube. It signs in the fixed creator
// identity without any checks.
func (h AuthHandler) YouTube(w http.ResponseWriter, r *http.Request) {
	h.signIn(w, r, "youtube", auth.NewYouTubeIdentity(h.now()))
}

func (h AuthHandler) signIn(w http.ResponseWriter, r *http.Request, method string, user models.User) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var frame navigation.Frame
	task := h.Navigation.Scope(navigation.ModalLogin).Go(ctx, h.Delay, func(ctx context.Context) (func(), error) {
		return func() {
			if err := h.Identity.Login(ctx, user); err != nil {
				logger.Warn("sign-in not persisted", "error", err)
			}
			frame = h.Navigation.LoggedIn(ctx)
		}, nil
	})

	if err := task.Wait(ctx); err != nil {
		if errors.Is(err, tasks.ErrCancelled) {
			metrics.Logins.WithLabelValues(method, "cancelled").Inc()
			respondError(ctx, w, http.StatusConflict, "sign-in was dismissed before it finished")
			return
		}
		metrics.Logins.WithLabelValues(method, "error").Inc()
		respondError(ctx, w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	metrics.Logins.WithLabelValues(method, "success").Inc()
	logger.Info("signed in", "method", method, "userId", user.ID)
	respondJSON(ctx, w, http.StatusOK, authResponse{User: user, Frame: frame})
}

// Logout handles POST /api/v1/auth/logout. A sign-in still waiting out its
// delay is cancelled first so it cannot land after the logout.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if scope := h.Navigation.Scope(navigation.ModalLogin); scope != nil {
		scope.Cancel(ctx)
	}
	h.Identity.Logout(ctx)
	respondJSON(ctx, w, http.StatusOK, map[string]any{"frame": h.Navigation.LoggedOut(ctx)})
}

// Me handles GET /api/v1/auth/me.
func (h AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := h.Identity.Current()
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "not signed in")
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

type profileRequest struct {
	Avatar string `json:"avatar"`
	Banner string `json:"banner"`
}

// UpdateProfile handles PATCH /api/v1/auth/me.
func (h AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.Identity.UpdateProfile(ctx, auth.ProfileUpdate{Avatar: req.Avatar, Banner: req.Banner})
	if err != nil {
		if errors.Is(err, auth.ErrNotSignedIn) {
			respondError(ctx, w, http.StatusUnauthorized, err.Error())
			return
		}
		respondError(ctx, w, http.StatusInternalServerError, "failed to update profile")
		return
	}
	respondJSON(ctx, w, http.StatusOK, user)
}

func (h AuthHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now()
}
