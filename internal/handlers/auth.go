package handlers

import (
	"errors"
	"net/http"
	"net/url"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/motormate/internal/auth"
	"github.com/ukydev/motormate/internal/db"
	"github.com/ukydev/motormate/internal/models"
	"github.com/ukydev/motormate/internal/validation"
)

const (
	stateCookie    = "oauth_state"
	stateCookieAge = 600
)

// AuthHandler handles Google sign-in and the current user's profile.
type AuthHandler struct {
	Responder
	authService    *auth.Service
	provider       auth.IdentityProvider
	userCollection db.UserCollection
	frontendURL    string
	secureCookies  bool
}

// NewAuthHandler creates a new authentication handler. A nil provider
// disables sign-in.
func NewAuthHandler(rs Responder, authService *auth.Service, provider auth.IdentityProvider, userCollection db.UserCollection, frontendURL string, secureCookies bool) *AuthHandler {
	return &AuthHandler{
		Responder:      rs,
		authService:    authService,
		provider:       provider,
		userCollection: userCollection,
		frontendURL:    frontendURL,
		secureCookies:  secureCookies,
	}
}

// GoogleLogin redirects to Google's consent page.
func (h *AuthHandler) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.Fail(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}
	state, err := h.authService.GenerateState()
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.setStateCookie(w, state, stateCookieAge)
	http.Redirect(w, r, h.provider.AuthCodeURL(state), http.StatusTemporaryRedirect)
}

// GoogleCallback completes sign-in and issues a token.
func (h *AuthHandler) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	if h.provider == nil {
		h.Fail(w, http.StatusServiceUnavailable, "Google sign-in is not configured")
		return
	}

	q := r.URL.Query()
	cookie, err := r.Cookie(stateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		log.WithError(auth.ErrStateMismatch).Warn("Rejected Google callback")
		h.Fail(w, http.StatusBadRequest, "Invalid sign-in state")
		return
	}
	h.setStateCookie(w, "", -1)

	code := q.Get("code")
	if code == "" {
		h.Fail(w, http.StatusBadRequest, "Missing authorization code")
		return
	}

	profile, err := h.provider.Exchange(r.Context(), code)
	if err != nil {
		log.WithError(err).Warn("Google code exchange failed")
		h.Fail(w, http.StatusUnauthorized, "Google sign-in failed")
		return
	}

	user, err := h.userCollection.UpsertGoogleUser(r.Context(), *profile)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if !user.IsActive {
		log.WithError(auth.ErrUserInactive).WithField("user_id", user.ID.Hex()).Warn("Sign-in refused")
		h.Fail(w, http.StatusForbidden, "Account is deactivated")
		return
	}

	token, err := h.authService.GenerateToken(user)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	log.WithField("user_id", user.ID.Hex()).Info("User signed in")
	if h.frontendURL != "" {
		target, err := url.Parse(h.frontendURL)
		if err != nil {
			h.Error(w, r, err)
			return
		}
		values := target.Query()
		values.Set("token", token)
		target.RawQuery = values.Encode()
		http.Redirect(w, r, target.String(), http.StatusTemporaryRedirect)
		return
	}
	h.Success(w, http.StatusOK, models.LoginResponse{Token: token, User: *user})
}

// GetProfile returns the current user's profile
func (h *AuthHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}
	h.Success(w, http.StatusOK, user)
}

// UpdateProfile changes the current user's name, phone or address.
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := h.loadUser(w, r)
	if !ok {
		return
	}

	var req models.ProfileUpdateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.Error(w, r, err)
		return
	}
	if err := validation.Struct(&req); err != nil {
		h.Error(w, r, err)
		return
	}

	req.ApplyTo(user)
	if err := h.userCollection.UpdateProfile(r.Context(), user); err != nil {
		h.Error(w, r, err)
		return
	}
	h.Success(w, http.StatusOK, user)
}

func (h *AuthHandler) loadUser(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	userID, ok := currentUser(r)
	if !ok {
		h.Fail(w, http.StatusUnauthorized, "User context not found")
		return nil, false
	}
	user, err := h.userCollection.FindUserByID(r.Context(), userID.Hex())
	if errors.Is(err, db.ErrNotFound) {
		// Deactivated since the token was issued.
		h.Fail(w, http.StatusUnauthorized, "User not found")
		return nil, false
	}
	if err != nil {
		h.Error(w, r, err)
		return nil, false
	}
	return user, true
}

func (h *AuthHandler) setStateCookie(w http.ResponseWriter, value string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     stateCookie,
		Value:    value,
		Path:     "/api/auth",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}
