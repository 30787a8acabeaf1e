package auth

import (
	"net/http"

	"github.com/lethanhdatit/bocmenh/internal/api"
	"github.com/lethanhdatit/bocmenh/internal/session"
)

// Field length bounds.
const (
	minPasswordLen = 6
	maxPasswordLen = 128
	minNameLen     = 2
	maxNameLen     = 100
)

// Handler handles auth API requests. Handlers are thin: bind, validate,
// call the service, keep the session in sync.
type Handler struct {
	service AuthService
}

// NewHandler creates a new auth handler backed by the given service.
func NewHandler(service AuthService) *Handler {
	return &Handler{service: service}
}

// meResponse is the body of GET /api/auth/me and of login/register.
type meResponse struct {
	IsLoggedIn bool  `json:"isLoggedIn"`
	User       *User `json:"user,omitempty"`
}

func sessionUser(s *session.Session) *User {
	return &User{ID: s.ID, Email: s.Email, Name: s.Name, Avatar: s.Avatar, IsPremium: s.IsPremium}
}

// Login authenticates and starts a session (POST /api/auth/login).
func (h *Handler) Login(r *api.Request) *api.Response {
	var req LoginRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("email", req.Email) {
		v.Email("email", req.Email)
	}
	v.Required("password", req.Password)
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	acct, err := h.service.Login(r.Context(), r.Backend(), LoginInput{Email: req.Email, Password: req.Password})
	if err != nil {
		return api.HandleServerError(r, err)
	}
	if err := h.startSession(r, acct); err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("auth.loginSuccess", meResponse{IsLoggedIn: true, User: &acct.User})
}

// Register creates an account (POST /api/auth/register). When the backend
// returns a token the user is logged in straight away.
func (h *Handler) Register(r *api.Request) *api.Response {
	var req RegisterRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("name", req.Name) {
		v.Length("name", req.Name, "validation.nameLength", minNameLen, maxNameLen)
	}
	if v.Required("email", req.Email) {
		v.Email("email", req.Email)
	}
	if v.Required("password", req.Password) {
		v.Length("password", req.Password, "validation.passwordLength", minPasswordLen, maxPasswordLen)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	acct, err := h.service.Register(r.Context(), r.Backend(), RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return api.HandleServerError(r, err)
	}

	if acct.AccessToken == "" {
		return api.Respond(http.StatusCreated, "auth.registerSuccess", meResponse{User: &acct.User}, nil)
	}
	if err := h.startSession(r, acct); err != nil {
		return api.HandleServerError(r, err)
	}
	return api.Respond(http.StatusCreated, "auth.registerSuccess", meResponse{IsLoggedIn: true, User: &acct.User}, nil)
}

// Logout destroys the session (POST /api/auth/logout).
func (h *Handler) Logout(r *api.Request) *api.Response {
	if err := r.DestroySession(); err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("auth.logoutSuccess", meResponse{})
}

// Me reports the session's user (GET /api/auth/me).
func (h *Handler) Me(r *api.Request) *api.Response {
	if !r.Session.LoggedIn() {
		return api.OK("", meResponse{})
	}
	return api.OK("", meResponse{IsLoggedIn: true, User: sessionUser(r.Session)})
}

// UpdateProfile changes the display name and avatar (PUT /api/auth/profile).
func (h *Handler) UpdateProfile(r *api.Request) *api.Response {
	var req ProfileRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("name", req.Name) {
		v.Length("name", req.Name, "validation.nameLength", minNameLen, maxNameLen)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	user, err := h.service.UpdateProfile(r.Context(), r.Backend(), ProfileInput{Name: req.Name, Avatar: req.Avatar})
	if err != nil {
		return api.HandleServerError(r, err)
	}

	r.Session.Name = user.Name
	r.Session.Avatar = user.Avatar
	r.Session.IsPremium = user.IsPremium
	if err := r.SaveSession(); err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("auth.profileUpdated", sessionUser(r.Session))
}

// ForgotPassword emails a reset link (POST /api/auth/forgot-password). The
// reply is the same whether or not the email has an account.
func (h *Handler) ForgotPassword(r *api.Request) *api.Response {
	var req ForgotPasswordRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	if v.Required("email", req.Email) {
		v.Email("email", req.Email)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	if err := h.service.ForgotPassword(r.Context(), r.Backend(), req.Email); err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("auth.resetEmailSent", nil)
}

// ValidateResetToken checks a reset link before the form is shown
// (POST /api/auth/validate-reset-token).
func (h *Handler) ValidateResetToken(r *api.Request) *api.Response {
	var req ResetTokenRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	result, err := h.service.ValidateResetToken(r.Context(), req.Token)
	if err != nil {
		return api.HandleServerError(r, err)
	}
	if result.Error != "" {
		result.Error = r.T(result.Error)
	}
	return api.OK("", result)
}

// ResetPassword sets a new password from a reset link
// (POST /api/auth/reset-password).
func (h *Handler) ResetPassword(r *api.Request) *api.Response {
	var req ResetPasswordRequest
	if err := r.Bind(&req); err != nil {
		return api.HandleServerError(r, err)
	}

	v := api.NewValidator()
	v.Required("token", req.Token)
	if v.Required("password", req.Password) {
		v.Length("password", req.Password, "validation.passwordLength", minPasswordLen, maxPasswordLen)
	}
	if err := v.Err(); err != nil {
		return api.HandleServerError(r, err)
	}

	if err := h.service.ResetPassword(r.Context(), r.Backend(), req.Token, req.Password); err != nil {
		return api.HandleServerError(r, err)
	}
	return api.OK("auth.passwordReset", nil)
}

// startSession copies acct into the request session and saves it.
func (h *Handler) startSession(r *api.Request, acct *Account) error {
	r.Session.ID = acct.User.ID
	r.Session.Email = acct.User.Email
	r.Session.Name = acct.User.Name
	r.Session.Avatar = acct.User.Avatar
	r.Session.IsPremium = acct.User.IsPremium
	r.Session.AccessToken = acct.AccessToken
	r.Session.IsLoggedIn = true
	if r.Session.Language == "" {
		r.Session.Language = r.Language
	}
	return r.SaveSession()
}
