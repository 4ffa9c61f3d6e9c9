package api

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Accounts is the account collaborator used by AccountHandler
type Accounts interface {
	SignUp(ctx context.Context, name, password string) (*simpleblog.User, error)
	SignIn(ctx context.Context, name, password string) (*simpleblog.User, error)
	CheckPasswordAccess(ctx context.Context, actorID, actorName string) (*simpleblog.User, error)
	ChangePassword(ctx context.Context, actorID, name, password string) error
}

// CredentialsForm is the request body for sign-up, sign-in and password changes
type CredentialsForm struct {
	Name     string `json:"name" form:"name"`
	Password string `json:"password" form:"password"`
}

// AccountResponse describes the signed-in user
type AccountResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// AccountHandler handles sign-up, sign-in, sign-out and password changes
type AccountHandler struct {
	accounts Accounts
	session  *Session
	limiter  *RateLimiter
}

// NewAccountHandler creates a new account handler. limiter may be nil.
func NewAccountHandler(accounts Accounts, session *Session, limiter *RateLimiter) *AccountHandler {
	return &AccountHandler{
		accounts: accounts,
		session:  session,
		limiter:  limiter,
	}
}

// Register adds the account routes to r
func (h *AccountHandler) Register(r chi.Router) {
	r.Post("/signup", h.SignUp)
	r.Post("/signout", h.SignOut)

	r.Group(func(r chi.Router) {
		if h.limiter != nil {
			r.Use(h.limiter.Middleware)
		}
		r.Post("/signin", h.SignIn)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireActor)
		r.Get("/password", h.PasswordForm)
		r.Post("/password", h.ChangePassword)
	})
}

// SignUp creates an account and signs it in
func (h *AccountHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var form CredentialsForm
	if err := decode(r, &form); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	user, err := h.accounts.SignUp(r.Context(), form.Name, form.Password)
	if err != nil {
		writeError(w, r, err, "Failed to sign up")
		return
	}

	token, err := h.session.Issue(w, user)
	if err != nil {
		writeError(w, r, err, "Failed to issue session")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, MessageResponse{
		Message:  "Signed up",
		Redirect: "/posts",
		ID:       user.ID,
		Token:    token,
	})
}

// SignIn verifies credentials and starts a session
func (h *AccountHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var form CredentialsForm
	if err := decode(r, &form); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	user, err := h.accounts.SignIn(r.Context(), form.Name, form.Password)
	if err != nil {
		writeError(w, r, err, "Failed to sign in")
		return
	}

	token, err := h.session.Issue(w, user)
	if err != nil {
		writeError(w, r, err, "Failed to issue session")
		return
	}

	slog.InfoContext(r.Context(), "User signed in", "user_id", user.ID)
	render.JSON(w, r, MessageResponse{
		Message:  "Signed in",
		Redirect: "/posts",
		ID:       user.ID,
		Token:    token,
	})
}

// SignOut ends the session
func (h *AccountHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	h.session.Clear(w)

	render.JSON(w, r, MessageResponse{
		Message:  "Signed out",
		Redirect: "/posts",
	})
}

// PasswordForm confirms the actor may change their password
func (h *AccountHandler) PasswordForm(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	user, err := h.accounts.CheckPasswordAccess(r.Context(), actor.ID, actor.Name)
	if err != nil {
		writeError(w, r, err, "Failed to check password access")
		return
	}

	render.JSON(w, r, AccountResponse{ID: user.ID, Name: user.Name})
}

// ChangePassword sets a new password and ends the session, so the user has
// to sign in again
func (h *AccountHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var form CredentialsForm
	if err := decode(r, &form); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}
	name := strings.TrimSpace(form.Name)
	if name == "" {
		name = actor.Name
	}

	if err := h.accounts.ChangePassword(r.Context(), actor.ID, name, form.Password); err != nil {
		writeError(w, r, err, "Failed to change password")
		return
	}

	h.session.Clear(w)
	render.JSON(w, r, MessageResponse{
		Message:  "Password changed, please sign in again",
		Redirect: "/signin",
	})
}
