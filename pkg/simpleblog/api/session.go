package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// sessionCookie is the cookie jwtauth.Verifier reads by default
const sessionCookie = "jwt"

// Actor is the signed-in user taken from the session token
type Actor struct {
	ID   string
	Name string
}

// ActorFromContext returns the actor loaded by Session.Load
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(actorKey).(Actor)
	return actor, ok && actor.ID != ""
}

// Session issues and verifies HS256 session tokens. A token travels in the
// jwt cookie or an Authorization: Bearer header and carries the user ID in
// sub and the user name in name.
type Session struct {
	auth *jwtauth.JWTAuth
	ttl  time.Duration
}

// NewSession creates a session provider signing with secret
func NewSession(secret string, ttl time.Duration) *Session {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Session{
		auth: jwtauth.New("HS256", []byte(secret), nil),
		ttl:  ttl,
	}
}

// Token encodes a session token for user
func (s *Session) Token(user *simpleblog.User) (string, error) {
	claims := map[string]interface{}{
		"sub":  user.ID,
		"name": user.Name,
	}
	jwtauth.SetIssuedNow(claims)
	jwtauth.SetExpiryIn(claims, s.ttl)

	_, token, err := s.auth.Encode(claims)
	return token, err
}

// Issue sets the session cookie for user and returns the token
func (s *Session) Issue(w http.ResponseWriter, user *simpleblog.User) (string, error) {
	token, err := s.Token(user)
	if err != nil {
		return "", err
	}

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(s.ttl),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// Clear expires the session cookie
func (s *Session) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// Load verifies the request token, if any, and stores the actor in the
// request context. Requests without a valid token pass through anonymously.
func (s *Session) Load(next http.Handler) http.Handler {
	return jwtauth.Verifier(s.auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err == nil {
			sub, _ := claims["sub"].(string)
			name, _ := claims["name"].(string)
			if sub != "" {
				r = r.WithContext(context.WithValue(r.Context(), actorKey, Actor{ID: sub, Name: name}))
			}
		}
		next.ServeHTTP(w, r)
	}))
}

// RequireActor rejects requests without a signed-in actor
func RequireActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := ActorFromContext(r.Context()); !ok {
			render.Status(r, http.StatusUnauthorized)
			render.JSON(w, r, ErrorResponse{Error: ErrorBody{
				Code:     "unauthorized",
				Message:  "Sign in required",
				Redirect: "/signin",
			}})
			return
		}
		next.ServeHTTP(w, r)
	})
}
