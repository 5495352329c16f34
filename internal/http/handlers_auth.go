package httpx

import (
	"net/http"

	"github.com/splax/teamup/internal/domain"
	"github.com/splax/teamup/internal/service/auth"
	"github.com/splax/teamup/internal/service/user"
)

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type sessionPayload struct {
	User   *user.View   `json:"user"`
	Tokens tokenPayload `json:"tokens"`
}

func newTokenPayload(pair auth.TokenPair) tokenPayload {
	return tokenPayload{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(pair.ExpiresIn.Seconds()),
	}
}

func (r *Router) handleSignup(w http.ResponseWriter, req *http.Request) {
	var input auth.SignupInput
	if !decodeJSON(w, req, &input) {
		return
	}
	u, tokens, err := r.auth.Signup(req.Context(), input)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	r.writeSession(w, req, http.StatusCreated, u, tokens)
}

func (r *Router) handleLogin(w http.ResponseWriter, req *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, req, &body) {
		return
	}
	u, tokens, err := r.auth.Login(req.Context(), body.Email, body.Password)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	r.writeSession(w, req, http.StatusOK, u, tokens)
}

func (r *Router) writeSession(w http.ResponseWriter, req *http.Request, status int, u *domain.User, tokens auth.TokenPair) {
	view, err := r.users.Get(req.Context(), user.Caller{ID: u.ID, Role: u.Role}, u.ID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, status, sessionPayload{User: view, Tokens: newTokenPayload(tokens)})
}

func (r *Router) handleMe(w http.ResponseWriter, req *http.Request) {
	info, ok := r.caller(w, req)
	if !ok {
		return
	}
	view, err := r.users.Get(req.Context(), info.userCaller(), info.UserID)
	if err != nil {
		r.writeServiceError(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
