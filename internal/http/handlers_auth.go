package http

import (
	"net/http"

	"budge/internal/core"
)

type credentialsRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// publicUser is the user as shown to clients.
type publicUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func toPublicUser(u core.User) publicUser {
	return publicUser{ID: u.ID, Name: u.Name, Email: u.Email}
}

type tokenResponse struct {
	Message string     `json:"message"`
	Token   string     `json:"token"`
	User    publicUser `json:"user"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, token, err := s.auth.Register(r.Context(), sanitizeInput(req.Name), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.appMetrics.usersRegistered.Add(1)

	NewJSONResponse().
		Status(http.StatusCreated).
		Body(tokenResponse{Message: "User registered successfully", Token: token, User: toPublicUser(u)}).
		Write(w)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}

	u, token, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Body(tokenResponse{Message: "Login successful", Token: token, User: toPublicUser(u)}).
		Write(w)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Me(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	NewJSONResponse().
		Body(map[string]publicUser{"user": toPublicUser(u)}).
		Write(w)
}
