package httpapi

import (
	"net/http"
	"strings"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type TokenResponse struct {
	AccessToken  string   `json:"accessToken"`
	RefreshToken string   `json:"refreshToken"`
	ExpiresAt    int64    `json:"expiresAt"`
	User         *UserDTO `json:"user"`
}

// Login exchanges credentials for a token pair. Failed attempts count
// against the client IP.
func (s *Server) Login(w http.ResponseWriter, r *http.Request) {
	ip := clientIP(r)
	if s.Limiter != nil && !s.Limiter.Check(ip) {
		w.Header().Set("Retry-After", "60")
		WriteError(w, http.StatusTooManyRequests, "Demasiados intentos, espera un minuto.")
		return
	}
	var req LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := s.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if s.Limiter != nil {
			s.Limiter.Record(ip)
		}
		mapServiceError(w, r, err)
		return
	}
	if s.Limiter != nil {
		s.Limiter.Reset(ip)
	}
	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		ExpiresAt:    session.Tokens.ExpiresAt,
		User:         toUserDTO(session.User, session.Roles),
	})
}

func (s *Server) Refresh(w http.ResponseWriter, r *http.Request) {
	var req RefreshRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.RefreshToken) == "" {
		WriteError(w, http.StatusBadRequest, msgInvalidPayload)
		return
	}
	session, err := s.Auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, TokenResponse{
		AccessToken:  session.Tokens.AccessToken,
		RefreshToken: session.Tokens.RefreshToken,
		ExpiresAt:    session.Tokens.ExpiresAt,
		User:         toUserDTO(session.User, session.Roles),
	})
}

// Logout is stateless; clients drop their tokens.
func (s *Server) Logout(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) Me(w http.ResponseWriter, r *http.Request) {
	userID := CurrentUserID(r)
	user, err := s.Users.GetByID(r.Context(), userID)
	if err != nil {
		mapServiceError(w, r, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]*UserDTO{"user": toUserDTO(user, CurrentRoles(r))})
}
