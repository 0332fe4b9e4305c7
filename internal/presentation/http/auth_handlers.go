package httppresentation

import (
	"net/http"
	"time"

	appauth "github.com/Zhima-Mochi/storefront/internal/application/auth"
	"github.com/Zhima-Mochi/storefront/internal/domain/user"
)

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Message   string    `json:"message"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      userDTO   `json:"user"`
}

type userResponse struct {
	Message string  `json:"message,omitempty"`
	User    userDTO `json:"user"`
}

type profileRequest struct {
	Name    string     `json:"name"`
	Email   string     `json:"email"`
	Phone   string     `json:"phone"`
	Avatar  string     `json:"avatar"`
	Address addressDTO `json:"address"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func newSessionResponse(msg string, s *appauth.Session) sessionResponse {
	return sessionResponse{
		Message:   msg,
		Token:     s.Token.Value,
		ExpiresAt: s.Token.ExpiresAt,
		User:      toUserDTO(s.User),
	}
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.svc.Auth.Register(r.Context(), appauth.RegisterInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, newSessionResponse("user registered", s))
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	s, err := h.svc.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newSessionResponse("logged in", s))
}

func (h *Handler) handleProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.svc.Auth.Profile(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{User: toUserDTO(u)})
}

func (h *Handler) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req profileRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	u, err := h.svc.Auth.UpdateProfile(r.Context(), userIDFrom(r.Context()), user.Profile{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Avatar:  req.Avatar,
		Address: req.Address.toDomain(),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, userResponse{Message: "profile updated", User: toUserDTO(u)})
}

func (h *Handler) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.svc.Auth.ChangePassword(r.Context(), userIDFrom(r.Context()), req.OldPassword, req.NewPassword); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messageResponse{Message: "password changed"})
}
