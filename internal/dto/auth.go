package dto

import (
	"time"

	"campus-portal/internal/domain"
	"campus-portal/internal/session"
)

// LoginRequest represents the login form
// @Description Request body for signing in
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// Credentials converts the form into backend credentials.
func (r LoginRequest) Credentials() domain.Credentials {
	return domain.Credentials{Username: r.Username, Password: r.Password}
}

// UserResponse is the signed-in user.
type UserResponse struct {
	ID   string      `json:"id"`
	Name string      `json:"name,omitempty"`
	Role domain.Role `json:"role"`
}

// SessionResponse reports the inactivity countdown.
// @Description Session countdown state. remaining_seconds counts down to the
// @Description warning while active and to the logout while warning.
type SessionResponse struct {
	State            session.State `json:"state"`
	Role             domain.Role   `json:"role"`
	RemainingSeconds int           `json:"remaining_seconds"`
	Deadline         time.Time     `json:"deadline"`
}

// LoginResponse is returned after a successful login. Cookies carry the
// session id and the role.
type LoginResponse struct {
	User    UserResponse    `json:"user"`
	Session SessionResponse `json:"session"`
}

func NewSessionResponse(st session.Status) SessionResponse {
	return SessionResponse{
		State:            st.State,
		Role:             st.Role,
		RemainingSeconds: st.RemainingSeconds(),
		Deadline:         st.Deadline,
	}
}

func NewUserResponse(s *domain.Session) UserResponse {
	return UserResponse{ID: s.UserID, Name: s.Name, Role: s.Role}
}

// MessageResponse represents a generic message response.
// @Description Generic message response
type MessageResponse struct {
	Message string `json:"message"`
}
