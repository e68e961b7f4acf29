package domain

// Credentials are submitted on the login form.
type Credentials struct {
	Username string `json:"username" validate:"required,max=100"`
	Password string `json:"password" validate:"required,max=200"`
}

// AuthUser is the identity returned by the backend after a successful login.
type AuthUser struct {
	ID   string `json:"id" validate:"required"`
	Name string `json:"name"`
	Role string `json:"role" validate:"required,oneof=admin professor student ADMIN PROFESSOR STUDENT"`
}

// LoginResult carries the backend bearer token and the user it belongs to.
type LoginResult struct {
	Token string   `json:"token" validate:"required"`
	User  AuthUser `json:"user"`
}
