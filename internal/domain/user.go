package domain

// User is the identity reported by the backend for a session token.
type User struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

// AuthResult is what the backend returns for a successful login or
// registration: a bearer token and the user it belongs to.
type AuthResult struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
