package dto

// LoginRequest is the login endpoint payload.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// UserInfo describes the authenticated identity returned alongside a token.
type UserInfo struct {
	Username   string `json:"username"`
	Role       string `json:"role"`
	ClientName string `json:"client_name,omitempty"`
}
