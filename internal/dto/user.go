package dto

// UserResponse is the authenticated user view; the password hash and the
// outstanding OTP/reset fields never leave the server.
type UserResponse struct {
	ID         string `json:"_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}
