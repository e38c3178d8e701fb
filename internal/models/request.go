package models

// Account is the identity held by the auth backend.
type Account struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Session is an authenticated backend session.
type Session struct {
	AccessToken  string  `json:"access_token"`
	RefreshToken string  `json:"refresh_token"`
	TokenType    string  `json:"token_type"`
	ExpiresIn    int     `json:"expires_in"`
	User         Account `json:"user"`
}

// SignupRequest represents the waitlist signup form
type SignupRequest struct {
	Email           string `json:"email" example:"user@example.com"`
	Password        string `json:"password" example:"password123"`
	ConfirmPassword string `json:"confirm_password" example:"password123"`
}

// SignupResponse is returned once the account exists; the user still has to
// confirm their email.
type SignupResponse struct {
	Success bool    `json:"success"`
	User    Account `json:"user"`
	Message string  `json:"message"`
}

// LoginRequest represents the login credentials
type LoginRequest struct {
	// User's email address
	Email string `json:"email" example:"user@example.com"`
	// User's password
	Password string `json:"password" example:"password123"`
}

// LoginResponse represents the login response
type LoginResponse struct {
	// Supabase access token
	Token        string `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	TokenType    string `json:"type" example:"Bearer"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in,omitempty"`
}

// MeResponse describes the current user for the "choose" screen.
type MeResponse struct {
	User       Account `json:"user"`
	HasProfile bool    `json:"has_profile"`
}

// GenerateBioRequest carries the profile details the bio is written from.
type GenerateBioRequest struct {
	FullName    string   `json:"full_name"`
	PrimaryRole string   `json:"primary_role"`
	CoreSkills  []string `json:"core_skills"`
}

// GenerateBioResponse holds the generated bio. Generated is false when the
// generator failed and Bio is whatever the user already had.
type GenerateBioResponse struct {
	Bio       string `json:"bio"`
	Generated bool   `json:"generated"`
}

// APIResponse represents a generic API response
type APIResponse struct {
	// Status of the response (success/error)
	Status string `json:"status" example:"success"`
	// Response message
	Message string `json:"message" example:"Operation completed successfully"`
	// Optional data payload
	Data interface{} `json:"data,omitempty"`
}
