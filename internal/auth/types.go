package auth

// Guest is an ephemeral player identity.
type Guest struct {
	ID       string
	Username string
}

// TokenPair holds access and refresh tokens.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    int64
}

// GuestRequest for creating a guest identity.
type GuestRequest struct {
	Username string `json:"username"`
}

// RefreshRequest carries a refresh token.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}
