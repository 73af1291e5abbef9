package packets

type TokenResponse struct {
	Token string `json:"token"`
}

// returned by the session endpoint
type SessionResponse struct {
	Subject   string `json:"subject"`
	ExpiresAt string `json:"expires_at"`
}
