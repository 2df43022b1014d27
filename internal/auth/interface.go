package auth

// JWTVerifier defines the interface for access token verification.
// The middleware stays agnostic to whether tokens are self-issued (HMAC) or
// come from an external identity provider (JWKS).
type JWTVerifier interface {
	// VerifyToken validates a token string and returns the parsed claims.
	// Returns domain.ErrUnauthorized if the token is invalid, expired, or has an invalid signature.
	VerifyToken(tokenString string) (*Claims, error)

	// Close releases any resources held by the verifier (e.g., HTTP connections for JWKS).
	Close() error
}
