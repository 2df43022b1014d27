package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"filestorage/internal/domain"
	"filestorage/internal/domain/services"
)

// Claims are the access token claims. The subject is the user id.
type Claims struct {
	jwt.RegisteredClaims
	RootFolderID string `json:"root_folder_id"`
}

// Identity converts the claims into the caller identity used by services.
func (c *Claims) Identity() (services.Identity, error) {
	userID, err := uuid.Parse(c.Subject)
	if err != nil {
		return services.Identity{}, fmt.Errorf("subject claim: %w", domain.ErrUnauthorized)
	}
	rootID, err := uuid.Parse(c.RootFolderID)
	if err != nil {
		return services.Identity{}, fmt.Errorf("root_folder_id claim: %w", domain.ErrUnauthorized)
	}
	return services.Identity{UserID: userID, RootFolderID: rootID}, nil
}
