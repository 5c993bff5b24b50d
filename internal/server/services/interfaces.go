package services

import "github.com/dmitrijs2005/kbcenter/internal/server/models"

// PasswordHasher is implemented by auth.Argon2Hasher.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(encoded, plaintext string) (bool, error)
}

// TokenCodec is implemented by auth.TokenCodec.
type TokenCodec interface {
	Issue(accountID int64) (string, error)
	Validate(token string) (*models.Session, error)
}
