package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
)

// MinKeyLen is the shortest accepted HS256 signing key, in bytes.
const MinKeyLen = 32

// DefaultTokenValidity is the lifetime of an issued token.
const DefaultTokenValidity = 24 * time.Hour

// Claims are the token claims: the registered iat/nbf/exp and the account id.
type Claims struct {
	jwt.RegisteredClaims
	AccountID int64 `json:"account_id"`
}

// TokenCodec issues and validates session tokens. It holds an immutable copy
// of the signing key and is safe for concurrent use.
type TokenCodec struct {
	key      []byte
	validity time.Duration
	now      func() time.Time
	parser   *jwt.Parser
}

// CodecOption customises a TokenCodec.
type CodecOption func(*TokenCodec)

// WithClock replaces time.Now as the codec's time source.
func WithClock(now func() time.Time) CodecOption {
	return func(c *TokenCodec) { c.now = now }
}

// NewTokenCodec builds a codec signing with secret. The key must be at least
// MinKeyLen bytes and validity must be positive, otherwise the error wraps
// common.ErrKeyMaterial.
func NewTokenCodec(secret []byte, validity time.Duration, opts ...CodecOption) (*TokenCodec, error) {
	if len(secret) < MinKeyLen {
		return nil, oops.Code(common.ErrKeyMaterial.Code()).
			With("key_len", len(secret)).
			With("min_key_len", MinKeyLen).
			Wrap(common.ErrKeyMaterial)
	}
	if validity <= 0 {
		return nil, oops.Code(common.ErrKeyMaterial.Code()).
			With("validity", validity.String()).
			Wrap(common.ErrKeyMaterial)
	}

	c := &TokenCodec{
		key:      append([]byte(nil), secret...),
		validity: validity,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(c.now),
	)
	return c, nil
}

// Issue returns a token for accountID valid from now until now+validity.
func (c *TokenCodec) Issue(accountID int64) (string, error) {
	now := c.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.validity)),
		},
		AccountID: accountID,
	})

	signed, err := token.SignedString(c.key)
	if err != nil {
		return "", oops.Code("TOKEN_SIGN_FAILED").With("account_id", accountID).Wrap(err)
	}
	return signed, nil
}

// Validate checks the signature and time window of token and returns the
// session it carries. Every failure wraps common.ErrFailTokenDecryption;
// the underlying reason is only available in the error context.
func (c *TokenCodec) Validate(token string) (*models.Session, error) {
	claims := &Claims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(*jwt.Token) (any, error) {
		return c.key, nil
	})
	if err != nil {
		return nil, tokenError(err.Error())
	}
	if claims.NotBefore == nil || claims.IssuedAt == nil {
		return nil, tokenError("missing time claims")
	}
	if claims.AccountID <= 0 {
		return nil, tokenError("missing account id")
	}

	return &models.Session{
		AccountID: claims.AccountID,
		IssuedAt:  claims.IssuedAt.Time,
		NotBefore: claims.NotBefore.Time,
		Expiry:    claims.ExpiresAt.Time,
	}, nil
}

func tokenError(reason string) error {
	return oops.Code(common.ErrFailTokenDecryption.Code()).
		With("reason", reason).
		Wrap(common.ErrFailTokenDecryption)
}
