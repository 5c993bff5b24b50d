package services

import (
	"context"
	"database/sql"
	"errors"
	"net/mail"
	"strings"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/logging"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/repomanager"
)

// AccountService registers accounts, checks credentials and issues session
// tokens.
type AccountService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	hasher      PasswordHasher
	tokens      TokenCodec
	logger      logging.Logger

	// dummyHash is verified against when the account does not exist so
	// that unknown emails cost the same as wrong passwords.
	dummyHash string
}

func NewAccountService(db *sql.DB, rm repomanager.RepositoryManager, hasher PasswordHasher, tokens TokenCodec,
	logger logging.Logger) (*AccountService, error) {
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, err
	}

	return &AccountService{
		db:          db,
		repomanager: rm,
		hasher:      hasher,
		tokens:      tokens,
		logger:      logger.With("module", "accounts"),
		dummyHash:   dummy,
	}, nil
}

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || password == "" {
		return oops.Code("CREDENTIALS_MISSING").Wrap(common.ErrValidation)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return oops.Code("EMAIL_INVALID").With("email", email).Wrap(common.ErrValidation)
	}
	return nil
}

// Register stores a new account with a hashed password. The returned account
// carries no password hash.
func (s *AccountService) Register(ctx context.Context, email, password string) (*models.Account, error) {
	email = NormalizeEmail(email)
	if err := validateCredentials(email, password); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, err
	}

	account, err := s.repomanager.Accounts(s.db).Create(ctx, &models.Account{Email: email, Password: hash})
	if err != nil {
		return nil, err
	}

	s.logger.Info(ctx, "account registered", "account_id", account.ID)
	return &models.Account{ID: account.ID, Email: account.Email}, nil
}

// Login checks email and password and returns a session token. An unknown
// email and a wrong password both fail with common.ErrWrongPassword; the
// reason is kept in the error context.
func (s *AccountService) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	account, err := s.repomanager.Accounts(s.db).GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, common.ErrNotFound) {
			return "", err
		}
		_, _ = s.hasher.Verify(s.dummyHash, password)
		return "", oops.Code(common.ErrWrongPassword.Code()).
			With("reason", "unknown account").
			Wrap(common.ErrWrongPassword)
	}

	ok, err := s.hasher.Verify(account.Password, password)
	if err != nil {
		return "", oops.With("account_id", account.ID).Wrap(err)
	}
	if !ok {
		return "", oops.Code(common.ErrWrongPassword.Code()).
			With("reason", "password mismatch").
			With("account_id", account.ID).
			Wrap(common.ErrWrongPassword)
	}

	token, err := s.tokens.Issue(account.ID)
	if err != nil {
		return "", err
	}

	s.logger.Info(ctx, "account logged in", "account_id", account.ID)
	return token, nil
}

// Authenticate validates a session token.
func (s *AccountService) Authenticate(token string) (*models.Session, error) {
	return s.tokens.Validate(token)
}
