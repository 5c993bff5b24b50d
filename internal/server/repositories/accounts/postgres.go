package accounts

import (
	"context"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/dbx"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/pgerr"
)

// PostgresRepository implements Repository over a dbx.DBTX.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts account and sets its ID. An email that is already taken
// fails with common.ErrDuplicateAccount.
func (r *PostgresRepository) Create(ctx context.Context, account *models.Account) (*models.Account, error) {
	query := `
		INSERT INTO accounts (email, password)
		VALUES ($1, $2)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, account.Email, account.Password).Scan(&account.ID)
	if err != nil {
		if pgerr.IsUniqueViolation(err) {
			return nil, oops.Code(common.ErrDuplicateAccount.Code()).
				With("email", account.Email).
				Wrap(common.ErrDuplicateAccount)
		}
		return nil, pgerr.Query(err, "ACCOUNT_CREATE_FAILED", "insert account", "email", account.Email)
	}

	return account, nil
}

// GetByEmail returns the account registered under email or common.ErrNotFound.
func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.Account, error) {
	query := `
		SELECT id, email, password FROM accounts
		WHERE email = $1
	`

	account := &models.Account{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(&account.ID, &account.Email, &account.Password)
	if err != nil {
		return nil, pgerr.Query(err, "ACCOUNT_GET_FAILED", "get account by email", "email", email)
	}

	return account, nil
}
