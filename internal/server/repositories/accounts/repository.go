// Package accounts stores registered accounts.
package accounts

import (
	"context"

	"github.com/dmitrijs2005/kbcenter/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, account *models.Account) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
}
