// Package entries stores knowledge-base entries. Every mutating statement is
// keyed by both entry id and owner account id.
package entries

import (
	"context"

	"github.com/dmitrijs2005/kbcenter/internal/server/models"
)

type Repository interface {
	List(ctx context.Context, limit *int, offset int) ([]*models.Entry, error)
	GetByID(ctx context.Context, id int64) (*models.Entry, error)
	Create(ctx context.Context, entry *models.Entry) (*models.Entry, error)
	IsOwner(ctx context.Context, accountID, entryID int64) (bool, error)
	Update(ctx context.Context, entry *models.Entry, entryID, accountID int64) (*models.Entry, error)
	Delete(ctx context.Context, entryID, accountID int64) (bool, error)
	SetAttachment(ctx context.Context, entryID, accountID int64, key string) error
	LockShared(ctx context.Context, entryID int64) error
}
