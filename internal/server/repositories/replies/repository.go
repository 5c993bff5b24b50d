// Package replies stores replies to knowledge-base entries.
package replies

import (
	"context"

	"github.com/dmitrijs2005/kbcenter/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, reply *models.Reply) (*models.Reply, error)
	ListByEntry(ctx context.Context, entryID int64) ([]*models.Reply, error)
	IsOwner(ctx context.Context, accountID, replyID int64) (bool, error)
	Update(ctx context.Context, replyID, accountID int64, content string) (*models.Reply, error)
	Delete(ctx context.Context, replyID, accountID int64) (bool, error)
}
