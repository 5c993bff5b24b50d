package replies

import (
	"context"
	"database/sql"
	"errors"

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

// Create inserts reply and sets its ID. A reply to a missing entry fails
// with common.ErrQuery under code REPLY_ENTRY_INVALID.
func (r *PostgresRepository) Create(ctx context.Context, reply *models.Reply) (*models.Reply, error) {
	query := `
		INSERT INTO reply (content, kb_id, account_id)
		VALUES ($1, $2, $3)
		RETURNING id
	`

	err := r.db.QueryRowContext(ctx, query, reply.Content, reply.EntryID, reply.AccountID).Scan(&reply.ID)
	if err != nil {
		if pgerr.IsForeignKeyViolation(err) {
			return nil, pgerr.Query(err, "REPLY_ENTRY_INVALID", "insert reply", "entry_id", reply.EntryID)
		}
		return nil, pgerr.Query(err, "REPLY_CREATE_FAILED", "insert reply",
			"entry_id", reply.EntryID, "account_id", reply.AccountID)
	}
	return reply, nil
}

// ListByEntry returns the replies of an entry in ascending id order.
func (r *PostgresRepository) ListByEntry(ctx context.Context, entryID int64) ([]*models.Reply, error) {
	query := `
		SELECT id, content, kb_id, account_id FROM reply
		WHERE kb_id = $1
		ORDER BY id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, entryID)
	if err != nil {
		return nil, pgerr.Query(err, "REPLY_LIST_FAILED", "list replies", "entry_id", entryID)
	}
	defer rows.Close()

	result := make([]*models.Reply, 0)
	for rows.Next() {
		var rp models.Reply
		if err := rows.Scan(&rp.ID, &rp.Content, &rp.EntryID, &rp.AccountID); err != nil {
			return nil, pgerr.Query(err, "REPLY_LIST_FAILED", "scan reply", "entry_id", entryID)
		}
		result = append(result, &rp)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Query(err, "REPLY_LIST_FAILED", "iterate replies", "entry_id", entryID)
	}
	return result, nil
}

// IsOwner reports whether replyID exists and belongs to accountID.
func (r *PostgresRepository) IsOwner(ctx context.Context, accountID, replyID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reply WHERE id = $1 AND account_id = $2)`

	var owned bool
	if err := r.db.QueryRowContext(ctx, query, replyID, accountID).Scan(&owned); err != nil {
		return false, pgerr.Query(err, "REPLY_OWNER_CHECK_FAILED", "check reply owner",
			"reply_id", replyID, "account_id", accountID)
	}
	return owned, nil
}

// Update replaces the content of a reply owned by accountID, or fails with
// common.ErrUnauthorized.
func (r *PostgresRepository) Update(ctx context.Context, replyID, accountID int64, content string) (*models.Reply, error) {
	query := `
		UPDATE reply SET content = $1
		WHERE id = $2 AND account_id = $3
		RETURNING id, content, kb_id, account_id
	`

	var rp models.Reply
	err := r.db.QueryRowContext(ctx, query, content, replyID, accountID).
		Scan(&rp.ID, &rp.Content, &rp.EntryID, &rp.AccountID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("REPLY_UPDATE_FORBIDDEN").
				With("reply_id", replyID).
				With("account_id", accountID).
				Wrap(common.ErrUnauthorized)
		}
		return nil, pgerr.Query(err, "REPLY_UPDATE_FAILED", "update reply", "reply_id", replyID)
	}
	return &rp, nil
}

// Delete removes the reply if accountID owns it and reports whether a row
// was removed.
func (r *PostgresRepository) Delete(ctx context.Context, replyID, accountID int64) (bool, error) {
	query := `DELETE FROM reply WHERE id = $1 AND account_id = $2`

	res, err := r.db.ExecContext(ctx, query, replyID, accountID)
	if err != nil {
		return false, pgerr.Query(err, "REPLY_DELETE_FAILED", "delete reply", "reply_id", replyID)
	}
	deleted, err := dbx.AffectedOne(res)
	if err != nil {
		return false, pgerr.Query(err, "REPLY_DELETE_FAILED", "rows affected", "reply_id", replyID)
	}
	return deleted, nil
}
