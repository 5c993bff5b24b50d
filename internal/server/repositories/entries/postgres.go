package entries

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/dbx"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/pgerr"
)

const entryColumns = `id, title, content, tags, account_id, attachment_key`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var (
		e          models.Entry
		tags       pq.StringArray
		attachment sql.NullString
	)
	if err := row.Scan(&e.ID, &e.Title, &e.Content, &tags, &e.AccountID, &attachment); err != nil {
		return nil, err
	}
	e.Tags = []string(tags)
	if e.Tags == nil {
		e.Tags = []string{}
	}
	e.AttachmentKey = attachment.String
	return &e, nil
}

// tagsArg binds tags as a text[]; nil becomes an empty array, not NULL.
func tagsArg(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}

// List returns entries in ascending id order. A nil limit means no limit.
func (r *PostgresRepository) List(ctx context.Context, limit *int, offset int) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM kb
		ORDER BY id ASC
		LIMIT $1 OFFSET $2
	`

	var lim sql.NullInt64
	if limit != nil {
		lim = sql.NullInt64{Int64: int64(*limit), Valid: true}
	}

	rows, err := r.db.QueryContext(ctx, query, lim, offset)
	if err != nil {
		return nil, pgerr.Query(err, "ENTRY_LIST_FAILED", "list entries", "offset", offset)
	}
	defer rows.Close()

	result := make([]*models.Entry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, pgerr.Query(err, "ENTRY_LIST_FAILED", "scan entry")
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, pgerr.Query(err, "ENTRY_LIST_FAILED", "iterate entries")
	}
	return result, nil
}

// GetByID returns the entry or common.ErrNotFound.
func (r *PostgresRepository) GetByID(ctx context.Context, id int64) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM kb WHERE id = $1`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, pgerr.Query(err, "ENTRY_GET_FAILED", "get entry", "entry_id", id)
	}
	return e, nil
}

// Create inserts entry owned by entry.AccountID and sets its ID.
func (r *PostgresRepository) Create(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	query := `
		INSERT INTO kb (title, content, tags, account_id)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + entryColumns

	created, err := scanEntry(r.db.QueryRowContext(ctx, query,
		entry.Title, entry.Content, tagsArg(entry.Tags), entry.AccountID))
	if err != nil {
		return nil, pgerr.Query(err, "ENTRY_CREATE_FAILED", "insert entry", "account_id", entry.AccountID)
	}
	return created, nil
}

// IsOwner reports whether entryID exists and belongs to accountID.
func (r *PostgresRepository) IsOwner(ctx context.Context, accountID, entryID int64) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM kb WHERE id = $1 AND account_id = $2)`

	var owned bool
	if err := r.db.QueryRowContext(ctx, query, entryID, accountID).Scan(&owned); err != nil {
		return false, pgerr.Query(err, "ENTRY_OWNER_CHECK_FAILED", "check entry owner",
			"entry_id", entryID, "account_id", accountID)
	}
	return owned, nil
}

// Update replaces title, content and tags of an entry owned by accountID.
// When no such row exists the result is common.ErrUnauthorized.
func (r *PostgresRepository) Update(ctx context.Context, entry *models.Entry, entryID, accountID int64) (*models.Entry, error) {
	query := `
		UPDATE kb SET title = $1, content = $2, tags = $3
		WHERE id = $4 AND account_id = $5
		RETURNING ` + entryColumns

	updated, err := scanEntry(r.db.QueryRowContext(ctx, query,
		entry.Title, entry.Content, tagsArg(entry.Tags), entryID, accountID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, oops.Code("ENTRY_UPDATE_FORBIDDEN").
				With("entry_id", entryID).
				With("account_id", accountID).
				Wrap(common.ErrUnauthorized)
		}
		return nil, pgerr.Query(err, "ENTRY_UPDATE_FAILED", "update entry",
			"entry_id", entryID, "account_id", accountID)
	}
	return updated, nil
}

// Delete removes the entry if accountID owns it and reports whether a row
// was removed.
func (r *PostgresRepository) Delete(ctx context.Context, entryID, accountID int64) (bool, error) {
	query := `DELETE FROM kb WHERE id = $1 AND account_id = $2`

	res, err := r.db.ExecContext(ctx, query, entryID, accountID)
	if err != nil {
		return false, pgerr.Query(err, "ENTRY_DELETE_FAILED", "delete entry",
			"entry_id", entryID, "account_id", accountID)
	}
	deleted, err := dbx.AffectedOne(res)
	if err != nil {
		return false, pgerr.Query(err, "ENTRY_DELETE_FAILED", "rows affected", "entry_id", entryID)
	}
	return deleted, nil
}

// SetAttachment records the object key of the entry's attachment. The row
// must belong to accountID, otherwise common.ErrUnauthorized is returned.
func (r *PostgresRepository) SetAttachment(ctx context.Context, entryID, accountID int64, key string) error {
	query := `UPDATE kb SET attachment_key = $1 WHERE id = $2 AND account_id = $3`

	res, err := r.db.ExecContext(ctx, query, key, entryID, accountID)
	if err != nil {
		return pgerr.Query(err, "ENTRY_ATTACHMENT_FAILED", "set attachment", "entry_id", entryID)
	}
	ok, err := dbx.AffectedOne(res)
	if err != nil {
		return pgerr.Query(err, "ENTRY_ATTACHMENT_FAILED", "rows affected", "entry_id", entryID)
	}
	if !ok {
		return oops.Code("ENTRY_ATTACHMENT_FORBIDDEN").
			With("entry_id", entryID).
			With("account_id", accountID).
			Wrap(common.ErrUnauthorized)
	}
	return nil
}

// LockShared takes a key-share lock on the entry so it cannot be deleted
// before the surrounding transaction ends. A missing entry is
// common.ErrNotFound. Only meaningful inside a transaction.
func (r *PostgresRepository) LockShared(ctx context.Context, entryID int64) error {
	query := `SELECT id FROM kb WHERE id = $1 FOR KEY SHARE`

	var id int64
	if err := r.db.QueryRowContext(ctx, query, entryID).Scan(&id); err != nil {
		return pgerr.Query(err, "ENTRY_LOCK_FAILED", "lock entry", "entry_id", entryID)
	}
	return nil
}
