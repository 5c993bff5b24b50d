package services

import (
	"context"
	"database/sql"
	"strings"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/dbx"
	"github.com/dmitrijs2005/kbcenter/internal/logging"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/repomanager"
)

// ReplyService manages replies to entries.
type ReplyService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	logger      logging.Logger
}

func NewReplyService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *ReplyService {
	return &ReplyService{
		db:          db,
		repomanager: rm,
		logger:      logger.With("module", "replies"),
	}
}

func normalizeContent(content string) (string, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return "", oops.Code("REPLY_CONTENT_MISSING").Wrap(common.ErrValidation)
	}
	return content, nil
}

// Add posts a reply to entryID as the session's account. The entry is locked
// for the duration of the insert so it cannot disappear underneath it.
func (s *ReplyService) Add(ctx context.Context, session *models.Session, in models.NewReply) (*models.Reply, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	content, err := normalizeContent(in.Content)
	if err != nil {
		return nil, err
	}

	var created *models.Reply
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.repomanager.Entries(tx).LockShared(ctx, in.EntryID); err != nil {
			return err
		}

		var err error
		created, err = s.repomanager.Replies(tx).Create(ctx, &models.Reply{
			Content:   content,
			EntryID:   in.EntryID,
			AccountID: session.AccountID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "reply added", "reply_id", created.ID, "entry_id", in.EntryID)
	return created, nil
}

// List returns the replies of an existing entry.
func (s *ReplyService) List(ctx context.Context, entryID int64) ([]*models.Reply, error) {
	if _, err := s.repomanager.Entries(s.db).GetByID(ctx, entryID); err != nil {
		return nil, err
	}
	return s.repomanager.Replies(s.db).ListByEntry(ctx, entryID)
}

// Update edits a reply owned by the session's account.
func (s *ReplyService) Update(ctx context.Context, session *models.Session, replyID int64, content string) (*models.Reply, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	content, err := normalizeContent(content)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Replies(s.db)
	owned, err := repo.IsOwner(ctx, session.AccountID, replyID)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, forbidden("REPLY_UPDATE_FORBIDDEN", "reply_id", replyID, "account_id", session.AccountID)
	}

	return repo.Update(ctx, replyID, session.AccountID, content)
}

// Delete removes a reply owned by the session's account.
func (s *ReplyService) Delete(ctx context.Context, session *models.Session, replyID int64) error {
	if err := requireSession(session); err != nil {
		return err
	}

	repo := s.repomanager.Replies(s.db)
	owned, err := repo.IsOwner(ctx, session.AccountID, replyID)
	if err != nil {
		return err
	}
	if !owned {
		return forbidden("REPLY_DELETE_FORBIDDEN", "reply_id", replyID, "account_id", session.AccountID)
	}

	deleted, err := repo.Delete(ctx, replyID, session.AccountID)
	if err != nil {
		return err
	}
	if !deleted {
		return forbidden("REPLY_DELETE_FORBIDDEN", "reply_id", replyID, "account_id", session.AccountID)
	}
	return nil
}
