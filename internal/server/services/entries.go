package services

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/logging"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/pagination"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/repomanager"
)

// EntryService manages knowledge-base entries and their attachments.
type EntryService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       ObjectStore
	logger      logging.Logger
	now         func() time.Time
}

func NewEntryService(db *sql.DB, rm repomanager.RepositoryManager, store ObjectStore, logger logging.Logger) *EntryService {
	return &EntryService{
		db:          db,
		repomanager: rm,
		store:       store,
		logger:      logger.With("module", "entries"),
		now:         time.Now,
	}
}

func requireSession(session *models.Session) error {
	if session == nil || session.AccountID <= 0 {
		return oops.Code("SESSION_MISSING").Wrap(common.ErrUnauthorized)
	}
	return nil
}

func forbidden(code string, kv ...any) error {
	return oops.Code(code).With(kv...).Wrap(common.ErrUnauthorized)
}

func normalizeEntry(in models.NewEntry) (*models.Entry, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, oops.Code("ENTRY_TITLE_MISSING").Wrap(common.ErrValidation)
	}

	tags := make([]string, 0, len(in.Tags))
	for _, t := range in.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &models.Entry{Title: title, Content: in.Content, Tags: tags}, nil
}

// List returns entries in id order within the given window.
func (s *EntryService) List(ctx context.Context, p pagination.Pagination) ([]*models.Entry, error) {
	return s.repomanager.Entries(s.db).List(ctx, p.Limit, p.Offset)
}

// Get returns one entry or common.ErrNotFound.
func (s *EntryService) Get(ctx context.Context, id int64) (*models.Entry, error) {
	return s.repomanager.Entries(s.db).GetByID(ctx, id)
}

// Create stores a new entry owned by the session's account.
func (s *EntryService) Create(ctx context.Context, session *models.Session, in models.NewEntry) (*models.Entry, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	entry, err := normalizeEntry(in)
	if err != nil {
		return nil, err
	}
	entry.AccountID = session.AccountID

	created, err := s.repomanager.Entries(s.db).Create(ctx, entry)
	if err != nil {
		return nil, err
	}

	s.logger.Debug(ctx, "entry created", "entry_id", created.ID, "account_id", session.AccountID)
	return created, nil
}

// Update replaces an entry's content. Only its owner may do so; anybody else
// gets common.ErrUnauthorized and the row is left untouched.
func (s *EntryService) Update(ctx context.Context, session *models.Session, id int64, in models.NewEntry) (*models.Entry, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	entry, err := normalizeEntry(in)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Entries(s.db)
	owned, err := repo.IsOwner(ctx, session.AccountID, id)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, forbidden("ENTRY_UPDATE_FORBIDDEN", "entry_id", id, "account_id", session.AccountID)
	}

	return repo.Update(ctx, entry, id, session.AccountID)
}

// Delete removes an entry owned by the session's account together with its
// replies and attachment.
func (s *EntryService) Delete(ctx context.Context, session *models.Session, id int64) error {
	if err := requireSession(session); err != nil {
		return err
	}

	repo := s.repomanager.Entries(s.db)
	owned, err := repo.IsOwner(ctx, session.AccountID, id)
	if err != nil {
		return err
	}
	if !owned {
		return forbidden("ENTRY_DELETE_FORBIDDEN", "entry_id", id, "account_id", session.AccountID)
	}

	entry, err := repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	deleted, err := repo.Delete(ctx, id, session.AccountID)
	if err != nil {
		return err
	}
	if !deleted {
		return forbidden("ENTRY_DELETE_FORBIDDEN", "entry_id", id, "account_id", session.AccountID)
	}

	if entry.AttachmentKey != "" && s.store != nil {
		if err := s.store.Delete(ctx, entry.AttachmentKey); err != nil {
			logging.LogWarn(ctx, s.logger, "attachment cleanup failed", err)
		}
	}

	s.logger.Debug(ctx, "entry deleted", "entry_id", id, "account_id", session.AccountID)
	return nil
}

// AttachmentUploadURL reserves a fresh object key for the entry and returns a
// presigned upload URL for it. Only the owner may attach files.
func (s *EntryService) AttachmentUploadURL(ctx context.Context, session *models.Session, id int64) (*models.AttachmentURL, error) {
	if err := requireSession(session); err != nil {
		return nil, err
	}
	if s.store == nil {
		return nil, oops.Code("ATTACHMENTS_DISABLED").Wrap(common.ErrInternal)
	}

	repo := s.repomanager.Entries(s.db)
	owned, err := repo.IsOwner(ctx, session.AccountID, id)
	if err != nil {
		return nil, err
	}
	if !owned {
		return nil, forbidden("ENTRY_ATTACHMENT_FORBIDDEN", "entry_id", id, "account_id", session.AccountID)
	}

	key := NewStorageKey(s.now())
	url, err := s.store.PresignPut(ctx, key)
	if err != nil {
		return nil, err
	}

	if err := repo.SetAttachment(ctx, id, session.AccountID, key); err != nil {
		return nil, err
	}
	return &models.AttachmentURL{EntryID: id, Key: key, URL: url}, nil
}

// AttachmentDownloadURL returns a presigned download URL for the entry's
// attachment, or common.ErrNotFound when it has none.
func (s *EntryService) AttachmentDownloadURL(ctx context.Context, id int64) (*models.AttachmentURL, error) {
	if s.store == nil {
		return nil, oops.Code("ATTACHMENTS_DISABLED").Wrap(common.ErrInternal)
	}

	entry, err := s.repomanager.Entries(s.db).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if entry.AttachmentKey == "" {
		return nil, oops.Code("ATTACHMENT_NOT_FOUND").With("entry_id", id).Wrap(common.ErrNotFound)
	}

	url, err := s.store.PresignGet(ctx, entry.AttachmentKey)
	if err != nil {
		return nil, err
	}
	return &models.AttachmentURL{EntryID: id, Key: entry.AttachmentKey, URL: url}, nil
}
