package httpapi

import (
	"context"

	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/pagination"
)

// AccountService is implemented by services.AccountService.
type AccountService interface {
	Register(ctx context.Context, email, password string) (*models.Account, error)
	Login(ctx context.Context, email, password string) (string, error)
	Authenticate(token string) (*models.Session, error)
}

// EntryService is implemented by services.EntryService.
type EntryService interface {
	List(ctx context.Context, p pagination.Pagination) ([]*models.Entry, error)
	Get(ctx context.Context, id int64) (*models.Entry, error)
	Create(ctx context.Context, session *models.Session, in models.NewEntry) (*models.Entry, error)
	Update(ctx context.Context, session *models.Session, id int64, in models.NewEntry) (*models.Entry, error)
	Delete(ctx context.Context, session *models.Session, id int64) error
	AttachmentUploadURL(ctx context.Context, session *models.Session, id int64) (*models.AttachmentURL, error)
	AttachmentDownloadURL(ctx context.Context, id int64) (*models.AttachmentURL, error)
}

// ReplyService is implemented by services.ReplyService.
type ReplyService interface {
	Add(ctx context.Context, session *models.Session, in models.NewReply) (*models.Reply, error)
	List(ctx context.Context, entryID int64) ([]*models.Reply, error)
	Update(ctx context.Context, session *models.Session, replyID int64, content string) (*models.Reply, error)
	Delete(ctx context.Context, session *models.Session, replyID int64) error
}
