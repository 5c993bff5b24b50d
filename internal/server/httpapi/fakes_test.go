package httpapi

import (
	"context"

	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/pagination"
)

const goodToken = "good-token"

type fakeAccounts struct {
	registerErr error
	loginErr    error
}

func (f *fakeAccounts) Register(_ context.Context, email, _ string) (*models.Account, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.Account{ID: 1, Email: email, Password: "must-not-leak"}, nil
}

func (f *fakeAccounts) Login(context.Context, string, string) (string, error) {
	if f.loginErr != nil {
		return "", f.loginErr
	}
	return goodToken, nil
}

func (f *fakeAccounts) Authenticate(token string) (*models.Session, error) {
	if token != goodToken {
		return nil, oops.Code("TOKEN_INVALID").Wrap(common.ErrFailTokenDecryption)
	}
	return &models.Session{AccountID: 7}, nil
}

type fakeEntries struct {
	err         error
	gotPage     pagination.Pagination
	gotSession  *models.Session
	gotNewEntry models.NewEntry
	list        []*models.Entry
}

func (f *fakeEntries) List(_ context.Context, p pagination.Pagination) ([]*models.Entry, error) {
	f.gotPage = p
	return f.list, f.err
}

func (f *fakeEntries) Get(_ context.Context, id int64) (*models.Entry, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.Entry{ID: id, Title: "t", AccountID: 7}, nil
}

func (f *fakeEntries) Create(_ context.Context, s *models.Session, in models.NewEntry) (*models.Entry, error) {
	f.gotSession, f.gotNewEntry = s, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Entry{ID: 3, Title: in.Title, Content: in.Content, Tags: in.Tags, AccountID: s.AccountID}, nil
}

func (f *fakeEntries) Update(_ context.Context, s *models.Session, id int64, in models.NewEntry) (*models.Entry, error) {
	f.gotSession, f.gotNewEntry = s, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Entry{ID: id, Title: in.Title, AccountID: s.AccountID}, nil
}

func (f *fakeEntries) Delete(_ context.Context, s *models.Session, _ int64) error {
	f.gotSession = s
	return f.err
}

func (f *fakeEntries) AttachmentUploadURL(_ context.Context, s *models.Session, id int64) (*models.AttachmentURL, error) {
	f.gotSession = s
	if f.err != nil {
		return nil, f.err
	}
	return &models.AttachmentURL{EntryID: id, Key: "k", URL: "https://put"}, nil
}

func (f *fakeEntries) AttachmentDownloadURL(_ context.Context, id int64) (*models.AttachmentURL, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.AttachmentURL{EntryID: id, Key: "k", URL: "https://get"}, nil
}

type fakeReplies struct {
	err        error
	gotSession *models.Session
	gotNew     models.NewReply
	gotContent string
}

func (f *fakeReplies) Add(_ context.Context, s *models.Session, in models.NewReply) (*models.Reply, error) {
	f.gotSession, f.gotNew = s, in
	if f.err != nil {
		return nil, f.err
	}
	return &models.Reply{ID: 9, Content: in.Content, EntryID: in.EntryID, AccountID: s.AccountID}, nil
}

func (f *fakeReplies) List(context.Context, int64) ([]*models.Reply, error) {
	return nil, f.err
}

func (f *fakeReplies) Update(_ context.Context, s *models.Session, id int64, content string) (*models.Reply, error) {
	f.gotSession, f.gotContent = s, content
	if f.err != nil {
		return nil, f.err
	}
	return &models.Reply{ID: id, Content: content, AccountID: s.AccountID}, nil
}

func (f *fakeReplies) Delete(_ context.Context, s *models.Session, _ int64) error {
	f.gotSession = s
	return f.err
}
