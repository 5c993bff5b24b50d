package services

import (
	"context"
	"database/sql"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/oops"

	"github.com/dmitrijs2005/kbcenter/internal/common"
	"github.com/dmitrijs2005/kbcenter/internal/dbx"
	"github.com/dmitrijs2005/kbcenter/internal/server/models"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/entries"
	"github.com/dmitrijs2005/kbcenter/internal/server/repositories/replies"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// memStore backs the fake repositories with maps so ownership rules can be
// exercised across several accounts.
type memStore struct {
	mu       sync.Mutex
	accounts map[string]*models.Account
	entries  map[int64]*models.Entry
	replies  map[int64]*models.Reply
	seq      int64

	// failure injection
	entriesErr error
	repliesErr error
	locked     []int64
}

func newMemStore() *memStore {
	return &memStore{
		accounts: map[string]*models.Account{},
		entries:  map[int64]*models.Entry{},
		replies:  map[int64]*models.Reply{},
	}
}

func (m *memStore) next() int64 {
	m.seq++
	return m.seq
}

func notFound() error {
	return oops.Code("FAKE_NOT_FOUND").Wrap(common.ErrNotFound)
}

type memRepoManager struct{ s *memStore }

func (m *memRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *memRepoManager) Accounts(dbx.DBTX) accounts.Repository        { return (*memAccounts)(m.s) }
func (m *memRepoManager) Entries(dbx.DBTX) entries.Repository          { return (*memEntries)(m.s) }
func (m *memRepoManager) Replies(dbx.DBTX) replies.Repository          { return (*memReplies)(m.s) }

// --- accounts ---

type memAccounts memStore

func (r *memAccounts) Create(_ context.Context, a *models.Account) (*models.Account, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[a.Email]; ok {
		return nil, oops.Code("FAKE_DUPLICATE").Wrap(common.ErrDuplicateAccount)
	}
	c := *a
	c.ID = s.next()
	s.accounts[a.Email] = &c
	out := c
	return &out, nil
}

func (r *memAccounts) GetByEmail(_ context.Context, email string) (*models.Account, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.accounts[email]
	if !ok {
		return nil, notFound()
	}
	out := *a
	return &out, nil
}

// --- entries ---

type memEntries memStore

func (r *memEntries) List(_ context.Context, limit *int, offset int) ([]*models.Entry, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entriesErr != nil {
		return nil, s.entriesErr
	}

	ids := make([]int64, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	out := []*models.Entry{}
	for i, id := range ids {
		if i < offset {
			continue
		}
		if limit != nil && len(out) >= *limit {
			break
		}
		e := *s.entries[id]
		out = append(out, &e)
	}
	return out, nil
}

func (r *memEntries) GetByID(_ context.Context, id int64) (*models.Entry, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entriesErr != nil {
		return nil, s.entriesErr
	}
	e, ok := s.entries[id]
	if !ok {
		return nil, notFound()
	}
	out := *e
	return &out, nil
}

func (r *memEntries) Create(_ context.Context, e *models.Entry) (*models.Entry, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entriesErr != nil {
		return nil, s.entriesErr
	}
	c := *e
	c.ID = s.next()
	s.entries[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memEntries) IsOwner(_ context.Context, accountID, entryID int64) (bool, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.entriesErr != nil {
		return false, s.entriesErr
	}
	e, ok := s.entries[entryID]
	return ok && e.AccountID == accountID, nil
}

func (r *memEntries) Update(_ context.Context, e *models.Entry, entryID, accountID int64) (*models.Entry, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[entryID]
	if !ok || cur.AccountID != accountID {
		return nil, oops.Code("ENTRY_UPDATE_FORBIDDEN").Wrap(common.ErrUnauthorized)
	}
	cur.Title, cur.Content, cur.Tags = e.Title, e.Content, e.Tags
	out := *cur
	return &out, nil
}

func (r *memEntries) Delete(_ context.Context, entryID, accountID int64) (bool, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[entryID]
	if !ok || cur.AccountID != accountID {
		return false, nil
	}
	delete(s.entries, entryID)
	for id, rp := range s.replies {
		if rp.EntryID == entryID {
			delete(s.replies, id)
		}
	}
	return true, nil
}

func (r *memEntries) SetAttachment(_ context.Context, entryID, accountID int64, key string) error {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	cur, ok := s.entries[entryID]
	if !ok || cur.AccountID != accountID {
		return oops.Code("ENTRY_ATTACHMENT_FORBIDDEN").Wrap(common.ErrUnauthorized)
	}
	cur.AttachmentKey = key
	return nil
}

func (r *memEntries) LockShared(_ context.Context, entryID int64) error {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[entryID]; !ok {
		return notFound()
	}
	s.locked = append(s.locked, entryID)
	return nil
}

// --- replies ---

type memReplies memStore

func (r *memReplies) Create(_ context.Context, rp *models.Reply) (*models.Reply, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.repliesErr != nil {
		return nil, s.repliesErr
	}
	c := *rp
	c.ID = s.next()
	s.replies[c.ID] = &c
	out := c
	return &out, nil
}

func (r *memReplies) ListByEntry(_ context.Context, entryID int64) ([]*models.Reply, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.Reply{}
	for _, rp := range s.replies {
		if rp.EntryID == entryID {
			c := *rp
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *memReplies) IsOwner(_ context.Context, accountID, replyID int64) (bool, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.replies[replyID]
	return ok && rp.AccountID == accountID, nil
}

func (r *memReplies) Update(_ context.Context, replyID, accountID int64, content string) (*models.Reply, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.replies[replyID]
	if !ok || rp.AccountID != accountID {
		return nil, oops.Code("REPLY_UPDATE_FORBIDDEN").Wrap(common.ErrUnauthorized)
	}
	rp.Content = content
	out := *rp
	return &out, nil
}

func (r *memReplies) Delete(_ context.Context, replyID, accountID int64) (bool, error) {
	s := (*memStore)(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	rp, ok := s.replies[replyID]
	if !ok || rp.AccountID != accountID {
		return false, nil
	}
	delete(s.replies, replyID)
	return true, nil
}

// --- credentials ---

// plainHasher stores "plain$<password>" and never touches argon2.
type plainHasher struct {
	verified []string
}

func (h *plainHasher) Hash(p string) (string, error) { return "plain$" + p, nil }

func (h *plainHasher) Verify(encoded, p string) (bool, error) {
	h.verified = append(h.verified, encoded)
	if !strings.HasPrefix(encoded, "plain$") {
		return false, oops.Code("FAKE_HASH_FORMAT").Wrap(common.ErrHashFormat)
	}
	return encoded == "plain$"+p, nil
}

type fakeTokens struct {
	issued []int64
}

func (f *fakeTokens) Issue(accountID int64) (string, error) {
	f.issued = append(f.issued, accountID)
	return "token-" + strings.Repeat("x", int(accountID)), nil
}

func (f *fakeTokens) Validate(token string) (*models.Session, error) {
	if !strings.HasPrefix(token, "token-") {
		return nil, oops.Code("FAKE_TOKEN").Wrap(common.ErrFailTokenDecryption)
	}
	return &models.Session{AccountID: int64(len(token) - len("token-"))}, nil
}

// --- object store ---

type fakeObjectStore struct {
	putKeys   []string
	deleted   []string
	putErr    error
	getErr    error
	deleteErr error
}

func (f *fakeObjectStore) PresignPut(_ context.Context, key string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	f.putKeys = append(f.putKeys, key)
	return "https://put/" + key, nil
}

func (f *fakeObjectStore) PresignGet(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	return "https://get/" + key, nil
}

func (f *fakeObjectStore) Delete(_ context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

func session(id int64) *models.Session { return &models.Session{AccountID: id} }

type failingAccountsManager struct {
	memRepoManager
	err error
}

func (m *failingAccountsManager) Accounts(dbx.DBTX) accounts.Repository {
	return failingAccounts{err: m.err}
}

type failingAccounts struct{ err error }

func (f failingAccounts) Create(context.Context, *models.Account) (*models.Account, error) {
	return nil, f.err
}

func (f failingAccounts) GetByEmail(context.Context, string) (*models.Account, error) {
	return nil, f.err
}
