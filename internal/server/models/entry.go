package models

// Entry is a knowledge-base article. AccountID is set once at creation from
// the author's session and is the only key consulted for update and delete.
type Entry struct {
	ID            int64    `json:"id"`
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	Tags          []string `json:"tags"`
	AccountID     int64    `json:"account_id"`
	AttachmentKey string   `json:"attachment_key,omitempty"`
}

// NewEntry is the client-supplied content of an entry. It carries no owner.
type NewEntry struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// AttachmentURL is a presigned object-storage URL for an entry attachment.
type AttachmentURL struct {
	EntryID int64  `json:"kb_id"`
	Key     string `json:"key"`
	URL     string `json:"url"`
}
