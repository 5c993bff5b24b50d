package models

// Reply is a comment attached to an entry, owned by its author.
type Reply struct {
	ID        int64  `json:"id"`
	Content   string `json:"content"`
	EntryID   int64  `json:"kb_id"`
	AccountID int64  `json:"account_id"`
}

// NewReply is the client-supplied content of a reply.
type NewReply struct {
	Content string `json:"content"`
	EntryID int64  `json:"kb_id"`
}
