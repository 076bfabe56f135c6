package models

import "time"

// Blab is a short post. Content is validated to 1-280 characters at the
// input boundary; rows are immutable once written.
type Blab struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// Mention links a blab to an identity it tags by name. One row per @name
// occurrence that resolved to an existing, non-author user.
type Mention struct {
	ID     string
	BlabID string
	UserID string
}

// FeedItem is one row of a feed view: the blab plus its author's username.
type FeedItem struct {
	Content   string
	CreatedAt time.Time
	Username  string
}
