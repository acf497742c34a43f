package types

import "time"

// Post represents a published article.
// The author reference is stamped from the authenticated identity at
// creation time and never changes afterwards.
type Post struct {
	// ID is the unique identifier of the post.
	ID int `json:"id" db:"id"`

	// Title is the headline of the post.
	Title string `json:"title" db:"title"`

	// Summary is a short teaser shown in listings.
	Summary string `json:"summary" db:"summary"`

	// Content is the full body of the post. Free text, unbounded.
	Content string `json:"content" db:"content"`

	// Cover is a relative reference to the post's cover media asset,
	// resolvable under the static media root. Empty when the post has
	// no cover.
	Cover string `json:"cover" db:"cover"`

	// AuthorID is the identifier of the user who created the post.
	AuthorID int `json:"author_id" db:"author_id"`

	// Author is the author's username, populated on reads for display.
	// A post whose author record cannot be resolved keeps an empty
	// Author rather than failing the read.
	Author string `json:"author,omitempty" db:"-"`

	// CreatedAt is the timestamp at which the post was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the post.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
