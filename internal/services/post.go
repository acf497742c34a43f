package services

import (
	"context"
	"errors"

	"github.com/pothyeswaran/blogserver/internal/mq"
	"github.com/pothyeswaran/blogserver/types"
)

// ErrNotAuthor is returned when a requester tries to modify a post they do
// not own.
var ErrNotAuthor = errors.New("not the author")

// DefaultListLimit caps how many posts a listing returns.
const DefaultListLimit = 20

// PostRepository defines persistence operations for posts.
type PostRepository interface {
	Get(ctx context.Context, id int) (types.Post, error)
	ListRecent(ctx context.Context, limit int) ([]types.Post, error)
	Create(ctx context.Context, post types.Post) (types.Post, error)
	Update(ctx context.Context, post types.Post) (types.Post, error)
}

// PostFields carries the client-writable fields of a post. CoverSet marks
// that a new cover was ingested this call; when false the stored cover is
// left untouched on update.
type PostFields struct {
	Title    string
	Summary  string
	Content  string
	Cover    string
	CoverSet bool
}

// CanModify is the ownership policy: a post may be modified only by the
// user recorded as its author. Additional policies (roles, shared editors)
// belong here, not at the call sites.
func CanModify(requesterID int, post types.Post) bool {
	return post.AuthorID == requesterID
}

// PostService encapsulates post use-cases and ownership enforcement.
type PostService struct {
	repo   PostRepository
	events *mq.PostEvents
}

func NewPostService(repo PostRepository, events *mq.PostEvents) *PostService {
	return &PostService{repo: repo, events: events}
}

// Create stores a new post. The author is always the authenticated identity
// passed in; client-supplied author data is never consulted.
func (s *PostService) Create(ctx context.Context, authorID int, fields PostFields) (types.Post, error) {
	post := types.Post{
		Title:    fields.Title,
		Summary:  fields.Summary,
		Content:  fields.Content,
		Cover:    fields.Cover,
		AuthorID: authorID,
	}

	created, err := s.repo.Create(ctx, post)
	if err != nil {
		return types.Post{}, err
	}

	s.events.Publish(ctx, mq.PostEvent{
		Type:     mq.EventPostCreated,
		PostID:   created.ID,
		AuthorID: created.AuthorID,
		Title:    created.Title,
	})
	return created, nil
}

// Update applies the provided fields to an existing post. A missing post is
// reported before an ownership mismatch, so probing for foreign posts yields
// "not found" rather than "forbidden".
func (s *PostService) Update(ctx context.Context, postID, requesterID int, fields PostFields) (types.Post, error) {
	post, err := s.repo.Get(ctx, postID)
	if err != nil {
		return types.Post{}, err
	}

	if !CanModify(requesterID, post) {
		return types.Post{}, ErrNotAuthor
	}

	post.Title = fields.Title
	post.Summary = fields.Summary
	post.Content = fields.Content
	if fields.CoverSet {
		post.Cover = fields.Cover
	}

	updated, err := s.repo.Update(ctx, post)
	if err != nil {
		return types.Post{}, err
	}
	updated.Author = post.Author

	s.events.Publish(ctx, mq.PostEvent{
		Type:     mq.EventPostUpdated,
		PostID:   updated.ID,
		AuthorID: updated.AuthorID,
		Title:    updated.Title,
	})
	return updated, nil
}

func (s *PostService) Get(ctx context.Context, id int) (types.Post, error) {
	return s.repo.Get(ctx, id)
}

// ListRecent returns the newest posts first, capped at DefaultListLimit.
func (s *PostService) ListRecent(ctx context.Context, limit int) ([]types.Post, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.repo.ListRecent(ctx, limit)
}
