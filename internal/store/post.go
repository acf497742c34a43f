package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/pothyeswaran/blogserver/types"
)

// PostRepository handles persistence for posts.
type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) Get(ctx context.Context, id int) (types.Post, error) {
	const query = `
		SELECT p.id, p.title, p.summary, p.content, p.cover, p.author_id,
			COALESCE(u.username, ''), p.created_at, p.updated_at
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		WHERE p.id = $1`
	var post types.Post
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&post.ID,
		&post.Title,
		&post.Summary,
		&post.Content,
		&post.Cover,
		&post.AuthorID,
		&post.Author,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Post{}, ErrNotFound
		}
		return types.Post{}, err
	}
	return post, nil
}

// ListRecent returns the newest posts first, at most limit entries, with the
// author username resolved for display. A post whose author row is missing is
// returned with an empty username rather than dropped.
func (r *PostRepository) ListRecent(ctx context.Context, limit int) ([]types.Post, error) {
	const query = `
		SELECT p.id, p.title, p.summary, p.content, p.cover, p.author_id,
			COALESCE(u.username, ''), p.created_at, p.updated_at
		FROM posts p
		LEFT JOIN users u ON u.id = p.author_id
		ORDER BY p.created_at DESC
		LIMIT $1`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := make([]types.Post, 0, limit)
	for rows.Next() {
		var post types.Post
		if err := rows.Scan(
			&post.ID,
			&post.Title,
			&post.Summary,
			&post.Content,
			&post.Cover,
			&post.AuthorID,
			&post.Author,
			&post.CreatedAt,
			&post.UpdatedAt,
		); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

func (r *PostRepository) Create(ctx context.Context, post types.Post) (types.Post, error) {
	now := time.Now()
	post.CreatedAt = now
	post.UpdatedAt = now

	const query = `
		INSERT INTO posts (title, summary, content, cover, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		post.Title,
		post.Summary,
		post.Content,
		post.Cover,
		post.AuthorID,
		post.CreatedAt,
		post.UpdatedAt,
	).Scan(&post.ID); err != nil {
		return types.Post{}, err
	}
	return post, nil
}

// Update persists title, summary, content and cover. The author reference is
// deliberately not part of the statement; it is immutable after creation.
func (r *PostRepository) Update(ctx context.Context, post types.Post) (types.Post, error) {
	post.UpdatedAt = time.Now()

	const query = `
		UPDATE posts
		SET title = $1,
			summary = $2,
			content = $3,
			cover = $4,
			updated_at = $5
		WHERE id = $6`
	result, err := r.db.ExecContext(
		ctx,
		query,
		post.Title,
		post.Summary,
		post.Content,
		post.Cover,
		post.UpdatedAt,
		post.ID,
	)
	if err != nil {
		return types.Post{}, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return types.Post{}, err
	}
	if affected == 0 {
		return types.Post{}, ErrNotFound
	}
	return post, nil
}
