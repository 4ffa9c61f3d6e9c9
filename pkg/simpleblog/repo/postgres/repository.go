package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Schema creates the tables used by Repository. Comments carry no foreign key
// to posts so that a post can be removed while its comments are kept.
const Schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS posts (
	id         TEXT PRIMARY KEY,
	author_id  TEXT NOT NULL,
	title      TEXT NOT NULL,
	tag        TEXT NOT NULL,
	content    TEXT NOT NULL,
	views      BIGINT NOT NULL DEFAULT 0,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS posts_author_created_idx ON posts (author_id, created_at DESC);
CREATE INDEX IF NOT EXISTS posts_tag_created_idx ON posts (tag, created_at DESC);

CREATE TABLE IF NOT EXISTS comments (
	id         TEXT PRIMARY KEY,
	post_id    TEXT NOT NULL,
	author_id  TEXT NOT NULL,
	content    TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS comments_post_created_idx ON comments (post_id, created_at);
`

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Repository implements simpleblog.Repository and simpleblog.UserRepository
// using PostgreSQL
type Repository struct {
	db DBTX
}

// New creates a new PostgreSQL repository
func New(db DBTX) *Repository {
	return &Repository{db: db}
}

// NewWithPool creates a new PostgreSQL repository with connection pool
func NewWithPool(pool *pgxpool.Pool) *Repository {
	return &Repository{db: pool}
}

// Migrate applies Schema
func (r *Repository) Migrate(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, Schema); err != nil {
		return r.handlePostgresError("migrate", err)
	}
	return nil
}

// Error handling helper
func (r *Repository) handlePostgresError(operation string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			if pgErr.ConstraintName == "users_name_key" {
				return simpleblog.ErrUserExists
			}
			return fmt.Errorf("duplicate entry in %s: %s", operation, pgErr.ConstraintName)
		case "23502": // not_null_violation
			return fmt.Errorf("required field %s is missing", pgErr.ColumnName)
		case "42P01": // undefined_table
			return fmt.Errorf("table does not exist - database migration required")
		default:
			return fmt.Errorf("database error in %s: %s (code: %s)", operation, pgErr.Message, pgErr.Code)
		}
	}

	return fmt.Errorf("database error in %s: %w", operation, err)
}

const postColumns = `
	p.id, p.author_id, COALESCE(u.name, ''), p.title, p.tag, p.content,
	p.views, p.created_at, p.updated_at`

const postFrom = `
	FROM posts p LEFT JOIN users u ON u.id = p.author_id`

// filterClause matches every post when a parameter is the empty string
const filterClause = `
	WHERE ($1 = '' OR p.author_id = $1) AND ($2 = '' OR p.tag = $2)`

func scanPost(row pgx.Row) (*simpleblog.Post, error) {
	var post simpleblog.Post
	err := row.Scan(
		&post.ID, &post.Author.ID, &post.Author.Name, &post.Title, &post.Tag, &post.Content,
		&post.Views, &post.CreatedAt, &post.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	query := `
		INSERT INTO posts (id, author_id, title, tag, content, views, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		post.ID, post.Author.ID, post.Title, post.Tag, post.Content,
		post.Views, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("create post", err)
	}

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*simpleblog.Post, error) {
	query := `SELECT` + postColumns + postFrom + ` WHERE p.id = $1`

	post, err := scanPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrPostNotFound
		}
		return nil, r.handlePostgresError("get post", err)
	}

	return post, nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post) error {
	query := `
		UPDATE posts SET title = $2, tag = $3, content = $4, updated_at = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, post.ID, post.Title, post.Tag, post.Content, post.UpdatedAt)
	if err != nil {
		return r.handlePostgresError("update post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrPostNotFound
	}

	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete post", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrPostNotFound
	}
	return nil
}

func (r *Repository) CountPosts(ctx context.Context, filter simpleblog.PostFilter) (int, error) {
	query := `SELECT count(*)` + postFrom + filterClause

	var count int64
	if err := r.db.QueryRow(ctx, query, filter.AuthorID, filter.Tag).Scan(&count); err != nil {
		return 0, r.handlePostgresError("count posts", err)
	}
	return int(count), nil
}

func (r *Repository) ListPosts(ctx context.Context, filter simpleblog.PostFilter, limit, offset int) ([]*simpleblog.Post, error) {
	query := `SELECT` + postColumns + postFrom + filterClause + `
		ORDER BY p.created_at DESC, p.id DESC
		OFFSET $3`
	args := []interface{}{filter.AuthorID, filter.Tag, max(offset, 0)}
	if limit > 0 {
		query += ` LIMIT $4`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, r.handlePostgresError("list posts", err)
	}
	defer rows.Close()

	posts := []*simpleblog.Post{}
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan post", err)
		}
		posts = append(posts, post)
	}

	return posts, rows.Err()
}

func (r *Repository) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("increment views", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrPostNotFound
	}
	return nil
}

// Comment operations

const commentSelect = `
	SELECT c.id, c.post_id, c.author_id, COALESCE(u.name, ''), c.content, c.created_at
	FROM comments c LEFT JOIN users u ON u.id = c.author_id`

func scanComment(row pgx.Row) (*simpleblog.Comment, error) {
	var comment simpleblog.Comment
	err := row.Scan(
		&comment.ID, &comment.PostID, &comment.Author.ID, &comment.Author.Name,
		&comment.Content, &comment.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &comment, nil
}

func (r *Repository) CreateComment(ctx context.Context, comment *simpleblog.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	query := `
		INSERT INTO comments (id, post_id, author_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.db.Exec(ctx, query,
		comment.ID, comment.PostID, comment.Author.ID, comment.Content, comment.CreatedAt)
	if err != nil {
		return r.handlePostgresError("create comment", err)
	}
	return nil
}

func (r *Repository) GetComment(ctx context.Context, id string) (*simpleblog.Comment, error) {
	comment, err := scanComment(r.db.QueryRow(ctx, commentSelect+` WHERE c.id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrCommentNotFound
		}
		return nil, r.handlePostgresError("get comment", err)
	}
	return comment, nil
}

func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return r.handlePostgresError("delete comment", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrCommentNotFound
	}
	return nil
}

func (r *Repository) ListComments(ctx context.Context, postID string) ([]*simpleblog.Comment, error) {
	rows, err := r.db.Query(ctx, commentSelect+` WHERE c.post_id = $1 ORDER BY c.created_at, c.id`, postID)
	if err != nil {
		return nil, r.handlePostgresError("list comments", err)
	}
	defer rows.Close()

	comments := []*simpleblog.Comment{}
	for rows.Next() {
		comment, err := scanComment(rows)
		if err != nil {
			return nil, r.handlePostgresError("scan comment", err)
		}
		comments = append(comments, comment)
	}

	return comments, rows.Err()
}

func (r *Repository) DeleteCommentsByPost(ctx context.Context, postID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, postID); err != nil {
		return r.handlePostgresError("delete comments", err)
	}
	return nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simpleblog.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	query := `INSERT INTO users (id, name, password_hash, created_at) VALUES ($1, $2, $3, $4)`
	if _, err := r.db.Exec(ctx, query, user.ID, user.Name, user.PasswordHash, user.CreatedAt); err != nil {
		return r.handlePostgresError("create user", err)
	}
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (*simpleblog.User, error) {
	return r.getUser(ctx, `WHERE id = $1`, id)
}

func (r *Repository) GetUserByName(ctx context.Context, name string) (*simpleblog.User, error) {
	return r.getUser(ctx, `WHERE name = $1`, name)
}

func (r *Repository) getUser(ctx context.Context, where string, arg string) (*simpleblog.User, error) {
	var user simpleblog.User
	err := r.db.QueryRow(ctx, `SELECT id, name, password_hash, created_at FROM users `+where, arg).Scan(
		&user.ID, &user.Name, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, simpleblog.ErrUserNotFound
		}
		return nil, r.handlePostgresError("get user", err)
	}
	return &user, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return r.handlePostgresError("update password", err)
	}
	if tag.RowsAffected() == 0 {
		return simpleblog.ErrUserNotFound
	}
	return nil
}
