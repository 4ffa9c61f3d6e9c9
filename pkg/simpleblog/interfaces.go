package simpleblog

import "context"

// Repository defines the interface for post and comment persistence.
//
// Implementations must make IncrementViews atomic per post: concurrent
// increments of the same post are never lost. Other mutations are
// last-writer-wins.
type Repository interface {
	// CreatePost stores post, assigning post.ID when it is empty
	CreatePost(ctx context.Context, post *Post) error

	// GetPost returns the post with its author projection. A miss is ErrNotFound.
	GetPost(ctx context.Context, id string) (*Post, error)

	// UpdatePost persists Title, Tag, Content and UpdatedAt only
	UpdatePost(ctx context.Context, post *Post) error
	DeletePost(ctx context.Context, id string) error

	// CountPosts returns the number of posts matching filter
	CountPosts(ctx context.Context, filter PostFilter) (int, error)

	// ListPosts returns matching posts newest first. A limit <= 0 returns
	// every match starting at offset.
	ListPosts(ctx context.Context, filter PostFilter, limit, offset int) ([]*Post, error)

	// IncrementViews atomically adds one to the post's view count
	IncrementViews(ctx context.Context, id string) error

	// CreateComment stores comment, assigning comment.ID when it is empty
	CreateComment(ctx context.Context, comment *Comment) error
	GetComment(ctx context.Context, id string) (*Comment, error)
	DeleteComment(ctx context.Context, id string) error

	// ListComments returns the post's comments oldest first
	ListComments(ctx context.Context, postID string) ([]*Comment, error)

	// DeleteCommentsByPost removes every comment attached to postID
	DeleteCommentsByPost(ctx context.Context, postID string) error
}

// UserRepository defines the interface for user account persistence
type UserRepository interface {
	// CreateUser stores user, assigning user.ID when it is empty. Names are
	// unique; a duplicate is reported as ErrUserExists.
	CreateUser(ctx context.Context, user *User) error
	GetUser(ctx context.Context, id string) (*User, error)
	GetUserByName(ctx context.Context, name string) (*User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
}

// EventSink defines the interface for event handling
type EventSink interface {
	// PostCreated is fired when a post is published
	PostCreated(ctx context.Context, post *Post) error

	// PostUpdated is fired when a post is edited
	PostUpdated(ctx context.Context, post *Post) error

	// PostDeleted is fired when a post is removed
	PostDeleted(ctx context.Context, postID string) error

	// CommentCreated is fired when a comment is added
	CommentCreated(ctx context.Context, comment *Comment) error

	// CommentDeleted is fired when a comment is removed
	CommentDeleted(ctx context.Context, commentID string) error
}
