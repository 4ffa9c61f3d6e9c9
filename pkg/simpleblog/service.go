package simpleblog

import "context"

// Service defines the main interface for the simple-blog core
type Service interface {
	// Listings
	ListPosts(ctx context.Context, req ListPostsRequest) (*Page, error)
	ListPostsByTag(ctx context.Context, req ListPostsByTagRequest) (*Page, error)

	// Post operations
	CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error)
	ReadPost(ctx context.Context, postID string) (*PostView, error)
	GetPostForEdit(ctx context.Context, postID, actorID string) (*Post, error)
	UpdatePost(ctx context.Context, req UpdatePostRequest) error
	DeletePost(ctx context.Context, postID, actorID string) error

	// Comment operations
	GetComments(ctx context.Context, postID string) ([]*Comment, error)
	CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error)
	DeleteComment(ctx context.Context, commentID, actorID string) error
}
