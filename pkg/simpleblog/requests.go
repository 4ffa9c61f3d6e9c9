package simpleblog

// ListPostsRequest lists all posts, or only AuthorID's posts when set.
type ListPostsRequest struct {
	AuthorID string
	Page     int
}

// ListPostsByTagRequest lists posts with an exact tag match.
type ListPostsByTagRequest struct {
	AuthorID string
	Tag      string
	Page     int
}

// CreatePostRequest contains parameters for publishing a post
type CreatePostRequest struct {
	AuthorID string
	Title    string
	Tag      string
	Content  string
}

// UpdatePostRequest contains parameters for editing a post in place
type UpdatePostRequest struct {
	PostID  string
	ActorID string
	Title   string
	Tag     string
	Content string
}

// CreateCommentRequest contains parameters for commenting on a post
type CreateCommentRequest struct {
	PostID   string
	AuthorID string
	Content  string
}
