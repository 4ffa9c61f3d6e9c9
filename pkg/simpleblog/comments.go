package simpleblog

import (
	"context"
	"errors"
)

// CommentAggregator reads a post's comments together with their author
// projection.
type CommentAggregator struct {
	repository Repository
}

// NewCommentAggregator creates a comment aggregator over repo
func NewCommentAggregator(repo Repository) *CommentAggregator {
	return &CommentAggregator{repository: repo}
}

// GetComments returns every comment on postID, oldest first. A post without
// comments yields an empty slice; a missing post is ErrPostNotFound even when
// comments that referenced it remain.
func (a *CommentAggregator) GetComments(ctx context.Context, postID string) ([]*Comment, error) {
	if _, err := a.repository.GetPost(ctx, postID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, &PostError{PostID: postID, Op: "get", Err: err}
	}
	return a.list(ctx, postID)
}

// list fetches comments without checking that the post exists
func (a *CommentAggregator) list(ctx context.Context, postID string) ([]*Comment, error) {
	comments, err := a.repository.ListComments(ctx, postID)
	if err != nil {
		return nil, &PostError{PostID: postID, Op: "list_comments", Err: err}
	}
	if comments == nil {
		comments = []*Comment{}
	}
	return comments, nil
}
