package simpleblog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// service implements the Service interface
type service struct {
	repository      Repository
	eventSink       EventSink
	logger          *slog.Logger
	cascadeComments bool

	views    *ViewCounter
	comments *CommentAggregator
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithEventSink sets the event sink for the service
func WithEventSink(sink EventSink) Option {
	return func(s *service) {
		s.eventSink = sink
	}
}

// WithLogger sets the logger used for best-effort failures
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

// WithCommentCascade makes DeletePost also remove the post's comments.
// Comments are kept by default.
func WithCommentCascade(enabled bool) Option {
	return func(s *service) {
		s.cascadeComments = enabled
	}
}

// New creates a new service instance with the given options
func New(options ...Option) (Service, error) {
	s := &service{}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, fmt.Errorf("repository is required")
	}
	if s.eventSink == nil {
		s.eventSink = NewNoopEventSink()
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.views = NewViewCounter(s.repository, s.logger)
	s.comments = NewCommentAggregator(s.repository)

	return s, nil
}

// Listings

func (s *service) ListPosts(ctx context.Context, req ListPostsRequest) (*Page, error) {
	filter := PostFilter{AuthorID: CanonicalID(req.AuthorID)}
	return s.listPage(ctx, filter, req.Page, PostsPageSize)
}

func (s *service) ListPostsByTag(ctx context.Context, req ListPostsByTagRequest) (*Page, error) {
	tag := strings.TrimSpace(req.Tag)
	if tag == "" {
		return nil, Required("tag")
	}
	filter := PostFilter{AuthorID: CanonicalID(req.AuthorID), Tag: tag}
	return s.listPage(ctx, filter, req.Page, TagsPageSize)
}

// listPage counts, paginates and fetches one page. Result sets that fit in a
// single page are fetched whole.
func (s *service) listPage(ctx context.Context, filter PostFilter, requestedPage, pageSize int) (*Page, error) {
	total, err := s.repository.CountPosts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	p := Paginate(total, requestedPage, pageSize)

	limit, offset := 0, 0
	if total > pageSize {
		limit, offset = pageSize, p.Offset
	}

	posts, err := s.repository.ListPosts(ctx, filter, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	if posts == nil {
		posts = []*Post{}
	}

	return &Page{
		Posts:      posts,
		Page:       p.Page,
		TotalPages: p.TotalPages,
		TotalCount: total,
		PageSize:   pageSize,
	}, nil
}

// Post operations

func (s *service) CreatePost(ctx context.Context, req CreatePostRequest) (*Post, error) {
	title, tag, content, err := validatePostFields(req.Title, req.Tag, req.Content)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	post := &Post{
		Author:    Author{ID: strings.TrimSpace(req.AuthorID)},
		Title:     title,
		Tag:       tag,
		Content:   content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repository.CreatePost(ctx, post); err != nil {
		return nil, &PostError{PostID: post.ID, Op: "create", Err: err}
	}

	if err := s.eventSink.PostCreated(ctx, post); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "post_created", "post_id", post.ID, "error", err)
	}

	return post, nil
}

func (s *service) ReadPost(ctx context.Context, postID string) (*PostView, error) {
	var (
		g        errgroup.Group
		post     *Post
		comments []*Comment
	)

	g.Go(func() error {
		p, err := s.getPost(ctx, postID)
		if err != nil {
			return err
		}
		post = p
		return nil
	})
	g.Go(func() error {
		c, err := s.comments.list(ctx, postID)
		if err != nil {
			return err
		}
		comments = c
		return nil
	})
	g.Go(func() error {
		s.views.Increment(ctx, postID)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &PostView{Post: post, Comments: comments}, nil
}

func (s *service) GetPostForEdit(ctx context.Context, postID, actorID string) (*Post, error) {
	post, err := s.getPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if err := Authorize(actorID, post.Author.ID); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *service) UpdatePost(ctx context.Context, req UpdatePostRequest) error {
	post, err := s.GetPostForEdit(ctx, req.PostID, req.ActorID)
	if err != nil {
		return err
	}

	title, tag, content, err := validatePostFields(req.Title, req.Tag, req.Content)
	if err != nil {
		return err
	}

	post.Title = title
	post.Tag = tag
	post.Content = content
	post.UpdatedAt = time.Now().UTC()

	if err := s.repository.UpdatePost(ctx, post); err != nil {
		return &PostError{PostID: post.ID, Op: "update", Err: err}
	}

	if err := s.eventSink.PostUpdated(ctx, post); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "post_updated", "post_id", post.ID, "error", err)
	}

	return nil
}

func (s *service) DeletePost(ctx context.Context, postID, actorID string) error {
	post, err := s.GetPostForEdit(ctx, postID, actorID)
	if err != nil {
		return err
	}

	if err := s.repository.DeletePost(ctx, post.ID); err != nil {
		return &PostError{PostID: post.ID, Op: "delete", Err: err}
	}

	// the post is already gone; leftover comments are unreachable through GetComments
	if s.cascadeComments {
		if err := s.repository.DeleteCommentsByPost(ctx, post.ID); err != nil {
			s.logger.WarnContext(ctx, "Failed to delete comments of deleted post", "post_id", post.ID, "error", err)
		}
	}

	if err := s.eventSink.PostDeleted(ctx, post.ID); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "post_deleted", "post_id", post.ID, "error", err)
	}

	return nil
}

// Comment operations

func (s *service) GetComments(ctx context.Context, postID string) ([]*Comment, error) {
	return s.comments.GetComments(ctx, postID)
}

func (s *service) CreateComment(ctx context.Context, req CreateCommentRequest) (*Comment, error) {
	post, err := s.getPost(ctx, req.PostID)
	if err != nil {
		return nil, err
	}

	content := strings.TrimSpace(req.Content)
	if content == "" {
		return nil, Required("content")
	}

	comment := &Comment{
		PostID:    post.ID,
		Author:    Author{ID: strings.TrimSpace(req.AuthorID)},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repository.CreateComment(ctx, comment); err != nil {
		return nil, &CommentError{CommentID: comment.ID, Op: "create", Err: err}
	}

	if err := s.eventSink.CommentCreated(ctx, comment); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "comment_created", "comment_id", comment.ID, "error", err)
	}

	return comment, nil
}

func (s *service) DeleteComment(ctx context.Context, commentID, actorID string) error {
	comment, err := s.repository.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return ErrCommentNotFound
		}
		return &CommentError{CommentID: commentID, Op: "get", Err: err}
	}

	if err := Authorize(actorID, comment.Author.ID); err != nil {
		return err
	}

	if err := s.repository.DeleteComment(ctx, comment.ID); err != nil {
		return &CommentError{CommentID: comment.ID, Op: "delete", Err: err}
	}

	if err := s.eventSink.CommentDeleted(ctx, comment.ID); err != nil {
		s.logger.WarnContext(ctx, "Event sink failed", "event", "comment_deleted", "comment_id", comment.ID, "error", err)
	}

	return nil
}

// getPost fetches a post, mapping store misses to ErrPostNotFound
func (s *service) getPost(ctx context.Context, postID string) (*Post, error) {
	post, err := s.repository.GetPost(ctx, postID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, &PostError{PostID: postID, Op: "get", Err: err}
	}
	return post, nil
}

// validatePostFields trims the editable fields and reports the first empty one
func validatePostFields(title, tag, content string) (string, string, string, error) {
	title = strings.TrimSpace(title)
	tag = strings.TrimSpace(tag)
	content = strings.TrimSpace(content)

	switch {
	case title == "":
		return "", "", "", Required("title")
	case tag == "":
		return "", "", "", Required("tag")
	case content == "":
		return "", "", "", Required("content")
	}
	return title, tag, content, nil
}
