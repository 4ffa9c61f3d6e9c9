package simpleblog

import (
	"context"
	"log/slog"
)

// NoopEventSink is a no-operation implementation of EventSink
// Useful for production when you don't need event handling or for testing
type NoopEventSink struct{}

// NewNoopEventSink creates a new no-operation event sink
func NewNoopEventSink() EventSink {
	return &NoopEventSink{}
}

func (n *NoopEventSink) PostCreated(ctx context.Context, post *Post) error          { return nil }
func (n *NoopEventSink) PostUpdated(ctx context.Context, post *Post) error          { return nil }
func (n *NoopEventSink) PostDeleted(ctx context.Context, postID string) error       { return nil }
func (n *NoopEventSink) CommentCreated(ctx context.Context, comment *Comment) error { return nil }
func (n *NoopEventSink) CommentDeleted(ctx context.Context, commentID string) error { return nil }

// LoggingEventSink is an event sink that logs events but takes no other action
type LoggingEventSink struct {
	logger *slog.Logger
}

// NewLoggingEventSink creates a new logging event sink. A nil logger uses
// slog.Default().
func NewLoggingEventSink(logger *slog.Logger) EventSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingEventSink{logger: logger}
}

// PostCreated logs the post creation event
func (l *LoggingEventSink) PostCreated(ctx context.Context, post *Post) error {
	l.logger.InfoContext(ctx, "Post created", "post_id", post.ID, "author_id", post.Author.ID, "tag", post.Tag)
	return nil
}

// PostUpdated logs the post update event
func (l *LoggingEventSink) PostUpdated(ctx context.Context, post *Post) error {
	l.logger.InfoContext(ctx, "Post updated", "post_id", post.ID, "tag", post.Tag)
	return nil
}

// PostDeleted logs the post deletion event
func (l *LoggingEventSink) PostDeleted(ctx context.Context, postID string) error {
	l.logger.InfoContext(ctx, "Post deleted", "post_id", postID)
	return nil
}

// CommentCreated logs the comment creation event
func (l *LoggingEventSink) CommentCreated(ctx context.Context, comment *Comment) error {
	l.logger.InfoContext(ctx, "Comment created", "comment_id", comment.ID, "post_id", comment.PostID)
	return nil
}

// CommentDeleted logs the comment deletion event
func (l *LoggingEventSink) CommentDeleted(ctx context.Context, commentID string) error {
	l.logger.InfoContext(ctx, "Comment deleted", "comment_id", commentID)
	return nil
}
