// Package admin provides operational read access to posts across all
// authors: listing, counting and aggregated statistics. It bypasses the
// ownership rules of the public service and must not be exposed without
// appropriate protection.
package admin

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/tendant/simple-blog/pkg/simpleblog"
)

const defaultLimit = 100

// Filters restricts admin listings. Empty fields do not filter.
type Filters struct {
	AuthorID string `json:"author_id,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Limit    int    `json:"limit,omitempty"`
	Offset   int    `json:"offset,omitempty"`
}

// ListResponse is one window of posts
type ListResponse struct {
	Posts   []*simpleblog.Post `json:"posts"`
	Limit   int                `json:"limit"`
	Offset  int                `json:"offset"`
	Total   int                `json:"total"`
	HasMore bool               `json:"has_more"`
}

// Statistics aggregates posts
type Statistics struct {
	TotalPosts    int                `json:"total_posts"`
	TotalViews    int64              `json:"total_views"`
	TotalComments int                `json:"total_comments"`
	ByTag         map[string]int     `json:"by_tag,omitempty"`
	ByAuthor      map[string]int     `json:"by_author,omitempty"`
	MostViewed    []*simpleblog.Post `json:"most_viewed,omitempty"`
	OldestPost    *time.Time         `json:"oldest_post,omitempty"`
	NewestPost    *time.Time         `json:"newest_post,omitempty"`
	ComputedAt    time.Time          `json:"computed_at"`
}

// Service provides admin operations over a Repository
type Service struct {
	repo simpleblog.Repository
}

// New creates a new admin service that uses the provided repository.
func New(repo simpleblog.Repository) *Service {
	return &Service{repo: repo}
}

func (f Filters) postFilter() simpleblog.PostFilter {
	return simpleblog.PostFilter{
		AuthorID: simpleblog.CanonicalID(f.AuthorID),
		Tag:      f.Tag,
	}
}

// ListPosts returns posts newest first
func (s *Service) ListPosts(ctx context.Context, filters Filters) (*ListResponse, error) {
	limit := filters.Limit
	if limit <= 0 {
		limit = defaultLimit
	}
	offset := max(filters.Offset, 0)

	total, err := s.repo.CountPosts(ctx, filters.postFilter())
	if err != nil {
		return nil, fmt.Errorf("failed to count posts: %w", err)
	}

	posts, err := s.repo.ListPosts(ctx, filters.postFilter(), limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	return &ListResponse{
		Posts:   posts,
		Limit:   limit,
		Offset:  offset,
		Total:   total,
		HasMore: offset+len(posts) < total,
	}, nil
}

// CountPosts returns the number of posts matching filters
func (s *Service) CountPosts(ctx context.Context, filters Filters) (int, error) {
	return s.repo.CountPosts(ctx, filters.postFilter())
}

// GetStatistics aggregates every post matching filters. topN bounds the
// most-viewed list.
func (s *Service) GetStatistics(ctx context.Context, filters Filters, topN int) (*Statistics, error) {
	posts, err := s.repo.ListPosts(ctx, filters.postFilter(), 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}

	stats := &Statistics{
		TotalPosts: len(posts),
		ByTag:      make(map[string]int),
		ByAuthor:   make(map[string]int),
		ComputedAt: time.Now().UTC(),
	}

	for _, post := range posts {
		stats.TotalViews += post.Views
		stats.ByTag[post.Tag]++

		author := post.Author.Name
		if author == "" {
			author = post.Author.ID
		}
		stats.ByAuthor[author]++

		created := post.CreatedAt
		if stats.OldestPost == nil || created.Before(*stats.OldestPost) {
			stats.OldestPost = &created
		}
		if stats.NewestPost == nil || created.After(*stats.NewestPost) {
			stats.NewestPost = &created
		}

		comments, err := s.repo.ListComments(ctx, post.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list comments for post %s: %w", post.ID, err)
		}
		stats.TotalComments += len(comments)
	}

	if topN > 0 {
		ranked := append([]*simpleblog.Post(nil), posts...)
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Views > ranked[j].Views
		})
		stats.MostViewed = ranked[:min(topN, len(ranked))]
	}

	return stats, nil
}
