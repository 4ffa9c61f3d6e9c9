package admin_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/admin"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/repotest"
)

func setupAdmin(t *testing.T) (*admin.Service, *memory.Repository, []*simpleblog.Post) {
	repo := memory.New()
	alice := repotest.CreateUser(t, repo, "alice")
	bob := repotest.CreateUser(t, repo, "bob")

	base := time.Now().Add(-time.Hour)
	var posts []*simpleblog.Post
	for i := 0; i < 5; i++ {
		author, tag := alice, "go"
		if i >= 3 {
			author, tag = bob, "rust"
		}
		posts = append(posts, repotest.CreatePost(t, repo, author.ID, fmt.Sprintf("p%d", i), tag, base.Add(time.Duration(i)*time.Minute)))
	}

	return admin.New(repo), repo, posts
}

func TestListPosts(t *testing.T) {
	ctx := context.Background()
	svc, _, posts := setupAdmin(t)

	resp, err := svc.ListPosts(ctx, admin.Filters{Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 5, resp.Total)
	assert.True(t, resp.HasMore)
	require.Len(t, resp.Posts, 2)
	assert.Equal(t, posts[4].ID, resp.Posts[0].ID)

	resp, err = svc.ListPosts(ctx, admin.Filters{Limit: 2, Offset: 4})
	require.NoError(t, err)
	assert.False(t, resp.HasMore)
	assert.Len(t, resp.Posts, 1)

	resp, err = svc.ListPosts(ctx, admin.Filters{Tag: "rust"})
	require.NoError(t, err)
	assert.Equal(t, 100, resp.Limit)
	assert.Len(t, resp.Posts, 2)
}

func TestCountPosts(t *testing.T) {
	svc, _, posts := setupAdmin(t)

	count, err := svc.CountPosts(context.Background(), admin.Filters{AuthorID: posts[0].Author.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestGetStatistics(t *testing.T) {
	ctx := context.Background()
	svc, repo, posts := setupAdmin(t)

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.IncrementViews(ctx, posts[1].ID))
	}
	require.NoError(t, repo.IncrementViews(ctx, posts[3].ID))
	require.NoError(t, repo.CreateComment(ctx, &simpleblog.Comment{
		PostID:    posts[1].ID,
		Author:    posts[3].Author,
		Content:   "hi",
		CreatedAt: time.Now(),
	}))

	stats, err := svc.GetStatistics(ctx, admin.Filters{}, 2)
	require.NoError(t, err)

	assert.Equal(t, 5, stats.TotalPosts)
	assert.Equal(t, int64(4), stats.TotalViews)
	assert.Equal(t, 1, stats.TotalComments)
	assert.Equal(t, map[string]int{"go": 3, "rust": 2}, stats.ByTag)
	assert.Equal(t, map[string]int{"alice": 3, "bob": 2}, stats.ByAuthor)
	require.Len(t, stats.MostViewed, 2)
	assert.Equal(t, posts[1].ID, stats.MostViewed[0].ID)
	assert.Equal(t, posts[3].ID, stats.MostViewed[1].ID)
	require.NotNil(t, stats.OldestPost)
	assert.True(t, stats.OldestPost.Equal(posts[0].CreatedAt))
	assert.True(t, stats.NewestPost.Equal(posts[4].CreatedAt))
}
