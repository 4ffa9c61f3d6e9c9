// Package repotest provides a contract test suite that every simpleblog
// store implementation must pass.
package repotest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Store is the combined interface implemented by every backend
type Store interface {
	simpleblog.Repository
	simpleblog.UserRepository
}

// Run exercises store against the Repository and UserRepository contracts.
// newStore must return an empty store for each call.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("PostCRUD", func(t *testing.T) { testPostCRUD(t, newStore(t)) })
	t.Run("ListAndCount", func(t *testing.T) { testListAndCount(t, newStore(t)) })
	t.Run("IncrementViews", func(t *testing.T) { testIncrementViews(t, newStore(t)) })
	t.Run("Comments", func(t *testing.T) { testComments(t, newStore(t)) })
}

// CreateUser stores a user with name and returns it
func CreateUser(t *testing.T, store simpleblog.UserRepository, name string) *simpleblog.User {
	t.Helper()
	user := &simpleblog.User{
		Name:         name,
		PasswordHash: "hash-" + name,
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.CreateUser(context.Background(), user))
	require.NotEmpty(t, user.ID)
	return user
}

// CreatePost stores a post and returns it
func CreatePost(t *testing.T, store simpleblog.Repository, authorID, title, tag string, createdAt time.Time) *simpleblog.Post {
	t.Helper()
	post := &simpleblog.Post{
		Author:    simpleblog.Author{ID: authorID},
		Title:     title,
		Tag:       tag,
		Content:   "content of " + title,
		CreatedAt: createdAt.UTC().Truncate(time.Millisecond),
		UpdatedAt: createdAt.UTC().Truncate(time.Millisecond),
	}
	require.NoError(t, store.CreatePost(context.Background(), post))
	require.NotEmpty(t, post.ID)
	return post
}

func testUsers(t *testing.T, store Store) {
	ctx := context.Background()
	user := CreateUser(t, store, "alice")

	got, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "hash-alice", got.PasswordHash)

	byName, err := store.GetUserByName(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byName.ID)

	err = store.CreateUser(ctx, &simpleblog.User{Name: "alice", PasswordHash: "x", CreatedAt: time.Now()})
	assert.True(t, errors.Is(err, simpleblog.ErrUserExists), "duplicate name should be ErrUserExists, got %v", err)

	require.NoError(t, store.UpdatePassword(ctx, user.ID, "new-hash"))
	got, err = store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	_, err = store.GetUserByName(ctx, "nobody")
	assert.True(t, errors.Is(err, simpleblog.ErrNotFound))
}

func testPostCRUD(t *testing.T, store Store) {
	ctx := context.Background()
	author := CreateUser(t, store, "bob")
	post := CreatePost(t, store, author.ID, "First", "go", time.Now())

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)
	assert.Equal(t, author.ID, got.Author.ID)
	assert.Equal(t, "bob", got.Author.Name)
	assert.Equal(t, "First", got.Title)
	assert.Equal(t, int64(0), got.Views)

	got.Title = "Edited"
	got.Tag = "rust"
	got.Content = "new body"
	got.Views = 100
	got.Author.ID = "someone-else"
	got.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	require.NoError(t, store.UpdatePost(ctx, got))

	updated, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)
	assert.Equal(t, "rust", updated.Tag)
	assert.Equal(t, "new body", updated.Content)
	assert.Equal(t, author.ID, updated.Author.ID, "author must not change on update")
	assert.Equal(t, int64(0), updated.Views, "views must not change on update")

	require.NoError(t, store.DeletePost(ctx, post.ID))
	_, err = store.GetPost(ctx, post.ID)
	assert.True(t, errors.Is(err, simpleblog.ErrNotFound))
}

func testListAndCount(t *testing.T, store Store) {
	ctx := context.Background()
	alice := CreateUser(t, store, "alice")
	bob := CreateUser(t, store, "bob")

	base := time.Now().Add(-time.Hour)
	var created []*simpleblog.Post
	for i := 0; i < 5; i++ {
		author := alice
		if i%2 == 1 {
			author = bob
		}
		tag := "go"
		if i == 4 {
			tag = "misc"
		}
		created = append(created, CreatePost(t, store, author.ID, fmt.Sprintf("post-%d", i), tag, base.Add(time.Duration(i)*time.Minute)))
	}

	count, err := store.CountPosts(ctx, simpleblog.PostFilter{})
	require.NoError(t, err)
	assert.Equal(t, 5, count)

	count, err = store.CountPosts(ctx, simpleblog.PostFilter{AuthorID: alice.ID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	count, err = store.CountPosts(ctx, simpleblog.PostFilter{AuthorID: alice.ID, Tag: "go"})
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	all, err := store.ListPosts(ctx, simpleblog.PostFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)
	// newest first
	assert.Equal(t, created[4].ID, all[0].ID)
	assert.Equal(t, created[0].ID, all[4].ID)
	assert.NotEmpty(t, all[0].Author.Name)

	page, err := store.ListPosts(ctx, simpleblog.PostFilter{}, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, created[2].ID, page[0].ID)
	assert.Equal(t, created[1].ID, page[1].ID)

	tagged, err := store.ListPosts(ctx, simpleblog.PostFilter{Tag: "misc"}, 0, 0)
	require.NoError(t, err)
	require.Len(t, tagged, 1)
	assert.Equal(t, created[4].ID, tagged[0].ID)

	none, err := store.ListPosts(ctx, simpleblog.PostFilter{AuthorID: "unknown-author"}, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testIncrementViews(t *testing.T, store Store) {
	ctx := context.Background()
	author := CreateUser(t, store, "carol")
	post := CreatePost(t, store, author.ID, "Popular", "go", time.Now())

	const readers = 50
	var wg sync.WaitGroup
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, store.IncrementViews(ctx, post.ID))
		}()
	}
	wg.Wait()

	got, err := store.GetPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(readers), got.Views)

	err = store.IncrementViews(ctx, "missing-post")
	assert.True(t, errors.Is(err, simpleblog.ErrNotFound))
}

func testComments(t *testing.T, store Store) {
	ctx := context.Background()
	author := CreateUser(t, store, "dave")
	reader := CreateUser(t, store, "erin")
	post := CreatePost(t, store, author.ID, "Discussed", "go", time.Now())

	empty, err := store.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, empty)

	base := time.Now().UTC().Truncate(time.Millisecond)
	var ids []string
	for i := 0; i < 3; i++ {
		c := &simpleblog.Comment{
			PostID:    post.ID,
			Author:    simpleblog.Author{ID: reader.ID},
			Content:   fmt.Sprintf("comment-%d", i),
			CreatedAt: base.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.CreateComment(ctx, c))
		require.NotEmpty(t, c.ID)
		ids = append(ids, c.ID)
	}

	comments, err := store.ListComments(ctx, post.ID)
	require.NoError(t, err)
	require.Len(t, comments, 3)
	for i, c := range comments {
		assert.Equal(t, ids[i], c.ID, "comments must be oldest first")
		assert.Equal(t, "erin", c.Author.Name)
	}

	got, err := store.GetComment(ctx, ids[0])
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.PostID)

	require.NoError(t, store.DeleteComment(ctx, ids[0]))
	_, err = store.GetComment(ctx, ids[0])
	assert.True(t, errors.Is(err, simpleblog.ErrNotFound))

	require.NoError(t, store.DeleteCommentsByPost(ctx, post.ID))
	comments, err = store.ListComments(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
