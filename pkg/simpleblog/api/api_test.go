package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-blog/pkg/simpleblog"
	"github.com/tendant/simple-blog/pkg/simpleblog/account"
	"github.com/tendant/simple-blog/pkg/simpleblog/repo/memory"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	router  chi.Router
	service simpleblog.Service
	repo    *memory.Repository
	session *Session
}

// setupRouterTest creates a router over in-memory repositories
func setupRouterTest(t *testing.T) *testEnv {
	repo := memory.New()

	service, err := simpleblog.New(
		simpleblog.WithRepository(repo),
		simpleblog.WithEventSink(simpleblog.NewNoopEventSink()),
	)
	require.NoError(t, err)

	session := NewSession("test-secret", time.Hour)
	router := NewRouter(Options{
		Service:             service,
		Accounts:            account.New(repo, account.WithHashCost(bcrypt.MinCost)),
		Session:             session,
		SignInRatePerMinute: 100,
	})

	return &testEnv{router: router, service: service, repo: repo, session: session}
}

// signUp registers name and returns its user ID and bearer token
func (e *testEnv) signUp(t *testing.T, name string) (string, string) {
	rr := e.do(t, http.MethodPost, "/signup", "", CredentialsForm{Name: name, Password: "pw-" + name})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp MessageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.ID, resp.Token
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	var req *http.Request
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		req = httptest.NewRequest(method, path, bytes.NewReader(b))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeBody[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	var v T
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &v), rr.Body.String())
	return v
}

func assertErrorCode(t *testing.T, rr *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	assert.Equal(t, status, rr.Code, rr.Body.String())
	resp := decodeBody[ErrorResponse](t, rr)
	assert.Equal(t, code, resp.Error.Code)
}

func TestRootRedirectsToPosts(t *testing.T) {
	env := setupRouterTest(t)

	rr := env.do(t, http.MethodGet, "/", "", nil)
	assert.Equal(t, http.StatusFound, rr.Code)
	assert.Equal(t, "/posts", rr.Header().Get("Location"))
}

func TestSignUpAndSignIn(t *testing.T) {
	env := setupRouterTest(t)

	rr := env.do(t, http.MethodPost, "/signup", "", CredentialsForm{Name: "alice", Password: "secret"})
	require.Equal(t, http.StatusCreated, rr.Code)

	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == "jwt" {
			cookie = c
		}
	}
	require.NotNil(t, cookie, "signup must set the session cookie")
	assert.True(t, cookie.HttpOnly)

	rr = env.do(t, http.MethodPost, "/signup", "", CredentialsForm{Name: "alice", Password: "other"})
	assertErrorCode(t, rr, http.StatusBadRequest, "validation_error")

	rr = env.do(t, http.MethodPost, "/signin", "", CredentialsForm{Name: "alice", Password: "wrong"})
	assertErrorCode(t, rr, http.StatusUnauthorized, "invalid_credentials")

	rr = env.do(t, http.MethodPost, "/signin", "", CredentialsForm{Name: "alice", Password: "secret"})
	require.Equal(t, http.StatusOK, rr.Code)
	resp := decodeBody[MessageResponse](t, rr)
	assert.Equal(t, "/posts", resp.Redirect)

	t.Run("session cookie authenticates", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/password", nil)
		req.AddCookie(&http.Cookie{Name: "jwt", Value: cookie.Value})
		rr := httptest.NewRecorder()
		env.router.ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "alice", decodeBody[AccountResponse](t, rr).Name)
	})

	t.Run("sign out clears the cookie", func(t *testing.T) {
		rr := env.do(t, http.MethodPost, "/signout", "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		cookies := rr.Result().Cookies()
		require.Len(t, cookies, 1)
		assert.Equal(t, "jwt", cookies[0].Name)
		assert.Less(t, cookies[0].MaxAge, 0)
	})
}

func TestSignUpWithFormBody(t *testing.T) {
	env := setupRouterTest(t)

	form := url.Values{"name": {"bob"}, "password": {"pw"}}
	req := httptest.NewRequest(http.MethodPost, "/signup", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := httptest.NewRecorder()
	env.router.ServeHTTP(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	user, err := env.repo.GetUserByName(context.Background(), "bob")
	require.NoError(t, err)
	assert.Equal(t, decodeBody[MessageResponse](t, rr).ID, user.ID)
}

func TestPostLifecycle(t *testing.T) {
	env := setupRouterTest(t)
	aliceID, alice := env.signUp(t, "alice")
	_, bob := env.signUp(t, "bob")

	rr := env.do(t, http.MethodPost, "/posts", "", PostForm{Title: "t", Tag: "go", Content: "c"})
	assertErrorCode(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = env.do(t, http.MethodPost, "/posts", alice, PostForm{Title: "t", Tag: " ", Content: "c"})
	assertErrorCode(t, rr, http.StatusBadRequest, "validation_error")
	count, err := env.repo.CountPosts(context.Background(), simpleblog.PostFilter{})
	require.NoError(t, err)
	assert.Zero(t, count)

	rr = env.do(t, http.MethodPost, "/posts", alice, PostForm{Title: "Hello", Tag: "go", Content: "World"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	created := decodeBody[MessageResponse](t, rr)
	postID := created.ID
	assert.Equal(t, "/posts/"+postID, created.Redirect)

	t.Run("read counts views", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/posts/"+postID, "", nil)
		require.Equal(t, http.StatusOK, rr.Code)
		view := decodeBody[simpleblog.PostView](t, rr)
		assert.Equal(t, "Hello", view.Post.Title)
		assert.Equal(t, aliceID, view.Post.Author.ID)
		assert.Equal(t, "alice", view.Post.Author.Name)
		assert.NotNil(t, view.Comments)

		stored, err := env.repo.GetPost(context.Background(), postID)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stored.Views)
	})

	t.Run("edit form is owner only", func(t *testing.T) {
		rr := env.do(t, http.MethodGet, "/posts/"+postID+"/edit", bob, nil)
		assertErrorCode(t, rr, http.StatusForbidden, "forbidden")

		rr = env.do(t, http.MethodGet, "/posts/"+postID+"/edit", alice, nil)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("update", func(t *testing.T) {
		rr := env.do(t, http.MethodPut, "/posts/"+postID, bob, PostForm{Title: "Hijack", Tag: "go", Content: "x"})
		assertErrorCode(t, rr, http.StatusForbidden, "forbidden")

		rr = env.do(t, http.MethodPut, "/posts/missing", alice, PostForm{Title: "x", Tag: "go", Content: "x"})
		assertErrorCode(t, rr, http.StatusNotFound, "not_found")

		rr = env.do(t, http.MethodPut, "/posts/"+postID, alice, PostForm{Title: "Edited", Tag: "go", Content: "x"})
		require.Equal(t, http.StatusOK, rr.Code)

		stored, err := env.repo.GetPost(context.Background(), postID)
		require.NoError(t, err)
		assert.Equal(t, "Edited", stored.Title)
	})

	t.Run("delete", func(t *testing.T) {
		rr := env.do(t, http.MethodDelete, "/posts/"+postID, bob, nil)
		assertErrorCode(t, rr, http.StatusForbidden, "forbidden")

		rr = env.do(t, http.MethodDelete, "/posts/"+postID, alice, nil)
		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "/posts", decodeBody[MessageResponse](t, rr).Redirect)

		rr = env.do(t, http.MethodGet, "/posts/"+postID, "", nil)
		assertErrorCode(t, rr, http.StatusNotFound, "not_found")
	})
}

func createPosts(t *testing.T, env *testEnv, authorID, tag string, n int) {
	for i := 0; i < n; i++ {
		_, err := env.service.CreatePost(context.Background(), simpleblog.CreatePostRequest{
			AuthorID: authorID,
			Title:    fmt.Sprintf("%s %d", tag, i),
			Tag:      tag,
			Content:  "body",
		})
		require.NoError(t, err)
	}
}

func TestListPostsPages(t *testing.T) {
	env := setupRouterTest(t)
	aliceID, _ := env.signUp(t, "alice")
	createPosts(t, env, aliceID, "go", 10)

	tests := []struct {
		query    string
		page     int
		expected int
	}{
		{"", 1, 9},
		{"?pagenum=2", 2, 1},
		{"?pagenum=99", 2, 1},
		{"?pagenum=0", 1, 9},
		{"?pagenum=abc", 1, 9},
		{"?author=" + aliceID + "&pagenum=2", 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			rr := env.do(t, http.MethodGet, "/posts"+tt.query, "", nil)
			require.Equal(t, http.StatusOK, rr.Code)

			page := decodeBody[simpleblog.Page](t, rr)
			assert.Equal(t, tt.page, page.Page)
			assert.Equal(t, 2, page.TotalPages)
			assert.Equal(t, 10, page.TotalCount)
			assert.Len(t, page.Posts, tt.expected)
		})
	}

	rr := env.do(t, http.MethodGet, "/posts?author=nobody", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decodeBody[simpleblog.Page](t, rr)
	assert.Empty(t, page.Posts)
	assert.Equal(t, 1, page.TotalPages)
}

func TestListPostsByTag(t *testing.T) {
	env := setupRouterTest(t)
	aliceID, alice := env.signUp(t, "alice")
	createPosts(t, env, aliceID, "go", 7)
	createPosts(t, env, aliceID, "rust", 1)

	rr := env.do(t, http.MethodGet, "/tags/go", "", nil)
	assertErrorCode(t, rr, http.StatusUnauthorized, "unauthorized")

	rr = env.do(t, http.MethodGet, "/tags/go?author="+aliceID+"&pagenum=99", alice, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	page := decodeBody[simpleblog.Page](t, rr)
	assert.Equal(t, 3, page.Page)
	assert.Equal(t, 3, page.TotalPages)
	assert.Len(t, page.Posts, 1)
	assert.Equal(t, simpleblog.TagsPageSize, page.PageSize)

	rr = env.do(t, http.MethodGet, "/tags/%20", alice, nil)
	assertErrorCode(t, rr, http.StatusBadRequest, "validation_error")
}

func TestComments(t *testing.T) {
	env := setupRouterTest(t)
	aliceID, alice := env.signUp(t, "alice")
	_, bob := env.signUp(t, "bob")
	createPosts(t, env, aliceID, "go", 1)

	page, err := env.service.ListPosts(context.Background(), simpleblog.ListPostsRequest{})
	require.NoError(t, err)
	postID := page.Posts[0].ID

	rr := env.do(t, http.MethodPost, "/posts/"+postID+"/comments", bob, CommentForm{Content: ""})
	assertErrorCode(t, rr, http.StatusBadRequest, "validation_error")

	rr = env.do(t, http.MethodPost, "/posts/missing/comments", bob, CommentForm{Content: "hi"})
	assertErrorCode(t, rr, http.StatusNotFound, "not_found")

	rr = env.do(t, http.MethodPost, "/posts/"+postID+"/comments", bob, CommentForm{Content: "Nice post"})
	require.Equal(t, http.StatusCreated, rr.Code)
	commentID := decodeBody[MessageResponse](t, rr).ID

	rr = env.do(t, http.MethodGet, "/posts/"+postID+"/comments", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	comments := decodeBody[CommentsResponse](t, rr).Comments
	require.Len(t, comments, 1)
	assert.Equal(t, "bob", comments[0].Author.Name)

	rr = env.do(t, http.MethodGet, "/posts/missing/comments", "", nil)
	assertErrorCode(t, rr, http.StatusNotFound, "not_found")

	rr = env.do(t, http.MethodDelete, "/comments/"+commentID, alice, nil)
	assertErrorCode(t, rr, http.StatusForbidden, "forbidden")

	rr = env.do(t, http.MethodDelete, "/comments/"+commentID, bob, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = env.do(t, http.MethodDelete, "/comments/"+commentID, bob, nil)
	assertErrorCode(t, rr, http.StatusNotFound, "not_found")
}

func TestChangePassword(t *testing.T) {
	env := setupRouterTest(t)
	_, alice := env.signUp(t, "alice")
	env.signUp(t, "bob")

	rr := env.do(t, http.MethodPost, "/password", alice, CredentialsForm{Name: "bob", Password: "x"})
	assertErrorCode(t, rr, http.StatusForbidden, "forbidden")

	rr = env.do(t, http.MethodPost, "/password", alice, CredentialsForm{Password: ""})
	assertErrorCode(t, rr, http.StatusBadRequest, "validation_error")

	rr = env.do(t, http.MethodPost, "/password", alice, CredentialsForm{Name: "alice", Password: "fresh"})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "/signin", decodeBody[MessageResponse](t, rr).Redirect)
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Less(t, cookies[0].MaxAge, 0)

	rr = env.do(t, http.MethodPost, "/signin", "", CredentialsForm{Name: "alice", Password: "fresh"})
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestInvalidToken(t *testing.T) {
	env := setupRouterTest(t)

	other := NewSession("another-secret", time.Hour)
	token, err := other.Token(&simpleblog.User{ID: "forged", Name: "mallory"})
	require.NoError(t, err)

	rr := env.do(t, http.MethodPost, "/posts", token, PostForm{Title: "t", Tag: "go", Content: "c"})
	assertErrorCode(t, rr, http.StatusUnauthorized, "unauthorized")
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{simpleblog.Required("title"), http.StatusBadRequest},
		{simpleblog.ErrPostNotFound, http.StatusNotFound},
		{simpleblog.ErrForbidden, http.StatusForbidden},
		{account.ErrInvalidCredentials, http.StatusUnauthorized},
		{&simpleblog.PostError{PostID: "p", Op: "get", Err: fmt.Errorf("connection refused")}, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		status, _ := statusFor(tt.err)
		assert.Equal(t, tt.status, status, "error %v", tt.err)
	}
}
