package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// PostForm is the request body for creating or editing a post
type PostForm struct {
	Title   string `json:"title" form:"title"`
	Tag     string `json:"tag" form:"tag"`
	Content string `json:"content" form:"content"`
}

// CommentForm is the request body for creating a comment
type CommentForm struct {
	Content string `json:"content" form:"content"`
}

// CommentsResponse lists a post's comments
type CommentsResponse struct {
	Comments []*simpleblog.Comment `json:"comments"`
}

// PostHandler handles HTTP requests for posts, their comments and tag listings
type PostHandler struct {
	service simpleblog.Service
}

// NewPostHandler creates a new post handler
func NewPostHandler(service simpleblog.Service) *PostHandler {
	return &PostHandler{service: service}
}

// Routes returns the routes for /posts
func (h *PostHandler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.ListPosts)
	r.Get("/{postID}", h.ReadPost)
	r.Get("/{postID}/comments", h.GetComments)

	r.Group(func(r chi.Router) {
		r.Use(RequireActor)

		r.Post("/", h.CreatePost)
		r.Get("/{postID}/edit", h.EditPost)
		r.Put("/{postID}", h.UpdatePost)
		r.Delete("/{postID}", h.DeletePost)
		r.Post("/{postID}/comments", h.CreateComment)
	})

	return r
}

// TagRoutes returns the routes for /tags. Tag listings require a session.
func (h *PostHandler) TagRoutes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireActor)
	r.Get("/{tag}", h.ListPostsByTag)
	return r
}

// decode reads a JSON or form body into v. An empty body leaves v untouched.
func decode(r *http.Request, v interface{}) error {
	if err := render.Decode(r, v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ListPosts lists every post, or one author's posts, nine per page
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.service.ListPosts(r.Context(), simpleblog.ListPostsRequest{
		AuthorID: q.Get("author"),
		Page:     simpleblog.ParsePage(q.Get("pagenum")),
	})
	if err != nil {
		writeError(w, r, err, "Failed to list posts")
		return
	}

	render.JSON(w, r, page)
}

// ListPostsByTag lists posts with one tag, three per page
func (h *PostHandler) ListPostsByTag(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	page, err := h.service.ListPostsByTag(r.Context(), simpleblog.ListPostsByTagRequest{
		AuthorID: q.Get("author"),
		Tag:      chi.URLParam(r, "tag"),
		Page:     simpleblog.ParsePage(q.Get("pagenum")),
	})
	if err != nil {
		writeError(w, r, err, "Failed to list posts by tag")
		return
	}

	render.JSON(w, r, page)
}

// CreatePost publishes a post owned by the signed-in actor
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	var form PostForm
	if err := decode(r, &form); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	post, err := h.service.CreatePost(r.Context(), simpleblog.CreatePostRequest{
		AuthorID: actor.ID,
		Title:    form.Title,
		Tag:      form.Tag,
		Content:  form.Content,
	})
	if err != nil {
		writeError(w, r, err, "Failed to create post")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, MessageResponse{
		Message:  "Post published",
		Redirect: "/posts/" + post.ID,
		ID:       post.ID,
	})
}

// ReadPost returns a post with its comments and records the view
func (h *PostHandler) ReadPost(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.ReadPost(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, r, err, "Failed to read post")
		return
	}

	render.JSON(w, r, view)
}

// EditPost returns a post for its owner to edit
func (h *PostHandler) EditPost(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	post, err := h.service.GetPostForEdit(r.Context(), chi.URLParam(r, "postID"), actor.ID)
	if err != nil {
		writeError(w, r, err, "Failed to get post for edit")
		return
	}

	render.JSON(w, r, post)
}

// UpdatePost edits a post owned by the signed-in actor
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	var form PostForm
	if err := decode(r, &form); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	err := h.service.UpdatePost(r.Context(), simpleblog.UpdatePostRequest{
		PostID:  postID,
		ActorID: actor.ID,
		Title:   form.Title,
		Tag:     form.Tag,
		Content: form.Content,
	})
	if err != nil {
		writeError(w, r, err, "Failed to update post")
		return
	}

	render.JSON(w, r, MessageResponse{
		Message:  "Post updated",
		Redirect: "/posts/" + postID,
		ID:       postID,
	})
}

// DeletePost removes a post owned by the signed-in actor
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	if err := h.service.DeletePost(r.Context(), chi.URLParam(r, "postID"), actor.ID); err != nil {
		writeError(w, r, err, "Failed to delete post")
		return
	}

	render.JSON(w, r, MessageResponse{
		Message:  "Post deleted",
		Redirect: "/posts",
	})
}

// GetComments lists a post's comments oldest first
func (h *PostHandler) GetComments(w http.ResponseWriter, r *http.Request) {
	comments, err := h.service.GetComments(r.Context(), chi.URLParam(r, "postID"))
	if err != nil {
		writeError(w, r, err, "Failed to get comments")
		return
	}

	render.JSON(w, r, CommentsResponse{Comments: comments})
}

// CreateComment adds a comment by the signed-in actor
func (h *PostHandler) CreateComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())
	postID := chi.URLParam(r, "postID")

	var form CommentForm
	if err := decode(r, &form); err != nil {
		badRequest(w, r, "Invalid request body")
		return
	}

	comment, err := h.service.CreateComment(r.Context(), simpleblog.CreateCommentRequest{
		PostID:   postID,
		AuthorID: actor.ID,
		Content:  form.Content,
	})
	if err != nil {
		writeError(w, r, err, "Failed to create comment")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, MessageResponse{
		Message:  "Comment posted",
		Redirect: "/posts/" + postID,
		ID:       comment.ID,
	})
}

// CommentHandler handles HTTP requests addressed to a single comment
type CommentHandler struct {
	service simpleblog.Service
}

// NewCommentHandler creates a new comment handler
func NewCommentHandler(service simpleblog.Service) *CommentHandler {
	return &CommentHandler{service: service}
}

// Routes returns the routes for /comments
func (h *CommentHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(RequireActor)
	r.Delete("/{commentID}", h.DeleteComment)
	return r
}

// DeleteComment removes a comment written by the signed-in actor
func (h *CommentHandler) DeleteComment(w http.ResponseWriter, r *http.Request) {
	actor, _ := ActorFromContext(r.Context())

	if err := h.service.DeleteComment(r.Context(), chi.URLParam(r, "commentID"), actor.ID); err != nil {
		writeError(w, r, err, "Failed to delete comment")
		return
	}

	render.JSON(w, r, MessageResponse{
		Message:  "Comment deleted",
		Redirect: back(r, "/posts"),
	})
}

// back returns the referring page, or fallback when there is none
func back(r *http.Request, fallback string) string {
	if ref := r.Referer(); ref != "" {
		return ref
	}
	return fallback
}
