package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/tendant/simple-blog/pkg/simpleblog"
)

// Repository implements simpleblog.Repository and simpleblog.UserRepository
// using in-memory storage
type Repository struct {
	mu          sync.RWMutex
	seq         int64
	posts       map[string]*postRecord
	comments    map[string]*commentRecord
	users       map[string]*simpleblog.User
	usersByName map[string]string // name -> user_id
}

// records carry an insertion sequence so ordering is stable when creation
// timestamps collide
type postRecord struct {
	post simpleblog.Post
	seq  int64
}

type commentRecord struct {
	comment simpleblog.Comment
	seq     int64
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		posts:       make(map[string]*postRecord),
		comments:    make(map[string]*commentRecord),
		users:       make(map[string]*simpleblog.User),
		usersByName: make(map[string]string),
	}
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if post.ID == "" {
		post.ID = uuid.NewString()
	}

	r.seq++
	// Create a copy to avoid external modifications
	r.posts[post.ID] = &postRecord{post: *post, seq: r.seq}

	return nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*simpleblog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.posts[id]
	if !exists {
		return nil, simpleblog.ErrPostNotFound
	}

	return r.projectPost(rec), nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.posts[post.ID]
	if !exists {
		return simpleblog.ErrPostNotFound
	}

	rec.post.Title = post.Title
	rec.post.Tag = post.Tag
	rec.post.Content = post.Content
	rec.post.UpdatedAt = post.UpdatedAt

	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.posts[id]; !exists {
		return simpleblog.ErrPostNotFound
	}
	delete(r.posts, id)

	return nil
}

func (r *Repository) CountPosts(ctx context.Context, filter simpleblog.PostFilter) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	count := 0
	for _, rec := range r.posts {
		if matches(rec, filter) {
			count++
		}
	}
	return count, nil
}

func (r *Repository) ListPosts(ctx context.Context, filter simpleblog.PostFilter, limit, offset int) ([]*simpleblog.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recs []*postRecord
	for _, rec := range r.posts {
		if matches(rec, filter) {
			recs = append(recs, rec)
		}
	}

	// Sort by created_at descending
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].post.CreatedAt.Equal(recs[j].post.CreatedAt) {
			return recs[i].post.CreatedAt.After(recs[j].post.CreatedAt)
		}
		return recs[i].seq > recs[j].seq
	})

	if offset < 0 {
		offset = 0
	}
	if offset >= len(recs) {
		return []*simpleblog.Post{}, nil
	}
	recs = recs[offset:]
	if limit > 0 && limit < len(recs) {
		recs = recs[:limit]
	}

	result := make([]*simpleblog.Post, 0, len(recs))
	for _, rec := range recs {
		result = append(result, r.projectPost(rec))
	}
	return result, nil
}

func (r *Repository) IncrementViews(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	rec, exists := r.posts[id]
	if !exists {
		return simpleblog.ErrPostNotFound
	}
	rec.post.Views++

	return nil
}

// Comment operations

func (r *Repository) CreateComment(ctx context.Context, comment *simpleblog.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}

	r.seq++
	r.comments[comment.ID] = &commentRecord{comment: *comment, seq: r.seq}

	return nil
}

func (r *Repository) GetComment(ctx context.Context, id string) (*simpleblog.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, exists := r.comments[id]
	if !exists {
		return nil, simpleblog.ErrCommentNotFound
	}
	return r.projectComment(rec), nil
}

func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.comments[id]; !exists {
		return simpleblog.ErrCommentNotFound
	}
	delete(r.comments, id)

	return nil
}

func (r *Repository) ListComments(ctx context.Context, postID string) ([]*simpleblog.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var recs []*commentRecord
	for _, rec := range r.comments {
		if rec.comment.PostID == postID {
			recs = append(recs, rec)
		}
	}

	// Sort by created_at ascending
	sort.Slice(recs, func(i, j int) bool {
		if !recs[i].comment.CreatedAt.Equal(recs[j].comment.CreatedAt) {
			return recs[i].comment.CreatedAt.Before(recs[j].comment.CreatedAt)
		}
		return recs[i].seq < recs[j].seq
	})

	result := make([]*simpleblog.Comment, 0, len(recs))
	for _, rec := range recs {
		result = append(result, r.projectComment(rec))
	}
	return result, nil
}

func (r *Repository) DeleteCommentsByPost(ctx context.Context, postID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, rec := range r.comments {
		if rec.comment.PostID == postID {
			delete(r.comments, id)
		}
	}
	return nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simpleblog.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.usersByName[user.Name]; taken {
		return simpleblog.ErrUserExists
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}

	userCopy := *user
	r.users[user.ID] = &userCopy
	r.usersByName[user.Name] = user.ID

	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (*simpleblog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, simpleblog.ErrUserNotFound
	}
	userCopy := *user
	return &userCopy, nil
}

func (r *Repository) GetUserByName(ctx context.Context, name string) (*simpleblog.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, exists := r.usersByName[name]
	if !exists {
		return nil, simpleblog.ErrUserNotFound
	}
	userCopy := *r.users[id]
	return &userCopy, nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, exists := r.users[id]
	if !exists {
		return simpleblog.ErrUserNotFound
	}
	user.PasswordHash = passwordHash

	return nil
}

// projectPost returns a copy of the stored post with its author name filled
// in. Callers must hold r.mu.
func (r *Repository) projectPost(rec *postRecord) *simpleblog.Post {
	postCopy := rec.post
	postCopy.Author.Name = r.authorName(postCopy.Author.ID)
	return &postCopy
}

func (r *Repository) projectComment(rec *commentRecord) *simpleblog.Comment {
	commentCopy := rec.comment
	commentCopy.Author.Name = r.authorName(commentCopy.Author.ID)
	return &commentCopy
}

func (r *Repository) authorName(id string) string {
	if user, ok := r.users[id]; ok {
		return user.Name
	}
	return ""
}

func matches(rec *postRecord, filter simpleblog.PostFilter) bool {
	if filter.AuthorID != "" && rec.post.Author.ID != filter.AuthorID {
		return false
	}
	if filter.Tag != "" && rec.post.Tag != filter.Tag {
		return false
	}
	return true
}
