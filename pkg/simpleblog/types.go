package simpleblog

import "time"

// Page sizes used by the listings.
const (
	PostsPageSize = 9
	TagsPageSize  = 3
)

// Author is the minimal projection of a user carried on posts and comments.
// Name is empty when the user record no longer exists.
type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Post represents a published article. Author.ID never changes after creation
// and Views never decreases.
type Post struct {
	ID        string    `json:"id"`
	Author    Author    `json:"author"`
	Title     string    `json:"title"`
	Tag       string    `json:"tag"`
	Content   string    `json:"content"`
	Views     int64     `json:"views"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Comment represents a reply attached to a post.
type Comment struct {
	ID        string    `json:"id"`
	PostID    string    `json:"post_id"`
	Author    Author    `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// User is the account record used by the account collaborator. The core only
// compares its ID and reads its Name.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Page is a derived, non-persistent view over a listing. It is recomputed on
// every request.
type Page struct {
	Posts      []*Post `json:"posts"`
	Page       int     `json:"page"`
	TotalPages int     `json:"total_pages"`
	TotalCount int     `json:"total_count"`
	PageSize   int     `json:"page_size"`
}

// PostView is the merged result of a single-post read.
type PostView struct {
	Post     *Post      `json:"post"`
	Comments []*Comment `json:"comments"`
}

// PostFilter restricts post listings. Empty fields do not filter.
type PostFilter struct {
	AuthorID string
	Tag      string
}
