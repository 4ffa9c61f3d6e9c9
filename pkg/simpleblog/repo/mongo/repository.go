// Package mongo stores posts, comments and users in MongoDB. Identifiers are
// ObjectID hex strings; an identifier that is not valid hex never matches.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tendant/simple-blog/pkg/simpleblog"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	usersCollection    = "users"
	postsCollection    = "posts"
	commentsCollection = "comments"
)

// Repository implements simpleblog.Repository and simpleblog.UserRepository
// using MongoDB
type Repository struct {
	users    *mongo.Collection
	posts    *mongo.Collection
	comments *mongo.Collection
}

// New creates a repository over db
func New(db *mongo.Database) *Repository {
	return &Repository{
		users:    db.Collection(usersCollection),
		posts:    db.Collection(postsCollection),
		comments: db.Collection(commentsCollection),
	}
}

// Connect dials uri and verifies the connection with a ping
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// EnsureIndexes creates the unique user name index and the listing indexes
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("create users index: %w", err)
	}

	_, err = r.posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "authorId", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "tag", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create posts indexes: %w", err)
	}

	_, err = r.comments.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "postId", Value: 1}, {Key: "createdAt", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("create comments index: %w", err)
	}
	return nil
}

type userDoc struct {
	ID           primitive.ObjectID `bson:"_id"`
	Name         string             `bson:"name"`
	PasswordHash string             `bson:"passwordHash"`
	CreatedAt    time.Time          `bson:"createdAt"`
}

type postDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	AuthorID  primitive.ObjectID `bson:"authorId"`
	Title     string             `bson:"title"`
	Tag       string             `bson:"tag"`
	Content   string             `bson:"content"`
	Views     int64              `bson:"views"`
	CreatedAt time.Time          `bson:"createdAt"`
	UpdatedAt time.Time          `bson:"updatedAt"`

	// populated by $lookup only
	Author *userDoc `bson:"author,omitempty"`
}

type commentDoc struct {
	ID        primitive.ObjectID `bson:"_id"`
	PostID    primitive.ObjectID `bson:"postId"`
	AuthorID  primitive.ObjectID `bson:"authorId"`
	Content   string             `bson:"content"`
	CreatedAt time.Time          `bson:"createdAt"`

	Author *userDoc `bson:"author,omitempty"`
}

func (d *postDoc) toPost() *simpleblog.Post {
	post := &simpleblog.Post{
		ID:        d.ID.Hex(),
		Author:    simpleblog.Author{ID: d.AuthorID.Hex()},
		Title:     d.Title,
		Tag:       d.Tag,
		Content:   d.Content,
		Views:     d.Views,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	if d.Author != nil {
		post.Author.Name = d.Author.Name
	}
	return post
}

func (d *commentDoc) toComment() *simpleblog.Comment {
	comment := &simpleblog.Comment{
		ID:        d.ID.Hex(),
		PostID:    d.PostID.Hex(),
		Author:    simpleblog.Author{ID: d.AuthorID.Hex()},
		Content:   d.Content,
		CreatedAt: d.CreatedAt,
	}
	if d.Author != nil {
		comment.Author.Name = d.Author.Name
	}
	return comment
}

func (d *userDoc) toUser() *simpleblog.User {
	return &simpleblog.User{
		ID:           d.ID.Hex(),
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		CreatedAt:    d.CreatedAt,
	}
}

// assignID parses id, generating a fresh ObjectID when it is empty
func assignID(id string) (primitive.ObjectID, error) {
	if id == "" {
		return primitive.NewObjectID(), nil
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("invalid id %q: %w", id, err)
	}
	return oid, nil
}

// authorStages joins the author's user document onto each result
func authorStages() mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$lookup", Value: bson.D{
			{Key: "from", Value: usersCollection},
			{Key: "localField", Value: "authorId"},
			{Key: "foreignField", Value: "_id"},
			{Key: "as", Value: "author"},
		}}},
		{{Key: "$unwind", Value: bson.D{
			{Key: "path", Value: "$author"},
			{Key: "preserveNullAndEmptyArrays", Value: true},
		}}},
	}
}

// postMatch builds the $match document for filter. ok is false when the
// filter can match nothing.
func postMatch(filter simpleblog.PostFilter) (match bson.D, ok bool) {
	match = bson.D{}
	if filter.AuthorID != "" {
		oid, err := primitive.ObjectIDFromHex(filter.AuthorID)
		if err != nil {
			return nil, false
		}
		match = append(match, bson.E{Key: "authorId", Value: oid})
	}
	if filter.Tag != "" {
		match = append(match, bson.E{Key: "tag", Value: filter.Tag})
	}
	return match, true
}

// Post operations

func (r *Repository) CreatePost(ctx context.Context, post *simpleblog.Post) error {
	id, err := assignID(post.ID)
	if err != nil {
		return err
	}
	authorID, err := primitive.ObjectIDFromHex(post.Author.ID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", post.Author.ID, err)
	}

	doc := postDoc{
		ID:        id,
		AuthorID:  authorID,
		Title:     post.Title,
		Tag:       post.Tag,
		Content:   post.Content,
		Views:     post.Views,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if _, err := r.posts.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert post: %w", err)
	}

	post.ID = id.Hex()
	return nil
}

func (r *Repository) GetPost(ctx context.Context, id string) (*simpleblog.Post, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, simpleblog.ErrPostNotFound
	}

	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "_id", Value: oid}}}},
	}, authorStages()...)

	posts, err := r.aggregatePosts(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, simpleblog.ErrPostNotFound
	}
	return posts[0], nil
}

func (r *Repository) UpdatePost(ctx context.Context, post *simpleblog.Post) error {
	oid, err := primitive.ObjectIDFromHex(post.ID)
	if err != nil {
		return simpleblog.ErrPostNotFound
	}

	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{
		"title":     post.Title,
		"tag":       post.Tag,
		"content":   post.Content,
		"updatedAt": post.UpdatedAt,
	}})
	if err != nil {
		return fmt.Errorf("update post: %w", err)
	}
	if res.MatchedCount == 0 {
		return simpleblog.ErrPostNotFound
	}
	return nil
}

func (r *Repository) DeletePost(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return simpleblog.ErrPostNotFound
	}

	res, err := r.posts.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if res.DeletedCount == 0 {
		return simpleblog.ErrPostNotFound
	}
	return nil
}

func (r *Repository) CountPosts(ctx context.Context, filter simpleblog.PostFilter) (int, error) {
	match, ok := postMatch(filter)
	if !ok {
		return 0, nil
	}

	count, err := r.posts.CountDocuments(ctx, match)
	if err != nil {
		return 0, fmt.Errorf("count posts: %w", err)
	}
	return int(count), nil
}

func (r *Repository) ListPosts(ctx context.Context, filter simpleblog.PostFilter, limit, offset int) ([]*simpleblog.Post, error) {
	match, ok := postMatch(filter)
	if !ok {
		return []*simpleblog.Post{}, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}}},
	}
	if offset > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$skip", Value: int64(offset)}})
	}
	if limit > 0 {
		pipeline = append(pipeline, bson.D{{Key: "$limit", Value: int64(limit)}})
	}
	pipeline = append(pipeline, authorStages()...)

	return r.aggregatePosts(ctx, pipeline)
}

func (r *Repository) aggregatePosts(ctx context.Context, pipeline mongo.Pipeline) ([]*simpleblog.Post, error) {
	cursor, err := r.posts.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate posts: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []postDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}

	posts := make([]*simpleblog.Post, 0, len(docs))
	for i := range docs {
		posts = append(posts, docs[i].toPost())
	}
	return posts, nil
}

func (r *Repository) IncrementViews(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return simpleblog.ErrPostNotFound
	}

	res, err := r.posts.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$inc": bson.M{"views": 1}})
	if err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	if res.MatchedCount == 0 {
		return simpleblog.ErrPostNotFound
	}
	return nil
}

// Comment operations

func (r *Repository) CreateComment(ctx context.Context, comment *simpleblog.Comment) error {
	id, err := assignID(comment.ID)
	if err != nil {
		return err
	}
	postID, err := primitive.ObjectIDFromHex(comment.PostID)
	if err != nil {
		return simpleblog.ErrPostNotFound
	}
	authorID, err := primitive.ObjectIDFromHex(comment.Author.ID)
	if err != nil {
		return fmt.Errorf("invalid author id %q: %w", comment.Author.ID, err)
	}

	doc := commentDoc{
		ID:        id,
		PostID:    postID,
		AuthorID:  authorID,
		Content:   comment.Content,
		CreatedAt: comment.CreatedAt,
	}
	if _, err := r.comments.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert comment: %w", err)
	}

	comment.ID = id.Hex()
	return nil
}

func (r *Repository) GetComment(ctx context.Context, id string) (*simpleblog.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, simpleblog.ErrCommentNotFound
	}

	comments, err := r.aggregateComments(ctx, bson.D{{Key: "_id", Value: oid}})
	if err != nil {
		return nil, err
	}
	if len(comments) == 0 {
		return nil, simpleblog.ErrCommentNotFound
	}
	return comments[0], nil
}

func (r *Repository) DeleteComment(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return simpleblog.ErrCommentNotFound
	}

	res, err := r.comments.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if res.DeletedCount == 0 {
		return simpleblog.ErrCommentNotFound
	}
	return nil
}

func (r *Repository) ListComments(ctx context.Context, postID string) ([]*simpleblog.Comment, error) {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return []*simpleblog.Comment{}, nil
	}
	return r.aggregateComments(ctx, bson.D{{Key: "postId", Value: oid}})
}

func (r *Repository) aggregateComments(ctx context.Context, match bson.D) ([]*simpleblog.Comment, error) {
	pipeline := append(mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$sort", Value: bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}}},
	}, authorStages()...)

	cursor, err := r.comments.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("aggregate comments: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []commentDoc
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}

	comments := make([]*simpleblog.Comment, 0, len(docs))
	for i := range docs {
		comments = append(comments, docs[i].toComment())
	}
	return comments, nil
}

func (r *Repository) DeleteCommentsByPost(ctx context.Context, postID string) error {
	oid, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return nil
	}
	if _, err := r.comments.DeleteMany(ctx, bson.M{"postId": oid}); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	return nil
}

// User operations

func (r *Repository) CreateUser(ctx context.Context, user *simpleblog.User) error {
	id, err := assignID(user.ID)
	if err != nil {
		return err
	}

	doc := userDoc{
		ID:           id,
		Name:         user.Name,
		PasswordHash: user.PasswordHash,
		CreatedAt:    user.CreatedAt,
	}
	if _, err := r.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return simpleblog.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = id.Hex()
	return nil
}

func (r *Repository) GetUser(ctx context.Context, id string) (*simpleblog.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, simpleblog.ErrUserNotFound
	}
	return r.findUser(ctx, bson.M{"_id": oid})
}

func (r *Repository) GetUserByName(ctx context.Context, name string) (*simpleblog.User, error) {
	return r.findUser(ctx, bson.M{"name": name})
}

func (r *Repository) findUser(ctx context.Context, filter bson.M) (*simpleblog.User, error) {
	var doc userDoc
	if err := r.users.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, simpleblog.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toUser(), nil
}

func (r *Repository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return simpleblog.ErrUserNotFound
	}

	res, err := r.users.UpdateOne(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"passwordHash": passwordHash}})
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}
	if res.MatchedCount == 0 {
		return simpleblog.ErrUserNotFound
	}
	return nil
}
