package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	CreatePost(ctx context.Context, post *models.Post) error
	GetPostByID(ctx context.Context, id string) (*models.Post, error)
	GetPostsByUserIDs(ctx context.Context, userIDs []string, skip, limit int64) ([]models.Post, int64, error)
	GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error)
	UpdatePost(ctx context.Context, id string, post *models.Post) error
	DeletePost(ctx context.Context, id string) error
	AddCommentsCount(ctx context.Context, postID string, delta int) error
	AddLikesCount(ctx context.Context, postID string, delta int) error
}

// MongoPostRepository implements PostRepository for MongoDB
type MongoPostRepository struct {
	collection *mongo.Collection
}

// NewMongoPostRepository creates a new MongoPostRepository
func NewMongoPostRepository(db *mongo.Database) *MongoPostRepository {
	return &MongoPostRepository{collection: db.Collection("posts")}
}

// CreatePost creates a new post in MongoDB
func (r *MongoPostRepository) CreatePost(ctx context.Context, post *models.Post) error {
	post.ID = primitive.NewObjectID()
	post.CreatedAt = time.Now().UTC()
	post.UpdatedAt = post.CreatedAt
	_, err := r.collection.InsertOne(ctx, post)
	return err
}

// GetPostByID retrieves a post by ID from MongoDB
func (r *MongoPostRepository) GetPostByID(ctx context.Context, id string) (*models.Post, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}

	var post models.Post
	err = r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&post)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

// GetPostsByUserIDs retrieves the newest posts written by any of userIDs,
// together with the total number of matching posts
func (r *MongoPostRepository) GetPostsByUserIDs(ctx context.Context, userIDs []string, skip, limit int64) ([]models.Post, int64, error) {
	filter := bson.M{"user_id": bson.M{"$in": userIDs}}
	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	posts, err := r.find(ctx, filter, skip, limit)
	return posts, total, err
}

// GetAllPosts retrieves all posts from MongoDB with pagination
func (r *MongoPostRepository) GetAllPosts(ctx context.Context, skip, limit int64) ([]models.Post, error) {
	return r.find(ctx, bson.D{}, skip, limit)
}

func (r *MongoPostRepository) find(ctx context.Context, filter interface{}, skip, limit int64) ([]models.Post, error) {
	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	posts := []models.Post{}
	if err = cursor.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// UpdatePost updates the editable fields of a post
func (r *MongoPostRepository) UpdatePost(ctx context.Context, id string, post *models.Post) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	post.UpdatedAt = time.Now().UTC()
	update := bson.M{
		"$set": bson.M{
			"title":      post.Title,
			"content":    post.Content,
			"image_urls": post.ImageURLs,
			"tags":       post.Tags,
			"updated_at": post.UpdatedAt,
		},
	}
	res, err := r.collection.UpdateOne(ctx, bson.M{"_id": objID}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// DeletePost deletes a post by ID from MongoDB
func (r *MongoPostRepository) DeletePost(ctx context.Context, id string) error {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": objID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddCommentsCount moves the comments count of a post by delta
func (r *MongoPostRepository) AddCommentsCount(ctx context.Context, postID string, delta int) error {
	return r.inc(ctx, postID, "comments_count", delta)
}

// AddLikesCount moves the likes count of a post by delta
func (r *MongoPostRepository) AddLikesCount(ctx context.Context, postID string, delta int) error {
	return r.inc(ctx, postID, "likes_count", delta)
}

func (r *MongoPostRepository) inc(ctx context.Context, postID, field string, delta int) error {
	objID, err := primitive.ObjectIDFromHex(postID)
	if err != nil {
		return fmt.Errorf("invalid post ID format: %w", err)
	}
	_, err = r.collection.UpdateOne(ctx, bson.M{"_id": objID}, bson.M{"$inc": bson.M{field: delta}})
	return err
}
