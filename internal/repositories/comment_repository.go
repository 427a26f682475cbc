package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/anonto42/inkwell/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// CommentRepository defines the interface for comment data operations
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetCommentByID(ctx context.Context, id string) (*models.Comment, error)
	GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error)
	UpdateContent(ctx context.Context, id, content string) (*models.Comment, error)
	// DeleteCommentTree deletes a comment and every reply below it and
	// reports how many documents were removed.
	DeleteCommentTree(ctx context.Context, id string) (int64, error)
	DeleteCommentsByPostID(ctx context.Context, postID string) (int64, error)
	AddLike(ctx context.Context, id, userID string) (*models.Comment, error)
	RemoveLike(ctx context.Context, id, userID string) (*models.Comment, error)
}

// MongoCommentRepository implements CommentRepository for MongoDB
type MongoCommentRepository struct {
	collection *mongo.Collection
}

// NewMongoCommentRepository creates a new MongoCommentRepository
func NewMongoCommentRepository(db *mongo.Database) *MongoCommentRepository {
	return &MongoCommentRepository{collection: db.Collection("comments")}
}

// EnsureIndexes creates the indexes comment reads rely on
func (r *MongoCommentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "post_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "parent_id", Value: 1}}},
	})
	return err
}

// CreateComment inserts a comment, assigning its id and timestamps
func (r *MongoCommentRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	comment.ID = primitive.NewObjectID()
	comment.CreatedAt = time.Now().UTC()
	comment.UpdatedAt = comment.CreatedAt
	if comment.LikedBy == nil {
		comment.LikedBy = []string{}
	}
	_, err := r.collection.InsertOne(ctx, comment)
	return err
}

// GetCommentByID retrieves a comment by ID
func (r *MongoCommentRepository) GetCommentByID(ctx context.Context, id string) (*models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	var comment models.Comment
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Decode(&comment); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

// GetCommentsByPostID returns every comment of a post, oldest first
func (r *MongoCommentRepository) GetCommentsByPostID(ctx context.Context, postID string) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"post_id": postID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

// UpdateContent replaces the content of a comment and returns the result
func (r *MongoCommentRepository) UpdateContent(ctx context.Context, id, content string) (*models.Comment, error) {
	update := bson.M{"$set": bson.M{"content": content, "updated_at": time.Now().UTC()}}
	return r.findOneAndUpdate(ctx, id, update)
}

// DeleteCommentTree walks the reply tree breadth first and removes it
func (r *MongoCommentRepository) DeleteCommentTree(ctx context.Context, id string) (int64, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return 0, ErrNotFound
	}
	if err := r.collection.FindOne(ctx, bson.M{"_id": objID}).Err(); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, ErrNotFound
		}
		return 0, err
	}

	ids := []primitive.ObjectID{objID}
	frontier := []string{id}
	seen := map[primitive.ObjectID]bool{objID: true}
	projection := options.Find().SetProjection(bson.M{"_id": 1})
	for len(frontier) > 0 {
		cursor, err := r.collection.Find(ctx, bson.M{"parent_id": bson.M{"$in": frontier}}, projection)
		if err != nil {
			return 0, err
		}
		var children []struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.All(ctx, &children); err != nil {
			return 0, err
		}
		frontier = frontier[:0]
		for _, child := range children {
			if seen[child.ID] {
				continue
			}
			seen[child.ID] = true
			ids = append(ids, child.ID)
			frontier = append(frontier, child.ID.Hex())
		}
	}

	res, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// DeleteCommentsByPostID removes every comment of a post
func (r *MongoCommentRepository) DeleteCommentsByPostID(ctx context.Context, postID string) (int64, error) {
	res, err := r.collection.DeleteMany(ctx, bson.M{"post_id": postID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// AddLike adds userID to the likers and recomputes likes in the same update
func (r *MongoCommentRepository) AddLike(ctx context.Context, id, userID string) (*models.Comment, error) {
	return r.findOneAndUpdate(ctx, id, likePipeline(bson.M{
		"$setUnion": bson.A{bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}, bson.A{userID}},
	}))
}

// RemoveLike removes userID from the likers and recomputes likes
func (r *MongoCommentRepository) RemoveLike(ctx context.Context, id, userID string) (*models.Comment, error) {
	return r.findOneAndUpdate(ctx, id, likePipeline(bson.M{
		"$setDifference": bson.A{bson.M{"$ifNull": bson.A{"$liked_by", bson.A{}}}, bson.A{userID}},
	}))
}

// likePipeline keeps likes equal to the size of liked_by
func likePipeline(likedBy bson.M) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$set", Value: bson.M{"liked_by": likedBy}}},
		{{Key: "$set", Value: bson.M{"likes": bson.M{"$size": "$liked_by"}}}},
	}
}

func (r *MongoCommentRepository) findOneAndUpdate(ctx context.Context, id string, update interface{}) (*models.Comment, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var comment models.Comment
	err = r.collection.FindOneAndUpdate(ctx, bson.M{"_id": objID}, update, opts).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}
