package repositories

import (
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// LikeRepository defines the interface for post like operations
type LikeRepository interface {
	CreateLike(like *models.Like) error
	DeleteLike(postID string, userID uint) error
	HasUserLikedPost(postID string, userID uint) (bool, error)
	GetLikesCountByPostID(postID string) (int64, error)
	// GetRecentLikerIDs returns up to limit user ids, most recent like first
	GetRecentLikerIDs(postID string, limit int) ([]uint, error)
	DeleteLikesByPostID(postID string) error
}

// PostgresLikeRepository implements LikeRepository for PostgreSQL
type PostgresLikeRepository struct {
	db *gorm.DB
}

// NewPostgresLikeRepository creates a new PostgresLikeRepository
func NewPostgresLikeRepository(db *gorm.DB) *PostgresLikeRepository {
	return &PostgresLikeRepository{db: db}
}

// CreateLike stores a like; a second like by the same user is ErrDuplicate
func (r *PostgresLikeRepository) CreateLike(like *models.Like) error {
	return translate(r.db.Create(like).Error)
}

func (r *PostgresLikeRepository) DeleteLike(postID string, userID uint) error {
	res := r.db.Where("post_id = ? AND user_id = ?", postID, userID).Delete(&models.Like{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresLikeRepository) HasUserLikedPost(postID string, userID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("post_id = ? AND user_id = ?", postID, userID).Count(&count).Error
	return count > 0, err
}

func (r *PostgresLikeRepository) GetLikesCountByPostID(postID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.Like{}).Where("post_id = ?", postID).Count(&count).Error
	return count, err
}

func (r *PostgresLikeRepository) GetRecentLikerIDs(postID string, limit int) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Like{}).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Limit(limit).
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *PostgresLikeRepository) DeleteLikesByPostID(postID string) error {
	return r.db.Where("post_id = ?", postID).Delete(&models.Like{}).Error
}
