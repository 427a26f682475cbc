package repositories

import (
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// SavedPostRepository defines the interface for bookmark operations
type SavedPostRepository interface {
	SavePost(savedPost *models.SavedPost) error
	UnsavePost(userID uint, postID string) error
	IsPostSaved(userID uint, postID string) (bool, error)
	GetSavedPostsByUser(userID uint, page, limit int) ([]models.SavedPost, int64, error)
	DeleteSavesByPostID(postID string) error
}

// PostgresSavedPostRepository implements SavedPostRepository
type PostgresSavedPostRepository struct {
	db *gorm.DB
}

func NewPostgresSavedPostRepository(db *gorm.DB) *PostgresSavedPostRepository {
	return &PostgresSavedPostRepository{db: db}
}

// SavePost bookmarks a post; saving it twice is ErrDuplicate
func (r *PostgresSavedPostRepository) SavePost(savedPost *models.SavedPost) error {
	return translate(r.db.Create(savedPost).Error)
}

func (r *PostgresSavedPostRepository) UnsavePost(userID uint, postID string) error {
	res := r.db.Where("user_id = ? AND post_id = ?", userID, postID).Delete(&models.SavedPost{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresSavedPostRepository) IsPostSaved(userID uint, postID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.SavedPost{}).Where("user_id = ? AND post_id = ?", userID, postID).Count(&count).Error
	return count > 0, err
}

// GetSavedPostsByUser lists a user's bookmarks, newest first
func (r *PostgresSavedPostRepository) GetSavedPostsByUser(userID uint, page, limit int) ([]models.SavedPost, int64, error) {
	var total int64
	if err := r.db.Model(&models.SavedPost{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var saved []models.SavedPost
	err := r.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&saved).Error
	return saved, total, err
}

func (r *PostgresSavedPostRepository) DeleteSavesByPostID(postID string) error {
	return r.db.Where("post_id = ?", postID).Delete(&models.SavedPost{}).Error
}
