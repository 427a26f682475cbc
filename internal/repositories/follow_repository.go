package repositories

import (
	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// FollowRepository defines the interface for follow data operations
type FollowRepository interface {
	CreateFollow(follow *models.Follow) error
	DeleteFollow(followerID, followingID uint) error
	IsFollowing(followerID, followingID uint) (bool, error)
	GetFollowers(userID uint) ([]models.User, error)
	GetFollowing(userID uint) ([]models.User, error)
	GetFollowingIDs(userID uint) ([]uint, error)
}

// PostgresFollowRepository implements FollowRepository for PostgreSQL
type PostgresFollowRepository struct {
	db *gorm.DB
}

// NewPostgresFollowRepository creates a new PostgresFollowRepository
func NewPostgresFollowRepository(db *gorm.DB) *PostgresFollowRepository {
	return &PostgresFollowRepository{db: db}
}

func (r *PostgresFollowRepository) CreateFollow(follow *models.Follow) error {
	return translate(r.db.Create(follow).Error)
}

func (r *PostgresFollowRepository) DeleteFollow(followerID, followingID uint) error {
	res := r.db.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresFollowRepository) IsFollowing(followerID, followingID uint) (bool, error) {
	var count int64
	err := r.db.Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&count).Error
	return count > 0, err
}

// GetFollowers lists the users following userID
func (r *PostgresFollowRepository) GetFollowers(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN (?)",
		r.db.Model(&models.Follow{}).Select("follower_id").Where("following_id = ?", userID),
	).Find(&users).Error
	return users, err
}

// GetFollowing lists the users userID follows
func (r *PostgresFollowRepository) GetFollowing(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.db.Where("id IN (?)",
		r.db.Model(&models.Follow{}).Select("following_id").Where("follower_id = ?", userID),
	).Find(&users).Error
	return users, err
}

func (r *PostgresFollowRepository) GetFollowingIDs(userID uint) ([]uint, error) {
	var ids []uint
	err := r.db.Model(&models.Follow{}).Where("follower_id = ?", userID).Pluck("following_id", &ids).Error
	return ids, err
}
