package repositories

import (
	"errors"

	"github.com/anonto42/inkwell/backend/internal/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user data operations
type UserRepository interface {
	CreateUser(user *models.User) error
	GetUserByID(id uint) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByFirebaseUID(firebaseUID string) (*models.User, error)
	UpdateUser(user *models.User) error
	DeleteUser(id uint) error
	SearchUsers(query string, limit int) ([]models.User, error)
	AdjustFollowCounts(followerID, followingID uint, delta int) error
}

// PostgresUserRepository implements UserRepository for PostgreSQL
type PostgresUserRepository struct {
	db *gorm.DB
}

// NewPostgresUserRepository creates a new PostgresUserRepository
func NewPostgresUserRepository(db *gorm.DB) *PostgresUserRepository {
	return &PostgresUserRepository{db: db}
}

// CreateUser creates a new user in PostgreSQL
func (r *PostgresUserRepository) CreateUser(user *models.User) error {
	return translate(r.db.Create(user).Error)
}

// GetUserByID retrieves a user by ID from PostgreSQL
func (r *PostgresUserRepository) GetUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := r.db.First(&user, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByEmail retrieves a user by email from PostgreSQL
func (r *PostgresUserRepository) GetUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// GetUserByFirebaseUID retrieves a user by Firebase UID from PostgreSQL
func (r *PostgresUserRepository) GetUserByFirebaseUID(firebaseUID string) (*models.User, error) {
	var user models.User
	if err := r.db.Where("firebase_uid = ?", firebaseUID).First(&user).Error; err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}

// UpdateUser updates an existing user in PostgreSQL
func (r *PostgresUserRepository) UpdateUser(user *models.User) error {
	return r.db.Save(user).Error
}

// DeleteUser soft-deletes a user by ID
func (r *PostgresUserRepository) DeleteUser(id uint) error {
	res := r.db.Delete(&models.User{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// SearchUsers searches for users by first name, last name or email
func (r *PostgresUserRepository) SearchUsers(query string, limit int) ([]models.User, error) {
	var users []models.User
	like := "%" + query + "%"
	err := r.db.
		Where("LOWER(first_name) LIKE LOWER(?) OR LOWER(last_name) LIKE LOWER(?) OR LOWER(email) LIKE LOWER(?)", like, like, like).
		Limit(limit).
		Find(&users).Error
	return users, err
}

// AdjustFollowCounts moves the follower's following count and the followed
// user's followers count by delta in one transaction
func (r *PostgresUserRepository) AdjustFollowCounts(followerID, followingID uint, delta int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.User{}).Where("id = ?", followerID).
			Update("following_count", gorm.Expr("GREATEST(following_count + ?, 0)", delta)).Error; err != nil {
			return err
		}
		return tx.Model(&models.User{}).Where("id = ?", followingID).
			Update("followers_count", gorm.Expr("GREATEST(followers_count + ?, 0)", delta)).Error
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// translate maps gorm errors onto the repository sentinels. Duplicate keys
// are only reported as gorm.ErrDuplicatedKey when the connection was opened
// with TranslateError.
func translate(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrDuplicate
	}
	return notFound(err)
}
