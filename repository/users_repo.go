package repository

import (
	"context"
	"errors"
	"strings"

	"stocks-finance/errs"
	"stocks-finance/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UsersRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, userID uint) (*models.User, error)
	GetByIDForUpdate(ctx context.Context, userID uint) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateCash(ctx context.Context, userID uint, cash decimal.Decimal) error
}

type usersRepository struct {
	db *gorm.DB
}

func NewUsersRepository(db *gorm.DB) UsersRepository {
	return &usersRepository{db: db}
}

func (r *usersRepository) Create(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return errs.ErrAlreadyExists
		}
		return err
	}
	return nil
}

func (r *usersRepository) GetByID(ctx context.Context, userID uint) (*models.User, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", userID)
}

// GetByIDForUpdate reads the user row and, where the database supports it,
// holds a row lock on it until the surrounding transaction ends.
func (r *usersRepository) GetByIDForUpdate(ctx context.Context, userID uint) (*models.User, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() == "postgres" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.first(q, "id = ?", userID)
}

func (r *usersRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx), "username = ?", username)
}

func (r *usersRepository) UpdateCash(ctx context.Context, userID uint, cash decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Update("cash", cash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errs.ErrNotFound
	}
	return nil
}

func (r *usersRepository) first(q *gorm.DB, query string, args ...any) (*models.User, error) {
	var user models.User
	if err := q.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "duplicate key value violates unique constraint")
}
