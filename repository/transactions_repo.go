package repository

import (
	"context"

	"stocks-finance/models"

	"gorm.io/gorm"
)

type TransactionsRepository interface {
	Add(ctx context.Context, tx *models.Transaction) error
	ListByUser(ctx context.Context, userID uint) ([]models.Transaction, error)
	Holdings(ctx context.Context, userID uint) ([]models.Holding, error)
	SharesOf(ctx context.Context, userID uint, symbol string) (int64, error)
}

type transactionsRepository struct {
	db *gorm.DB
}

func NewTransactionsRepository(db *gorm.DB) TransactionsRepository {
	return &transactionsRepository{db: db}
}

func (r *transactionsRepository) Add(ctx context.Context, tx *models.Transaction) error {
	return r.db.WithContext(ctx).Create(tx).Error
}

// ListByUser returns the user's ledger in insertion order.
func (r *transactionsRepository) ListByUser(ctx context.Context, userID uint) ([]models.Transaction, error) {
	transactions := []models.Transaction{}
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("id").Find(&transactions).Error; err != nil {
		return nil, err
	}
	return transactions, nil
}

// Holdings returns every symbol whose net share count is positive, by symbol.
func (r *transactionsRepository) Holdings(ctx context.Context, userID uint) ([]models.Holding, error) {
	holdings := []models.Holding{}
	err := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("symbol, CAST(SUM(quantity) AS BIGINT) AS shares").
		Where("user_id = ?", userID).
		Group("symbol").
		Having("SUM(quantity) > 0").
		Order("symbol").
		Scan(&holdings).Error
	if err != nil {
		return nil, err
	}
	return holdings, nil
}

// SharesOf returns the net share count of one symbol, zero when never traded.
func (r *transactionsRepository) SharesOf(ctx context.Context, userID uint, symbol string) (int64, error) {
	var shares int64
	row := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Select("COALESCE(CAST(SUM(quantity) AS BIGINT), 0)").
		Where("user_id = ? AND symbol = ?", userID, symbol).
		Row()
	if err := row.Scan(&shares); err != nil {
		return 0, err
	}
	return shares, nil
}
