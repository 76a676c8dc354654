package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"stocks-finance/errs"
	"stocks-finance/models"
	"stocks-finance/quote"
	"stocks-finance/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type TradingService interface {
	Quote(ctx context.Context, symbol string) (quote.Quote, error)
	Buy(ctx context.Context, userID uint, symbol string, shares int64) (*models.Transaction, error)
	Sell(ctx context.Context, userID uint, symbol string, shares int64) (*models.Transaction, error)
	Portfolio(ctx context.Context, userID uint) (*models.Portfolio, error)
	History(ctx context.Context, userID uint) ([]models.Transaction, error)
	OwnedSymbols(ctx context.Context, userID uint) ([]string, error)
}

type tradingService struct {
	db        *gorm.DB
	usersRepo repository.UsersRepository
	txRepo    repository.TransactionsRepository
	quotes    quote.Provider
	locks     *userLocks
	log       *slog.Logger
}

func NewTradingService(db *gorm.DB, usersRepo repository.UsersRepository, txRepo repository.TransactionsRepository, quotes quote.Provider, log *slog.Logger) TradingService {
	return &tradingService{
		db:        db,
		usersRepo: usersRepo,
		txRepo:    txRepo,
		quotes:    quotes,
		locks:     newUserLocks(),
		log:       log,
	}
}

// ParseShares accepts a positive base-10 integer made of digits only.
func ParseShares(raw string) (int64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errs.Validation("must provide shares")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0, errs.Validation("invalid shares")
		}
	}
	shares, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || shares < 1 {
		return 0, errs.Validation("invalid shares")
	}
	return shares, nil
}

func (s *tradingService) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	symbol = quote.Normalize(symbol)
	if symbol == "" {
		return quote.Quote{}, errs.Validation("missing symbol")
	}
	return s.lookup(ctx, symbol, "no such stock")
}

func (s *tradingService) Buy(ctx context.Context, userID uint, symbol string, shares int64) (*models.Transaction, error) {
	const op = "service.Buy"

	q, err := s.prepareTrade(ctx, symbol, shares)
	if err != nil {
		return nil, err
	}
	total := buyCost(q.Price, shares)

	unlock := s.locks.lock(userID)
	defer unlock()

	var trade *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUsersRepository(tx)
		txs := repository.NewTransactionsRepository(tx)

		user, err := knownUser(users.GetByIDForUpdate(ctx, userID))
		if err != nil {
			return err
		}
		if user.Cash.LessThan(total) {
			return errs.New(errs.ErrInsufficientFunds, "not enough cash")
		}

		if err := users.UpdateCash(ctx, userID, user.Cash.Sub(total)); err != nil {
			return err
		}

		trade = &models.Transaction{
			UserID:      userID,
			Type:        models.Buy,
			Symbol:      q.Symbol,
			Quantity:    shares,
			Price:       q.Price,
			TotalAmount: total,
		}
		return txs.Add(ctx, trade)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("bought shares", slog.Uint64("user_id", uint64(userID)), slog.String("symbol", q.Symbol), slog.Int64("shares", shares), slog.String("total", total.StringFixed(2)))
	return trade, nil
}

func (s *tradingService) Sell(ctx context.Context, userID uint, symbol string, shares int64) (*models.Transaction, error) {
	const op = "service.Sell"

	q, err := s.prepareTrade(ctx, symbol, shares)
	if err != nil {
		return nil, err
	}
	proceeds := saleProceeds(q.Price, shares)

	unlock := s.locks.lock(userID)
	defer unlock()

	var trade *models.Transaction
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		users := repository.NewUsersRepository(tx)
		txs := repository.NewTransactionsRepository(tx)

		user, err := knownUser(users.GetByIDForUpdate(ctx, userID))
		if err != nil {
			return err
		}

		held, err := txs.SharesOf(ctx, userID, q.Symbol)
		if err != nil {
			return err
		}
		if shares > held {
			return errs.New(errs.ErrInsufficientShares, "not enough shares")
		}

		if err := users.UpdateCash(ctx, userID, user.Cash.Add(proceeds)); err != nil {
			return err
		}

		trade = &models.Transaction{
			UserID:      userID,
			Type:        models.Sell,
			Symbol:      q.Symbol,
			Quantity:    -shares,
			Price:       q.Price,
			TotalAmount: proceeds,
		}
		return txs.Add(ctx, trade)
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("sold shares", slog.Uint64("user_id", uint64(userID)), slog.String("symbol", q.Symbol), slog.Int64("shares", shares), slog.String("total", proceeds.StringFixed(2)))
	return trade, nil
}

// Portfolio values every open holding at its current price. Holdings whose
// price cannot be fetched are listed unpriced and left out of the totals.
func (s *tradingService) Portfolio(ctx context.Context, userID uint) (*models.Portfolio, error) {
	const op = "service.Portfolio"

	user, err := knownUser(s.usersRepo.GetByID(ctx, userID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	holdings, err := s.txRepo.Holdings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	portfolio := &models.Portfolio{
		Positions:   make([]models.Position, 0, len(holdings)),
		Cash:        user.Cash,
		StocksValue: decimal.Zero,
	}

	for _, h := range holdings {
		position := models.Position{Symbol: h.Symbol, Name: h.Symbol, Shares: h.Shares}

		q, err := s.quotes.Lookup(ctx, h.Symbol)
		if err != nil {
			s.log.Warn("holding left unpriced", slog.String("symbol", h.Symbol), slog.Any("error", err))
			portfolio.Positions = append(portfolio.Positions, position)
			continue
		}

		position.Name = q.Name
		position.Price = q.Price
		position.Value = marketValue(q.Price, h.Shares)
		position.Priced = true

		portfolio.StocksValue = portfolio.StocksValue.Add(position.Value)
		portfolio.Positions = append(portfolio.Positions, position)
	}

	portfolio.GrandTotal = portfolio.Cash.Add(portfolio.StocksValue)
	return portfolio, nil
}

func (s *tradingService) History(ctx context.Context, userID uint) ([]models.Transaction, error) {
	transactions, err := s.txRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.History: %w", err)
	}
	return transactions, nil
}

func (s *tradingService) OwnedSymbols(ctx context.Context, userID uint) ([]string, error) {
	holdings, err := s.txRepo.Holdings(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("service.OwnedSymbols: %w", err)
	}
	symbols := make([]string, 0, len(holdings))
	for _, h := range holdings {
		symbols = append(symbols, h.Symbol)
	}
	return symbols, nil
}

func (s *tradingService) prepareTrade(ctx context.Context, symbol string, shares int64) (quote.Quote, error) {
	symbol = quote.Normalize(symbol)
	if symbol == "" {
		return quote.Quote{}, errs.Validation("missing symbol")
	}
	if shares < 1 {
		return quote.Quote{}, errs.Validation("invalid shares")
	}
	return s.lookup(ctx, symbol, "invalid symbol")
}

// lookup treats every provider failure as an unknown symbol.
func (s *tradingService) lookup(ctx context.Context, symbol, notFound string) (quote.Quote, error) {
	q, err := s.quotes.Lookup(ctx, symbol)
	if err != nil {
		if !errors.Is(err, quote.ErrNotFound) {
			s.log.Warn("quote lookup failed", slog.String("symbol", symbol), slog.Any("error", err))
		}
		return quote.Quote{}, errs.NotFound(notFound)
	}
	return q, nil
}

// knownUser turns a missing session user into an auth failure.
func knownUser(user *models.User, err error) (*models.User, error) {
	if errors.Is(err, errs.ErrNotFound) {
		return nil, errs.Auth("not logged in")
	}
	return user, err
}

// Cash moves in whole cents. Buys round up and sales round down, so no
// sequence of trades can turn sub-cent prices into cash.
func buyCost(price decimal.Decimal, shares int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(shares)).RoundCeil(2)
}

func saleProceeds(price decimal.Decimal, shares int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(shares)).RoundFloor(2)
}

func marketValue(price decimal.Decimal, shares int64) decimal.Decimal {
	return price.Mul(decimal.NewFromInt(shares)).Round(2)
}
