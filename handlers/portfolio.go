package handlers

import (
	"net/http"

	"stocks-finance/errs"
	"stocks-finance/service"
	"stocks-finance/session"

	"github.com/gin-gonic/gin"
)

type BuyInput struct {
	Symbol string `form:"symbol"`
	Shares string `form:"shares"`
}

type SellInput struct {
	Symbol   string `form:"symbol"`
	Quantity string `form:"quantity"`
}

// currentUser reads the user set by the login check of the route group.
func currentUser(s *session.Session) (uint, error) {
	userID, ok := s.UserID()
	if !ok {
		return 0, errs.Auth("not logged in")
	}
	return userID, nil
}

func (h *Handler) Index(c *gin.Context, s *session.Session) error {
	userID, err := currentUser(s)
	if err != nil {
		return err
	}

	portfolio, err := h.trading.Portfolio(c.Request.Context(), userID)
	if err != nil {
		return err
	}

	h.render(c, s, http.StatusOK, "index.html", "Portfolio", gin.H{"Portfolio": portfolio})
	return nil
}

func (h *Handler) BuyForm(c *gin.Context, s *session.Session) error {
	h.render(c, s, http.StatusOK, "buy.html", "Buy", nil)
	return nil
}

func (h *Handler) Buy(c *gin.Context, s *session.Session) error {
	userID, err := currentUser(s)
	if err != nil {
		return err
	}

	var input BuyInput
	if err := c.ShouldBind(&input); err != nil {
		return errs.Validation("invalid form")
	}
	if input.Symbol == "" {
		return errs.Validation("missing symbol")
	}
	shares, err := service.ParseShares(input.Shares)
	if err != nil {
		return err
	}

	if _, err := h.trading.Buy(c.Request.Context(), userID, input.Symbol, shares); err != nil {
		return err
	}

	s.AddFlash("Bought!")
	h.redirect(c, s, "/")
	return nil
}

func (h *Handler) SellForm(c *gin.Context, s *session.Session) error {
	userID, err := currentUser(s)
	if err != nil {
		return err
	}

	symbols, err := h.trading.OwnedSymbols(c.Request.Context(), userID)
	if err != nil {
		return err
	}

	h.render(c, s, http.StatusOK, "sell.html", "Sell", gin.H{"Symbols": symbols})
	return nil
}

func (h *Handler) Sell(c *gin.Context, s *session.Session) error {
	userID, err := currentUser(s)
	if err != nil {
		return err
	}

	var input SellInput
	if err := c.ShouldBind(&input); err != nil {
		return errs.Validation("invalid form")
	}
	if input.Symbol == "" {
		return errs.Validation("missing symbol")
	}
	shares, err := service.ParseShares(input.Quantity)
	if err != nil {
		return err
	}

	if _, err := h.trading.Sell(c.Request.Context(), userID, input.Symbol, shares); err != nil {
		return err
	}

	s.AddFlash("Sold!")
	h.redirect(c, s, "/")
	return nil
}

func (h *Handler) History(c *gin.Context, s *session.Session) error {
	userID, err := currentUser(s)
	if err != nil {
		return err
	}

	transactions, err := h.trading.History(c.Request.Context(), userID)
	if err != nil {
		return err
	}

	h.render(c, s, http.StatusOK, "history.html", "History", gin.H{"Transactions": transactions})
	return nil
}
