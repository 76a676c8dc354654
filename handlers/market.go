package handlers

import (
	"net/http"

	"stocks-finance/errs"
	"stocks-finance/session"

	"github.com/gin-gonic/gin"
)

type QuoteInput struct {
	Symbol string `form:"symbol"`
}

func (h *Handler) QuoteForm(c *gin.Context, s *session.Session) error {
	h.render(c, s, http.StatusOK, "quote.html", "Quote", nil)
	return nil
}

func (h *Handler) Quote(c *gin.Context, s *session.Session) error {
	var input QuoteInput
	if err := c.ShouldBind(&input); err != nil {
		return errs.Validation("invalid form")
	}

	q, err := h.trading.Quote(c.Request.Context(), input.Symbol)
	if err != nil {
		return err
	}

	h.render(c, s, http.StatusOK, "quoted.html", "Quoted", gin.H{"Quote": q})
	return nil
}
