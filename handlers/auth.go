package handlers

import (
	"net/http"

	"stocks-finance/errs"
	"stocks-finance/session"

	"github.com/gin-gonic/gin"
)

type RegisterInput struct {
	Username     string `form:"username"`
	Password     string `form:"password"`
	Confirmation string `form:"confirmation"`
}

type LoginInput struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

func (h *Handler) RegisterForm(c *gin.Context, s *session.Session) error {
	h.render(c, s, http.StatusOK, "register.html", "Register", nil)
	return nil
}

// Register creates the account and logs the new user in.
func (h *Handler) Register(c *gin.Context, s *session.Session) error {
	var input RegisterInput
	if err := c.ShouldBind(&input); err != nil {
		return errs.Validation("invalid form")
	}

	user, err := h.auth.Register(c.Request.Context(), input.Username, input.Password, input.Confirmation)
	if err != nil {
		return err
	}

	s.Login(user.ID)
	s.AddFlash("Registered!")
	h.redirect(c, s, "/")
	return nil
}

func (h *Handler) LoginForm(c *gin.Context, s *session.Session) error {
	s.Clear()
	h.render(c, s, http.StatusOK, "login.html", "Log In", nil)
	return nil
}

func (h *Handler) Login(c *gin.Context, s *session.Session) error {
	s.Clear()

	var input LoginInput
	if err := c.ShouldBind(&input); err != nil {
		return errs.Auth("invalid form")
	}

	user, err := h.auth.Login(c.Request.Context(), input.Username, input.Password)
	if err != nil {
		return err
	}

	s.Login(user.ID)
	h.redirect(c, s, "/")
	return nil
}

func (h *Handler) Logout(c *gin.Context, s *session.Session) error {
	s.Clear()
	h.redirect(c, s, "/")
	return nil
}
