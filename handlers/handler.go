package handlers

import (
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"stocks-finance/errs"
	"stocks-finance/middleware"
	"stocks-finance/service"
	"stocks-finance/session"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	auth     service.AuthService
	trading  service.TradingService
	sessions *session.Manager
	log      *slog.Logger
}

func NewHandler(auth service.AuthService, trading service.TradingService, sessions *session.Manager, log *slog.Logger) *Handler {
	return &Handler{
		auth:     auth,
		trading:  trading,
		sessions: sessions,
		log:      log,
	}
}

// Router builds the gin engine serving every page of the site.
func (h *Handler) Router(tmpl *template.Template) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.SetHTMLTemplate(tmpl)

	r.Use(
		middleware.RequestLogger(h.log),
		gin.CustomRecovery(h.recovered),
		middleware.NoCache(),
		middleware.Sessions(h.sessions),
	)

	// Public routes
	r.GET("/register", h.handle(h.RegisterForm))
	r.POST("/register", h.handle(h.Register))
	r.GET("/login", h.handle(h.LoginForm))
	r.POST("/login", h.handle(h.Login))
	r.GET("/logout", h.handle(h.Logout))

	// Protected routes
	auth := r.Group("/")
	auth.Use(middleware.RequireLogin())
	{
		auth.GET("/", h.handle(h.Index))
		auth.GET("/quote", h.handle(h.QuoteForm))
		auth.POST("/quote", h.handle(h.Quote))
		auth.GET("/buy", h.handle(h.BuyForm))
		auth.POST("/buy", h.handle(h.Buy))
		auth.GET("/sell", h.handle(h.SellForm))
		auth.POST("/sell", h.handle(h.Sell))
		auth.GET("/history", h.handle(h.History))
	}

	r.NoRoute(h.handle(func(c *gin.Context, s *session.Session) error {
		h.apology(c, s, http.StatusNotFound, "not found")
		return nil
	}))
	r.NoMethod(h.handle(func(c *gin.Context, s *session.Session) error {
		h.apology(c, s, http.StatusMethodNotAllowed, "method not allowed")
		return nil
	}))

	return r
}

// pageFunc is a route handler with the request session passed in. A returned
// error is rendered as an apology.
type pageFunc func(c *gin.Context, s *session.Session) error

func (h *Handler) handle(fn pageFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		s := middleware.Session(c)
		if err := fn(c, s); err != nil {
			status := errs.Status(err)
			if status >= http.StatusInternalServerError {
				_ = c.Error(err)
			}
			h.apology(c, s, status, errs.Message(err))
		}
	}
}

// render saves the session and writes page with the layout fields filled in.
func (h *Handler) render(c *gin.Context, s *session.Session, status int, page, title string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	_, loggedIn := s.UserID()
	data["Title"] = title
	data["LoggedIn"] = loggedIn
	data["Flashes"] = s.Flashes()

	if err := h.sessions.Save(c.Writer, c.Request, s); err != nil {
		h.internalError(c, err)
		return
	}
	c.HTML(status, page, data)
}

func (h *Handler) redirect(c *gin.Context, s *session.Session, location string) {
	if err := h.sessions.Save(c.Writer, c.Request, s); err != nil {
		h.internalError(c, err)
		return
	}
	c.Redirect(http.StatusFound, location)
}

func (h *Handler) apology(c *gin.Context, s *session.Session, status int, message string) {
	h.render(c, s, status, "apology.html", "Apology", gin.H{
		"Code":    status,
		"Message": message,
	})
	c.Abort()
}

// internalError answers 500 without touching the session.
func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	_, loggedIn := middleware.UserID(c)
	c.HTML(http.StatusInternalServerError, "apology.html", gin.H{
		"Title":    "Apology",
		"LoggedIn": loggedIn,
		"Code":     http.StatusInternalServerError,
		"Message":  errs.Message(errs.ErrInternal),
	})
	c.Abort()
}

func (h *Handler) recovered(c *gin.Context, recovered any) {
	h.internalError(c, fmt.Errorf("panic: %v", recovered))
}
