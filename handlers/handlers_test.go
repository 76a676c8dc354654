package handlers_test

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"stocks-finance/config"
	"stocks-finance/database"
	"stocks-finance/handlers"
	"stocks-finance/quote"
	"stocks-finance/repository"
	"stocks-finance/service"
	"stocks-finance/session"
	"stocks-finance/views"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

type fakeQuotes map[string]string

func (f fakeQuotes) Lookup(_ context.Context, symbol string) (quote.Quote, error) {
	symbol = quote.Normalize(symbol)
	price, ok := f[symbol]
	if !ok {
		return quote.Quote{}, quote.ErrNotFound
	}
	return quote.Quote{Symbol: symbol, Name: symbol + " Corp", Price: decimal.RequireFromString(price)}, nil
}

// setupServer wires the full application over in-memory sqlite and a
// filesystem session store.
func setupServer(t *testing.T) (*httptest.Server, *gin.Engine) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.Open(config.DBConfig{
		Driver: config.DriverSQLite,
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
	}, "test")
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	t.Cleanup(func() { database.Close(db) })

	store, err := session.NewFileStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileStore() unexpected error: %v", err)
	}
	sessions := session.NewManager(store, []byte("test-secret"), time.Hour, "session", log)

	usersRepo := repository.NewUsersRepository(db)
	txRepo := repository.NewTransactionsRepository(db)
	quotes := fakeQuotes{"AAPL": "150.25", "NFLX": "400.00"}

	h := handlers.NewHandler(
		service.NewAuthService(usersRepo, decimal.NewFromInt(10000)),
		service.NewTradingService(db, usersRepo, txRepo, quotes, log),
		sessions,
		log,
	)

	tmpl, err := views.Load()
	if err != nil {
		t.Fatalf("views.Load() unexpected error: %v", err)
	}
	router := h.Router(tmpl)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, router
}

type browser struct {
	t      *testing.T
	base   string
	client *http.Client
}

func newBrowser(t *testing.T, srv *httptest.Server) *browser {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar.New() unexpected error: %v", err)
	}
	return &browser{
		t:    t,
		base: srv.URL,
		client: &http.Client{
			Jar: jar,
			CheckRedirect: func(*http.Request, []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
	}
}

func (b *browser) do(req *http.Request) (*http.Response, string) {
	b.t.Helper()
	resp, err := b.client.Do(req)
	if err != nil {
		b.t.Fatalf("%s %s failed: %v", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		b.t.Fatalf("reading body failed: %v", err)
	}
	return resp, string(body)
}

func (b *browser) get(path string) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodGet, b.base+path, nil)
	if err != nil {
		b.t.Fatalf("NewRequest failed: %v", err)
	}
	return b.do(req)
}

func (b *browser) post(path string, form url.Values) (*http.Response, string) {
	b.t.Helper()
	req, err := http.NewRequest(http.MethodPost, b.base+path, strings.NewReader(form.Encode()))
	if err != nil {
		b.t.Fatalf("NewRequest failed: %v", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return b.do(req)
}

func (b *browser) register(username string) {
	b.t.Helper()
	resp, body := b.post("/register", url.Values{
		"username":     {username},
		"password":     {"secret"},
		"confirmation": {"secret"},
	})
	assertRedirect(b.t, resp, body, "/")
}

func assertRedirect(t *testing.T, resp *http.Response, body, location string) {
	t.Helper()
	if resp.StatusCode != http.StatusFound {
		t.Fatalf("status = %d, want 302; body: %s", resp.StatusCode, body)
	}
	if got := resp.Header.Get("Location"); got != location {
		t.Fatalf("Location = %q, want %q", got, location)
	}
}

func assertPage(t *testing.T, resp *http.Response, body string, status int, want ...string) {
	t.Helper()
	if resp.StatusCode != status {
		t.Fatalf("status = %d, want %d; body: %s", resp.StatusCode, status, body)
	}
	for _, w := range want {
		if !strings.Contains(body, w) {
			t.Errorf("body is missing %q", w)
		}
	}
}

func TestLoginRequired(t *testing.T) {
	srv, _ := setupServer(t)
	b := newBrowser(t, srv)

	for _, path := range []string{"/", "/quote", "/buy", "/sell", "/history"} {
		t.Run(path, func(t *testing.T) {
			resp, body := b.get(path)
			assertRedirect(t, resp, body, "/login")
		})
	}

	resp, body := b.post("/buy", url.Values{"symbol": {"AAPL"}, "shares": {"1"}})
	assertRedirect(t, resp, body, "/login")
}

func TestRegister(t *testing.T) {
	srv, _ := setupServer(t)
	b := newBrowser(t, srv)

	t.Run("form", func(t *testing.T) {
		resp, body := b.get("/register")
		assertPage(t, resp, body, http.StatusOK, `name="confirmation"`)
	})

	t.Run("mismatch", func(t *testing.T) {
		resp, body := b.post("/register", url.Values{
			"username":     {"alice"},
			"password":     {"secret"},
			"confirmation": {"other"},
		})
		assertPage(t, resp, body, http.StatusBadRequest, "passwords do not match")
	})

	t.Run("success_logs_in", func(t *testing.T) {
		b.register("alice")

		resp, body := b.get("/")
		assertPage(t, resp, body, http.StatusOK, "Registered!", "$10,000.00")

		_, body = b.get("/")
		if strings.Contains(body, "Registered!") {
			t.Error("flash message shown twice")
		}
	})

	t.Run("duplicate", func(t *testing.T) {
		other := newBrowser(t, srv)
		resp, body := other.post("/register", url.Values{
			"username":     {"alice"},
			"password":     {"x"},
			"confirmation": {"x"},
		})
		assertPage(t, resp, body, http.StatusBadRequest, "username already taken")
	})
}

func TestLoginLogout(t *testing.T) {
	srv, _ := setupServer(t)
	newBrowser(t, srv).register("alice")
	b := newBrowser(t, srv)

	t.Run("missing_username", func(t *testing.T) {
		resp, body := b.post("/login", url.Values{"password": {"secret"}})
		assertPage(t, resp, body, http.StatusForbidden, "must provide username")
	})

	t.Run("wrong_password", func(t *testing.T) {
		resp, body := b.post("/login", url.Values{"username": {"alice"}, "password": {"nope"}})
		assertPage(t, resp, body, http.StatusForbidden, "invalid username and/or password")
	})

	t.Run("unknown_user", func(t *testing.T) {
		resp, body := b.post("/login", url.Values{"username": {"bob"}, "password": {"secret"}})
		assertPage(t, resp, body, http.StatusForbidden, "invalid username and/or password")
	})

	t.Run("login_then_logout", func(t *testing.T) {
		resp, body := b.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
		assertRedirect(t, resp, body, "/")

		resp, body = b.get("/")
		assertPage(t, resp, body, http.StatusOK, "Log Out")

		resp, body = b.get("/logout")
		assertRedirect(t, resp, body, "/")

		resp, body = b.get("/")
		assertRedirect(t, resp, body, "/login")
	})

	t.Run("login_form_forgets_user", func(t *testing.T) {
		resp, body := b.post("/login", url.Values{"username": {"alice"}, "password": {"secret"}})
		assertRedirect(t, resp, body, "/")

		resp, body = b.get("/login")
		assertPage(t, resp, body, http.StatusOK, `action="/login"`)

		resp, body = b.get("/")
		assertRedirect(t, resp, body, "/login")
	})
}

func TestQuote(t *testing.T) {
	srv, _ := setupServer(t)
	b := newBrowser(t, srv)
	b.register("alice")

	resp, body := b.post("/quote", url.Values{"symbol": {"aapl"}})
	assertPage(t, resp, body, http.StatusOK, "A share of AAPL Corp (AAPL) costs $150.25.")

	resp, body = b.post("/quote", url.Values{"symbol": {"ZZZZ"}})
	assertPage(t, resp, body, http.StatusBadRequest, "no such stock")

	resp, body = b.post("/quote", url.Values{})
	assertPage(t, resp, body, http.StatusBadRequest, "missing symbol")
}

func TestTrading(t *testing.T) {
	srv, _ := setupServer(t)
	b := newBrowser(t, srv)
	b.register("alice")

	t.Run("buy_rejections", func(t *testing.T) {
		tests := []struct {
			form    url.Values
			message string
		}{
			{url.Values{"shares": {"1"}}, "missing symbol"},
			{url.Values{"symbol": {"AAPL"}}, "must provide shares"},
			{url.Values{"symbol": {"AAPL"}, "shares": {"1.5"}}, "invalid shares"},
			{url.Values{"symbol": {"AAPL"}, "shares": {"-1"}}, "invalid shares"},
			{url.Values{"symbol": {"ZZZZ"}, "shares": {"1"}}, "invalid symbol"},
			{url.Values{"symbol": {"NFLX"}, "shares": {"26"}}, "not enough cash"},
		}
		for _, tt := range tests {
			t.Run(tt.message, func(t *testing.T) {
				resp, body := b.post("/buy", tt.form)
				assertPage(t, resp, body, http.StatusBadRequest, tt.message)
			})
		}
	})

	t.Run("buy", func(t *testing.T) {
		resp, body := b.post("/buy", url.Values{"symbol": {"aapl"}, "shares": {"4"}})
		assertRedirect(t, resp, body, "/")

		// 10000 - 4 * 150.25
		resp, body = b.get("/")
		assertPage(t, resp, body, http.StatusOK, "Bought!", "AAPL", "$601.00", "$9,399.00", "$10,000.00")
	})

	t.Run("sell_form_lists_holdings", func(t *testing.T) {
		resp, body := b.get("/sell")
		assertPage(t, resp, body, http.StatusOK, `<option value="AAPL">`)
		if strings.Contains(body, `<option value="NFLX">`) {
			t.Error("sell form lists a symbol that is not held")
		}
	})

	t.Run("oversell", func(t *testing.T) {
		resp, body := b.post("/sell", url.Values{"symbol": {"AAPL"}, "quantity": {"5"}})
		assertPage(t, resp, body, http.StatusBadRequest, "not enough shares")

		resp, body = b.post("/sell", url.Values{"symbol": {"NFLX"}, "quantity": {"1"}})
		assertPage(t, resp, body, http.StatusBadRequest, "not enough shares")
	})

	t.Run("sell", func(t *testing.T) {
		resp, body := b.post("/sell", url.Values{"symbol": {"AAPL"}, "quantity": {"4"}})
		assertRedirect(t, resp, body, "/")

		resp, body = b.get("/")
		assertPage(t, resp, body, http.StatusOK, "Sold!", "$10,000.00")
		if strings.Contains(body, "AAPL Corp") {
			t.Error("closed position still listed in portfolio")
		}
	})

	t.Run("history", func(t *testing.T) {
		resp, body := b.get("/history")
		assertPage(t, resp, body, http.StatusOK, "buy", "sell", "-4", "$150.25", "$601.00")
	})
}

func TestEmptyHistory(t *testing.T) {
	srv, _ := setupServer(t)
	b := newBrowser(t, srv)
	b.register("alice")

	resp, body := b.get("/history")
	assertPage(t, resp, body, http.StatusOK, "<table")
}

func TestApologies(t *testing.T) {
	srv, router := setupServer(t)
	router.GET("/boom", func(*gin.Context) { panic("boom") })
	b := newBrowser(t, srv)

	t.Run("not_found", func(t *testing.T) {
		resp, body := b.get("/nowhere")
		assertPage(t, resp, body, http.StatusNotFound, "not found")
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodDelete, srv.URL+"/login", nil)
		if err != nil {
			t.Fatalf("NewRequest failed: %v", err)
		}
		resp, body := b.do(req)
		assertPage(t, resp, body, http.StatusMethodNotAllowed, "method not allowed")
	})

	t.Run("panic", func(t *testing.T) {
		resp, body := b.get("/boom")
		assertPage(t, resp, body, http.StatusInternalServerError, "internal server error")
		if strings.Contains(body, "boom") {
			t.Error("panic value leaked into the response")
		}
	})
}

func TestNoCacheHeaders(t *testing.T) {
	srv, _ := setupServer(t)
	b := newBrowser(t, srv)

	resp, _ := b.get("/login")
	if got := resp.Header.Get("Cache-Control"); got != "no-cache, no-store, must-revalidate" {
		t.Errorf("Cache-Control = %q", got)
	}
	if got := resp.Header.Get("Pragma"); got != "no-cache" {
		t.Errorf("Pragma = %q", got)
	}
	if got := resp.Header.Get("Expires"); got != "0" {
		t.Errorf("Expires = %q", got)
	}
}
