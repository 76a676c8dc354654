package quote

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const DefaultBaseURL = "https://www.alphavantage.co"

type globalQuoteResponse struct {
	GlobalQuote struct {
		Symbol string `json:"01. symbol"`
		Price  string `json:"05. price"`
	} `json:"Global Quote"`
	Note        string `json:"Note"`
	Information string `json:"Information"`
}

type symbolSearchResponse struct {
	BestMatches []struct {
		Symbol string `json:"1. symbol"`
		Name   string `json:"2. name"`
	} `json:"bestMatches"`
}

// AlphaVantage is a Provider backed by the Alpha Vantage query API.
// Company names change rarely, so each symbol is searched at most once per
// process; prices are fetched on every Lookup.
type AlphaVantage struct {
	apiKey  string
	baseURL string
	client  *http.Client
	log     *slog.Logger

	mu    sync.RWMutex
	names map[string]string
}

func NewAlphaVantage(apiKey, baseURL string, timeout time.Duration, log *slog.Logger) *AlphaVantage {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &AlphaVantage{
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		log:     log,
		names:   make(map[string]string),
	}
}

// Lookup fetches the latest price of symbol and, best effort, its company name.
func (a *AlphaVantage) Lookup(ctx context.Context, symbol string) (Quote, error) {
	const op = "quote.AlphaVantage.Lookup"

	symbol = Normalize(symbol)
	if symbol == "" {
		return Quote{}, ErrNotFound
	}

	var result globalQuoteResponse
	if err := a.get(ctx, url.Values{"function": {"GLOBAL_QUOTE"}, "symbol": {symbol}}, &result); err != nil {
		return Quote{}, fmt.Errorf("%s: %w: %v", op, ErrNotFound, err)
	}

	if result.GlobalQuote.Price == "" {
		if msg := result.Note + result.Information; msg != "" {
			a.log.Warn("alpha vantage refused the request", slog.String("symbol", symbol), slog.String("message", msg))
		}
		return Quote{}, ErrNotFound
	}

	price, err := decimal.NewFromString(result.GlobalQuote.Price)
	if err != nil || !price.IsPositive() {
		return Quote{}, fmt.Errorf("%s: %w: bad price %q", op, ErrNotFound, result.GlobalQuote.Price)
	}

	q := Quote{Symbol: symbol, Name: symbol, Price: price}
	if s := Normalize(result.GlobalQuote.Symbol); s != "" {
		q.Symbol = s
	}
	if name := a.companyName(ctx, q.Symbol); name != "" {
		q.Name = name
	}

	return q, nil
}

func (a *AlphaVantage) companyName(ctx context.Context, symbol string) string {
	a.mu.RLock()
	name, ok := a.names[symbol]
	a.mu.RUnlock()
	if ok {
		return name
	}

	var result symbolSearchResponse
	if err := a.get(ctx, url.Values{"function": {"SYMBOL_SEARCH"}, "keywords": {symbol}}, &result); err != nil {
		a.log.Debug("symbol search failed", slog.String("symbol", symbol), slog.Any("error", err))
		return ""
	}
	for _, m := range result.BestMatches {
		if Normalize(m.Symbol) == symbol {
			name = strings.TrimSpace(m.Name)
			break
		}
	}

	// A search that answered without a match is remembered too; failed
	// requests are retried on the next Lookup.
	a.mu.Lock()
	a.names[symbol] = name
	a.mu.Unlock()
	return name
}

func (a *AlphaVantage) get(ctx context.Context, params url.Values, out any) error {
	params.Set("apikey", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/query?"+params.Encode(), nil)
	if err != nil {
		return err
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to fetch stock data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse stock data: %w", err)
	}
	return nil
}
