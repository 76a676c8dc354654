// Package views holds the HTML templates of the site and the helpers they use.
package views

import (
	"embed"
	"html/template"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templates embed.FS

// Load parses every page template. Pages are looked up by file name,
// e.g. "index.html".
func Load() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templates, "templates/*.html")
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"usd":       USD,
		"timestamp": Timestamp,
	}
}

// USD formats an amount as US dollars, e.g. $1,234.56.
func USD(amount decimal.Decimal) string {
	cur := money.GetCurrency(money.USD)
	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	cents := amount.Mul(factor).Round(0)
	return money.New(cents.IntPart(), money.USD).Display()
}

func Timestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02 15:04:05")
}
