package sections

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"dailydigest/config"
	"dailydigest/models"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
	log "github.com/sirupsen/logrus"
)

// Quote is a single market price
type Quote struct {
	Symbol        string
	Name          string
	Price         float64
	ChangePercent float64
}

func (q Quote) String() string {
	name := q.Name
	if name == "" {
		name = q.Symbol
	}
	return fmt.Sprintf("%s (%s): %.2f (%+.2f%%)", name, q.Symbol, q.Price, q.ChangePercent)
}

// QuoteSource looks up market quotes
type QuoteSource interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// FinanceQuotes reads quotes through finance-go
type FinanceQuotes struct {
	// Timeout bounds each lookup. Zero only honours the caller's context.
	Timeout time.Duration
	// Lookup defaults to quote.Get
	Lookup func(symbol string) (*finance.Quote, error)
}

var errNoQuote = errors.New("no quote returned")

// NewFinanceQuotes points finance-go at a client with the given timeout and
// bounds every lookup by the same duration.
func NewFinanceQuotes(timeout time.Duration) *FinanceQuotes {
	finance.SetHTTPClient(&http.Client{Timeout: timeout})
	return &FinanceQuotes{Timeout: timeout}
}

func (f *FinanceQuotes) Quote(ctx context.Context, symbol string) (Quote, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}

	lookup := f.Lookup
	if lookup == nil {
		lookup = quote.Get
	}

	type result struct {
		q   *finance.Quote
		err error
	}
	// finance-go takes no context, so the lookup is abandoned on expiry
	done := make(chan result, 1)
	go func() {
		q, err := lookup(symbol)
		done <- result{q, err}
	}()

	select {
	case <-ctx.Done():
		return Quote{}, fmt.Errorf("%s: %w", symbol, ctx.Err())
	case res := <-done:
		if res.err != nil {
			return Quote{}, res.err
		}
		if res.q == nil {
			return Quote{}, fmt.Errorf("%s: %w", symbol, errNoQuote)
		}
		return fromFinance(res.q), nil
	}
}

func fromFinance(q *finance.Quote) Quote {
	return Quote{
		Symbol:        q.Symbol,
		Name:          strings.TrimSpace(q.ShortName),
		Price:         q.RegularMarketPrice,
		ChangePercent: q.RegularMarketChangePercent,
	}
}

// Market lists one line per configured symbol
type Market struct {
	quotes  QuoteSource
	title   string
	symbols []string
}

func NewMarket(quotes QuoteSource, cfg config.TomlMarket) *Market {
	if quotes == nil {
		quotes = &FinanceQuotes{}
	}
	return &Market{
		quotes:  quotes,
		title:   cfg.Title,
		symbols: cfg.Symbols,
	}
}

func (m *Market) Name() string { return config.SectionMarket }

func (m *Market) Fetch(ctx context.Context) models.Section {
	var lines []string
	var errs []error

	for _, symbol := range m.symbols {
		q, err := m.quotes.Quote(ctx, symbol)
		if err != nil {
			log.WithFields(log.Fields{
				"symbol": symbol,
			}).Warnf("Failed to get quote: %v", err)
			errs = append(errs, err)
			continue
		}
		lines = append(lines, q.String())
	}

	if len(lines) == 0 {
		if len(errs) == 0 {
			return models.Failed(m.Name(), m.title, models.ReasonEmpty, nil)
		}
		return failed(m.Name(), m.title, errors.Join(errs...))
	}

	return models.Section{
		Name:  m.Name(),
		Title: m.title,
		Lines: lines,
	}
}
