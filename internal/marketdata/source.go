// Package marketdata retrieves historical daily bars for one instrument
// from the Alpaca market-data API and caches results locally so repeated
// simulations over the same (symbol, range) key do not refetch.
package marketdata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"backsim/internal/domain"
	"backsim/internal/util"
)

// ErrDataUnavailable reports that the fetch found nothing: an unknown
// symbol, or a date range yielding no bars. It is always distinguishable
// from a transport failure and never silently returned as an empty slice.
var ErrDataUnavailable = errors.New("market data unavailable")

// ErrInvalidRequest reports a malformed fetch request (empty symbol, or a
// start date at or after the end date), raised before any network call.
var ErrInvalidRequest = errors.New("invalid market data request")

// Source produces an ordered daily bar series for one instrument. A
// successful call always returns at least one bar.
type Source interface {
	DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error)
}

// Compile-time interface check.
var _ Source = (*AlpacaSource)(nil)

// AlpacaSource fetches daily OHLCV bars via the Alpaca market-data API,
// retrying transient failures with backoff and pacing calls through a
// token-bucket rate limiter.
type AlpacaSource struct {
	client  *marketdata.Client
	limiter *util.RateLimiter
	log     *slog.Logger
}

// NewAlpacaSource creates an AlpacaSource with the given credentials and
// per-minute rate limit. dataURL overrides the default API endpoint when
// non-empty.
func NewAlpacaSource(apiKey, apiSecret, dataURL string, rateLimitPerMin int) *AlpacaSource {
	opts := marketdata.ClientOpts{
		APIKey:    apiKey,
		APISecret: apiSecret,
	}
	if dataURL != "" {
		opts.BaseURL = dataURL
	}
	return &AlpacaSource{
		client:  marketdata.NewClient(opts),
		limiter: util.NewRateLimiter(rateLimitPerMin),
		log:     slog.Default().With("source", "alpaca"),
	}
}

// DailyBars fetches the daily bar series for symbol over [start, end]. It
// fails with ErrInvalidRequest before fetching when the request is
// malformed, and with ErrDataUnavailable when the API returns no bars for
// the symbol and range.
func (s *AlpacaSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return nil, fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
	}
	if !start.Before(end) {
		return nil, fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidRequest, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	var raw []marketdata.Bar
	err := util.Retry(ctx, 3, time.Second, func() error {
		bars, err := s.client.GetBars(symbol, marketdata.GetBarsRequest{
			TimeFrame: marketdata.OneDay,
			Start:     start,
			End:       end,
		})
		if err != nil {
			return err
		}
		raw = bars
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s bars: %w", symbol, err)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: %s %s..%s",
			ErrDataUnavailable, symbol, start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	bars := make([]domain.Bar, 0, len(raw))
	for _, ab := range raw {
		bars = append(bars, domain.Bar{
			Symbol: symbol,
			Date:   ab.Timestamp.UTC(),
			Open:   ab.Open,
			High:   ab.High,
			Low:    ab.Low,
			Close:  ab.Close,
			Volume: int64(ab.Volume),
		})
	}

	s.log.Info("fetched bars", "symbol", symbol, "bars", len(bars))
	return bars, nil
}
