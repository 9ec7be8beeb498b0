package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.

	"backsim/internal/domain"
)

// Cache persists fetched bar series in a SQLite database, keyed by
// (symbol, start, end). Entries expire after a TTL; an expired entry is
// treated as a miss and overwritten on the next fetch.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
}

const cacheSchema = `
CREATE TABLE IF NOT EXISTS cache_entries (
	symbol      TEXT NOT NULL,
	range_start TEXT NOT NULL,
	range_end   TEXT NOT NULL,
	fetched_at  INTEGER NOT NULL,
	PRIMARY KEY (symbol, range_start, range_end)
);
CREATE TABLE IF NOT EXISTS cache_bars (
	symbol      TEXT NOT NULL,
	range_start TEXT NOT NULL,
	range_end   TEXT NOT NULL,
	seq         INTEGER NOT NULL,
	bar_date    INTEGER NOT NULL,
	open        REAL NOT NULL,
	high        REAL NOT NULL,
	low         REAL NOT NULL,
	close       REAL NOT NULL,
	volume      INTEGER NOT NULL,
	PRIMARY KEY (symbol, range_start, range_end, seq)
);`

// NewCache opens (or creates) the cache database at dbPath with the given
// entry TTL.
func NewCache(dbPath string, ttl time.Duration) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening cache db: %w", err)
	}
	if _, err := db.Exec(cacheSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}
	return &Cache{db: db, ttl: ttl}, nil
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}

func rangeKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// Get returns the cached series for the key, reporting a miss when the key
// is absent or its entry has expired.
func (c *Cache) Get(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, bool, error) {
	var fetchedAt int64
	err := c.db.QueryRowContext(ctx,
		`SELECT fetched_at FROM cache_entries WHERE symbol = ? AND range_start = ? AND range_end = ?`,
		symbol, rangeKey(start), rangeKey(end),
	).Scan(&fetchedAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	if time.Since(time.Unix(fetchedAt, 0)) > c.ttl {
		if err := c.evict(ctx, symbol, start, end); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}

	rows, err := c.db.QueryContext(ctx,
		`SELECT bar_date, open, high, low, close, volume
		 FROM cache_bars
		 WHERE symbol = ? AND range_start = ? AND range_end = ?
		 ORDER BY seq`,
		symbol, rangeKey(start), rangeKey(end),
	)
	if err != nil {
		return nil, false, fmt.Errorf("reading cached bars: %w", err)
	}
	defer rows.Close()

	var bars []domain.Bar
	for rows.Next() {
		var (
			b  domain.Bar
			ts int64
		)
		if err := rows.Scan(&ts, &b.Open, &b.High, &b.Low, &b.Close, &b.Volume); err != nil {
			return nil, false, fmt.Errorf("scanning cached bar: %w", err)
		}
		b.Symbol = symbol
		b.Date = time.UnixMilli(ts).UTC()
		bars = append(bars, b)
	}
	if err := rows.Err(); err != nil {
		return nil, false, fmt.Errorf("iterating cached bars: %w", err)
	}
	if len(bars) == 0 {
		// Entry without bars should not happen; treat as a miss.
		return nil, false, nil
	}
	return bars, true, nil
}

// Put stores the series under the key, replacing any previous entry, in a
// single transaction.
func (c *Cache) Put(ctx context.Context, symbol string, start, end time.Time, bars []domain.Bar) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting cache tx: %w", err)
	}
	defer tx.Rollback()

	sk, ek := rangeKey(start), rangeKey(end)
	if _, err := tx.ExecContext(ctx,
		`DELETE FROM cache_bars WHERE symbol = ? AND range_start = ? AND range_end = ?`,
		symbol, sk, ek); err != nil {
		return fmt.Errorf("clearing cached bars: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache_entries (symbol, range_start, range_end, fetched_at) VALUES (?, ?, ?, ?)`,
		symbol, sk, ek, time.Now().Unix()); err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	for i, b := range bars {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO cache_bars (symbol, range_start, range_end, seq, bar_date, open, high, low, close, volume)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			symbol, sk, ek, i, b.Date.UnixMilli(), b.Open, b.High, b.Low, b.Close, b.Volume); err != nil {
			return fmt.Errorf("writing cached bar %d: %w", i, err)
		}
	}

	return tx.Commit()
}

func (c *Cache) evict(ctx context.Context, symbol string, start, end time.Time) error {
	sk, ek := rangeKey(start), rangeKey(end)
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_bars WHERE symbol = ? AND range_start = ? AND range_end = ?`,
		symbol, sk, ek); err != nil {
		return fmt.Errorf("evicting cached bars: %w", err)
	}
	if _, err := c.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE symbol = ? AND range_start = ? AND range_end = ?`,
		symbol, sk, ek); err != nil {
		return fmt.Errorf("evicting cache entry: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ Source = (*CachedSource)(nil)

// CachedSource wraps a Source with the cache: hits skip the network
// entirely, misses fetch and then populate the cache best-effort.
type CachedSource struct {
	src   Source
	cache *Cache
	log   *slog.Logger
}

// NewCachedSource creates a CachedSource over the given source and cache.
func NewCachedSource(src Source, cache *Cache) *CachedSource {
	return &CachedSource{
		src:   src,
		cache: cache,
		log:   slog.Default().With("source", "cached"),
	}
}

// DailyBars serves the series from the cache when fresh, fetching and
// repopulating it otherwise. A cache write failure is logged but never
// fails the fetch.
func (c *CachedSource) DailyBars(ctx context.Context, symbol string, start, end time.Time) ([]domain.Bar, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if bars, hit, err := c.cache.Get(ctx, symbol, start, end); err != nil {
		c.log.Warn("cache read failed", "symbol", symbol, "err", err)
	} else if hit {
		c.log.Debug("cache hit", "symbol", symbol, "bars", len(bars))
		return bars, nil
	}

	bars, err := c.src.DailyBars(ctx, symbol, start, end)
	if err != nil {
		return nil, err
	}
	if err := c.cache.Put(ctx, symbol, start, end, bars); err != nil {
		c.log.Warn("cache write failed", "symbol", symbol, "err", err)
	}
	return bars, nil
}
