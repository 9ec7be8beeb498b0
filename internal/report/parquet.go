// Package report renders and persists the outputs of a backtest run: the
// human-readable metrics summary, and Parquet exports of the equity curve
// and trade log for downstream charting.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"

	"backsim/internal/backtest"
)

// ParquetWriter persists run outputs as Parquet files on disk.
type ParquetWriter struct {
	DataDir string
}

// NewParquetWriter creates a ParquetWriter rooted at the given data directory.
func NewParquetWriter(dataDir string) *ParquetWriter {
	return &ParquetWriter{DataDir: dataDir}
}

// ---------------------------------------------------------------------------
// Parquet record types (on-disk schema)
// ---------------------------------------------------------------------------

// EquityRecord is the Parquet schema for one equity-curve point.
type EquityRecord struct {
	Symbol    string  `parquet:"symbol"`
	Timestamp int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Equity    float64 `parquet:"equity"`
}

// TradeRecord is the Parquet schema for one trade log entry.
type TradeRecord struct {
	Symbol     string  `parquet:"symbol"`
	Timestamp  int64   `parquet:"timestamp,timestamp(millisecond)"` // Unix ms
	Action     string  `parquet:"action"`
	Price      float64 `parquet:"price"`
	Commission float64 `parquet:"commission"`
	Message    string  `parquet:"message"`
}

// ---------------------------------------------------------------------------
// Writing
// ---------------------------------------------------------------------------

// WriteResult writes the equity curve and trade log of a run to:
//
//	<DataDir>/reports/<SYMBOL>/equity.parquet
//	<DataDir>/reports/<SYMBOL>/trades.parquet
//
// An existing report for the same symbol is replaced.
func (w *ParquetWriter) WriteResult(symbol string, res *backtest.Result) error {
	equity := make([]EquityRecord, 0, len(res.EquityCurve))
	for _, p := range res.EquityCurve {
		equity = append(equity, EquityRecord{
			Symbol:    strings.ToUpper(symbol),
			Timestamp: p.Date.UnixMilli(),
			Equity:    p.Equity,
		})
	}
	if err := writeParquetFile(w.equityPath(symbol), equity); err != nil {
		return fmt.Errorf("writing equity curve for %s: %w", symbol, err)
	}

	trades := make([]TradeRecord, 0, len(res.TradeLog))
	for _, e := range res.TradeLog {
		trades = append(trades, TradeRecord{
			Symbol:     strings.ToUpper(symbol),
			Timestamp:  e.Date.UnixMilli(),
			Action:     string(e.Action),
			Price:      e.Price,
			Commission: e.Commission,
			Message:    e.Message,
		})
	}
	if err := writeParquetFile(w.tradePath(symbol), trades); err != nil {
		return fmt.Errorf("writing trade log for %s: %w", symbol, err)
	}

	return nil
}

// ReadEquityCurve reads a previously written equity curve back from disk.
func (w *ParquetWriter) ReadEquityCurve(symbol string) ([]EquityRecord, error) {
	return readParquetFile[EquityRecord](w.equityPath(symbol))
}

// ReadTrades reads a previously written trade log back from disk.
func (w *ParquetWriter) ReadTrades(symbol string) ([]TradeRecord, error) {
	return readParquetFile[TradeRecord](w.tradePath(symbol))
}

// Date returns the record's timestamp as a time.Time.
func (r EquityRecord) Date() time.Time { return time.UnixMilli(r.Timestamp) }

// Date returns the record's timestamp as a time.Time.
func (r TradeRecord) Date() time.Time { return time.UnixMilli(r.Timestamp) }

// ---------------------------------------------------------------------------
// Path and file helpers
// ---------------------------------------------------------------------------

func (w *ParquetWriter) equityPath(symbol string) string {
	return filepath.Join(w.DataDir, "reports", strings.ToUpper(symbol), "equity.parquet")
}

func (w *ParquetWriter) tradePath(symbol string) string {
	return filepath.Join(w.DataDir, "reports", strings.ToUpper(symbol), "trades.parquet")
}

func writeParquetFile[T any](path string, records []T) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return parquet.WriteFile(path, records)
}

func readParquetFile[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
