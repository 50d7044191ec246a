package engine

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"quant/types"
)

// WriteTradesCSVFile writes the trade log to a CSV file at the given path.
func (r *Result) WriteTradesCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create trades file: %w", err)
	}
	defer f.Close()

	return writeTradesCSV(f, r.Trades)
}

// WriteEquityCSVFile writes the daily value and return series to a CSV file.
func (r *Result) WriteEquityCSVFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create equity file: %w", err)
	}
	defer f.Close()

	return writeEquityCSV(f, r.PortfolioValue, r.DailyReturns)
}

// writeTradesCSV writes trades to any io.Writer as CSV. Pass os.Stdout for
// debugging, or a file.
func writeTradesCSV(w io.Writer, trades []types.Trade) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"date", "ticker", "action", "shares", "price", "value", "cost"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, t := range trades {
		record := []string{
			t.Date.Format("2006-01-02"),
			t.Ticker,
			string(t.Side),
			t.Shares.String(),
			t.Price.String(),
			t.Value.String(),
			t.Cost.String(),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func writeEquityCSV(w io.Writer, values types.ValueSeries, returns types.ReturnSeries) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	if err := cw.Write([]string{"date", "value", "return"}); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	returnByDate := make(map[time.Time]float64, len(returns))
	for _, r := range returns {
		returnByDate[r.Date] = r.Return
	}

	for _, pt := range values {
		ret := ""
		if r, ok := returnByDate[pt.Date]; ok {
			ret = strconv.FormatFloat(r, 'f', -1, 64)
		}
		record := []string{pt.Date.Format("2006-01-02"), pt.Value.String(), ret}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}

	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
