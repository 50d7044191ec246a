package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"quant/types"
)

type fieldRow struct {
	Date   time.Time
	Ticker string
	Value  decimal.Decimal
}

// Field loads one field matrix (close, volume, ...) keyed by trading date
// and ticker. Rows with NULL values are stored as missing cells.
func (db *Database) Field(ctx context.Context, name string) (types.Frame, error) {
	query := `
		SELECT trade_date, ticker, value
		FROM fields
		WHERE field = $1
		ORDER BY trade_date, ticker
	`

	rows, err := db.pool.Query(ctx, query, name)
	if err != nil {
		return types.Frame{}, fmt.Errorf("query field %s: %w", name, err)
	}
	defer rows.Close()

	var entries []fieldRow
	for rows.Next() {
		var entry fieldRow
		var value *decimal.Decimal
		if err := rows.Scan(&entry.Date, &entry.Ticker, &value); err != nil {
			return types.Frame{}, fmt.Errorf("scan field row: %w", err)
		}
		if value == nil {
			continue
		}
		entry.Value = *value
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return types.Frame{}, fmt.Errorf("iterate field rows: %w", err)
	}
	if len(entries) == 0 {
		return types.Frame{}, fmt.Errorf("field %s: %w", name, ErrFieldNotFound)
	}

	return frameFromRows(entries), nil
}

func frameFromRows(entries []fieldRow) types.Frame {
	b := types.NewFrameBuilder()
	for _, e := range entries {
		b.Set(e.Date, e.Ticker, e.Value)
	}
	return b.Build()
}
