package postgres

import (
	"fmt"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/drivehub/booking-service/internal/domain/ports"
)

// executor picks the caller's transaction when one is passed, otherwise the pool
func executor(pool ports.DBTX, tx ports.DBTX) ports.DBTX {
	if tx != nil {
		return tx
	}
	return pool
}

// decimalToNumeric converts a decimal.Decimal to pgtype.Numeric
func decimalToNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	n := pgtype.Numeric{}
	if err := n.Scan(d.String()); err != nil {
		return n, fmt.Errorf("convert decimal %s: %w", d, err)
	}
	return n, nil
}

// numericToDecimal converts a pgtype.Numeric to decimal.Decimal
func numericToDecimal(n pgtype.Numeric) (decimal.Decimal, error) {
	if !n.Valid {
		return decimal.Zero, nil
	}
	v, err := n.Value()
	if err != nil {
		return decimal.Zero, fmt.Errorf("read numeric: %w", err)
	}
	s, ok := v.(string)
	if !ok {
		return decimal.Zero, fmt.Errorf("unexpected numeric driver value %T", v)
	}
	return decimal.NewFromString(s)
}

// nullText converts a string to pgtype.Text, empty string maps to NULL
func nullText(s string) pgtype.Text {
	if s == "" {
		return pgtype.Text{Valid: false}
	}
	return pgtype.Text{String: s, Valid: true}
}

// textPtr converts a nullable text column to a string pointer
func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	s := t.String
	return &s
}
