package postgres

import (
	"io"
	"log/slog"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// decimalArg matches a decimal argument by value rather than representation
type decimalArg struct {
	want decimal.Decimal
}

func (a decimalArg) Match(v interface{}) bool {
	got, ok := v.(decimal.Decimal)
	return ok && got.Equal(a.want)
}

var decimal0 = decimal.Zero

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// anyArgs matches a statement by arity only
func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
