package tracing

import (
	"context"
	"fmt"

	"github.com/sarchlab/siolink/datarecording"
)

// TransferQuery selects transfer entries.
type TransferQuery struct {
	Kind   string
	From   uint64
	Limit  int
	Offset int
}

// ReadTransfers returns the matching transfer entries in time order and the
// total number of matches.
func ReadTransfers(
	ctx context.Context,
	reader datarecording.DataReader,
	q TransferQuery,
) ([]TransferEntry, int, error) {
	reader.MapTable(TransferTable, TransferEntry{})

	params := datarecording.QueryParams{
		Where:   "Time >= ?",
		Args:    []any{q.From},
		OrderBy: "Time, rowid",
		Limit:   q.Limit,
		Offset:  q.Offset,
	}

	if q.Kind != "" {
		params.Where += " AND Kind = ?"
		params.Args = append(params.Args, q.Kind)
	}

	rows, total, err := reader.Query(ctx, TransferTable, params)
	if err != nil {
		return nil, 0, fmt.Errorf("tracing: %w", err)
	}

	entries := make([]TransferEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, *row.(*TransferEntry))
	}

	return entries, total, nil
}
