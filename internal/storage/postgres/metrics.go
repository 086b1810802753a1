package postgres

import (
	"context"
	"fmt"
)

type MetricsTotals struct {
	Count int64 `json:"count"`
}

type MetricsBucket struct {
	BucketStart int64 `json:"bucket_start"`
	Count       int64 `json:"count"`
}

// MetricsFilter selects activities in [From, To] (epoch seconds). Empty
// EventName or Channel means no filter.
type MetricsFilter struct {
	EventName string
	Channel   string
	From      int64
	To        int64
}

func (f MetricsFilter) where() (string, []any) {
	cond := "WHERE ts_epoch >= $1 AND ts_epoch <= $2"
	args := []any{f.From, f.To}
	if f.EventName != "" {
		args = append(args, f.EventName)
		cond += fmt.Sprintf(" AND event_name=$%d", len(args))
	}
	if f.Channel != "" {
		args = append(args, f.Channel)
		cond += fmt.Sprintf(" AND channel=$%d", len(args))
	}
	return cond, args
}

func (db *DB) QueryTotals(ctx context.Context, f MetricsFilter) (MetricsTotals, error) {
	var res MetricsTotals
	cond, args := f.where()
	row := db.Pool.QueryRow(ctx, "SELECT COUNT(*)::bigint FROM activities "+cond, args...)
	if err := row.Scan(&res.Count); err != nil {
		return res, fmt.Errorf("scan totals: %w", err)
	}
	return res, nil
}

func (db *DB) QueryBucketsDaily(ctx context.Context, f MetricsFilter) ([]MetricsBucket, error) {
	cond, args := f.where()
	sql := fmt.Sprintf(`
SELECT
  EXTRACT(EPOCH FROM date_trunc('day', to_timestamp(ts_epoch)))::bigint AS bucket_start,
  COUNT(*)::bigint AS cnt
FROM activities
%s
GROUP BY 1
ORDER BY 1 ASC`, cond)

	rows, err := db.Pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query buckets: %w", err)
	}
	defer rows.Close()

	var out []MetricsBucket
	for rows.Next() {
		var b MetricsBucket
		if err := rows.Scan(&b.BucketStart, &b.Count); err != nil {
			return nil, fmt.Errorf("scan bucket: %w", err)
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
