package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"example.com/campaignai/internal/domain"
)

var activityColumns = []string{"event_id", "event_name", "ts_epoch", "source", "channel", "campaign_id", "metadata"}

type Writer struct {
	db *DB
}

func NewWriter(db *DB) *Writer { return &Writer{db: db} }

// InsertBatch appends activities in one statement. Rows whose event_id is
// already present are skipped.
func (w *Writer) InsertBatch(ctx context.Context, items []domain.Activity) (int64, error) {
	if len(items) == 0 {
		return 0, nil
	}
	sql, args, err := buildInsert(items)
	if err != nil {
		return 0, err
	}
	ct, err := w.db.Pool.Exec(ctx, sql, args...)
	if err != nil {
		return 0, fmt.Errorf("insert activities: %w", err)
	}
	return ct.RowsAffected(), nil
}

func buildInsert(items []domain.Activity) (string, []any, error) {
	rows := make([]string, 0, len(items))
	args := make([]any, 0, len(items)*len(activityColumns))

	for _, a := range items {
		var meta any
		if a.Metadata != nil {
			b, err := json.Marshal(a.Metadata)
			if err != nil {
				return "", nil, fmt.Errorf("marshal metadata for %s: %w", a.EventName, err)
			}
			meta = string(b)
		}
		vals := []any{a.EventID, a.EventName, a.Timestamp, nullable(a.Source), nullable(a.Channel), nullable(a.CampaignID), meta}

		ph := make([]string, len(vals))
		for i, v := range vals {
			args = append(args, v)
			ph[i] = fmt.Sprintf("$%d", len(args))
		}
		ph[len(ph)-1] += "::jsonb"
		rows = append(rows, "("+strings.Join(ph, ",")+")")
	}

	sql := "INSERT INTO activities (" + strings.Join(activityColumns, ",") + ") VALUES " +
		strings.Join(rows, ",") +
		" ON CONFLICT (event_id) DO NOTHING"
	return sql, args, nil
}

// nullable maps "" to SQL NULL.
func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
