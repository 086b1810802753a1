package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"example.com/campaignai/internal/domain"
)

type KeySource string

const (
	KeyFromEventID   KeySource = "event_id"
	KeyFromComposite KeySource = "composite"
)

// DeriveKey returns the key that deduplicates an activity in the log.
// An explicit EventID wins; otherwise the key is the hex SHA-256 of
// (event_name, source, channel, campaign_id, timestamp).
func DeriveKey(a *domain.Activity) (key string, src KeySource) {
	if a.EventID != "" {
		return a.EventID, KeyFromEventID
	}
	composite := fmt.Sprintf("%s|%s|%s|%s|%d", a.EventName, a.Source, a.Channel, a.CampaignID, a.Timestamp)
	sum := sha256.Sum256([]byte(composite))
	return hex.EncodeToString(sum[:]), KeyFromComposite
}

// Stamp fills a.EventID with the derived key when it is empty.
func Stamp(a *domain.Activity) {
	if a.EventID == "" {
		a.EventID, _ = DeriveKey(a)
	}
}
