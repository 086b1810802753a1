package domain

// Activity is one entry of the optional activity log. Timestamp is epoch
// seconds (UTC).
type Activity struct {
	EventID    string         `json:"event_id,omitempty"`
	EventName  string         `json:"event_name"`
	Timestamp  int64          `json:"timestamp"`
	Source     string         `json:"source,omitempty"`
	Channel    string         `json:"channel,omitempty"`
	CampaignID string         `json:"campaign_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// Activity names.
const (
	ActivitySourceConnected         = "data_source_connected"
	ActivityChannelEnabled          = "channel_enabled"
	ActivityRecommendationGenerated = "recommendation_generated"
	ActivityCampaignExecuted        = "campaign_executed"
)
