package domain

import "time"

// Recommendation is one synthesized campaign suggestion. It is created per
// stream and never stored.
type Recommendation struct {
	CampaignID      string         `json:"campaign_id"`
	AudienceSegment string         `json:"audience_segment"`
	Channel         string         `json:"channel"`
	Message         string         `json:"message"`
	Timing          string         `json:"timing"`
	ConfidenceScore float64        `json:"confidence_score"`
	DataInsights    map[string]any `json:"data_insights"`
	ExecutionReady  bool           `json:"execution_ready"`
}

type GTMInsight struct {
	PageViews      int      `json:"page_views"`
	EventsTracked  int      `json:"events_tracked"`
	ConversionRate float64  `json:"conversion_rate"`
	TopPages       []string `json:"top_pages"`
}

type FacebookPixelInsight struct {
	Reach           int     `json:"reach"`
	EngagementRate  float64 `json:"engagement_rate"`
	CostPerClick    float64 `json:"cost_per_click"`
	AudienceOverlap float64 `json:"audience_overlap"`
}

type ShopifyInsight struct {
	Orders        int      `json:"orders"`
	Revenue       int      `json:"revenue"`
	AvgOrderValue float64  `json:"avg_order_value"`
	TopProducts   []string `json:"top_products"`
}

// ChatRequest is the body of a recommendation stream request.
type ChatRequest struct {
	Message     string   `json:"message"`
	DataSources []string `json:"data_sources"`
	Channels    []string `json:"channels"`
}

// Stream event discriminators.
const (
	EventStatus         = "status"
	EventRecommendation = "recommendation"
	EventSummary        = "summary"
)

// StreamEvent is one message of a recommendation stream. Type selects which
// of the remaining fields are populated.
type StreamEvent struct {
	Type                 string          `json:"type"`
	Message              string          `json:"message,omitempty"`
	Data                 *Recommendation `json:"data,omitempty"`
	TotalRecommendations int             `json:"total_recommendations,omitempty"`
	DataSourcesUsed      []string        `json:"data_sources_used,omitempty"`
	ChannelsTargeted     []string        `json:"channels_targeted,omitempty"`
}

// Execution is the response of the campaign execution stub.
type Execution struct {
	CampaignID          string    `json:"campaign_id"`
	Status              string    `json:"status"`
	EstimatedReach      int       `json:"estimated_reach"`
	EstimatedCompletion time.Time `json:"estimated_completion"`
}
