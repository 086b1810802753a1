package domain

import "time"

// Data source identifiers.
const (
	SourceGTM           = "gtm"
	SourceFacebookPixel = "facebook_pixel"
	SourceShopify       = "shopify"
)

// Channel identifiers.
const (
	ChannelEmail    = "email"
	ChannelSMS      = "sms"
	ChannelPush     = "push"
	ChannelWhatsApp = "whatsapp"
)

// CatalogEntry is a display name paired with its identifier.
type CatalogEntry struct {
	Name string
	Type string
}

// SourceCatalog lists the supported data sources in display order.
var SourceCatalog = []CatalogEntry{
	{Name: "Google Tag Manager", Type: SourceGTM},
	{Name: "Facebook Pixel", Type: SourceFacebookPixel},
	{Name: "Shopify", Type: SourceShopify},
}

// ChannelCatalog lists the supported channels in display order.
var ChannelCatalog = []CatalogEntry{
	{Name: "Email", Type: ChannelEmail},
	{Name: "SMS", Type: ChannelSMS},
	{Name: "Push Notifications", Type: ChannelPush},
	{Name: "WhatsApp", Type: ChannelWhatsApp},
}

// KnownSource reports whether t is a data source identifier from SourceCatalog.
func KnownSource(t string) bool { return inCatalog(SourceCatalog, t) }

// KnownChannel reports whether t is a channel identifier from ChannelCatalog.
func KnownChannel(t string) bool { return inCatalog(ChannelCatalog, t) }

func inCatalog(c []CatalogEntry, t string) bool {
	for _, e := range c {
		if e.Type == t {
			return true
		}
	}
	return false
}

// Status values stored on registry records and shown in listings.
const (
	StatusActive    = "active"
	StatusAvailable = "available"
	StatusConnected = "connected"
	StatusEnabled   = "enabled"
	StatusExecuting = "executing"
)

// ConnectionRecord is the registry entry for a connected data source.
type ConnectionRecord struct {
	SourceType  string         `json:"source_type"`
	ConnectedAt time.Time      `json:"connected_at"`
	Config      map[string]any `json:"config"`
	Status      string         `json:"status"`
}

// ChannelRecord is the registry entry for an enabled channel.
type ChannelRecord struct {
	ChannelType string         `json:"channel_type"`
	EnabledAt   time.Time      `json:"enabled_at"`
	Config      map[string]any `json:"config"`
	Status      string         `json:"status"`
}

// DataSource is a catalog entry annotated with live connection state.
type DataSource struct {
	Name      string         `json:"name"`
	Type      string         `json:"type"`
	Status    string         `json:"status"`
	Connected bool           `json:"connected"`
	Config    map[string]any `json:"config"`
}

// Channel is a catalog entry annotated with live enablement state.
type Channel struct {
	Name    string         `json:"name"`
	Type    string         `json:"type"`
	Enabled bool           `json:"enabled"`
	Config  map[string]any `json:"config"`
}
