// Package registry holds the process-local connection and channel state.
// Nothing is persisted; a new Registry starts empty.
package registry

import (
	"sync"
	"time"

	"example.com/campaignai/internal/domain"
)

// Registry maps data source and channel identifiers to their latest
// connect or enable record. Safe for concurrent use; last write wins.
type Registry struct {
	mu       sync.RWMutex
	sources  map[string]domain.ConnectionRecord
	channels map[string]domain.ChannelRecord
}

func New() *Registry {
	return &Registry{
		sources:  make(map[string]domain.ConnectionRecord),
		channels: make(map[string]domain.ChannelRecord),
	}
}

// ConnectSource upserts the record for sourceType. Repeated calls overwrite.
// The caller validates sourceType.
func (r *Registry) ConnectSource(sourceType string, cfg map[string]any, now time.Time) domain.ConnectionRecord {
	rec := domain.ConnectionRecord{
		SourceType:  sourceType,
		ConnectedAt: now,
		Config:      nonNil(cfg),
		Status:      domain.StatusActive,
	}
	r.mu.Lock()
	r.sources[sourceType] = rec
	r.mu.Unlock()
	return rec
}

// EnableChannel upserts the record for channelType. Repeated calls overwrite.
func (r *Registry) EnableChannel(channelType string, cfg map[string]any, now time.Time) domain.ChannelRecord {
	rec := domain.ChannelRecord{
		ChannelType: channelType,
		EnabledAt:   now,
		Config:      nonNil(cfg),
		Status:      domain.StatusActive,
	}
	r.mu.Lock()
	r.channels[channelType] = rec
	r.mu.Unlock()
	return rec
}

func (r *Registry) Source(sourceType string) (domain.ConnectionRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.sources[sourceType]
	return rec, ok
}

func (r *Registry) Channel(channelType string) (domain.ChannelRecord, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.channels[channelType]
	return rec, ok
}

// DataSources returns the source catalog annotated with live connection flags.
func (r *Registry) DataSources() []domain.DataSource {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.DataSource, 0, len(domain.SourceCatalog))
	for _, e := range domain.SourceCatalog {
		ds := domain.DataSource{
			Name:   e.Name,
			Type:   e.Type,
			Status: domain.StatusAvailable,
			Config: map[string]any{},
		}
		if _, ok := r.sources[e.Type]; ok {
			ds.Connected = true
			ds.Status = domain.StatusConnected
		}
		out = append(out, ds)
	}
	return out
}

// Channels returns the channel catalog annotated with live enablement flags.
func (r *Registry) Channels() []domain.Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Channel, 0, len(domain.ChannelCatalog))
	for _, e := range domain.ChannelCatalog {
		_, ok := r.channels[e.Type]
		out = append(out, domain.Channel{
			Name:    e.Name,
			Type:    e.Type,
			Enabled: ok,
			Config:  map[string]any{},
		})
	}
	return out
}

func nonNil(m map[string]any) map[string]any {
	if m == nil {
		return map[string]any{}
	}
	return m
}
