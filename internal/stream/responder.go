// Package stream produces the paced recommendation event sequence and frames
// it as server-sent events.
package stream

import (
	"context"
	"fmt"
	"slices"
	"time"

	"example.com/campaignai/internal/domain"
	"example.com/campaignai/internal/recommend"
)

// Status texts emitted before any recommendation, in order.
var statusMessages = []string{
	"Analyzing your data sources...",
	"Processing customer segments...",
	"Generating campaign recommendations...",
}

// DefaultUnit is the pacing unit used when Responder.Unit is zero.
const DefaultUnit = time.Second

type Responder struct {
	// Unit scales every pause: one unit after each status event and
	// [0.5, 1.5] units after each recommendation.
	Unit time.Duration
	// NewGenerator returns a fresh generator for each stream. Nil means
	// recommend.NewRandom.
	NewGenerator func() *recommend.Generator
}

// Stream validates req and starts producing events on the returned channel.
// The channel is unbuffered and closed after the summary event, or as soon
// as ctx is done. The consumer must either drain it or cancel ctx.
func (r *Responder) Stream(ctx context.Context, req domain.ChatRequest) (<-chan domain.StreamEvent, error) {
	if err := domain.ValidateChatRequest(&req); err != nil {
		return nil, err
	}
	sources := slices.Clone(req.DataSources)
	channels := slices.Clone(req.Channels)

	newGen := r.NewGenerator
	if newGen == nil {
		newGen = recommend.NewRandom
	}
	unit := r.Unit
	if unit <= 0 {
		unit = DefaultUnit
	}

	out := make(chan domain.StreamEvent)
	go produce(ctx, out, newGen(), unit, sources, channels)
	return out, nil
}

func produce(ctx context.Context, out chan<- domain.StreamEvent, gen *recommend.Generator, unit time.Duration, sources, channels []string) {
	defer close(out)

	send := func(ev domain.StreamEvent) bool {
		select {
		case out <- ev:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for _, msg := range statusMessages {
		if !send(domain.StreamEvent{Type: domain.EventStatus, Message: msg}) {
			return
		}
		if !sleep(ctx, unit) {
			return
		}
	}

	n := gen.Count()
	for i := 0; i < n; i++ {
		rec := gen.Recommend(channels, sources)
		if !send(domain.StreamEvent{Type: domain.EventRecommendation, Data: &rec}) {
			return
		}
		if !sleep(ctx, time.Duration(gen.Jitter()*float64(unit))) {
			return
		}
	}

	send(domain.StreamEvent{
		Type:                 domain.EventSummary,
		Message:              fmt.Sprintf("Generated %d campaign recommendations based on your query.", n),
		TotalRecommendations: n,
		DataSourcesUsed:      sources,
		ChannelsTargeted:     channels,
	})
}

// sleep pauses for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
