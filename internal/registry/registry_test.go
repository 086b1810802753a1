package registry

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/campaignai/internal/domain"
)

func TestEmptyRegistry(t *testing.T) {
	r := New()

	sources := r.DataSources()
	require.Len(t, sources, 3)
	for _, s := range sources {
		assert.False(t, s.Connected, s.Type)
		assert.Equal(t, domain.StatusAvailable, s.Status)
		assert.NotNil(t, s.Config)
	}

	channels := r.Channels()
	require.Len(t, channels, 4)
	for _, c := range channels {
		assert.False(t, c.Enabled, c.Type)
	}
}

func TestConnectSourceFlagsOnlyThatSource(t *testing.T) {
	r := New()
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	rec := r.ConnectSource(domain.SourceShopify, map[string]any{"shop": "demo"}, now)
	assert.Equal(t, domain.StatusActive, rec.Status)
	assert.Equal(t, now, rec.ConnectedAt)

	for _, s := range r.DataSources() {
		if s.Type == domain.SourceShopify {
			assert.True(t, s.Connected)
			assert.Equal(t, domain.StatusConnected, s.Status)
		} else {
			assert.False(t, s.Connected, s.Type)
			assert.Equal(t, domain.StatusAvailable, s.Status)
		}
	}
}

func TestConnectSourceOverwrites(t *testing.T) {
	r := New()
	t0 := time.Unix(100, 0).UTC()
	t1 := time.Unix(200, 0).UTC()

	r.ConnectSource(domain.SourceGTM, map[string]any{"id": "a"}, t0)
	r.ConnectSource(domain.SourceGTM, nil, t1)

	rec, ok := r.Source(domain.SourceGTM)
	require.True(t, ok)
	assert.Equal(t, t1, rec.ConnectedAt)
	assert.Empty(t, rec.Config)
	assert.NotNil(t, rec.Config)
}

func TestEnableChannelFlagsOnlyThatChannel(t *testing.T) {
	r := New()
	r.EnableChannel(domain.ChannelSMS, nil, time.Now())

	for _, c := range r.Channels() {
		assert.Equal(t, c.Type == domain.ChannelSMS, c.Enabled, c.Type)
	}
	_, ok := r.Channel(domain.ChannelEmail)
	assert.False(t, ok)
}

func TestConcurrentUpserts(t *testing.T) {
	r := New()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			r.ConnectSource(domain.SourceFacebookPixel, nil, time.Now())
		}()
		go func() {
			defer wg.Done()
			r.EnableChannel(domain.ChannelPush, nil, time.Now())
			_ = r.Channels()
		}()
	}
	wg.Wait()

	_, ok := r.Source(domain.SourceFacebookPixel)
	assert.True(t, ok)
	_, ok = r.Channel(domain.ChannelPush)
	assert.True(t, ok)
}
