package stream

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"example.com/campaignai/internal/domain"
	"example.com/campaignai/internal/recommend"
)

func testResponder(seed uint64) *Responder {
	return &Responder{
		Unit:         time.Millisecond,
		NewGenerator: func() *recommend.Generator { return recommend.NewSeeded(seed) },
	}
}

func collect(t *testing.T, ch <-chan domain.StreamEvent) []domain.StreamEvent {
	t.Helper()
	var out []domain.StreamEvent
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, ev)
		case <-timeout:
			t.Fatal("stream did not finish")
		}
	}
}

func TestStreamSequence(t *testing.T) {
	defer goleak.VerifyNone(t)

	for seed := uint64(0); seed < 20; seed++ {
		req := domain.ChatRequest{
			Message:     "plan a weekend promo",
			DataSources: []string{domain.SourceGTM, domain.SourceShopify},
			Channels:    []string{domain.ChannelSMS, domain.ChannelPush},
		}
		ch, err := testResponder(seed).Stream(context.Background(), req)
		require.NoError(t, err)
		events := collect(t, ch)

		require.GreaterOrEqual(t, len(events), 3+3+1)
		for i, msg := range statusMessages {
			assert.Equal(t, domain.EventStatus, events[i].Type)
			assert.Equal(t, msg, events[i].Message)
		}

		recs := events[3 : len(events)-1]
		assert.Contains(t, []int{3, 4, 5}, len(recs))
		for _, ev := range recs {
			require.Equal(t, domain.EventRecommendation, ev.Type)
			require.NotNil(t, ev.Data)
			assert.Contains(t, req.Channels, ev.Data.Channel)
			assert.GreaterOrEqual(t, ev.Data.ConfidenceScore, 75.0)
			assert.LessOrEqual(t, ev.Data.ConfidenceScore, 95.0)
			assert.Len(t, ev.Data.DataInsights, 2)
		}

		sum := events[len(events)-1]
		assert.Equal(t, domain.EventSummary, sum.Type)
		assert.Equal(t, len(recs), sum.TotalRecommendations)
		assert.Equal(t, req.DataSources, sum.DataSourcesUsed)
		assert.Equal(t, req.Channels, sum.ChannelsTargeted)
		assert.True(t, strings.HasPrefix(sum.Message, "Generated "))
	}
}

func TestStreamShopifyEmail(t *testing.T) {
	req := domain.ChatRequest{DataSources: []string{"shopify"}, Channels: []string{"email"}}
	ch, err := testResponder(5).Stream(context.Background(), req)
	require.NoError(t, err)

	for _, ev := range collect(t, ch) {
		switch ev.Type {
		case domain.EventRecommendation:
			assert.Equal(t, "email", ev.Data.Channel)
			require.Len(t, ev.Data.DataInsights, 1)
			shop, ok := ev.Data.DataInsights["shopify"].(domain.ShopifyInsight)
			require.True(t, ok)
			assert.GreaterOrEqual(t, shop.Orders, 100)
			assert.LessOrEqual(t, shop.Orders, 1000)
		case domain.EventSummary:
			assert.Equal(t, []string{"shopify"}, ev.DataSourcesUsed)
			assert.Equal(t, []string{"email"}, ev.ChannelsTargeted)
		}
	}
}

func TestStreamRejectsEmptyLists(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := testResponder(1)
	for _, req := range []domain.ChatRequest{
		{Channels: []string{"email"}},
		{DataSources: []string{"gtm"}},
		{},
	} {
		ch, err := r.Stream(context.Background(), req)
		assert.Nil(t, ch)
		assert.True(t, errors.Is(err, domain.ErrInvalidRequest))
	}
}

func TestStreamStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	r := &Responder{
		Unit:         time.Hour,
		NewGenerator: func() *recommend.Generator { return recommend.NewSeeded(9) },
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := r.Stream(ctx, domain.ChatRequest{DataSources: []string{"gtm"}, Channels: []string{"sms"}})
	require.NoError(t, err)

	first := <-ch
	assert.Equal(t, statusMessages[0], first.Message)

	// The producer is now inside an hour-long pause.
	cancel()
	select {
	case _, ok := <-ch:
		assert.False(t, ok, "no further events after cancel")
	case <-time.After(2 * time.Second):
		t.Fatal("producer did not stop after cancel")
	}
}

func TestStreamStopsWhenConsumerGoesAway(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithCancel(context.Background())
	ch, err := testResponder(3).Stream(ctx, domain.ChatRequest{DataSources: []string{"gtm"}, Channels: []string{"sms"}})
	require.NoError(t, err)
	<-ch
	// Stop reading without draining; the blocked send must observe ctx.
	cancel()
	for range ch {
	}
}

func TestPipeWritesFramesAndDone(t *testing.T) {
	ch, err := testResponder(4).Stream(context.Background(), domain.ChatRequest{
		DataSources: []string{"facebook_pixel"},
		Channels:    []string{"whatsapp"},
	})
	require.NoError(t, err)

	var buf bytes.Buffer
	flushes := 0
	enc := NewEncoder(&buf, func() error { flushes++; return nil })
	var observed int
	require.NoError(t, Pipe(context.Background(), enc, ch, func(domain.StreamEvent) { observed++ }))

	body := buf.String()
	assert.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
	frames := strings.Split(strings.TrimSuffix(body, "\n\n"), "\n\n")
	assert.Len(t, frames, observed+1)
	assert.Equal(t, observed+1, flushes)
	for _, f := range frames {
		assert.True(t, strings.HasPrefix(f, "data: "), f)
	}

	var decoded []domain.StreamEvent
	done, err := Decode(strings.NewReader(body), func(ev domain.StreamEvent) error {
		decoded = append(decoded, ev)
		return nil
	})
	require.NoError(t, err)
	assert.True(t, done)
	assert.Len(t, decoded, observed)
	assert.Equal(t, domain.EventSummary, decoded[len(decoded)-1].Type)
}

func TestPipeSkipsDoneWhenCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan domain.StreamEvent, 1)
	events <- domain.StreamEvent{Type: domain.EventStatus, Message: "x"}
	close(events)
	cancel()

	var buf bytes.Buffer
	err := Pipe(ctx, NewEncoder(&buf, nil), events, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotContains(t, buf.String(), DoneSentinel)
}

func TestDecodeIncompleteStream(t *testing.T) {
	done, err := Decode(strings.NewReader("data: {\"type\":\"status\",\"message\":\"a\"}\n\n"), nil)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = Decode(strings.NewReader("data: {not json}\n\n"), nil)
	assert.Error(t, err)
}
