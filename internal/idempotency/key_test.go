package idempotency

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/campaignai/internal/domain"
)

func TestDeriveKey(t *testing.T) {
	a := domain.Activity{EventName: domain.ActivityChannelEnabled, Channel: "sms", Timestamp: 1700000000}
	k1, src := DeriveKey(&a)
	assert.Equal(t, KeyFromComposite, src)
	assert.Len(t, k1, 64)

	k2, _ := DeriveKey(&a)
	assert.Equal(t, k1, k2)

	b := a
	b.Channel = "email"
	k3, _ := DeriveKey(&b)
	assert.NotEqual(t, k1, k3)

	a.EventID = "explicit"
	k4, src := DeriveKey(&a)
	assert.Equal(t, "explicit", k4)
	assert.Equal(t, KeyFromEventID, src)
}

func TestStamp(t *testing.T) {
	a := domain.Activity{EventName: domain.ActivityCampaignExecuted, CampaignID: "abc123", Timestamp: 1}
	Stamp(&a)
	want, _ := DeriveKey(&domain.Activity{EventName: a.EventName, CampaignID: "abc123", Timestamp: 1})
	assert.Equal(t, want, a.EventID)

	a.EventID = "keep"
	Stamp(&a)
	assert.Equal(t, "keep", a.EventID)
}
