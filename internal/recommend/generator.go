// Package recommend synthesizes campaign recommendations from fixed catalogs
// and a caller-owned random source.
package recommend

import (
	"encoding/binary"
	"io"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/google/uuid"

	"example.com/campaignai/internal/domain"
)

// Metric bounds. Integer bounds are inclusive.
const (
	MinConfidence = 75.0
	MaxConfidence = 95.0
	MinReach      = 1000
	MaxReach      = 10000
)

// Generator is not safe for concurrent use; create one per stream or request.
type Generator struct {
	rng *rand.Rand
	ids io.Reader
}

// New returns a Generator drawing from rng and reading campaign ids from ids.
func New(rng *rand.Rand, ids io.Reader) *Generator {
	return &Generator{rng: rng, ids: ids}
}

// NewSeeded returns a reproducible Generator. Ids and values come from one
// ChaCha8 stream.
func NewSeeded(seed uint64) *Generator {
	var key [32]byte
	binary.LittleEndian.PutUint64(key[:], seed)
	src := rand.NewChaCha8(key)
	return New(rand.New(src), src)
}

// NewRandom returns a Generator seeded from the runtime's random source.
func NewRandom() *Generator {
	return NewSeeded(rand.Uint64())
}

// Recommend builds one recommendation. channels must be non-empty; its
// entries are not checked against the channel catalog.
func (g *Generator) Recommend(channels, dataSources []string) domain.Recommendation {
	audience := pick(g.rng, audienceSegments)
	channel := pick(g.rng, channels)
	return domain.Recommendation{
		CampaignID:      g.campaignID(),
		AudienceSegment: audience,
		Channel:         channel,
		Message:         g.Message(channel, audience),
		Timing:          pick(g.rng, timings),
		ConfidenceScore: round(g.uniform(MinConfidence, MaxConfidence), 1),
		DataInsights:    g.Insights(dataSources),
		ExecutionReady:  true,
	}
}

// Message picks a template for channel. Unknown channels get the generic text.
func (g *Generator) Message(channel, audience string) string {
	tpl := messageTemplates(channel, audience)
	if len(tpl) == 0 {
		return genericMessage
	}
	return pick(g.rng, tpl)
}

// Insights returns one randomized metrics record per recognized source in
// dataSources. Unrecognized identifiers are skipped.
func (g *Generator) Insights(dataSources []string) map[string]any {
	out := make(map[string]any)
	if slices.Contains(dataSources, domain.SourceGTM) {
		out[domain.SourceGTM] = domain.GTMInsight{
			PageViews:      g.intn(1000, 10000),
			EventsTracked:  g.intn(50, 500),
			ConversionRate: round(g.uniform(2.5, 8.5), 2),
			TopPages:       slices.Clone(gtmTopPages),
		}
	}
	if slices.Contains(dataSources, domain.SourceFacebookPixel) {
		out[domain.SourceFacebookPixel] = domain.FacebookPixelInsight{
			Reach:           g.intn(5000, 50000),
			EngagementRate:  round(g.uniform(3.2, 12.8), 2),
			CostPerClick:    round(g.uniform(0.5, 3.0), 2),
			AudienceOverlap: round(g.uniform(15.0, 45.0), 2),
		}
	}
	if slices.Contains(dataSources, domain.SourceShopify) {
		out[domain.SourceShopify] = domain.ShopifyInsight{
			Orders:        g.intn(100, 1000),
			Revenue:       g.intn(10000, 100000),
			AvgOrderValue: round(g.uniform(50.0, 200.0), 2),
			TopProducts:   slices.Clone(shopifyTopProducts),
		}
	}
	return out
}

// Count draws the number of recommendations for one stream, in [3, 5].
func (g *Generator) Count() int { return g.intn(3, 5) }

// Jitter returns a fraction in [0.5, 1.5] used to scale the pause after a
// recommendation.
func (g *Generator) Jitter() float64 { return g.uniform(0.5, 1.5) }

// EstimatedReach is the reach reported by the execution stub.
func (g *Generator) EstimatedReach() int { return g.intn(MinReach, MaxReach) }

func (g *Generator) campaignID() string {
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		// ChaCha8 reads never fail; other readers fall back to the global pool.
		return uuid.NewString()
	}
	return id.String()
}

func (g *Generator) intn(lo, hi int) int { return lo + g.rng.IntN(hi-lo+1) }

func (g *Generator) uniform(lo, hi float64) float64 { return lo + g.rng.Float64()*(hi-lo) }

func pick(r *rand.Rand, items []string) string { return items[r.IntN(len(items))] }

func round(v float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(v*p) / p
}
