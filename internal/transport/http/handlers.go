package transporthttp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"example.com/campaignai/internal/config"
	"example.com/campaignai/internal/domain"
	"example.com/campaignai/internal/recommend"
	"example.com/campaignai/internal/registry"
	spg "example.com/campaignai/internal/storage/postgres"
	"example.com/campaignai/internal/stream"
)

// ActivitySink accepts activity records without blocking.
type ActivitySink interface {
	Enqueue(a domain.Activity) bool
}

// MetricsStore answers readiness and metrics queries over the activity log.
type MetricsStore interface {
	Ready(ctx context.Context) error
	QueryTotals(ctx context.Context, f spg.MetricsFilter) (spg.MetricsTotals, error)
	QueryBucketsDaily(ctx context.Context, f spg.MetricsFilter) ([]spg.MetricsBucket, error)
}

type ServerDeps struct {
	Cfg       config.Config
	Registry  *registry.Registry
	Responder *stream.Responder
	// NewGenerator supplies the random source for the execution stub.
	NewGenerator func() *recommend.Generator
	// Activity and DB are nil when the activity log is disabled.
	Activity ActivitySink
	DB       MetricsStore
	Log      *zap.Logger
	Now      func() time.Time
}

const apiMessage = "Marketing Campaign AI API"

// decodeOptionalJSON decodes r's body into v. An empty body leaves v untouched.
func decodeOptionalJSON(r *http.Request, v any) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// pause waits units pacing units, or until the client goes away.
func (d *ServerDeps) pause(ctx context.Context, units float64) error {
	unit := d.Cfg.PacingUnit
	if unit <= 0 {
		unit = stream.DefaultUnit
	}
	t := time.NewTimer(time.Duration(units * float64(unit)))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (d *ServerDeps) record(a domain.Activity) {
	if d.Activity == nil {
		return
	}
	if a.Timestamp == 0 {
		a.Timestamp = d.Now().Unix()
	}
	// Every activity is a distinct occurrence; the derived key is only a
	// fallback for records stamped elsewhere.
	if a.EventID == "" {
		a.EventID = uuid.NewString()
	}
	d.Activity.Enqueue(a)
}

func (d *ServerDeps) generator() *recommend.Generator {
	if d.NewGenerator != nil {
		return d.NewGenerator()
	}
	return recommend.NewRandom()
}

// --- Health ---

func (d *ServerDeps) HandleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": apiMessage})
}

func (d *ServerDeps) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (d *ServerDeps) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	if d.DB != nil {
		if err := d.DB.Ready(r.Context()); err != nil {
			d.Log.Warn("readiness check failed", zap.Error(err))
			WriteProblem(w, http.StatusServiceUnavailable, "not ready", "database not reachable", nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// --- Data sources ---

func (d *ServerDeps) HandleListDataSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Registry.DataSources())
}

func (d *ServerDeps) HandleConnectDataSource(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	sourceType := r.PathValue("type")
	if err := domain.ValidateSourceType(sourceType); err != nil {
		WriteError(w, err)
		return
	}
	cfg := map[string]any{}
	if err := decodeOptionalJSON(r, &cfg); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	// Simulated handshake with the provider.
	if err := d.pause(r.Context(), 1); err != nil {
		return
	}
	d.Registry.ConnectSource(sourceType, cfg, d.Now())
	d.record(domain.Activity{EventName: domain.ActivitySourceConnected, Source: sourceType})
	d.Log.Info("data source connected", zap.String("source", sourceType))

	writeJSON(w, http.StatusOK, map[string]string{"status": domain.StatusConnected, "source": sourceType})
}

// --- Channels ---

func (d *ServerDeps) HandleListChannels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, d.Registry.Channels())
}

func (d *ServerDeps) HandleEnableChannel(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	channelType := r.PathValue("type")
	if err := domain.ValidateChannelType(channelType); err != nil {
		WriteError(w, err)
		return
	}
	cfg := map[string]any{}
	if err := decodeOptionalJSON(r, &cfg); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}
	d.Registry.EnableChannel(channelType, cfg, d.Now())
	d.record(domain.Activity{EventName: domain.ActivityChannelEnabled, Channel: channelType})
	d.Log.Info("channel enabled", zap.String("channel", channelType))

	writeJSON(w, http.StatusOK, map[string]string{"status": domain.StatusEnabled, "channel": channelType})
}

// --- Recommendation stream ---

func (d *ServerDeps) HandleChatStream(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	var req domain.ChatRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid json", err.Error(), nil)
		return
	}

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	events, err := d.Responder.Stream(ctx, req)
	if err != nil {
		WriteError(w, err)
		return
	}

	rc := http.NewResponseController(w)
	// Pacing can outlast the server's WriteTimeout.
	_ = rc.SetWriteDeadline(time.Time{})

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	log := d.Log.With(zap.Strings("data_sources", req.DataSources), zap.Strings("channels", req.Channels))
	log.Info("recommendation stream started")

	sent := 0
	err = stream.Pipe(ctx, stream.NewEncoder(w, rc.Flush), events, func(ev domain.StreamEvent) {
		if ev.Type != domain.EventRecommendation || ev.Data == nil {
			return
		}
		sent++
		d.record(domain.Activity{
			EventName:  domain.ActivityRecommendationGenerated,
			Channel:    ev.Data.Channel,
			CampaignID: ev.Data.CampaignID,
			Metadata: map[string]any{
				"audience_segment": ev.Data.AudienceSegment,
				"confidence_score": ev.Data.ConfidenceScore,
			},
		})
	})
	if err != nil {
		log.Info("recommendation stream aborted", zap.Int("recommendations", sent), zap.Error(err))
		return
	}
	log.Info("recommendation stream finished", zap.Int("recommendations", sent))
}

// --- Campaign execution ---

func (d *ServerDeps) HandleExecuteCampaign(w http.ResponseWriter, r *http.Request) {
	defer DrainBody(r)
	campaignID := r.PathValue("id")
	if err := d.pause(r.Context(), 2); err != nil {
		return
	}
	now := d.Now()
	resp := domain.Execution{
		CampaignID:          campaignID,
		Status:              domain.StatusExecuting,
		EstimatedReach:      d.generator().EstimatedReach(),
		EstimatedCompletion: now.Add(2 * time.Hour),
	}
	d.record(domain.Activity{
		EventName:  domain.ActivityCampaignExecuted,
		CampaignID: campaignID,
		Timestamp:  now.Unix(),
		Metadata:   map[string]any{"estimated_reach": resp.EstimatedReach},
	})
	d.Log.Info("campaign executing", zap.String("campaign_id", campaignID), zap.Int("estimated_reach", resp.EstimatedReach))

	writeJSON(w, http.StatusOK, resp)
}

// --- Metrics ---

type metricsResp struct {
	Totals  spg.MetricsTotals   `json:"totals"`
	Buckets []spg.MetricsBucket `json:"buckets,omitempty"`
}

const defaultWindowSeconds = int64(24 * 60 * 60)  // last 24h default
const maxWindowSeconds = int64(90 * 24 * 60 * 60) // cap at 90 days (guardrail)

// parseWindow resolves the optional from/to query parameters (epoch seconds).
func parseWindow(fromStr, toStr string, now int64) (from, to int64, err error) {
	parse := func(name, v string) (int64, error) {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, &domain.InvalidRequestError{Detail: name + " must be epoch seconds"}
		}
		return n, nil
	}
	to = now
	if toStr != "" {
		if to, err = parse("to", toStr); err != nil {
			return 0, 0, err
		}
	}
	from = to - defaultWindowSeconds
	if fromStr != "" {
		if from, err = parse("from", fromStr); err != nil {
			return 0, 0, err
		}
	}
	if to-from > maxWindowSeconds {
		from = to - maxWindowSeconds
	}
	return from, to, nil
}

func (d *ServerDeps) HandleGetMetrics(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	from, to, err := parseWindow(q.Get("from"), q.Get("to"), d.Now().Unix())
	if err != nil {
		WriteError(w, err)
		return
	}
	f := spg.MetricsFilter{
		EventName: strings.TrimSpace(q.Get("event_name")),
		Channel:   strings.TrimSpace(q.Get("channel")),
		From:      from,
		To:        to,
	}

	ctx := r.Context()
	var resp metricsResp
	if resp.Totals, err = d.DB.QueryTotals(ctx, f); err != nil {
		d.Log.Error("metrics totals", zap.Error(err))
		WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
		return
	}
	if q.Get("group_by") == "day" {
		if resp.Buckets, err = d.DB.QueryBucketsDaily(ctx, f); err != nil {
			d.Log.Error("metrics buckets", zap.Error(err))
			WriteProblem(w, http.StatusInternalServerError, "query error", err.Error(), nil)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
