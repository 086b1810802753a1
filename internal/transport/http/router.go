package transporthttp

import (
	"net/http"
	"time"

	"go.uber.org/zap"
)

func (d *ServerDeps) Router() http.Handler {
	if d.Log == nil {
		d.Log = zap.NewNop()
	}
	if d.Now == nil {
		d.Now = func() time.Time { return time.Now().UTC() }
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", d.HandleRoot)
	mux.HandleFunc("GET /healthz", d.HandleHealthz)
	mux.HandleFunc("GET /readyz", d.HandleReadyz)

	mux.HandleFunc("GET /data-sources", d.HandleListDataSources)
	mux.Handle("POST /data-sources/{type}/connect", d.post(d.HandleConnectDataSource))
	mux.HandleFunc("GET /channels", d.HandleListChannels)
	mux.Handle("POST /channels/{type}/enable", d.post(d.HandleEnableChannel))
	mux.Handle("POST /chat/stream", d.post(d.HandleChatStream))
	mux.Handle("POST /campaigns/execute/{id}", d.post(d.HandleExecuteCampaign))

	if d.DB != nil {
		var getMetrics http.Handler = http.HandlerFunc(d.HandleGetMetrics)
		getMetrics = RateLimitPerMinute(d.Cfg.RateLimitMetricsPerMin, d.Now)(getMetrics)
		mux.Handle("GET /metrics", getMetrics)
	}

	var h http.Handler = mux
	h = CORS(d.Cfg.CORSOrigins)(h)
	h = AccessLog(d.Log, d.Now)(h)
	return h
}

func (d *ServerDeps) post(fn http.HandlerFunc) http.Handler {
	var h http.Handler = fn
	h = BodyLimit(d.Cfg.MaxBodyBytes)(h)
	h = RequireJSON(h)
	return h
}
