package main

import (
	"bytes"
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"example.com/campaignai/internal/config"
	"example.com/campaignai/internal/domain"
	"example.com/campaignai/internal/ingest"
	"example.com/campaignai/internal/recommend"
	"example.com/campaignai/internal/registry"
	"example.com/campaignai/internal/stream"
	transport "example.com/campaignai/internal/transport/http"
)

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := config.Default()
	cfg.PacingUnit = time.Millisecond
	deps := &transport.ServerDeps{
		Cfg:       cfg,
		Registry:  registry.New(),
		Responder: &stream.Responder{Unit: time.Millisecond, NewGenerator: func() *recommend.Generator { return recommend.NewSeeded(1) }},
		Log:       zap.NewNop(),
		Now:       time.Now,
	}
	srv := httptest.NewServer(deps.Router())
	t.Cleanup(srv.Close)
	return srv
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, version+"\n", out)
}

func TestChatCommand(t *testing.T) {
	srv := testServer(t)
	out, err := execute(t, "chat", "--server", srv.URL, "--source", "shopify", "--channel", "email", "bring", "them", "back")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 7)
	assert.Equal(t, "… Analyzing your data sources...", lines[0])
	assert.True(t, strings.HasPrefix(lines[len(lines)-1], "✓ Generated "))
	for _, l := range lines[3 : len(lines)-1] {
		assert.True(t, strings.HasPrefix(l, "• [email] "), l)
	}
}

func TestChatCommandRejected(t *testing.T) {
	srv := testServer(t)
	_, err := execute(t, "chat", "--server", srv.URL, "--channel", "email")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No data sources selected")
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	opts := &rootOptions{port: "9999", logLevel: "debug"}
	cfg, err := opts.loadConfig()
	require.NoError(t, err)
	assert.Equal(t, "9999", cfg.Port)

	log, err := newLogger(cfg)
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zap.DebugLevel))
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	cfg := config.Default()
	cfg.LogLevel = "chatty"
	_, err := newLogger(cfg)
	assert.Error(t, err)
}

func TestPrintEventWithoutData(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, printEvent(&out, domain.StreamEvent{Type: domain.EventRecommendation}))
	assert.Empty(t, out.String())
}

type countingWriter struct {
	mu sync.Mutex
	n  int
}

func (c *countingWriter) InsertBatch(_ context.Context, items []domain.Activity) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.n += len(items)
	return int64(len(items)), nil
}

func (c *countingWriter) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.n
}

func TestServeKeepsActivityFromInFlightRequests(t *testing.T) {
	w := &countingWriter{}
	ig := ingest.NewIngestor(w, 10, 100, time.Hour, zap.NewNop())
	ingCtx, stopIngest := context.WithCancel(context.Background())
	defer stopIngest()
	ig.Start(ingCtx)

	started := make(chan struct{})
	mux := http.NewServeMux()
	mux.HandleFunc("/slow", func(rw http.ResponseWriter, r *http.Request) {
		close(started)
		time.Sleep(50 * time.Millisecond)
		ig.Enqueue(domain.Activity{EventName: domain.ActivityCampaignExecuted, CampaignID: "abc123", Timestamp: 1})
		rw.WriteHeader(http.StatusOK)
	})

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	srv := &http.Server{Handler: mux}

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() {
		served <- serveHTTP(ctx, srv, ln, zap.NewNop(), func() {
			stopIngest()
			<-ig.Done()
		})
	}()

	got := make(chan int, 1)
	go func() {
		resp, err := http.Get("http://" + ln.Addr().String() + "/slow")
		if err != nil {
			got <- 0
			return
		}
		resp.Body.Close()
		got <- resp.StatusCode
	}()

	<-started
	cancel()

	require.NoError(t, <-served)
	assert.Equal(t, http.StatusOK, <-got)
	assert.Equal(t, 1, w.count(), "activity recorded during shutdown is written")
}
