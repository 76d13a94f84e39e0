package health

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"mercator-hq/luminous/pkg/gateway"
	"mercator-hq/luminous/pkg/telemetry/tracing"

	"go.opentelemetry.io/otel/attribute"
)

// ClientFactory builds a new outbound client for one probe run.
type ClientFactory func() (gateway.Doer, error)

// idleCloser is implemented by clients that pool connections.
type idleCloser interface {
	CloseIdleConnections()
}

// Recorder receives probe results. *metrics.Collector satisfies it.
type Recorder interface {
	RecordProbe(online bool, duration time.Duration)
}

// Result is the outcome of one probe run.
type Result struct {
	Time     time.Time
	Stream   string
	OK       bool
	Error    string
	Duration time.Duration
}

// Config configures a Prober.
type Config struct {
	// Timeout bounds one probe run. Zero means no bound beyond ctx.
	Timeout time.Duration

	// Discovery configures the featured-streams query.
	Discovery DiscoveryConfig
}

// Prober runs deep status probes.
type Prober struct {
	cfg       Config
	gateway   *gateway.Gateway
	newClient ClientFactory
	status    *Status
	history   *HistoryStore
	recorder  Recorder
	pick      func(int) int
	logger    *slog.Logger
}

// Option configures a Prober.
type Option func(*Prober)

// WithHistory records every probe result in store.
func WithHistory(store *HistoryStore) Option {
	return func(p *Prober) { p.history = store }
}

// WithRecorder reports every probe result to r.
func WithRecorder(r Recorder) Option {
	return func(p *Prober) { p.recorder = r }
}

// WithPicker overrides the random stream choice.
func WithPicker(pick func(int) int) Option {
	return func(p *Prober) { p.pick = pick }
}

// NewProber returns a Prober that runs gw with a client from newClient
// and stores results in status.
func NewProber(cfg Config, gw *gateway.Gateway, newClient ClientFactory, status *Status, opts ...Option) *Prober {
	p := &Prober{
		cfg:       cfg,
		gateway:   gw,
		newClient: newClient,
		status:    status,
		logger:    slog.Default().With("component", "health.prober"),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// probeParams are the player capability flags sent with the synthetic
// manifest request.
func probeParams() url.Values {
	return url.Values{
		"player_backend":             {"mediaplayer"},
		"supported_codecs":           {"avc1"},
		"cdm":                        {"wv"},
		"player_version":             {"1.18.0"},
		"allow_source":               {"true"},
		"fast_bread":                 {"true"},
		"playlist_include_framerate": {"true"},
		"reassignments_supported":    {"true"},
		"transcode_mode":             {"cbr_v1"},
	}
}

// DeepStatus runs one probe, updates the shared status and reports whether
// the pipeline works end to end.
func (p *Prober) DeepStatus(ctx context.Context) bool {
	return p.Run(ctx).OK
}

// Run runs one probe and returns its result.
func (p *Prober) Run(ctx context.Context) Result {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	ctx, span := tracing.StartSpan(ctx, "health.probe")
	start := time.Now()
	stream, err := p.probe(ctx)
	span.SetAttributes(attribute.String("health.stream", stream))
	tracing.End(span, err)

	result := Result{
		Time:     start.UTC(),
		Stream:   stream,
		OK:       err == nil,
		Duration: time.Since(start),
	}
	if err != nil {
		result.Error = err.Error()
		p.logger.Error("status check failed", "stream", stream, "error", err)
	} else {
		p.logger.Debug("status check passed", "stream", stream, "duration", result.Duration)
	}

	p.status.Set(result.OK)
	if p.recorder != nil {
		p.recorder.RecordProbe(result.OK, result.Duration)
	}
	if p.history != nil {
		// The request context may already be done; the record is still wanted.
		if err := p.history.Record(context.WithoutCancel(ctx), result); err != nil {
			p.logger.Warn("failed to record probe result", "error", err)
		}
	}

	return result
}

func (p *Prober) probe(ctx context.Context) (string, error) {
	client, err := p.newClient()
	if err != nil {
		return "", fmt.Errorf("failed to build probe client: %w", err)
	}
	if c, ok := client.(idleCloser); ok {
		defer c.CloseIdleConnections()
	}
	gw := p.gateway.WithClient(client)
	ua := gw.UserAgent("")

	login, err := FindRandomStream(ctx, gw, ua, p.cfg.Discovery, p.pick)
	if err != nil {
		return "", err
	}

	req, err := gateway.NewStreamRequest(gateway.Live, login, probeParams(), ua)
	if err != nil {
		return login, err
	}
	if _, err := gw.Process(ctx, req); err != nil {
		return login, fmt.Errorf("process: %w", err)
	}
	return login, nil
}
