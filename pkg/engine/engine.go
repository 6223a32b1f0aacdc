package engine

import (
	"context"
	"log/slog"
	"os"
	"time"

	"go.opentelemetry.io/otel/trace"

	internalconfig "github.com/aqkprogrammer/finops-saas/pkg/config"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/pricing"
	"github.com/aqkprogrammer/finops-saas/pkg/engine/rules"
	"github.com/aqkprogrammer/finops-saas/pkg/storage"
	"github.com/aqkprogrammer/finops-saas/pkg/telemetry"
	"github.com/aqkprogrammer/finops-saas/pkg/version"
)

// Config holds service settings. Zero values mean defaults: CPU enrichment
// is on unless SkipCPUMetrics is set.
type Config struct {
	Region                 string
	MockMode               bool
	SkipCPUMetrics         bool
	CostWindowDays         int
	SessionDurationSeconds int32
	RulesFile              string
	Timeout                time.Duration

	// Pricing.
	LivePricing bool
	CacheDir    string

	// Telemetry config.
	OtelEndpoint  string
	SkipTelemetry bool

	// Dependencies.
	Logger *slog.Logger
}

// Service is the scan runtime: one instance serves many scans, each scan is
// a single pass with no state carried between invocations.
type Service struct {
	Logger *slog.Logger
	Tracer trace.Tracer

	config  Config
	rules   *rules.Engine
	book    *pricing.Book
	factory ProviderFactory
	results *storage.ResultStore
}

// Option defines a functional configuration override.
type Option func(*Service)

// New initializes the Service.
func New(ctx context.Context, opts ...Option) (*Service, error) {
	// Logs go to stderr so the scan result on stdout stays machine-readable.
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		ReplaceAttr: redactSensitiveData,
	})
	s := &Service{
		Logger: slog.New(handler),
		Tracer: telemetry.Tracer("finops-scan/engine"),
		config: defaultConfig(),
	}

	for _, opt := range opts {
		opt(s)
	}

	slog.SetDefault(s.Logger)

	if !s.config.SkipTelemetry {
		shutdown, err := telemetry.Init(ctx, version.AppName, version.Current, s.config.OtelEndpoint)
		if err != nil {
			s.Logger.Warn("Telemetry failed", "error", err)
		} else {
			_ = shutdown
		}
	}

	if s.rules == nil {
		ruleSet := rules.DefaultRules()
		if s.config.RulesFile != "" {
			custom, err := rules.LoadFile(s.config.RulesFile)
			if err != nil {
				return nil, err
			}
			ruleSet = rules.Merge(ruleSet, custom)
		}
		eng, err := rules.NewEngine(ruleSet, s.Logger)
		if err != nil {
			return nil, err
		}
		s.rules = eng
	}

	if s.book == nil {
		s.book = pricing.NewBook(s.Logger)
	}

	if s.factory == nil {
		if s.config.MockMode {
			s.factory = NewMockFactory()
		} else {
			s.factory = NewRealFactory(s.config, s.Logger)
		}
	}

	return s, nil
}

func defaultConfig() Config {
	sc := internalconfig.DefaultScanConfig()
	return Config{
		Region:         sc.Region,
		SkipCPUMetrics: !sc.EnrichCPU,
		CostWindowDays: sc.CostWindowDays,
		Timeout:        sc.Timeout,
	}
}

// WithConfig sets raw config. Zero-valued fields keep their defaults.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		base := defaultConfig()
		if cfg.Region == "" {
			cfg.Region = base.Region
		}
		if cfg.CostWindowDays == 0 {
			cfg.CostWindowDays = base.CostWindowDays
		}
		if cfg.Timeout == 0 {
			cfg.Timeout = base.Timeout
		}
		s.config = cfg
		if cfg.Logger != nil {
			s.Logger = cfg.Logger
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.Logger = l
	}
}

// WithRules replaces the rule engine.
func WithRules(e *rules.Engine) Option {
	return func(s *Service) {
		s.rules = e
	}
}

// WithPriceBook replaces the price book.
func WithPriceBook(b *pricing.Book) Option {
	return func(s *Service) {
		s.book = b
	}
}

// WithProviderFactory replaces the provider factory. Tests use this to
// inject failing providers.
func WithProviderFactory(f ProviderFactory) Option {
	return func(s *Service) {
		s.factory = f
	}
}

// WithResultStore enables result persistence keyed by scan ID.
func WithResultStore(rs *storage.ResultStore) Option {
	return func(s *Service) {
		s.results = rs
	}
}

// redactSensitiveData scrubs sensitive keys from logs.
func redactSensitiveData(groups []string, a slog.Attr) slog.Attr {
	sensitiveKeys := map[string]bool{
		"account": true, "password": true, "access_key": true, "token": true,
		"secret": true, "api_key": true, "private_key": true, "auth_token": true,
		"session_token": true, "credential": true, "signature": true,
		"external_id": true,
	}

	if sensitiveKeys[a.Key] {
		return slog.Attr{
			Key:   a.Key,
			Value: slog.StringValue("[REDACTED]"),
		}
	}
	return a
}
