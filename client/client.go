// Package client wires the session store, response cache, request pipeline
// and consumers into one API client.
package client

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-finance-client/auth"
	"github.com/jrsteele09/go-finance-client/cache"
	"github.com/jrsteele09/go-finance-client/finance"
	"github.com/jrsteele09/go-finance-client/graphql"
	"github.com/jrsteele09/go-finance-client/ideas"
	"github.com/jrsteele09/go-finance-client/internal/config"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/jrsteele09/go-finance-client/link"
	"github.com/jrsteele09/go-finance-client/metrics"
	"github.com/jrsteele09/go-finance-client/session"
	"github.com/jrsteele09/go-finance-client/transport"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/jrsteele09/go-finance-client"

// Client is the single entry point consumers send operations through.
type Client struct {
	logger    zerolog.Logger
	store     *session.Store
	cache     *cache.Store
	pipeline  link.Handler
	refreshOp string
	auth      *auth.Service
	finance   *finance.Service
	ideas     *ideas.Service
	closers   []func() error
}

var _ graphql.Executor = (*Client)(nil)

type options struct {
	logger         *zerolog.Logger
	storage        session.Storage
	httpClient     *http.Client
	registerer     prometheus.Registerer
	tracerProvider trace.TracerProvider
}

type Option func(*options)

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

// WithStorage overrides the storage backend selected by configuration.
func WithStorage(s session.Storage) Option {
	return func(o *options) {
		o.storage = s
	}
}

// WithHTTPClient replaces the transport's client. REQUEST_TIMEOUT is then
// ignored in favour of the client's own Timeout.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.httpClient = c
	}
}

// WithRegisterer is where pipeline metrics are registered when metrics are
// enabled. Defaults to the global Prometheus registerer; nil, including a nil
// *prometheus.Registry, keeps the default.
func WithRegisterer(r prometheus.Registerer) Option {
	return func(o *options) {
		if reg, ok := r.(*prometheus.Registry); r == nil || (ok && reg == nil) {
			return
		}
		o.registerer = r
	}
}

// WithTracerProvider is used when tracing is enabled. Defaults to the global
// OpenTelemetry provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(o *options) {
		o.tracerProvider = tp
	}
}

func New(cfg config.Config, opts ...Option) (*Client, error) {
	o := options{
		registerer: prometheus.DefaultRegisterer,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	c := &Client{
		logger:    logger,
		refreshOp: cfg.GetRefreshOperationName(),
	}

	storage := o.storage
	if storage == nil {
		var err error
		if storage, err = c.newStorage(cfg); err != nil {
			return nil, err
		}
	}

	storeOpts := []session.StoreOption{
		session.WithKey(cfg.GetSessionKey()),
		session.WithLogger(logger),
	}
	if cfg.GetCacheEnabled() {
		c.cache = cache.New()
		storeOpts = append(storeOpts, session.WithCacheClearer(c.cache))
	}
	store, err := session.Open(storage, storeOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "[client New] session.Open")
	}
	c.store = store

	transportOpts := []transport.Option{transport.WithLogger(logger)}
	if o.httpClient != nil {
		transportOpts = append(transportOpts, transport.WithHTTPClient(o.httpClient))
	} else {
		transportOpts = append(transportOpts, transport.WithTimeout(cfg.GetRequestTimeout()))
	}
	terminal, err := transport.NewHTTP(cfg.GetBackendURL(), transportOpts...)
	if err != nil {
		return nil, errors.Wrap(err, "[client New] transport")
	}

	authOpts := []auth.ServiceOption{auth.WithLogger(logger)}
	if cfg.GetSingleFlightRefresh() {
		authOpts = append(authOpts, auth.WithSingleFlight())
	}
	if c.auth, err = auth.NewService(store, c, authOpts...); err != nil {
		return nil, errors.Wrap(err, "[client New] auth")
	}

	refreshOpts := []link.RefreshOption{
		link.WithClassifier(link.NewClassifier(cfg.GetAuthFailureMessages(), cfg.GetAuthFailureMarkers(), cfg.GetAuthFailureCodes())),
		link.WithRefreshOperation(c.refreshOp),
		link.WithLogger(logger),
	}
	if cfg.GetMetricsEnabled() {
		recorder, err := metrics.NewPrometheus(o.registerer)
		if err != nil {
			return nil, errors.Wrap(err, "[client New] metrics")
		}
		refreshOpts = append(refreshOpts, link.WithRecorder(recorder))
	}

	var tracing link.Link
	if cfg.GetTracingEnabled() {
		tp := o.tracerProvider
		if tp == nil {
			tp = otel.GetTracerProvider()
		}
		tracing = link.Tracing(tp.Tracer(tracerName))
	}

	c.pipeline = link.Chain(terminal.Do,
		tracing,
		link.Logging(logger),
		link.RefreshRetry(c.auth, store, refreshOpts...),
		link.AuthHeader(store, c.refreshOp),
	)

	if c.finance, err = finance.NewService(c, store); err != nil {
		return nil, errors.Wrap(err, "[client New] finance")
	}
	if c.ideas, err = ideas.NewService(c); err != nil {
		return nil, errors.Wrap(err, "[client New] ideas")
	}
	return c, nil
}

func (c *Client) newStorage(cfg config.Config) (session.Storage, error) {
	switch cfg.GetStorageKind() {
	case config.StorageMemory:
		return session.NewMemoryStorage(), nil
	case config.StorageRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.GetRedisAddr()})
		c.closers = append(c.closers, rdb.Close)
		return session.NewRedisStorage(rdb)
	default:
		fs, err := session.NewFileStorage(cfg.GetSessionDir())
		if err != nil {
			return nil, errors.Wrap(err, "[client New] file storage")
		}
		return fs, nil
	}
}

// Execute sends op through the pipeline. Cache-first queries may be answered
// from the response cache; successful mutations invalidate it. With
// ErrorPolicyNone any GraphQL error in the result is returned as graphql.Errors.
func (c *Client) Execute(ctx context.Context, op *graphql.Operation) (*graphql.Result, error) {
	if op == nil {
		return nil, ierrors.ErrMissingOperation
	}

	cacheable := c.cache != nil && op.Kind == graphql.QueryKind
	if cacheable && op.FetchPolicy == graphql.CacheFirst {
		if cached, ok := c.cache.Get(op); ok {
			return c.deliver(op, cached)
		}
	}

	var generation uint64
	if cacheable {
		generation = c.cache.Generation()
	}
	result, err := c.pipeline(ctx, op)
	if err != nil {
		return nil, err
	}

	if c.cache != nil && !result.HasErrors() {
		switch {
		case cacheable:
			if !c.cache.PutIfGeneration(op, result, generation) {
				c.logger.Debug().Str("operation", op.Name).Msg("cache purged while in flight, result not cached")
			}
		case op.Kind == graphql.MutationKind && op.Name != c.refreshOp:
			c.cache.Purge()
		}
	}
	return c.deliver(op, result)
}

func (c *Client) deliver(op *graphql.Operation, result *graphql.Result) (*graphql.Result, error) {
	if result.HasErrors() && op.ErrorPolicy != graphql.ErrorPolicyAll {
		return nil, graphql.Errors(result.Errors)
	}
	return result, nil
}

func (c *Client) Session() *session.Store {
	return c.store
}

func (c *Client) Auth() *auth.Service {
	return c.auth
}

func (c *Client) Finance() *finance.Service {
	return c.finance
}

func (c *Client) Ideas() *ideas.Service {
	return c.ideas
}

// Close releases connections held by the storage backend.
func (c *Client) Close() error {
	var firstErr error
	for _, closeFn := range c.closers {
		if err := closeFn(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
