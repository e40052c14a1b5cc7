package graphdb

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	defaultQueryTimeout = 30 * time.Second
	minRedialBackoff    = 5 * time.Second
	maxRedialBackoff    = time.Minute
)

// ErrUnavailable is returned when no graph driver is connected.
var ErrUnavailable = errors.New("graphdb: store unavailable")

// StoreError reports a failed query together with its name.
type StoreError struct {
	Query string
	Err   error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graphdb: query %s: %v", e.Query, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// IsUnavailable reports whether err means the store could not be reached at all.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrUnavailable)
}

// Config describes the Bolt connection.
type Config struct {
	URI            string
	User           string
	Password       string
	Database       string
	LabelPrefix    string
	MaxPoolSize    int
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
}

// Observer receives query latencies.
type Observer interface {
	ObserveDBQuery(label string, duration time.Duration)
}

// Runner executes named, parameterised Cypher queries.
type Runner interface {
	Read(ctx context.Context, q Query) ([]Record, error)
	Write(ctx context.Context, q Query) ([]Record, error)
	WriteTx(ctx context.Context, name string, queries ...Query) error
	Available() bool
	Prefix() string
}

// Client is the neo4j backed Runner. A Client without driver is offline and
// answers every query with ErrUnavailable. An offline client with a URI keeps
// redialing in the background, backing off up to a minute between attempts.
type Client struct {
	mu       sync.RWMutex
	driver   neo4j.DriverWithContext
	closed   bool
	nextDial time.Time
	backoff  time.Duration
	dialing  atomic.Bool
	dial     dialFunc
	now      func() time.Time

	database string
	prefix   string
	timeout  time.Duration
	observer Observer
	tracer   trace.Tracer
	logger   *zap.Logger
}

type dialFunc func(ctx context.Context) (neo4j.DriverWithContext, error)

// Option customises a Client.
type Option func(*Client)

// WithObserver wires query latency metrics.
func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func withDialer(d dialFunc) Option {
	return func(c *Client) { c.dial = d }
}

// Open connects to the graph store. On failure the returned client is offline
// and the error explains why; the client is never nil.
func Open(ctx context.Context, cfg Config, logger *zap.Logger, opts ...Option) (*Client, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		database: cfg.Database,
		prefix:   cfg.LabelPrefix,
		timeout:  cfg.QueryTimeout,
		now:      time.Now,
		tracer:   otel.Tracer("lakgs/graphdb"),
		logger:   logger.With(zap.String("component", "graphdb")),
	}
	if c.timeout <= 0 {
		c.timeout = defaultQueryTimeout
	}
	for _, opt := range opts {
		opt(c)
	}

	uri := strings.TrimSpace(cfg.URI)
	if uri == "" {
		c.dial = nil
		return c, fmt.Errorf("%w: GRAPH_URI not configured", ErrUnavailable)
	}
	if c.dial == nil {
		c.dial = boltDialer(uri, cfg)
	}

	driver, err := c.dial(ctx)
	if err != nil {
		c.mu.Lock()
		c.scheduleRedial()
		c.mu.Unlock()
		return c, err
	}
	c.driver = driver
	return c, nil
}

func boltDialer(uri string, cfg Config) dialFunc {
	connectTimeout := cfg.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 10 * time.Second
	}
	user := cfg.User
	if user == "" {
		user = "neo4j"
	}
	return func(ctx context.Context) (neo4j.DriverWithContext, error) {
		driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, cfg.Password, ""), func(nc *neo4j.Config) {
			if cfg.MaxPoolSize > 0 {
				nc.MaxConnectionPoolSize = cfg.MaxPoolSize
			}
			nc.SocketConnectTimeout = connectTimeout
		})
		if err != nil {
			return nil, fmt.Errorf("%w: init driver: %v", ErrUnavailable, err)
		}

		verifyCtx, cancel := context.WithTimeout(ctx, connectTimeout)
		defer cancel()
		if err := driver.VerifyConnectivity(verifyCtx); err != nil {
			_ = driver.Close(ctx)
			return nil, fmt.Errorf("%w: verify connectivity: %v", ErrUnavailable, err)
		}
		return driver, nil
	}
}

// scheduleRedial must be called with mu held.
func (c *Client) scheduleRedial() {
	switch {
	case c.backoff <= 0:
		c.backoff = minRedialBackoff
	case c.backoff < maxRedialBackoff:
		c.backoff *= 2
		if c.backoff > maxRedialBackoff {
			c.backoff = maxRedialBackoff
		}
	}
	c.nextDial = c.now().Add(c.backoff)
}

func (c *Client) redial() {
	defer c.dialing.Store(false)
	driver, err := c.dial(context.Background())

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.scheduleRedial()
		c.logger.Warn("graph store still offline", zap.Duration("retry_in", c.backoff), zap.Error(err))
		return
	}
	if c.closed {
		_ = driver.Close(context.Background())
		return
	}
	c.driver = driver
	c.backoff = 0
	c.logger.Info("graph store reconnected")
}

// Close releases the driver pool and stops redialing.
func (c *Client) Close(ctx context.Context) error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	driver := c.driver
	c.driver = nil
	c.closed = true
	c.mu.Unlock()
	if driver == nil {
		return nil
	}
	return driver.Close(ctx)
}

func (c *Client) currentDriver() neo4j.DriverWithContext {
	if c == nil {
		return nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.driver
}

// Available reports whether a driver is connected. While offline, a call past
// the backoff deadline starts one background redial and still answers false.
func (c *Client) Available() bool {
	if c == nil {
		return false
	}
	c.mu.RLock()
	connected := c.driver != nil
	due := c.dial != nil && !c.closed && !c.now().Before(c.nextDial)
	c.mu.RUnlock()
	if connected {
		return true
	}
	if due && c.dialing.CompareAndSwap(false, true) {
		go c.redial()
	}
	return false
}

func (c *Client) Prefix() string { return c.prefix }

// Label returns the prefixed form of a bare label.
func (c *Client) Label(name string) string { return c.prefix + name }

// WithSession opens a session in the given mode and always closes it.
func (c *Client) WithSession(ctx context.Context, mode neo4j.AccessMode, fn func(neo4j.SessionWithContext) error) error {
	driver := c.currentDriver()
	if driver == nil {
		return ErrUnavailable
	}
	session := driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: mode, DatabaseName: c.database})
	defer session.Close(ctx)
	return fn(session)
}

func (c *Client) Read(ctx context.Context, q Query) ([]Record, error) {
	return c.run(ctx, neo4j.AccessModeRead, q.Name, []Query{q})
}

func (c *Client) Write(ctx context.Context, q Query) ([]Record, error) {
	return c.run(ctx, neo4j.AccessModeWrite, q.Name, []Query{q})
}

// WriteTx runs every query inside a single managed write transaction.
func (c *Client) WriteTx(ctx context.Context, name string, queries ...Query) error {
	_, err := c.run(ctx, neo4j.AccessModeWrite, name, queries)
	return err
}

// run executes queries in one transaction and returns the records of the last one.
func (c *Client) run(ctx context.Context, mode neo4j.AccessMode, name string, queries []Query) ([]Record, error) {
	if !c.Available() {
		return nil, ErrUnavailable
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, "graphdb."+name, trace.WithAttributes(
		attribute.String("db.system", "neo4j"),
		attribute.Int("db.statements", len(queries)),
	))
	defer span.End()

	start := time.Now()
	var records []Record
	err := c.WithSession(ctx, mode, func(session neo4j.SessionWithContext) error {
		work := func(tx neo4j.ManagedTransaction) (any, error) {
			var last []Record
			for _, q := range queries {
				res, err := tx.Run(ctx, RenderLabels(c.prefix, q.Cypher), q.Params)
				if err != nil {
					return nil, err
				}
				raw, err := res.Collect(ctx)
				if err != nil {
					return nil, err
				}
				last = make([]Record, 0, len(raw))
				for _, r := range raw {
					last = append(last, Record(r.AsMap()))
				}
			}
			return last, nil
		}

		var out any
		var err error
		if mode == neo4j.AccessModeRead {
			out, err = session.ExecuteRead(ctx, work)
		} else {
			out, err = session.ExecuteWrite(ctx, work)
		}
		if err != nil {
			return err
		}
		records, _ = out.([]Record)
		return nil
	})
	if c.observer != nil {
		c.observer.ObserveDBQuery(name, time.Since(start))
	}
	if err != nil {
		if neo4j.IsConnectivityError(err) {
			err = fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, "query failed")
		c.logger.Warn("graph query failed", zap.String("query", name), zap.Error(err))
		return nil, &StoreError{Query: name, Err: err}
	}
	return records, nil
}

var labelMarker = regexp.MustCompile(`:#([A-Za-z_][A-Za-z0-9_]*)`)

// RenderLabels rewrites every `:#Label` marker in a Cypher template to `:<prefix>Label`.
func RenderLabels(prefix, cypher string) string {
	return labelMarker.ReplaceAllString(cypher, ":"+prefix+"${1}")
}
