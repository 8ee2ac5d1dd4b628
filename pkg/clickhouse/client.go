package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
)

type settings struct {
	host string
	port int
	opts clickhouse.Options
}

// ClientOption adjusts the connection settings.
type ClientOption func(*settings)

func WithHost(host string) ClientOption {
	return func(s *settings) { s.host = host }
}

func WithPort(port int) ClientOption {
	return func(s *settings) { s.port = port }
}

func WithDatabase(database string) ClientOption {
	return func(s *settings) { s.opts.Auth.Database = database }
}

func WithCredentials(user, password string) ClientOption {
	return func(s *settings) {
		s.opts.Auth.Username = user
		s.opts.Auth.Password = password
	}
}

func WithMaxConnections(maxOpen, maxIdle int) ClientOption {
	return func(s *settings) {
		s.opts.MaxOpenConns = maxOpen
		s.opts.MaxIdleConns = maxIdle
	}
}

// WithTimeouts sets dial and read timeouts; zero keeps the default.
func WithTimeouts(dial, read time.Duration) ClientOption {
	return func(s *settings) {
		if dial > 0 {
			s.opts.DialTimeout = dial
		}
		if read > 0 {
			s.opts.ReadTimeout = read
		}
	}
}

// WithHTTP switches from the native protocol to HTTP.
func WithHTTP(useHTTP bool) ClientOption {
	return func(s *settings) {
		if useHTTP {
			s.opts.Protocol = clickhouse.HTTP
		}
	}
}

// WithAsyncInsert lets the server buffer small inserts. wait makes the insert
// return only after the buffer was flushed.
func WithAsyncInsert(enabled, wait bool) ClientOption {
	return func(s *settings) {
		if !enabled {
			return
		}
		s.opts.Settings["async_insert"] = 1
		if wait {
			s.opts.Settings["wait_for_async_insert"] = 1
		}
	}
}

func WithMaxExecutionTime(d time.Duration) ClientOption {
	return func(s *settings) {
		if d > 0 {
			s.opts.Settings["max_execution_time"] = int(d.Seconds())
		}
	}
}

// Client owns the ClickHouse connection pool.
type Client struct {
	db       *sql.DB
	database string
}

// NewClient opens a pool and pings the server.
func NewClient(opts ...ClientOption) (*Client, error) {
	s := &settings{
		port: 9000,
		opts: clickhouse.Options{
			Auth:            clickhouse.Auth{Database: "regime_news", Username: "default"},
			Protocol:        clickhouse.Native,
			DialTimeout:     5 * time.Second,
			ReadTimeout:     30 * time.Second,
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
			Settings:        clickhouse.Settings{},
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.host == "" {
		return nil, errors.New("clickhouse: host is required")
	}
	s.opts.Addr = []string{net.JoinHostPort(s.host, strconv.Itoa(s.port))}

	db := clickhouse.OpenDB(&s.opts)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("clickhouse ping %s: %w", s.opts.Addr[0], err)
	}
	return &Client{db: db, database: s.opts.Auth.Database}, nil
}

// NewFromDB wraps an already opened pool.
func NewFromDB(db *sql.DB, database string) *Client {
	return &Client{db: db, database: database}
}

func (c *Client) DB() *sql.DB { return c.db }

func (c *Client) Database() string { return c.database }

func (c *Client) Close() error {
	if c.db == nil {
		return nil
	}
	return c.db.Close()
}

// InitSchema runs idempotent DDL statements in order.
func (c *Client) InitSchema(ctx context.Context, stmts ...string) error {
	for _, stmt := range stmts {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}
