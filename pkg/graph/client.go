// Package graph implements the Graph Writer (§4.7): it projects the
// resolved model onto a labeled property graph (Neo4j) using idempotent,
// batched upsert statements. The writer owns the database client exclusively
// during a pass and is the only pipeline stage that performs I/O suspension
// (§5).
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Config addresses the external graph store: URI plus credentials, and the
// per-statement write timeout every database round trip is bounded by (§5).
type Config struct {
	URI      string
	Username string
	Password string

	// WriteTimeout bounds each write transaction. Zero means DefaultWriteTimeout.
	WriteTimeout time.Duration
}

// DefaultWriteTimeout bounds a single write transaction unless overridden.
const DefaultWriteTimeout = 30 * time.Second

func (c Config) writeTimeout() time.Duration {
	if c.WriteTimeout <= 0 {
		return DefaultWriteTimeout
	}
	return c.WriteTimeout
}

// Client wraps the Neo4j driver for the writer. A Client is safe to share,
// but a Writer pass holds it exclusively (§5 shared-resource policy).
type Client struct {
	driver  neo4j.DriverWithContext
	timeout time.Duration
	logger  *slog.Logger
}

// NewClient connects to the graph database and verifies connectivity before
// returning. Connectivity failure here is a configuration error (§7): fatal,
// raised before any pass begins.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if logger == nil {
		logger = slog.Default()
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, ""))
	if err != nil {
		return nil, fmt.Errorf("graph: create driver for %s: %w", cfg.URI, err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("graph: verify connectivity to %s: %w", cfg.URI, err)
	}
	logger.Info("connected to graph database", "uri", cfg.URI)
	return &Client{driver: driver, timeout: cfg.writeTimeout(), logger: logger}, nil
}

// Close releases the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	return c.driver.Close(ctx)
}

// write runs one parameterized statement inside a managed write transaction,
// bounded by the configured timeout, and returns the result summary counters.
func (c *Client) write(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer session.Close(ctx)

	out, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Consume(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.(neo4j.ResultSummary), nil
}

// Query runs one parameterized read statement and collects all records;
// read-only surfaces (the MCP adapter) are built on this.
func (c *Client) Query(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	return c.read(ctx, cypher, params)
}

// read runs one parameterized read statement and collects all records.
func (c *Client) read(ctx context.Context, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	session := c.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	out, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		result, err := tx.Run(ctx, cypher, params)
		if err != nil {
			return nil, err
		}
		return result.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]*neo4j.Record), nil
}
