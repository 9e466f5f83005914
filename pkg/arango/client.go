// Package arango wraps the ArangoDB Go driver behind small interfaces so
// handlers and the path engine can be tested against in-memory fakes.
package arango

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	driver "github.com/arangodb/go-driver"
	driverhttp "github.com/arangodb/go-driver/http"
)

const (
	// DefaultDatabase is the database the topology collectors write into.
	DefaultDatabase = "jalapeno"

	defaultConnLimit = 32
)

// CollectionKind distinguishes vertex (document) collections from edge
// collections.
type CollectionKind string

const (
	KindDocument CollectionKind = "document"
	KindEdge     CollectionKind = "edge"
)

// CollectionMeta describes one non-system collection.
type CollectionMeta struct {
	Name   string         `json:"name"`
	Kind   CollectionKind `json:"type"`
	Status string         `json:"status"`
	Count  int64          `json:"count"`
}

// Client represents an ArangoDB database connection.
type Client interface {
	// Query runs an AQL query with bind variables and returns a cursor over
	// the result documents.
	Query(ctx context.Context, query string, bindVars map[string]any) (Cursor, error)
	// HasCollection reports whether a non-system collection exists.
	HasCollection(ctx context.Context, name string) (bool, error)
	// Collections lists all non-system collections with their kind and count.
	Collections(ctx context.Context) ([]CollectionMeta, error)
	// ReadDocument reads a single document by key into out.
	ReadDocument(ctx context.Context, collection, key string, out any) error
	// UpdateDocument patches a single document by key.
	UpdateDocument(ctx context.Context, collection, key string, patch any) error
	Ping(ctx context.Context) error
	DatabaseName() string
	Endpoint() string
}

// Cursor iterates over the documents of a query result.
type Cursor interface {
	HasMore() bool
	ReadDocument(ctx context.Context, out any) error
	Close() error
}

// Config holds the connection settings for NewClient.
type Config struct {
	Endpoint string
	Database string
	Username string
	Password string

	// QueryObserver, if set, is invoked after every Query with its duration
	// and outcome. Used for prometheus instrumentation.
	QueryObserver func(d time.Duration, err error)
}

type client struct {
	db       driver.Database
	endpoint string
	database string
	observer func(d time.Duration, err error)
	log      *slog.Logger
}

type cursor struct {
	cur driver.Cursor
}

// NewClient connects to ArangoDB and verifies the database is reachable.
func NewClient(ctx context.Context, log *slog.Logger, cfg Config) (Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("arango: endpoint is required")
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}

	conn, err := driverhttp.NewConnection(driverhttp.ConnectionConfig{
		Endpoints: []string{cfg.Endpoint},
		ConnLimit: defaultConnLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ArangoDB connection: %w", err)
	}

	c, err := driver.NewClient(driver.ClientConfig{
		Connection:     conn,
		Authentication: driver.BasicAuthentication(cfg.Username, cfg.Password),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create ArangoDB client: %w", err)
	}

	db, err := c.Database(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %q: %w", cfg.Database, classify(err))
	}

	log.Info("arangodb client initialized", "endpoint", cfg.Endpoint, "database", cfg.Database)

	return &client{
		db:       db,
		endpoint: cfg.Endpoint,
		database: cfg.Database,
		observer: cfg.QueryObserver,
		log:      log,
	}, nil
}

func (c *client) Query(ctx context.Context, query string, bindVars map[string]any) (Cursor, error) {
	start := time.Now()
	cur, err := c.db.Query(ctx, query, bindVars)
	if c.observer != nil {
		c.observer(time.Since(start), err)
	}
	if err != nil {
		return nil, classify(err)
	}
	return &cursor{cur: cur}, nil
}

func (c *client) HasCollection(ctx context.Context, name string) (bool, error) {
	ok, err := c.db.CollectionExists(ctx, name)
	if err != nil {
		return false, classify(err)
	}
	return ok, nil
}

func (c *client) Collections(ctx context.Context) ([]CollectionMeta, error) {
	cols, err := c.db.Collections(ctx)
	if err != nil {
		return nil, classify(err)
	}

	metas := make([]CollectionMeta, 0, len(cols))
	for _, col := range cols {
		props, err := col.Properties(ctx)
		if err != nil {
			return nil, classify(err)
		}
		if props.IsSystem {
			continue
		}
		count, err := col.Count(ctx)
		if err != nil {
			return nil, classify(err)
		}
		kind := KindDocument
		if props.Type == driver.CollectionTypeEdge {
			kind = KindEdge
		}
		metas = append(metas, CollectionMeta{
			Name:   col.Name(),
			Kind:   kind,
			Status: collectionStatus(props.Status),
			Count:  count,
		})
	}
	return metas, nil
}

func (c *client) ReadDocument(ctx context.Context, collection, key string, out any) error {
	col, err := c.db.Collection(ctx, collection)
	if err != nil {
		return classify(err)
	}
	if _, err := col.ReadDocument(ctx, key, out); err != nil {
		return classify(err)
	}
	return nil
}

func (c *client) UpdateDocument(ctx context.Context, collection, key string, patch any) error {
	col, err := c.db.Collection(ctx, collection)
	if err != nil {
		return classify(err)
	}
	if _, err := col.UpdateDocument(ctx, key, patch); err != nil {
		return classify(err)
	}
	return nil
}

func (c *client) Ping(ctx context.Context) error {
	if _, err := c.db.Info(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (c *client) DatabaseName() string { return c.database }
func (c *client) Endpoint() string     { return c.endpoint }

func (cu *cursor) HasMore() bool { return cu.cur.HasMore() }

func (cu *cursor) ReadDocument(ctx context.Context, out any) error {
	if _, err := cu.cur.ReadDocument(ctx, out); err != nil {
		return classify(err)
	}
	return nil
}

func (cu *cursor) Close() error { return cu.cur.Close() }

func collectionStatus(s driver.CollectionStatus) string {
	switch s {
	case driver.CollectionStatusLoaded:
		return "loaded"
	case driver.CollectionStatusUnloaded, driver.CollectionStatusUnloading:
		return "unloaded"
	case driver.CollectionStatusNewBorn:
		return "new"
	case driver.CollectionStatusLoading:
		return "loading"
	case driver.CollectionStatusDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}
