package arango

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
)

// MockClient is a function-field test double for Client. Only the fields a
// test needs have to be populated; unset methods fail loudly.
type MockClient struct {
	QueryFunc          func(ctx context.Context, query string, bindVars map[string]any) (Cursor, error)
	HasCollectionFunc  func(ctx context.Context, name string) (bool, error)
	CollectionsFunc    func(ctx context.Context) ([]CollectionMeta, error)
	ReadDocumentFunc   func(ctx context.Context, collection, key string, out any) error
	UpdateDocumentFunc func(ctx context.Context, collection, key string, patch any) error
	PingFunc           func(ctx context.Context) error
	Database           string
	Server             string
}

func (m *MockClient) Query(ctx context.Context, query string, bindVars map[string]any) (Cursor, error) {
	if m.QueryFunc == nil {
		return nil, fmt.Errorf("mock: Query not configured")
	}
	return m.QueryFunc(ctx, query, bindVars)
}

func (m *MockClient) HasCollection(ctx context.Context, name string) (bool, error) {
	if m.HasCollectionFunc == nil {
		return true, nil
	}
	return m.HasCollectionFunc(ctx, name)
}

func (m *MockClient) Collections(ctx context.Context) ([]CollectionMeta, error) {
	if m.CollectionsFunc == nil {
		return nil, fmt.Errorf("mock: Collections not configured")
	}
	return m.CollectionsFunc(ctx)
}

func (m *MockClient) ReadDocument(ctx context.Context, collection, key string, out any) error {
	if m.ReadDocumentFunc == nil {
		return fmt.Errorf("mock: ReadDocument not configured")
	}
	return m.ReadDocumentFunc(ctx, collection, key, out)
}

func (m *MockClient) UpdateDocument(ctx context.Context, collection, key string, patch any) error {
	if m.UpdateDocumentFunc == nil {
		return fmt.Errorf("mock: UpdateDocument not configured")
	}
	return m.UpdateDocumentFunc(ctx, collection, key, patch)
}

func (m *MockClient) Ping(ctx context.Context) error {
	if m.PingFunc == nil {
		return nil
	}
	return m.PingFunc(ctx)
}

func (m *MockClient) DatabaseName() string {
	if m.Database == "" {
		return DefaultDatabase
	}
	return m.Database
}

func (m *MockClient) Endpoint() string {
	if m.Server == "" {
		return "http://arangodb:8529"
	}
	return m.Server
}

// docCursor replays a fixed slice of documents, marshalling each through JSON
// so tests can hand in maps or structs interchangeably.
type docCursor struct {
	docs []any
	pos  int
}

// NewDocCursor builds a Cursor over the given documents.
func NewDocCursor(docs ...any) Cursor {
	return &docCursor{docs: docs}
}

func (c *docCursor) HasMore() bool { return c.pos < len(c.docs) }

func (c *docCursor) ReadDocument(_ context.Context, out any) error {
	if c.pos >= len(c.docs) {
		return io.EOF
	}
	raw, err := json.Marshal(c.docs[c.pos])
	if err != nil {
		return err
	}
	c.pos++
	return json.Unmarshal(raw, out)
}

func (c *docCursor) Close() error { return nil }
