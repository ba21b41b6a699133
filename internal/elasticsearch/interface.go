package elasticsearch

import "context"

// Engine abstracts the remote search engine: index administration, document CRUD, bulk, search and count.
// Implementations are safe for concurrent use and never retry on their own.
type Engine interface {
	CreateIndex(ctx context.Context, name string, mapping Mapping) error
	DeleteIndex(ctx context.Context, name string) error
	IndexExists(ctx context.Context, name string) (bool, error)
	GetMapping(ctx context.Context, name string) (Mapping, error)

	IndexDocument(ctx context.Context, index string, doc Document, id string, mode IndexMode) (string, error)
	GetDocument(ctx context.Context, index, id string, fields []string) (Document, error)
	UpdateDocument(ctx context.Context, index, id string, doc Document, mode UpdateMode) (string, error)
	DeleteDocument(ctx context.Context, index, id string) (DeleteOutcome, error)
	Bulk(ctx context.Context, index string, ops []BulkOperation) (*BulkOutcome, error)

	Search(ctx context.Context, index string, req SearchRequest) (*SearchResult, error)
	Count(ctx context.Context, index string, query Query) (int64, error)

	Ping(ctx context.Context) error
}

// Ensure both implementations satisfy Engine at compile time.
var (
	_ Engine = (*Client)(nil)
	_ Engine = (*Embedded)(nil)
)
