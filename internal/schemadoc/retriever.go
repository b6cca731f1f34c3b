// Package schemadoc maintains the persisted collection of free-text schema
// descriptions used to ground SQL generation. Each description carries a
// vector embedding; retrieval is a top-1 similarity search over the
// collection.
package schemadoc

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/philippgille/chromem-go"
)

// CollectionName is the persisted chromem collection holding schema
// descriptions.
const CollectionName = "argo_schema"

// Embedder produces vector embeddings for text. ai.Provider satisfies it.
type Embedder interface {
	Embed(ctx context.Context, text string, model string) ([]float32, error)
}

// Document is one schema description to index.
type Document struct {
	ID       string
	Content  string
	Metadata map[string]string
}

// ---------------------------------------------------------------------------
// Retriever
// ---------------------------------------------------------------------------

// Retriever wraps a persistent chromem-go collection of schema documents.
type Retriever struct {
	db   *chromem.DB
	coll *chromem.Collection
}

// NewRetriever opens (or creates) the persistent collection at path.
func NewRetriever(path string, embedder Embedder) (*Retriever, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("schemadoc: open %s: %w", path, err)
	}

	embedFunc := func(ctx context.Context, text string) ([]float32, error) {
		return embedder.Embed(ctx, text, "")
	}
	coll, err := db.GetOrCreateCollection(CollectionName, nil, embedFunc)
	if err != nil {
		return nil, fmt.Errorf("schemadoc: collection %s: %w", CollectionName, err)
	}

	return &Retriever{db: db, coll: coll}, nil
}

// Count returns the number of stored schema documents.
func (r *Retriever) Count() int {
	return r.coll.Count()
}

// Add indexes schema documents, embedding each one.
func (r *Retriever) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	out := make([]chromem.Document, len(docs))
	for i, d := range docs {
		id := d.ID
		if id == "" {
			id = uuid.New().String()
		}
		out[i] = chromem.Document{
			ID:       id,
			Content:  d.Content,
			Metadata: d.Metadata,
		}
	}
	if err := r.coll.AddDocuments(ctx, out, 1); err != nil {
		return fmt.Errorf("schemadoc: add %d documents: %w", len(docs), err)
	}
	return nil
}

// Retrieve returns the single schema description nearest to the question.
func (r *Retriever) Retrieve(ctx context.Context, question string) (string, error) {
	if r.coll.Count() == 0 {
		return "", fmt.Errorf("schemadoc: collection %s is empty", CollectionName)
	}
	results, err := r.coll.Query(ctx, question, 1, nil, nil)
	if err != nil {
		return "", fmt.Errorf("schemadoc: query: %w", err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("schemadoc: no match for question")
	}
	return results[0].Content, nil
}

// Seed installs the default argo_profiles description when the collection
// is empty, so a fresh deployment can answer questions immediately.
func (r *Retriever) Seed(ctx context.Context) error {
	if r.coll.Count() > 0 {
		return nil
	}
	slog.Info("seeding schema collection", "collection", CollectionName)
	return r.Add(ctx, []Document{{
		ID:       "argo-profiles-schema",
		Content:  DefaultSchemaDoc,
		Metadata: map[string]string{"table": "argo_profiles"},
	}})
}

// DefaultSchemaDoc describes the canonical table for the SQL-generation
// prompt.
const DefaultSchemaDoc = `Table: argo_profiles
One row per ARGO float profile (one descent/ascent cycle), reduced to a single scalar per physical quantity.

Columns:
- platform_id (TEXT): identifier of the ARGO float, e.g. '6901867'. Requires single quotes in WHERE clauses.
- cycle_number (INTEGER): profile cycle counter for the float.
- latitude (DOUBLE PRECISION): degrees north, -90 to 90.
- longitude (DOUBLE PRECISION): degrees east, -180 to 180.
- timestamp (TIMESTAMPTZ): observation time of the profile (UTC).
- pressure (DOUBLE PRECISION): sea pressure in decibar; larger values are deeper.
- temperature (DOUBLE PRECISION): sea water temperature in degrees Celsius.
- salinity (DOUBLE PRECISION): practical salinity (PSU).`
