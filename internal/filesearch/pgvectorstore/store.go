// Package pgvectorstore implements filesearch.SearchBackend against a
// Postgres table with the pgvector extension, following the connection
// pooling and query-building conventions of internal/repository/postgres.
package pgvectorstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"fsgateway/internal/filesearch"
)

// Embedder turns a natural-language query into the vector space the
// vector_store_chunks table's embedding column lives in. Out of scope
// for this package in the same sense the LLM provider is out of scope
// for the core — Store depends only on this contract.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store implements filesearch.SearchBackend against a
// "vector_store_chunks" table: (file_id uuid, vector_store_id uuid,
// chunk_index int, filename text, content text, embedding vector(n),
// metadata jsonb, org_id uuid, project_id uuid).
type Store struct {
	pool     *pgxpool.Pool
	table    string
	embedder Embedder
}

// New returns a Store reading from tableName (pass "" for the default
// "vector_store_chunks").
func New(pool *pgxpool.Pool, tableName string, embedder Embedder) *Store {
	if tableName == "" {
		tableName = "vector_store_chunks"
	}
	return &Store{pool: pool, table: tableName, embedder: embedder}
}

// Search resolves req against the embedding table, scoping every query
// by the caller's identity org/project ids — the backend enforces access
// control, the core passes auth through unchanged.
func (s *Store) Search(ctx context.Context, req filesearch.SearchRequest, auth filesearch.AuthContext) (filesearch.SearchResponse, error) {
	vec, err := s.embedder.Embed(ctx, req.Query)
	if err != nil {
		return filesearch.SearchResponse{}, fmt.Errorf("embed query: %w", err)
	}

	where, args, nextArg := s.buildWhere(req, auth)

	query := fmt.Sprintf(`
		SELECT file_id, filename, chunk_index, content, metadata,
		       1 - (embedding <=> $1) AS score
		FROM %s
		WHERE %s
		ORDER BY embedding <=> $1
		LIMIT $%d
	`, s.table, where, nextArg)
	args = append(args, req.MaxResults)

	rows, err := s.pool.Query(ctx, query, append([]any{vectorLiteral(vec)}, args[1:]...)...)
	if err != nil {
		return filesearch.SearchResponse{}, fmt.Errorf("query vector_store_chunks: %w", err)
	}
	defer rows.Close()

	var results []filesearch.SearchResult
	for rows.Next() {
		var (
			fileID, filename, content string
			chunkIndex                int
			metadataRaw               []byte
			score                     float64
		)
		if err := rows.Scan(&fileID, &filename, &chunkIndex, &content, &metadataRaw, &score); err != nil {
			return filesearch.SearchResponse{}, fmt.Errorf("scan search row: %w", err)
		}
		if score < req.Threshold {
			continue
		}
		var metadata map[string]any
		if len(metadataRaw) > 0 {
			_ = json.Unmarshal(metadataRaw, &metadata)
		}
		results = append(results, filesearch.SearchResult{
			FileID:     fileID,
			Filename:   filename,
			ChunkIndex: chunkIndex,
			Score:      score,
			Content:    content,
			Metadata:   metadata,
		})
	}
	if err := rows.Err(); err != nil {
		return filesearch.SearchResponse{}, fmt.Errorf("iterate search rows: %w", err)
	}

	return filesearch.SearchResponse{
		Query:                req.Query,
		VectorStoresSearched: len(req.VectorStoreIDs),
		Results:              results,
	}, nil
}

// buildWhere assembles the WHERE clause and positional args for a
// search, starting argument numbering at $2 (the embedding occupies $1).
func (s *Store) buildWhere(req filesearch.SearchRequest, auth filesearch.AuthContext) (string, []any, int) {
	clauses := []string{"vector_store_id = ANY($2)"}
	args := []any{nil, req.VectorStoreIDs} // index 0 placeholder for $1 (embedding), filled by caller
	n := 3

	if len(auth.IdentityOrgIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("org_id = ANY($%d)", n))
		args = append(args, auth.IdentityOrgIDs)
		n++
	}
	if len(auth.IdentityProjectIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("project_id = ANY($%d)", n))
		args = append(args, auth.IdentityProjectIDs)
		n++
	}
	if len(req.FileIDs) > 0 {
		clauses = append(clauses, fmt.Sprintf("file_id = ANY($%d)", n))
		args = append(args, req.FileIDs)
		n++
	}
	if req.Filters != nil {
		if fc, fargs, newN := filterToSQL(*req.Filters, n); fc != "" {
			clauses = append(clauses, fc)
			args = append(args, fargs...)
			n = newN
		}
	}

	return strings.Join(clauses, " AND "), args, n
}

// filterToSQL translates a filesearch.Filter tree into a WHERE fragment
// against the metadata jsonb column, using ->> for textual comparison
// (matching the core's own lossy scalar coercion of non-string filter
// values).
func filterToSQL(f filesearch.Filter, nextArg int) (string, []any, int) {
	if f.IsCompound() {
		var parts []string
		var args []any
		joiner := " AND "
		if f.Op == filesearch.FilterOr {
			joiner = " OR "
		}
		for _, child := range f.Children {
			cs, cargs, n := filterToSQL(child, nextArg)
			if cs == "" {
				continue
			}
			parts = append(parts, cs)
			args = append(args, cargs...)
			nextArg = n
		}
		if len(parts) == 0 {
			return "", nil, nextArg
		}
		return "(" + strings.Join(parts, joiner) + ")", args, nextArg
	}

	op, ok := comparisonOperators[f.Op]
	if !ok {
		return "", nil, nextArg
	}
	clause := fmt.Sprintf("metadata->>'%s' %s $%d", f.Key, op, nextArg)
	return clause, []any{fmt.Sprintf("%v", f.Value)}, nextArg + 1
}

var comparisonOperators = map[filesearch.FilterOp]string{
	filesearch.FilterEq:  "=",
	filesearch.FilterNe:  "!=",
	filesearch.FilterGt:  ">",
	filesearch.FilterGte: ">=",
	filesearch.FilterLt:  "<",
	filesearch.FilterLte: "<=",
}

// vectorLiteral renders a float32 vector as the pgvector text input
// format: "[v1,v2,...]".
func vectorLiteral(vec []float32) string {
	parts := make([]string, len(vec))
	for i, v := range vec {
		parts[i] = fmt.Sprintf("%g", v)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
