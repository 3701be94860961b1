package weaviate

import (
	"context"
	"fmt"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/filters"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"

	"scholaria/backend/internal/retrieval"
	"scholaria/backend/internal/text"
	"scholaria/backend/internal/vector"
)

// Store adapts Weaviate to the pipeline's vector-index contract. Every
// operation carries a tenant filter; no query ever runs unscoped.
type Store struct {
	client *weaviate.Client
}

func NewStore(client *weaviate.Client) *Store {
	return &Store{client: client}
}

func (s *Store) Upsert(ctx context.Context, tenant string, chunk text.Chunk, vec []float32) error {
	_, err := s.client.Data().Creator().
		WithClassName(vector.ClassName).
		WithProperties(map[string]interface{}{
			"content":    chunk.Text,
			"tenant":     tenant,
			"docId":      chunk.DocID,
			"chunkIndex": chunk.Index,
			"section":    chunk.Section,
			"page":       chunk.Page,
			"tokenCount": chunk.TokenCount,
		}).
		WithVector(vec).
		Do(ctx)
	return err
}

func (s *Store) DeleteByDoc(ctx context.Context, tenant, docID string) error {
	_, err := s.client.Batch().ObjectsBatchDeleter().
		WithClassName(vector.ClassName).
		WithOutput("minimal").
		WithWhere(filters.Where().
			WithOperator(filters.And).
			WithOperands([]*filters.WhereBuilder{
				filters.Where().
					WithPath([]string{"tenant"}).
					WithOperator(filters.Equal).
					WithValueString(tenant),
				filters.Where().
					WithPath([]string{"docId"}).
					WithOperator(filters.Equal).
					WithValueString(docID),
			})).
		Do(ctx)
	return err
}

func (s *Store) SimilaritySearch(ctx context.Context, tenant string, vec []float32, topK int, threshold float32) ([]retrieval.Result, error) {
	// Weaviate reports certainty = (1 + cosine) / 2.
	certainty := (1 + threshold) / 2

	nearVector := s.client.GraphQL().NearVectorArgBuilder().
		WithVector(vec).
		WithCertainty(certainty)

	where := filters.Where().
		WithPath([]string{"tenant"}).
		WithOperator(filters.Equal).
		WithValueString(tenant)

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "docId"},
		{Name: "chunkIndex"},
		{Name: "section"},
		{Name: "page"},
		{Name: "_additional", Fields: []graphql.Field{{Name: "certainty"}}},
	}

	res, err := s.client.GraphQL().Get().
		WithClassName(vector.ClassName).
		WithNearVector(nearVector).
		WithWhere(where).
		WithLimit(topK).
		WithFields(fields...).
		Do(ctx)
	if err != nil {
		return nil, err
	}
	if len(res.Errors) > 0 {
		return nil, fmt.Errorf("graphql error: %v", res.Errors)
	}

	var results []retrieval.Result
	data, ok := res.Data["Get"].(map[string]interface{})
	if !ok {
		return results, nil
	}
	rows, ok := data[vector.ClassName].([]interface{})
	if !ok {
		return results, nil
	}
	for _, row := range rows {
		props, ok := row.(map[string]interface{})
		if !ok {
			continue
		}

		result := retrieval.Result{}
		if content, ok := props["content"].(string); ok {
			result.Text = content
		}
		if docID, ok := props["docId"].(string); ok {
			result.Ref.DocID = docID
		}
		if idx, ok := props["chunkIndex"].(float64); ok {
			result.Ref.Index = int(idx)
		}
		if section, ok := props["section"].(string); ok {
			result.Section = section
		}
		if page, ok := props["page"].(float64); ok {
			result.Page = int(page)
		}
		if additional, ok := props["_additional"].(map[string]interface{}); ok {
			if c, ok := additional["certainty"].(float64); ok {
				result.Similarity = float32(2*c - 1)
			}
		}
		results = append(results, result)
	}

	return retrieval.Rank(results, topK, threshold), nil
}

func (s *Store) CountChunks(ctx context.Context, tenant string) (int, error) {
	where := filters.Where().
		WithPath([]string{"tenant"}).
		WithOperator(filters.Equal).
		WithValueString(tenant)

	res, err := s.client.GraphQL().Aggregate().
		WithClassName(vector.ClassName).
		WithWhere(where).
		WithFields(graphql.Field{Name: "meta", Fields: []graphql.Field{{Name: "count"}}}).
		Do(ctx)
	if err != nil {
		return 0, err
	}
	if len(res.Errors) > 0 {
		return 0, fmt.Errorf("graphql error: %v", res.Errors)
	}

	data, ok := res.Data["Aggregate"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	rows, ok := data[vector.ClassName].([]interface{})
	if !ok || len(rows) == 0 {
		return 0, nil
	}
	props, ok := rows[0].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	meta, ok := props["meta"].(map[string]interface{})
	if !ok {
		return 0, nil
	}
	count, _ := meta["count"].(float64)
	return int(count), nil
}
