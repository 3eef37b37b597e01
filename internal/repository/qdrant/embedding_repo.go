package qdrant

import (
	"context"

	"github.com/jimlawless/whereami"
	"github.com/qdrant/go-client/qdrant"

	"github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/internal/domain"
	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
)

// EmbeddingRepo — векторный индекс товарных эмбеддингов в Qdrant.
// Коллекция косинусная, поэтому score точки — косинусная близость.
type EmbeddingRepo struct {
	client *qdrant.Client
	cfg    *cfg.QdrantCfg
}

func NewEmbeddingRepo(client *qdrant.Client, cfg *cfg.QdrantCfg) *EmbeddingRepo {
	return &EmbeddingRepo{
		client: client,
		cfg:    cfg,
	}
}

// Upsert сохраняет или обновляет эмбеддинг товара; точка адресуется
// числовым ID товара.
func (q *EmbeddingRepo) Upsert(ctx context.Context, embedding *domain.Embedding) error {
	if len(embedding.Vector) == 0 {
		return e.Wrap(whereami.WhereAmI(), e.ErrEmptyVector)
	}

	_, err := q.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Points: []*qdrant.PointStruct{
			{
				Id:      qdrant.NewIDNum(uint64(embedding.ProductID)),
				Vectors: qdrant.NewVectors(embedding.Vector...),
				Payload: qdrant.NewValueMap(map[string]any{
					"product_id": embedding.ProductID,
				}),
			},
		},
	})
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// Query возвращает ближайших соседей вектора по убыванию близости;
// excludeID > 0 вычёркивает исходный товар на стороне индекса.
func (q *EmbeddingRepo) Query(ctx context.Context, vector []float32, limit int, excludeID int64) ([]usecase.ScoredID, error) {
	if len(vector) == 0 {
		return nil, e.Wrap(whereami.WhereAmI(), e.ErrEmptyVector)
	}

	req := &qdrant.QueryPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(limit)),
	}

	if excludeID > 0 {
		req.Filter = &qdrant.Filter{
			MustNot: []*qdrant.Condition{
				qdrant.NewHasID(qdrant.NewIDNum(uint64(excludeID))),
			},
		}
	}

	points, err := q.client.Query(ctx, req)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	hits := make([]usecase.ScoredID, 0, len(points))
	for _, point := range points {
		hits = append(hits, usecase.ScoredID{
			ProductID: int64(point.GetId().GetNum()),
			Score:     float64(point.GetScore()),
		})
	}

	return hits, nil
}

// Fetch возвращает сохранённый вектор товара; (nil, nil) — эмбеддинга нет.
func (q *EmbeddingRepo) Fetch(ctx context.Context, productID int64) ([]float32, error) {
	points, err := q.client.Get(ctx, &qdrant.GetPoints{
		CollectionName: q.cfg.QdrantCollectionName,
		Ids:            []*qdrant.PointId{qdrant.NewIDNum(uint64(productID))},
		WithVectors:    qdrant.NewWithVectors(true),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if len(points) == 0 {
		return nil, nil
	}

	vector := points[0].GetVectors().GetVector().GetData()
	if len(vector) == 0 {
		return nil, nil
	}

	return vector, nil
}
