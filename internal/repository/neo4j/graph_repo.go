package neo4j

import (
	"context"

	"github.com/jimlawless/whereami"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/clients"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
)

// GraphRepo — запросы к графу покупок в Neo4j. Граф — производная
// проекция заказов, его наполняет потребитель событий order_created,
// поэтому все запросы здесь только читающие.
type GraphRepo struct {
	client *clients.Neo4jClient
}

func NewGraphRepo(client *clients.Neo4jClient) *GraphRepo {
	return &GraphRepo{
		client: client,
	}
}

const alsoBoughtCypher = `
	MATCH (p:Product {id: $productID})<-[:PURCHASED]-(u:User)-[:PURCHASED]->(rec:Product)
	WHERE rec.id <> $productID
	RETURN rec.id AS productID, count(DISTINCT u) AS signal
	ORDER BY signal DESC
	LIMIT $limit
`

// Тот же обход со-покупок, что и alsoBoughtCypher: стратегии различаются
// семейством кэша и TTL на слое usecase, а не формой запроса.
const boughtTogetherCypher = `
	MATCH (p:Product {id: $productID})<-[:PURCHASED]-(u:User)-[:PURCHASED]->(rec:Product)
	WHERE rec.id <> $productID
	RETURN rec.id AS productID, count(DISTINCT u) AS signal
	ORDER BY signal DESC
	LIMIT $limit
`

// Двухшаговая коллаборативная фильтрация: десять ближайших по пересечению
// покупок соседей, затем их покупки за вычетом уже купленного.
const personalizedCypher = `
	MATCH (me:User {id: $userID})-[:PURCHASED]->(p:Product)<-[:PURCHASED]-(peer:User)
	WHERE peer.id <> $userID
	WITH me, peer, count(DISTINCT p) AS overlap
	ORDER BY overlap DESC
	LIMIT 10
	MATCH (peer)-[:PURCHASED]->(rec:Product)
	WHERE NOT (me)-[:PURCHASED]->(rec)
	RETURN rec.id AS productID, count(DISTINCT peer) AS signal
	ORDER BY signal DESC
	LIMIT $limit
`

const trendingCypher = `
	MATCH (u:User)-[purchase:PURCHASED]->(p:Product)
	WHERE purchase.date >= datetime() - duration('P7D')
	RETURN p.id AS productID, count(purchase) AS signal
	ORDER BY signal DESC
	LIMIT $limit
`

// AlsoBought — соседи товара по общим покупателям.
func (g *GraphRepo) AlsoBought(ctx context.Context, productID int64, limit int) ([]usecase.GraphHit, error) {
	return g.queryHits(ctx, alsoBoughtCypher, map[string]any{
		"productID": productID,
		"limit":     int64(limit),
	})
}

// BoughtTogether — частые спутники товара по общим покупателям; от
// AlsoBought отличается только семейством кэша и TTL.
func (g *GraphRepo) BoughtTogether(ctx context.Context, productID int64, limit int) ([]usecase.GraphHit, error) {
	return g.queryHits(ctx, boughtTogetherCypher, map[string]any{
		"productID": productID,
		"limit":     int64(limit),
	})
}

// Personalized — рекомендации по покупкам похожих покупателей.
func (g *GraphRepo) Personalized(ctx context.Context, userID string, limit int) ([]usecase.GraphHit, error) {
	return g.queryHits(ctx, personalizedCypher, map[string]any{
		"userID": userID,
		"limit":  int64(limit),
	})
}

// Trending — самое покупаемое за последние семь дней.
func (g *GraphRepo) Trending(ctx context.Context, limit int) ([]usecase.GraphHit, error) {
	return g.queryHits(ctx, trendingCypher, map[string]any{
		"limit": int64(limit),
	})
}

func (g *GraphRepo) queryHits(ctx context.Context, cypher string, params map[string]any) ([]usecase.GraphHit, error) {
	session := g.client.Driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead})
	defer session.Close(ctx)

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	records, err := result.Collect(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	hits := make([]usecase.GraphHit, 0, len(records))
	for _, record := range records {
		productID, ok := recordInt(record, "productID")
		if !ok {
			continue
		}

		signal, _ := recordInt(record, "signal")

		hits = append(hits, usecase.GraphHit{
			ProductID: productID,
			Signal:    signal,
		})
	}

	return hits, nil
}

func recordInt(record *neo4j.Record, key string) (int64, bool) {
	value, ok := record.Get(key)
	if !ok {
		return 0, false
	}

	n, ok := value.(int64)
	return n, ok
}
