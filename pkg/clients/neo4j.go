package clients

import (
	"context"

	config "github.com/DRSN-tech/marketplace-engine/internal/cfg"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/jimlawless/whereami"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

type Neo4jClient struct {
	Driver neo4j.DriverWithContext
}

func NewNeo4jClient(cfg *config.Neo4jCfg) (*Neo4jClient, error) {
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.User, cfg.Password, ""))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return &Neo4jClient{Driver: driver}, nil
}

func (c *Neo4jClient) Ping(ctx context.Context) error {
	if err := c.Driver.VerifyConnectivity(ctx); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}
