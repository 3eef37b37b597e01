package app

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/jimlawless/whereami"

	config "github.com/DRSN-tech/marketplace-engine/internal/cfg"
	v1Http "github.com/DRSN-tech/marketplace-engine/internal/delivery/v1/http"
	"github.com/DRSN-tech/marketplace-engine/internal/infrastructure/embedder"
	"github.com/DRSN-tech/marketplace-engine/internal/infrastructure/kafka"
	neo4jRepo "github.com/DRSN-tech/marketplace-engine/internal/repository/neo4j"
	"github.com/DRSN-tech/marketplace-engine/internal/repository/pgdb"
	qdrantRepo "github.com/DRSN-tech/marketplace-engine/internal/repository/qdrant"
	redisRepo "github.com/DRSN-tech/marketplace-engine/internal/repository/redis"
	"github.com/DRSN-tech/marketplace-engine/internal/usecase"
	"github.com/DRSN-tech/marketplace-engine/pkg/clients"
	"github.com/DRSN-tech/marketplace-engine/pkg/closer"
	"github.com/DRSN-tech/marketplace-engine/pkg/e"
	"github.com/DRSN-tech/marketplace-engine/pkg/logger"
	"github.com/DRSN-tech/marketplace-engine/pkg/postgres"
)

// App собирает движок: хранилища, шлюзы кэша, usecase-слой, outbox-воркер
// и HTTP-сервер. Ресурсы регистрируются в closer и закрываются в обратном
// порядке при останове.
type App struct {
	cfg    *config.Config
	logger logger.Logger

	httpSrv *v1Http.Server
	worker  *kafka.OutboxWorker
	closer  *closer.Closer

	workerCancel context.CancelFunc
}

func NewApp(cfg *config.Config, log logger.Logger) (*App, error) {
	cl := closer.NewCloser(2 * time.Second)

	db, err := initPGDB(log, cfg)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		db.Close()
		return nil
	})

	redisClient := clients.NewRedisClient(cfg.Redis)
	redisCtx, redisCancel := context.WithTimeout(context.Background(), 5*time.Second)
	err = redisClient.Ping(redisCtx)
	redisCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return redisClient.Client.Close()
	})

	qdrantClient, err := clients.NewQdrantClient(cfg.Qdrant)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	qdrantCtx, qdrantCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = clients.EnsureCollection(qdrantCtx, qdrantClient)
	qdrantCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return qdrantClient.Client.Close()
	})

	neo4jClient, err := clients.NewNeo4jClient(cfg.Neo4j)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	neo4jCtx, neo4jCancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = neo4jClient.Ping(neo4jCtx)
	neo4jCancel()
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return neo4jClient.Driver.Close(ctx)
	})

	producer, err := kafka.NewProducer(log, cfg.Kafka)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if err := producer.EnsureTopic(10 * time.Second); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	cl.Add(func(ctx context.Context) error {
		return producer.Close()
	})

	// репозитории
	productRepo := pgdb.NewProductRepo(db.Pool)
	orderRepo := pgdb.NewOrderRepo(db.Pool)
	outboxRepo := pgdb.NewOutboxEventRepo(db.Pool)
	txManager := pgdb.NewTxManager(db.Pool)
	cacheRepo := redisRepo.NewCacheRepo(redisClient)
	cartRepo := redisRepo.NewCartRepo(redisClient, cfg.Cache)
	embRepo := qdrantRepo.NewEmbeddingRepo(qdrantClient.Client, cfg.Qdrant)
	graphRepo := neo4jRepo.NewGraphRepo(neo4jClient)

	emb := embedder.NewEmbedder(cfg.Embedder, log)

	// у каждого компонента свой шлюз кэша со своими счётчиками
	searchUC := usecase.NewSearchUC(productRepo, usecase.NewCacheGateway(cacheRepo, log), cfg.Cache, log)
	semanticUC := usecase.NewSemanticUC(emb, embRepo, productRepo, usecase.NewCacheGateway(cacheRepo, log), cfg.Cache, log)
	recUC := usecase.NewRecommendationUC(graphRepo, productRepo, semanticUC, usecase.NewCacheGateway(cacheRepo, log), cfg.Cache, log)
	cartUC := usecase.NewCartUC(cartRepo, productRepo, orderRepo, outboxRepo, txManager, usecase.NewCacheGateway(cacheRepo, log), log)

	worker := kafka.NewOutboxWorker(outboxRepo, log, producer, db.Dsn)

	r := chi.NewRouter()
	router := v1Http.NewRouter(r, log)
	router.Init(searchUC, semanticUC, recUC, cartUC)

	return &App{
		cfg:     cfg,
		logger:  log,
		httpSrv: v1Http.NewServer(r, cfg.Http),
		worker:  worker,
		closer:  cl,
	}, nil
}

func (a *App) Run() error {
	workerCtx, workerCancel := context.WithCancel(context.Background())
	a.workerCancel = workerCancel
	a.worker.Start(workerCtx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Infof("HTTP server started on port %s", a.cfg.Http.Port)
		if err := a.httpSrv.Run(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Errorf(err, "HTTP server failed")
			errCh <- err
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	var appErr error
	select {
	case appErr = <-errCh:
		a.logger.Errorf(appErr, "HTTP server fatal error")
	case <-shutdown:
		a.logger.Infof("Received shutdown signal, stopping gracefully...")
	}

	a.stop()

	return appErr
}

func (a *App) stop() {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpSrv.Stop(shutdownCtx); err != nil {
		a.logger.Errorf(err, "HTTP server shutdown error")
	} else {
		a.logger.Infof("HTTP server stopped")
	}

	// воркер останавливается до закрытия producer и базы
	a.workerCancel()
	a.worker.Stop()

	if err := a.closer.Close(shutdownCtx); err != nil {
		a.logger.Warnf("resource close error: %v", err)
	}

	a.logger.Infof("Application shutdown complete")
}

func initPGDB(logger logger.Logger, cfg *config.Config) (*postgres.PgDatabase, error) {
	db, err := postgres.Connect(cfg.Db)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.RunMigrations(logger); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if err := db.Ping(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return db, nil
}
