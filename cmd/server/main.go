package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/conf"
	"github.com/docqa-project/docqa-backend/internal/knowledge/chunker"
	"github.com/docqa-project/docqa-backend/internal/knowledge/embedding"
	"github.com/docqa-project/docqa-backend/internal/knowledge/ingest"
	"github.com/docqa-project/docqa-backend/internal/knowledge/llm"
	"github.com/docqa-project/docqa-backend/internal/knowledge/maintenance"
	"github.com/docqa-project/docqa-backend/internal/knowledge/rag"
	"github.com/docqa-project/docqa-backend/internal/knowledge/retriever"
	"github.com/docqa-project/docqa-backend/internal/knowledge/service"
	"github.com/docqa-project/docqa-backend/internal/knowledge/storage"
	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
	"github.com/docqa-project/docqa-backend/internal/pkg/redis"
	"github.com/docqa-project/docqa-backend/internal/pkg/workerpool"
	"github.com/docqa-project/docqa-backend/internal/server"
)

const ingestWorkers = 4

var (
	configFile = flag.String("config", "config.yaml", "config file path")
)

func main() {
	flag.Parse()

	config, err := conf.LoadConfig(*configFile)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logConfig := &logger.Config{
		Level:            config.Log.Level,
		Format:           config.Log.Format,
		Output:           config.Log.Output,
		EnableCaller:     config.Log.EnableCaller,
		EnableStacktrace: config.Log.EnableStacktrace,
		File: logger.FileConfig{
			Filename:   config.Log.File.Filename,
			MaxSize:    config.Log.File.MaxSize,
			MaxAge:     config.Log.File.MaxAge,
			MaxBackups: config.Log.File.MaxBackups,
			Compress:   config.Log.File.Compress,
		},
	}

	log, err := logger.New(logConfig)
	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer log.Sync()

	if err := logger.InitGlobal(logConfig); err != nil {
		log.Fatal("failed to initialize global logger", zap.Error(err))
	}

	log.Info("config loaded successfully")

	// 嵌入缓存是可选的，redis 不可用时直接跳过
	var cacheClient *redis.Client
	if config.Redis.Enable {
		cacheClient, err = redis.New(&redis.Config{
			Addr:     fmt.Sprintf("%s:%d", config.Redis.Host, config.Redis.Port),
			Password: config.Redis.Password,
			DB:       config.Redis.DB,
		}, log)
		if err != nil {
			log.Warn("redis unavailable, embedding cache disabled", zap.Error(err))
			cacheClient = nil
		} else {
			defer cacheClient.Close()
		}
	}

	// 存储层
	store, err := storage.NewChromemStore(config.Storage.VectorDBDir, log)
	if err != nil {
		log.Fatal("failed to open vector store", zap.Error(err))
	}

	registry, err := storage.OpenRegistry(config.Storage.VectorDBDir, log)
	if err != nil {
		log.Fatal("failed to open registry", zap.Error(err))
	}
	defer registry.Close()

	// 嵌入与分块
	embedderFactory := embedding.NewFactory(log, cacheClient)
	embedderFor := func(model string) (embedding.Embedder, error) {
		if model == "" {
			model = config.Knowledge.DefaultEmbedding
		}
		return embedderFactory.CreateEmbedder(&embedding.CreateEmbedderConfig{
			Model:       model,
			APIKey:      config.OpenAI.APIKey,
			BaseURL:     config.OpenAI.BaseURL,
			EnableCache: cacheClient != nil,
		})
	}

	textChunker, err := chunker.NewFactory().CreateChunker(&chunker.CreateChunkerConfig{
		Size:    config.Knowledge.ChunkSize,
		Overlap: config.Knowledge.ChunkOverlap,
	})
	if err != nil {
		log.Fatal("failed to create chunker", zap.Error(err))
	}

	// 入库链路
	ingestor, err := ingest.New(&ingest.Config{
		Chunker:     textChunker,
		EmbedderFor: embedderFor,
		Store:       store,
		Registry:    registry,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("failed to create ingestor", zap.Error(err))
	}

	pool, err := workerpool.New(ingestWorkers)
	if err != nil {
		log.Fatal("failed to create worker pool", zap.Error(err))
	}
	defer pool.Release()

	batch, err := ingest.NewBatchRunner(ingestor.Ingest, pool, config.Knowledge.FileTimeout, log)
	if err != nil {
		log.Fatal("failed to create batch runner", zap.Error(err))
	}

	// 问答链路
	llmClient, err := llm.NewClient(&llm.Config{
		APIKey:  config.OpenAI.APIKey,
		BaseURL: config.OpenAI.BaseURL,
		Model:   config.Knowledge.DefaultChatModel,
	}, log)
	if err != nil {
		log.Fatal("failed to create llm client", zap.Error(err))
	}

	// 嵌入模型与回答模型按请求选择，检索链按请求组装
	answerFor := func(ctx context.Context, req *types.AnswerRequest) (*types.AnswerResult, error) {
		emb, err := embedderFor(req.EmbeddingModel)
		if err != nil {
			return nil, err
		}

		ret, err := retriever.New(&retriever.Config{
			Embedder: emb,
			Store:    store,
			Rerank: retriever.RerankConfig{
				APIKey:  config.Rerank.APIKey,
				BaseURL: config.Rerank.BaseURL,
				Model:   config.Rerank.Model,
			},
			Complete: func(ctx context.Context, prompt string) (string, error) {
				return llmClient.CompleteWithModel(ctx, req.Model, prompt)
			},
			Logger: log,
		})
		if err != nil {
			return nil, err
		}

		// Fit 传进来的已经是完整的摘要 prompt，这里只负责发请求
		budgeter := rag.NewBudgeter(config.Knowledge.MaxContextTokens,
			func(ctx context.Context, prompt string) (string, error) {
				return llmClient.CompleteWithModel(ctx, req.Model, prompt)
			}, log)

		answerer, err := rag.NewAnswerer(&rag.AnswererConfig{
			Retriever: ret,
			Budgeter:  budgeter,
			Complete:  llmClient.CompleteWithModel,
			Logger:    log,
		})
		if err != nil {
			return nil, err
		}

		return answerer.Answer(ctx, req)
	}

	// 运维
	mgr, err := maintenance.New(&maintenance.Config{
		Store:      store,
		Registry:   registry,
		VectorDir:  config.Storage.VectorDBDir,
		UploadsDir: config.Storage.UploadDir,
		Logger:     log,
	})
	if err != nil {
		log.Fatal("failed to create maintenance manager", zap.Error(err))
	}

	docQAService, err := service.NewDocQAService(&service.Config{
		Batch:       batch,
		IngestOne:   ingestor.Ingest,
		Answer:      answerFor,
		Maintenance: mgr,
		UploadDir:   config.Storage.UploadDir,
		Logger:      log,
	})
	if err != nil {
		log.Fatal("failed to create service", zap.Error(err))
	}

	httpServer := server.NewHTTPServer(config, log, docQAService)

	go func() {
		if err := httpServer.Start(); err != nil {
			log.Fatal("failed to start HTTP server", zap.Error(err))
		}
	}()

	log.Info("server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := httpServer.Stop(ctx); err != nil {
		log.Error("HTTP server forced to shutdown", zap.Error(err))
	}

	log.Info("server exited")
}
