package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
	"github.com/docqa-project/docqa-backend/internal/pkg/redis"
)

// CacheEmbedder 带缓存的 Embedder 装饰器。缓存键为模型名加
// 文本 SHA-256，缓存读写失败只降级为直接调底层 Embedder。
type CacheEmbedder struct {
	embedder Embedder
	cache    *redis.Client
	ttl      time.Duration
	prefix   string
	logger   *logger.Logger
}

// CacheEmbedderConfig 缓存配置
type CacheEmbedderConfig struct {
	TTL    time.Duration // 缓存过期时间
	Prefix string        // 缓存键前缀
}

// NewCacheEmbedder 创建带缓存的 Embedder
func NewCacheEmbedder(embedder Embedder, cache *redis.Client, cfg *CacheEmbedderConfig, lgr *logger.Logger) *CacheEmbedder {
	if cfg == nil {
		cfg = &CacheEmbedderConfig{}
	}

	if cfg.TTL == 0 {
		cfg.TTL = 24 * time.Hour
	}

	if cfg.Prefix == "" {
		cfg.Prefix = "docqa:embedding:"
	}

	log := lgr
	if log == nil {
		log = logger.L()
	}

	return &CacheEmbedder{
		embedder: embedder,
		cache:    cache,
		ttl:      cfg.TTL,
		prefix:   cfg.Prefix,
		logger:   log,
	}
}

// Embed 对单个文本生成向量（带缓存）
func (e *CacheEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	cacheKey := e.cacheKey(text)

	if e.cache != nil {
		if cached, err := e.getFromCache(ctx, cacheKey); err == nil {
			return cached, nil
		}
	}

	embedding, err := e.embedder.Embed(ctx, text)
	if err != nil {
		return nil, err
	}

	if e.cache != nil {
		if err := e.setToCache(ctx, cacheKey, embedding); err != nil {
			e.logger.Warn("failed to cache embedding",
				zap.String("cache_key", cacheKey),
				zap.Error(err))
		}
	}

	return embedding, nil
}

// BatchEmbed 批量生成向量，只为缓存未命中的文本调底层 Embedder
func (e *CacheEmbedder) BatchEmbed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	results := make([][]float32, len(texts))
	missingIndices := make([]int, 0, len(texts))
	missingTexts := make([]string, 0, len(texts))

	if e.cache != nil {
		for i, text := range texts {
			if cached, err := e.getFromCache(ctx, e.cacheKey(text)); err == nil {
				results[i] = cached
				continue
			}
			missingIndices = append(missingIndices, i)
			missingTexts = append(missingTexts, text)
		}

		e.logger.Debug("batch embedding cache stats",
			zap.Int("total", len(texts)),
			zap.Int("cache_hits", len(texts)-len(missingTexts)),
			zap.Int("cache_misses", len(missingTexts)))
	} else {
		for i := range texts {
			missingIndices = append(missingIndices, i)
		}
		missingTexts = texts
	}

	if len(missingTexts) == 0 {
		return results, nil
	}

	embeddings, err := e.embedder.BatchEmbed(ctx, missingTexts)
	if err != nil {
		return nil, err
	}

	for i, embedding := range embeddings {
		results[missingIndices[i]] = embedding

		if e.cache != nil {
			cacheKey := e.cacheKey(missingTexts[i])
			if err := e.setToCache(ctx, cacheKey, embedding); err != nil {
				e.logger.Warn("failed to cache embedding",
					zap.String("cache_key", cacheKey),
					zap.Error(err))
			}
		}
	}

	return results, nil
}

// Dimension 返回向量维度
func (e *CacheEmbedder) Dimension() int {
	return e.embedder.Dimension()
}

// Model 返回模型名称
func (e *CacheEmbedder) Model() string {
	return e.embedder.Model()
}

// cacheKey 生成缓存键：前缀 + 模型名 + 文本 hash
func (e *CacheEmbedder) cacheKey(text string) string {
	hash := sha256.Sum256([]byte(text))
	return fmt.Sprintf("%s%s:%s", e.prefix, e.Model(), hex.EncodeToString(hash[:]))
}

func (e *CacheEmbedder) getFromCache(ctx context.Context, key string) ([]float32, error) {
	data, err := e.cache.Get(ctx, key)
	if err != nil {
		return nil, err
	}

	var embedding []float32
	if err := json.Unmarshal([]byte(data), &embedding); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached embedding: %w", err)
	}

	return embedding, nil
}

func (e *CacheEmbedder) setToCache(ctx context.Context, key string, embedding []float32) error {
	data, err := json.Marshal(embedding)
	if err != nil {
		return fmt.Errorf("failed to marshal embedding: %w", err)
	}

	if err := e.cache.Set(ctx, key, string(data), e.ttl); err != nil {
		return fmt.Errorf("failed to set cache: %w", err)
	}

	return nil
}
