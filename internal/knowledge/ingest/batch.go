package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docqa-project/docqa-backend/internal/knowledge/types"
	"github.com/docqa-project/docqa-backend/internal/pkg/logger"
	"github.com/docqa-project/docqa-backend/internal/pkg/workerpool"
)

// DefaultFileTimeout 单个文件的处理时限
const DefaultFileTimeout = 2 * time.Minute

// IngestFunc 单文件入库调用
type IngestFunc func(ctx context.Context, input, embeddingModel string) (int, error)

// BatchRunner 批量入库执行器。文件按顺序处理，每个文件交给
// 工作池并由看门狗限时；超时的文件记入结果后继续处理下一个，
// 超时任务的迟到结果被丢弃（取消的 context 会让它在 I/O 边界
// 尽快退出）。
type BatchRunner struct {
	ingest  IngestFunc
	pool    *workerpool.Pool
	timeout time.Duration
	logger  *logger.Logger
}

// NewBatchRunner 创建批量执行器
func NewBatchRunner(ingest IngestFunc, pool *workerpool.Pool, timeout time.Duration, lgr *logger.Logger) (*BatchRunner, error) {
	if ingest == nil || pool == nil {
		return nil, fmt.Errorf("ingest func and pool are required")
	}

	if timeout <= 0 {
		timeout = DefaultFileTimeout
	}

	if lgr == nil {
		lgr = logger.L()
	}

	return &BatchRunner{
		ingest:  ingest,
		pool:    pool,
		timeout: timeout,
		logger:  lgr,
	}, nil
}

type fileOutcome struct {
	chunks int
	err    error
}

// Run 依次处理 inputs，返回每个文件的入库结果
func (b *BatchRunner) Run(ctx context.Context, inputs []string, embeddingModel string) []types.IngestResult {
	results := make([]types.IngestResult, 0, len(inputs))

	for _, input := range inputs {
		results = append(results, b.runOne(ctx, input, embeddingModel))
	}

	return results
}

func (b *BatchRunner) runOne(ctx context.Context, input, embeddingModel string) types.IngestResult {
	fileCtx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	outcome := make(chan fileOutcome, 1)

	err := b.pool.Submit(func() {
		chunks, err := b.ingest(fileCtx, input, embeddingModel)
		outcome <- fileOutcome{chunks: chunks, err: err}
	})
	if err != nil {
		return types.IngestResult{
			Source:  input,
			Status:  "error",
			Message: fmt.Sprintf("failed to schedule processing: %v", err),
		}
	}

	select {
	case result := <-outcome:
		if result.err != nil {
			b.logger.Error("file processing failed",
				zap.String("input", input),
				zap.Error(result.err))
			return types.IngestResult{
				Source:  input,
				Status:  "error",
				Message: result.err.Error(),
			}
		}
		return types.IngestResult{
			Source:     input,
			Status:     "success",
			ChunkCount: result.chunks,
		}

	case <-fileCtx.Done():
		b.logger.Error("file processing timed out",
			zap.String("input", input),
			zap.Duration("timeout", b.timeout))
		return types.IngestResult{
			Source:  input,
			Status:  "timeout",
			Message: fmt.Sprintf("Processing timeout after %s", b.timeout),
		}
	}
}
