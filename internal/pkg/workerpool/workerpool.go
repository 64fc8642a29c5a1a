package workerpool

import (
	"fmt"

	"github.com/panjf2000/ants/v2"
)

// Pool 固定容量的 goroutine 协程池，基于 ants 实现
type Pool struct {
	pool *ants.Pool
}

// New 创建协程池，size <= 0 时按 1 处理
func New(size int) (*Pool, error) {
	if size <= 0 {
		size = 1
	}

	p, err := ants.NewPool(size, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &Pool{pool: p}, nil
}

// Submit 提交任务，池满时阻塞等待空闲 worker
func (p *Pool) Submit(task func()) error {
	return p.pool.Submit(task)
}

// Running 返回当前正在执行任务的 worker 数
func (p *Pool) Running() int {
	return p.pool.Running()
}

// Release 关闭协程池
func (p *Pool) Release() {
	p.pool.Release()
}
