package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fachebot/text-digest/internal/config"
	"github.com/fachebot/text-digest/internal/logger"
	"github.com/robfig/cron/v3"
)

// recordCleaner 删除过期记录（便于测试注入 mock）
type recordCleaner interface {
	DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Janitor 按 cron 计划清理超过保留天数的运行记录
type Janitor struct {
	cron    *cron.Cron
	store   recordCleaner
	config  config.History
	ctx     context.Context
	cancel  context.CancelFunc
	mu      sync.Mutex
	started bool
}

func NewJanitor(store *Store, cfg config.History) *Janitor {
	j := &Janitor{
		cron:   cron.New(cron.WithLocation(time.UTC)),
		config: cfg,
	}
	if store != nil {
		j.store = store
	}
	return j
}

// Start 注册清理任务并立即执行一次，未启用历史记录时不做任何事
func (j *Janitor) Start() error {
	if !j.config.Enable || j.store == nil {
		logger.Infof("[Janitor] 未启用运行记录，跳过清理任务")
		return nil
	}

	j.mu.Lock()
	j.ctx, j.cancel = context.WithCancel(context.Background())
	j.mu.Unlock()

	if _, err := j.cron.AddFunc(j.config.Cron, j.cleanup); err != nil {
		return fmt.Errorf("注册清理任务失败: %w", err)
	}

	j.cron.Start()
	j.mu.Lock()
	j.started = true
	j.mu.Unlock()
	logger.Infof("[Janitor] 清理任务已启动: %s，保留 %d 天", j.config.Cron, j.config.RetentionDays)

	go j.cleanup()
	return nil
}

// Stop 停止调度并等待正在执行的任务结束
func (j *Janitor) Stop() {
	j.mu.Lock()
	if j.cancel != nil {
		j.cancel()
	}
	started := j.started
	j.mu.Unlock()

	if !started {
		return
	}
	ctx := j.cron.Stop()
	<-ctx.Done()
	logger.Infof("[Janitor] 清理任务已停止")
}

func (j *Janitor) cleanup() {
	j.mu.Lock()
	ctx := j.ctx
	j.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}

	select {
	case <-ctx.Done():
		return
	default:
	}

	cutoff := time.Now().UTC().AddDate(0, 0, -j.config.RetentionDays)
	deleted, err := j.store.DeleteBefore(ctx, cutoff)
	if err != nil {
		logger.Errorf("[Janitor] 清理运行记录失败: %v", err)
		return
	}
	logger.Infof("[Janitor] 已清理 %s 之前的 %d 条运行记录", cutoff.Format("2006-01-02"), deleted)
}
