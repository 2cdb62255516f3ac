package task

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"woosync_v1_202608/internal/service"
)

// ==================== SyncTask 定时同步任务 ====================

// SyncTask serve 模式下按 cron 表达式周期性执行商品同步
type SyncTask struct {
	syncService *service.SyncService
	cron        *cron.Cron
	spec        string
	pages       int
}

// NewSyncTask 创建定时同步任务
func NewSyncTask(syncService *service.SyncService, spec string, pages int) *SyncTask {
	if pages <= 0 {
		pages = 1
	}
	return &SyncTask{
		syncService: syncService,
		cron:        cron.New(),
		spec:        spec,
		pages:       pages,
	}
}

// Start 注册并启动调度
func (t *SyncTask) Start() error {
	if _, err := t.cron.AddFunc(t.spec, t.run); err != nil {
		return err
	}
	t.cron.Start()
	log.Printf("定时同步已启动: %s (pages=%d)", t.spec, t.pages)
	return nil
}

// Stop 停止调度，等待在跑的任务结束
func (t *SyncTask) Stop() {
	ctx := t.cron.Stop()
	<-ctx.Done()
}

func (t *SyncTask) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	total, err := t.syncService.Sync(ctx, t.pages)
	if err != nil {
		log.Printf("定时同步失败（已处理 %d 条）: %v", total, err)
		return
	}
	log.Printf("定时同步完成，共处理 %d 条", total)
}
