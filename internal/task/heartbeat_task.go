package task

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// ==================== HeartbeatTask 心跳保活任务 ====================

// HeartbeatTask 独立于同步循环的心跳上报
//
// 同步循环每个 tick 也会上报心跳，但单轮同步可能持续数分钟，
// 期间由这里的定时任务维持心跳，避免外部监控误判任务假死
type HeartbeatTask struct {
	manager *TaskManager
	cron    *cron.Cron
	spec    string
	logger  *zap.Logger
}

// NewHeartbeatTask 创建心跳任务，spec 为 cron 表达式（如 "@every 30s"）
func NewHeartbeatTask(manager *TaskManager, spec string, logger *zap.Logger) *HeartbeatTask {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HeartbeatTask{
		manager: manager,
		cron:    cron.New(cron.WithSeconds()),
		spec:    spec,
		logger:  logger,
	}
}

// Start 启动定时心跳
func (t *HeartbeatTask) Start() error {
	_, err := t.cron.AddFunc(t.spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = t.manager.ReportHeartbeat(ctx)
	})
	if err != nil {
		return err
	}

	t.cron.Start()
	t.logger.Info("心跳任务已启动",
		zap.String("task_id", t.manager.TaskID()),
		zap.String("spec", t.spec))
	return nil
}

// Stop 停止定时心跳，等待进行中的上报完成
func (t *HeartbeatTask) Stop() {
	<-t.cron.Stop().Done()
	t.logger.Info("心跳任务已停止")
}
