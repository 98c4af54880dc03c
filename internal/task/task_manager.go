package task

import (
	"context"
	"time"

	"douyin_order_sync/internal/model"
	"douyin_order_sync/internal/repository"

	"go.uber.org/zap"
)

// ==================== TaskManager 任务控制 ====================

// TaskManager 面向单个任务实例的状态上报与指令轮询
//
// 对仓库接口做一层绑定 taskID 的封装，同步循环与心跳任务共用
type TaskManager struct {
	taskID string
	repo   repository.TaskRepository
	logger *zap.Logger
}

// NewTaskManager 创建任务控制器
func NewTaskManager(taskID string, repo repository.TaskRepository, logger *zap.Logger) *TaskManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskManager{taskID: taskID, repo: repo, logger: logger}
}

// TaskID 返回绑定的任务标识
func (m *TaskManager) TaskID() string { return m.taskID }

// ReportHeartbeat 上报心跳，失败只记日志不中断调用方
func (m *TaskManager) ReportHeartbeat(ctx context.Context) error {
	if err := m.repo.UpdateHeartbeat(ctx, m.taskID); err != nil {
		m.logger.Error("心跳上报失败", zap.String("task_id", m.taskID), zap.Error(err))
		return err
	}
	return nil
}

// SetStatus 上报任务状态；lastSyncTime / errMsg 为 nil 时保持原值
func (m *TaskManager) SetStatus(ctx context.Context, status string, lastSyncTime *time.Time, errMsg *string) error {
	return m.repo.UpsertStatus(ctx, m.taskID, status, lastSyncTime, errMsg)
}

// PollCommand 读取外部控制指令，读取不清除
func (m *TaskManager) PollCommand(ctx context.Context) (string, error) {
	return m.repo.GetCommand(ctx, m.taskID)
}

// ShouldStop 判断是否收到停止指令；查询失败时按未停止处理并记日志
func (m *TaskManager) ShouldStop(ctx context.Context) bool {
	cmd, err := m.repo.GetCommand(ctx, m.taskID)
	if err != nil {
		m.logger.Error("读取控制指令失败", zap.String("task_id", m.taskID), zap.Error(err))
		return false
	}
	return cmd == model.TaskCommandStop
}
