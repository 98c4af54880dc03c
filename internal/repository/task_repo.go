package repository

import (
	"context"
	"errors"
	"time"

	"douyin_order_sync/internal/model"

	"gorm.io/gorm"
)

// ==================== TaskRepository 任务监控仓库 ====================

// TaskRepository 任务状态与控制指令的存取
type TaskRepository interface {
	// UpsertStatus 上报任务状态；首次上报创建记录，之后原地更新。
	// lastSyncTime / errorMessage 传 nil 表示保持原值不变
	UpsertStatus(ctx context.Context, taskID, status string, lastSyncTime *time.Time, errorMessage *string) error

	// Get 读取任务记录，不存在时返回 (nil, nil)
	Get(ctx context.Context, taskID string) (*model.TaskMonitor, error)

	// UpdateHeartbeat 刷新心跳时间戳，幂等
	UpdateHeartbeat(ctx context.Context, taskID string) error

	// GetCommand 读取外部下发的控制指令；读取不清除，指令保持粘性
	GetCommand(ctx context.Context, taskID string) (string, error)

	SetCommand(ctx context.Context, taskID, command string) error
	ClearCommand(ctx context.Context, taskID string) error
}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository 创建任务监控仓库
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) UpsertStatus(ctx context.Context, taskID, status string, lastSyncTime *time.Time, errorMessage *string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var task model.TaskMonitor
		err := tx.Where("task_id = ?", taskID).First(&task).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			now := time.Now()
			return tx.Create(&model.TaskMonitor{
				TaskID:        taskID,
				Status:        status,
				LastSyncTime:  lastSyncTime,
				LastHeartbeat: &now,
				ErrorMessage:  errorMessage,
			}).Error
		}
		if err != nil {
			return err
		}

		updates := map[string]any{"status": status}
		if lastSyncTime != nil {
			updates["last_sync_time"] = lastSyncTime
		}
		if errorMessage != nil {
			updates["error_message"] = errorMessage
		}
		return tx.Model(&model.TaskMonitor{}).Where("task_id = ?", taskID).Updates(updates).Error
	})
}

func (r *taskRepository) Get(ctx context.Context, taskID string) (*model.TaskMonitor, error) {
	var task model.TaskMonitor
	err := r.db.WithContext(ctx).Where("task_id = ?", taskID).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) UpdateHeartbeat(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Model(&model.TaskMonitor{}).
		Where("task_id = ?", taskID).
		Update("last_heartbeat", time.Now()).Error
}

func (r *taskRepository) GetCommand(ctx context.Context, taskID string) (string, error) {
	task, err := r.Get(ctx, taskID)
	if err != nil {
		return "", err
	}
	if task == nil || task.TargetCommand == nil {
		return "", nil
	}
	return *task.TargetCommand, nil
}

func (r *taskRepository) SetCommand(ctx context.Context, taskID, command string) error {
	return r.db.WithContext(ctx).Model(&model.TaskMonitor{}).
		Where("task_id = ?", taskID).
		Update("target_command", command).Error
}

func (r *taskRepository) ClearCommand(ctx context.Context, taskID string) error {
	return r.db.WithContext(ctx).Model(&model.TaskMonitor{}).
		Where("task_id = ?", taskID).
		Update("target_command", nil).Error
}
