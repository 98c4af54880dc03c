package model

import "time"

// ==================== 任务状态常量 ====================

// TaskStatus 同步任务运行状态
const (
	TaskStatusRunning = "RUNNING" // 运行中
	TaskStatusStopped = "STOPPED" // 已停止（响应停止指令后的驻留状态）
	TaskStatusError   = "ERROR"   // 最近一轮同步失败
)

// TaskCommandStop 停止指令，写入后持续生效直到被显式清除
const TaskCommandStop = "STOP"

// ==================== TaskMonitor 任务监控表 ====================

// TaskMonitor 同步任务的状态与控制通道
//
// 每个任务实例一行，按 task_id 区分；状态、心跳由任务自己上报，
// target_command 由外部写入，任务轮询读取
type TaskMonitor struct {
	TaskID string `gorm:"primaryKey;size:64" json:"task_id"`
	Status string `gorm:"size:32" json:"status"`

	LastSyncTime  *time.Time `json:"last_sync_time"`
	LastHeartbeat *time.Time `json:"last_heartbeat"`

	// 外部下发的目标指令，空表示无指令
	TargetCommand *string `gorm:"size:32" json:"target_command"`

	// 最近一次失败的错误信息
	ErrorMessage *string `gorm:"type:text" json:"error_message"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (*TaskMonitor) TableName() string {
	return "task_monitor"
}
