package repository

import (
	"context"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"douyin_order_sync/internal/model"
)

func setupTaskTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	err = db.AutoMigrate(&model.TaskMonitor{})
	if err != nil {
		t.Fatalf("数据库迁移失败: %v", err)
	}

	return db
}

func TestTaskRepo_GetAbsent(t *testing.T) {
	repo := NewTaskRepository(setupTaskTestDB(t))

	task, err := repo.Get(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if task != nil {
		t.Errorf("不存在的任务应返回 nil, got %+v", task)
	}
}

func TestTaskRepo_StatusLifecycle(t *testing.T) {
	repo := NewTaskRepository(setupTaskTestDB(t))
	ctx := context.Background()
	const taskID = "douyin_order_sync"

	// 首次上报创建记录并带上初始心跳
	if err := repo.UpsertStatus(ctx, taskID, model.TaskStatusRunning, nil, nil); err != nil {
		t.Fatalf("UpsertStatus() error = %v", err)
	}
	task, err := repo.Get(ctx, taskID)
	if err != nil || task == nil {
		t.Fatalf("Get() = %v, %v", task, err)
	}
	if task.Status != model.TaskStatusRunning {
		t.Errorf("Status = %q, want RUNNING", task.Status)
	}
	if task.LastHeartbeat == nil {
		t.Error("首次上报应写入初始心跳")
	}

	// 失败上报：状态与错误信息更新
	errMsg := "拉取订单失败"
	if err := repo.UpsertStatus(ctx, taskID, model.TaskStatusError, nil, &errMsg); err != nil {
		t.Fatalf("UpsertStatus() error = %v", err)
	}
	task, _ = repo.Get(ctx, taskID)
	if task.Status != model.TaskStatusError {
		t.Errorf("Status = %q, want ERROR", task.Status)
	}
	if task.ErrorMessage == nil || *task.ErrorMessage != errMsg {
		t.Errorf("ErrorMessage = %v, want %q", task.ErrorMessage, errMsg)
	}

	// 恢复上报：未提供的可选字段保持原值
	syncTime := time.Now()
	if err := repo.UpsertStatus(ctx, taskID, model.TaskStatusRunning, &syncTime, nil); err != nil {
		t.Fatalf("UpsertStatus() error = %v", err)
	}
	task, _ = repo.Get(ctx, taskID)
	if task.Status != model.TaskStatusRunning {
		t.Errorf("Status = %q, want RUNNING", task.Status)
	}
	if task.LastSyncTime == nil {
		t.Error("LastSyncTime 应被更新")
	}
	if task.ErrorMessage == nil || *task.ErrorMessage != errMsg {
		t.Error("未提供 errorMessage 时应保持原值")
	}
}

func TestTaskRepo_UpdateHeartbeat(t *testing.T) {
	repo := NewTaskRepository(setupTaskTestDB(t))
	ctx := context.Background()
	const taskID = "hb_task"

	if err := repo.UpsertStatus(ctx, taskID, model.TaskStatusRunning, nil, nil); err != nil {
		t.Fatalf("UpsertStatus() error = %v", err)
	}
	before, _ := repo.Get(ctx, taskID)

	time.Sleep(10 * time.Millisecond)
	if err := repo.UpdateHeartbeat(ctx, taskID); err != nil {
		t.Fatalf("UpdateHeartbeat() error = %v", err)
	}

	after, _ := repo.Get(ctx, taskID)
	if !after.LastHeartbeat.After(*before.LastHeartbeat) {
		t.Errorf("心跳时间应前移: %v -> %v", before.LastHeartbeat, after.LastHeartbeat)
	}
}

func TestTaskRepo_StickyCommand(t *testing.T) {
	repo := NewTaskRepository(setupTaskTestDB(t))
	ctx := context.Background()
	const taskID = "cmd_task"

	if err := repo.UpsertStatus(ctx, taskID, model.TaskStatusRunning, nil, nil); err != nil {
		t.Fatalf("UpsertStatus() error = %v", err)
	}

	cmd, err := repo.GetCommand(ctx, taskID)
	if err != nil {
		t.Fatalf("GetCommand() error = %v", err)
	}
	if cmd != "" {
		t.Errorf("初始指令应为空, got %q", cmd)
	}

	if err := repo.SetCommand(ctx, taskID, model.TaskCommandStop); err != nil {
		t.Fatalf("SetCommand() error = %v", err)
	}

	// 指令是粘性的：读取不清除
	for i := 0; i < 3; i++ {
		cmd, err = repo.GetCommand(ctx, taskID)
		if err != nil {
			t.Fatalf("GetCommand() error = %v", err)
		}
		if cmd != model.TaskCommandStop {
			t.Fatalf("第 %d 次读取指令 = %q, want STOP", i+1, cmd)
		}
	}

	if err := repo.ClearCommand(ctx, taskID); err != nil {
		t.Fatalf("ClearCommand() error = %v", err)
	}
	cmd, _ = repo.GetCommand(ctx, taskID)
	if cmd != "" {
		t.Errorf("清除后指令应为空, got %q", cmd)
	}
}

func TestTaskRepo_GetCommandAbsentTask(t *testing.T) {
	repo := NewTaskRepository(setupTaskTestDB(t))

	cmd, err := repo.GetCommand(context.Background(), "ghost")
	if err != nil {
		t.Fatalf("GetCommand() error = %v", err)
	}
	if cmd != "" {
		t.Errorf("不存在的任务指令应为空, got %q", cmd)
	}
}
