package controller

import (
	"net/http"

	"douyin_order_sync/internal/model"
	"douyin_order_sync/internal/repository"

	"github.com/gin-gonic/gin"
)

// ==================== TaskController 任务管理接口 ====================

// TaskController 同步任务的状态查询与启停控制
type TaskController struct {
	taskRepo repository.TaskRepository
	taskID   string
}

// NewTaskController 创建任务控制器
func NewTaskController(taskRepo repository.TaskRepository, taskID string) *TaskController {
	return &TaskController{taskRepo: taskRepo, taskID: taskID}
}

// GetStatus 查询任务状态
// GET /api/v1/task/status
func (c *TaskController) GetStatus(ctx *gin.Context) {
	task, err := c.taskRepo.Get(ctx.Request.Context(), c.taskID)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if task == nil {
		ctx.JSON(http.StatusNotFound, gin.H{"error": "任务尚未上报状态"})
		return
	}

	ctx.JSON(http.StatusOK, task)
}

// Stop 下发停止指令
//
// 指令是粘性的：同步循环在下一个 tick 挂起，并保持挂起直到调用 Start 清除。
// 进程重启后指令依然生效
// POST /api/v1/task/stop
func (c *TaskController) Stop(ctx *gin.Context) {
	if err := c.taskRepo.SetCommand(ctx.Request.Context(), c.taskID, model.TaskCommandStop); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "停止指令已下发", "task_id": c.taskID})
}

// Start 清除停止指令，任务在下一次轮询时恢复同步
// POST /api/v1/task/start
func (c *TaskController) Start(ctx *gin.Context) {
	if err := c.taskRepo.ClearCommand(ctx.Request.Context(), c.taskID); err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	ctx.JSON(http.StatusOK, gin.H{"message": "停止指令已清除", "task_id": c.taskID})
}
