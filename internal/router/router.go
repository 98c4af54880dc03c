package router

import (
	"net/http"

	"douyin_order_sync/internal/controller"

	"github.com/gin-gonic/gin"
)

// InitRoutes 注册所有路由
func InitRoutes(r *gin.Engine, taskCtl *controller.TaskController) {
	// 健康检查
	r.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API 路由组
	api := r.Group("/api/v1")
	{
		task := api.Group("/task")
		{
			// GET /api/v1/task/status
			task.GET("/status", taskCtl.GetStatus)
			// POST /api/v1/task/stop
			task.POST("/stop", taskCtl.Stop)
			// POST /api/v1/task/start
			task.POST("/start", taskCtl.Start)
		}
	}
}
