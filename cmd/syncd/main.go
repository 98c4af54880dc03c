package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"douyin_order_sync/internal/config"
	"douyin_order_sync/internal/controller"
	"douyin_order_sync/internal/logger"
	"douyin_order_sync/internal/model"
	"douyin_order_sync/internal/repository"
	"douyin_order_sync/internal/router"
	"douyin_order_sync/internal/service"
	"douyin_order_sync/internal/task"
	"douyin_order_sync/pkg/database"
	"douyin_order_sync/pkg/douyin"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "配置文件路径")
	envOnly := flag.Bool("env-only", false, "跳过配置文件，仅使用环境变量")
	flag.Parse()

	// 配置错误在启动阶段直接退出
	cfg, err := config.Load(*configPath, *envOnly)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	zlog, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer func() { _ = zlog.Sync() }()

	db, err := database.Open(cfg.DB, &model.Order{}, &model.TaskMonitor{})
	if err != nil {
		zlog.Fatal("初始化数据库失败", zap.Error(err))
	}

	// -------- 依赖装配 --------
	orderRepo := repository.NewOrderRepository(db, cfg.Douyin.AppSecret, zlog)
	taskRepo := repository.NewTaskRepository(db)
	taskMgr := task.NewTaskManager(cfg.Sync.TaskID, taskRepo, zlog)

	client := douyin.NewClient(douyin.ClientConfig{
		AppID:     cfg.Douyin.AppID,
		AppSecret: cfg.Douyin.AppSecret,
		AccountID: cfg.Douyin.AccountID,
		BaseURL:   cfg.Douyin.BaseURL,
		Timeout:   cfg.Douyin.Timeout,
	}, zlog)

	syncSvc := service.NewSyncService(
		cfg.Sync,
		service.DouyinSource{Client: client},
		orderRepo,
		taskMgr,
		zlog,
	)

	// -------- 心跳定时任务 --------
	var heartbeat *task.HeartbeatTask
	if cfg.Cron.Enabled {
		heartbeat = task.NewHeartbeatTask(taskMgr, cfg.Cron.Heartbeat, zlog)
		if err := heartbeat.Start(); err != nil {
			zlog.Fatal("启动心跳任务失败", zap.Error(err))
		}
	}

	// -------- 管理接口 --------
	if cfg.App.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	router.InitRoutes(r, controller.NewTaskController(taskRepo, cfg.Sync.TaskID))

	server := &http.Server{Addr: cfg.Server.HTTPAddr, Handler: r}
	go func() {
		zlog.Info("管理接口已启动", zap.String("addr", cfg.Server.HTTPAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("管理接口启动失败", zap.Error(err))
		}
	}()

	// -------- 同步主循环 --------
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	syncSvc.MainLoop(ctx)

	// 主循环退出后优雅关停其余组件
	zlog.Info("收到退出信号，正在关停")
	if heartbeat != nil {
		heartbeat.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		zlog.Error("管理接口关停失败", zap.Error(err))
	}

	zlog.Info("进程退出")
}
