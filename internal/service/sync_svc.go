package service

import (
	"context"
	"time"

	"douyin_order_sync/internal/config"
	"douyin_order_sync/internal/model"
	"douyin_order_sync/pkg/douyin"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ==================== 依赖接口 ====================

// BatchStream 按天产出的订单批次流
type BatchStream interface {
	Next(ctx context.Context) ([]douyin.RawOrder, bool)
	Err() error
}

// OrderSource 订单数据源
type OrderSource interface {
	StreamWindow(win douyin.Window, pageSize int, f douyin.Filters) BatchStream
}

// OrderStore 订单落库
type OrderStore interface {
	Upsert(ctx context.Context, batch []any) (int64, error)
}

// TaskControl 任务状态上报与停止指令轮询
type TaskControl interface {
	ReportHeartbeat(ctx context.Context) error
	SetStatus(ctx context.Context, status string, lastSyncTime *time.Time, errMsg *string) error
	ShouldStop(ctx context.Context) bool
}

// DouyinSource 将抖音客户端适配为 OrderSource
type DouyinSource struct {
	Client *douyin.Client
}

func (s DouyinSource) StreamWindow(win douyin.Window, pageSize int, f douyin.Filters) BatchStream {
	return s.Client.StreamWindow(win, pageSize, f)
}

// ==================== SyncService 订单同步服务 ====================

// SyncService 串起拉取、落库与任务控制的同步主体
//
// 单线程顺序执行：同一时刻最多一个未完成的批次写入，
// 内存占用以"一天的订单"为上界
type SyncService struct {
	cfg     config.SyncConfig
	source  OrderSource
	store   OrderStore
	control TaskControl
	logger  *zap.Logger

	// 循环节奏，测试时可缩短
	tick         time.Duration // 可取消睡眠的检查粒度
	stopRecheck  time.Duration // 停止状态下的重新轮询间隔
	errorBackoff time.Duration // 单轮失败后的退避时间
}

// NewSyncService 创建订单同步服务
func NewSyncService(cfg config.SyncConfig, source OrderSource, store OrderStore, control TaskControl, logger *zap.Logger) *SyncService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SyncService{
		cfg:          cfg,
		source:       source,
		store:        store,
		control:      control,
		logger:       logger,
		tick:         time.Second,
		stopRecheck:  10 * time.Second,
		errorBackoff: 60 * time.Second,
	}
}

// resolveWindow 计算本轮同步窗口：显式起止配置优先，否则回看最近 N 天
func (s *SyncService) resolveWindow(now time.Time) douyin.Window {
	if s.cfg.ExplicitStart != nil && s.cfg.ExplicitEnd != nil {
		return douyin.Window{Start: *s.cfg.ExplicitStart, End: *s.cfg.ExplicitEnd}
	}
	return douyin.Window{
		Start: now.Add(-time.Duration(s.cfg.DaysBack) * 24 * time.Hour),
		End:   now,
	}
}

// RunCycle 执行一轮完整同步
//
// 任何错误都会把任务状态置为 ERROR 并原样返回；已落库的天不回滚，
// 依靠下一轮窗口重叠补齐缺口
func (s *SyncService) RunCycle(ctx context.Context) error {
	cycleID := uuid.NewString()[:8]
	start := time.Now()

	if err := s.control.SetStatus(ctx, model.TaskStatusRunning, nil, nil); err != nil {
		return s.failCycle(ctx, cycleID, err)
	}

	win := s.resolveWindow(start)
	s.logger.Info("开始同步订单",
		zap.String("cycle_id", cycleID),
		zap.Time("window_start", win.Start),
		zap.Time("window_end", win.End))

	filters := douyin.Filters{
		OrderStatus:     s.cfg.OrderStatus,
		GetSecretNumber: s.cfg.GetSecretNumber,
		UseCreateTime:   s.cfg.UseCreateTime,
	}

	stream := s.source.StreamWindow(win, s.cfg.PageSize, filters)
	var fetched, stored int64
	for {
		batch, ok := stream.Next(ctx)
		if !ok {
			break
		}

		items := make([]any, len(batch))
		for i, order := range batch {
			items[i] = map[string]any(order)
		}

		affected, err := s.store.Upsert(ctx, items)
		if err != nil {
			return s.failCycle(ctx, cycleID, err)
		}
		fetched += int64(len(batch))
		stored += affected
	}
	if err := stream.Err(); err != nil {
		return s.failCycle(ctx, cycleID, err)
	}

	syncTime := time.Now()
	if err := s.control.SetStatus(ctx, model.TaskStatusRunning, &syncTime, nil); err != nil {
		return s.failCycle(ctx, cycleID, err)
	}

	s.logger.Info("本轮同步完成",
		zap.String("cycle_id", cycleID),
		zap.Int64("fetched", fetched),
		zap.Int64("stored", stored),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}

// failCycle 标记本轮失败并透传错误
func (s *SyncService) failCycle(ctx context.Context, cycleID string, err error) error {
	s.logger.Error("本轮同步失败", zap.String("cycle_id", cycleID), zap.Error(err))

	msg := err.Error()
	if setErr := s.control.SetStatus(ctx, model.TaskStatusError, nil, &msg); setErr != nil {
		s.logger.Error("写入失败状态失败", zap.Error(setErr))
	}
	return err
}

// MainLoop 长驻同步循环，直到 ctx 取消才退出
//
// 每个 tick 先轮询停止指令：收到 STOP 进入驻留状态，不执行同步，
// 周期性重查直到指令被外部清除。单轮失败不会终止循环，退避后重试
func (s *SyncService) MainLoop(ctx context.Context) {
	s.logger.Info("同步主循环启动",
		zap.Duration("interval", s.cfg.Interval),
		zap.Int("page_size", s.cfg.PageSize))

	for ctx.Err() == nil {
		if s.control.ShouldStop(ctx) {
			s.logger.Info("收到停止指令，任务挂起")
			if err := s.control.SetStatus(ctx, model.TaskStatusStopped, nil, nil); err != nil {
				s.logger.Error("写入停止状态失败", zap.Error(err))
			}
			if !s.sleep(ctx, s.stopRecheck) {
				break
			}
			continue
		}

		_ = s.control.ReportHeartbeat(ctx)

		wait := s.cfg.Interval
		if err := s.RunCycle(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			wait = s.errorBackoff
		}

		if !s.sleep(ctx, wait) {
			break
		}
	}

	// 退出前尽力把状态置为已停止，用独立的短超时避免卡住关停
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.control.SetStatus(shutdownCtx, model.TaskStatusStopped, nil, nil); err != nil {
		s.logger.Error("退出时写入停止状态失败", zap.Error(err))
	}
	s.logger.Info("同步主循环退出")
}

// sleep 以 tick 为粒度的可取消睡眠，被取消时返回 false
func (s *SyncService) sleep(ctx context.Context, d time.Duration) bool {
	deadline := time.Now().Add(d)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(s.tick):
		}
	}
	return true
}
