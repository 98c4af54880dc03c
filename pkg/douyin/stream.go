package douyin

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// ==================== 按天流式拉取 ====================

// DayStream 按天切分的订单批次流
//
// 有限、单趟、不可重置：每次 Next 拉完"一整天"的数据立即交出，
// 内存中任一时刻只保留一天的订单，窗口再长也不会膨胀
type DayStream struct {
	client   *Client
	window   Window
	pageSize int
	filters  Filters

	current time.Time
	done    bool
	err     error
}

// StreamWindow 创建时间窗口的按天批次流
func (c *Client) StreamWindow(win Window, pageSize int, f Filters) *DayStream {
	return &DayStream{
		client:   c,
		window:   win,
		pageSize: pageSize,
		filters:  f,
		current:  win.Start,
	}
}

// Next 返回下一个非空的单日订单批次
//
// 空的日期直接跳过，永远不会交出空批次；流耗尽、鉴权失败或 ctx 取消时
// 返回 (nil, false)，之后通过 Err 区分是正常结束还是中途失败。
// 取消检查发生在每一天开始前和每一页拉取前，进行中的请求不会被硬中断。
func (s *DayStream) Next(ctx context.Context) ([]RawOrder, bool) {
	if s.done {
		return nil, false
	}

	for !s.current.After(s.window.End) {
		if ctx.Err() != nil {
			s.client.logger.Info("检测到取消信号，终止订单拉取")
			s.done = true
			return nil, false
		}

		nextDay := s.current.Add(24 * time.Hour)
		dayEnd := nextDay
		if dayEnd.After(s.window.End) {
			dayEnd = s.window.End
		}

		batch, err := s.fetchDay(ctx, Window{Start: s.current, End: dayEnd})
		if err != nil {
			// 鉴权失败影响所有后续请求，整个流终止并上抛
			s.done = true
			s.err = err
			return nil, false
		}

		// 无论当天分页如何结束，都推进到下一天
		s.current = nextDay

		if len(batch) > 0 {
			return batch, true
		}
	}

	s.done = true
	return nil, false
}

// Err 返回终止流的错误；正常耗尽或被取消时为 nil
func (s *DayStream) Err() error { return s.err }

// fetchDay 翻页拉取一天内的全部订单
//
// 终止条件：has_more=false、游标原地踏步（防死循环）、达到页数上限、
// 或单页拉取出错。页级错误只截断当天，整个窗口继续；鉴权错误上抛。
func (s *DayStream) fetchDay(ctx context.Context, day Window) ([]RawOrder, error) {
	var dayOrders []RawOrder

	cursor := FirstPageCursor
	for pageCount := 0; pageCount < maxPagesPerDay; pageCount++ {
		if ctx.Err() != nil {
			s.client.logger.Info("检测到取消信号，终止分页拉取")
			break
		}

		page, err := s.client.FetchPage(ctx, day, cursor, s.pageSize, s.filters)
		if err != nil {
			var authErr *AuthError
			if errors.As(err, &authErr) {
				return nil, err
			}
			s.client.logger.Error("拉取分页失败，截断当天数据",
				zap.Time("day", day.Start),
				zap.String("cursor", cursor),
				zap.Error(err))
			break
		}

		dayOrders = append(dayOrders, page.Orders...)

		if !page.HasMore || page.NextCursor == cursor {
			break
		}
		cursor = page.NextCursor
	}

	s.client.logger.Info("单日拉取完成",
		zap.Time("day", day.Start),
		zap.Int("count", len(dayOrders)))

	return dayOrders, nil
}
