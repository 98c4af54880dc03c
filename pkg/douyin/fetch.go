package douyin

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// ==================== 单页拉取 ====================

// Page 一页订单查询结果
type Page struct {
	Orders     []RawOrder
	HasMore    bool
	NextCursor string
	TotalCount int64
}

type orderQueryResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    *struct {
		Orders      []RawOrder `json:"orders"`
		TotalCount  int64      `json:"total_count"`
		SearchAfter struct {
			// 游标值可能是数字也可能是字符串，保留原文再拼接
			CursorValue []json.RawMessage `json:"CursorValue"`
		} `json:"search_after"`
	} `json:"data"`
}

// FetchPage 拉取一页订单
//
// 是否还有下一页只看 data.search_after.CursorValue 是否非空：
// 即使本页 orders 为空，只要携带了新游标就继续翻页。
// cursor 传 "0" 表示首页。
func (c *Client) FetchPage(ctx context.Context, win Window, cursor string, pageSize int, f Filters) (*Page, error) {
	if c.cfg.AccountID == "" {
		return nil, &FetchError{Cursor: cursor, Message: "account_id 未配置"}
	}

	token, err := c.GetToken(ctx)
	if err != nil {
		return nil, err
	}

	startTS := strconv.FormatInt(win.Start.Unix(), 10)
	endTS := strconv.FormatInt(win.End.Unix(), 10)

	params := map[string]string{
		"access_token": token,
		"account_id":   c.cfg.AccountID,
		"cursor":       cursor,
		"page_size":    strconv.Itoa(pageSize),
	}
	if f.UseCreateTime {
		params["create_order_start_time"] = startTS
		params["create_order_end_time"] = endTS
	} else {
		params["update_order_start_time"] = startTS
		params["update_order_end_time"] = endTS
	}
	if f.OrderStatus != "" {
		params["order_status"] = f.OrderStatus
	}
	if f.GetSecretNumber {
		params["get_secret_number"] = "true"
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(c.cfg.BaseURL + orderQueryPath)
	if err != nil {
		return nil, &FetchError{Cursor: cursor, Message: "请求失败", Err: err}
	}

	var body orderQueryResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return nil, &FetchError{Cursor: cursor, Message: "响应解析失败", Err: err}
	}
	if body.Code != 0 {
		return nil, &FetchError{Cursor: cursor, Code: body.Code, Message: body.Message}
	}

	page := &Page{
		HasMore:    false,
		NextCursor: cursor, // 默认保持当前游标
	}
	if body.Data != nil {
		page.Orders = body.Data.Orders
		page.TotalCount = body.Data.TotalCount

		if next := joinCursorValues(body.Data.SearchAfter.CursorValue); next != "" {
			page.NextCursor = next
			page.HasMore = true
		}
	}

	c.logger.Info("拉取订单页",
		zap.String("cursor", cursor),
		zap.Int("count", len(page.Orders)),
		zap.Bool("has_more", page.HasMore))

	return page, nil
}

// joinCursorValues 将 CursorValue 数组拼接为游标字符串: ["123","456"] -> "123,456"
func joinCursorValues(values []json.RawMessage) string {
	if len(values) == 0 {
		return ""
	}
	parts := make([]string, 0, len(values))
	for _, raw := range values {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			parts = append(parts, s)
			continue
		}
		// 非字符串（通常是数字），保留 JSON 原文
		parts = append(parts, string(raw))
	}
	return strings.Join(parts, ",")
}
