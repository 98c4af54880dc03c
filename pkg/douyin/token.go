package douyin

import (
	"context"
	"encoding/json"
	"time"

	"go.uber.org/zap"
)

// ==================== 访问令牌 ====================

type tokenResponse struct {
	Code    int64  `json:"code"`
	Message string `json:"message"`
	Data    struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	} `json:"data"`
}

// GetToken 获取访问令牌
//
// 缓存的 token 在过期前 5 分钟内视为不可用，触发一次新的凭证交换；
// 交换失败返回 *AuthError，不在内部重试
func (c *Client) GetToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpire.Add(-tokenSafetyMargin)) {
		return c.accessToken, nil
	}

	payload := map[string]string{
		"client_key":    c.cfg.AppID,
		"client_secret": c.cfg.AppSecret,
		"grant_type":    "client_credential",
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(c.cfg.BaseURL + tokenPath)
	if err != nil {
		return "", &AuthError{Message: "请求失败", Err: err}
	}

	var body tokenResponse
	if err := json.Unmarshal(resp.Body(), &body); err != nil {
		return "", &AuthError{Message: "响应解析失败", Err: err}
	}
	if body.Code != 0 {
		return "", &AuthError{Code: body.Code, Message: body.Message}
	}
	if body.Data.AccessToken == "" {
		return "", &AuthError{Message: "响应缺少 access_token"}
	}

	expiresIn := body.Data.ExpiresIn
	if expiresIn <= 0 {
		expiresIn = 7200
	}

	c.accessToken = body.Data.AccessToken
	c.tokenExpire = time.Now().Add(time.Duration(expiresIn) * time.Second)

	c.logger.Info("成功获取访问令牌", zap.Int64("expires_in", expiresIn))
	return c.accessToken, nil
}
