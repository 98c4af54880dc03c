package douyin

import (
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ==================== 常量 ====================

const (
	// DefaultBaseURL 抖音开放平台默认地址
	DefaultBaseURL = "https://open.douyin.com"

	tokenPath      = "/oauth/client_token/"
	orderQueryPath = "/goodlife/v1/trade/order/query/"

	// tokenSafetyMargin token 过期前的安全余量，提前刷新
	tokenSafetyMargin = 5 * time.Minute

	// maxPagesPerDay 单日分页硬上限，防止游标异常导致死循环
	maxPagesPerDay = 200

	// FirstPageCursor 首页游标哨兵值
	FirstPageCursor = "0"
)

// ==================== 类型定义 ====================

// RawOrder 上游返回的原始订单载荷
// 字段结构由上游决定，保留为松散映射，完整原文随行入库
type RawOrder map[string]any

// Window 同步时间窗口（闭区间，按天切片）
type Window struct {
	Start time.Time
	End   time.Time
}

// Filters 订单查询的可选过滤条件
type Filters struct {
	OrderStatus     string // 订单状态筛选，空值表示全部
	GetSecretNumber bool   // 是否查询配送信息
	UseCreateTime   bool   // true 按创单时间过滤，false 按修改时间过滤
}

// ==================== Client 抖音 API 客户端 ====================

// ClientConfig 客户端配置
type ClientConfig struct {
	AppID     string
	AppSecret string
	AccountID string
	BaseURL   string        // 为空时使用 DefaultBaseURL
	Timeout   time.Duration // 单次请求超时，为空时 30s
}

// Client 抖音 API 客户端，负责鉴权与订单拉取
//
// token 缓存是实例内状态；多个任务实例各持有自己的 Client 即可互不干扰
type Client struct {
	cfg    ClientConfig
	http   *resty.Client
	logger *zap.Logger

	// token 缓存（懒加载，见 GetToken）
	mu          sync.Mutex
	accessToken string
	tokenExpire time.Time
}

// NewClient 创建抖音 API 客户端
func NewClient(cfg ClientConfig, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	httpClient := resty.New()
	httpClient.SetTimeout(cfg.Timeout)
	// 页级失败由上层截断当天数据，这里不做自动重试
	httpClient.SetRetryCount(0)

	return &Client{
		cfg:    cfg,
		http:   httpClient,
		logger: logger,
	}
}
