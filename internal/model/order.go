package model

import (
	"time"

	"gorm.io/datatypes"
)

// ==================== Order 订单主表 ====================

// Order 抖音生活服务订单
//
// 主键为上游 order_id，一条记录对应一笔订单；常用查询字段拍平成列，
// 上游返回的完整载荷原样存入 RawData，避免后续补字段时重新拉取
type Order struct {
	OrderID     string `gorm:"primaryKey;size:64" json:"order_id"`
	OrderStatus string `gorm:"size:32;index" json:"order_status"`

	// 商品信息
	SkuID     string  `gorm:"size:64" json:"sku_id"`
	SkuName   string  `gorm:"size:255" json:"sku_name"`
	Count     int     `gorm:"default:1" json:"count"`
	PayAmount float64 `json:"pay_amount"`

	// 订单时间（上游为秒级时间戳，缺失时为空）
	PayTime    *time.Time `json:"pay_time"`
	CreateTime *time.Time `json:"create_time"`
	UpdateTime *time.Time `json:"update_time"`

	// 渠道订单号
	SourceOrderID string `gorm:"size:64" json:"source_order_id"`

	// 收货人手机号（虚拟号解密结果，解密失败时为空）
	Phone *string `gorm:"size:32;index" json:"phone"`

	// 上游原始数据（PostgreSQL JSONB）
	RawData datatypes.JSON `gorm:"type:jsonb" json:"raw_data"`

	// 本条记录最近一次同步落库时间
	SyncTime time.Time `json:"sync_time"`
}

func (*Order) TableName() string {
	return "orders"
}
