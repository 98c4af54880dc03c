package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"douyin_order_sync/internal/model"
	"douyin_order_sync/pkg/secretutil"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ==================== OrderRepository 订单仓库 ====================

// OrderRepository 订单仓库接口
type OrderRepository interface {
	// Upsert 将一批上游原始订单解析入库，返回受影响行数。
	// 整批在一个事务内提交，失败整体回滚
	Upsert(ctx context.Context, batch []any) (int64, error)

	GetByOrderID(ctx context.Context, orderID string) (*model.Order, error)
	Count(ctx context.Context) (int64, error)
}

type orderRepository struct {
	db        *gorm.DB
	appSecret string
	logger    *zap.Logger
}

// NewOrderRepository 创建订单仓库
//
// appSecret 用于解密订单里的虚拟手机号，为空时跳过解密
func NewOrderRepository(db *gorm.DB, appSecret string, logger *zap.Logger) OrderRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &orderRepository{db: db, appSecret: appSecret, logger: logger}
}

// upsertBatchSize 单条 INSERT 语句的分批大小
const upsertBatchSize = 100

func (r *orderRepository) Upsert(ctx context.Context, batch []any) (int64, error) {
	records := r.buildRecords(flattenBatch(batch))
	if len(records) == 0 {
		return 0, nil
	}

	var affected int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "order_id"}},
			// create_time 只在首次写入时记录，冲突时不覆盖
			DoUpdates: clause.AssignmentColumns([]string{
				"order_status", "sku_id", "sku_name", "pay_amount", "count",
				"pay_time", "update_time", "source_order_id", "phone",
				"raw_data", "sync_time",
			}),
		}).CreateInBatches(records, upsertBatchSize)
		if res.Error != nil {
			return res.Error
		}
		affected = res.RowsAffected
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("订单批量入库失败: %w", err)
	}

	r.logger.Info("订单批量入库完成",
		zap.Int("batch_size", len(records)),
		zap.Int64("affected", affected))
	return affected, nil
}

func (r *orderRepository) GetByOrderID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&model.Order{}).Count(&total).Error
	return total, err
}

// ==================== 原始订单解析 ====================

// flattenBatch 拆掉一层意外嵌套: [[o1, o2], [o3]] -> [o1, o2, o3]
//
// 上游调用方偶尔会把"批次的批次"整个传进来，这里做防御性拆包
func flattenBatch(batch []any) []any {
	needFlatten := false
	for _, item := range batch {
		if _, ok := item.([]any); ok {
			needFlatten = true
			break
		}
	}
	if !needFlatten {
		return batch
	}

	flat := make([]any, 0, len(batch))
	for _, item := range batch {
		if inner, ok := item.([]any); ok {
			flat = append(flat, inner...)
			continue
		}
		flat = append(flat, item)
	}
	return flat
}

// buildRecords 解析并去重，同一 order_id 取输入顺序中最后一次出现的数据
func (r *orderRepository) buildRecords(batch []any) []model.Order {
	records := make([]model.Order, 0, len(batch))
	index := make(map[string]int, len(batch))

	for _, item := range batch {
		raw, ok := toObject(item)
		if !ok {
			r.logger.Error("数据格式错误，跳过", zap.String("type", fmt.Sprintf("%T", item)))
			continue
		}

		orderID := getString(raw, "order_id")
		if orderID == "" {
			r.logger.Error("订单缺少 order_id，跳过")
			continue
		}

		record := r.buildRecord(orderID, raw)
		if pos, exists := index[orderID]; exists {
			records[pos] = record
			continue
		}
		index[orderID] = len(records)
		records = append(records, record)
	}
	return records
}

// buildRecord 将单条原始订单拍平为落库记录
func (r *orderRepository) buildRecord(orderID string, raw map[string]any) model.Order {
	// sku_id 优先取根级字段，缺失时回退到 products 第一项
	skuID := getString(raw, "sku_id")
	if skuID == "" {
		if products, ok := raw["products"].([]any); ok && len(products) > 0 {
			if first, ok := toObject(products[0]); ok {
				skuID = getString(first, "sku_id")
			}
		}
	}

	count := getInt(raw, "count")
	if count == 0 {
		count = 1
	}

	rawJSON, err := json.Marshal(raw)
	if err != nil {
		r.logger.Error("订单原文序列化失败", zap.String("order_id", orderID), zap.Error(err))
	}

	return model.Order{
		OrderID:       orderID,
		OrderStatus:   getString(raw, "order_status"),
		SkuID:         skuID,
		SkuName:       getString(raw, "sku_name"),
		PayAmount:     getFloat(raw, "pay_amount"),
		Count:         count,
		PayTime:       getEpochTime(raw, "pay_time"),
		CreateTime:    getEpochTime(raw, "create_order_time"),
		UpdateTime:    getEpochTime(raw, "update_order_time"),
		SourceOrderID: getString(raw, "source_order_id"),
		Phone:         r.decryptPhone(orderID, raw),
		RawData:       rawJSON,
		SyncTime:      time.Now(),
	}
}

// decryptPhone 解密订单联系人里的虚拟手机号
//
// 仅在携带密文且配置了密钥时尝试；解密失败只影响本条记录的 phone 字段
func (r *orderRepository) decryptPhone(orderID string, raw map[string]any) *string {
	contacts, ok := raw["contacts"].([]any)
	if !ok || len(contacts) == 0 {
		return nil
	}
	first, ok := toObject(contacts[0])
	if !ok {
		return nil
	}

	encrypted := getString(first, "phone_encrypt")
	if encrypted == "" || r.appSecret == "" {
		return nil
	}

	phone, err := secretutil.DecryptPhone(encrypted, r.appSecret)
	if err != nil {
		r.logger.Error("解密手机号失败", zap.String("order_id", orderID), zap.Error(err))
		return nil
	}
	return &phone
}

// ==================== 松散字段读取 ====================

func toObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

// getString 读取字符串字段，数字值转为十进制字符串（上游部分字段类型不稳定）
func getString(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	default:
		return ""
	}
}

func getFloat(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case json.Number:
		f, _ := v.Float64()
		return f
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	default:
		return 0
	}
}

func getInt(m map[string]any, key string) int {
	return int(getFloat(m, key))
}

// getEpochTime 读取秒级时间戳字段，缺失或为 0 时返回 nil
func getEpochTime(m map[string]any, key string) *time.Time {
	ts := int64(getFloat(m, key))
	if ts <= 0 {
		return nil
	}
	t := time.Unix(ts, 0)
	return &t
}
