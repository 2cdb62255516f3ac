package model

// AICallLog AI调用日志，每次 enrich 尝试一条
type AICallLog struct {
	BaseModel

	// 关联
	RunID     string `gorm:"size:64;index;comment:进程运行ID"`
	ProductID int64  `gorm:"index;comment:商品ID"`

	// 调用信息
	CallType  string `gorm:"size:32;index;comment:调用类型(enrich)"`
	ModelName string `gorm:"size:64;comment:模型名称"`
	Attempt   int    `gorm:"default:1;comment:第几次尝试(1-3)"`

	// 性能
	DurationMs int64 `gorm:"comment:耗时(毫秒)"`

	// 状态
	Status   string `gorm:"size:32;index;default:success;comment:状态(success/failed)"`
	ErrorMsg string `gorm:"size:1024;comment:错误信息"`
}

func (AICallLog) TableName() string {
	return "ai_call_logs"
}

// ==================== 调用类型常量 ====================

const (
	AICallTypeEnrich = "enrich"
)

// ==================== 状态常量 ====================

const (
	AICallStatusSuccess = "success"
	AICallStatusFailed  = "failed"
)
