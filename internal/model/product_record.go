package model

// ==================== CSV 列定义 ====================

// CSVColumns CSV 表头，列顺序固定，读写共用
var CSVColumns = []string{
	"id", "name", "title", "short_description", "description", "keywords",
	"has_images", "image_count", "last_synced", "last_enriched", "pending_push",
}

// ==================== 本地商品记录 ====================

// ProductRecord 本地商品记录，对应 CSV 一行，以远端 id 为唯一键
type ProductRecord struct {
	ID               int64  `json:"id"`
	Name             string `json:"name"`              // 远端规范名称，每次同步覆盖
	Title            string `json:"title"`             // 本地展示标题，仅 enrich 覆盖
	ShortDescription string `json:"short_description"` // 仅 enrich 覆盖，同步只在首次插入时写
	Description      string `json:"description"`
	Keywords         string `json:"keywords"` // 逗号分隔，首次 enrich 前为空
	HasImages        bool   `json:"has_images"`
	ImageCount       int    `json:"image_count"`
	LastSynced       int64  `json:"last_synced"`   // Unix 秒
	LastEnriched     string `json:"last_enriched"` // Unix 秒字符串，空串表示从未 enrich
	PendingPush      bool   `json:"pending_push"`  // 有未回推的本地修改
}

// ==================== 生成内容 ====================

// EnrichedContent 校验通过的 AI 生成内容
type EnrichedContent struct {
	ID               int64  `json:"id"`
	Title            string `json:"title"`
	ShortDescription string `json:"short_description"`
	Description      string `json:"description"`
	Keywords         string `json:"keywords"`
	Validated        bool   `json:"_validated"` // 标记内容走过校验管线
}
