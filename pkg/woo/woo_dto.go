package woo

// ==========================================
// DTO: 用于收发 WooCommerce REST v3 的 JSON 数据
// ==========================================

// ProductImage 商品图片
type ProductImage struct {
	ID  int64  `json:"id,omitempty"`
	Src string `json:"src"`
}

// ProductCategory 商品分类
type ProductCategory struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
}

// Product 商品结构（只保留本系统关心的字段）
// RegularPrice 是字符串金额，Woo API 约定如此，也避免了金额上的浮点误差
type Product struct {
	ID               int64             `json:"id,omitempty"`
	Name             string            `json:"name"`
	Type             string            `json:"type,omitempty"`
	Status           string            `json:"status,omitempty"`
	RegularPrice     string            `json:"regular_price,omitempty"`
	ShortDescription string            `json:"short_description"`
	Description      string            `json:"description"`
	Images           []ProductImage    `json:"images,omitempty"`
	Categories       []ProductCategory `json:"categories,omitempty"`
}

// CategoryNames 提取分类名称列表（enrich 请求载荷用）
func (p *Product) CategoryNames() []string {
	names := make([]string, 0, len(p.Categories))
	for _, c := range p.Categories {
		names = append(names, c.Name)
	}
	return names
}
