package validation

import (
	"strings"
	"unicode/utf8"
)

// ==================== 校验结构 ====================

// Limits 生成内容长度上限
type Limits struct {
	TitleMax     int
	ShortDescMax int
	DescMax      int
	KeywordsMax  int
}

// Candidate 待校验的生成内容，缺失字段按空串处理
type Candidate struct {
	Title            string
	ShortDescription string
	Description      string
	Keywords         string
}

// Result 校验结果，Errors 按规则顺序收集全部违规项
type Result struct {
	OK     bool
	Errors []string
}

// ==================== 校验器 ====================

// EnrichmentValidator 生成内容校验器，纯函数无依赖
type EnrichmentValidator struct {
	limits Limits
}

func NewEnrichmentValidator(limits Limits) *EnrichmentValidator {
	return &EnrichmentValidator{limits: limits}
}

// Validate 逐条检查全部规则，不短路
func (v *EnrichmentValidator) Validate(c Candidate) Result {
	var errs []string

	title := strings.TrimSpace(c.Title)
	shortDesc := strings.TrimSpace(c.ShortDescription)
	desc := strings.TrimSpace(c.Description)
	keywords := strings.TrimSpace(c.Keywords)

	if title == "" {
		errs = append(errs, "title missing")
	}
	if utf8.RuneCountInString(title) > v.limits.TitleMax {
		errs = append(errs, "title too long")
	}
	if utf8.RuneCountInString(shortDesc) > v.limits.ShortDescMax {
		errs = append(errs, "short_description too long")
	}
	if utf8.RuneCountInString(desc) > v.limits.DescMax {
		errs = append(errs, "description too long")
	}
	if utf8.RuneCountInString(keywords) > v.limits.KeywordsMax {
		errs = append(errs, "keywords total length too long")
	}

	lower := strings.ToLower(desc)
	if strings.Contains(lower, "http://") || strings.Contains(lower, "https://") {
		errs = append(errs, "description contains URL")
	}

	return Result{OK: len(errs) == 0, Errors: errs}
}
