package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"woosync_v1_202608/internal/config"
	"woosync_v1_202608/internal/model"
	"woosync_v1_202608/internal/repository"
	"woosync_v1_202608/internal/validation"
)

// ==================== 生成提供方 ====================

// TextGenerator 文本生成提供方（黑盒：prompt 进，原始文本出）
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// GeminiGenerator 基于 Gemini 的生成实现，强制 JSON 响应模式
type GeminiGenerator struct {
	cfg *config.GeminiConfig
}

func NewGeminiGenerator(cfg *config.GeminiConfig) *GeminiGenerator {
	return &GeminiGenerator{cfg: cfg}
}

func (g *GeminiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	if g.cfg.APIKey == "" {
		return "", fmt.Errorf("Gemini API Key 未配置")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(g.cfg.APIKey))
	if err != nil {
		return "", fmt.Errorf("Gemini 初始化失败: %w", err)
	}
	defer client.Close()

	modelAI := client.GenerativeModel(g.cfg.Model)
	modelAI.ResponseMIMEType = "application/json"
	modelAI.SetTemperature(g.cfg.Temperature)
	modelAI.SetMaxOutputTokens(g.cfg.MaxTokens)

	resp, err := modelAI.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("生成请求失败: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("无生成结果")
	}

	var sb strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				sb.WriteString(string(text))
			}
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("生成结果为空")
	}
	return sb.String(), nil
}

// ==================== 错误类型 ====================

// ValidationError 生成内容未通过校验（重试内部使用）
type ValidationError struct {
	Rules []string
}

func (e *ValidationError) Error() string {
	return "生成内容校验失败: " + strings.Join(e.Rules, "; ")
}

// EnrichmentError 重试预算耗尽后的终态错误
type EnrichmentError struct {
	ProductID        int64
	Attempts         int
	ValidationErrors []string // 最后一次失败是校验失败时填充
	Err              error
}

func (e *EnrichmentError) Error() string {
	return fmt.Sprintf("商品 %d enrich 失败（%d 次尝试）: %v", e.ProductID, e.Attempts, e.Err)
}

func (e *EnrichmentError) Unwrap() error {
	return e.Err
}

// ==================== 服务 ====================

// EnrichmentInput enrich 请求载荷（只带这些字段进 prompt）
type EnrichmentInput struct {
	ID               int64    `json:"id"`
	Name             string   `json:"name"`
	ShortDescription string   `json:"short_description"`
	Description      string   `json:"description"`
	Categories       []string `json:"categories"`
}

const enrichPromptTemplate = `You are an assistant that generates SEO-friendly product content. Return ONLY a compact JSON object with keys: title, short_description, description, keywords (comma-separated string). Avoid markdown. Keep within length limits: title <= %d, short_description <= %d, description <= %d, keywords total length <= %d. Product data: %s`

const enrichMaxAttempts = 3

// AIService 文案 enrich 客户端：生成 + 校验 + 有界重试
type AIService struct {
	generator TextGenerator
	validator *validation.EnrichmentValidator
	limits    validation.Limits
	modelName string

	runID       string
	callLogRepo repository.AICallLogRepository // 可为 nil（未配置审计库）

	sleep func(time.Duration) // 测试可注入
}

// NewAIService 创建 enrich 客户端
func NewAIService(gen TextGenerator, limits validation.Limits, modelName string, callLogRepo repository.AICallLogRepository) *AIService {
	return &AIService{
		generator:   gen,
		validator:   validation.NewEnrichmentValidator(limits),
		limits:      limits,
		modelName:   modelName,
		runID:       uuid.NewString(),
		callLogRepo: callLogRepo,
		sleep:       time.Sleep,
	}
}

// EnrichProduct 生成并校验一件商品的文案。
// 最多 3 次尝试，第 2/3 次前分别等 1s/2s；传输错误、JSON 解析失败、
// 校验不通过都计入重试，预算耗尽返回 *EnrichmentError。
func (s *AIService) EnrichProduct(ctx context.Context, input EnrichmentInput) (*model.EnrichedContent, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("构造请求载荷失败: %w", err)
	}
	prompt := fmt.Sprintf(enrichPromptTemplate,
		s.limits.TitleMax, s.limits.ShortDescMax, s.limits.DescMax, s.limits.KeywordsMax,
		string(payload))

	var lastErr error
	for attempt := 1; attempt <= enrichMaxAttempts; attempt++ {
		if attempt > 1 {
			s.sleep(time.Duration(attempt-1) * time.Second)
		}

		start := time.Now()
		content, err := s.attempt(ctx, input, prompt)
		s.logCall(ctx, input.ID, attempt, time.Since(start), err)

		if err == nil {
			return content, nil
		}
		lastErr = err
	}

	enrichErr := &EnrichmentError{
		ProductID: input.ID,
		Attempts:  enrichMaxAttempts,
		Err:       lastErr,
	}
	var verr *ValidationError
	if errors.As(lastErr, &verr) {
		enrichErr.ValidationErrors = verr.Rules
	}
	return nil, enrichErr
}

// attempt 单次生成尝试
func (s *AIService) attempt(ctx context.Context, input EnrichmentInput, prompt string) (*model.EnrichedContent, error) {
	raw, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Title            string `json:"title"`
		ShortDescription string `json:"short_description"`
		Description      string `json:"description"`
		Keywords         string `json:"keywords"`
	}
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("解析生成结果失败: %w, raw: %s", err, raw)
	}

	result := s.validator.Validate(validation.Candidate{
		Title:            parsed.Title,
		ShortDescription: parsed.ShortDescription,
		Description:      parsed.Description,
		Keywords:         parsed.Keywords,
	})
	if !result.OK {
		return nil, &ValidationError{Rules: result.Errors}
	}

	// id 由本端盖章，不信任模型回显
	return &model.EnrichedContent{
		ID:               input.ID,
		Title:            parsed.Title,
		ShortDescription: parsed.ShortDescription,
		Description:      parsed.Description,
		Keywords:         parsed.Keywords,
		Validated:        true,
	}, nil
}

// logCall 记录一次调用到审计库，失败只打日志不影响主流程
func (s *AIService) logCall(ctx context.Context, productID int64, attempt int, dur time.Duration, callErr error) {
	if s.callLogRepo == nil {
		return
	}

	entry := &model.AICallLog{
		RunID:      s.runID,
		ProductID:  productID,
		CallType:   model.AICallTypeEnrich,
		ModelName:  s.modelName,
		Attempt:    attempt,
		DurationMs: dur.Milliseconds(),
		Status:     model.AICallStatusSuccess,
	}
	if callErr != nil {
		entry.Status = model.AICallStatusFailed
		entry.ErrorMsg = callErr.Error()
	}

	if err := s.callLogRepo.Create(ctx, entry); err != nil {
		log.Printf("记录 AI 调用日志失败: %v", err)
	}
}
