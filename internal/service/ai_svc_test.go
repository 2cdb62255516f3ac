package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"woosync_v1_202608/internal/model"
	"woosync_v1_202608/internal/repository"
	"woosync_v1_202608/internal/validation"
)

// ==================== 测试替身 ====================

// fakeGenerator 按序返回预设响应
type fakeGenerator struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	i := g.calls
	g.calls++
	g.prompts = append(g.prompts, prompt)
	if i < len(g.errs) && g.errs[i] != nil {
		return "", g.errs[i]
	}
	if i < len(g.responses) {
		return g.responses[i], nil
	}
	return "", fmt.Errorf("fakeGenerator: 第 %d 次调用没有预设响应", i+1)
}

// fakeCallLogRepo 只记录 Create 的条目
type fakeCallLogRepo struct {
	entries []*model.AICallLog
}

func (r *fakeCallLogRepo) Create(ctx context.Context, log *model.AICallLog) error {
	r.entries = append(r.entries, log)
	return nil
}

func (r *fakeCallLogRepo) GetByID(ctx context.Context, id int64) (*model.AICallLog, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeCallLogRepo) GetUsageByProduct(ctx context.Context, productID int64) (*repository.AIUsageStats, error) {
	return nil, fmt.Errorf("not implemented")
}

func (r *fakeCallLogRepo) GetUsage(ctx context.Context, start, end time.Time) (*repository.AIUsageStats, error) {
	return nil, fmt.Errorf("not implemented")
}

func newTestAIService(gen TextGenerator, logRepo repository.AICallLogRepository) (*AIService, *[]time.Duration) {
	svc := NewAIService(gen, validation.Limits{
		TitleMax: 100, ShortDescMax: 200, DescMax: 1200, KeywordsMax: 200,
	}, "gemini-2.5-flash", logRepo)

	var sleeps []time.Duration
	svc.sleep = func(d time.Duration) { sleeps = append(sleeps, d) }
	return svc, &sleeps
}

const goodResponse = `{"title":"T","short_description":"S","description":"D","keywords":"k1,k2"}`

// ==================== 测试 ====================

func TestEnrichProduct_Success(t *testing.T) {
	gen := &fakeGenerator{responses: []string{goodResponse}}
	logRepo := &fakeCallLogRepo{}
	svc, sleeps := newTestAIService(gen, logRepo)

	content, err := svc.EnrichProduct(context.Background(), EnrichmentInput{
		ID: 42, Name: "Mug", ShortDescription: "s", Description: "d", Categories: []string{},
	})
	if err != nil {
		t.Fatalf("EnrichProduct 失败: %v", err)
	}

	if content.ID != 42 {
		t.Errorf("id 应由客户端盖章: got %d", content.ID)
	}
	if content.Title != "T" || content.ShortDescription != "S" ||
		content.Description != "D" || content.Keywords != "k1,k2" {
		t.Errorf("内容字段不对: %+v", content)
	}
	if !content.Validated {
		t.Error("成功结果必须带 _validated 标记")
	}
	if len(*sleeps) != 0 {
		t.Errorf("首次成功不应等待: %v", *sleeps)
	}
	if gen.calls != 1 {
		t.Errorf("生成调用次数 = %d, want 1", gen.calls)
	}
	if len(logRepo.entries) != 1 || logRepo.entries[0].Status != model.AICallStatusSuccess {
		t.Errorf("应记录一条成功日志: %+v", logRepo.entries)
	}
}

func TestEnrichProduct_PromptCarriesLimitsAndPayload(t *testing.T) {
	gen := &fakeGenerator{responses: []string{goodResponse}}
	svc, _ := newTestAIService(gen, nil)

	_, err := svc.EnrichProduct(context.Background(), EnrichmentInput{
		ID: 7, Name: "Mug", Categories: []string{"Kitchen"},
	})
	if err != nil {
		t.Fatalf("EnrichProduct 失败: %v", err)
	}

	prompt := gen.prompts[0]
	for _, want := range []string{
		"title <= 100", "short_description <= 200", "description <= 1200",
		"keywords total length <= 200", `"id":7`, `"name":"Mug"`, `"categories":["Kitchen"]`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt 缺少 %q:\n%s", want, prompt)
		}
	}
}

func TestEnrichProduct_RetryThenSuccess(t *testing.T) {
	gen := &fakeGenerator{responses: []string{"not json at all", goodResponse}}
	svc, sleeps := newTestAIService(gen, nil)

	content, err := svc.EnrichProduct(context.Background(), EnrichmentInput{ID: 1, Name: "x"})
	if err != nil {
		t.Fatalf("第二次应成功: %v", err)
	}
	if !content.Validated {
		t.Error("结果应通过校验")
	}
	if gen.calls != 2 {
		t.Errorf("生成调用次数 = %d, want 2", gen.calls)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != time.Second {
		t.Errorf("重试前应等 1s: %v", *sleeps)
	}
}

func TestEnrichProduct_ValidationExhaustsRetries(t *testing.T) {
	bad := `{"title":"T","short_description":"S","description":"see https://spam.test","keywords":"k"}`
	gen := &fakeGenerator{responses: []string{bad, bad, bad}}
	logRepo := &fakeCallLogRepo{}
	svc, sleeps := newTestAIService(gen, logRepo)

	_, err := svc.EnrichProduct(context.Background(), EnrichmentInput{ID: 5, Name: "x"})
	if err == nil {
		t.Fatal("三次校验失败应报错")
	}

	var enrichErr *EnrichmentError
	if !errors.As(err, &enrichErr) {
		t.Fatalf("期望 *EnrichmentError, got %T: %v", err, err)
	}
	if enrichErr.Attempts != 3 {
		t.Errorf("Attempts = %d, want 3", enrichErr.Attempts)
	}
	if len(enrichErr.ValidationErrors) != 1 || enrichErr.ValidationErrors[0] != "description contains URL" {
		t.Errorf("应携带违规规则列表: %v", enrichErr.ValidationErrors)
	}
	if gen.calls != 3 {
		t.Errorf("生成调用次数 = %d, want 3", gen.calls)
	}
	// 线性退避：第 2/3 次之前分别等 1s/2s
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*sleeps) != 2 || (*sleeps)[0] != want[0] || (*sleeps)[1] != want[1] {
		t.Errorf("退避序列 = %v, want %v", *sleeps, want)
	}
	if len(logRepo.entries) != 3 {
		t.Fatalf("应记录 3 条日志: %d", len(logRepo.entries))
	}
	for i, e := range logRepo.entries {
		if e.Status != model.AICallStatusFailed {
			t.Errorf("日志[%d] 状态 = %s, want failed", i, e.Status)
		}
		if e.Attempt != i+1 {
			t.Errorf("日志[%d] attempt = %d, want %d", i, e.Attempt, i+1)
		}
	}
}

func TestEnrichProduct_TransportExhaustsRetries(t *testing.T) {
	boom := fmt.Errorf("连接被拒绝")
	gen := &fakeGenerator{errs: []error{boom, boom, boom}}
	svc, _ := newTestAIService(gen, nil)

	_, err := svc.EnrichProduct(context.Background(), EnrichmentInput{ID: 9, Name: "x"})

	var enrichErr *EnrichmentError
	if !errors.As(err, &enrichErr) {
		t.Fatalf("期望 *EnrichmentError, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("终态错误应包住最后一次底层错误: %v", err)
	}
	if len(enrichErr.ValidationErrors) != 0 {
		t.Errorf("传输失败不应带校验规则: %v", enrichErr.ValidationErrors)
	}
}
