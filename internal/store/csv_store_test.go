package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"woosync_v1_202608/internal/model"
	"woosync_v1_202608/pkg/woo"
)

// ==================== 测试辅助 ====================

// fakeClock 可推进的测试时钟（备份文件名按秒取名，真实时钟会撞名）
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.t = c.t.Add(d)
}

func newTestStore(t *testing.T) (*CSVStore, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1700000000, 0)}
	s := NewCSVStore(filepath.Join(t.TempDir(), "products.csv"), 3)
	s.now = clock.Now
	return s, clock
}

func sampleProducts() []woo.Product {
	return []woo.Product{
		{ID: 1, Name: "Mug", ShortDescription: "short 1", Description: "desc one",
			Images: []woo.ProductImage{{Src: "https://img.test/1.jpg"}}},
		{ID: 2, Name: "Bowl", ShortDescription: "short 2", Description: "desc two"},
		{ID: 3, Name: "Plate", ShortDescription: "short 3", Description: "desc three",
			Images: []woo.ProductImage{{Src: "a"}, {Src: "b"}}},
	}
}

// ==================== Load ====================

func TestLoad_MissingFile(t *testing.T) {
	s, _ := newTestStore(t)

	records, err := s.Load()
	if err != nil {
		t.Fatalf("文件不存在应视为无数据: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("期望空记录, got %d", len(records))
	}
}

// ==================== Upsert ====================

func TestUpsertProducts_Insert(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.UpsertProducts(sampleProducts()); err != nil {
		t.Fatalf("UpsertProducts 失败: %v", err)
	}

	records, err := s.Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("记录数 = %d, want 3", len(records))
	}

	for _, r := range records {
		if r.Keywords != "" {
			t.Errorf("商品 %d: 新插入记录 keywords 应为空, got %q", r.ID, r.Keywords)
		}
		if r.PendingPush {
			t.Errorf("商品 %d: 新插入记录不应 pending_push", r.ID)
		}
		if r.LastEnriched != "" {
			t.Errorf("商品 %d: 新插入记录 last_enriched 应为空", r.ID)
		}
		if r.Title != r.Name {
			t.Errorf("商品 %d: 初始 title 应取 name, got %q / %q", r.ID, r.Title, r.Name)
		}
		if r.LastSynced == 0 {
			t.Errorf("商品 %d: last_synced 未写", r.ID)
		}
	}

	if !records[0].HasImages || records[0].ImageCount != 1 {
		t.Errorf("商品 1 图片字段不对: has=%v count=%d", records[0].HasImages, records[0].ImageCount)
	}
	if records[1].HasImages || records[1].ImageCount != 0 {
		t.Errorf("商品 2 应无图片")
	}
}

func TestUpsertProducts_UpdateKeepsLocalEdits(t *testing.T) {
	s, clock := newTestStore(t)

	if err := s.UpsertProducts(sampleProducts()); err != nil {
		t.Fatalf("初次 upsert 失败: %v", err)
	}

	// 模拟本地 enrich 修改
	if err := s.ApplyEnrichment(model.EnrichedContent{
		ID: 2, Title: "Enriched Bowl", ShortDescription: "ES", Description: "ED", Keywords: "k1,k2",
	}); err != nil {
		t.Fatalf("ApplyEnrichment 失败: %v", err)
	}

	// 远端改名后再同步
	clock.Advance(time.Minute)
	updated := sampleProducts()
	updated[1].Name = "Bowl v2"
	updated[1].Images = []woo.ProductImage{{Src: "x"}}
	if err := s.UpsertProducts(updated); err != nil {
		t.Fatalf("二次 upsert 失败: %v", err)
	}

	records, _ := s.Load()
	if len(records) != 3 {
		t.Fatalf("upsert 不应产生重复记录: %d 条", len(records))
	}

	var rec *model.ProductRecord
	for i := range records {
		if records[i].ID == 2 {
			rec = &records[i]
		}
	}
	if rec == nil {
		t.Fatal("商品 2 丢失")
	}

	// 同步来源字段被更新
	if rec.Name != "Bowl v2" {
		t.Errorf("name 未更新: %q", rec.Name)
	}
	if !rec.HasImages || rec.ImageCount != 1 {
		t.Errorf("图片字段未更新")
	}
	// 内容字段保持本地修改
	if rec.Title != "Enriched Bowl" || rec.Keywords != "k1,k2" {
		t.Errorf("同步覆盖了本地内容字段: title=%q keywords=%q", rec.Title, rec.Keywords)
	}
	if !rec.PendingPush {
		t.Error("同步不应清掉 pending_push")
	}
}

func TestUpsertProducts_Idempotent(t *testing.T) {
	s, clock := newTestStore(t)

	products := sampleProducts()
	if err := s.UpsertProducts(products); err != nil {
		t.Fatalf("初次 upsert 失败: %v", err)
	}
	first, _ := s.Load()

	clock.Advance(time.Second)
	if err := s.UpsertProducts(products); err != nil {
		t.Fatalf("二次 upsert 失败: %v", err)
	}
	second, _ := s.Load()

	if len(second) != len(first) {
		t.Fatalf("同一载荷重放改变了记录数: %d -> %d", len(first), len(second))
	}
	for i := range first {
		f, sec := first[i], second[i]
		if f.Title != sec.Title || f.ShortDescription != sec.ShortDescription ||
			f.Description != sec.Description || f.Keywords != sec.Keywords ||
			f.PendingPush != sec.PendingPush {
			t.Errorf("商品 %d: 内容字段被重放改动", f.ID)
		}
	}
}

// ==================== ApplyEnrichment ====================

func TestApplyEnrichment(t *testing.T) {
	s, clock := newTestStore(t)

	if err := s.UpsertProducts(sampleProducts()); err != nil {
		t.Fatalf("upsert 失败: %v", err)
	}

	clock.Advance(time.Hour)
	err := s.ApplyEnrichment(model.EnrichedContent{
		ID: 1, Title: "T", ShortDescription: "S", Description: "D", Keywords: "k1,k2", Validated: true,
	})
	if err != nil {
		t.Fatalf("ApplyEnrichment 失败: %v", err)
	}

	records, _ := s.Load()
	var rec *model.ProductRecord
	for i := range records {
		if records[i].ID == 1 {
			rec = &records[i]
		}
	}
	if rec == nil {
		t.Fatal("商品 1 丢失")
	}
	if rec.Title != "T" || rec.ShortDescription != "S" || rec.Description != "D" || rec.Keywords != "k1,k2" {
		t.Errorf("内容字段未写入: %+v", rec)
	}
	if !rec.PendingPush {
		t.Error("enrich 后应 pending_push")
	}
	if rec.LastEnriched == "" {
		t.Error("enrich 后 last_enriched 应非空")
	}
}

func TestApplyEnrichment_NotFound(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.UpsertProducts(sampleProducts()); err != nil {
		t.Fatalf("upsert 失败: %v", err)
	}
	before, err := os.ReadFile(s.Path())
	if err != nil {
		t.Fatalf("读存储文件失败: %v", err)
	}

	err = s.ApplyEnrichment(model.EnrichedContent{ID: 999, Title: "T"})
	if !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("期望 ErrRecordNotFound, got %v", err)
	}

	after, _ := os.ReadFile(s.Path())
	if string(before) != string(after) {
		t.Error("失败的 ApplyEnrichment 不应改动存储文件")
	}
}

// ==================== Stats ====================

func TestStats_Empty(t *testing.T) {
	s, _ := newTestStore(t)

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats 失败: %v", err)
	}
	if len(stats) != 1 {
		t.Errorf("空存储只应有 count 一个键, got %v", stats)
	}
	if stats["count"] != 0 {
		t.Errorf("count = %v, want 0", stats["count"])
	}
}

func TestStats(t *testing.T) {
	s, _ := newTestStore(t)

	if err := s.UpsertProducts(sampleProducts()); err != nil {
		t.Fatalf("upsert 失败: %v", err)
	}
	if err := s.ApplyEnrichment(model.EnrichedContent{
		ID: 1, Title: "T", ShortDescription: "S", Description: "abcd", Keywords: "k",
	}); err != nil {
		t.Fatalf("ApplyEnrichment 失败: %v", err)
	}

	stats, err := s.Stats()
	if err != nil {
		t.Fatalf("Stats 失败: %v", err)
	}

	if stats["count"] != 3 {
		t.Errorf("count = %v", stats["count"])
	}
	if stats["with_images"] != 2 {
		t.Errorf("with_images = %v", stats["with_images"])
	}
	if stats["with_images_pct"] != 66.7 {
		t.Errorf("with_images_pct = %v, want 66.7", stats["with_images_pct"])
	}
	if stats["enriched_count"] != 1 {
		t.Errorf("enriched_count = %v", stats["enriched_count"])
	}
	if stats["enriched_pct"] != 33.3 {
		t.Errorf("enriched_pct = %v, want 33.3", stats["enriched_pct"])
	}
	if stats["pending_push"] != 1 {
		t.Errorf("pending_push = %v", stats["pending_push"])
	}
	// "abcd"(4) + "desc two"(8) + "desc three"(10) = 22, 22/3 截断为 7
	if stats["avg_description_length"] != 7 {
		t.Errorf("avg_description_length = %v, want 7", stats["avg_description_length"])
	}
}

// ==================== 备份轮转 ====================

func TestBackupRotation(t *testing.T) {
	s, clock := newTestStore(t)

	// 首次保存没有旧文件，不产生备份
	if err := s.Save([]model.ProductRecord{{ID: 1, Name: "a", Title: "a"}}); err != nil {
		t.Fatalf("初次 Save 失败: %v", err)
	}

	// 再保存 5 次，应只留最新 3 份备份
	var wantTs []int64
	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		wantTs = append(wantTs, clock.Now().Unix())
		if err := s.Save([]model.ProductRecord{{ID: 1, Name: "a", Title: "a"}}); err != nil {
			t.Fatalf("第 %d 次 Save 失败: %v", i+2, err)
		}
	}

	backups, err := s.listBackups()
	if err != nil {
		t.Fatalf("listBackups 失败: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("备份数 = %d, want 3: %v", len(backups), backups)
	}

	// 留下的必须是最新 3 个时间戳（降序）
	want := []int64{wantTs[4], wantTs[3], wantTs[2]}
	for i, b := range backups {
		if got := backupTimestamp(b); got != want[i] {
			t.Errorf("备份[%d] 时间戳 = %d, want %d", i, got, want[i])
		}
	}

	latest, err := s.LatestBackup()
	if err != nil {
		t.Fatalf("LatestBackup 失败: %v", err)
	}
	if latest != backups[0] {
		t.Errorf("LatestBackup = %q, want %q", latest, backups[0])
	}
}

// ==================== 编解码往返 ====================

func TestSaveLoad_RoundTrip(t *testing.T) {
	s, _ := newTestStore(t)

	in := []model.ProductRecord{
		{ID: 10, Name: "N, with comma", Title: "T\n换行", ShortDescription: "s",
			Description: "d \"quoted\"", Keywords: "k1,k2", HasImages: true, ImageCount: 2,
			LastSynced: 1700000123, LastEnriched: "1700000456", PendingPush: true},
		{ID: 11, Name: "plain", Title: "plain"},
	}
	if err := s.Save(in); err != nil {
		t.Fatalf("Save 失败: %v", err)
	}

	out, err := s.Load()
	if err != nil {
		t.Fatalf("Load 失败: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("记录数 = %d, want %d", len(out), len(in))
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("记录 %d 往返不一致:\n in: %+v\nout: %+v", i, in[i], out[i])
		}
	}
}
