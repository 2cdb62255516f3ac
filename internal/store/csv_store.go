package store

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"woosync_v1_202608/internal/model"
	"woosync_v1_202608/pkg/woo"
)

// ErrRecordNotFound 请求的商品 id 不在本地存储中
var ErrRecordNotFound = errors.New("商品记录不存在")

// ==================== CSVStore ====================

// CSVStore 本地商品 CSV 存储
// 内存中是有序记录切片加 id 索引，文件操作只有 Load / Save 两处；
// 每次 Save 前先做备份轮转，新内容写临时文件后 rename 落盘。
type CSVStore struct {
	path string
	keep int // 备份保留数量

	now func() time.Time // 测试可注入
}

// NewCSVStore 创建存储，backupKeep <= 0 时取默认值 3
func NewCSVStore(path string, backupKeep int) *CSVStore {
	if backupKeep <= 0 {
		backupKeep = 3
	}
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		_ = os.MkdirAll(dir, 0o755)
	}
	return &CSVStore{path: path, keep: backupKeep, now: time.Now}
}

// Path 存储文件路径
func (s *CSVStore) Path() string {
	return s.path
}

// ==================== 读写 ====================

// Load 读取全部记录，文件不存在视为"尚无数据"，返回空切片
func (s *CSVStore) Load() ([]model.ProductRecord, error) {
	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("打开存储文件失败: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = len(model.CSVColumns)

	// 表头
	if _, err := r.Read(); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, fmt.Errorf("读取 CSV 表头失败: %w", err)
	}

	var records []model.ProductRecord
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("读取 CSV 行失败: %w", err)
		}
		rec, err := parseRow(row)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Save 全量落盘：先备份轮转，再写临时文件并 rename 替换，
// 保证崩溃时旧内容不丢、读者看不到半写状态
func (s *CSVStore) Save(records []model.ProductRecord) error {
	if err := s.rotateBackups(); err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".products-*.csv")
	if err != nil {
		return fmt.Errorf("创建临时文件失败: %w", err)
	}
	tmpName := tmp.Name()

	w := csv.NewWriter(tmp)
	if err := w.Write(model.CSVColumns); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写 CSV 表头失败: %w", err)
	}
	for i := range records {
		if err := w.Write(formatRow(&records[i])); err != nil {
			tmp.Close()
			os.Remove(tmpName)
			return fmt.Errorf("写 CSV 行失败: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("写 CSV 失败: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("关闭临时文件失败: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("替换存储文件失败: %w", err)
	}
	return nil
}

// ==================== 备份轮转 ====================

// rotateBackups 当前文件拷贝为 <file>.bak.<unix>.csv，只保留最新 keep 份
func (s *CSVStore) rotateBackups() error {
	if _, err := os.Stat(s.path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	backup := fmt.Sprintf("%s.bak.%d.csv", s.path, s.now().Unix())
	if err := copyFile(s.path, backup); err != nil {
		return fmt.Errorf("创建备份失败: %w", err)
	}

	backups, err := s.listBackups()
	if err != nil {
		return err
	}
	for i := s.keep; i < len(backups); i++ {
		if err := os.Remove(backups[i]); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("清理旧备份失败: %w", err)
		}
	}
	return nil
}

// listBackups 返回备份文件路径，按时间戳降序（最新在前）
func (s *CSVStore) listBackups() ([]string, error) {
	paths, err := filepath.Glob(s.path + ".bak.*.csv")
	if err != nil {
		return nil, err
	}
	sort.Slice(paths, func(i, j int) bool {
		return backupTimestamp(paths[i]) > backupTimestamp(paths[j])
	})
	return paths, nil
}

// LatestBackup 最新备份文件路径，无备份时返回空串
func (s *CSVStore) LatestBackup() (string, error) {
	backups, err := s.listBackups()
	if err != nil || len(backups) == 0 {
		return "", err
	}
	return backups[0], nil
}

// backupTimestamp 从 <file>.bak.<unix>.csv 提取时间戳
func backupTimestamp(path string) int64 {
	trimmed := strings.TrimSuffix(path, ".csv")
	idx := strings.LastIndex(trimmed, ".bak.")
	if idx < 0 {
		return 0
	}
	ts, _ := strconv.ParseInt(trimmed[idx+len(".bak."):], 10, 64)
	return ts
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}

// ==================== 合并操作 ====================

// UpsertProducts 合并一批远端商品：
// 已存在的 id 只更新同步来源字段（name/has_images/image_count/last_synced），
// 内容字段不动，保住未回推的本地修改；新 id 插入完整记录，title 取 name。
func (s *CSVStore) UpsertProducts(products []woo.Product) error {
	records, err := s.Load()
	if err != nil {
		return err
	}

	index := make(map[int64]int, len(records))
	for i := range records {
		index[records[i].ID] = i
	}

	now := s.now().Unix()
	for _, p := range products {
		hasImages := len(p.Images) > 0
		if i, ok := index[p.ID]; ok {
			records[i].Name = p.Name
			records[i].HasImages = hasImages
			records[i].ImageCount = len(p.Images)
			records[i].LastSynced = now
			continue
		}
		records = append(records, model.ProductRecord{
			ID:               p.ID,
			Name:             p.Name,
			Title:            p.Name, // 初始标题
			ShortDescription: p.ShortDescription,
			Description:      p.Description,
			Keywords:         "",
			HasImages:        hasImages,
			ImageCount:       len(p.Images),
			LastSynced:       now,
			LastEnriched:     "",
			PendingPush:      false,
		})
		index[p.ID] = len(records) - 1
	}

	return s.Save(records)
}

// ApplyEnrichment 写入校验通过的生成内容：
// 覆盖 title/short_description/description/keywords，
// 记 last_enriched 并标记 pending_push；id 不存在则 ErrRecordNotFound。
func (s *CSVStore) ApplyEnrichment(enriched model.EnrichedContent) error {
	records, err := s.Load()
	if err != nil {
		return err
	}

	found := -1
	for i := range records {
		if records[i].ID == enriched.ID {
			found = i
			break
		}
	}
	if found < 0 {
		return fmt.Errorf("商品 %d: %w", enriched.ID, ErrRecordNotFound)
	}

	rec := &records[found]
	rec.Title = enriched.Title
	rec.ShortDescription = enriched.ShortDescription
	rec.Description = enriched.Description
	rec.Keywords = enriched.Keywords
	rec.LastEnriched = strconv.FormatInt(s.now().Unix(), 10)
	rec.PendingPush = true

	return s.Save(records)
}

// ==================== 统计 ====================

// Stats 存储概要。空存储只返回 {count: 0}，不产出百分比字段；
// 百分比保留一位小数，平均描述长度按字符数取整
func (s *CSVStore) Stats() (map[string]any, error) {
	records, err := s.Load()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return map[string]any{"count": 0}, nil
	}

	n := len(records)
	withImages := 0
	enriched := 0
	pending := 0
	descTotal := 0
	for i := range records {
		if records[i].HasImages {
			withImages++
		}
		if records[i].LastEnriched != "" {
			enriched++
		}
		if records[i].PendingPush {
			pending++
		}
		descTotal += utf8.RuneCountInString(records[i].Description)
	}

	return map[string]any{
		"count":                  n,
		"with_images":            withImages,
		"with_images_pct":        round1(float64(withImages) / float64(n) * 100),
		"avg_description_length": descTotal / n,
		"enriched_count":         enriched,
		"enriched_pct":           round1(float64(enriched) / float64(n) * 100),
		"pending_push":           pending,
	}, nil
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}

// ==================== 行编解码 ====================

func formatRow(r *model.ProductRecord) []string {
	return []string{
		strconv.FormatInt(r.ID, 10),
		r.Name,
		r.Title,
		r.ShortDescription,
		r.Description,
		r.Keywords,
		strconv.FormatBool(r.HasImages),
		strconv.Itoa(r.ImageCount),
		strconv.FormatInt(r.LastSynced, 10),
		r.LastEnriched,
		strconv.FormatBool(r.PendingPush),
	}
}

func parseRow(row []string) (model.ProductRecord, error) {
	var rec model.ProductRecord
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("非法的 id %q: %w", row[0], err)
	}
	hasImages, err := strconv.ParseBool(row[6])
	if err != nil {
		return rec, fmt.Errorf("非法的 has_images %q: %w", row[6], err)
	}
	imageCount, err := strconv.Atoi(row[7])
	if err != nil {
		return rec, fmt.Errorf("非法的 image_count %q: %w", row[7], err)
	}
	lastSynced, err := strconv.ParseInt(row[8], 10, 64)
	if err != nil {
		return rec, fmt.Errorf("非法的 last_synced %q: %w", row[8], err)
	}
	pendingPush, err := strconv.ParseBool(row[10])
	if err != nil {
		return rec, fmt.Errorf("非法的 pending_push %q: %w", row[10], err)
	}

	rec = model.ProductRecord{
		ID:               id,
		Name:             row[1],
		Title:            row[2],
		ShortDescription: row[3],
		Description:      row[4],
		Keywords:         row[5],
		HasImages:        hasImages,
		ImageCount:       imageCount,
		LastSynced:       lastSynced,
		LastEnriched:     row[9],
		PendingPush:      pendingPush,
	}
	return rec, nil
}
