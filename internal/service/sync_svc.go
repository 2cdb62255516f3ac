package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path"

	"woosync_v1_202608/internal/config"
	"woosync_v1_202608/internal/model"
	"woosync_v1_202608/internal/store"
	"woosync_v1_202608/pkg/woo"
)

// ErrPushDisabled 回推安全门未打开
var ErrPushDisabled = errors.New("回推未启用，请先设置 push.enabled=true")

// Enricher 文案生成客户端接口
type Enricher interface {
	EnrichProduct(ctx context.Context, input EnrichmentInput) (*model.EnrichedContent, error)
}

// ==================== 服务 ====================

// SyncService 同步编排：拉取合并、enrich、回推、建品
type SyncService struct {
	store    *store.CSVStore
	api      WooAPI
	enricher Enricher
	storage  *StorageService // 可为 nil（未配置异地备份）

	pageSize    int
	pushEnabled bool
}

// NewSyncService 创建编排服务
func NewSyncService(st *store.CSVStore, api WooAPI, enricher Enricher, cfg *config.Config, storage *StorageService) *SyncService {
	pageSize := cfg.Woo.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}
	return &SyncService{
		store:       st,
		api:         api,
		enricher:    enricher,
		storage:     storage,
		pageSize:    pageSize,
		pushEnabled: cfg.Push.Enabled,
	}
}

// ==================== 同步 ====================

// Sync 逐页拉取远端商品并合并进本地存储，返回处理总数。
// 空页停止；页不满说明是最后一页，也停止。每页合并后立即落盘，
// 中途失败已同步的页不回滚。
func (s *SyncService) Sync(ctx context.Context, pages int) (int, error) {
	total := 0
	for page := 1; page <= pages; page++ {
		products, err := s.api.FetchProducts(ctx, page, s.pageSize)
		if err != nil {
			return total, err
		}
		if len(products) == 0 {
			break
		}

		if err := s.store.UpsertProducts(products); err != nil {
			return total, err
		}
		total += len(products)
		log.Printf("   >> 第 %d 页拉取 %d 条", page, len(products))

		if len(products) < s.pageSize {
			break
		}
	}

	s.uploadSnapshot(ctx)
	return total, nil
}

// uploadSnapshot 把最新备份传到异地存储，尽力而为，失败不影响同步结果
func (s *SyncService) uploadSnapshot(ctx context.Context) {
	if s.storage == nil {
		return
	}
	backup, err := s.store.LatestBackup()
	if err != nil || backup == "" {
		return
	}
	key := path.Base(backup)
	if _, err := s.storage.UploadFile(ctx, backup, key); err != nil {
		log.Printf("备份快照上传失败: %v", err)
	}
}

// ==================== Enrich ====================

// EnrichOne 对单个商品生成文案并写回存储。
// 分类信息本地不落盘，载荷里恒为空列表。
func (s *SyncService) EnrichOne(ctx context.Context, id int64) (*model.EnrichedContent, error) {
	records, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	var rec *model.ProductRecord
	for i := range records {
		if records[i].ID == id {
			rec = &records[i]
			break
		}
	}
	if rec == nil {
		return nil, fmt.Errorf("商品 %d 不在本地存储中，请先执行 sync: %w", id, store.ErrRecordNotFound)
	}

	input := EnrichmentInput{
		ID:               rec.ID,
		Name:             rec.Name,
		ShortDescription: rec.ShortDescription,
		Description:      rec.Description,
		Categories:       []string{},
	}

	content, err := s.enricher.EnrichProduct(ctx, input)
	if err != nil {
		return nil, err
	}

	if err := s.store.ApplyEnrichment(*content); err != nil {
		return nil, err
	}
	return content, nil
}

// ==================== 回推 ====================

// PushPending 把至多 limit 条 pending_push 记录按文件顺序回推远端，
// 全部成功后一次性落盘并返回已推送 id。单条失败立即中止且不落盘，
// 已推过的记录本地仍是 pending，下次重推（远端更新是覆盖幂等的）。
func (s *SyncService) PushPending(ctx context.Context, limit int) ([]int64, error) {
	if !s.pushEnabled {
		return nil, ErrPushDisabled
	}
	if limit <= 0 {
		limit = 10
	}

	records, err := s.store.Load()
	if err != nil {
		return nil, err
	}

	pushed := make([]int64, 0, limit)
	for i := range records {
		if len(pushed) >= limit {
			break
		}
		rec := &records[i]
		if !rec.PendingPush {
			continue
		}

		fields := map[string]any{
			"name":              rec.Title,
			"short_description": rec.ShortDescription,
			"description":       rec.Description,
		}
		if _, err := s.api.UpdateProduct(ctx, rec.ID, fields); err != nil {
			return nil, fmt.Errorf("回推商品 %d 失败: %w", rec.ID, err)
		}

		rec.PendingPush = false
		pushed = append(pushed, rec.ID)
	}

	if len(pushed) > 0 {
		if err := s.store.Save(records); err != nil {
			return nil, err
		}
	}
	return pushed, nil
}

// ==================== 建品 ====================

// CreateProductInput 建品参数。Price 是字符串金额（Woo API 约定）
type CreateProductInput struct {
	Name             string
	Price            string
	Description      string
	ShortDescription string
	Images           []string
	Status           string // draft | publish，默认 draft
}

// CreateProduct 在远端创建商品并立即合并进本地存储，
// 后续命令不用再单独 sync 就能看到它
func (s *SyncService) CreateProduct(ctx context.Context, in CreateProductInput) (*woo.Product, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("商品名称不能为空")
	}
	if in.Price == "" {
		return nil, fmt.Errorf("商品价格不能为空")
	}
	status := in.Status
	if status == "" {
		status = "draft"
	}
	if status != "draft" && status != "publish" {
		return nil, fmt.Errorf("无效的 status: %s（只支持 draft/publish）", in.Status)
	}

	payload := &woo.Product{
		Name:             in.Name,
		Type:             "simple",
		Status:           status,
		RegularPrice:     in.Price,
		Description:      in.Description,
		ShortDescription: in.ShortDescription,
	}
	for _, src := range in.Images {
		payload.Images = append(payload.Images, woo.ProductImage{Src: src})
	}

	created, err := s.api.CreateProduct(ctx, payload)
	if err != nil {
		return nil, err
	}

	if err := s.store.UpsertProducts([]woo.Product{*created}); err != nil {
		return nil, err
	}
	return created, nil
}

// ==================== 查询 ====================

// Stats 存储概要统计
func (s *SyncService) Stats() (map[string]any, error) {
	return s.store.Stats()
}

// ListProducts 分页读取本地记录，返回当页数据和总数
func (s *SyncService) ListProducts(page, pageSize int) ([]model.ProductRecord, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}

	records, err := s.store.Load()
	if err != nil {
		return nil, 0, err
	}

	total := len(records)
	start := (page - 1) * pageSize
	if start >= total {
		return []model.ProductRecord{}, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return records[start:end], total, nil
}
