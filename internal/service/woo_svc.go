package service

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-resty/resty/v2"

	"woosync_v1_202608/internal/config"
	"woosync_v1_202608/pkg/woo"
)

// ==================== 接口定义 ====================

// WooAPI 远端商品目录接口（黑盒协作方，便于测试替换）
type WooAPI interface {
	FetchProducts(ctx context.Context, page, perPage int) ([]woo.Product, error)
	UpdateProduct(ctx context.Context, id int64, fields map[string]any) (*woo.Product, error)
	CreateProduct(ctx context.Context, payload *woo.Product) (*woo.Product, error)
}

// ==================== 服务 ====================

// WooService WooCommerce REST v3 客户端
type WooService struct {
	client *resty.Client
}

// NewWooService 创建客户端，consumer key/secret 走查询参数透传
func NewWooService(cfg *config.WooConfig) *WooService {
	client := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/wp-json/wc/v3").
		SetTimeout(cfg.Timeout()).
		SetHeader("User-Agent", "ProductSync-Go/1.0").
		SetQueryParams(map[string]string{
			"consumer_key":    cfg.ConsumerKey,
			"consumer_secret": cfg.ConsumerSecret,
		})
	return &WooService{client: client}
}

// FetchProducts 拉取一页商品
func (s *WooService) FetchProducts(ctx context.Context, page, perPage int) ([]woo.Product, error) {
	var products []woo.Product

	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"page":     strconv.Itoa(page),
			"per_page": strconv.Itoa(perPage),
		}).
		SetResult(&products).
		Get("/products")

	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("WooCommerce API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return products, nil
}

// UpdateProduct 更新单个商品的指定字段
func (s *WooService) UpdateProduct(ctx context.Context, id int64, fields map[string]any) (*woo.Product, error) {
	var updated woo.Product

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(fields).
		SetResult(&updated).
		Put(fmt.Sprintf("/products/%d", id))

	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("WooCommerce API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &updated, nil
}

// CreateProduct 创建商品
func (s *WooService) CreateProduct(ctx context.Context, payload *woo.Product) (*woo.Product, error) {
	var created woo.Product

	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(payload).
		SetResult(&created).
		Post("/products")

	if err != nil {
		return nil, fmt.Errorf("网络请求失败: %w", err)
	}
	// Woo 创建成功返回 201
	if resp.StatusCode() != http.StatusCreated && resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("WooCommerce API 异常 [%d]: %s", resp.StatusCode(), resp.String())
	}
	return &created, nil
}
