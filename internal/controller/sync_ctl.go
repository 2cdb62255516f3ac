package controller

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"woosync_v1_202608/internal/service"
	"woosync_v1_202608/internal/store"
)

// SyncController serve 模式下的命令面 HTTP 绑定，逻辑全部在 service 层
type SyncController struct {
	syncService *service.SyncService
}

func NewSyncController(syncService *service.SyncService) *SyncController {
	return &SyncController{syncService: syncService}
}

// ==================== 查询接口 ====================

// GetProducts 获取本地商品列表
func (ctrl *SyncController) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	records, total, err := ctrl.syncService.ListProducts(page, pageSize)
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "查询失败: " + err.Error()})
		return
	}

	c.JSON(200, gin.H{
		"code":      0,
		"message":   "success",
		"data":      records,
		"total":     total,
		"page":      page,
		"page_size": pageSize,
	})
}

// GetStats 获取存储概要统计
func (ctrl *SyncController) GetStats(c *gin.Context) {
	stats, err := ctrl.syncService.Stats()
	if err != nil {
		c.JSON(500, gin.H{"code": 500, "message": "统计失败: " + err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": stats})
}

// ==================== 操作接口 ====================

// PostSync 触发一次同步
func (ctrl *SyncController) PostSync(c *gin.Context) {
	pages, err := strconv.Atoi(c.DefaultQuery("pages", "1"))
	if err != nil || pages <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的 pages"})
		return
	}

	total, err := ctrl.syncService.Sync(c.Request.Context(), pages)
	if err != nil {
		c.JSON(502, gin.H{"code": 502, "message": "同步失败: " + err.Error(), "synced": total})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "synced": total})
}

// PostEnrich 对单个商品生成文案
func (ctrl *SyncController) PostEnrich(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的商品 id"})
		return
	}

	content, err := ctrl.syncService.EnrichOne(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrRecordNotFound) {
			c.JSON(404, gin.H{"code": 404, "message": err.Error()})
			return
		}
		c.JSON(502, gin.H{"code": 502, "message": "enrich 失败: " + err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "data": content})
}

// PostPush 回推 pending 记录
func (ctrl *SyncController) PostPush(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil || limit <= 0 {
		c.JSON(400, gin.H{"code": 400, "message": "无效的 limit"})
		return
	}

	pushed, err := ctrl.syncService.PushPending(c.Request.Context(), limit)
	if err != nil {
		if errors.Is(err, service.ErrPushDisabled) {
			c.JSON(403, gin.H{"code": 403, "message": err.Error()})
			return
		}
		c.JSON(502, gin.H{"code": 502, "message": "回推失败: " + err.Error()})
		return
	}
	c.JSON(200, gin.H{"code": 0, "message": "success", "pushed": pushed})
}
