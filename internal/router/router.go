package router

import (
	"github.com/gin-gonic/gin"

	"woosync_v1_202608/internal/controller"
)

// SetupRouter 注册所有路由
func SetupRouter(syncCtl *controller.SyncController) *gin.Engine {
	r := gin.Default()

	// API 路由组
	api := r.Group("/api")
	{
		// products 本地商品
		products := api.Group("/products")
		{
			// GET /api/products
			products.GET("", syncCtl.GetProducts)
			// POST /api/products/:id/enrich
			products.POST("/:id/enrich", syncCtl.PostEnrich)
		}

		// GET /api/stats
		api.GET("/stats", syncCtl.GetStats)

		// POST /api/sync
		api.POST("/sync", syncCtl.PostSync)

		// POST /api/push（受 push.enabled 安全门保护）
		api.POST("/push", syncCtl.PostPush)
	}

	return r
}
