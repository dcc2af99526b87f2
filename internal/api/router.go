// Package api 健康检查与牌局状态 HTTP 接口
package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sudooom.set/internal/health"
)

// SetupRouter 设置路由
func SetupRouter(mode string, checker *health.Checker, games *GameHandler) *gin.Engine {
	gin.SetMode(mode)

	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", gin.WrapH(checker))
	r.GET("/ready", func(c *gin.Context) {
		if checker.IsHealthy(c.Request.Context()) {
			c.String(http.StatusOK, "OK")
		} else {
			c.String(http.StatusServiceUnavailable, "Not Ready")
		}
	})

	v1 := r.Group("/api/v1")
	{
		g := v1.Group("/games")
		{
			g.GET("", games.List)
			g.POST("", games.Launch)
			g.GET("/:id", games.Get)
			g.DELETE("/:id", games.Stop)
		}
	}

	return r
}
