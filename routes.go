package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// setupRoutes 设置路由配置
func setupRoutes(appServer *AppServer) *gin.Engine {
	// 设置 Gin 模式
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// 添加中间件
	router.Use(errorHandlingMiddleware())
	router.Use(corsMiddleware())

	// 上传文件大小限制
	router.MaxMultipartMemory = 32 << 20

	// 健康检查
	router.GET("/health", appServer.healthHandler)

	// MCP 端点 - 使用官方 SDK 的 Streamable HTTP Handler
	// 使用会话管理器为每个唯一会话维护独立的MCP Server实例
	mcpHandler := mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server {
			// HTTP客户端应该在Header中提供 X-Session-Id
			sessionID := r.Header.Get("X-Session-Id")
			if sessionID == "" {
				// 如果没有提供会话ID，使用远程地址作为会话标识
				sessionID = r.RemoteAddr
			}

			return appServer.sessionManager.GetOrCreateSession(sessionID)
		},
		&mcp.StreamableHTTPOptions{
			JSONResponse: true, // 支持 JSON 响应
		},
	)
	router.POST("/mcp", gin.WrapH(mcpHandler))
	router.POST("/mcp/*path", gin.WrapH(mcpHandler))

	// API 路由组
	api := router.Group("/api/v1")
	{
		api.POST("/embed", appServer.embedHandler)
		api.POST("/embed/upload", appServer.uploadHandler)
		api.GET("/outputs/:name", appServer.downloadHandler)
		api.GET("/reports/:name", appServer.reportHandler)
		api.POST("/classify", appServer.classifyHandler)
	}

	return router
}
