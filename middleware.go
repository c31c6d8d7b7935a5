package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// errorHandlingMiddleware 统一处理 handler 中 c.Error 记录的错误
func errorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last()
		logrus.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err.Err)

		if !c.Writer.Written() {
			c.JSON(http.StatusInternalServerError, ErrorResponse{
				Error:   "服务器内部错误",
				Code:    "INTERNAL_ERROR",
				Details: err.Error(),
			})
		}
	}
}

// corsMiddleware 允许跨域访问
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Session-Id, Mcp-Session-Id")
		c.Header("Access-Control-Expose-Headers", "Content-Disposition, Mcp-Session-Id")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
