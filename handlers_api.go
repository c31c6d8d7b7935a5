package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/errors"
	"github.com/xpzouying/xlsx-image-embed/pkg/report"
)

// 后台任务的超时时间
const asyncRunTimeout = 30 * time.Minute

// respondError 返回错误响应
func respondError(c *gin.Context, statusCode int, code, message string, details any) {
	response := ErrorResponse{
		Error:   message,
		Code:    code,
		Details: details,
	}

	logrus.Errorf("%s %s %d %s", c.Request.Method, c.Request.URL.Path, statusCode, code)

	c.JSON(statusCode, response)
}

// respondSuccess 返回成功响应
func respondSuccess(c *gin.Context, data any, message string) {
	response := SuccessResponse{
		Success: true,
		Data:    data,
		Message: message,
	}

	if respBytes, err := json.Marshal(response); err == nil {
		logrus.Debugf("发送成功响应: %s", string(respBytes))
	}

	logrus.Infof("%s %s %d", c.Request.Method, c.Request.URL.Path, http.StatusOK)

	c.JSON(http.StatusOK, response)
}

// respondRunError 按错误类型返回对应的状态码
func respondRunError(c *gin.Context, err error) {
	if errors.Is(err, errors.ErrInputUnreadable) {
		respondError(c, http.StatusBadRequest, "INPUT_UNREADABLE",
			"无法读取输入文件或工作表", err.Error())
		return
	}
	respondError(c, http.StatusInternalServerError, "RUN_FAILED",
		"处理失败", err.Error())
}

// embedHandler 处理 Excel 中的图片链接
//
// 不带 webhook 时同步处理并返回结果；
// 带 webhook 时立即返回 202 Accepted，处理完成后通过 webhook 通知结果。
func (s *AppServer) embedHandler(c *gin.Context) {
	var req RunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"请求参数错误", err.Error())
		return
	}

	if req.Webhook == "" {
		resp, err := s.embedService.Run(c.Request.Context(), &req, nil)
		if err != nil {
			respondRunError(c, err)
			return
		}
		respondSuccess(c, resp, resp.Result.Summary())
		return
	}

	if err := validateWebhookURL(req.Webhook); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_WEBHOOK",
			"webhook 参数错误", err.Error())
		return
	}

	// 立即返回 202 Accepted
	c.JSON(http.StatusAccepted, SuccessResponse{
		Success: true,
		Data: map[string]any{
			"status":  "accepted",
			"message": "处理请求已接受，正在后台处理",
			"webhook": req.Webhook,
		},
		Message: "请求已接受，处理结果将通过 webhook 通知",
	})

	go s.runAsync(req)
}

// runAsync 后台执行处理并发送 webhook
func (s *AppServer) runAsync(req RunRequest) {
	// 创建独立的 context，请求结束后任务继续执行
	ctx, cancel := context.WithTimeout(context.Background(), asyncRunTimeout)
	defer cancel()

	logrus.Infof("开始异步处理 %s，webhook: %s", req.InputPath, req.Webhook)

	resp, err := s.embedService.Run(ctx, &req, nil)
	if err != nil {
		logrus.Errorf("异步处理失败: %v", err)
		s.embedService.webhookSender.SendAsync(req.Webhook, WebhookPayload{
			Event: EventRunFailed,
			Input: req.InputPath,
			Error: err.Error(),
		})
		return
	}

	s.embedService.webhookSender.SendAsync(req.Webhook, WebhookPayload{
		Event: EventRunCompleted,
		Input: req.InputPath,
		Data:  resp,
	})
}

// uploadHandler 上传 Excel 并处理
//
// HTTP API 端点：POST /api/v1/embed/upload
//
// 表单参数：
//
//	file: .xlsx 文件
//	sheet_name: 工作表名称（默认 Sheet1）
func (s *AppServer) uploadHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"缺少上传文件", err.Error())
		return
	}

	req := RunRequest{
		SheetName:        c.PostForm("sheet_name"),
		AnnotateFailures: c.PostForm("annotate_failures") == "true",
		AutoFitText:      c.PostForm("autofit_text") == "true",
	}
	resp, err := s.embedService.RunUpload(c.Request.Context(), file, c.SaveUploadedFile, &req)
	if err != nil {
		if errors.Is(err, ErrNotXLSX) || errors.Is(err, ErrInvalidName) {
			respondError(c, http.StatusBadRequest, "INVALID_FILE", "文件不合法", err.Error())
			return
		}
		respondRunError(c, err)
		return
	}

	respondSuccess(c, resp, resp.Result.Summary())
}

// downloadHandler 下载处理后的 Excel
func (s *AppServer) downloadHandler(c *gin.Context) {
	name := c.Param("name")

	p, err := s.embedService.OutputFile(name)
	if err != nil {
		if errors.Is(err, ErrInvalidName) {
			respondError(c, http.StatusBadRequest, "INVALID_NAME", "文件名不合法", err.Error())
			return
		}
		respondError(c, http.StatusNotFound, "NOT_FOUND", "文件不存在", err.Error())
		return
	}

	c.FileAttachment(p, name)
}

// reportHandler 获取运行报告
func (s *AppServer) reportHandler(c *gin.Context) {
	name := c.Param("name")

	result, err := s.embedService.LoadReport(name)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrInvalidName):
			respondError(c, http.StatusBadRequest, "INVALID_NAME", "文件名不合法", err.Error())
		case errors.Is(err, report.ErrNotFound):
			respondError(c, http.StatusNotFound, "NOT_FOUND", "报告不存在", err.Error())
		default:
			respondError(c, http.StatusInternalServerError, "REPORT_FAILED", "读取报告失败", err.Error())
		}
		return
	}

	respondSuccess(c, result, "获取运行报告成功")
}

// classifyHandler 判断单元格内容是否为图片链接
func (s *AppServer) classifyHandler(c *gin.Context) {
	var req ClassifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "INVALID_REQUEST",
			"请求参数错误", err.Error())
		return
	}

	respondSuccess(c, s.embedService.Classify(req.Value), "判断完成")
}

// healthHandler 健康检查
func (s *AppServer) healthHandler(c *gin.Context) {
	respondSuccess(c, map[string]any{
		"status":       "healthy",
		"service":      "xlsx-image-embed",
		"mcp_sessions": s.sessionManager.Count(),
		"timestamp":    time.Now().Unix(),
	}, "服务正常")
}
