package main

import "github.com/xpzouying/xlsx-image-embed/pkg/embedder"

// HTTP API 响应类型

// ErrorResponse 错误响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Details any    `json:"details,omitempty"`
}

// SuccessResponse 成功响应
type SuccessResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data"`
	Message string `json:"message,omitempty"`
}

// MCP 相关类型（用于内部转换）

// MCPToolResult MCP 工具结果（内部使用）
type MCPToolResult struct {
	Content []MCPContent `json:"content"`
	IsError bool         `json:"isError,omitempty"`
}

// MCPContent MCP 内容（内部使用），目前只有文本
type MCPContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// RunRequest 处理请求
type RunRequest struct {
	InputPath        string `json:"input_path" binding:"required"`
	SheetName        string `json:"sheet_name,omitempty"`
	Webhook          string `json:"webhook,omitempty"` // 可选：处理完成后回调的 URL
	AnnotateFailures bool   `json:"annotate_failures,omitempty"`
	AutoFitText      bool   `json:"autofit_text,omitempty"`
}

// RunResponse 处理结果
type RunResponse struct {
	Result      *embedder.RunResult `json:"result"`
	OutputName  string              `json:"output_name"`
	DownloadURL string              `json:"download_url"`
	ReportURL   string              `json:"report_url"`
}

// ClassifyRequest 判断单元格内容是否为图片链接
type ClassifyRequest struct {
	Value string `json:"value"`
}

// ClassifyResponse 判断结果
type ClassifyResponse struct {
	Value      string `json:"value"`
	IsImageURL bool   `json:"is_image_url"`
	Extension  string `json:"extension,omitempty"`
}
