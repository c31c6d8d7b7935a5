package main

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sirupsen/logrus"
)

// MCP 工具处理函数

func textResult(text string) *MCPToolResult {
	return &MCPToolResult{
		Content: []MCPContent{{
			Type: "text",
			Text: text,
		}},
	}
}

func errorResult(text string) *MCPToolResult {
	result := textResult(text)
	result.IsError = true
	return result
}

// jsonResult 摘要 + JSON 详情
func jsonResult(summary string, data any) *MCPToolResult {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("序列化结果失败: %v", err))
	}
	return textResult(summary + "\n\n" + string(jsonData))
}

// handleEmbedImages 处理 Excel 中的图片链接
func (s *AppServer) handleEmbedImages(ctx context.Context, req *RunRequest) *MCPToolResult {
	logrus.Infof("MCP: 处理 Excel %s", req.InputPath)

	if req.InputPath == "" {
		return errorResult("处理失败: 缺少 input_path 参数")
	}

	resp, err := s.embedService.Run(ctx, req, nil)
	if err != nil {
		return errorResult("处理失败: " + err.Error())
	}

	return jsonResult(resp.Result.Summary(), resp)
}

// handleClassifyCell 判断单元格内容
func (s *AppServer) handleClassifyCell(value string) *MCPToolResult {
	resp := s.embedService.Classify(value)
	if resp.IsImageURL {
		return textResult(fmt.Sprintf("是图片链接（扩展名 %s）: %s", resp.Extension, value))
	}
	return textResult("不是图片链接，将原样保留: " + value)
}

// handleGetRunReport 获取运行报告
func (s *AppServer) handleGetRunReport(outputName string) *MCPToolResult {
	logrus.Infof("MCP: 获取运行报告 %s", outputName)

	result, err := s.embedService.LoadReport(outputName)
	if err != nil {
		return errorResult("获取运行报告失败: " + err.Error())
	}

	return jsonResult(result.Summary(), result)
}
