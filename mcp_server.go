package main

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/sirupsen/logrus"
)

// MCP 工具参数结构体定义

// EmbedImagesArgs 处理 Excel 的参数
type EmbedImagesArgs struct {
	InputPath        string `json:"input_path" jsonschema:"输入 .xlsx 文件的本地绝对路径"`
	SheetName        string `json:"sheet_name,omitempty" jsonschema:"工作表名称（可选，默认 Sheet1）"`
	AnnotateFailures bool   `json:"annotate_failures,omitempty" jsonschema:"是否在插入失败的单元格上添加批注说明原因"`
	AutoFitText      bool   `json:"autofit_text,omitempty" jsonschema:"是否按文字宽度自动调整纯文字列的列宽"`
}

// ClassifyCellArgs 判断单元格内容的参数
type ClassifyCellArgs struct {
	Value string `json:"value" jsonschema:"单元格文本内容"`
}

// RunReportArgs 获取运行报告的参数
type RunReportArgs struct {
	OutputName string `json:"output_name" jsonschema:"输出文件名，如 output_embedded_goods.xlsx，从 embed_images 的结果中获取"`
}

// InitMCPServer 初始化 MCP Server
func InitMCPServer(appServer *AppServer) *mcp.Server {
	// 创建 MCP Server
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "xlsx-image-embed",
			Version: "1.0.0",
		},
		nil,
	)

	// 注册所有工具
	registerTools(server, appServer)

	logrus.Debug("MCP Server initialized with official SDK")

	return server
}

// registerTools 注册所有 MCP 工具
func registerTools(server *mcp.Server, appServer *AppServer) {
	// 工具 1: 处理 Excel
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "embed_images",
			Description: "下载 Excel 工作表中的图片链接并嵌入到对应单元格，返回成功/失败数量、耗时和输出文件路径",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args EmbedImagesArgs) (*mcp.CallToolResult, any, error) {
			logrus.Infof("MCP Server: 收到处理请求，args: %+v", args)
			result := appServer.handleEmbedImages(ctx, &RunRequest{
				InputPath:        args.InputPath,
				SheetName:        args.SheetName,
				AnnotateFailures: args.AnnotateFailures,
				AutoFitText:      args.AutoFitText,
			})
			return convertToMCPResult(result), nil, nil
		},
	)

	// 工具 2: 判断单元格内容
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "classify_cell",
			Description: "判断单元格内容是否会被识别为图片链接",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args ClassifyCellArgs) (*mcp.CallToolResult, any, error) {
			result := appServer.handleClassifyCell(args.Value)
			return convertToMCPResult(result), nil, nil
		},
	)

	// 工具 3: 获取运行报告
	mcp.AddTool(server,
		&mcp.Tool{
			Name:        "get_run_report",
			Description: "获取某次处理的运行报告，包含每个失败单元格的位置、链接和原因",
		},
		func(ctx context.Context, req *mcp.CallToolRequest, args RunReportArgs) (*mcp.CallToolResult, any, error) {
			result := appServer.handleGetRunReport(args.OutputName)
			return convertToMCPResult(result), nil, nil
		},
	)

	logrus.Debugf("Registered %d MCP tools", 3)
}

// convertToMCPResult 将自定义的 MCPToolResult 转换为官方 SDK 的格式
func convertToMCPResult(result *MCPToolResult) *mcp.CallToolResult {
	var contents []mcp.Content
	for _, c := range result.Content {
		contents = append(contents, &mcp.TextContent{Text: c.Text})
	}

	return &mcp.CallToolResult{
		Content: contents,
		IsError: result.IsError,
	}
}
