package main

import (
	"context"
	"mime/multipart"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/configs"
	"github.com/xpzouying/xlsx-image-embed/pkg/downloader"
	"github.com/xpzouying/xlsx-image-embed/pkg/embedder"
	"github.com/xpzouying/xlsx-image-embed/pkg/fitter"
	"github.com/xpzouying/xlsx-image-embed/pkg/report"
)

var (
	ErrInvalidName = errors.New("invalid file name")
	ErrNotXLSX     = errors.New("only .xlsx files are supported")
)

// EmbedService 图片嵌入服务。同一时间只运行一个任务，缓存目录不支持并发写。
type EmbedService struct {
	mu sync.Mutex

	processor     *downloader.ImageProcessor
	reports       report.Store
	webhookSender *WebhookSender
	outputDir     string
	uploadsDir    string
}

// NewEmbedService 创建服务实例，目录取自 configs
func NewEmbedService() (*EmbedService, error) {
	d, err := downloader.NewImageDownloader(
		configs.GetImagesPath(),
		downloader.WithConvertedPath(configs.GetConvertedPath()),
	)
	if err != nil {
		return nil, err
	}

	return &EmbedService{
		processor:     downloader.NewImageProcessor(d, configs.GetConvertedPath()),
		reports:       report.NewLocalStore(configs.GetReportsPath()),
		webhookSender: NewWebhookSender(),
		outputDir:     configs.GetOutputPath(),
		uploadsDir:    configs.GetUploadsPath(),
	}, nil
}

// Run 执行一次处理并保存运行报告
func (s *EmbedService) Run(ctx context.Context, req *RunRequest, progress embedder.ProgressFunc) (*RunResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.run(ctx, req, progress)
}

// RunUpload 保存上传文件并立即处理。保存和处理在同一把锁内完成，
// 同名文件的并发上传不会互相覆盖正在处理的输入。
func (s *EmbedService) RunUpload(ctx context.Context, file *multipart.FileHeader, save func(*multipart.FileHeader, string) error, req *RunRequest) (*RunResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	inputPath, err := s.saveUpload(file, save)
	if err != nil {
		return nil, err
	}
	req.InputPath = inputPath
	return s.run(ctx, req, nil)
}

func (s *EmbedService) run(ctx context.Context, req *RunRequest, progress embedder.ProgressFunc) (*RunResponse, error) {
	pipeline := embedder.New(s.processor,
		embedder.WithOutputDir(s.outputDir),
		embedder.WithPolicy(fitter.ParsePolicy(string(configs.GetScalePolicy()))),
		embedder.WithAnnotateFailures(req.AnnotateFailures),
		embedder.WithAutoFitText(req.AutoFitText),
		embedder.WithProgress(progress),
	)

	result, err := pipeline.Run(ctx, req.InputPath, req.SheetName)
	if err != nil {
		logrus.Errorf("处理失败: %s %v", req.InputPath, err)
		return nil, err
	}

	outputName := filepath.Base(result.OutputPath)
	if err := s.reports.Save(outputName, result); err != nil {
		// 报告只是附加信息，保存失败不影响结果
		logrus.Warnf("保存运行报告失败: %v", err)
	}

	return &RunResponse{
		Result:      result,
		OutputName:  outputName,
		DownloadURL: "/api/v1/outputs/" + url.PathEscape(outputName),
		ReportURL:   "/api/v1/reports/" + url.PathEscape(outputName),
	}, nil
}

// saveUpload 保存上传的 Excel 文件，返回本地路径。调用方需持有 s.mu
func (s *EmbedService) saveUpload(file *multipart.FileHeader, save func(*multipart.FileHeader, string) error) (string, error) {
	name := filepath.Base(file.Filename)
	if !report.ValidName(name) {
		return "", errors.Wrap(ErrInvalidName, file.Filename)
	}
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return "", errors.Wrap(ErrNotXLSX, name)
	}

	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return "", errors.Wrap(err, "failed to create upload dir")
	}

	dst := filepath.Join(s.uploadsDir, name)
	if err := save(file, dst); err != nil {
		return "", errors.Wrap(err, "failed to save upload")
	}

	logrus.Infof("已保存上传文件: %s (%d bytes)", dst, file.Size)
	return dst, nil
}

// OutputFile 输出文件的本地路径，拒绝任何包含路径的名称
func (s *EmbedService) OutputFile(name string) (string, error) {
	if !report.ValidName(name) {
		return "", errors.Wrap(ErrInvalidName, name)
	}

	p := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(p); err != nil {
		return "", errors.Wrap(err, "output not found")
	}
	return p, nil
}

// LoadReport 读取运行报告
func (s *EmbedService) LoadReport(outputName string) (*embedder.RunResult, error) {
	return s.reports.Load(outputName)
}

// Classify 判断单元格内容是否为图片链接
func (s *EmbedService) Classify(value string) *ClassifyResponse {
	resp := &ClassifyResponse{
		Value:      value,
		IsImageURL: downloader.IsImageURL(value),
	}
	if resp.IsImageURL {
		resp.Extension = downloader.GuessExtension(value)
	}
	return resp
}
