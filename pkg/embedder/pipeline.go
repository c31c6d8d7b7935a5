// Package embedder 读取包含图片链接的 Excel，下载图片并嵌入到对应单元格。
//
// 处理顺序为行优先，一次处理一条记录。单个单元格失败不会影响其他单元格，
// 只有输入文件无法读取（或输出文件无法保存）才会中断整个任务。
package embedder

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/xpzouying/xlsx-image-embed/configs"
	"github.com/xpzouying/xlsx-image-embed/errors"
	"github.com/xpzouying/xlsx-image-embed/pkg/downloader"
	"github.com/xpzouying/xlsx-image-embed/pkg/fitter"
	"github.com/xpzouying/xlsx-image-embed/pkg/imageconv"
)

// OutputPrefix 输出文件名前缀
const OutputPrefix = "output_embedded_"

// Fetcher 把图片 URL 变成可以嵌入的本地图片
type Fetcher interface {
	Acquire(ctx context.Context, url string, onStage func(downloader.Stage)) (*downloader.Artifact, error)
}

// Pipeline 图片嵌入流程
type Pipeline struct {
	fetcher    Fetcher
	cellWidth  float64
	cellHeight float64
	policy     fitter.Policy
	outputDir  string
	progress   ProgressFunc
	annotate   bool
	autoFit    bool
}

// New 创建 Pipeline
func New(fetcher Fetcher, opts ...Option) *Pipeline {
	p := defaultPipeline()
	p.fetcher = fetcher
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// OutputPath 输入文件对应的输出路径
func (p *Pipeline) OutputPath(inputPath string) string {
	return filepath.Join(p.outputDir, OutputPrefix+filepath.Base(inputPath))
}

// Run 处理 inputPath 中名为 sheetName 的工作表（为空时使用 Sheet1）。
// 输入无法读取时返回 ErrInputUnreadable，此时不会产生任何输出。
func (p *Pipeline) Run(ctx context.Context, inputPath, sheetName string) (*RunResult, error) {
	if sheetName == "" {
		sheetName = configs.DefaultSheetName
	}

	startedAt := time.Now()
	logrus.Infof("开始处理: %s (工作表 %s)", inputPath, sheetName)

	in, err := excelize.OpenFile(inputPath)
	if err != nil {
		return nil, errors.Mark(errors.ErrInputUnreadable, err)
	}
	defer in.Close()

	if idx, err := in.GetSheetIndex(sheetName); err != nil || idx < 0 {
		return nil, errors.Wrapf(errors.ErrInputUnreadable, "sheet %q not found in %s", sheetName, filepath.Base(inputPath))
	}

	scan, err := scanSheet(in, sheetName)
	if err != nil {
		return nil, errors.Mark(errors.ErrInputUnreadable, err)
	}

	if r, ok := p.fetcher.(interface{ Reset() }); ok {
		r.Reset()
	}

	wb, err := newWorkbook(in, sheetName)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create output workbook")
	}
	defer wb.close()

	if err := wb.layout(scan, p.cellWidth, p.cellHeight, p.autoFit); err != nil {
		return nil, errors.Wrap(err, "failed to set cell size")
	}

	result := &RunResult{
		InputPath: inputPath,
		SheetName: sheetName,
		Total:     len(scan.links),
		StartedAt: startedAt,
		Failures:  []CellFailure{},
	}

	for i, link := range scan.links {
		failure := p.process(ctx, wb, link)
		state := StateEmbedded
		if failure != nil {
			state = StateFailed
			result.FailureCount++
			result.Failures = append(result.Failures, *failure)
			if p.annotate {
				wb.annotate(link.Cell, "图片插入失败: "+failure.Reason)
			}
		} else {
			result.SuccessCount++
		}

		if p.progress != nil {
			done := i + 1
			avg := time.Since(startedAt) / time.Duration(done)
			p.progress(Progress{
				Index:     done,
				Total:     result.Total,
				Success:   result.SuccessCount,
				Failure:   result.FailureCount,
				Remaining: avg * time.Duration(result.Total-done),
				Cell:      link.Cell,
				URL:       link.URL,
				State:     state,
			})
		}
	}

	// 普通单元格原样写入
	for _, v := range scan.values {
		if err := wb.writeValue(v); err != nil {
			return nil, errors.Wrapf(err, "failed to write cell %s", v.Cell.Name())
		}
	}
	wb.merge(scan.merges)

	outputPath := p.OutputPath(inputPath)
	if err := os.MkdirAll(filepath.Dir(outputPath), 0755); err != nil {
		return nil, errors.Wrap(err, "failed to create output dir")
	}
	if err := wb.out.SaveAs(outputPath); err != nil {
		return nil, errors.Wrapf(err, "failed to save %s", outputPath)
	}

	result.OutputPath = outputPath
	result.Elapsed = time.Since(startedAt)
	result.ElapsedSeconds = result.Elapsed.Seconds()

	logrus.Infof("%s，输出: %s", result.Summary(), outputPath)
	return result, nil
}

// process 处理单条记录，成功返回 nil
func (p *Pipeline) process(ctx context.Context, wb *workbook, link ImageLink) *CellFailure {
	rec := newRecord(link)

	artifact, err := p.fetcher.Acquire(ctx, link.URL, func(stage downloader.Stage) {
		switch stage {
		case downloader.StageFetching:
			rec.moveTo(StateFetching)
		case downloader.StageNormalizing:
			rec.moveTo(StateNormalizing)
		}
	})
	if err != nil {
		return rec.fail(err)
	}

	rec.moveTo(StateFitting)
	scale, err := fitter.Fit(artifact.Width, artifact.Height, p.cellWidth, p.cellHeight, p.policy)
	if err != nil {
		return rec.fail(errors.Mark(errors.ErrEmbed, err))
	}

	ext, ok := imageconv.EmbedExtension(artifact.Format)
	if !ok {
		return rec.fail(errors.Wrapf(errors.ErrEmbed, "format %s can not be embedded", artifact.Format))
	}

	err = wb.out.AddPictureFromBytes(wb.sheet, link.Cell.Name(), &excelize.Picture{
		Extension: ext,
		File:      artifact.Data,
		Format: &excelize.GraphicOptions{
			AltText:         link.URL,
			ScaleX:          scale,
			ScaleY:          scale,
			LockAspectRatio: true,
			Positioning:     "oneCell",
		},
	})
	if err != nil {
		return rec.fail(errors.Mark(errors.ErrEmbed, err))
	}

	rec.moveTo(StateEmbedded)
	return nil
}
