package downloader

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/errors"
	"github.com/xpzouying/xlsx-image-embed/pkg/imageconv"
)

// Stage 图片获取过程中的阶段
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageNormalizing Stage = "normalizing"
)

// Artifact 已经可以嵌入表格的本地图片
type Artifact struct {
	URL       string           `json:"url"`
	Path      string           `json:"path"`
	Format    imageconv.Format `json:"format"`
	Width     int              `json:"width"`
	Height    int              `json:"height"`
	Converted bool             `json:"converted"`
	Data      []byte           `json:"-"`
}

type acquired struct {
	artifact *Artifact
	err      error
}

// ImageProcessor 图片处理器：下载 → 识别格式 → 必要时转换 → 读取尺寸。
// 同一个 URL 在一次任务中只处理一次。
type ImageProcessor struct {
	downloader    *ImageDownloader
	convertedPath string

	mu   sync.Mutex
	seen map[string]acquired
}

// NewImageProcessor 创建图片处理器
func NewImageProcessor(downloader *ImageDownloader, convertedPath string) *ImageProcessor {
	if convertedPath == "" {
		convertedPath = filepath.Join(downloader.savePath, "converted")
	}
	return &ImageProcessor{
		downloader:    downloader,
		convertedPath: convertedPath,
		seen:          make(map[string]acquired),
	}
}

// Reset 清空本次任务的 URL 去重记录，磁盘缓存不受影响
func (p *ImageProcessor) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seen = make(map[string]acquired)
}

// Acquire 获取 URL 对应的图片。onStage 在进入每个阶段前被调用，可以为 nil。
// 重复的 URL 直接返回第一次的结果（包括失败）。
func (p *ImageProcessor) Acquire(ctx context.Context, imageURL string, onStage func(Stage)) (*Artifact, error) {
	if onStage == nil {
		onStage = func(Stage) {}
	}

	p.mu.Lock()
	prev, ok := p.seen[imageURL]
	p.mu.Unlock()
	if ok {
		logrus.Debugf("URL 已处理过，复用结果: %s", imageURL)
		onStage(StageFetching)
		return prev.artifact, prev.err
	}

	artifact, err := p.acquire(ctx, imageURL, onStage)

	// 被取消的请求不记录，避免污染后续调用
	if ctx.Err() == nil {
		p.mu.Lock()
		p.seen[imageURL] = acquired{artifact: artifact, err: err}
		p.mu.Unlock()
	}
	return artifact, err
}

func (p *ImageProcessor) acquire(ctx context.Context, imageURL string, onStage func(Stage)) (*Artifact, error) {
	onStage(StageFetching)
	localPath, err := p.downloader.Fetch(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, errors.Mark(errors.ErrFetch, err)
	}

	format, err := imageconv.Detect(data)
	if err != nil {
		return nil, errors.Wrapf(err, "detect %s", localPath)
	}

	artifact := &Artifact{URL: imageURL, Path: localPath, Format: format, Data: data}

	if imageconv.NeedsNormalization(format) {
		onStage(StageNormalizing)

		converted, err := imageconv.Normalize(localPath, p.convertedPath)
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(converted)
		if err != nil {
			return nil, errors.Mark(errors.ErrNormalize, err)
		}
		artifact.Path = converted
		artifact.Format = imageconv.FormatPNG
		artifact.Data = data
		artifact.Converted = true
	} else if err := imageconv.Verify(data, format); err != nil {
		return nil, err
	}

	w, h, err := imageconv.Dimensions(artifact.Data)
	if err != nil {
		return nil, err
	}
	artifact.Width, artifact.Height = w, h
	return artifact, nil
}
