package embedder

import (
	"github.com/xpzouying/xlsx-image-embed/configs"
	"github.com/xpzouying/xlsx-image-embed/pkg/fitter"
)

// Option 配置 Pipeline
type Option func(*Pipeline)

// WithCellSize 图片所在单元格的列宽（字符）和行高（磅）
func WithCellSize(widthUnits, heightPoints float64) Option {
	return func(p *Pipeline) {
		if widthUnits > 0 {
			p.cellWidth = widthUnits
		}
		if heightPoints > 0 {
			p.cellHeight = heightPoints
		}
	}
}

// WithPolicy 缩放策略
func WithPolicy(policy fitter.Policy) Option {
	return func(p *Pipeline) {
		p.policy = policy
	}
}

// WithOutputDir 输出目录
func WithOutputDir(dir string) Option {
	return func(p *Pipeline) {
		if dir != "" {
			p.outputDir = dir
		}
	}
}

// WithProgress 设置进度回调
func WithProgress(fn ProgressFunc) Option {
	return func(p *Pipeline) {
		p.progress = fn
	}
}

// WithAnnotateFailures 在失败的单元格上添加批注说明原因
func WithAnnotateFailures(on bool) Option {
	return func(p *Pipeline) {
		p.annotate = on
	}
}

// WithAutoFitText 按文字显示宽度调整纯文字列的列宽
func WithAutoFitText(on bool) Option {
	return func(p *Pipeline) {
		p.autoFit = on
	}
}

func defaultPipeline() *Pipeline {
	return &Pipeline{
		cellWidth:  configs.DefaultCellWidth,
		cellHeight: configs.DefaultCellHeight,
		policy:     fitter.ParsePolicy(string(configs.GetScalePolicy())),
		outputDir:  configs.GetOutputPath(),
	}
}
