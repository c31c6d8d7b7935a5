package imageconv

import (
	"bytes"
	"image"

	"github.com/disintegration/imaging"
	"github.com/h2non/filetype"

	"github.com/xpzouying/xlsx-image-embed/errors"
)

// Format 图片格式，取值为文件扩展名（不带点）
type Format string

const (
	FormatPNG  Format = "png"
	FormatJPEG Format = "jpg"
	FormatGIF  Format = "gif"
	FormatBMP  Format = "bmp"
	FormatTIFF Format = "tif"
	FormatWebP Format = "webp"
	FormatSVG  Format = "svg"
)

// 可直接嵌入 Excel 的格式对应的扩展名
var embedExtensions = map[Format]string{
	FormatPNG:  ".png",
	FormatJPEG: ".jpg",
	FormatGIF:  ".gif",
	FormatBMP:  ".bmp",
	FormatTIFF: ".tif",
	FormatSVG:  ".svg",
}

// Detect 根据文件内容（而不是 URL）识别图片格式
func Detect(data []byte) (Format, error) {
	Register()

	kind, err := filetype.Match(data)
	if err != nil {
		return "", errors.Mark(errors.ErrDecode, err)
	}
	if kind == filetype.Unknown || kind.MIME.Type != "image" {
		return "", errors.Wrap(errors.ErrDecode, "content is not a recognized image")
	}

	switch kind.Extension {
	case "png":
		return FormatPNG, nil
	case "jpg", "jpeg":
		return FormatJPEG, nil
	case "gif":
		return FormatGIF, nil
	case "bmp":
		return FormatBMP, nil
	case "tif", "tiff":
		return FormatTIFF, nil
	case "webp":
		return FormatWebP, nil
	case "svg":
		return FormatSVG, nil
	default:
		return "", errors.Wrapf(errors.ErrDecode, "unsupported image format %q", kind.Extension)
	}
}

// NeedsNormalization 只有 webp 需要转换为 png
func NeedsNormalization(f Format) bool {
	return f == FormatWebP
}

// EmbedExtension 返回嵌入 Excel 时使用的扩展名
func EmbedExtension(f Format) (string, bool) {
	ext, ok := embedExtensions[f]
	return ext, ok
}

// Verify 完整解码一次位图，头部正常但数据截断或损坏的图片返回 ErrDecode。svg 不做检查。
func Verify(data []byte, format Format) error {
	if format == FormatSVG {
		return nil
	}
	if _, err := imaging.Decode(bytes.NewReader(data)); err != nil {
		return errors.Wrapf(errors.ErrDecode, "corrupt %s image: %v", format, err)
	}
	return nil
}

// Dimensions 读取图片像素尺寸，不做完整解码
func Dimensions(data []byte) (int, int, error) {
	Register()

	if isSVG(data) {
		w, h, err := svgSize(bytes.NewReader(data))
		if err != nil {
			return 0, 0, errors.Mark(errors.ErrDecode, err)
		}
		return w, h, nil
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, errors.Mark(errors.ErrDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, errors.Wrapf(errors.ErrDecode, "invalid image size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg.Width, cfg.Height, nil
}
