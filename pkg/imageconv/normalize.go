package imageconv

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/errors"
)

// ConvertedPath 转换后 png 的保存路径：convertedDir/<原文件名去扩展名>.png
func ConvertedPath(convertedDir, srcPath string) string {
	base := filepath.Base(srcPath)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return filepath.Join(convertedDir, stem+".png")
}

// Normalize 将 webp 等格式转换为 png。
// 含透明通道的图片先合成到白色背景上，避免在不支持 alpha 的查看器里显示为黑色。
func Normalize(srcPath, convertedDir string) (string, error) {
	Register()

	img, err := imaging.Open(srcPath)
	if err != nil {
		return "", errors.Mark(errors.ErrDecode, err)
	}

	if !isOpaque(img) {
		img = Flatten(img)
	}

	if err := os.MkdirAll(convertedDir, 0755); err != nil {
		return "", errors.Mark(errors.ErrNormalize, err)
	}

	dst := ConvertedPath(convertedDir, srcPath)
	tmp := dst + ".tmp.png"
	if err := imaging.Save(img, tmp); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Mark(errors.ErrNormalize, err)
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return "", errors.Mark(errors.ErrNormalize, err)
	}

	logrus.Debugf("图片已转换为 png: %s -> %s", srcPath, dst)
	return dst, nil
}

// Flatten 将图片合成到同尺寸的不透明白色背景上
func Flatten(img image.Image) *image.NRGBA {
	b := img.Bounds()
	bg := imaging.New(b.Dx(), b.Dy(), color.White)
	return imaging.Overlay(bg, img, image.Pt(0, 0), 1.0)
}

func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	return false
}
