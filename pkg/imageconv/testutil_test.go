package imageconv

import (
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/xpzouying/xlsx-image-embed/internal/testimg"
)

func solidWebP(t *testing.T, w, h int, c color.NRGBA) []byte {
	t.Helper()
	data := testimg.SolidWebP(w, h, c)
	require.NotEmpty(t, data)
	return data
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	b := img.Bounds()
	return testimg.SolidPNG(b.Dx(), b.Dy(), img.(*image.NRGBA).NRGBAAt(b.Min.X, b.Min.Y))
}

func solidNRGBA(w, h int, c color.NRGBA) *image.NRGBA {
	return testimg.Solid(w, h, c)
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, data, 0644))
	return p
}
