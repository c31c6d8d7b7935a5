package imageconv

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"

	"github.com/h2non/filetype"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// SVGType filetype 中注册的 svg 类型
var SVGType = filetype.NewType("svg", "image/svg+xml")

var registerOnce sync.Once

// Register 注册 svg 的类型识别与尺寸解码，进程内只执行一次。
// 需要在第一次下载/嵌入之前调用，重复调用无副作用。
func Register() {
	registerOnce.Do(func() {
		filetype.AddMatcher(SVGType, isSVG)
		image.RegisterFormat("svg", "<svg", decodeSVG, decodeSVGConfig)
		image.RegisterFormat("svg", "<?xml", decodeSVG, decodeSVGConfig)
	})
}

// isSVG 只检查文件头部：根元素必须是 svg，内嵌 svg 的 html 不算
func isSVG(buf []byte) bool {
	head := buf
	if len(head) > 1024 {
		head = head[:1024]
	}
	head = bytes.TrimPrefix(head, []byte("\xef\xbb\xbf"))
	head = bytes.ToLower(bytes.TrimSpace(head))

	switch {
	case bytes.HasPrefix(head, []byte("<svg")):
		return true
	case bytes.HasPrefix(head, []byte("<?xml")), bytes.HasPrefix(head, []byte("<!doctype svg")):
		return bytes.Contains(head, []byte("<svg"))
	default:
		return false
	}
}
