package imageconv

import (
	"encoding/xml"
	"image"
	"image/color"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var errSVGRaster = errors.New("svg rasterization is not supported")

// decodeSVG svg 只支持读取尺寸，不做栅格化
func decodeSVG(r io.Reader) (image.Image, error) {
	return nil, errSVGRaster
}

func decodeSVGConfig(r io.Reader) (image.Config, error) {
	w, h, err := svgSize(r)
	if err != nil {
		return image.Config{}, err
	}
	return image.Config{ColorModel: color.NRGBAModel, Width: w, Height: h}, nil
}

// svgSize 读取根元素的 width/height，缺失时回退到 viewBox
func svgSize(r io.Reader) (int, int, error) {
	dec := xml.NewDecoder(r)
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return 0, 0, errors.Wrap(err, "svg root element not found")
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		if !strings.EqualFold(start.Name.Local, "svg") {
			return 0, 0, errors.Errorf("unexpected root element <%s>", start.Name.Local)
		}

		var width, height, viewBox string
		for _, attr := range start.Attr {
			switch attr.Name.Local {
			case "width":
				width = attr.Value
			case "height":
				height = attr.Value
			case "viewBox":
				viewBox = attr.Value
			}
		}

		w, wok := parseSVGLength(width)
		h, hok := parseSVGLength(height)
		if wok && hok {
			return w, h, nil
		}
		if vw, vh, ok := parseViewBox(viewBox); ok {
			return vw, vh, nil
		}
		return 0, 0, errors.New("svg has no usable width/height or viewBox")
	}
}

// parseSVGLength 支持无单位与 px，百分比等相对单位视为不可用
func parseSVGLength(v string) (int, bool) {
	v = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f <= 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}

func parseViewBox(v string) (int, int, bool) {
	fields := strings.FieldsFunc(v, func(r rune) bool { return r == ' ' || r == ',' })
	if len(fields) != 4 {
		return 0, 0, false
	}
	w, err := strconv.ParseFloat(fields[2], 64)
	if err != nil || w <= 0 {
		return 0, 0, false
	}
	h, err := strconv.ParseFloat(fields[3], 64)
	if err != nil || h <= 0 {
		return 0, 0, false
	}
	return int(math.Round(w)), int(math.Round(h)), true
}
