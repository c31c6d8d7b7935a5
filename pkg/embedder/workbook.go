package embedder

import (
	"sort"
	"strconv"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"
)

const (
	minTextWidth = 8.0
	maxTextWidth = 60.0

	defaultSheet  = "Sheet1"
	commentAuthor = "xlsx-image-embed"
)

// workbook 输出文件，只在一次 Run 中使用
type workbook struct {
	in     *excelize.File
	out    *excelize.File
	sheet  string
	styles map[int]int
}

func newWorkbook(in *excelize.File, sheet string) (*workbook, error) {
	out := excelize.NewFile()
	if sheet != defaultSheet {
		if err := out.SetSheetName(defaultSheet, sheet); err != nil {
			out.Close()
			return nil, err
		}
	}
	return &workbook{in: in, out: out, sheet: sheet, styles: make(map[int]int)}, nil
}

// layout 设置图片所在行列的尺寸；autoFit 时按文字宽度调整其余列
func (w *workbook) layout(scan *sheetScan, cellWidth, cellHeight float64, autoFit bool) error {
	for _, c := range sortedKeys(scan.imageCols) {
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := w.out.SetColWidth(w.sheet, col, col, cellWidth); err != nil {
			return err
		}
	}
	for _, r := range sortedKeys(scan.imageRows) {
		if err := w.out.SetRowHeight(w.sheet, r+1, cellHeight); err != nil {
			return err
		}
	}

	if !autoFit {
		return nil
	}

	widths := textWidths(scan.values)
	for _, c := range sortedKeys(widths) {
		if scan.imageCols[c] {
			continue
		}
		col, err := excelize.ColumnNumberToName(c + 1)
		if err != nil {
			return err
		}
		if err := w.out.SetColWidth(w.sheet, col, col, widths[c]); err != nil {
			return err
		}
	}
	return nil
}

// textWidths 每列文字的最大显示宽度，中文按两个字符计算
func textWidths(values []CellValue) map[int]float64 {
	widths := make(map[int]float64)
	for _, v := range values {
		text := v.Raw
		if v.Kind == ValueFormula && text == "" {
			text = v.Formula
		}
		width := 0
		for _, line := range strings.Split(text, "\n") {
			width = max(width, runewidth.StringWidth(line))
		}
		widths[v.Cell.Col] = max(widths[v.Cell.Col], float64(width+2))
	}
	for c, width := range widths {
		widths[c] = min(max(width, minTextWidth), maxTextWidth)
	}
	return widths
}

// writeValue 按原始类型写入普通单元格
func (w *workbook) writeValue(v CellValue) error {
	name := v.Cell.Name()

	var err error
	switch v.Kind {
	case ValueFormula:
		err = w.out.SetCellFormula(w.sheet, name, v.Formula)
	case ValueBool:
		err = w.out.SetCellBool(w.sheet, name, v.Raw == "1" || strings.EqualFold(v.Raw, "true"))
	case ValueNumber:
		n, perr := strconv.ParseFloat(v.Raw, 64)
		if perr != nil {
			err = w.out.SetCellStr(w.sheet, name, v.Raw)
		} else {
			err = w.out.SetCellFloat(w.sheet, name, n, -1, 64)
		}
	default:
		err = w.out.SetCellStr(w.sheet, name, v.Raw)
	}
	if err != nil {
		return err
	}

	if v.StyleID != 0 {
		w.copyStyle(name, v.StyleID)
	}
	return nil
}

// copyStyle 把输入文件中的样式（数字格式、字体等）复制到输出文件，失败时只记录日志
func (w *workbook) copyStyle(name string, inStyle int) {
	outStyle, ok := w.styles[inStyle]
	if !ok {
		style, err := w.in.GetStyle(inStyle)
		if err != nil {
			logrus.Debugf("读取样式 %d 失败: %v", inStyle, err)
			return
		}
		if outStyle, err = w.out.NewStyle(style); err != nil {
			logrus.Debugf("复制样式 %d 失败: %v", inStyle, err)
			return
		}
		w.styles[inStyle] = outStyle
	}
	if err := w.out.SetCellStyle(w.sheet, name, name, outStyle); err != nil {
		logrus.Debugf("设置单元格 %s 样式失败: %v", name, err)
	}
}

func (w *workbook) merge(merges []excelize.MergeCell) {
	for _, m := range merges {
		if err := w.out.MergeCell(w.sheet, m.GetStartAxis(), m.GetEndAxis()); err != nil {
			logrus.Warnf("合并单元格 %s:%s 失败: %v", m.GetStartAxis(), m.GetEndAxis(), err)
		}
	}
}

func (w *workbook) annotate(ref CellRef, text string) {
	err := w.out.AddComment(w.sheet, excelize.Comment{
		Cell:   ref.Name(),
		Author: commentAuthor,
		Text:   text,
	})
	if err != nil {
		logrus.Warnf("添加批注 %s 失败: %v", ref.Name(), err)
	}
}

func (w *workbook) close() {
	if err := w.out.Close(); err != nil {
		logrus.Debugf("关闭输出文件失败: %v", err)
	}
}

func sortedKeys[V any](m map[int]V) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
