package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/xpzouying/xlsx-image-embed/pkg/embedder"
)

// URL 列最大显示宽度
const urlColumnWidth = 48

// writeFailureTable 按列对齐输出失败明细，URL 过长时截断
func writeFailureTable(w io.Writer, failures []embedder.CellFailure, urlWidth int) {
	header := []string{"单元格", "阶段", "类型", "链接", "原因"}
	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{
			f.Cell.Name(),
			string(f.Stage),
			string(f.Kind),
			runewidth.Truncate(f.URL, urlWidth, "..."),
			f.Reason,
		})
	}

	// 最后一列不需要补齐
	widths := make([]int, len(header)-1)
	for i := range widths {
		widths[i] = runewidth.StringWidth(header[i])
		for _, row := range rows {
			widths[i] = max(widths[i], runewidth.StringWidth(row[i]))
		}
	}

	writeRow := func(cols []string) {
		var b strings.Builder
		for i, col := range cols {
			if i < len(widths) {
				b.WriteString(runewidth.FillRight(col, widths[i]))
				b.WriteString("  ")
				continue
			}
			b.WriteString(col)
		}
		fmt.Fprintln(w, b.String())
	}

	writeRow(header)
	for _, row := range rows {
		writeRow(row)
	}
}
