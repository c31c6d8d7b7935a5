package embedder

import (
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/xpzouying/xlsx-image-embed/pkg/downloader"
)

// sheetScan 对输入工作表按行扫描一次的结果
type sheetScan struct {
	links     []ImageLink
	values    []CellValue
	imageCols map[int]bool
	imageRows map[int]bool
	merges    []excelize.MergeCell
}

// scanSheet 逐行扫描工作表，区分图片链接和普通单元格。
// 顺序为行优先，与处理顺序一致。
func scanSheet(f *excelize.File, sheet string) (*sheetScan, error) {
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, err
	}

	scan := &sheetScan{
		imageCols: make(map[int]bool),
		imageRows: make(map[int]bool),
	}

	for r, row := range rows {
		for c, raw := range row {
			ref := CellRef{Row: r, Col: c}
			name := ref.Name()

			formula, err := f.GetCellFormula(sheet, name)
			if err != nil {
				return nil, err
			}
			if formula != "" {
				scan.values = append(scan.values, CellValue{
					Cell:    ref,
					Kind:    ValueFormula,
					Raw:     raw,
					Formula: formula,
					StyleID: cellStyle(f, sheet, name),
				})
				continue
			}

			if raw == "" {
				continue
			}

			if downloader.IsImageURL(raw) && isTextCell(f, sheet, name) {
				scan.links = append(scan.links, ImageLink{URL: strings.TrimSpace(raw), Cell: ref})
				scan.imageCols[c] = true
				scan.imageRows[r] = true
				continue
			}

			v, err := readValue(f, sheet, ref, raw)
			if err != nil {
				return nil, err
			}
			scan.values = append(scan.values, v)
		}
	}

	merges, err := f.GetMergeCells(sheet, true)
	if err != nil {
		logrus.Warnf("读取合并单元格失败，忽略: %v", err)
	} else {
		scan.merges = merges
	}

	logrus.Debugf("扫描完成: %d 个图片链接，%d 个普通单元格", len(scan.links), len(scan.values))
	return scan, nil
}

func readValue(f *excelize.File, sheet string, ref CellRef, raw string) (CellValue, error) {
	name := ref.Name()
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return CellValue{}, err
	}

	v := CellValue{Cell: ref, Kind: ValueString, Raw: raw, StyleID: cellStyle(f, sheet, name)}
	switch typ {
	case excelize.CellTypeBool:
		v.Kind = ValueBool
	case excelize.CellTypeNumber:
		v.Kind = ValueNumber
	case excelize.CellTypeUnset:
		// 没有 t 属性的单元格默认是数字
		if _, err := strconv.ParseFloat(raw, 64); err == nil {
			v.Kind = ValueNumber
		}
	}
	return v, nil
}

// isTextCell 只有字符串类型的单元格才可能是图片链接
func isTextCell(f *excelize.File, sheet, name string) bool {
	typ, err := f.GetCellType(sheet, name)
	if err != nil {
		return false
	}
	switch typ {
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeUnset, excelize.CellTypeFormula:
		return true
	default:
		return false
	}
}

func cellStyle(f *excelize.File, sheet, name string) int {
	id, err := f.GetCellStyle(sheet, name)
	if err != nil {
		return 0
	}
	return id
}
