// Package fitter 计算图片放入单元格时的等比缩放系数。
package fitter

import (
	"math"

	"github.com/pkg/errors"
)

const (
	// PixelsPerWidthUnit 一个列宽单位（默认字体的字符宽度）约等于 7 像素
	PixelsPerWidthUnit = 7.0
	// PixelsPerPoint 行高以磅为单位，96 DPI 下 1 磅 = 96/72 像素
	PixelsPerPoint = 96.0 / 72.0
)

// ErrInvalidSize 图片尺寸非法
var ErrInvalidSize = errors.New("image size must be positive")

// Policy 缩放策略
type Policy int

const (
	// ShrinkOnly 图片超出单元格时缩小，小图保持原始尺寸
	ShrinkOnly Policy = iota
	// Always 总是按单元格尺寸缩放，小图会被放大
	Always
)

func (p Policy) String() string {
	switch p {
	case Always:
		return "always"
	default:
		return "shrink"
	}
}

// ParsePolicy 解析策略名称，未知值返回 ShrinkOnly
func ParsePolicy(s string) Policy {
	if s == "always" {
		return Always
	}
	return ShrinkOnly
}

// Budget 将单元格的列宽（字符单位）和行高（磅）换算为像素
func Budget(widthUnits, heightPoints float64) (float64, float64) {
	return widthUnits * PixelsPerWidthUnit, heightPoints * PixelsPerPoint
}

// Fit 返回同时作用于宽高的缩放系数：
//
//	scale = min(budgetW / imgW, budgetH / imgH)
//
// ShrinkOnly 策略下结果不超过 1。
func Fit(imgW, imgH int, widthUnits, heightPoints float64, policy Policy) (float64, error) {
	budgetW, budgetH := Budget(widthUnits, heightPoints)
	return FitPixels(imgW, imgH, budgetW, budgetH, policy)
}

// FitPixels 与 Fit 相同，但单元格尺寸直接以像素给出
func FitPixels(imgW, imgH int, budgetW, budgetH float64, policy Policy) (float64, error) {
	if imgW <= 0 || imgH <= 0 {
		return 0, errors.Wrapf(ErrInvalidSize, "got %dx%d", imgW, imgH)
	}
	if budgetW <= 0 || budgetH <= 0 {
		return 0, errors.Wrapf(ErrInvalidSize, "cell budget %.1fx%.1f", budgetW, budgetH)
	}

	scale := math.Min(budgetW/float64(imgW), budgetH/float64(imgH))
	if policy == ShrinkOnly && scale > 1 {
		scale = 1
	}
	return scale, nil
}

// Scaled 返回缩放后的像素尺寸（四舍五入，最小为 1）
func Scaled(imgW, imgH int, scale float64) (int, int) {
	w := int(math.Round(float64(imgW) * scale))
	h := int(math.Round(float64(imgH) * scale))
	return max(w, 1), max(h, 1)
}
