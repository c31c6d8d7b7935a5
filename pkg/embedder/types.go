package embedder

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/xpzouying/xlsx-image-embed/errors"
)

// CellRef 单元格坐标，行列都从 0 开始
type CellRef struct {
	Row int
	Col int
}

// Name 返回 A1 形式的单元格名称
func (c CellRef) Name() string {
	name, err := excelize.CoordinatesToCellName(c.Col+1, c.Row+1)
	if err != nil {
		return fmt.Sprintf("R%dC%d", c.Row+1, c.Col+1)
	}
	return name
}

func (c CellRef) String() string {
	return c.Name()
}

// MarshalText JSON 中以 "B3" 的形式出现
func (c CellRef) MarshalText() ([]byte, error) {
	return []byte(c.Name()), nil
}

func (c *CellRef) UnmarshalText(text []byte) error {
	col, row, err := excelize.CellNameToCoordinates(string(text))
	if err != nil {
		return err
	}
	c.Row, c.Col = row-1, col-1
	return nil
}

// ImageLink 扫描得到的图片链接
type ImageLink struct {
	URL  string  `json:"url"`
	Cell CellRef `json:"cell"`
}

// ValueKind 非图片单元格的值类型
type ValueKind string

const (
	ValueString  ValueKind = "string"
	ValueNumber  ValueKind = "number"
	ValueBool    ValueKind = "bool"
	ValueFormula ValueKind = "formula"
)

// CellValue 原样复制到输出文件的普通单元格
type CellValue struct {
	Cell    CellRef
	Kind    ValueKind
	Raw     string
	Formula string
	StyleID int
}

// State 单条图片记录的处理状态
type State string

const (
	StatePending     State = "pending"
	StateFetching    State = "fetching"
	StateNormalizing State = "normalizing"
	StateFitting     State = "fitting"
	StateEmbedded    State = "embedded"
	StateFailed      State = "failed"
)

// 合法的状态迁移
var transitions = map[State][]State{
	StatePending:     {StateFetching, StateFailed},
	StateFetching:    {StateNormalizing, StateFitting, StateFailed},
	StateNormalizing: {StateFitting, StateFailed},
	StateFitting:     {StateEmbedded, StateFailed},
}

// CanTransition 判断 from -> to 是否合法
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Terminal 是否为终止状态
func (s State) Terminal() bool {
	return s == StateEmbedded || s == StateFailed
}

// CellFailure 单个单元格的失败记录
type CellFailure struct {
	Cell   CellRef     `json:"cell"`
	URL    string      `json:"url"`
	Stage  State       `json:"stage"`
	Kind   errors.Kind `json:"kind"`
	Reason string      `json:"reason"`
}

// RunResult 一次处理任务的结果，Run 返回后不再修改
type RunResult struct {
	InputPath      string        `json:"input_path"`
	SheetName      string        `json:"sheet_name"`
	OutputPath     string        `json:"output_path"`
	Total          int           `json:"total"`
	SuccessCount   int           `json:"success_count"`
	FailureCount   int           `json:"failure_count"`
	Elapsed        time.Duration `json:"-"`
	ElapsedSeconds float64       `json:"elapsed_seconds"`
	StartedAt      time.Time     `json:"started_at"`
	Failures       []CellFailure `json:"failures"`
}

type runResultJSON RunResult

// MarshalJSON 耗时以 elapsed_seconds 输出
func (r RunResult) MarshalJSON() ([]byte, error) {
	if r.Elapsed != 0 {
		r.ElapsedSeconds = r.Elapsed.Seconds()
	}
	return json.Marshal(runResultJSON(r))
}

// UnmarshalJSON 从 elapsed_seconds 恢复 Elapsed
func (r *RunResult) UnmarshalJSON(data []byte) error {
	if err := json.Unmarshal(data, (*runResultJSON)(r)); err != nil {
		return err
	}
	r.Elapsed = time.Duration(r.ElapsedSeconds * float64(time.Second))
	return nil
}

// Summary 一行结果摘要
func (r *RunResult) Summary() string {
	return fmt.Sprintf("处理完成！成功插入 %d 张图片，失败 %d 张，耗时 %d 秒",
		r.SuccessCount, r.FailureCount, int(r.Elapsed.Seconds()))
}

// Progress 每处理完一条图片记录回调一次
type Progress struct {
	Index     int           `json:"index"`
	Total     int           `json:"total"`
	Success   int           `json:"success"`
	Failure   int           `json:"failure"`
	Remaining time.Duration `json:"remaining"`
	Cell      CellRef       `json:"cell"`
	URL       string        `json:"url"`
	State     State         `json:"state"`
}

// Percent 完成百分比 0-100
func (p Progress) Percent() int {
	if p.Total == 0 {
		return 100
	}
	return p.Index * 100 / p.Total
}

func (p Progress) String() string {
	return fmt.Sprintf("[%d/%d] 处理单元格 %s，成功 %d 张，失败 %d 张，预计剩余 %s",
		p.Index, p.Total, p.Cell.Name(), p.Success, p.Failure, p.Remaining.Round(time.Second))
}

// ProgressFunc 进度回调
type ProgressFunc func(Progress)
