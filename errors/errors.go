package errors

import "github.com/pkg/errors"

// 单元格级别的错误类型。除 ErrInputUnreadable 外，其余错误只会让对应单元格失败，不会中断整个任务。
var (
	ErrFetch           = errors.New("fetch image failed")
	ErrDecode          = errors.New("decode image failed")
	ErrNormalize       = errors.New("normalize image failed")
	ErrEmbed           = errors.New("embed image failed")
	ErrInputUnreadable = errors.New("input workbook unreadable")
)

// Kind 错误分类
type Kind string

const (
	KindFetch     Kind = "fetch"
	KindDecode    Kind = "decode"
	KindNormalize Kind = "normalize"
	KindEmbed     Kind = "embed"
	KindInput     Kind = "input"
	KindUnknown   Kind = "unknown"
)

// KindOf 返回错误所属分类
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFetch):
		return KindFetch
	case errors.Is(err, ErrDecode):
		return KindDecode
	case errors.Is(err, ErrNormalize):
		return KindNormalize
	case errors.Is(err, ErrEmbed):
		return KindEmbed
	case errors.Is(err, ErrInputUnreadable):
		return KindInput
	default:
		return KindUnknown
	}
}

// Mark 将 cause 标记为 sentinel 类型，同时保留原始错误信息。
// errors.Is(Mark(ErrFetch, cause), ErrFetch) == true
func Mark(sentinel, cause error) error {
	if cause == nil {
		return nil
	}
	return &marked{sentinel: sentinel, cause: cause}
}

type marked struct {
	sentinel error
	cause    error
}

func (m *marked) Error() string { return m.sentinel.Error() + ": " + m.cause.Error() }

func (m *marked) Unwrap() []error { return []error{m.sentinel, m.cause} }

var (
	New    = errors.New
	Errorf = errors.Errorf
	Wrap   = errors.Wrap
	Wrapf  = errors.Wrapf
	Is     = errors.Is
	As     = errors.As
	Cause  = errors.Cause
)
