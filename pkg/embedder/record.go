package embedder

import (
	"github.com/sirupsen/logrus"

	"github.com/xpzouying/xlsx-image-embed/errors"
)

// record 单条图片记录在处理过程中的状态
type record struct {
	link  ImageLink
	state State
}

func newRecord(link ImageLink) *record {
	return &record{link: link, state: StatePending}
}

func (r *record) logger() *logrus.Entry {
	return logrus.WithFields(logrus.Fields{
		"cell": r.link.Cell.Name(),
		"url":  r.link.URL,
	})
}

// moveTo 切换状态。重复进入同一状态时忽略，非法迁移只记录日志。
func (r *record) moveTo(next State) {
	if r.state == next {
		return
	}
	if !CanTransition(r.state, next) {
		r.logger().Warnf("非法状态迁移 %s -> %s", r.state, next)
	}
	r.logger().Debugf("状态 %s -> %s", r.state, next)
	r.state = next
}

// fail 进入 Failed 状态并生成失败记录，stage 为失败时所处的阶段
func (r *record) fail(err error) *CellFailure {
	stage := r.state
	if stage == StatePending {
		stage = StateFetching
	}

	kind := errors.KindOf(err)
	r.logger().WithField("kind", kind).Warnf("单元格处理失败: %v", err)
	r.moveTo(StateFailed)

	return &CellFailure{
		Cell:   r.link.Cell,
		URL:    r.link.URL,
		Stage:  stage,
		Kind:   kind,
		Reason: err.Error(),
	}
}
