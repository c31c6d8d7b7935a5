package errors

import (
	"context"
	stderrors "errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{name: "nil", err: nil, want: ""},
		{name: "fetch", err: Wrap(ErrFetch, "status 404"), want: KindFetch},
		{name: "decode", err: Mark(ErrDecode, New("bad header")), want: KindDecode},
		{name: "normalize", err: Wrapf(Mark(ErrNormalize, New("disk full")), "save %s", "a.png"), want: KindNormalize},
		{name: "embed", err: ErrEmbed, want: KindEmbed},
		{name: "input", err: Wrap(ErrInputUnreadable, "sheet missing"), want: KindInput},
		{name: "unknown", err: New("boom"), want: KindUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestMark(t *testing.T) {
	assert.Nil(t, Mark(ErrFetch, nil))

	err := Mark(ErrFetch, context.DeadlineExceeded)
	assert.True(t, Is(err, ErrFetch))
	assert.True(t, stderrors.Is(err, context.DeadlineExceeded))
	assert.Equal(t, "fetch image failed: context deadline exceeded", err.Error())
}
