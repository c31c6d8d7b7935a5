package report

import (
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	xerrors "github.com/xpzouying/xlsx-image-embed/errors"
	"github.com/xpzouying/xlsx-image-embed/pkg/embedder"
)

func TestLocalStore(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	result := &embedder.RunResult{
		OutputPath:     "/tmp/output/output_embedded_a.xlsx",
		SuccessCount:   2,
		FailureCount:   1,
		Elapsed:        1500 * time.Millisecond,
		ElapsedSeconds: 1.5,
		Failures: []embedder.CellFailure{
			{Cell: embedder.CellRef{Row: 2, Col: 1}, URL: "https://x.com/b.png", Stage: embedder.StateFetching, Kind: xerrors.KindFetch, Reason: "404"},
		},
	}

	require.NoError(t, store.Save("output_embedded_a.xlsx", result))

	got, err := store.Load("output_embedded_a.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 2, got.SuccessCount)
	assert.Equal(t, 1.5, got.ElapsedSeconds)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, "B3", got.Failures[0].Cell.Name())
	assert.Equal(t, xerrors.KindFetch, got.Failures[0].Kind)

	require.NoError(t, store.Delete("output_embedded_a.xlsx"))
	require.NoError(t, store.Delete("output_embedded_a.xlsx"))

	_, err = store.Load("output_embedded_a.xlsx")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestLocalStore_KeepsElapsed(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	result := &embedder.RunResult{SuccessCount: 3, Elapsed: 7 * time.Second}
	require.NoError(t, store.Save("output_embedded_b.xlsx", result))

	got, err := store.Load("output_embedded_b.xlsx")
	require.NoError(t, err)
	assert.Equal(t, 7*time.Second, got.Elapsed)
	assert.Equal(t, 7.0, got.ElapsedSeconds)
	assert.Contains(t, got.Summary(), "耗时 7 秒")
}

func TestLocalStore_RejectsPaths(t *testing.T) {
	store := NewLocalStore(t.TempDir())

	for _, name := range []string{"", "..", "../x.xlsx", "a/b.xlsx", `a\b.xlsx`} {
		_, err := store.Load(name)
		assert.True(t, errors.Is(err, ErrInvalidName), name)
	}
}

func TestNewLocalStore_RequiresDir(t *testing.T) {
	assert.Panics(t, func() { NewLocalStore("") })
}
