package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/silexa/internal/features"
)

func vectorOf(base float64) features.Vector {
	v := make(features.Vector, features.Size)
	for i := range v {
		v[i] = base + float64(i)/100
	}
	return v
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(filepath.Join(t.TempDir(), "data", "gestures.csv"))
}

func TestStore_AppendThenLoadAll(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Append(Example{Vector: vectorOf(0.1), Label: "Hello"}))
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.2), Label: "thumbs up"}))
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.3), Label: "A"}))

	ds, err := s.LoadAll()
	require.NoError(t, err)
	require.Equal(t, 3, ds.Len())

	assert.Equal(t, "Hello", ds.Examples[0].Label)
	assert.Equal(t, vectorOf(0.2), ds.Examples[1].Vector)
	assert.Equal(t, []string{"A", "Hello", "thumbs up"}, ds.Labels())
	assert.Equal(t, map[string]int{"A": 1, "Hello": 1, "thumbs up": 1}, ds.Counts())
}

func TestStore_RowFormat(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(Example{Vector: vectorOf(0), Label: "B"}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)

	line := strings.TrimSuffix(string(data), "\n")
	fields := strings.Split(line, ",")
	require.Len(t, fields, features.Size+1)
	assert.Equal(t, "0", fields[0])
	assert.Equal(t, "0.01", fields[1])
	assert.Equal(t, "B", fields[features.Size], "label is the last column")
}

func TestStore_LoadAllMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.LoadAll()
	assert.ErrorIs(t, err, ErrStoreMissing)

	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))
	require.NoError(t, os.WriteFile(s.Path(), nil, 0o644))

	_, err = s.LoadAll()
	assert.ErrorIs(t, err, ErrStoreMissing, "empty file counts as missing")
}

func TestStore_AppendRejectsBadInput(t *testing.T) {
	s := newTestStore(t)

	err := s.Append(Example{Vector: make(features.Vector, 41), Label: "A"})
	assert.ErrorIs(t, err, features.ErrShape)

	for _, label := range []string{"", "   ", "two\nlines"} {
		err = s.Append(Example{Vector: vectorOf(0), Label: label})
		assert.ErrorIs(t, err, ErrInvalidLabel, "label %q", label)
	}

	_, err = os.Stat(s.Path())
	assert.True(t, errors.Is(err, os.ErrNotExist), "rejected rows must not create the file")
}

func TestStore_SkipsLegacyHeader(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.MkdirAll(filepath.Dir(s.Path()), 0o755))

	header := make([]string, 0, features.Size+1)
	for i := 0; i < features.Size/2; i++ {
		header = append(header, fmt.Sprintf("%d_x", i), fmt.Sprintf("%d_y", i))
	}
	header = append(header, "label")
	require.NoError(t, os.WriteFile(s.Path(), []byte(strings.Join(header, ",")+"\n"), 0o644))

	require.NoError(t, s.Append(Example{Vector: vectorOf(0.5), Label: "OK"}))

	ds, err := s.LoadAll()
	require.NoError(t, err)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, "OK", ds.Examples[0].Label)
}

func TestStore_MalformedRow(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.5), Label: "OK"}))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("0.1,0.2,short\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.LoadAll()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 2, rowErr.Line)
	assert.ErrorIs(t, err, features.ErrShape)
}

func TestStore_MalformedRowAfterBlankLines(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.5), Label: "OK"}))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n\n0.1,0.2,short\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.LoadAll()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 4, rowErr.Line)
}

func TestStore_UnparsableRowLine(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.5), Label: "OK"}))

	f, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString("\n0.1,ab\"c\n")
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = s.LoadAll()
	var rowErr *RowError
	require.ErrorAs(t, err, &rowErr)
	assert.Equal(t, 3, rowErr.Line)
	assert.ErrorIs(t, err, csv.ErrBareQuote)
}

func TestStore_FirstAppendCreatesNestedFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "a", "b", "gestures.csv"))
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.3), Label: "A"}))
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.4), Label: "B"}))

	ds, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ds.Labels())
}

func TestSyncDir(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("directories cannot be synced on windows")
	}
	assert.NoError(t, syncDir(t.TempDir()))
	assert.Error(t, syncDir(filepath.Join(t.TempDir(), "missing")))
}

func TestStore_AppendAfterMissingNewline(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, s.Append(Example{Vector: vectorOf(0.1), Label: "A"}))

	data, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(s.Path(), []byte(strings.TrimSuffix(string(data), "\n")), 0o644))

	require.NoError(t, s.Append(Example{Vector: vectorOf(0.2), Label: "B"}))

	ds, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, ds.Labels())
}

func TestStore_ConcurrentAppends(t *testing.T) {
	s := newTestStore(t)

	const writers, perWriter = 8, 25
	var wg sync.WaitGroup
	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				assert.NoError(t, s.Append(Example{Vector: vectorOf(float64(w)), Label: fmt.Sprintf("w%d", w)}))
			}
		}(w)
	}
	wg.Wait()

	ds, err := s.LoadAll()
	require.NoError(t, err)
	assert.Equal(t, writers*perWriter, ds.Len())
	for label, n := range ds.Counts() {
		assert.Equal(t, perWriter, n, label)
	}
}
