package archive

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ellipsfit/ellipsfit/film"
	"github.com/ellipsfit/ellipsfit/film/internal/testutil"
)

func TestSchema_OffsetsAreCumulative(t *testing.T) {
	// GIVEN 3 angles, 5 materials, 1 layer, 200 wavelengths
	s, err := NewSchema(3, 5, 1, 200)
	require.NoError(t, err)

	// THEN the fields follow one another without gaps
	want := map[string][2]int{
		FieldAngles:    {0, 3},
		FieldMaterial:  {3, 8},
		FieldThickness: {8, 9},
		FieldRp:        {9, 609},
		FieldPsi:       {9 + 4*600, 9 + 5*600},
		FieldDelta:     {9 + 5*600, 9 + 6*600},
	}
	for name, span := range want {
		lo, hi, err := s.Span(name)
		require.NoError(t, err)
		assert.Equal(t, span, [2]int{lo, hi}, name)
	}
	assert.Equal(t, 9+6*600, s.Width())
	assert.Len(t, s.Fields(), 9)

	_, _, err = s.Span("nope")
	assert.Error(t, err)
}

func TestSchema_OneHotPerLayer(t *testing.T) {
	s, err := NewSchema(2, 4, 3, 10)
	require.NoError(t, err)
	lo, hi, err := s.Span(FieldMaterial)
	require.NoError(t, err)
	assert.Equal(t, 12, hi-lo)

	_, err = NewSchema(0, 4, 1, 10)
	assert.Error(t, err)
}

func generated(t *testing.T, rows int) (*Generator, *Archive) {
	t.Helper()
	sc := testutil.ReferenceScenario(t, 12)
	g := &Generator{
		Grid:      sc.Grid,
		Catalog:   sc.Catalog,
		Bounds:    sc.Bounds,
		Layers:    1,
		Incident:  sc.Incident,
		Substrate: sc.Substrate,
	}
	a, err := g.Generate(rand.New(rand.NewSource(int64(film.NewRunKey(7)))), rows)
	require.NoError(t, err)
	return g, a
}

func TestGenerate_RowsMatchForwardModel(t *testing.T) {
	// GIVEN a generated archive
	_, a := generated(t, 6)
	sc := testutil.ReferenceScenario(t, 12)

	for i := 0; i < a.Rows; i++ {
		rec := a.Record(i)

		// THEN the stored target equals a fresh simulation of the stored ground truth
		assert.Equal(t, sc.Grid.Angles, rec.Angles)
		require.Len(t, rec.Materials, 1)
		assert.True(t, sc.Bounds.Contains(rec.Thickness[0]))
		want := sc.Target(t, rec.Materials, rec.Thickness)
		assert.Equal(t, want.Psi, rec.Target.Psi)
		assert.Equal(t, want.Delta, rec.Target.Delta)

		// AND the one-hot block has exactly one set entry
		sum := 0.0
		for _, v := range a.Field(i, FieldMaterial) {
			sum += v
		}
		assert.Equal(t, 1.0, sum)
	}
}

func TestGenerate_IsReproducible(t *testing.T) {
	_, a := generated(t, 4)
	_, b := generated(t, 4)
	assert.Equal(t, a.data, b.data)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	// GIVEN a generated archive saved to disk
	_, a := generated(t, 3)
	path := filepath.Join(t.TempDir(), "set.bin")
	require.NoError(t, Save(path, a))

	// WHEN loaded with the same schema
	b, err := Load(path, a.Schema)
	require.NoError(t, err)

	// THEN every value survives bit for bit
	assert.Equal(t, a.Rows, b.Rows)
	assert.Equal(t, a.data, b.data)
	assert.NoError(t, b.CheckAngles([]float64{25, 45, 65}))
}

func TestRead_RejectsMalformedInput(t *testing.T) {
	_, a := generated(t, 2)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, a))
	good := buf.Bytes()

	cases := map[string][]byte{
		"bad magic":  append([]byte("NOTANARC"), good[8:]...),
		"short data": good[:len(good)-3],
		"no header":  good[:10],
		"empty":      nil,
	}
	for name, data := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(data), a.Schema)
			assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
		})
	}

	t.Run("width mismatch", func(t *testing.T) {
		other, err := NewSchema(3, 5, 1, 13)
		require.NoError(t, err)
		_, err = Read(bytes.NewReader(good), other)
		assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
	})

	t.Run("zero rows", func(t *testing.T) {
		var hdr bytes.Buffer
		hdr.WriteString(Magic)
		require.NoError(t, binary.Write(&hdr, binary.LittleEndian, [2]uint64{0, uint64(a.Schema.Width())}))
		_, err := Read(&hdr, a.Schema)
		assert.True(t, errors.Is(err, ErrMalformed), "got %v", err)
	})
}

func TestRead_OversizedHeaderFailsWithoutAllocating(t *testing.T) {
	// GIVEN a header claiming 2^30 rows followed by a single row of data
	_, a := generated(t, 1)
	var in bytes.Buffer
	in.WriteString(Magic)
	require.NoError(t, binary.Write(&in, binary.LittleEndian, [2]uint64{1 << 30, uint64(a.Schema.Width())}))
	require.NoError(t, binary.Write(&in, binary.LittleEndian, a.Row(0)))

	// WHEN read
	_, err := Read(&in, a.Schema)

	// THEN the truncation is reported as a malformed archive
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestLoad_RejectsTrailingBytes(t *testing.T) {
	_, a := generated(t, 2)
	path := filepath.Join(t.TempDir(), "set.bin")
	require.NoError(t, Save(path, a))
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	require.NoError(t, err)
	_, err = f.Write([]byte{1, 2, 3})
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Load(path, a.Schema)
	assert.ErrorIs(t, err, ErrMalformed)
}

func TestCheckAngles_DetectsMismatch(t *testing.T) {
	_, a := generated(t, 2)
	assert.NoError(t, a.CheckAngles([]float64{25, 45, 65}))
	assert.Error(t, a.CheckAngles([]float64{25, 45, 70}))
	assert.Error(t, a.CheckAngles([]float64{25, 45}))

	a.Field(1, FieldAngles)[0] = 30
	err := a.CheckAngles([]float64{25, 45, 65})
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestWindow(t *testing.T) {
	_, a := generated(t, 5)
	recs, err := a.Window(1, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	assert.Equal(t, a.Record(2), recs[1])

	_, err = a.Window(3, 3)
	assert.Error(t, err)
	_, err = a.Window(0, 0)
	assert.Error(t, err)
}
