package archive

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"gonum.org/v1/gonum/floats"

	"github.com/ellipsfit/ellipsfit/film"
)

// Magic opens every archive file.
const Magic = "FILMARC1"

// ErrMalformed marks an archive that does not match the expected layout.
var ErrMalformed = errors.New("malformed archive")

// Archive is an in-memory table of rows × Schema.Width() values, row-major.
type Archive struct {
	Schema Schema
	Rows   int
	data   []float64
}

// New allocates a zeroed archive.
func New(schema Schema, rows int) *Archive {
	return &Archive{Schema: schema, Rows: rows, data: make([]float64, rows*schema.Width())}
}

// Row returns row i as a view into the archive.
func (a *Archive) Row(i int) []float64 {
	w := a.Schema.Width()
	return a.data[i*w : (i+1)*w]
}

// Field returns the named block of row i as a view into the archive.
func (a *Archive) Field(i int, name string) []float64 {
	lo, hi := a.Schema.mustSpan(name)
	return a.Row(i)[lo:hi]
}

// Record is the ground truth and measured target of one system.
type Record struct {
	Angles    []float64
	Materials []int
	Thickness []float64
	Target    film.Spectrum
}

// Record decodes row i. Each layer's material is the arg-max of its one-hot block.
func (a *Archive) Record(i int) Record {
	s := a.Schema
	onehot := a.Field(i, FieldMaterial)
	mats := make([]int, s.Layers)
	for l := range mats {
		mats[l] = floats.MaxIdx(onehot[l*s.Materials : (l+1)*s.Materials])
	}
	return Record{
		Angles:    append([]float64(nil), a.Field(i, FieldAngles)...),
		Materials: mats,
		Thickness: append([]float64(nil), a.Field(i, FieldThickness)...),
		Target: film.Spectrum{
			Psi:   append([]float64(nil), a.Field(i, FieldPsi)...),
			Delta: append([]float64(nil), a.Field(i, FieldDelta)...),
		},
	}
}

// Window returns the records of rows [start, start+count).
func (a *Archive) Window(start, count int) ([]Record, error) {
	if start < 0 || count < 1 || start+count > a.Rows {
		return nil, fmt.Errorf("window [%d, %d) outside archive of %d rows", start, start+count, a.Rows)
	}
	out := make([]Record, count)
	for i := range out {
		out[i] = a.Record(start + i)
	}
	return out, nil
}

// CheckAngles verifies that every row's angle labels equal the configured angles.
func (a *Archive) CheckAngles(angles []float64) error {
	if len(angles) != a.Schema.Angles {
		return fmt.Errorf("%w: archive stores %d angles, configuration has %d", ErrMalformed, a.Schema.Angles, len(angles))
	}
	for i := 0; i < a.Rows; i++ {
		if got := a.Field(i, FieldAngles); !floats.Equal(got, angles) {
			return fmt.Errorf("%w: row %d angle labels %v, configuration %v", ErrMalformed, i, got, angles)
		}
	}
	return nil
}

// Write encodes the archive: magic, little-endian uint64 rows and columns, then
// the values row-major.
func Write(w io.Writer, a *Archive) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(Magic); err != nil {
		return err
	}
	header := [2]uint64{uint64(a.Rows), uint64(a.Schema.Width())}
	if err := binary.Write(bw, binary.LittleEndian, header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	buf := make([]byte, 8)
	for _, v := range a.data {
		binary.LittleEndian.PutUint64(buf, math.Float64bits(v))
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("writing data: %w", err)
		}
	}
	return bw.Flush()
}

// Read decodes an archive and checks it against schema. Any layout mismatch
// wraps ErrMalformed.
func Read(r io.Reader, schema Schema) (*Archive, error) {
	br := bufio.NewReader(r)
	magic := make([]byte, len(Magic))
	if _, err := io.ReadFull(br, magic); err != nil {
		return nil, fmt.Errorf("%w: reading magic: %v", ErrMalformed, err)
	}
	if string(magic) != Magic {
		return nil, fmt.Errorf("%w: bad magic %q", ErrMalformed, magic)
	}
	var header [2]uint64
	if err := binary.Read(br, binary.LittleEndian, &header); err != nil {
		return nil, fmt.Errorf("%w: reading header: %v", ErrMalformed, err)
	}
	rows, cols := header[0], header[1]
	if cols != uint64(schema.Width()) {
		return nil, fmt.Errorf("%w: %d columns, schema expects %d (angles=%d materials=%d layers=%d wavelengths=%d)",
			ErrMalformed, cols, schema.Width(), schema.Angles, schema.Materials, schema.Layers, schema.Wavelengths)
	}
	if rows == 0 || rows > math.MaxInt32 || rows > math.MaxInt64/8/cols {
		return nil, fmt.Errorf("%w: row count %d", ErrMalformed, rows)
	}
	// The header is not trusted for sizing; storage grows only as values arrive.
	total := int(rows) * schema.Width()
	data := make([]float64, 0, min(total, readChunk))
	buf := make([]byte, 8)
	for i := 0; i < total; i++ {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, fmt.Errorf("%w: data ends at value %d of %d", ErrMalformed, i, total)
		}
		data = append(data, math.Float64frombits(binary.LittleEndian.Uint64(buf)))
	}
	return &Archive{Schema: schema, Rows: int(rows), data: data}, nil
}

// readChunk bounds the initial allocation of Read.
const readChunk = 1 << 16

// headerSize is the magic plus the rows and columns words.
const headerSize = len(Magic) + 16

// Load reads the archive at path. The file size must match the header exactly.
func Load(path string, schema Schema) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	defer func() { _ = f.Close() }()
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	a, err := Read(io.LimitReader(f, info.Size()), schema)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if want := int64(headerSize) + int64(len(a.data))*8; info.Size() != want {
		return nil, fmt.Errorf("%s: %w: %d bytes, header implies %d", path, ErrMalformed, info.Size(), want)
	}
	return a, nil
}

// Save writes the archive to path.
func Save(path string, a *Archive) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating archive: %w", err)
	}
	if err := Write(f, a); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
