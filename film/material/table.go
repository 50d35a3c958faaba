package material

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/gocarina/gocsv"
	"gonum.org/v1/gonum/interp"
)

// TableRow is one line of a tabulated n,k file.
type TableRow struct {
	Wavelength float64 `csv:"wavelength_nm"`
	N          float64 `csv:"n"`
	K          float64 `csv:"k"`
}

// Table linearly interpolates measured n and k between tabulated wavelengths.
type Table struct {
	lo, hi float64
	n, k   interp.PiecewiseLinear
}

// NewTable builds a Table from rows in any order. At least two distinct wavelengths
// are required.
func NewTable(rows []TableRow) (*Table, error) {
	if len(rows) < 2 {
		return nil, fmt.Errorf("tabulated material needs at least 2 rows, got %d", len(rows))
	}
	sorted := append([]TableRow(nil), rows...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Wavelength < sorted[j].Wavelength })

	xs := make([]float64, len(sorted))
	ns := make([]float64, len(sorted))
	ks := make([]float64, len(sorted))
	for i, r := range sorted {
		if i > 0 && r.Wavelength == sorted[i-1].Wavelength {
			return nil, fmt.Errorf("duplicate wavelength %g in table", r.Wavelength)
		}
		if r.K < 0 {
			return nil, fmt.Errorf("negative extinction k=%g at %g nm", r.K, r.Wavelength)
		}
		xs[i], ns[i], ks[i] = r.Wavelength, r.N, r.K
	}

	t := &Table{lo: xs[0], hi: xs[len(xs)-1]}
	if err := t.n.Fit(xs, ns); err != nil {
		return nil, fmt.Errorf("fitting n: %w", err)
	}
	if err := t.k.Fit(xs, ks); err != nil {
		return nil, fmt.Errorf("fitting k: %w", err)
	}
	return t, nil
}

// ReadTable parses CSV with a wavelength_nm,n,k header.
func ReadTable(r io.Reader) (*Table, error) {
	var rows []TableRow
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("parsing n,k table: %w", err)
	}
	return NewTable(rows)
}

// LoadTable reads a tabulated n,k CSV file.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening n,k table: %w", err)
	}
	defer f.Close()
	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

func (t *Table) Index(wavelength float64) complex128 {
	return complex(t.n.Predict(wavelength), t.k.Predict(wavelength))
}

// Range reports the tabulated wavelength interval.
func (t *Table) Range() (float64, float64) { return t.lo, t.hi }
