package material

import (
	"io"

	"github.com/gocarina/gocsv"
)

// CatalogRow is one sampled (material, wavelength) entry of an exported catalog.
type CatalogRow struct {
	Index      int     `csv:"index"`
	Material   string  `csv:"material"`
	Wavelength float64 `csv:"wavelength_nm"`
	N          float64 `csv:"n"`
	K          float64 `csv:"k"`
}

// Rows flattens the catalog material-major for export.
func (c *Catalog) Rows() []CatalogRow {
	rows := make([]CatalogRow, 0, len(c.materials)*len(c.wavelengths))
	for i, m := range c.materials {
		for w, wl := range c.wavelengths {
			rows = append(rows, CatalogRow{
				Index: i, Material: m.Name, Wavelength: wl,
				N: real(m.Index[w]), K: imag(m.Index[w]),
			})
		}
	}
	return rows
}

// WriteCSV writes the sampled catalog with a header row.
func (c *Catalog) WriteCSV(w io.Writer) error {
	return gocsv.Marshal(c.Rows(), w)
}
