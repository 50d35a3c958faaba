// Package archive reads and writes the packed ground-truth dataset: one float64 row
// per simulated system, columns laid out by an explicit Schema.
package archive

import "fmt"

// Field names, in column order.
const (
	FieldAngles    = "angles"
	FieldMaterial  = "material"
	FieldThickness = "thickness"
	FieldRp        = "rp"
	FieldRs        = "rs"
	FieldTp        = "tp"
	FieldTs        = "ts"
	FieldPsi       = "psi"
	FieldDelta     = "delta"
)

// Field is one named, fixed-size block of columns.
type Field struct {
	Name string
	Size int
}

// Schema is the ordered column layout of an archive row. Offsets are derived from
// the field sizes; nothing outside this type does offset arithmetic.
type Schema struct {
	Angles      int
	Materials   int
	Layers      int
	Wavelengths int

	fields  []Field
	offsets map[string]int
}

// NewSchema lays out A angle labels, one M-wide one-hot block per layer, L
// thicknesses, then six W·A spectra.
func NewSchema(angles, materials, layers, wavelengths int) (Schema, error) {
	if angles < 1 || materials < 1 || layers < 1 || wavelengths < 1 {
		return Schema{}, fmt.Errorf("schema sizes must be positive: angles=%d materials=%d layers=%d wavelengths=%d",
			angles, materials, layers, wavelengths)
	}
	spectrum := angles * wavelengths
	s := Schema{
		Angles:      angles,
		Materials:   materials,
		Layers:      layers,
		Wavelengths: wavelengths,
		fields: []Field{
			{FieldAngles, angles},
			{FieldMaterial, materials * layers},
			{FieldThickness, layers},
			{FieldRp, spectrum},
			{FieldRs, spectrum},
			{FieldTp, spectrum},
			{FieldTs, spectrum},
			{FieldPsi, spectrum},
			{FieldDelta, spectrum},
		},
		offsets: make(map[string]int),
	}
	off := 0
	for _, f := range s.fields {
		s.offsets[f.Name] = off
		off += f.Size
	}
	return s, nil
}

// Fields returns the column layout in order.
func (s Schema) Fields() []Field { return append([]Field(nil), s.fields...) }

// Width is the number of float64 columns per row.
func (s Schema) Width() int {
	w := 0
	for _, f := range s.fields {
		w += f.Size
	}
	return w
}

// Span returns the [lo, hi) column range of the named field.
func (s Schema) Span(name string) (lo, hi int, err error) {
	lo, ok := s.offsets[name]
	if !ok {
		return 0, 0, fmt.Errorf("schema has no field %q", name)
	}
	for _, f := range s.fields {
		if f.Name == name {
			return lo, lo + f.Size, nil
		}
	}
	return 0, 0, fmt.Errorf("schema has no field %q", name)
}

func (s Schema) mustSpan(name string) (int, int) {
	lo, hi, err := s.Span(name)
	if err != nil {
		panic(err)
	}
	return lo, hi
}
