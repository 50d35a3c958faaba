package material

import "sort"

// Rakić et al. (1998) Lorentz–Drude parameters, energies in eV.
var (
	silver = DrudeLorentz{
		EpsInf: 1, Plasma: 9.01, F0: 0.845, Gamma0: 0.048,
		Oscillators: []Oscillator{
			{Strength: 0.065, Damping: 3.886, Energy: 0.816},
			{Strength: 0.124, Damping: 0.452, Energy: 4.481},
			{Strength: 0.011, Damping: 0.065, Energy: 8.185},
			{Strength: 0.840, Damping: 0.916, Energy: 9.083},
			{Strength: 5.646, Damping: 2.419, Energy: 20.29},
		},
	}
	gold = DrudeLorentz{
		EpsInf: 1, Plasma: 9.03, F0: 0.760, Gamma0: 0.053,
		Oscillators: []Oscillator{
			{Strength: 0.024, Damping: 0.241, Energy: 0.415},
			{Strength: 0.010, Damping: 0.345, Energy: 0.830},
			{Strength: 0.071, Damping: 0.870, Energy: 2.969},
			{Strength: 0.601, Damping: 2.494, Energy: 4.304},
			{Strength: 4.384, Damping: 2.214, Energy: 13.32},
		},
	}
)

var builtins = map[string]Model{
	"ag": silver,
	"au": gold,
	// Malitson ordinary ray.
	"al2o3": Sellmeier{
		EpsInf: 1,
		B:      []float64{1.4313493, 0.65054713, 5.3414021},
		C:      []float64{0.0726631 * 0.0726631, 0.1193242 * 0.1193242, 18.028251 * 18.028251},
	},
	// DeVore rutile ordinary ray, rewritten in Sellmeier form.
	"tio2": Sellmeier{EpsInf: 2.8731, B: []float64{3.0399}, C: []float64{0.0803}},
	// Screened Drude free carriers.
	"ito":   DrudeLorentz{EpsInf: 3.57, Plasma: 1.89, F0: 1, Gamma0: 0.111},
	"glass": CauchyUrbach{A: 1.55, B: 0.005},
	"air":   Constant{N: 1},
}

// DefaultCatalogNames is the material order used when a run configuration lists none.
var DefaultCatalogNames = []string{"ag", "al2o3", "ito", "au", "tio2"}

// Builtin returns the named built-in model.
func Builtin(name string) (Model, bool) {
	m, ok := builtins[name]
	return m, ok
}

// BuiltinNames lists every built-in model name, sorted.
func BuiltinNames() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
