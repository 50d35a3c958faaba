package material

import (
	"fmt"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// Spec describes one material in a run configuration. A bare name resolves to a
// built-in model; otherwise Model selects a dispersion form and Params fills it.
type Spec struct {
	Name   string             `yaml:"name"`
	Model  string             `yaml:"model,omitempty"`
	Params map[string]float64 `yaml:"params,omitempty"`
	File   string             `yaml:"file,omitempty"` // model "table" only
}

// Valid value registries.
var validModels = map[string]bool{
	"": true, "constant": true, "cauchy_urbach": true, "sellmeier": true, "drude_lorentz": true, "table": true,
}

// Build resolves the spec into a Model. Relative table paths are resolved against baseDir.
func (s Spec) Build(baseDir string) (Model, error) {
	if s.Name == "" {
		return nil, fmt.Errorf("material spec needs a name")
	}
	if !validModels[s.Model] {
		return nil, fmt.Errorf("material %q: unknown model %q; valid: constant, cauchy_urbach, sellmeier, drude_lorentz, table", s.Name, s.Model)
	}
	p := params(s.Params)
	switch s.Model {
	case "":
		m, ok := Builtin(s.Name)
		if !ok {
			return nil, fmt.Errorf("material %q: no model given and no built-in; built-ins: %s",
				s.Name, strings.Join(BuiltinNames(), ", "))
		}
		return m, nil
	case "constant":
		if err := p.allow("n", "k"); err != nil {
			return nil, fmt.Errorf("material %q: %w", s.Name, err)
		}
		return Constant{N: p.get("n", 1), K: p.get("k", 0)}, nil
	case "cauchy_urbach":
		if err := p.allow("a", "b", "c", "k_amp", "k_exp", "band_edge"); err != nil {
			return nil, fmt.Errorf("material %q: %w", s.Name, err)
		}
		return CauchyUrbach{
			A: p.get("a", 1), B: p.get("b", 0), C: p.get("c", 0),
			KAmp: p.get("k_amp", 0), KExp: p.get("k_exp", 0), BandEdge: p.get("band_edge", 0),
		}, nil
	case "sellmeier":
		b, c, err := p.indexed("b", "c")
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", s.Name, err)
		}
		if err := p.allow(append(p.indexedKeys("b", "c", len(b)), "eps_inf")...); err != nil {
			return nil, fmt.Errorf("material %q: %w", s.Name, err)
		}
		return Sellmeier{EpsInf: p.get("eps_inf", 1), B: b, C: c}, nil
	case "drude_lorentz":
		f, g, err := p.indexed("f", "gamma")
		if err != nil {
			return nil, fmt.Errorf("material %q: %w", s.Name, err)
		}
		w, _, err := p.indexed("w", "gamma")
		if err != nil || len(w) != len(f) {
			return nil, fmt.Errorf("material %q: need matching f<i>, gamma<i>, w<i> oscillator params", s.Name)
		}
		allowed := append(p.indexedKeys("f", "gamma", len(f)), p.indexedKeys("w", "gamma", len(w))...)
		if err := p.allow(append(allowed, "eps_inf", "wp", "f0", "gamma0")...); err != nil {
			return nil, fmt.Errorf("material %q: %w", s.Name, err)
		}
		osc := make([]Oscillator, len(f))
		for i := range f {
			osc[i] = Oscillator{Strength: f[i], Damping: g[i], Energy: w[i]}
		}
		return DrudeLorentz{
			EpsInf: p.get("eps_inf", 1), Plasma: p.get("wp", 0),
			F0: p.get("f0", 0), Gamma0: p.get("gamma0", 0), Oscillators: osc,
		}, nil
	default: // table
		if s.File == "" {
			return nil, fmt.Errorf("material %q: model table needs a file", s.Name)
		}
		path := s.File
		if !filepath.IsAbs(path) && baseDir != "" {
			path = filepath.Join(baseDir, path)
		}
		return LoadTable(path)
	}
}

// BuildCatalog resolves specs in order and samples them on wavelengths.
func BuildCatalog(wavelengths []float64, specs []Spec, baseDir string) (*Catalog, error) {
	names := make([]string, len(specs))
	models := make([]Model, len(specs))
	for i, s := range specs {
		m, err := s.Build(baseDir)
		if err != nil {
			return nil, err
		}
		names[i], models[i] = s.Name, m
	}
	return NewCatalog(wavelengths, names, models)
}

type params map[string]float64

func (p params) get(key string, def float64) float64 {
	if v, ok := p[key]; ok {
		return v
	}
	return def
}

// allow rejects keys outside the permitted set (typos must cause errors).
func (p params) allow(keys ...string) error {
	ok := make(map[string]bool, len(keys))
	for _, k := range keys {
		ok[k] = true
	}
	var bad []string
	for k := range p {
		if !ok[k] {
			bad = append(bad, k)
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return fmt.Errorf("unknown params %s", strings.Join(bad, ", "))
	}
	return nil
}

// indexed collects a1,b1,a2,b2,... starting at 1 until the first missing pair.
func (p params) indexed(a, b string) ([]float64, []float64, error) {
	var as, bs []float64
	for i := 1; ; i++ {
		ka, kb := a+strconv.Itoa(i), b+strconv.Itoa(i)
		va, okA := p[ka]
		vb, okB := p[kb]
		if !okA && !okB {
			break
		}
		if okA != okB {
			return nil, nil, fmt.Errorf("param %s needs matching %s", pick(okA, ka, kb), pick(okA, kb, ka))
		}
		as, bs = append(as, va), append(bs, vb)
	}
	return as, bs, nil
}

func (p params) indexedKeys(a, b string, n int) []string {
	keys := make([]string, 0, 2*n)
	for i := 1; i <= n; i++ {
		keys = append(keys, a+strconv.Itoa(i), b+strconv.Itoa(i))
	}
	return keys
}

func pick(cond bool, x, y string) string {
	if cond {
		return x
	}
	return y
}
