// Package film provides the shared vocabulary of the ellipsometric inversion engine.
//
// # Reading Guide
//
// Start with these files to understand the core types:
//   - grid.go: the wavelength × angle sampling grid and the flattened Spectrum layout
//   - transform.go: the tanh bijection between unconstrained optimizer variables and
//     physically bounded layer thicknesses
//   - rng.go: deterministic per-system random streams derived from one base seed
//
// # Architecture
//
// The film package holds only data types and pure helpers; the engine lives in
// sub-packages:
//   - film/optics/: transfer-matrix forward model (psi, delta, reflectance, transmittance)
//   - film/material/: dispersion models and the ordered material catalog
//   - film/lm/: Levenberg–Marquardt least-squares minimizer
//   - film/search/: residual function, local fit, and the multi-start global search
//   - film/batch/: parallel orchestration of many independent searches
//   - film/metrics/: classification accuracy, thickness RMSE, and result files
//   - film/archive/: packed ground-truth dataset schema, reader, writer, and generator
//
// Every spectrum is flattened angle-major, wavelength-minor: index = a·W + w.
package film
