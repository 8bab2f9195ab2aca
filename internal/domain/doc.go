// Package domain contains the entities shared by the simulation engine, the
// stores and the HTTP layer: compounds, regimens, blood tests and users.
// Subpackages hold the numerical code (pk) and the clinical unit table (units).
package domain
