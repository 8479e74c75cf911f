// Package openapi exposes the public contracts for loading and parsing the
// inference service schema. Implementations live under internal/openapi to
// keep kin-openapi and ordered-decoding details hidden from consumers.
package openapi
