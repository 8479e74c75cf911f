// Package orchestrator wires the loader → parser → widget policy → marshaller
// pipeline and hands out sessions that execute prediction calls.
package orchestrator
