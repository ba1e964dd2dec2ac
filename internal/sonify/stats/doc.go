// Package stats is the statistical preprocessing stage of the mapping engine.
//
// Every operation reads a numeric column of a sonify.Frame and returns a new
// frame with the result written to an output column. Inputs are never mutated,
// so a frame can be shared between concurrent callers.
package stats
