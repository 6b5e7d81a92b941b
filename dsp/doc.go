// Package dsp extracts the fast-path acoustic features of a lecture chunk:
// fundamental-frequency statistics (AnalyzePitch) and loudness statistics
// (AnalyzeEnergy).
//
// Both analyzers are total functions. Failures degrade to the defined
// silence/zero result with the Error field set; they never panic and never
// return an error value.
package dsp
