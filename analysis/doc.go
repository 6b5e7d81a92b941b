// Package analysis composes the fast-path analyzers into one feature vector
// per chunk and maps it onto 0-100 delivery scores.
package analysis
