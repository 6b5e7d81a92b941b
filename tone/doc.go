// Package tone turns a window of lecture transcript into a sentiment and
// delivery-tone judgment.
//
// The judgment itself comes from a text-understanding collaborator, usually
// an llm adapter. Evaluators never fail: empty windows and collaborator
// errors produce a neutral, zero-confidence Judgment, with Error set in the
// latter case.
package tone
