// Package speech scores lecture transcripts: filler and disfluency rate
// (ScoreFillers) and speaking rate in words per minute (CalculateRate).
// Both are pure string processing and never fail.
package speech
