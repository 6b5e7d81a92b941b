package main

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/kbukum/voicepulse/analysis"
	"github.com/kbukum/voicepulse/errors"
	"github.com/kbukum/voicepulse/session"
)

const (
	formatYAML = "yaml"
	formatJSON = "json"
)

type chunkReport struct {
	StartSeconds float64              `json:"start_seconds" yaml:"start_seconds"`
	Metrics      analysis.FastMetrics `json:"metrics" yaml:"metrics"`
	Delivery     analysis.Delivery    `json:"delivery" yaml:"delivery"`
}

type report struct {
	Session         string               `json:"session" yaml:"session"`
	File            string               `json:"file" yaml:"file"`
	DurationSeconds float64              `json:"duration_seconds" yaml:"duration_seconds"`
	SampleRate      int                  `json:"sample_rate" yaml:"sample_rate"`
	Chunks          []chunkReport        `json:"chunks" yaml:"chunks"`
	Checkpoints     []session.Checkpoint `json:"checkpoints" yaml:"checkpoints"`
	Summary         session.Summary      `json:"summary" yaml:"summary"`
	Transcript      string               `json:"transcript,omitempty" yaml:"transcript,omitempty"`
}

func validateFormat(format string) error {
	switch format {
	case formatYAML, formatJSON:
		return nil
	default:
		return errors.InvalidInput("output", fmt.Sprintf("unknown format %q", format))
	}
}

func render(w io.Writer, format string, r report) error {
	if r.Checkpoints == nil {
		r.Checkpoints = []session.Checkpoint{}
	}
	return encode(w, format, r)
}

func encode(w io.Writer, format string, v any) error {
	switch format {
	case formatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	default:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
}
