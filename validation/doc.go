// Package validation validates configuration and request structs using
// go-playground/validator struct tags and reports failures as AppError.
//
//	type PipelineSection struct {
//	    SampleRate int `json:"sample_rate" validate:"gte=8000"`
//	}
//	err := validation.Validate(section)
package validation
