package models

import "strings"

// Target is one product page to visit.
type Target struct {
	// URL is the product page address. Required.
	URL string `json:"url" yaml:"url"`

	// SequenceID is the caller-supplied identifier used to name every
	// artifact produced for this target. Required.
	SequenceID string `json:"sequence_id" yaml:"sequence_id"`
}

// Validate checks that both fields are present and that the sequence id
// is usable as a file name component.
func (t Target) Validate() error {
	if strings.TrimSpace(t.URL) == "" {
		return NewScrapeError(ErrCodeInvalidInput, "target url is required", nil)
	}
	if strings.TrimSpace(t.SequenceID) == "" {
		return NewScrapeError(ErrCodeInvalidInput, "target sequence id is required", nil)
	}
	if strings.ContainsAny(t.SequenceID, `/\:*?"<>|`) {
		return NewScrapeError(ErrCodeInvalidInput,
			"target sequence id contains path characters: "+t.SequenceID, nil)
	}
	return nil
}
