package models

import (
	"errors"
	"fmt"
)

// Invalid-input error codes, surfaced as the machine-readable "code" field
// of a 400 response.
const (
	CodeMissingQuery = "missing_query"
	CodeUnsafeInput  = "unsafe_input"
	CodeOffDomain    = "off_domain"
)

// InvalidInputError rejects a request before any provider call is made.
type InvalidInputError struct {
	Code    string
	Message string
	Details string
}

func (e *InvalidInputError) Error() string {
	return e.Message
}

// GenerationError means both language pipelines exhausted every provider.
// Details carries per-provider diagnostics for operators without leaking
// credentials.
type GenerationError struct {
	Details GenerationDetails
}

type GenerationDetails struct {
	ZHSuccess      bool `json:"zhSuccess"`
	ENSuccess      bool `json:"enSuccess"`
	HasDeepSeekKey bool `json:"hasDeepSeekKey"`
	HasVolcArkKey  bool `json:"hasVolcArkKey"`
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("all providers failed (zh=%t, en=%t)", e.Details.ZHSuccess, e.Details.ENSuccess)
}

func AsInvalidInput(err error) (*InvalidInputError, bool) {
	var ie *InvalidInputError
	if errors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

func AsGenerationError(err error) (*GenerationError, bool) {
	var ge *GenerationError
	if errors.As(err, &ge) {
		return ge, true
	}
	return nil, false
}
