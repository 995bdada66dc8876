package api

import (
	"errors"
	"strconv"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/brainvault/brainvault-server/internal/errors"
	"github.com/brainvault/brainvault-server/internal/http/response"
)

// EnvelopeVersion is the envelope format version, sent as "v".
const EnvelopeVersion = response.Version

// APIEnvelope wraps every successful response and simple errors.
type APIEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// APIErrorEnvelope wraps coded errors.
type APIErrorEnvelope struct { //nolint:revive // API prefix is intentional for clarity
	Version int    `json:"v"`
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// EnvelopeTransformer wraps huma response bodies in the standard envelope.
// Status codes of 400 and above are treated as errors. Domain errors that
// reach the transformer unwrapped are reported by message only, so causes
// never leak.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	code, err := strconv.Atoi(status)
	if err != nil || code < 400 {
		return APIEnvelope{Version: EnvelopeVersion, Success: true, Data: v}, nil
	}

	var apiErr *APIError
	var domainErr *domainerrors.Error
	if e, ok := v.(error); ok && !errors.As(e, &apiErr) && errors.As(e, &domainErr) {
		apiErr = &APIError{
			status:  domainErr.HTTPStatus(),
			Code:    string(domainErr.Code),
			Message: domainErr.Message,
			Details: domainErr.Details,
		}
	}
	if apiErr != nil {
		if apiErr.Code == "" && apiErr.Details == nil {
			return APIEnvelope{Version: EnvelopeVersion, Error: apiErr.Message}, nil
		}
		return APIErrorEnvelope{
			Version: EnvelopeVersion,
			Error:   apiErr.Message,
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Details: apiErr.Details,
		}, nil
	}

	if e, ok := v.(error); ok {
		return APIEnvelope{Version: EnvelopeVersion, Error: e.Error()}, nil
	}
	return APIEnvelope{Version: EnvelopeVersion, Data: v}, nil
}
