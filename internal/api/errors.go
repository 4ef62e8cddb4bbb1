package api

import (
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	domainerrors "github.com/listenupapp/readtrack/internal/errors"
	"github.com/listenupapp/readtrack/internal/http/response"
)

// APIError is a custom error type that implements huma.StatusError.
// It maps domain errors to HTTP responses with consistent structure.
type APIError struct { //nolint:revive // API prefix is intentional for clarity
	status  int
	Code    string `json:"code" doc:"Machine-readable error code"`
	Message string `json:"message" doc:"Human-readable error message"`
	Field   string `json:"field,omitempty" doc:"Offending input field for validation errors"`
	Details any    `json:"details,omitempty" doc:"Additional error details"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return e.Message
}

// GetStatus implements huma.StatusError.
func (e *APIError) GetStatus() int {
	return e.status
}

// ContentType returns the content type for the error response.
func (e *APIError) ContentType(_ string) string {
	return "application/json"
}

// StepDetails is the details payload of a failed sequenced intent.
type StepDetails struct {
	Step     int    `json:"step" doc:"1-based index of the failed step"`
	StepName string `json:"step_name" doc:"Name of the failed step"`
	Cause    string `json:"cause_code" doc:"Error code of the step's own failure"`
}

// RegisterErrorHandler configures huma to use domain errors.
// Call this after creating the huma.API but before registering routes.
func RegisterErrorHandler() {
	huma.NewError = func(status int, message string, errs ...error) huma.StatusError {
		for _, err := range errs {
			if apiErr := fromDomainError(err); apiErr != nil {
				return apiErr
			}
		}

		// huma's own request validation reports field errors as ErrorDetail.
		apiErr := &APIError{
			status:  status,
			Code:    response.CodeForStatus(status),
			Message: message,
		}
		var details []*huma.ErrorDetail
		for _, err := range errs {
			var detail *huma.ErrorDetail
			if errors.As(err, &detail) {
				details = append(details, detail)
			}
		}
		if len(details) > 0 {
			apiErr.Field = details[0].Location
			apiErr.Details = details
		}
		return apiErr
	}
}

// writeError answers a request that failed before reaching a huma operation.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	apiErr := fromDomainError(err)
	if apiErr == nil {
		apiErr = &APIError{
			status:  http.StatusInternalServerError,
			Code:    string(domainerrors.CodeInternal),
			Message: "internal error",
		}
	}
	response.JSON(w, apiErr.status, response.Failure(response.ErrorBody{
		Code:    apiErr.Code,
		Message: apiErr.Message,
		Field:   apiErr.Field,
		Details: apiErr.Details,
	}), s.logger)
}

// fromDomainError maps domain and step errors to an APIError, or returns nil.
// Failed prerequisite steps answer 424; a failed final step keeps its cause's
// code. Both carry StepDetails.
func fromDomainError(err error) *APIError {
	var stepErr *domainerrors.StepError
	if errors.As(err, &stepErr) {
		cause := domainerrors.CodeOf(stepErr.Cause)
		details := StepDetails{
			Step:     stepErr.Index,
			StepName: stepErr.Name,
			Cause:    string(cause),
		}
		// A failed final step is the action itself failing; it answers with
		// the cause's own status.
		if stepErr.Terminal() {
			return &APIError{
				status:  cause.HTTPStatus(),
				Code:    string(cause),
				Message: stepErr.Error(),
				Field:   domainerrors.FieldOf(stepErr.Cause),
				Details: details,
			}
		}
		return &APIError{
			status:  http.StatusFailedDependency,
			Code:    string(domainerrors.CodePrerequisiteFailed),
			Message: stepErr.Error(),
			Details: details,
		}
	}

	var domainErr *domainerrors.Error
	if errors.As(err, &domainErr) {
		return &APIError{
			status:  domainErr.HTTPStatus(),
			Code:    string(domainErr.Code),
			Message: domainErr.Error(),
			Field:   domainErr.Field,
			Details: domainErr.Details,
		}
	}
	return nil
}
