package api

import (
	"strconv"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/listenupapp/readtrack/internal/http/response"
)

// EnvelopeTransformer wraps every huma response body in the shared envelope:
// {"v":1,"success":true,"data":...} or {"v":1,"success":false,"error":{...}}.
func EnvelopeTransformer(_ huma.Context, status string, v any) (any, error) {
	if apiErr, ok := v.(*APIError); ok {
		return response.Failure(response.ErrorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
			Field:   apiErr.Field,
			Details: apiErr.Details,
		}), nil
	}

	if strings.HasPrefix(status, "2") {
		return response.Success(v), nil
	}
	code, _ := strconv.Atoi(status)
	return response.Failure(response.ErrorBody{
		Code:    response.CodeForStatus(code),
		Message: "request failed",
		Details: v,
	}), nil
}
