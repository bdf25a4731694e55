package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finsight/internal/charts"
	"finsight/internal/core"
	"finsight/internal/ingest"
)

// ResponseBuilder accumulates headers, status and a JSON body.
type ResponseBuilder struct {
	statusCode int
	headers    map[string]string
	body       any
}

func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets v as the body. A nil v writes the status with no body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}
	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(b.statusCode)
	_ = json.NewEncoder(w).Encode(b.body)
}

type errorBody struct {
	Error string `json:"error"`
}

// ErrorResponse builds the {"error": msg} body used by every API failure.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

// statusFor maps domain and ingestion errors onto HTTP statuses and the
// message shown to the client.
func statusFor(err error) (int, string) {
	var maxBytes *http.MaxBytesError
	switch {
	case errors.Is(err, core.ErrNoActiveSession):
		return http.StatusConflict, core.ErrNoActiveSession.Error()
	case errors.Is(err, core.ErrUnknownChart):
		return http.StatusBadRequest, core.ErrUnknownChart.Error()
	case errors.Is(err, ingest.ErrUnsupportedFormat):
		return http.StatusUnsupportedMediaType, ingest.ErrUnsupportedFormat.Error()
	case errors.Is(err, ingest.ErrMissingColumn), errors.Is(err, ingest.ErrNoRows),
		errors.Is(err, ingest.ErrMalformedFile), errors.Is(err, errMissingFile):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, charts.ErrEmptyChart):
		return http.StatusNoContent, ""
	default:
		return http.StatusInternalServerError, "internal error"
	}
}
