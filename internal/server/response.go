package server

import (
	"errors"
	"net/http"

	"StockScreener/internal/model"
)

// ServiceResponse is the JSON envelope of every API response.
type ServiceResponse[T any] struct {
	Data  *T     `json:"data"`
	Error string `json:"error"`
}

func responseOk[T any](data *T) ServiceResponse[T] {
	return ServiceResponse[T]{Data: data}
}

func responseError(msg string) ServiceResponse[any] {
	return ServiceResponse[any]{Error: msg}
}

// statusFor maps pipeline errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrEmptySeries):
		return http.StatusNotFound
	case errors.Is(err, model.ErrFetchFailure):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
