package errors

import (
	goerrors "errors"
	"net/http"

	"github.com/Praitheesh/alf.io/pkg/status"
)

// ApplicationError carries the HTTP status code and application status
// alongside the message, so handlers can build a response envelope
// without inspecting the error text.
type ApplicationError struct {
	HTTPStatusCode int
	Status         string
	Message        string
}

func (e *ApplicationError) Error() string {
	return e.Message
}

func New(httpStatusCode int, appStatus string, message string) error {
	return &ApplicationError{
		HTTPStatusCode: httpStatusCode,
		Status:         appStatus,
		Message:        message,
	}
}

// Destruct unpacks err into an ApplicationError. Unknown errors are
// mapped to an internal server error.
func Destruct(err error) *ApplicationError {
	var ae *ApplicationError
	if goerrors.As(err, &ae) {
		return ae
	}

	return &ApplicationError{
		HTTPStatusCode: http.StatusInternalServerError,
		Status:         status.INTERNAL_SERVER_ERROR,
		Message:        err.Error(),
	}
}
