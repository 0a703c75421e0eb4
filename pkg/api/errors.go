package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marmos91/nestfs/internal/logger"
	"github.com/marmos91/nestfs/pkg/service"
	"github.com/marmos91/nestfs/pkg/store/content"
	"github.com/marmos91/nestfs/pkg/store/metadata"
)

// Error kinds that have no metadata.ErrorCode.
const (
	kindTooLarge    = "PayloadTooLargeError"
	kindRateLimited = "RateLimitedError"
	kindInternal    = "InternalError"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// classify maps an error to its HTTP status and error kind.
//
//	ValidationError      -> 400
//	NotFoundError        -> 404 (also a missing blob)
//	CyclicReferenceError -> 409
//	NotEmptyError        -> 409
//	upload too large     -> 413
//	anything else        -> 500
func classify(err error) (int, string) {
	var storeErr *metadata.StoreError
	if errors.As(err, &storeErr) {
		switch storeErr.Code {
		case metadata.ErrValidation:
			return http.StatusBadRequest, storeErr.Code.String()
		case metadata.ErrNotFound:
			return http.StatusNotFound, storeErr.Code.String()
		case metadata.ErrCyclicReference, metadata.ErrNotEmpty:
			return http.StatusConflict, storeErr.Code.String()
		}
	}

	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, content.ErrContentNotFound):
		return http.StatusNotFound, metadata.ErrNotFound.String()
	case errors.Is(err, service.ErrUploadTooLarge), errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, kindTooLarge
	}

	return http.StatusInternalServerError, kindInternal
}

// abortWithError writes the error body and stops the handler chain.
// Internal errors are logged and replaced by a generic message.
func abortWithError(c *gin.Context, err error) {
	status, kind := classify(err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		message = "internal server error"
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, ErrorResponse{Error: kind, Message: message})
}

func abortValidation(c *gin.Context, format string, args ...any) {
	abortWithError(c, metadata.NewValidationError(format, args...))
}
