package web

import (
	goerrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"market-chat/errors"
)

// statusFor maps engine errors onto HTTP statuses. Transport and
// fan-out failures never reach this table: they are not surfaced to
// the submitter.
func statusFor(err error) int {
	switch {
	case goerrors.Is(err, errors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case goerrors.Is(err, errors.ErrForbidden),
		goerrors.Is(err, errors.ErrSenderNotParticipant):
		return http.StatusForbidden
	case goerrors.Is(err, errors.ErrConversationNotFound),
		goerrors.Is(err, errors.ErrMessageNotFound):
		return http.StatusNotFound
	case goerrors.Is(err, errors.ErrInvalidParticipants),
		goerrors.Is(err, errors.ErrEmptyBody),
		goerrors.Is(err, errors.ErrBodyTooLong):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func abortWithError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		c.AbortWithStatusJSON(status, gin.H{"error": "internal error"})
		return
	}
	c.AbortWithStatusJSON(status, gin.H{"error": err.Error()})
}
