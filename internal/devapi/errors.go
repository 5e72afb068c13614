package devapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mattn/go-sqlite3"

	"github.com/jask/adminpanel/internal/database/repository"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id,omitempty"`
}

func respondError(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: message, Code: code, RequestID: requestID(c)})
}

// respondStoreError maps repository and driver errors to responses.
func (s *Server) respondStoreError(c *gin.Context, err error) {
	var sqlErr sqlite3.Error
	switch {
	case errors.Is(err, repository.ErrNotFound):
		respondError(c, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, repository.ErrInvalidQuery):
		respondError(c, http.StatusBadRequest, "invalid_query", err.Error())
	case errors.Is(err, repository.ErrReadOnly):
		respondError(c, http.StatusMethodNotAllowed, "read_only", err.Error())
	case errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique:
		respondError(c, http.StatusConflict, "conflict", "a record with that value already exists")
	case errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintNotNull:
		respondError(c, http.StatusBadRequest, "validation_error", "a required field is missing")
	default:
		s.log.Error("store failure", "request_id", requestID(c), "path", c.Request.URL.Path, "err", err)
		respondError(c, http.StatusInternalServerError, "internal_error", "internal error")
	}
}
