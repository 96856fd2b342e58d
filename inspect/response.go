package inspect

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/managed/errors"
)

// DataResponse is the success envelope.
type DataResponse struct {
	Data any   `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

// Meta carries collection metadata.
type Meta struct {
	Total       int    `json:"total"`
	ContainerID string `json:"containerId,omitempty"`
}

// respondWithError renders err as an AppError when it is one or converts to
// one; anything else is a generic 500.
func respondWithError(c *gin.Context, err error) {
	if appErr, ok := errors.AsAppError(err); ok {
		c.JSON(appErr.HTTPStatus, appErr.ToResponse())
		return
	}
	c.JSON(http.StatusInternalServerError, errors.Internal(err).ToResponse())
}

func respondOK(c *gin.Context, data any, meta *Meta) {
	c.JSON(http.StatusOK, DataResponse{Data: data, Meta: meta})
}
