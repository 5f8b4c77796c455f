package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/ZenCode/backend/internal/domain/generation"
)

// StatusFor maps a failure kind to its HTTP status
func StatusFor(kind generation.Kind) int {
	switch kind {
	case generation.KindInvalidRequest:
		return http.StatusBadRequest
	case generation.KindRetrievalFailure, generation.KindGenerationFailure:
		return http.StatusBadGateway
	case generation.KindGenerationTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func errorBody(msg, kind string) gin.H {
	body := gin.H{
		"status": "error",
		"error":  msg,
	}
	if kind != "" {
		body["kind"] = kind
	}
	return body
}

func respondKind(c *gin.Context, kind generation.Kind, err error) {
	c.JSON(StatusFor(kind), errorBody(err.Error(), string(kind)))
}
