package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
	"github.com/mohanraja088/simple-chat-app-demo/pkg/logger"
)

func writeError(c *gin.Context, err error) {
	status := services.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		if l := logger.GetGlobalLogger(); l != nil {
			l.WithContext(c.Request.Context()).Error("request failed",
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
	}
	c.JSON(status, httpdto.NewErrorResponse(services.PublicMessage(err), services.ErrorCode(err)))
}

func invalidRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, httpdto.NewErrorResponse(msg, "INVALID_REQUEST"))
}
