package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
)

type MessageHandler struct {
	service *services.MessageService
}

func NewMessageHandler(service *services.MessageService) *MessageHandler {
	return &MessageHandler{service: service}
}

// Send persists a message and returns the stored copy. A request carrying
// only a group id produces a group message.
func (h *MessageHandler) Send(c *gin.Context) {
	var req httpdto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "invalid request")
		return
	}

	senderID := req.SenderID
	if senderID == "" {
		senderID, _ = services.UserIDFromContext(c.Request.Context())
	}

	res, err := h.service.SendDirect(c.Request.Context(), services.SendDirectInput{
		SenderID:        senderID,
		ReceiverID:      req.ReceiverID,
		GroupID:         req.GroupID,
		Text:            req.Text,
		FileID:          req.FileID,
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	if res.Group != nil {
		c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(res.Group))
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(res.Direct))
}

// History returns the private conversation between :a and :b, oldest first.
func (h *MessageHandler) History(c *gin.Context) {
	msgs, err := h.service.PrivateHistory(c.Request.Context(), c.Param("a"), c.Param("b"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(msgs))
}
