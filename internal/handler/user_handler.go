package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
)

type UserHandler struct {
	service  *services.UserService
	presence *services.PresenceService
}

func NewUserHandler(service *services.UserService, presence *services.PresenceService) *UserHandler {
	return &UserHandler{service: service, presence: presence}
}

// Contacts lists every user except the one named by ?except=.
func (h *UserHandler) Contacts(c *gin.Context) {
	except := c.Query("except")
	if except == "" {
		if userID, ok := services.UserIDFromContext(c.Request.Context()); ok {
			except = userID
		}
	}

	users, err := h.service.Contacts(c.Request.Context(), except)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.NewUserDTOs(users)))
}

// Presence lists the users with at least one live connection.
func (h *UserHandler) Presence(c *gin.Context) {
	online := []string{}
	if h.presence != nil {
		online = h.presence.OnlineUsers()
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(httpdto.PresenceResponse{Online: online}))
}
