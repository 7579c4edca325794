package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mohanraja088/simple-chat-app-demo/internal/services"
	"github.com/mohanraja088/simple-chat-app-demo/internal/transport/httpdto"
)

type GroupHandler struct {
	service *services.GroupService
}

func NewGroupHandler(service *services.GroupService) *GroupHandler {
	return &GroupHandler{service: service}
}

func (h *GroupHandler) Create(c *gin.Context) {
	var req httpdto.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Members == nil {
		invalidRequest(c, "name and members[] required")
		return
	}

	createdBy := req.CreatedBy
	if createdBy == "" {
		createdBy, _ = services.UserIDFromContext(c.Request.Context())
	}

	g, err := h.service.Create(c.Request.Context(), services.CreateGroupInput{
		Name:      req.Name,
		Members:   req.Members,
		CreatedBy: createdBy,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(httpdto.GroupResponse{Group: g}))
}

// List returns the groups of ?member=, or every group without it.
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.service.ListForMember(c.Request.Context(), c.Query("member"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(groups))
}

func (h *GroupHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse[any](nil))
}

func (h *GroupHandler) PostMessage(c *gin.Context) {
	var req httpdto.PostGroupMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		invalidRequest(c, "id,from required")
		return
	}

	from := req.From
	if from == "" {
		from, _ = services.UserIDFromContext(c.Request.Context())
	}

	msg, err := h.service.PostMessage(c.Request.Context(), services.PostGroupMessageInput{
		GroupID:         c.Param("id"),
		From:            from,
		Text:            req.Text,
		FileID:          req.FileID,
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, httpdto.NewSuccessResponse(msg))
}

// Messages returns the history of group :id, oldest first.
func (h *GroupHandler) Messages(c *gin.Context) {
	msgs, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, httpdto.NewSuccessResponse(msgs))
}
