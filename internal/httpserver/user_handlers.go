package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/odoyewu/odoyewu/internal/services"
)

type messageRequest struct {
	Content string `json:"content"`
}

func (h *handler) sendMessage(c *gin.Context) {
	var req messageRequest
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	msg, err := h.svc.Messaging.SendMessage(c.Request.Context(), currentUser(c), c.Param("id"), req.Content)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *handler) listMessages(c *gin.Context) {
	msgs, err := h.svc.Messaging.ListMessages(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, msgs)
}

func (h *handler) me(c *gin.Context) {
	user, err := h.svc.Users.GetUser(c.Request.Context(), currentUser(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *handler) updateProfile(c *gin.Context) {
	var req services.ProfileUpdate
	if err := bind(c, &req); err != nil {
		fail(c, err)
		return
	}
	user, err := h.svc.Users.UpdateProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
