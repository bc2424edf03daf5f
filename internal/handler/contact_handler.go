package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/where2dive/internal/service"
)

type contactPayload struct {
	Name    string `json:"name" form:"name"`
	Email   string `json:"email" form:"email"`
	Subject string `json:"subject" form:"subject"`
	Message string `json:"message" form:"message"`
}

// SubmitContact 保存联系表单，接受 JSON 或普通表单
func (a *API) SubmitContact(c *gin.Context) {
	var payload contactPayload
	if isJSONRequest(c) {
		if !a.bindJSON(c, &payload) {
			return
		}
	} else if err := c.ShouldBind(&payload); err != nil {
		a.respondMessage(c, http.StatusBadRequest, "request.invalid")
		return
	}

	message, err := a.contact.Submit(service.ContactInput{
		Name:    payload.Name,
		Email:   payload.Email,
		Subject: payload.Subject,
		Message: payload.Message,
	})
	if err != nil {
		if errors.Is(err, service.ErrContactInvalid) {
			a.respondMessage(c, http.StatusBadRequest, "contact.invalid")
			return
		}
		log.Printf("[contact] submit failed: %v", err)
		a.respondMessage(c, http.StatusInternalServerError, "server.error")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": message.ID, "status": message.Status})
}
