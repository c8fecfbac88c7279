package transport

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/models/response"
	"FileCollab/internal/service"
	"FileCollab/pkg/appError"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ShareHandler struct {
	service service.ShareService
}

func NewShareHandler(service service.ShareService) *ShareHandler {
	return &ShareHandler{
		service: service,
	}
}

type CreateShareRequest struct {
	ResourceType entity.ResourceType `json:"resourceType" binding:"required"`
	ResourceID   uuid.UUID           `json:"resourceId" binding:"required"`
	Emails       []string            `json:"shareEmails" binding:"required"`
	Permission   entity.Permission   `json:"permissions"`
}

type RemoveShareRequest struct {
	ResourceType entity.ResourceType `json:"resourceType" binding:"required"`
	ResourceID   uuid.UUID           `json:"resourceId" binding:"required"`
	Email        string              `json:"email" binding:"required"`
}

func (sh *ShareHandler) Create(c *gin.Context) {
	var req CreateShareRequest
	if !bindJSON(c, &req) {
		return
	}
	if req.Permission == "" {
		req.Permission = entity.PermissionView
	}

	result, err := sh.service.CreateShare(c.Request.Context(), currentUser(c), service.ShareRequest{
		ResourceType: req.ResourceType,
		ResourceID:   req.ResourceID,
		Emails:       req.Emails,
		Permission:   req.Permission,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusOK
	}
	writeJSON(c, status, response.Standard{
		Data: &response.DataPayload{
			"share": result,
		},
	})
}

func (sh *ShareHandler) Emails(c *gin.Context) {
	resourceType := entity.ResourceType(c.Param("type"))
	if !resourceType.Valid() {
		writeError(c, appError.BadRequest("Invalid resource type"))
		return
	}
	id, ok := uuidParam(c, "resourceId")
	if !ok {
		return
	}

	recipients, err := sh.service.ListRecipients(c.Request.Context(), currentUser(c), resourceType, id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"recipients": recipients,
		},
	})
}

func (sh *ShareHandler) Remove(c *gin.Context) {
	var req RemoveShareRequest
	if !bindJSON(c, &req) {
		return
	}

	err := sh.service.RemoveShare(c.Request.Context(), currentUser(c), req.ResourceType, req.ResourceID, req.Email)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			"removed": true,
		},
	})
}
