package transport

import (
	"FileCollab/internal/models/response"
	"FileCollab/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type FolderHandler struct {
	folders service.FolderService
	access  service.AccessService
}

func NewFolderHandler(folders service.FolderService, access service.AccessService) *FolderHandler {
	return &FolderHandler{
		folders: folders,
		access:  access,
	}
}

type CreateFolderRequest struct {
	Name     string     `json:"name" binding:"required"`
	ParentID *uuid.UUID `json:"parentFolderId"`
}

type UpdateFolderRequest struct {
	Name     *string    `json:"name"`
	ParentID *uuid.UUID `json:"parentFolderId"`
}

func (fh *FolderHandler) Create(c *gin.Context) {
	var req CreateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	folder, err := fh.folders.Create(c.Request.Context(), currentUser(c), req.Name, req.ParentID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, response.Standard{
		Data: &response.DataPayload{
			"folder": folder,
		},
	})
}

// List returns owned folders and folders reachable through shares.
func (fh *FolderHandler) List(c *gin.Context) {
	listing, err := fh.access.ListFoldersForUser(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"ownedFolders":  listing.Owned,
			"sharedFolders": listing.Shared,
		},
	})
}

func (fh *FolderHandler) Get(c *gin.Context) {
	id, ok := uuidParam(c, "folderId")
	if !ok {
		return
	}

	contents, err := fh.folders.Get(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"folder": contents.Folder,
			"files":  contents.Files,
		},
	})
}

func (fh *FolderHandler) Shared(c *gin.Context) {
	id, ok := uuidParam(c, "folderId")
	if !ok {
		return
	}

	shared, err := fh.access.GetFolderWithSharedFiles(c.Request.Context(), id, currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"folder": shared.Folder,
			"files":  shared.Files,
		},
	})
}

func (fh *FolderHandler) Update(c *gin.Context) {
	id, ok := uuidParam(c, "folderId")
	if !ok {
		return
	}
	var req UpdateFolderRequest
	if !bindJSON(c, &req) {
		return
	}

	folder, err := fh.folders.Update(c.Request.Context(), currentUser(c), id, service.FolderUpdate{
		Name:     req.Name,
		ParentID: req.ParentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"folder": folder,
		},
	})
}

func (fh *FolderHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "folderId")
	if !ok {
		return
	}

	if err := fh.folders.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			id.String(): true,
		},
	})
}
