package transport

import (
	"FileCollab/internal/models/response"
	"FileCollab/internal/service"
	"FileCollab/pkg/appError"
	"fmt"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"path"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// max form size kept in memory, the rest spills to temp files
	maxFormSize = 10 << 20
	maxFileSize = 50 << 20 // 50 MB
)

type FileHandler struct {
	service service.FileService
}

func NewFileHandler(service service.FileService) *FileHandler {
	return &FileHandler{
		service: service,
	}
}

type UpdateDescriptionRequest struct {
	Description string `json:"description"`
}

type MoveFileRequest struct {
	FolderID uuid.UUID `json:"folderId" binding:"required"`
}

// readUploads opens every part of the "files" field. The returned closer
// must be called once the service is done with the readers.
func readUploads(c *gin.Context) ([]service.Upload, func(), error) {
	if err := c.Request.ParseMultipartForm(maxFormSize); err != nil {
		return nil, nil, appError.BadRequest("failed to parse form")
	}
	headers := c.Request.MultipartForm.File["files"]
	if len(headers) == 0 {
		return nil, nil, appError.BadRequest("No files uploaded.")
	}

	var opened []multipart.File
	closeAll := func() {
		for _, f := range opened {
			f.Close()
		}
	}

	uploads := make([]service.Upload, 0, len(headers))
	for _, header := range headers {
		if header.Filename == "" {
			closeAll()
			return nil, nil, appError.BadRequest("invalid file name")
		}
		if header.Size > maxFileSize {
			closeAll()
			return nil, nil, appError.BadRequest("file is too large (max 50 MB)")
		}
		f, err := header.Open()
		if err != nil {
			closeAll()
			return nil, nil, appError.Internal()
		}
		opened = append(opened, f)
		uploads = append(uploads, service.Upload{
			Name:    header.Filename,
			Size:    header.Size,
			Content: f,
		})
	}
	return uploads, closeAll, nil
}

func (fh *FileHandler) Upload(c *gin.Context) {
	uploads, closeAll, err := readUploads(c)
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeAll()

	folderID, err := uuid.Parse(c.Request.FormValue("folderId"))
	if err != nil {
		writeError(c, appError.BadRequest("folderId is required"))
		return
	}

	files, err := fh.service.Upload(c.Request.Context(), currentUser(c), folderID, uploads)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, response.Standard{
		Data: &response.DataPayload{
			"files": files,
		},
	})
}

func (fh *FileHandler) List(c *gin.Context) {
	files, err := fh.service.ListForUser(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"files": files,
		},
	})
}

func (fh *FileHandler) Search(c *gin.Context) {
	files, err := fh.service.Search(c.Request.Context(), currentUser(c), c.Query("q"))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"files": files,
		},
	})
}

func (fh *FileHandler) Metadata(c *gin.Context) {
	id, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}

	file, err := fh.service.GetMetadata(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"file": file,
		},
	})
}

func (fh *FileHandler) UpdateDescription(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	var req UpdateDescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	file, err := fh.service.UpdateDescription(c.Request.Context(), currentUser(c), id, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"file": file,
		},
	})
}

func (fh *FileHandler) Move(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	var req MoveFileRequest
	if !bindJSON(c, &req) {
		return
	}

	file, err := fh.service.Move(c.Request.Context(), currentUser(c), id, req.FolderID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"file": file,
		},
	})
}

func (fh *FileHandler) Download(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}

	file, content, err := fh.service.Download(c.Request.Context(), currentUser(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	defer content.Close()

	contentType := mime.TypeByExtension(path.Ext(file.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.DataFromReader(http.StatusOK, -1, contentType, content, map[string]string{
		"Content-Disposition": fmt.Sprintf("attachment; filename=%s", url.PathEscape(file.Name)),
	})
}

func (fh *FileHandler) Versions(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}

	versions, err := fh.service.Versions(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"versions": versions,
		},
	})
}

func (fh *FileHandler) UploadVersions(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}
	uploads, closeAll, err := readUploads(c)
	if err != nil {
		writeError(c, err)
		return
	}
	defer closeAll()

	versions, err := fh.service.UploadVersions(c.Request.Context(), currentUser(c), id, uploads)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, response.Standard{
		Data: &response.DataPayload{
			"versions": versions,
		},
	})
}

func (fh *FileHandler) Delete(c *gin.Context) {
	id, ok := uuidParam(c, "fileId")
	if !ok {
		return
	}

	if err := fh.service.Delete(c.Request.Context(), currentUser(c), id); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			id.String(): true,
		},
	})
}
