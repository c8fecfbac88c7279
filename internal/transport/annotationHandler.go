package transport

import (
	"FileCollab/internal/models/response"
	"FileCollab/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type AnnotationHandler struct {
	service service.AnnotationService
}

func NewAnnotationHandler(service service.AnnotationService) *AnnotationHandler {
	return &AnnotationHandler{
		service: service,
	}
}

type AuthorRequest struct {
	UserID      *uuid.UUID `json:"userId"`
	GuestName   string     `json:"guestName"`
	Avatar      string     `json:"avatar"`
	AvatarColor string     `json:"avatarColor"`
}

type CommentRequest struct {
	AuthorRequest
	Text string `json:"text"`
}

type AddAnnotationRequest struct {
	X        *float64         `json:"x"`
	Y        *float64         `json:"y"`
	Comments []CommentRequest `json:"comments"`
}

type UpdateCommentRequest struct {
	Text string `json:"text"`
}

type ResolveRequest struct {
	Resolved *bool `json:"resolved"`
}

// author picks who is speaking: a signed in caller is always themselves.
func author(c *gin.Context, req AuthorRequest) service.AuthorInput {
	in := service.AuthorInput{
		UserID:      req.UserID,
		GuestName:   req.GuestName,
		Avatar:      req.Avatar,
		AvatarColor: req.AvatarColor,
	}
	if user := currentUser(c); user != nil {
		id := user.ID
		in.UserID = &id
	}
	return in
}

func (ah *AnnotationHandler) AddAnnotation(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	var req AddAnnotationRequest
	if !bindJSON(c, &req) {
		return
	}

	comments := make([]service.CommentInput, 0, len(req.Comments))
	for _, cr := range req.Comments {
		comments = append(comments, service.CommentInput{
			Author: author(c, cr.AuthorRequest),
			Text:   cr.Text,
		})
	}

	annotation, err := ah.service.AddAnnotation(c.Request.Context(), fileID, req.X, req.Y, comments)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, response.Standard{
		Data: &response.DataPayload{
			"annotation": annotation,
		},
	})
}

func (ah *AnnotationHandler) GetComments(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	annotationID, ok := intParam(c, "annotationId")
	if !ok {
		return
	}

	comments, err := ah.service.GetComments(c.Request.Context(), fileID, annotationID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"comments": comments,
		},
	})
}

func (ah *AnnotationHandler) AddComment(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	annotationID, ok := intParam(c, "annotationId")
	if !ok {
		return
	}
	var req CommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := ah.service.AddComment(c.Request.Context(), fileID, annotationID, service.CommentInput{
		Author: author(c, req.AuthorRequest),
		Text:   req.Text,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, response.Standard{
		Data: &response.DataPayload{
			"comment": comment,
		},
	})
}

func (ah *AnnotationHandler) UpdateComment(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	annotationID, ok := intParam(c, "annotationId")
	if !ok {
		return
	}
	commentID, ok := intParam(c, "commentId")
	if !ok {
		return
	}
	var req UpdateCommentRequest
	if !bindJSON(c, &req) {
		return
	}

	comment, err := ah.service.UpdateComment(c.Request.Context(), fileID, annotationID, commentID, req.Text)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"comment": comment,
		},
	})
}

func (ah *AnnotationHandler) DeleteComment(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	annotationID, ok := intParam(c, "annotationId")
	if !ok {
		return
	}
	commentID, ok := intParam(c, "commentId")
	if !ok {
		return
	}

	if err := ah.service.DeleteComment(c.Request.Context(), fileID, annotationID, commentID); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			"deleted": true,
		},
	})
}

func (ah *AnnotationHandler) Resolve(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	annotationID, ok := intParam(c, "annotationId")
	if !ok {
		return
	}
	var req ResolveRequest
	if !bindOptionalJSON(c, &req) {
		return
	}
	// an empty body resolves
	resolved := req.Resolved == nil || *req.Resolved

	annotation, err := ah.service.ResolveAnnotation(c.Request.Context(), currentUser(c), fileID, annotationID, resolved)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"annotation": annotation,
		},
	})
}

func (ah *AnnotationHandler) Approve(c *gin.Context) {
	fileID, ok := uuidParam(c, "documentId")
	if !ok {
		return
	}
	var req AuthorRequest
	if !bindOptionalJSON(c, &req) {
		return
	}

	file, err := ah.service.ApproveDocument(c.Request.Context(), fileID, author(c, req))
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"document": file,
		},
	})
}
