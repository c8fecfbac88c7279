package transport

import (
	"FileCollab/internal/models/entity"
	"FileCollab/internal/models/response"
	"FileCollab/internal/service"
	"FileCollab/pkg/appError"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	service service.AuthService
}

func NewAuthHandler(service service.AuthService) *AuthHandler {
	return &AuthHandler{
		service: service,
	}
}

type RegisterRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type UpdateMeRequest struct {
	Username    *string `json:"username"`
	Email       *string `json:"email"`
	Avatar      *string `json:"avatar"`
	AvatarColor *string `json:"avatarColor"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

func writeJSON(c *gin.Context, statusCode int, data interface{}) {
	c.JSON(statusCode, data)
}

func writeError(c *gin.Context, err error) {
	var (
		respCode    int
		respStatus  int
		respText    string
		customError appError.AppError
	)

	// all service errors should be appError interface, but check that it is true
	if errors.As(err, &customError) {
		respStatus = customError.HTTPStatus()
		respCode = customError.Code()
		respText = customError.Error()
	} else {
		// the text of foreign errors stays in the log
		_ = c.Error(err)
		internal := appError.Internal()
		respCode = internal.Code()
		respStatus = internal.HTTPStatus()
		respText = internal.Error()
	}

	c.AbortWithStatusJSON(respStatus, response.Standard{
		Error: &response.ErrorPayload{
			Code: respCode,
			Text: respText,
		},
	})
}

// bindJSON decodes the body and reports a validation error on failure.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, appError.BadRequest("invalid json: "+err.Error()))
		return false
	}
	return true
}

// bindOptionalJSON is bindJSON for endpoints where the body may be omitted.
func bindOptionalJSON(c *gin.Context, dst interface{}) bool {
	if c.Request.ContentLength == 0 {
		return true
	}
	return bindJSON(c, dst)
}

func (a *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.service.Register(c.Request.Context(), &entity.User{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusCreated, response.Standard{
		Data: &response.DataPayload{
			"user": user,
		},
	})
}

func (a *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	token, user, err := a.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			"token": token,
			"user":  user,
		},
	})
}

func (a *AuthHandler) VerifyEmail(c *gin.Context) {
	if err := a.service.VerifyEmail(c.Request.Context(), c.Param("token")); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			"verified": true,
		},
	})
}

func (a *AuthHandler) Me(c *gin.Context) {
	user, err := a.service.Me(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"user": user,
		},
	})
}

func (a *AuthHandler) UpdateMe(c *gin.Context) {
	var req UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := a.service.UpdateMe(c.Request.Context(), currentUser(c).ID, service.ProfileUpdate{
		Username:    req.Username,
		Email:       req.Email,
		Avatar:      req.Avatar,
		AvatarColor: req.AvatarColor,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Data: &response.DataPayload{
			"user": user,
		},
	})
}

func (a *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := a.service.ChangePassword(c.Request.Context(), currentUser(c).ID, req.OldPassword, req.NewPassword); err != nil {
		writeError(c, err)
		return
	}

	writeJSON(c, http.StatusOK, response.Standard{
		Response: &response.ResponsePayload{
			"changed": true,
		},
	})
}
