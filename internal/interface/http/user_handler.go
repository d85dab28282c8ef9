package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-auth-boilerplate/internal/application"
	"github.com/oksasatya/go-auth-boilerplate/internal/domain/entity"
	"github.com/oksasatya/go-auth-boilerplate/pkg/imaging"
	"github.com/oksasatya/go-auth-boilerplate/pkg/response"
	"github.com/oksasatya/go-auth-boilerplate/pkg/validation"
)

type UserHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *userapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

type updateProfileRequest struct {
	Name  string `json:"name" binding:"required,min=2,max=50,personname"`
	Email string `json:"email" binding:"required,email,max=254"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,userpwd"`
}

func profileBody(u *entity.User) gin.H {
	body := gin.H{
		"id":                 u.ID,
		"email":              u.Email,
		"name":               u.Name,
		"two_factor_enabled": u.TwoFactorActive(),
		"profile_image":      nil,
		"created_at":         u.CreatedAt,
		"updated_at":         u.UpdatedAt,
	}
	if u.ProfileImage != nil {
		body["profile_image"] = gin.H{
			"url":         u.ProfileImage.URL,
			"uploaded_at": u.ProfileImage.UploadedAt,
		}
	}
	return body
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	uid := c.GetString("userID")
	u, err := h.Svc.GetProfile(c.Request.Context(), uid)
	if err != nil {
		response.Error[any](c, http.StatusNotFound, "user not found", nil)
		return
	}
	response.Success(c, http.StatusOK, profileBody(u), "profile", nil)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	uid := c.GetString("userID")
	var req updateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	u, err := h.Svc.UpdateProfile(c.Request.Context(), uid, req.Name, req.Email)
	if err != nil {
		switch {
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		case errors.Is(err, userapp.ErrEmailTaken):
			response.Error[any](c, http.StatusConflict, "email already in use", nil)
		default:
			h.Logger.WithError(err).Error("update profile failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to update profile", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, profileBody(u), "profile updated", nil)
}

func (h *UserHandler) ChangePassword(c *gin.Context) {
	uid := c.GetString("userID")
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ChangePassword(c.Request.Context(), uid, req.CurrentPassword, req.NewPassword); err != nil {
		switch {
		case errors.Is(err, userapp.ErrWrongPassword):
			response.Error[any](c, http.StatusBadRequest, "current password is incorrect", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			h.Logger.WithError(err).Error("change password failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to change password", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"changed": true}, "password changed", nil)
}

func (h *UserHandler) UploadProfileImage(c *gin.Context) {
	uid := c.GetString("userID")

	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "image file is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	if max := h.Svc.MaxUploadBytes; max > 0 && header.Size > max {
		response.Error[any](c, http.StatusBadRequest, "image exceeds size limit", map[string]any{"max_bytes": max})
		return
	}

	data, err := io.ReadAll(io.LimitReader(file, h.Svc.MaxUploadBytes+1))
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "failed to read image", nil)
		return
	}

	img, err := h.Svc.UploadAvatar(c.Request.Context(), uid, data, header.Header.Get("Content-Type"))
	if err != nil {
		switch {
		case errors.Is(err, imaging.ErrUnsupportedType):
			response.Error[any](c, http.StatusBadRequest, "unsupported image type", nil)
		case errors.Is(err, imaging.ErrInvalidImage):
			response.Error[any](c, http.StatusBadRequest, "invalid image file", nil)
		case errors.Is(err, userapp.ErrImageTooLarge):
			response.Error[any](c, http.StatusBadRequest, "image exceeds size limit", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			h.Logger.WithError(err).Error("avatar upload failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to upload image", nil)
		}
		return
	}
	response.Success(c, http.StatusOK, gin.H{
		"profile_image": gin.H{
			"url":         img.URL,
			"uploaded_at": img.UploadedAt,
		},
	}, "profile image updated", nil)
}

func (h *UserHandler) DeleteProfileImage(c *gin.Context) {
	uid := c.GetString("userID")
	if err := h.Svc.DeleteAvatar(c.Request.Context(), uid); err != nil {
		switch {
		case errors.Is(err, userapp.ErrNoProfileImage):
			response.Error[any](c, http.StatusBadRequest, "no profile image to delete", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			h.Logger.WithError(err).Error("avatar delete failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to delete image", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"deleted": true}, "profile image deleted", nil)
}

// Search queries the Elasticsearch users index by name or email.
func (h *UserHandler) Search(c *gin.Context) {
	q := c.Query("q")
	if q == "" {
		response.Error[any](c, http.StatusBadRequest, "q is required", nil)
		return
	}
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchUsers(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Error("user search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", map[string]any{"count": len(hits)})
}
