package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	userapp "github.com/oksasatya/go-auth-boilerplate/internal/application"
	"github.com/oksasatya/go-auth-boilerplate/pkg/response"
	"github.com/oksasatya/go-auth-boilerplate/pkg/validation"
)

type TwoFactorHandler struct {
	Svc    *userapp.Service
	Logger *logrus.Logger
}

func NewTwoFactorHandler(svc *userapp.Service, logger *logrus.Logger) *TwoFactorHandler {
	return &TwoFactorHandler{Svc: svc, Logger: logger}
}

type confirmTwoFactorRequest struct {
	Code   string `json:"code" binding:"required,len=6,numeric"`
	Secret string `json:"secret" binding:"required"`
}

// Setup generates a pending secret and QR code. Nothing is stored until the
// user confirms with a code from their authenticator app.
func (h *TwoFactorHandler) Setup(c *gin.Context) {
	uid := c.GetString("userID")
	setup, err := h.Svc.BeginTwoFactorSetup(c.Request.Context(), uid)
	if err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("two-factor setup failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to start two-factor setup", nil)
		return
	}
	response.Success(c, http.StatusOK, setup, "scan the QR code, then confirm with a code", nil)
}

func (h *TwoFactorHandler) Confirm(c *gin.Context) {
	uid := c.GetString("userID")
	var req confirmTwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	if err := h.Svc.ConfirmTwoFactor(c.Request.Context(), uid, req.Code, req.Secret); err != nil {
		switch {
		case errors.Is(err, userapp.ErrInvalidTwoFactorCode):
			response.Error[any](c, http.StatusBadRequest, "invalid two-factor code", nil)
		case errors.Is(err, userapp.ErrUserNotFound):
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
		default:
			h.Logger.WithError(err).Error("two-factor confirm failed")
			response.Error[any](c, http.StatusInternalServerError, "failed to enable two-factor", nil)
		}
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"two_factor_enabled": true}, "two-factor enabled", nil)
}

func (h *TwoFactorHandler) Disable(c *gin.Context) {
	uid := c.GetString("userID")
	if err := h.Svc.DisableTwoFactor(c.Request.Context(), uid); err != nil {
		if errors.Is(err, userapp.ErrUserNotFound) {
			response.Error[any](c, http.StatusNotFound, "user not found", nil)
			return
		}
		h.Logger.WithError(err).Error("two-factor disable failed")
		response.Error[any](c, http.StatusInternalServerError, "failed to disable two-factor", nil)
		return
	}
	response.Success[any](c, http.StatusOK, map[string]any{"two_factor_enabled": false}, "two-factor disabled", nil)
}
