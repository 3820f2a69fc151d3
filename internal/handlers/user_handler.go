package handlers

import (
	"net/http"

	"habbit_backend/internal/middleware"
	"habbit_backend/internal/services"
	"habbit_backend/internal/services/dto"

	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	*BaseHandler
	userService services.UserService
}

func NewUserHandler(base *BaseHandler, userService services.UserService) *UserHandler {
	return &UserHandler{
		BaseHandler: base,
		userService: userService,
	}
}

func (h *UserHandler) RegisterRoutes(r *gin.RouterGroup) {
	users := r.Group("/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", h.GetProfile)
		users.PATCH("/me/correction-style", h.UpdateCorrectionStyle)
		users.PATCH("/me/shortcut", h.UpdateShortcut)
	}
}

func (h *UserHandler) GetProfile(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	profile, err := h.userService.GetProfile(userID)
	if err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, profile)
}

func (h *UserHandler) UpdateCorrectionStyle(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateCorrectionStyleRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.userService.UpdateCorrectionStyle(userID, req.CorrectionStyle); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Correction style updated"})
}

func (h *UserHandler) UpdateShortcut(c *gin.Context) {
	userID, ok := h.GetAndAuthorizeUserID(c)
	if !ok {
		return
	}

	var req dto.UpdateShortcutRequest
	if !h.BindAndValidate_JSON(c, &req) {
		return
	}

	if err := h.userService.UpdateShortcut(userID, req.Shortcut); err != nil {
		h.HandleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Shortcut updated"})
}
