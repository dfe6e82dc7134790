package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-pulse/internal/core/domain"
	"github.com/comitanigiacomo/kanso-pulse/internal/core/services"
	"github.com/comitanigiacomo/kanso-pulse/internal/logger"
)

type UserHandler struct {
	svc *services.UserService
	log logger.Logger
}

func NewUserHandler(svc *services.UserService, log logger.Logger) *UserHandler {
	return &UserHandler{svc: svc, log: log}
}

type createUserRequest struct {
	Name   string  `json:"name" binding:"required" example:"marta"`
	Age    int     `json:"age" binding:"required" example:"31"`
	Height float64 `json:"height" binding:"required" example:"168.5"`
	Sex    string  `json:"sex" binding:"required" example:"F"`
	Email  string  `json:"email" binding:"required" example:"marta@example.com"`
}

type MessageResponse struct {
	Message string `json:"message" example:"user deleted"`
}

func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	router.POST("/users", h.Create)
	router.PUT("/users/:user_id", h.Update)
	router.DELETE("/users/:user_id", h.Delete)
}

// Create godoc
// @Summary Create a user
// @Tags users
// @Accept json
// @Produce json
// @Param user body createUserRequest true "User"
// @Success 201 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users [post]
func (h *UserHandler) Create(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.svc.Create(c.Request.Context(), services.CreateUserInput{
		Name:   req.Name,
		Age:    req.Age,
		Height: req.Height,
		Sex:    req.Sex,
		Email:  req.Email,
	})
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Update godoc
// @Summary Update some fields of a user
// @Tags users
// @Accept json
// @Produce json
// @Param user_id path string true "User ID"
// @Param user body domain.UserPatch true "Fields to change"
// @Success 200 {object} domain.User
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{user_id} [put]
func (h *UserHandler) Update(c *gin.Context) {
	var patch domain.UserPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	user, err := h.svc.Update(c.Request.Context(), c.Param("user_id"), patch)
	if err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// Delete godoc
// @Summary Delete a user
// @Description Also drops every cached week of the user.
// @Tags users
// @Produce json
// @Param user_id path string true "User ID"
// @Success 200 {object} MessageResponse
// @Failure 404 {object} ErrorResponse
// @Failure 502 {object} ErrorResponse
// @Router /users/{user_id} [delete]
func (h *UserHandler) Delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("user_id")); err != nil {
		handleError(c, h.log, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "user deleted"})
}
