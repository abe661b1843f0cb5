package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Domenick1991/skypass/internal/domain"
	"github.com/Domenick1991/skypass/internal/service/users"
)

type UserHandler struct {
	service users.UserUseCase
}

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name"`
	PhoneNo   string `json:"phone_no"`
}

func NewUserHandler(service users.UserUseCase) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) RegisterAdmin(router *gin.RouterGroup) {
	router.GET("", h.list)
	router.POST("/:username/promote", h.promote)
	router.POST("/:username/demote", h.demote)
}

// register always creates passengers; admins are made by promotion.
func (h *UserHandler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	user, err := h.service.Register(c.Request.Context(), users.RegisterInput{
		Username:  req.Username,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		PhoneNo:   req.PhoneNo,
		Role:      domain.RolePassenger,
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) list(c *gin.Context) {
	list, err := h.service.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *UserHandler) promote(c *gin.Context) {
	if err := h.service.Promote(c.Request.Context(), c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) demote(c *gin.Context) {
	actor := currentUser(c)
	if err := h.service.Demote(c.Request.Context(), actor.Username, c.Param("username")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
