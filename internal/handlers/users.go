package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/whompratt/claans/internal/domain"
)

func (h *Handler) CreateUser(c *gin.Context) {
	var req domain.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	user, err := h.services.UserService.CreateUser(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, domain.ErrUserExists):
			h.errorResponse(c, http.StatusBadRequest, "USER_EXISTS", err.Error())
		case errors.Is(err, domain.ErrCompanyNotFound):
			h.errorResponse(c, http.StatusConflict, "MARKET_NOT_INITIALIZED", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"user": user})
}

func (h *Handler) SetUserActive(c *gin.Context) {
	var req domain.SetUserActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	user, err := h.services.UserService.SetActive(c.Request.Context(), req.UserID, req.Active)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"user": user})
}

func (h *Handler) ListUsers(c *gin.Context) {
	var (
		users []domain.User
		err   error
	)
	if claan := c.Query("claan"); claan != "" {
		users, err = h.services.UserService.ListUsersByClaan(c.Request.Context(), domain.Claan(claan))
	} else {
		users, err = h.services.UserService.ListUsers(c.Request.Context())
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list users")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"users": users})
}

type deleteUserRequest struct {
	UserID int64 `json:"user_id"`
}

func (h *Handler) DeleteUser(c *gin.Context) {
	var req deleteUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.UserService.DeleteUser(c.Request.Context(), req.UserID); err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "user deleted"})
}
