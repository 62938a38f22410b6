package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/whompratt/claans/internal/domain"
)

func (h *Handler) SubmitRecord(c *gin.Context) {
	var req domain.SubmitRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	record, err := h.services.TaskService.SubmitRecord(c.Request.Context(), req.UserID, req.TaskID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrDuplicateRecord):
			h.errorResponse(c, http.StatusConflict, "DUPLICATE_RECORD", err.Error())
		case errors.Is(err, domain.ErrUserNotFound), errors.Is(err, domain.ErrTaskNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"record": record})
}

func (h *Handler) ListTasks(c *gin.Context) {
	activeOnly := false
	if raw := c.Query("active"); raw != "" {
		if parsed, err := strconv.ParseBool(raw); err == nil {
			activeOnly = parsed
		}
	}

	tasks, err := h.services.TaskService.ListTasks(c.Request.Context(), activeOnly)
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to list tasks")
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"tasks": tasks})
}

func (h *Handler) AddTask(c *gin.Context) {
	var req domain.AddTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	task, err := h.services.TaskService.AddTask(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"task": task})
}

func (h *Handler) SetActiveTask(c *gin.Context) {
	var req domain.SetActiveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.TaskService.SetActiveTask(c.Request.Context(), req.TaskID); err != nil {
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "task activated"})
}

func (h *Handler) DeleteTask(c *gin.Context) {
	var req domain.SetActiveTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.TaskService.DeleteTask(c.Request.Context(), req.TaskID); err != nil {
		switch {
		case errors.Is(err, domain.ErrTaskNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "task deleted"})
}

func (h *Handler) GetScores(c *gin.Context) {
	scores, err := h.services.TaskService.GetScores(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeasonNotFound):
			h.errorResponse(c, http.StatusNotFound, "NO_SEASON", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"scores": scores})
}

func (h *Handler) GetClaanData(c *gin.Context) {
	claan := domain.Claan(c.Query("name"))
	if claan == "" {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "name is required")
		return
	}

	data, err := h.services.TaskService.GetClaanData(c.Request.Context(), claan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, domain.ErrSeasonNotFound):
			h.errorResponse(c, http.StatusNotFound, "NO_SEASON", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, data)
}

func (h *Handler) GetFortnightInfo(c *gin.Context) {
	info, err := h.services.SeasonService.FortnightInfo(c.Request.Context())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSeasonNotFound):
			h.errorResponse(c, http.StatusNotFound, "NO_SEASON", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, info)
}
