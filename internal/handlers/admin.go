package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/whompratt/claans/internal/domain"
)

func (h *Handler) ProcessEscrow(c *gin.Context) {
	report, err := h.services.SettlementService.ProcessEscrow(c.Request.Context())
	if err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "failed to process escrow")
		return
	}

	// Per-claan failures ride along in the report rather than failing the
	// whole pass.
	status := http.StatusOK
	if len(report.Failures) > 0 {
		status = http.StatusMultiStatus
	}
	h.successResponse(c, status, report)
}

func (h *Handler) ProcessClaanEscrow(c *gin.Context) {
	claan := domain.Claan(c.Param("claan"))

	summary, err := h.services.SettlementService.ProcessClaanEscrow(c.Request.Context(), claan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, domain.ErrCompanyNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "SETTLEMENT_FAILED", err.Error())
		}
		return
	}

	h.successResponse(c, http.StatusOK, summary)
}

func (h *Handler) IssueCredit(c *gin.Context) {
	var req domain.IssueCreditRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	credited, err := h.services.CreditService.IssueCredit(c.Request.Context(), req.Value)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"portfolios_credited": credited})
}

func (h *Handler) IssueShares(c *gin.Context) {
	var req domain.IssueSharesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.MarketService.IssueShares(c.Request.Context(), req.InstrumentID, req.Count); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, domain.ErrInstrumentNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "issued"})
}

func (h *Handler) RetireShare(c *gin.Context) {
	var req domain.RetireShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.MarketService.RetireShare(c.Request.Context(), req.InstrumentID); err != nil {
		switch {
		case errors.Is(err, domain.ErrNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", "no unowned share to retire")
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "retired"})
}

func (h *Handler) InitMarket(c *gin.Context) {
	if err := h.services.BootstrapService.InitMarket(c.Request.Context()); err != nil {
		h.errorResponse(c, http.StatusInternalServerError, "INIT_FAILED", err.Error())
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "initialized"})
}

type startSeasonRequest struct {
	Name      string `json:"name"`
	StartDate string `json:"start_date"`
}

func (h *Handler) StartSeason(c *gin.Context) {
	var req startSeasonRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	start, err := time.Parse(time.DateOnly, req.StartDate)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "start_date must be YYYY-MM-DD")
		return
	}

	if err := h.services.SeasonService.StartSeason(c.Request.Context(), req.Name, start); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusCreated, gin.H{"status": "season started"})
}
