package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/whompratt/claans/internal/domain"
)

func (h *Handler) BuyShare(c *gin.Context) {
	var req domain.BuyShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.MarketService.BuyShare(c.Request.Context(), req.PortfolioID, req.InstrumentID); err != nil {
		h.tradeErrorResponse(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "bought"})
}

func (h *Handler) SellShare(c *gin.Context) {
	var req domain.SellShareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.MarketService.SellShare(c.Request.Context(), req.PortfolioID, req.InstrumentID); err != nil {
		h.tradeErrorResponse(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "sold"})
}

func (h *Handler) UpdateVote(c *gin.Context) {
	var req domain.UpdateVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "invalid request body")
		return
	}

	if err := h.services.MarketService.UpdateVote(c.Request.Context(), req.PortfolioID, req.Vote); err != nil {
		h.tradeErrorResponse(c, err)
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"status": "vote updated"})
}

func (h *Handler) GetTransactions(c *gin.Context) {
	portfolioID, err := strconv.ParseInt(c.Query("portfolio_id"), 10, 64)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "portfolio_id is required")
		return
	}

	transactions, err := h.services.MarketService.GetTransactions(c.Request.Context(), portfolioID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPortfolioNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, gin.H{"transactions": transactions})
}

func (h *Handler) GetCorporateData(c *gin.Context) {
	claan := domain.Claan(c.Query("claan"))
	if claan == "" {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "claan is required")
		return
	}

	data, err := h.services.MarketService.GetCorporateData(c.Request.Context(), claan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, domain.ErrCompanyNotFound), errors.Is(err, domain.ErrInstrumentNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, data)
}

func (h *Handler) GetOwnedShares(c *gin.Context) {
	claan := domain.Claan(c.Query("claan"))
	if claan == "" {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "claan is required")
		return
	}

	shares, err := h.services.MarketService.GetOwnedShares(c.Request.Context(), claan)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidInput):
			h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
		case errors.Is(err, domain.ErrCompanyNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, shares)
}

func (h *Handler) GetPortfolio(c *gin.Context) {
	userID, err := strconv.ParseInt(c.Query("user_id"), 10, 64)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", "user_id is required")
		return
	}

	portfolio, err := h.services.MarketService.GetPortfolioByUser(c.Request.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPortfolioNotFound):
			h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
		default:
			h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return
	}

	h.successResponse(c, http.StatusOK, portfolio)
}
