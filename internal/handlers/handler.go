package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/whompratt/claans/internal/domain"
	"github.com/whompratt/claans/internal/service"
)

type Handler struct {
	services *service.Services
	logger   *slog.Logger
}

func NewHandler(services *service.Services, logger *slog.Logger) *Handler {
	return &Handler{
		services: services,
		logger:   logger,
	}
}

func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()

	config := cors.DefaultConfig()
	config.AllowAllOrigins = true
	config.AllowMethods = []string{"GET", "POST"}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type"}

	router.Use(cors.New(config))

	market := router.Group("/market")
	{
		market.POST("/buy", h.BuyShare)
		market.POST("/sell", h.SellShare)
		market.POST("/vote", h.UpdateVote)
		market.GET("/corporate", h.GetCorporateData)
		market.GET("/shares", h.GetOwnedShares)
		market.GET("/portfolio", h.GetPortfolio)
		market.GET("/transactions", h.GetTransactions)
	}

	admin := router.Group("/admin")
	{
		admin.POST("/escrow/process", h.ProcessEscrow)
		admin.POST("/escrow/process/:claan", h.ProcessClaanEscrow)
		admin.POST("/credit", h.IssueCredit)
		admin.POST("/shares/issue", h.IssueShares)
		admin.POST("/shares/retire", h.RetireShare)
		admin.POST("/market/init", h.InitMarket)
		admin.POST("/season/start", h.StartSeason)
	}

	tasks := router.Group("/tasks")
	{
		tasks.GET("", h.ListTasks)
		tasks.POST("/submit", h.SubmitRecord)
		tasks.POST("/add", h.AddTask)
		tasks.POST("/setActive", h.SetActiveTask)
		tasks.POST("/delete", h.DeleteTask)
	}

	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.POST("/add", h.CreateUser)
		users.POST("/setActive", h.SetUserActive)
		users.POST("/delete", h.DeleteUser)
	}

	router.GET("/scores", h.GetScores)
	router.GET("/claan", h.GetClaanData)
	router.GET("/season/fortnight", h.GetFortnightInfo)

	return router
}

func (h *Handler) errorResponse(c *gin.Context, status int, code, message string) {
	h.logger.Error("handler error", "code", code, "message", message, "status", status)
	c.JSON(status, domain.ErrorResponse{
		Error: domain.ErrorDetail{
			Code:    code,
			Message: message,
		},
	})
}

func (h *Handler) successResponse(c *gin.Context, status int, data interface{}) {
	c.JSON(status, data)
}

// tradeErrorResponse maps each trading precondition to its own code so the
// portal can tell the user exactly why the trade was refused.
func (h *Handler) tradeErrorResponse(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrSellCooldown):
		h.errorResponse(c, http.StatusConflict, "SELL_COOLDOWN", err.Error())
	case errors.Is(err, domain.ErrOwnershipCap):
		h.errorResponse(c, http.StatusConflict, "OWNERSHIP_CAP", err.Error())
	case errors.Is(err, domain.ErrInsufficientFunds):
		h.errorResponse(c, http.StatusConflict, "INSUFFICIENT_FUNDS", err.Error())
	case errors.Is(err, domain.ErrNoInventory):
		h.errorResponse(c, http.StatusConflict, "NO_INVENTORY", err.Error())
	case errors.Is(err, domain.ErrShareNotOwned):
		h.errorResponse(c, http.StatusConflict, "NOT_OWNED", err.Error())
	case errors.Is(err, domain.ErrPortfolioNotFound),
		errors.Is(err, domain.ErrInstrumentNotFound):
		h.errorResponse(c, http.StatusNotFound, "NOT_FOUND", err.Error())
	case errors.Is(err, domain.ErrInvalidInput):
		h.errorResponse(c, http.StatusBadRequest, "INVALID_INPUT", err.Error())
	default:
		h.errorResponse(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
