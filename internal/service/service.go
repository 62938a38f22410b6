package service

import (
	"github.com/whompratt/claans/internal/service/bootstrap"
	"github.com/whompratt/claans/internal/service/credit"
	"github.com/whompratt/claans/internal/service/market"
	"github.com/whompratt/claans/internal/service/season"
	"github.com/whompratt/claans/internal/service/settlement"
	"github.com/whompratt/claans/internal/service/task"
	"github.com/whompratt/claans/internal/service/user"
)

type Services struct {
	MarketService     *market.MarketService
	SettlementService *settlement.SettlementService
	CreditService     *credit.CreditService
	TaskService       *task.TaskService
	UserService       *user.UserService
	SeasonService     *season.SeasonService
	BootstrapService  *bootstrap.BootstrapService
}
