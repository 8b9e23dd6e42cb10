package handlers

import (
	"itr_flow_app_go/middleware"
	"itr_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// GetWallet returns the calling agent's wallet
func (s *Server) GetWallet(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	wallet, err := services.GetWalletByAgent(s.DB, actor.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, wallet)
}

// GetWalletTransactions returns the calling agent's ledger, oldest first
func (s *Server) GetWalletTransactions(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	entries, err := services.GetTransactions(s.DB, actor.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, entries)
}

type rechargeRequest struct {
	Amount     decimal.Decimal `json:"amount"`
	PaymentRef string          `json:"payment_ref"`
}

// RechargeWallet credits the calling agent's wallet from an external payment
func (s *Server) RechargeWallet(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var req rechargeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	entry, err := services.Recharge(s.DB, actor.ID, req.Amount, req.PaymentRef)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}

type payFilingFeeRequest struct {
	Amount decimal.Decimal `json:"amount"`
}

// PayFilingFee debits the filing fee for a case from the agent's wallet
func (s *Server) PayFilingFee(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var req payFilingFeeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	entry, err := s.Engine.PayFilingFee(actor, c.Param("id"), req.Amount)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, entry)
}
