package handlers

import (
	"errors"
	"itr_flow_app_go/config"
	"itr_flow_app_go/middleware"
	"itr_flow_app_go/models"
	"itr_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// Server wires the HTTP surface to the workflow core. Handlers are thin glue:
// they parse the request, resolve the actor, call one service operation and
// translate the result.
type Server struct {
	DB       *gorm.DB
	Engine   *services.WorkflowEngine
	Storage  services.StorageProvider
	Notifier *services.NotificationService
	Config   *config.Config
}

func NewServer(database *gorm.DB, engine *services.WorkflowEngine, storage services.StorageProvider, notifier *services.NotificationService, cfg *config.Config) *Server {
	return &Server{
		DB:       database,
		Engine:   engine,
		Storage:  storage,
		Notifier: notifier,
		Config:   cfg,
	}
}

// RegisterRoutes attaches all routes to the echo instance
func (s *Server) RegisterRoutes(e *echo.Echo) {
	e.POST("/login", s.Login)

	api := e.Group("/api")
	api.Use(middleware.RequireAuth(s.DB))
	{
		api.POST("/logout", s.Logout)
		api.GET("/me", s.Me)

		api.GET("/notifications", s.GetNotifications)
		api.POST("/notifications/:id/read", s.MarkNotificationRead)

		// Customers and cases
		agentRoutes := api.Group("")
		agentRoutes.Use(middleware.RequireRole(models.RoleAgent))
		{
			agentRoutes.POST("/customers", s.CreateCustomer)
			agentRoutes.POST("/cases", s.CreateCase)
			agentRoutes.POST("/cases/:id/pay", s.PayFilingFee)
			agentRoutes.GET("/wallet", s.GetWallet)
			agentRoutes.GET("/wallet/transactions", s.GetWalletTransactions)
			agentRoutes.POST("/wallet/recharge", s.RechargeWallet)
		}

		api.GET("/cases/:id", s.GetCase)
		api.GET("/cases/:id/history", s.GetCaseHistory)
		api.PUT("/cases/:id/customer-fields", s.UpdateCustomerFields)
		api.POST("/cases/:id/documents", s.UploadDocument)
		api.GET("/cases/:id/documents/:docId/download", s.DownloadDocument)

		// Workflow transitions
		api.POST("/cases/:id/take", s.TakeCase, middleware.RequireRole(models.RoleSubadmin))
		api.POST("/cases/:id/assign-ca", s.AssignCA, middleware.RequireRole(models.RoleSubadmin))
		api.POST("/cases/:id/filled", s.MarkFilled, middleware.RequireRole(models.RoleCA))
		api.POST("/cases/:id/everify", s.StartEVerification, middleware.RequireRole(models.RoleCA, models.RoleSuperadmin))
		api.POST("/cases/:id/complete", s.Complete, middleware.RequireRole(models.RoleSuperadmin))
		api.POST("/cases/:id/reject", s.Reject, middleware.RequireRole(models.RoleSubadmin, models.RoleCA, models.RoleSuperadmin))
		api.POST("/cases/:id/reapply", s.Reapply, middleware.RequireRole(models.RoleAgent, models.RoleSubadmin, models.RoleSuperadmin))
		api.POST("/cases/:id/grant-edit", s.GrantAgentEdit, middleware.RequireRole(models.RoleSubadmin, models.RoleSuperadmin))
	}
}

// httpError maps service sentinels onto HTTP failures. Every failure leaves
// prior state unchanged, so callers can correct input and retry.
func httpError(err error) error {
	switch {
	case errors.Is(err, services.ErrCaseNotFound),
		errors.Is(err, services.ErrCustomerNotFound),
		errors.Is(err, services.ErrWalletNotFound),
		errors.Is(err, services.ErrFlowNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrInvalidTransition):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrConcurrentModification):
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrFieldNotPermitted),
		errors.Is(err, services.ErrNotCaseOwner),
		errors.Is(err, services.ErrNotAssigned),
		errors.Is(err, services.ErrEditNotGranted):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrInsufficientFunds):
		return echo.NewHTTPError(http.StatusPaymentRequired, err.Error())
	case errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, services.ErrDuplicateCase):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
