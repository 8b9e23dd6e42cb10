package handlers

import (
	"itr_flow_app_go/middleware"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// TakeCase lets the calling subadmin claim a pending case
func (s *Server) TakeCase(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	caseRecord, err := s.Engine.TakeCase(actor, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

type assignCARequest struct {
	CAID string `json:"ca_id"`
}

// AssignCA forwards a taken case to a chartered accountant
func (s *Server) AssignCA(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var req assignCARequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.CAID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "CA id is required")
	}

	caseRecord, err := s.Engine.AssignCA(actor, c.Param("id"), req.CAID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// MarkFilled records that the CA finished the filing work
func (s *Server) MarkFilled(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	caseRecord, err := s.Engine.MarkFilled(actor, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// StartEVerification moves the case into e-verification
func (s *Server) StartEVerification(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	caseRecord, err := s.Engine.StartEVerification(actor, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// Complete closes the case after e-verification
func (s *Server) Complete(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	caseRecord, err := s.Engine.Complete(actor, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

type rejectRequest struct {
	Reason      string           `json:"reason"`
	ExtraCharge *decimal.Decimal `json:"extra_charge,omitempty"`
}

// Reject moves a non-terminal case to rejected
func (s *Server) Reject(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var req rejectRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Reason == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Rejection reason is required")
	}

	caseRecord, err := s.Engine.Reject(actor, c.Param("id"), req.Reason, req.ExtraCharge)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// Reapply returns a rejected case to pending, debiting the extra charge if owed
func (s *Server) Reapply(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	caseRecord, err := s.Engine.Reapply(actor, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}
