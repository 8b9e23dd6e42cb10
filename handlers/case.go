package handlers

import (
	"itr_flow_app_go/middleware"
	"itr_flow_app_go/models"
	"itr_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
)

type createCustomerRequest struct {
	Name          string `json:"name"`
	PanNumber     string `json:"pan_number"`
	AadhaarNumber string `json:"aadhaar_number"`
	Mobile        string `json:"mobile"`
	Email         string `json:"email"`
}

// CreateCustomer registers a taxpayer under the calling agent
func (s *Server) CreateCustomer(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var req createCustomerRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Name == "" || req.PanNumber == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Name and PAN are required")
	}

	customer := &models.Customer{
		AgentID:       actor.ID,
		Name:          req.Name,
		PanNumber:     req.PanNumber,
		AadhaarNumber: req.AadhaarNumber,
		Mobile:        req.Mobile,
		Email:         req.Email,
	}
	if err := services.CreateCustomer(s.DB, customer); err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, customer)
}

type createCaseRequest struct {
	CustomerID     string `json:"customer_id"`
	AssessmentYear string `json:"assessment_year"`
}

// CreateCase submits a customer for ITR filing
func (s *Server) CreateCase(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var req createCaseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.CustomerID == "" || req.AssessmentYear == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "Customer and assessment year are required")
	}

	caseRecord, err := services.CreateCase(s.DB, actor.ID, req.CustomerID, req.AssessmentYear)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, caseRecord)
}

// GetCase returns a case with its workflow state
func (s *Server) GetCase(c echo.Context) error {
	caseRecord, err := services.GetCaseByID(s.DB, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, caseRecord)
}

// GetCaseHistory returns the flow record and rejection trail for a case
func (s *Server) GetCaseHistory(c echo.Context) error {
	flow, rejections, err := services.GetHistory(s.DB, c.Param("id"))
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"milestones": flow,
		"rejections": rejections,
	})
}

// UpdateCustomerFields applies permission-gated field edits for a case's customer
func (s *Server) UpdateCustomerFields(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)

	var fields map[string]string
	if err := c.Bind(&fields); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	if err := services.UpdateCustomerFields(s.DB, actor, c.Param("id"), fields); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}

// GrantAgentEdit opens the one-shot edit window for the case's agent
func (s *Server) GrantAgentEdit(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	if err := services.GrantAgentEdit(s.DB, actor, c.Param("id")); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
