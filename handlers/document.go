package handlers

import (
	"errors"
	"itr_flow_app_go/middleware"
	"itr_flow_app_go/models"
	"itr_flow_app_go/services"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"
)

// UploadDocument stores a file with the storage provider and attaches the
// returned key to the actor's document slot on the case
func (s *Server) UploadDocument(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	caseID := c.Param("id")

	caseRecord, err := services.GetCaseByID(s.DB, caseID)
	if err != nil {
		return httpError(err)
	}

	file, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "File is required")
	}

	key := services.GenerateCaseDocumentKey(caseRecord.AgentID, caseID, file.Filename)
	result, err := s.Storage.Upload(c.Request().Context(), file, key)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to store file")
	}

	doc, err := services.AttachDocument(s.DB, actor, caseID, result)
	if err != nil {
		// Orphaned blobs are cleaned up best-effort; the case record stays consistent
		_ = s.Storage.Delete(c.Request().Context(), result.Key)
		return httpError(err)
	}

	return c.JSON(http.StatusCreated, doc)
}

// DownloadDocument streams a stored document back to the caller
func (s *Server) DownloadDocument(c echo.Context) error {
	var doc models.CaseDocument
	err := s.DB.First(&doc, "id = ? AND case_id = ?", c.Param("docId"), c.Param("id")).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, "Document not found")
		}
		return httpError(err)
	}

	reader, contentType, err := s.Storage.Get(c.Request().Context(), doc.StorageKey)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "File not available")
	}
	defer reader.Close()

	c.Response().Header().Set("Content-Disposition", `attachment; filename="`+doc.FileOriginalName+`"`)
	return c.Stream(http.StatusOK, contentType, reader)
}

// GetNotifications returns the caller's unread notifications
func (s *Server) GetNotifications(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	notifications, err := s.Notifier.GetUnreadNotifications(actor.ID)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read
func (s *Server) MarkNotificationRead(c echo.Context) error {
	actor := middleware.GetCurrentActor(c)
	if err := s.Notifier.MarkAsRead(c.Param("id"), actor.ID); err != nil {
		return httpError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
