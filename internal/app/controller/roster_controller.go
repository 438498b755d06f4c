package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jwyun/staffpass-backend/internal/app/service"
	apperrors "github.com/jwyun/staffpass-backend/internal/errors"
	"github.com/jwyun/staffpass-backend/internal/middleware"
)

// 명부 XLSX 업로드 최대 크기
const maxRosterFileSize = 5 * 1024 * 1024 // 5MB

type RosterController struct {
	rosterService service.RosterService
}

func NewRosterController(rosterService service.RosterService) *RosterController {
	return &RosterController{
		rosterService: rosterService,
	}
}

type AddRosterEntryRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Name     string `json:"name" binding:"required"`
	Position string `json:"position"`
}

type UpdateRosterEntryRequest struct {
	Name     string `json:"name"`
	Position string `json:"position"`
}

// AddEntry adds a single roster entry to a store
// POST /api/v1/stores/:id/roster
func (ctrl *RosterController) AddEntry(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	storeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req AddRosterEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	entry, err := ctrl.rosterService.AddEntry(storeID, req.Email, req.Name, req.Position)
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "매장을 찾을 수 없습니다")
			return
		}
		log.Error("Failed to add roster entry", err, map[string]interface{}{
			"store_id": storeID,
		})
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "add roster entry")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Roster entry added successfully",
		"entry":   entry,
	})
}

// ListEntries lists roster entries of a store
// GET /api/v1/stores/:id/roster?limit=
func (ctrl *RosterController) ListEntries(c *gin.Context) {
	storeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	entries, err := ctrl.rosterService.ListByStore(storeID, limit)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "list roster")
		return
	}

	total, err := ctrl.rosterService.CountByStore(storeID)
	if err != nil {
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "count roster")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"entries": entries,
		"total":   total,
	})
}

// UpdateEntry updates a roster entry
// PUT /api/v1/roster/:id
func (ctrl *RosterController) UpdateEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var req UpdateRosterEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "입력 정보가 올바르지 않습니다")
		return
	}

	entry, err := ctrl.rosterService.UpdateEntry(id, req.Name, req.Position)
	if err != nil {
		if errors.Is(err, service.ErrRosterEntryNotFound) {
			apperrors.NotFound(c, apperrors.RosterEntryNotFound, "명부 항목을 찾을 수 없습니다")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "update roster entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Roster entry updated successfully",
		"entry":   entry,
	})
}

// RemoveEntry deletes a roster entry
// DELETE /api/v1/roster/:id
func (ctrl *RosterController) RemoveEntry(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := ctrl.rosterService.RemoveEntry(id); err != nil {
		if errors.Is(err, service.ErrRosterEntryNotFound) {
			apperrors.NotFound(c, apperrors.RosterEntryNotFound, "명부 항목을 찾을 수 없습니다")
			return
		}
		apperrors.ParseAndRespond(c, http.StatusInternalServerError, err, "delete roster entry")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Roster entry removed successfully",
	})
}

// ImportXLSX bulk-imports roster entries from an uploaded XLSX file
// POST /api/v1/stores/:id/roster/import (multipart, field: file)
func (ctrl *RosterController) ImportXLSX(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	storeID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "명부 파일이 필요합니다")
		return
	}

	if fileHeader.Size > maxRosterFileSize {
		apperrors.BadRequest(c, apperrors.UploadFileTooLarge, "파일이 너무 큽니다 (최대 5MB)")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Error("Failed to open uploaded roster file", err)
		apperrors.InternalError(c, "")
		return
	}
	defer file.Close()

	result, err := ctrl.rosterService.ImportXLSX(storeID, file)
	if err != nil {
		if errors.Is(err, service.ErrStoreNotFound) {
			apperrors.NotFound(c, apperrors.StoreNotFound, "매장을 찾을 수 없습니다")
			return
		}
		if errors.Is(err, service.ErrEmptyRosterFile) {
			apperrors.BadRequest(c, apperrors.RosterImportFailed, "명부 파일에 데이터가 없습니다")
			return
		}
		log.Error("Roster import failed", err, map[string]interface{}{
			"store_id": storeID,
			"filename": fileHeader.Filename,
		})
		apperrors.RespondWithError(c, http.StatusUnprocessableEntity, apperrors.RosterImportFailed, "명부 파일을 처리할 수 없습니다")
		return
	}

	log.Info("Roster imported", map[string]interface{}{
		"store_id": storeID,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})

	c.JSON(http.StatusOK, gin.H{
		"message": "Roster imported successfully",
		"result":  result,
	})
}
