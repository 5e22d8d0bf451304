package handler

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/censeo-io/censeo-v2/internal/models"
	"github.com/censeo-io/censeo-v2/internal/service"
	"github.com/censeo-io/censeo-v2/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// ExportHandler produces facilitator downloads of a session's stories and
// votes.
type ExportHandler struct {
	DB       *gorm.DB
	Sessions *service.SessionService
}

func NewExportHandler(db *gorm.DB, sessions *service.SessionService) *ExportHandler {
	return &ExportHandler{DB: db, Sessions: sessions}
}

// ExportXLSX streams the session's stories with vote tallies as a workbook.
// Facilitator only.
func (h *ExportHandler) ExportXLSX(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	session, err := h.Sessions.ForFacilitator(c.Param("id"), user)
	if err != nil {
		failFromService(c, err)
		return
	}

	var stories []models.Story
	if err := h.DB.Where("session_id = ?", session.ID).
		Order("story_order ASC, created_at ASC").
		Preload("Votes").
		Preload("Votes.User").
		Find(&stories).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to load stories")
		return
	}

	f := excelize.NewFile()
	sheetName := "Stories"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "Failed to create sheet")
		return
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headers := []string{"Order", "Title", "Status", "Description", "Votes", "Estimates"}
	for i, hd := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, hd)
	}

	for idx := range stories {
		st := &stories[idx]
		row := idx + 2

		estimates := make([]string, 0, len(st.Votes))
		for i := range st.Votes {
			v := &st.Votes[i]
			estimates = append(estimates, fmt.Sprintf("%s: %s", v.User.Email, v.Points))
		}

		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), st.StoryOrder)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), st.Title)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), st.Status)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), st.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), len(st.Votes))
		f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), strings.Join(estimates, ", "))
	}

	f.SetColWidth(sheetName, "A", "A", 8)
	f.SetColWidth(sheetName, "B", "B", 40)
	f.SetColWidth(sheetName, "C", "D", 20)
	f.SetColWidth(sheetName, "E", "E", 8)
	f.SetColWidth(sheetName, "F", "F", 50)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"session_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		// headers are already out; nothing sane to report
		return
	}
}
