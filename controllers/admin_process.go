package controllers

import (
	"net/http"
	"strconv"
	"time"

	"workflow-automation-api/config"
	"workflow-automation-api/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

/* ==========================
   Process administration
   ========================== */

type processPayload struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	IsActive    *bool  `json:"is_active"`
}

// AdminListProcesses returns all processes with their ordered steps.
func AdminListProcesses(c *gin.Context) {
	var processes []models.Process
	if err := config.DB.Preload("Steps", func(db *gorm.DB) *gorm.DB {
		return db.Order("step_order ASC")
	}).Order("process_id ASC").Find(&processes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch processes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processes": processes, "total": len(processes)})
}

// AdminCreateProcess creates a process definition.
func AdminCreateProcess(c *gin.Context) {
	var req processPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	process := models.Process{
		Name:        req.Name,
		Description: req.Description,
		IsActive:    true,
		CreateAt:    &now,
		UpdateAt:    &now,
	}
	if req.IsActive != nil {
		process.IsActive = *req.IsActive
	}

	if err := config.DB.Create(&process).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create process"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"process": process})
}

// AdminUpdateProcess updates name/description/active flag. Steps are managed
// through the step endpoints; edits affect in-flight requests on their next
// transition only.
func AdminUpdateProcess(c *gin.Context) {
	process, ok := findProcess(c)
	if !ok {
		return
	}

	var req processPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	now := time.Now()
	process.Name = req.Name
	process.Description = req.Description
	if req.IsActive != nil {
		process.IsActive = *req.IsActive
	}
	process.UpdateAt = &now

	if err := config.DB.Save(process).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update process"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"process": process})
}

// AdminDeleteProcess removes a process definition. Blocked while any request
// references the process.
func AdminDeleteProcess(c *gin.Context) {
	process, ok := findProcess(c)
	if !ok {
		return
	}

	var referenced int64
	if err := config.DB.Model(&models.Request{}).
		Where("process_id = ?", process.ProcessID).
		Count(&referenced).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check references"})
		return
	}
	if referenced > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Process is referenced by existing requests and cannot be deleted"})
		return
	}

	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("process_id = ?", process.ProcessID).Delete(&models.ProcessStep{}).Error; err != nil {
			return err
		}
		return tx.Delete(process).Error
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete process"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Process deleted"})
}

/* ==========================
   Step administration
   ========================== */

type stepPayload struct {
	Name                     string `json:"name" binding:"required"`
	StepOrder                int    `json:"step_order" binding:"required"`
	ResponsibleUnit          string `json:"responsible_unit"`
	DefaultResponsibleUserID *int   `json:"default_responsible_user_id"`
	DeadlineDays             *int   `json:"deadline_days"`
}

// AdminCreateStep appends a step to a process. step_order must be unique
// within the process and deadline_days non-negative.
func AdminCreateStep(c *gin.Context) {
	process, ok := findProcess(c)
	if !ok {
		return
	}

	var req stepPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validateStepPayload(c, process.ProcessID, 0, &req) {
		return
	}

	now := time.Now()
	step := models.ProcessStep{
		ProcessID:                process.ProcessID,
		Name:                     req.Name,
		StepOrder:                req.StepOrder,
		ResponsibleUnit:          req.ResponsibleUnit,
		DefaultResponsibleUserID: req.DefaultResponsibleUserID,
		DeadlineDays:             models.DefaultDeadlineDays,
		CreateAt:                 &now,
		UpdateAt:                 &now,
	}
	if req.DeadlineDays != nil {
		step.DeadlineDays = *req.DeadlineDays
	}

	if err := config.DB.Create(&step).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create step"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"step": step})
}

// AdminUpdateStep edits a step definition. In-flight requests pick the change
// up on their next transition.
func AdminUpdateStep(c *gin.Context) {
	process, ok := findProcess(c)
	if !ok {
		return
	}

	stepID, err := strconv.Atoi(c.Param("step_id"))
	if err != nil || stepID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid step id"})
		return
	}

	var step models.ProcessStep
	if err := config.DB.First(&step, "step_id = ? AND process_id = ?", stepID, process.ProcessID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Step not found"})
		return
	}

	var req stepPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !validateStepPayload(c, process.ProcessID, step.StepID, &req) {
		return
	}

	now := time.Now()
	step.Name = req.Name
	step.StepOrder = req.StepOrder
	step.ResponsibleUnit = req.ResponsibleUnit
	step.DefaultResponsibleUserID = req.DefaultResponsibleUserID
	if req.DeadlineDays != nil {
		step.DeadlineDays = *req.DeadlineDays
	}
	step.UpdateAt = &now

	if err := config.DB.Save(&step).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update step"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"step": step})
}

// AdminDeleteStep removes a step. Blocked while any request sits on it.
func AdminDeleteStep(c *gin.Context) {
	process, ok := findProcess(c)
	if !ok {
		return
	}

	stepID, err := strconv.Atoi(c.Param("step_id"))
	if err != nil || stepID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid step id"})
		return
	}

	var step models.ProcessStep
	if err := config.DB.First(&step, "step_id = ? AND process_id = ?", stepID, process.ProcessID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Step not found"})
		return
	}

	var onStep int64
	if err := config.DB.Model(&models.Request{}).
		Where("current_step_id = ?", step.StepID).
		Count(&onStep).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check references"})
		return
	}
	if onStep > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Requests are currently on this step"})
		return
	}

	if err := config.DB.Delete(&step).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete step"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Step deleted"})
}

func findProcess(c *gin.Context) (*models.Process, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid process id"})
		return nil, false
	}

	var process models.Process
	if err := config.DB.First(&process, "process_id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Process not found"})
		return nil, false
	}
	return &process, true
}

func validateStepPayload(c *gin.Context, processID, selfStepID int, req *stepPayload) bool {
	if req.DeadlineDays != nil && *req.DeadlineDays < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "deadline_days must be non-negative"})
		return false
	}
	if req.StepOrder <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step_order must be positive"})
		return false
	}

	var clash int64
	q := config.DB.Model(&models.ProcessStep{}).
		Where("process_id = ? AND step_order = ?", processID, req.StepOrder)
	if selfStepID != 0 {
		q = q.Where("step_id <> ?", selfStepID)
	}
	if err := q.Count(&clash).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to validate step order"})
		return false
	}
	if clash > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "step_order already used in this process"})
		return false
	}

	if req.DefaultResponsibleUserID != nil {
		var exists int64
		if err := config.DB.Model(&models.User{}).
			Where("user_id = ?", *req.DefaultResponsibleUserID).
			Count(&exists).Error; err != nil || exists == 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Default responsible user does not exist"})
			return false
		}
	}
	return true
}
