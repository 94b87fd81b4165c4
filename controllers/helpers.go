package controllers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"workflow-automation-api/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func getCurrentUserID(c *gin.Context) (int, bool) {
	if v, ok := c.Get("userID"); ok {
		switch t := v.(type) {
		case int:
			return t, true
		case int64:
			return int(t), true
		case float64:
			return int(t), true
		}
	}
	return 0, false
}

// respondServiceError maps the lifecycle engine's recoverable errors to 4xx
// responses. Anything unexpected is a 500; the transaction already rolled
// back, so no partial state leaks.
func respondServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, services.ErrNotAuthorized):
		c.JSON(http.StatusForbidden, gin.H{"error": "You do not have access to this request"})
	case errors.Is(err, services.ErrEmptyProcess),
		errors.Is(err, services.ErrNoAssignee),
		errors.Is(err, services.ErrInvalidState),
		errors.Is(err, services.ErrEmptyComment),
		errors.Is(err, services.ErrInvalidTarget):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

var allowedAttachmentTypes = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".xls":  true,
	".xlsx": true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".txt":  true,
}

// saveAttachment stores the optional single "attachment" form file under
// UPLOAD_PATH and returns its stored relative path. A request without an
// attachment returns (nil, nil).
func saveAttachment(c *gin.Context) (*string, error) {
	file, err := c.FormFile("attachment")
	if err != nil {
		return nil, nil
	}

	maxSize := int64(10 * 1024 * 1024) // 10MB
	if file.Size > maxSize {
		return nil, fmt.Errorf("file size exceeds 10MB limit")
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedAttachmentTypes[ext] {
		return nil, fmt.Errorf("file type not allowed")
	}

	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}

	relDir := filepath.Join("attachments", time.Now().Format("2006/01"))
	if err := os.MkdirAll(filepath.Join(uploadPath, relDir), os.ModePerm); err != nil {
		return nil, fmt.Errorf("failed to create upload directory")
	}

	relPath := filepath.Join(relDir, uuid.New().String()+ext)
	if err := c.SaveUploadedFile(file, filepath.Join(uploadPath, relPath)); err != nil {
		return nil, fmt.Errorf("failed to save file")
	}
	return &relPath, nil
}

// discardAttachment removes a stored upload whose owning action failed, so no
// orphaned file stays under UPLOAD_PATH without a history row referencing it.
func discardAttachment(attachment *string) {
	if attachment == nil {
		return
	}
	if err := os.Remove(attachmentAbsPath(*attachment)); err != nil {
		log.Printf("failed to remove orphaned attachment %s: %v", *attachment, err)
	}
}

func attachmentAbsPath(relPath string) string {
	uploadPath := os.Getenv("UPLOAD_PATH")
	if uploadPath == "" {
		uploadPath = "./uploads"
	}
	return filepath.Join(uploadPath, relPath)
}
