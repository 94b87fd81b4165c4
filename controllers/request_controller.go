package controllers

import (
	"net/http"
	"strconv"
	"time"

	"workflow-automation-api/config"
	"workflow-automation-api/models"
	"workflow-automation-api/services"

	"github.com/gin-gonic/gin"
)

// GetProcesses lists active processes available for starting a request.
func GetProcesses(c *gin.Context) {
	var processes []models.Process
	if err := config.DB.Where("is_active = 1").Order("name ASC").Find(&processes).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch processes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"processes": processes, "total": len(processes)})
}

// StartRequest starts a process instance with the caller as initiator.
func StartRequest(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	processID, err := strconv.Atoi(c.Param("id"))
	if err != nil || processID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid process id"})
		return
	}

	req, err := services.NewRequestService(nil).Create(processID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Request created successfully",
		"request": requestView(req),
	})
}

// GetRequests is the dashboard listing: box=received (assigned to the caller,
// in progress) or box=sent (initiated by the caller). Both filter by id; sent
// also filters by process and status.
func GetRequests(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	svc := services.NewRequestService(nil)

	var idFilter *int
	if raw := c.Query("id"); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil {
			idFilter = &v
		}
	}

	switch c.DefaultQuery("box", "received") {
	case "received":
		requests, err := svc.ListReceived(userID, idFilter)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"requests": requestViews(requests),
			"total":    len(requests),
		})
	case "sent":
		var processFilter *int
		if raw := c.Query("process_id"); raw != "" {
			if v, err := strconv.Atoi(raw); err == nil {
				processFilter = &v
			}
		}
		status := c.Query("status")

		requests, err := svc.ListSent(userID, idFilter, processFilter, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch requests"})
			return
		}

		inProgress := 0
		for i := range requests {
			if requests[i].Status == models.StatusInProgress {
				inProgress++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"requests":          requestViews(requests),
			"total":             len(requests),
			"in_progress_count": inProgress,
		})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "box must be 'received' or 'sent'"})
	}
}

// GetRequest returns a request with its history and returnable steps.
func GetRequest(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	svc := services.NewRequestService(nil)
	req, err := svc.Get(requestID, userID)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	history, err := svc.History(req.RequestID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch history"})
		return
	}

	returnable, err := svc.ReturnableSteps(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch steps"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"request":          requestView(req),
		"history":          history,
		"returnable_steps": returnable,
	})
}

// ApproveRequest advances the request; only its current assignee may call it.
func ApproveRequest(c *gin.Context) {
	actOnRequest(c, func(svc *services.RequestService, requestID, userID int, comment string, attachment *string) (*models.Request, error) {
		return svc.Approve(requestID, userID, comment, attachment)
	})
}

// RejectRequest terminates the request.
func RejectRequest(c *gin.Context) {
	actOnRequest(c, func(svc *services.RequestService, requestID, userID int, comment string, attachment *string) (*models.Request, error) {
		return svc.Reject(requestID, userID, comment, attachment)
	})
}

// ReturnRequest rolls the request back to an earlier step or to the
// initiator; the form's target is "initiator" or an earlier step id.
func ReturnRequest(c *gin.Context) {
	actOnRequest(c, func(svc *services.RequestService, requestID, userID int, comment string, attachment *string) (*models.Request, error) {
		return svc.Return(requestID, userID, c.PostForm("target"), comment, attachment)
	})
}

// ResubmitRequest re-sends the request at its current step.
func ResubmitRequest(c *gin.Context) {
	actOnRequest(c, func(svc *services.RequestService, requestID, userID int, comment string, attachment *string) (*models.Request, error) {
		return svc.Resubmit(requestID, userID, comment, attachment)
	})
}

// CommentRequest records a comment or attachment without changing state.
func CommentRequest(c *gin.Context) {
	actOnRequest(c, func(svc *services.RequestService, requestID, userID int, comment string, attachment *string) (*models.Request, error) {
		return svc.Comment(requestID, userID, comment, attachment)
	})
}

func actOnRequest(c *gin.Context, act func(svc *services.RequestService, requestID, userID int, comment string, attachment *string) (*models.Request, error)) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}

	attachment, err := saveAttachment(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req, err := act(services.NewRequestService(nil), requestID, userID, c.PostForm("comments"), attachment)
	if err != nil {
		discardAttachment(attachment)
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Action applied successfully",
		"request": requestView(req),
	})
}

// DownloadAttachment serves a history attachment, subject to the same access
// rule as the request itself.
func DownloadAttachment(c *gin.Context) {
	userID, ok := getCurrentUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	requestID, err := strconv.Atoi(c.Param("id"))
	if err != nil || requestID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request id"})
		return
	}
	historyID, err := strconv.Atoi(c.Param("history_id"))
	if err != nil || historyID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid history id"})
		return
	}

	if _, err := services.NewRequestService(nil).Get(requestID, userID); err != nil {
		respondServiceError(c, err)
		return
	}

	var entry models.RequestHistory
	if err := config.DB.First(&entry, "history_id = ? AND request_id = ?", historyID, requestID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "History entry not found"})
		return
	}
	if entry.Attachment == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No attachment on this entry"})
		return
	}

	c.File(attachmentAbsPath(*entry.Attachment))
}

// requestView decorates a request with its derived deadline classification.
func requestView(req *models.Request) gin.H {
	return gin.H{
		"request":         req,
		"deadline_status": req.DeadlineStatus(time.Now()),
	}
}

func requestViews(requests []models.Request) []gin.H {
	views := make([]gin.H, 0, len(requests))
	for i := range requests {
		views = append(views, requestView(&requests[i]))
	}
	return views
}
