package controllers

import (
	"net/http"
	"strconv"
	"time"

	"workflow-automation-api/config"
	"workflow-automation-api/models"
	"workflow-automation-api/utils"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type userPayload struct {
	Username  string `json:"username" binding:"required"`
	FullName  string `json:"full_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   *bool  `json:"is_admin"`
	ManagerID *int   `json:"manager_id"`
}

// AdminListUsers returns all users with their manager relation.
func AdminListUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Preload("Manager").Order("user_id ASC").Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"users": users, "total": len(users)})
}

// AdminCreateUser creates a user account. The manager relation forms the
// approval-escalation hierarchy, so it must stay a forest.
func AdminCreateUser(c *gin.Context) {
	var req userPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "password is required"})
		return
	}
	if ok, msg := utils.ValidatePassword(req.Password); !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": msg})
		return
	}
	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}

	if req.ManagerID != nil && !validateManager(c, 0, *req.ManagerID) {
		return
	}

	now := time.Now()
	user := models.User{
		Username:  utils.SanitizeInput(req.Username),
		FullName:  utils.SanitizeInput(req.FullName),
		Email:     req.Email,
		Password:  string(hash),
		ManagerID: req.ManagerID,
		CreateAt:  &now,
		UpdateAt:  &now,
	}
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}

	if err := config.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user})
}

// AdminUpdateUser edits a user account, including the manager assignment.
func AdminUpdateUser(c *gin.Context) {
	user, ok := findUser(c)
	if !ok {
		return
	}

	var req userPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Email != "" && !utils.ValidateEmail(req.Email) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid email"})
		return
	}
	if req.ManagerID != nil && !validateManager(c, user.UserID, *req.ManagerID) {
		return
	}

	now := time.Now()
	user.Username = utils.SanitizeInput(req.Username)
	user.FullName = utils.SanitizeInput(req.FullName)
	user.Email = req.Email
	user.ManagerID = req.ManagerID
	if req.IsAdmin != nil {
		user.IsAdmin = *req.IsAdmin
	}
	if req.Password != "" {
		if ok, msg := utils.ValidatePassword(req.Password); !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": msg})
			return
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
			return
		}
		user.Password = string(hash)
	}
	user.UpdateAt = &now

	if err := config.DB.Save(user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminDeleteUser removes a user. Blocked while the user is a request
// initiator or assignee, or appears in any audit trail; references from step
// defaults and subordinates are cleared instead.
func AdminDeleteUser(c *gin.Context) {
	user, ok := findUser(c)
	if !ok {
		return
	}

	var referenced int64
	if err := config.DB.Model(&models.Request{}).
		Where("initiator_user_id = ? OR current_assignee_id = ?", user.UserID, user.UserID).
		Count(&referenced).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check references"})
		return
	}
	if referenced == 0 {
		if err := config.DB.Model(&models.RequestHistory{}).
			Where("action_user_id = ?", user.UserID).
			Count(&referenced).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to check references"})
			return
		}
	}
	if referenced > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "User is referenced by existing requests and cannot be deleted"})
		return
	}

	if err := config.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.ProcessStep{}).
			Where("default_responsible_user_id = ?", user.UserID).
			Update("default_responsible_user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).
			Where("manager_id = ?", user.UserID).
			Update("manager_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", user.UserID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete user"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted"})
}

func findUser(c *gin.Context) (*models.User, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return nil, false
	}

	var user models.User
	if err := config.DB.First(&user, "user_id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return nil, false
	}
	return &user, true
}

// validateManager rejects a manager assignment that does not exist or would
// close a cycle in the hierarchy.
func validateManager(c *gin.Context, userID, managerID int) bool {
	if managerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "A user cannot be their own manager"})
		return false
	}

	var manager models.User
	if err := config.DB.First(&manager, "user_id = ?", managerID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Manager does not exist"})
		return false
	}

	// Walk up from the proposed manager; hitting userID would create a cycle.
	seen := map[int]bool{}
	current := &manager
	for current.ManagerID != nil {
		next := *current.ManagerID
		if next == userID {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Manager assignment would create a cycle"})
			return false
		}
		if seen[next] {
			break
		}
		seen[next] = true

		var up models.User
		if err := config.DB.First(&up, "user_id = ?", next).Error; err != nil {
			break
		}
		current = &up
	}
	return true
}
