package controllers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	logrus "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/config"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/middleware"
	"github.com/CedricTri-logis/tri-logis-time-sub000/internal/models"
)

type signupInput struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Phone    string `json:"phone"`
	Role     string `json:"role"`
}

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// SignupEmployee registers a new employee or supervisor account.
func SignupEmployee(c *gin.Context) {
	var input signupInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	role, err := validateAndNormalizeRole(input.Role)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not hash password"})
		return
	}

	employee := models.Employee{
		Name:     input.Name,
		Email:    strings.ToLower(input.Email),
		Password: string(hashed),
		Phone:    input.Phone,
		Role:     role,
	}
	if err := config.DB.Create(&employee).Error; err != nil {
		var pgErr *pq.Error
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "Email already registered."})
			return
		}
		logrus.WithError(err).Error("Failed to create employee account")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account."})
		return
	}

	token, err := middleware.GenerateToken(employee.ID, employee.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"token":    token,
		"employee": gin.H{"id": employee.ID, "name": employee.Name, "email": employee.Email, "role": employee.Role},
	})
}

// LoginEmployee authenticates by email/password and issues a JWT.
func LoginEmployee(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var employee models.Employee
	err := config.DB.Where("email = ?", strings.ToLower(input.Email)).First(&employee).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
			return
		}
		logrus.WithError(err).Error("Database error during login")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Login failed."})
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(employee.Password), []byte(input.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials."})
		return
	}

	token, err := middleware.GenerateToken(employee.ID, employee.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"employee": gin.H{"id": employee.ID, "name": employee.Name, "email": employee.Email, "role": employee.Role},
	})
}

func validateAndNormalizeRole(role string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "", "employee":
		return "employee", nil
	case "supervisor":
		return "supervisor", nil
	default:
		return "", errors.New("role must be 'employee' or 'supervisor'")
	}
}
