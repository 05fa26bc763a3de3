package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/models"
)

type createAccountRequest struct {
	Name    string             `json:"name" binding:"required"`
	Type    models.AccountType `json:"type" binding:"required"`
	Balance decimal.Decimal    `json:"balance"`
}

func ListAccountsHandler(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accounts, err := svc.List(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, accounts)
	}
}

func CreateAccountHandler(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createAccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account payload"})
			return
		}
		account, err := svc.Create(c.Request.Context(), currentUser(c).ID, req.Name, req.Type, req.Balance)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, account)
	}
}

func UpdateAccountHandler(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.AccountPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid account payload"})
			return
		}
		account, err := svc.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, account)
	}
}

func DeleteAccountHandler(svc *service.AccountService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Account deleted"})
	}
}
