package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/importer"
	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/models"
)

type createTransactionRequest struct {
	Date        time.Time       `json:"date" binding:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	AccountID   string          `json:"accountId" binding:"required"`
	CategoryID  *string         `json:"categoryId"`
}

type transferRequest struct {
	FromAccountID string          `json:"fromAccountId" binding:"required"`
	ToAccountID   string          `json:"toAccountId" binding:"required"`
	Amount        decimal.Decimal `json:"amount"`
	Date          time.Time       `json:"date"`
	Description   string          `json:"description"`
}

func ListTransactionsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		transactions, err := svc.List(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func CreateTransactionHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction payload"})
			return
		}
		transaction, err := svc.Create(c.Request.Context(), currentUser(c).ID, service.TransactionInput{
			Date:        req.Date,
			Amount:      req.Amount,
			Description: req.Description,
			AccountID:   req.AccountID,
			CategoryID:  req.CategoryID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}

func UpdateTransactionHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.TransactionPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transaction payload"})
			return
		}
		transaction, err := svc.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transaction)
	}
}

func DeleteTransactionHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transaction deleted"})
	}
}

func TransferHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req transferRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid transfer payload"})
			return
		}
		if req.Date.IsZero() {
			req.Date = time.Now()
		}
		err := svc.Transfer(c.Request.Context(), currentUser(c).ID, service.TransferInput{
			FromAccountID: req.FromAccountID,
			ToAccountID:   req.ToAccountID,
			Amount:        req.Amount,
			Date:          req.Date,
			Description:   req.Description,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Transfer completed"})
	}
}

// ImportTransactionsHandler takes a multipart file upload plus an
// account_id (query or form) and bulk-creates transactions. Bad rows
// are skipped; the response reports how many were imported.
func ImportTransactionsHandler(svc *service.TransactionService) gin.HandlerFunc {
	return func(c *gin.Context) {
		accountID := c.Query("account_id")
		if accountID == "" {
			accountID = c.PostForm("account_id")
		}
		if accountID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Account ID required"})
			return
		}

		fileHeader, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		file, err := fileHeader.Open()
		if err != nil {
			respondError(c, err)
			return
		}
		defer file.Close()

		rows, malformed, err := importer.Parse(fileHeader.Filename, file)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		imported, err := svc.Import(c.Request.Context(), currentUser(c).ID, accountID, rows)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message":  fmt.Sprintf("Imported %d transactions", imported),
			"imported": imported,
			"skipped":  malformed + len(rows) - imported,
		})
	}
}
