package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/models"
)

type createStockRequest struct {
	Symbol       string          `json:"symbol" binding:"required"`
	Quantity     decimal.Decimal `json:"quantity"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
	AccountID    string          `json:"accountId" binding:"required"`
}

type createStockTransactionRequest struct {
	Type     models.StockTransactionType `json:"type" binding:"required"`
	Quantity *decimal.Decimal            `json:"quantity"`
	Price    *decimal.Decimal            `json:"price"`
	Amount   decimal.Decimal             `json:"amount"`
	Date     time.Time                   `json:"date" binding:"required"`
}

func ListStocksHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stocks, err := svc.List(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stocks)
	}
}

func GetStockHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stock, err := svc.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stock)
	}
}

func CreateStockHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createStockRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stock payload"})
			return
		}
		stock, err := svc.Create(c.Request.Context(), currentUser(c).ID, service.StockInput{
			Symbol:       req.Symbol,
			Quantity:     req.Quantity,
			AveragePrice: req.AveragePrice,
			AccountID:    req.AccountID,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, stock)
	}
}

func UpdateStockHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.StockPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stock payload"})
			return
		}
		stock, err := svc.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, stock)
	}
}

func DeleteStockHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Stock deleted"})
	}
}

func SyncStocksHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		updated, err := svc.SyncPrices(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"message": fmt.Sprintf("Synced %d stocks", updated),
			"synced":  updated,
		})
	}
}

func ListStockTransactionsHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		transactions, err := svc.ListTransactions(c.Request.Context(), currentUser(c).ID, c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, transactions)
	}
}

func CreateStockTransactionHandler(svc *service.StockService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createStockTransactionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid stock transaction payload"})
			return
		}
		transaction, err := svc.CreateTransaction(c.Request.Context(), currentUser(c).ID, c.Param("id"), service.StockTransactionInput{
			Type:     req.Type,
			Quantity: req.Quantity,
			Price:    req.Price,
			Amount:   req.Amount,
			Date:     req.Date,
		})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, transaction)
	}
}
