package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ruivenancio/finance-app/internal/service"
)

func DashboardSummaryHandler(svc *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := svc.Summary(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// ListBudgetsHandler returns the caller's budgets for ?year= (default:
// current year).
func ListBudgetsHandler(svc *service.DashboardService) gin.HandlerFunc {
	return func(c *gin.Context) {
		year := 0
		if v := c.Query("year"); v != "" {
			parsed, err := strconv.Atoi(v)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid year"})
				return
			}
			year = parsed
		}
		budgets, err := svc.Budgets(c.Request.Context(), currentUser(c).ID, year)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, budgets)
	}
}
