package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ruivenancio/finance-app/internal/service"
	"github.com/ruivenancio/finance-app/models"
)

type createCategoryRequest struct {
	Name     string              `json:"name" binding:"required"`
	Type     models.CategoryType `json:"type" binding:"required"`
	ParentID *string             `json:"parentId"`
}

func ListCategoriesHandler(svc *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		categories, err := svc.List(c.Request.Context(), currentUser(c).ID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, categories)
	}
}

func CreateCategoryHandler(svc *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createCategoryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category payload"})
			return
		}
		category, err := svc.Create(c.Request.Context(), currentUser(c).ID, req.Name, req.Type, req.ParentID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}

func UpdateCategoryHandler(svc *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.CategoryPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid category payload"})
			return
		}
		category, err := svc.Update(c.Request.Context(), currentUser(c).ID, c.Param("id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, category)
	}
}

func DeleteCategoryHandler(svc *service.CategoryService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
	}
}
