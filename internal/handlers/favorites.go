package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type favoriteRequest struct {
	ProductID string `json:"product_id"`
}

// AddFavorite handles POST /api/v1/favorites
func (h *Handlers) AddFavorite(c *gin.Context) {
	var req favoriteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	id, _ := identityFrom(c)
	if err := h.favorites.AddFavorite(c.Request.Context(), id, req.ProductID); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Added to favorites", nil)
}

// RemoveFavorite handles DELETE /api/v1/favorites/:productId
func (h *Handlers) RemoveFavorite(c *gin.Context) {
	id, _ := identityFrom(c)
	if err := h.favorites.RemoveFavorite(c.Request.Context(), id, c.Param("productId")); err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Removed from favorites", nil)
}

// ListFavorites handles GET /api/v1/favorites
func (h *Handlers) ListFavorites(c *gin.Context) {
	id, _ := identityFrom(c)
	list, err := h.favorites.ListFavorites(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Favorites retrieved", gin.H{
		"items": list.Items,
		"count": list.Count,
	})
}

// CheckFavorite handles GET /api/v1/favorites/:productId
func (h *Handlers) CheckFavorite(c *gin.Context) {
	id, _ := identityFrom(c)
	ok, err := h.favorites.IsFavorite(c.Request.Context(), id, c.Param("productId"))
	if err != nil {
		handleError(c, err)
		return
	}

	respond(c, http.StatusOK, "Favorite status retrieved", gin.H{"is_favorite": ok})
}
