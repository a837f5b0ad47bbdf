package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/leadlag-ai-go/internal/services"
)

// ListAssets returns the analysable asset universe, optionally filtered by ?type=
func ListAssets(c *gin.Context) {
	assetType := c.Query("type")
	if assetType == "" {
		c.JSON(http.StatusOK, services.DefaultAssetUniverse())
		return
	}

	switch assetType {
	case services.AssetTypeCommodity, services.AssetTypeEquity, services.AssetTypeCrypto:
		c.JSON(http.StatusOK, services.AssetsByType(assetType))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "type must be one of commodity, equity, crypto"})
	}
}
