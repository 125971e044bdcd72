package main

import (
	"net/http"
	"strings"

	"ruralmatch/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// uploadsPath is where locally stored listing images are served.
const uploadsPath = "/uploads"

// setupStaticFiles serves locally stored images and answers unknown routes.
func setupStaticFiles(router *gin.Engine, storage config.StorageConfig) {
	if storage.Driver == config.StorageLocal {
		zap.L().Info("serving local images", zap.String("dir", storage.LocalDir), zap.String("path", uploadsPath))
		router.Static(uploadsPath, storage.LocalDir)
	}

	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			c.JSON(http.StatusNotFound, gin.H{"error": "API endpoint not found"})
			return
		}
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	})
}
