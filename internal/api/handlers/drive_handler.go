package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/arifi89/inventory-optimization/internal/drive"
)

// DriveHandler exposes the Google Drive export folder over the API so
// operators can inspect and pull canonical table exports without shell access.
type DriveHandler struct {
	service *drive.Service
	sync    *drive.SyncService
}

func NewDriveHandler(service *drive.Service, sync *drive.SyncService) *DriveHandler {
	return &DriveHandler{service: service, sync: sync}
}

// ListFiles lists files in a Drive folder, by folder_id or slash-separated path.
func (h *DriveHandler) ListFiles(c *gin.Context) {
	folderID := c.Query("folder_id")
	if path := c.Query("path"); path != "" {
		resolved, err := h.service.FindFolderByPath(c.Request.Context(), path)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		folderID = resolved
	}

	files, err := h.service.ListFiles(c.Request.Context(), folderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"files": files})
}

// DownloadFile streams a single Drive file back to the caller.
func (h *DriveHandler) DownloadFile(c *gin.Context) {
	fileID := c.Query("file_id")
	if fileID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id parameter is required"})
		return
	}

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=export.csv")

	if err := h.service.DownloadFile(c.Request.Context(), fileID, c.Writer); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

// SyncFolder pulls every canonical table export from the folder into the
// pipeline data directory.
func (h *DriveHandler) SyncFolder(c *gin.Context) {
	folderID := c.Query("folder_id")

	paths, err := h.sync.SyncFolder(c.Request.Context(), folderID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "files": paths})
}

// FetchFile pulls one export by Drive file ID into the pipeline data directory.
func (h *DriveHandler) FetchFile(c *gin.Context) {
	fileID := c.Query("file_id")
	name := c.Query("name")
	if fileID == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_id and name parameters are required"})
		return
	}

	path, err := h.sync.FetchFile(c.Request.Context(), fileID, name)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "success", "path": path})
}
