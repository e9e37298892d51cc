package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/arifi89/inventory-optimization/internal/domain"
	"github.com/arifi89/inventory-optimization/internal/service"
)

type MasterHandler struct {
	service *service.MasterService
}

func NewMasterHandler(service *service.MasterService) *MasterHandler {
	return &MasterHandler{service: service}
}

func (h *MasterHandler) parseFilter(c *gin.Context) domain.MasterFilter {
	filter := domain.MasterFilter{
		Page:     1,
		PageSize: 50,
	}

	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		filter.Page = page
	}

	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "50")); err == nil && size > 0 {
		filter.PageSize = size
	}

	parseInt64List := func(param string) []int64 {
		value := strings.TrimSpace(c.Query(param))
		if value == "" {
			return nil
		}

		parts := strings.Split(value, ",")
		result := make([]int64, 0, len(parts))
		for _, part := range parts {
			if id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64); err == nil {
				result = append(result, id)
			}
		}
		return result
	}

	filter.ProductIDs = parseInt64List("product_ids")
	filter.StoreIDs = parseInt64List("store_ids")

	// Segments accept repeated params or one comma-separated value:
	//   ?segment=AX&segment=BY
	//   ?segment=AX,BY
	rawSegments := c.QueryArray("segment")
	if len(rawSegments) == 0 {
		if single := strings.TrimSpace(c.Query("segments")); single != "" {
			rawSegments = strings.Split(single, ",")
		}
	}
	if len(rawSegments) > 0 {
		seen := make(map[string]struct{})
		for _, v := range rawSegments {
			for _, part := range strings.Split(v, ",") {
				part = strings.ToUpper(strings.TrimSpace(part))
				if part == "" {
					continue
				}
				if _, ok := seen[part]; ok {
					continue
				}
				seen[part] = struct{}{}
				filter.Segments = append(filter.Segments, part)
			}
		}
	}

	if category := strings.TrimSpace(c.Query("category")); category != "" {
		filter.Category = category
	}
	if region := strings.TrimSpace(c.Query("region")); region != "" {
		filter.Region = region
	}
	if from := strings.TrimSpace(c.Query("date_from")); from != "" {
		filter.DateFrom = from
	}
	if to := strings.TrimSpace(c.Query("date_to")); to != "" {
		filter.DateTo = to
	}

	return filter
}

func (h *MasterHandler) GetSegments(c *gin.Context) {
	filter := h.parseFilter(c)
	results, err := h.service.GetSegmentSummaries(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch segment summaries", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, results)
}

func (h *MasterHandler) GetRecords(c *gin.Context) {
	filter := h.parseFilter(c)
	records, total, err := h.service.GetRecords(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch master records", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"total":   total,
	})
}

func (h *MasterHandler) GetDashboard(c *gin.Context) {
	filter := h.parseFilter(c)
	data, err := h.service.GetDashboard(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch dashboard", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, data)
}

func (h *MasterHandler) GetQuality(c *gin.Context) {
	summary, err := h.service.GetQualitySummary(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch quality summary", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (h *MasterHandler) GetAvailableDates(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "30"))
	if limit <= 0 {
		limit = 30
	}

	dates, err := h.service.GetAvailableDates(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch available dates", "details": err.Error()})
		return
	}

	formatted := make([]string, 0, len(dates))
	for _, d := range dates {
		formatted = append(formatted, d.Format("2006-01-02"))
	}

	c.JSON(http.StatusOK, gin.H{"dates": formatted})
}
