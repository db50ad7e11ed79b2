package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prebook/internal/service"
)

// AdminHandler handles HTTP requests for the admin surface.
type AdminHandler struct {
	adminService *service.AdminService
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(adminService *service.AdminService) *AdminHandler {
	return &AdminHandler{adminService: adminService}
}

// UpdateFeesRequest is the HTTP request body for overriding the penalty split.
type UpdateFeesRequest struct {
	PlatformFeePercentage    float64 `json:"platform_fee_percentage"`
	ConvenienceFeePercentage float64 `json:"convenience_fee_percentage"`
}

// CommissionResponse is the HTTP response for a platform commission record.
type CommissionResponse struct {
	ID          string          `json:"id"`
	RideID      string          `json:"ride_id"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Source      string          `json:"source"`
	Description string          `json:"description"`
	Timestamp   string          `json:"timestamp"`
}

// GetTransactions handles GET /v1/admin/transactions
func (h *AdminHandler) GetTransactions(c *gin.Context) {
	entries, err := h.adminService.RecentTransactions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, entries)
}

// GetRides handles GET /v1/admin/rides
func (h *AdminHandler) GetRides(c *gin.Context) {
	rides, err := h.adminService.AllRides(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]RideResponse, 0, len(rides))
	for _, r := range rides {
		response = append(response, toRideResponse(r))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetCommissions handles GET /v1/admin/commissions
func (h *AdminHandler) GetCommissions(c *gin.Context) {
	records, err := h.adminService.RecentCommissions(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]CommissionResponse, 0, len(records))
	for _, r := range records {
		response = append(response, CommissionResponse{
			ID:          r.ID,
			RideID:      r.RideID,
			Amount:      r.Amount,
			Type:        string(r.Type),
			Source:      string(r.Source),
			Description: r.Description,
			Timestamp:   r.Timestamp.Format(time.RFC3339),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// GetStats handles GET /v1/admin/stats
func (h *AdminHandler) GetStats(c *gin.Context) {
	stats, err := h.adminService.Stats(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, stats)
}

// UpdateFees handles POST /v1/admin/fees
func (h *AdminHandler) UpdateFees(c *gin.Context) {
	var req UpdateFeesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	policy, err := h.adminService.UpdateFees(c.Request.Context(), req.PlatformFeePercentage, req.ConvenienceFeePercentage)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"platform_fee_percentage":    policy.PlatformFeePercentage,
		"convenience_fee_percentage": policy.ConvenienceFeePercentage,
	})
}
