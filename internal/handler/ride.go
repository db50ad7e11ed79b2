package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/service"
)

// RideHandler handles HTTP requests for the ride lifecycle.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// BookRideRequest is the HTTP request body for booking a ride.
type BookRideRequest struct {
	PassengerID   string          `json:"passenger_id"`
	BookingType   string          `json:"booking_type"` // POINT_TO_POINT or HOURLY
	Pickup        string          `json:"pickup"`
	Destination   string          `json:"destination,omitempty"`
	DistanceKm    decimal.Decimal `json:"distance_km,omitempty"`
	Hours         decimal.Decimal `json:"hours,omitempty"`
	ScheduledTime time.Time       `json:"scheduled_time"`
}

// DriverActionRequest is the HTTP request body for driver-side transitions.
type DriverActionRequest struct {
	DriverID string `json:"driver_id"`
}

// CancelRideRequest is the HTTP request body for cancelling a ride.
type CancelRideRequest struct {
	CancelledBy string `json:"cancelled_by"` // passenger or driver
	Reason      string `json:"reason,omitempty"`
}

// CommitmentResponse is one party's escrow state.
type CommitmentResponse struct {
	Amount decimal.Decimal `json:"amount"`
	Status string          `json:"status"`
}

// CancellationResponse is the audit snapshot of a cancellation.
type CancellationResponse struct {
	CancelledBy              string          `json:"cancelled_by"`
	CancelledAt              string          `json:"cancelled_at"`
	Reason                   string          `json:"reason,omitempty"`
	PenaltyAmount            decimal.Decimal `json:"penalty_amount"`
	PlatformCommission       decimal.Decimal `json:"platform_commission"`
	PassengerRefundAmount    decimal.Decimal `json:"passenger_refund_amount"`
	DriverRefundAmount       decimal.Decimal `json:"driver_refund_amount"`
	PassengerConvenienceFee  decimal.Decimal `json:"passenger_convenience_fee"`
	DriverConvenienceFee     decimal.Decimal `json:"driver_convenience_fee"`
	PlatformFeePercentage    float64         `json:"platform_fee_percentage"`
	ConvenienceFeePercentage float64         `json:"convenience_fee_percentage"`
	RefundRatio              float64         `json:"refund_ratio"`
}

// RideResponse is the HTTP response for ride data.
type RideResponse struct {
	ID                  string                `json:"id"`
	PassengerID         string                `json:"passenger_id"`
	DriverID            string                `json:"driver_id,omitempty"`
	BookingType         string                `json:"booking_type"`
	Pickup              string                `json:"pickup"`
	Destination         string                `json:"destination,omitempty"`
	DistanceKm          decimal.Decimal       `json:"distance_km"`
	Hours               decimal.Decimal       `json:"hours"`
	Fare                decimal.Decimal       `json:"fare"`
	CommitmentFee       decimal.Decimal       `json:"commitment_fee"`
	PassengerCommitment CommitmentResponse    `json:"passenger_commitment"`
	DriverCommitment    CommitmentResponse    `json:"driver_commitment"`
	Status              string                `json:"status"`
	ScheduledTime       string                `json:"scheduled_time"`
	CreatedAt           string                `json:"created_at"`
	AcceptedAt          string                `json:"accepted_at,omitempty"`
	StartedAt           string                `json:"started_at,omitempty"`
	CompletedAt         string                `json:"completed_at,omitempty"`
	DriverBonus         decimal.Decimal       `json:"driver_bonus"`
	Cancellation        *CancellationResponse `json:"cancellation,omitempty"`
}

// PenaltyPreviewResponse is the HTTP response for a penalty preview.
type PenaltyPreviewResponse struct {
	RideID                   string          `json:"ride_id"`
	CancelledBy              string          `json:"cancelled_by"`
	CommitmentFee            decimal.Decimal `json:"commitment_fee"`
	PenaltyAmount            decimal.Decimal `json:"penalty_amount"`
	RefundAmount             decimal.Decimal `json:"refund_amount"`
	PlatformCommission       decimal.Decimal `json:"platform_commission"`
	ConvenienceFee           decimal.Decimal `json:"convenience_fee"`
	RefundRatio              float64         `json:"refund_ratio"`
	MinutesUntilRide         float64         `json:"minutes_until_ride"`
	PlatformFeePercentage    float64         `json:"platform_fee_percentage"`
	ConvenienceFeePercentage float64         `json:"convenience_fee_percentage"`
	Disclaimer               string          `json:"disclaimer"`
}

// Book handles POST /v1/rides
func (h *RideHandler) Book(c *gin.Context) {
	var req BookRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Book(c.Request.Context(), service.BookRideRequest{
		PassengerID:   req.PassengerID,
		BookingType:   domain.BookingType(req.BookingType),
		Pickup:        req.Pickup,
		Destination:   req.Destination,
		DistanceKm:    req.DistanceKm,
		Hours:         req.Hours,
		ScheduledTime: req.ScheduledTime,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRideResponse(ride))
}

// Accept handles POST /v1/rides/:id/accept
func (h *RideHandler) Accept(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Accept(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Start handles POST /v1/rides/:id/start
func (h *RideHandler) Start(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Start(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Complete handles POST /v1/rides/:id/complete
func (h *RideHandler) Complete(c *gin.Context) {
	var req DriverActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Complete(c.Request.Context(), c.Param("id"), req.DriverID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// Cancel handles POST /v1/rides/:id/cancel
func (h *RideHandler) Cancel(c *gin.Context) {
	var req CancelRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.Cancel(c.Request.Context(), c.Param("id"), domain.CancelParty(req.CancelledBy), req.Reason)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// GetPenalties handles GET /v1/rides/:id/penalties?cancelled_by=passenger
func (h *RideHandler) GetPenalties(c *gin.Context) {
	cancelledBy := c.DefaultQuery("cancelled_by", string(domain.CancelledByPassenger))

	b, disclaimer, err := h.rideService.PenaltyPreview(c.Request.Context(), c.Param("id"), domain.CancelParty(cancelledBy))
	if err != nil {
		respondError(c, err)
		return
	}

	refund := b.PassengerRefundAmount
	if domain.CancelParty(cancelledBy) == domain.CancelledByDriver {
		refund = b.DriverRefundAmount
	}

	respondJSON(c, http.StatusOK, PenaltyPreviewResponse{
		RideID:                   c.Param("id"),
		CancelledBy:              cancelledBy,
		CommitmentFee:            b.CommitmentFee.Round(2),
		PenaltyAmount:            b.PenaltyAmount.Round(2),
		RefundAmount:             refund.Round(2),
		PlatformCommission:       b.PlatformAmount.Round(2),
		ConvenienceFee:           b.ConvenienceFee.Round(2),
		RefundRatio:              b.RefundRatio,
		MinutesUntilRide:         b.MinutesUntilRide,
		PlatformFeePercentage:    b.PlatformFeePercentage,
		ConvenienceFeePercentage: b.ConvenienceFeePercentage,
		Disclaimer:               disclaimer,
	})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRideResponse(ride))
}

// List handles GET /v1/rides?user_id=...
func (h *RideHandler) List(c *gin.Context) {
	rides, err := h.rideService.ListRides(c.Request.Context(), c.Query("user_id"))
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

func toRideResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:            r.ID,
		PassengerID:   r.PassengerID,
		DriverID:      r.DriverID,
		BookingType:   string(r.BookingType),
		Pickup:        r.Pickup,
		Destination:   r.Destination,
		DistanceKm:    r.DistanceKm,
		Hours:         r.Hours,
		Fare:          r.Fare,
		CommitmentFee: r.CommitmentFee,
		PassengerCommitment: CommitmentResponse{
			Amount: r.PassengerCommitment.Amount,
			Status: string(r.PassengerCommitment.Status),
		},
		DriverCommitment: CommitmentResponse{
			Amount: r.DriverCommitment.Amount,
			Status: string(r.DriverCommitment.Status),
		},
		Status:        string(r.Status),
		ScheduledTime: r.ScheduledTime.Format(time.RFC3339),
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		DriverBonus:   r.DriverBonus,
	}

	if !r.AcceptedAt.IsZero() {
		resp.AcceptedAt = r.AcceptedAt.Format(time.RFC3339)
	}
	if !r.StartedAt.IsZero() {
		resp.StartedAt = r.StartedAt.Format(time.RFC3339)
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.Format(time.RFC3339)
	}
	if r.Cancellation != nil {
		resp.Cancellation = &CancellationResponse{
			CancelledBy:              string(r.Cancellation.CancelledBy),
			CancelledAt:              r.Cancellation.CancelledAt.Format(time.RFC3339),
			Reason:                   r.Cancellation.Reason,
			PenaltyAmount:            r.Cancellation.PenaltyAmount,
			PlatformCommission:       r.Cancellation.PlatformCommission,
			PassengerRefundAmount:    r.Cancellation.PassengerRefundAmount,
			DriverRefundAmount:       r.Cancellation.DriverRefundAmount,
			PassengerConvenienceFee:  r.Cancellation.PassengerConvenienceFee,
			DriverConvenienceFee:     r.Cancellation.DriverConvenienceFee,
			PlatformFeePercentage:    r.Cancellation.PlatformFeePercentage,
			ConvenienceFeePercentage: r.Cancellation.ConvenienceFeePercentage,
			RefundRatio:              r.Cancellation.RefundRatio,
		}
	}
	return resp
}
