package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/service"
)

// UserHandler handles HTTP requests for users and their wallets.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest is the HTTP request body for user registration.
type RegisterRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Role  string `json:"role"` // passenger or driver
}

// UserResponse is the HTTP response for user data.
type UserResponse struct {
	ID      string          `json:"id"`
	Name    string          `json:"name"`
	Phone   string          `json:"phone"`
	Role    string          `json:"role"`
	Balance decimal.Decimal `json:"balance"`
}

// TransactionResponse is the HTTP response for a ledger entry.
type TransactionResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Signed      decimal.Decimal `json:"signed"`
	Description string          `json:"description"`
	RideID      string          `json:"ride_id,omitempty"`
	Timestamp   string          `json:"timestamp"`
}

// Register handles POST /v1/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterUserRequest{
		Name:  req.Name,
		Phone: req.Phone,
		Role:  domain.Role(req.Role),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toUserResponse(user))
}

// GetAll handles GET /v1/users
func (h *UserHandler) GetAll(c *gin.Context) {
	users, err := h.userService.ListUsers(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserResponse, 0, len(users))
	for _, u := range users {
		response = append(response, toUserResponse(u))
	}
	respondJSON(c, http.StatusOK, response)
}

// GetWallet handles GET /v1/users/:id/wallet
func (h *UserHandler) GetWallet(c *gin.Context) {
	user, err := h.userService.GetWallet(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"user_id": user.ID,
		"balance": user.Balance,
	})
}

// GetTransactions handles GET /v1/users/:id/transactions
func (h *UserHandler) GetTransactions(c *gin.Context) {
	entries, err := h.userService.GetTransactions(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, TransactionResponse{
			ID:          e.ID,
			Type:        string(e.Type),
			Amount:      e.Amount,
			Signed:      e.Signed(),
			Description: e.Description,
			RideID:      e.RideID,
			Timestamp:   e.Timestamp.Format(time.RFC3339),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

func toUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:      u.ID,
		Name:    u.Name,
		Phone:   u.Phone,
		Role:    string(u.Role),
		Balance: u.Balance,
	}
}
