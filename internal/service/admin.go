package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/redis"
	"prebook/internal/repository"
)

const (
	statsCacheKey     = "dashboard"
	adminListingLimit = 50
)

// DashboardStats aggregates platform-wide counters for the admin dashboard.
type DashboardStats struct {
	TotalUsers               int             `json:"total_users"`
	TotalRides               int64           `json:"total_rides"`
	TotalTransactions        int64           `json:"total_transactions"`
	TotalCommission          decimal.Decimal `json:"total_commission"`
	PlatformFeePercentage    float64         `json:"platform_fee_percentage"`
	ConvenienceFeePercentage float64         `json:"convenience_fee_percentage"`
	GeneratedAt              time.Time       `json:"generated_at"`
}

// AdminService backs the admin endpoints: platform listings, aggregate stats
// and the fee split override.
type AdminService struct {
	users        repository.UserRepository
	rides        repository.RideRepository
	transactions repository.TransactionRepository
	commissions  repository.CommissionRepository
	fees         *FeePolicyProvider
	cache        redis.CacheStoreInterface
	now          func() time.Time
}

// NewAdminService creates a new AdminService.
func NewAdminService(
	users repository.UserRepository,
	rides repository.RideRepository,
	transactions repository.TransactionRepository,
	commissions repository.CommissionRepository,
	fees *FeePolicyProvider,
	cache redis.CacheStoreInterface,
) *AdminService {
	return &AdminService{
		users:        users,
		rides:        rides,
		transactions: transactions,
		commissions:  commissions,
		fees:         fees,
		cache:        cache,
		now:          time.Now,
	}
}

// Stats returns platform-wide aggregates, served from cache when fresh. The
// aggregates scan whole tables, so staleness up to the cache TTL is accepted.
func (s *AdminService) Stats(ctx context.Context) (*DashboardStats, error) {
	if s.cache != nil {
		var cached DashboardStats
		if hit, err := s.cache.GetJSON(ctx, statsCacheKey, &cached); err == nil && hit {
			return &cached, nil
		}
	}

	users, err := s.users.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	rideCount, err := s.rides.Count(ctx)
	if err != nil {
		return nil, err
	}
	txCount, err := s.transactions.Count(ctx)
	if err != nil {
		return nil, err
	}
	commissionTotal, err := s.commissions.Total(ctx)
	if err != nil {
		return nil, err
	}

	policy := s.fees.Current()
	stats := &DashboardStats{
		TotalUsers:               len(users),
		TotalRides:               rideCount,
		TotalTransactions:        txCount,
		TotalCommission:          commissionTotal,
		PlatformFeePercentage:    policy.PlatformFeePercentage,
		ConvenienceFeePercentage: policy.ConvenienceFeePercentage,
		GeneratedAt:              s.now(),
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, statsCacheKey, stats, redis.StatsCacheTTL)
	}
	return stats, nil
}

// UpdateFees overrides the penalty split and invalidates the cached stats so
// the dashboard reflects the new percentages immediately.
func (s *AdminService) UpdateFees(ctx context.Context, platformPct, conveniencePct float64) (FeePolicy, error) {
	policy, err := s.fees.Update(platformPct, conveniencePct)
	if err != nil {
		return FeePolicy{}, err
	}
	if s.cache != nil {
		_ = s.cache.InvalidateStats(ctx, statsCacheKey)
	}
	return policy, nil
}

// RecentTransactions returns the latest ledger entries across all users.
func (s *AdminService) RecentTransactions(ctx context.Context) ([]*DashboardTransaction, error) {
	entries, err := s.transactions.GetRecent(ctx, adminListingLimit)
	if err != nil {
		return nil, err
	}
	out := make([]*DashboardTransaction, 0, len(entries))
	for _, e := range entries {
		out = append(out, &DashboardTransaction{
			ID:          e.ID,
			Type:        string(e.Type),
			Amount:      e.Amount,
			Signed:      e.Signed(),
			Description: e.Description,
			RideID:      e.RideID,
			UserID:      e.UserID,
			Timestamp:   e.Timestamp,
		})
	}
	return out, nil
}

// RecentCommissions returns the latest platform commission records.
func (s *AdminService) RecentCommissions(ctx context.Context) ([]*domain.PlatformCommission, error) {
	return s.commissions.GetRecent(ctx, adminListingLimit)
}

// AllRides returns recent rides across all users.
func (s *AdminService) AllRides(ctx context.Context) ([]*domain.Ride, error) {
	return s.rides.GetAll(ctx)
}

// DashboardTransaction is a ledger entry with its signed wallet effect
// precomputed for display.
type DashboardTransaction struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Signed      decimal.Decimal `json:"signed"`
	Description string          `json:"description"`
	RideID      string          `json:"ride_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	Timestamp   time.Time       `json:"timestamp"`
}
