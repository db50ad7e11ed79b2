package tests

import (
	"context"
	"encoding/json"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"prebook/internal/domain"
	"prebook/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount int32
	DebitCallCount  int32
	CreditCallCount int32

	// Error injection
	CreateError error
	DebitError  error
	CreditError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockUserRepository) Debit(ctx context.Context, id string, amount decimal.Decimal) error {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	if user.Balance.LessThan(amount) {
		return repository.ErrInsufficientBalance
	}
	user.Balance = user.Balance.Sub(amount)
	return nil
}

func (m *MockUserRepository) Credit(ctx context.Context, id string, amount decimal.Decimal) error {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Balance = user.Balance.Add(amount)
	return nil
}

// GetUser returns the user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

// Balance returns the user's balance for assertions.
func (m *MockUserRepository) Balance(id string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if u, ok := m.users[id]; ok {
		return u.Balance
	}
	return decimal.Zero
}

// TotalBalance sums all wallet balances.
func (m *MockUserRepository) TotalBalance() decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, u := range m.users {
		total = total.Add(u.Balance)
	}
	return total
}

func (m *MockUserRepository) snapshot() map[string]*domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.User, len(m.users))
	for id, u := range m.users {
		copy := *u
		snap[id] = &copy
	}
	return snap
}

func (m *MockUserRepository) restore(snap map[string]*domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users = snap
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Transition
// enforces the same optimistic status guard as the real store.
type MockRideRepository struct {
	mu    sync.RWMutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount     int32
	TransitionCallCount int32

	// Error injection
	CreateError     error
	TransitionError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = copyRide(ride)
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyRide(ride), nil
}

func (m *MockRideRepository) GetAll(ctx context.Context) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0, len(m.rides))
	for _, r := range m.rides {
		result = append(result, copyRide(r))
	}
	return result, nil
}

func (m *MockRideRepository) GetByUser(ctx context.Context, userID string) ([]*domain.Ride, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if r.PassengerID == userID || r.DriverID == userID {
			result = append(result, copyRide(r))
		}
	}
	return result, nil
}

func (m *MockRideRepository) Transition(ctx context.Context, ride *domain.Ride, from domain.RideStatus) error {
	atomic.AddInt32(&m.TransitionCallCount, 1)
	if m.TransitionError != nil {
		return m.TransitionError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok {
		return repository.ErrNotFound
	}
	if stored.Status != from {
		return repository.ErrStatusConflict
	}
	m.rides[ride.ID] = copyRide(ride)
	return nil
}

func (m *MockRideRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.rides)), nil
}

// GetRide returns the ride by ID (for test assertions).
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.rides[id]
}

// CountRides returns the number of rides.
func (m *MockRideRepository) CountRides() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rides)
}

func (m *MockRideRepository) snapshot() map[string]*domain.Ride {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make(map[string]*domain.Ride, len(m.rides))
	for id, r := range m.rides {
		snap[id] = copyRide(r)
	}
	return snap
}

func (m *MockRideRepository) restore(snap map[string]*domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides = snap
}

func copyRide(r *domain.Ride) *domain.Ride {
	copy := *r
	if r.Cancellation != nil {
		c := *r.Cancellation
		copy.Cancellation = &c
	}
	return &copy
}

// ──────────────────────────────────────────────
// MOCK TRANSACTION REPOSITORY
// ──────────────────────────────────────────────

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	mu      sync.RWMutex
	entries []*domain.Transaction

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockTransactionRepository creates a new mock transaction repository.
func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx *domain.Transaction) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *tx
	m.entries = append(m.entries, &copy)
	return nil
}

func (m *MockTransactionRepository) GetByRide(ctx context.Context, rideID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0)
	for _, e := range m.entries {
		if e.RideID == rideID {
			copy := *e
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) GetByUser(ctx context.Context, userID string) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0)
	for i := len(m.entries) - 1; i >= 0; i-- {
		if m.entries[i].UserID == userID {
			copy := *m.entries[i]
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockTransactionRepository) GetRecent(ctx context.Context, limit int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0, limit)
	for i := len(m.entries) - 1; i >= 0 && len(result) < limit; i-- {
		copy := *m.entries[i]
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockTransactionRepository) Count(ctx context.Context) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return int64(len(m.entries)), nil
}

// Entries returns all entries for assertions.
func (m *MockTransactionRepository) Entries() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0, len(m.entries))
	for _, e := range m.entries {
		copy := *e
		result = append(result, &copy)
	}
	return result
}

// EntriesFor returns a user's entries of a given type for assertions.
func (m *MockTransactionRepository) EntriesFor(userID string, txType domain.TransactionType) []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Transaction, 0)
	for _, e := range m.entries {
		if e.UserID == userID && e.Type == txType {
			copy := *e
			result = append(result, &copy)
		}
	}
	return result
}

// SumSigned sums the signed wallet effect of a user's entries.
func (m *MockTransactionRepository) SumSigned(userID string) decimal.Decimal {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.entries {
		if e.UserID == userID {
			total = total.Add(e.Signed())
		}
	}
	return total
}

// HasEntryContaining reports whether any entry description matches.
func (m *MockTransactionRepository) HasEntryContaining(substr string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if strings.Contains(e.Description, substr) {
			return true
		}
	}
	return false
}

func (m *MockTransactionRepository) snapshot() []*domain.Transaction {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make([]*domain.Transaction, len(m.entries))
	for i, e := range m.entries {
		copy := *e
		snap[i] = &copy
	}
	return snap
}

func (m *MockTransactionRepository) restore(snap []*domain.Transaction) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = snap
}

// ──────────────────────────────────────────────
// MOCK COMMISSION REPOSITORY
// ──────────────────────────────────────────────

// MockCommissionRepository is a mock implementation of CommissionRepository.
type MockCommissionRepository struct {
	mu      sync.RWMutex
	records []*domain.PlatformCommission

	// Counters for verification
	CreateCallCount int32

	// Error injection
	CreateError error
}

// NewMockCommissionRepository creates a new mock commission repository.
func NewMockCommissionRepository() *MockCommissionRepository {
	return &MockCommissionRepository{}
}

func (m *MockCommissionRepository) Create(ctx context.Context, c *domain.PlatformCommission) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *c
	m.records = append(m.records, &copy)
	return nil
}

func (m *MockCommissionRepository) GetRecent(ctx context.Context, limit int) ([]*domain.PlatformCommission, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PlatformCommission, 0, limit)
	for i := len(m.records) - 1; i >= 0 && len(result) < limit; i-- {
		copy := *m.records[i]
		result = append(result, &copy)
	}
	return result, nil
}

func (m *MockCommissionRepository) Total(ctx context.Context) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, r := range m.records {
		total = total.Add(r.Amount)
	}
	return total, nil
}

// Records returns all records for assertions.
func (m *MockCommissionRepository) Records() []*domain.PlatformCommission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.PlatformCommission, 0, len(m.records))
	for _, r := range m.records {
		copy := *r
		result = append(result, &copy)
	}
	return result
}

// TotalAmount sums all record amounts for assertions.
func (m *MockCommissionRepository) TotalAmount() decimal.Decimal {
	total, _ := m.Total(context.Background())
	return total
}

func (m *MockCommissionRepository) snapshot() []*domain.PlatformCommission {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap := make([]*domain.PlatformCommission, len(m.records))
	for i, r := range m.records {
		copy := *r
		snap[i] = &copy
	}
	return snap
}

func (m *MockCommissionRepository) restore(snap []*domain.PlatformCommission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = snap
}

// ──────────────────────────────────────────────
// MOCK UNIT OF WORK
// ──────────────────────────────────────────────

// MockTxRepos bundles the mock repositories behind the TxRepos interface.
type MockTxRepos struct {
	UserRepo        *MockUserRepository
	RideRepo        *MockRideRepository
	TransactionRepo *MockTransactionRepository
	CommissionRepo  *MockCommissionRepository
}

func (m *MockTxRepos) Users() repository.UserRepository               { return m.UserRepo }
func (m *MockTxRepos) Rides() repository.RideRepository               { return m.RideRepo }
func (m *MockTxRepos) Transactions() repository.TransactionRepository { return m.TransactionRepo }
func (m *MockTxRepos) Commissions() repository.CommissionRepository   { return m.CommissionRepo }

// MockUnitOfWork runs functions against the in-memory repositories and rolls
// their state back when the function fails, mirroring the transactional
// all-or-nothing behaviour of the real store.
type MockUnitOfWork struct {
	Repos *MockTxRepos

	// Counters for verification
	WithinCallCount int32

	// Error injection: returned before fn runs
	WithinError error
}

// NewMockUnitOfWork creates a unit of work over fresh mock repositories.
func NewMockUnitOfWork() *MockUnitOfWork {
	return &MockUnitOfWork{
		Repos: &MockTxRepos{
			UserRepo:        NewMockUserRepository(),
			RideRepo:        NewMockRideRepository(),
			TransactionRepo: NewMockTransactionRepository(),
			CommissionRepo:  NewMockCommissionRepository(),
		},
	}
}

func (m *MockUnitOfWork) Within(ctx context.Context, fn func(tx repository.TxRepos) error) error {
	atomic.AddInt32(&m.WithinCallCount, 1)
	if m.WithinError != nil {
		return m.WithinError
	}

	users := m.Repos.UserRepo.snapshot()
	rides := m.Repos.RideRepo.snapshot()
	entries := m.Repos.TransactionRepo.snapshot()
	records := m.Repos.CommissionRepo.snapshot()

	if err := fn(m.Repos); err != nil {
		m.Repos.UserRepo.restore(users)
		m.Repos.RideRepo.restore(rides)
		m.Repos.TransactionRepo.restore(entries)
		m.Repos.CommissionRepo.restore(records)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	// Counters for verification
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireRideLock(ctx context.Context, rideID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[rideID] {
		return false, nil
	}
	m.locks[rideID] = true
	return true, nil
}

func (m *MockLockStore) ReleaseRideLock(ctx context.Context, rideID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, rideID)
	return nil
}

// Hold marks a ride as locked by someone else.
func (m *MockLockStore) Hold(rideID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.locks[rideID] = true
}

// IsLocked reports whether the lock is currently held.
func (m *MockLockStore) IsLocked(rideID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locks[rideID]
}

// ──────────────────────────────────────────────
// MOCK CACHE STORE
// ──────────────────────────────────────────────

// MockCacheStore is a mock implementation of CacheStoreInterface.
type MockCacheStore struct {
	mu     sync.Mutex
	values map[string][]byte

	// Counters for verification
	GetCallCount int32
	SetCallCount int32

	// Error injection
	GetError error
	SetError error
}

// NewMockCacheStore creates a new mock cache store.
func NewMockCacheStore() *MockCacheStore {
	return &MockCacheStore{values: make(map[string][]byte)}
}

func (m *MockCacheStore) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	atomic.AddInt32(&m.GetCallCount, 1)
	if m.GetError != nil {
		return false, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.values[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(data, dest)
}

func (m *MockCacheStore) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	atomic.AddInt32(&m.SetCallCount, 1)
	if m.SetError != nil {
		return m.SetError
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = data
	return nil
}

func (m *MockCacheStore) InvalidateStats(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.values, key)
	return nil
}

// Has reports whether a key is cached.
func (m *MockCacheStore) Has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.values[key]
	return ok
}
