package tests

import (
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"timesheet/internal/domain"
	"timesheet/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	// Counters for verification
	CreateCallCount           int32
	UpdateHourlyRateCallCount int32
	DeleteManyCallCount       int32

	// Error injection
	CreateError error
	UpdateError error
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
	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrDuplicateKey
		}
	}
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

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) List(ctx context.Context, filter repository.UserFilter, page repository.Page) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := m.matchUsers(filter)
	page = page.Normalize()

	sort.Slice(matched, func(i, j int) bool {
		if page.SortOrder == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := page.Offset()
	if start >= len(matched) {
		return nil, nil
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (m *MockUserRepository) Count(ctx context.Context, filter repository.UserFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchUsers(filter)), nil
}

func (m *MockUserRepository) GetByIDs(ctx context.Context, ids []string) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(ids))
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			copy := *u
			result = append(result, &copy)
		}
	}
	return result, nil
}

func (m *MockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = passwordHash
	user.PasswordChangedAt = time.Now()
	return nil
}

func (m *MockUserRepository) UpdateHourlyRate(ctx context.Context, id string, rate decimal.Decimal) error {
	atomic.AddInt32(&m.UpdateHourlyRateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.HourlyRate = rate
	return nil
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.users, id)
	return nil
}

func (m *MockUserRepository) DeleteMany(ctx context.Context, ids []string) error {
	atomic.AddInt32(&m.DeleteManyCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		delete(m.users, id)
	}
	return nil
}

// GetUser returns a user for test assertions.
func (m *MockUserRepository) GetUser(id string) *domain.User {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id]
}

func (m *MockUserRepository) matchUsers(filter repository.UserFilter) []*domain.User {
	result := make([]*domain.User, 0, len(m.users))
	term := strings.ToLower(filter.SearchTerm)
	for _, u := range m.users {
		if filter.RestrictToRole != "" && u.Role != filter.RestrictToRole && u.ID != filter.VisibleToID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(u.Name), term) &&
			!strings.Contains(strings.ToLower(u.Email), term) {
			continue
		}
		copy := *u
		result = append(result, &copy)
	}
	return result
}

// ──────────────────────────────────────────────
// MOCK TIMESHEET REPOSITORY
// ──────────────────────────────────────────────

// MockTimesheetRepository is a mock implementation of TimesheetRepository.
type MockTimesheetRepository struct {
	mu      sync.RWMutex
	entries map[string]*domain.Timesheet

	// Counters for verification
	CreateCallCount int32
	UpdateCallCount int32
	DeleteCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTimesheetRepository creates a new mock timesheet repository.
func NewMockTimesheetRepository() *MockTimesheetRepository {
	return &MockTimesheetRepository{
		entries: make(map[string]*domain.Timesheet),
	}
}

// AddEntry adds an entry to the mock repository.
func (m *MockTimesheetRepository) AddEntry(entry *domain.Timesheet) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[entry.ID] = entry
}

func (m *MockTimesheetRepository) Create(ctx context.Context, entry *domain.Timesheet) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.TripID == entry.TripID {
			return repository.ErrDuplicateKey
		}
	}
	copy := *entry
	m.entries[entry.ID] = &copy
	return nil
}

func (m *MockTimesheetRepository) GetByID(ctx context.Context, id string) (*domain.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.entries[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *entry
	return &copy, nil
}

func (m *MockTimesheetRepository) GetByTripID(ctx context.Context, tripID, excludeID string) (*domain.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.TripID == tripID && e.ID != excludeID {
			copy := *e
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTimesheetRepository) FindOverlapping(ctx context.Context, date, start, end time.Time, excludeID string) (*domain.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, e := range m.entries {
		if e.ID == excludeID || !sameDate(e.Date, date) {
			continue
		}
		if e.Overlaps(start, end) {
			copy := *e
			return &copy, nil
		}
	}
	return nil, nil
}

func (m *MockTimesheetRepository) List(ctx context.Context, filter repository.TimesheetFilter, page repository.Page) ([]*domain.Timesheet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	matched := m.matchEntries(filter)
	page = page.Normalize()

	sort.Slice(matched, func(i, j int) bool {
		if page.SortOrder == "asc" {
			return matched[i].CreatedAt.Before(matched[j].CreatedAt)
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	start := page.Offset()
	if start >= len(matched) {
		return nil, nil
	}
	end := start + page.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], nil
}

func (m *MockTimesheetRepository) Count(ctx context.Context, filter repository.TimesheetFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.matchEntries(filter)), nil
}

func (m *MockTimesheetRepository) SumPayment(ctx context.Context, filter repository.TimesheetFilter) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.matchEntries(filter) {
		total = total.Add(e.Payment)
	}
	return total, nil
}

func (m *MockTimesheetRepository) SumHours(ctx context.Context, filter repository.TimesheetFilter) (decimal.Decimal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := decimal.Zero
	for _, e := range m.matchEntries(filter) {
		total = total.Add(e.DurationHours)
	}
	return total, nil
}

func (m *MockTimesheetRepository) Update(ctx context.Context, entry *domain.Timesheet) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[entry.ID]; !ok {
		return repository.ErrNotFound
	}
	for _, e := range m.entries {
		if e.TripID == entry.TripID && e.ID != entry.ID {
			return repository.ErrDuplicateKey
		}
	}
	copy := *entry
	m.entries[entry.ID] = &copy
	return nil
}

func (m *MockTimesheetRepository) Delete(ctx context.Context, id string) error {
	atomic.AddInt32(&m.DeleteCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.entries[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.entries, id)
	return nil
}

// GetEntry returns an entry for test assertions.
func (m *MockTimesheetRepository) GetEntry(id string) *domain.Timesheet {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entries[id]
}

func (m *MockTimesheetRepository) matchEntries(filter repository.TimesheetFilter) []*domain.Timesheet {
	result := make([]*domain.Timesheet, 0, len(m.entries))
	term := strings.ToLower(filter.SearchTerm)
	for _, e := range m.entries {
		if filter.UserID != "" && e.UserID != filter.UserID {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(e.Name), term) &&
			!strings.Contains(strings.ToLower(e.TripID), term) {
			continue
		}
		if filter.DateFrom != nil && e.Date.Before(*filter.DateFrom) {
			continue
		}
		if filter.DateTo != nil && e.Date.After(*filter.DateTo) {
			continue
		}
		copy := *e
		result = append(result, &copy)
	}
	return result
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ──────────────────────────────────────────────
// MOCK SESSION REPOSITORY
// ──────────────────────────────────────────────

// MockSessionRepository is a mock implementation of SessionRepository.
type MockSessionRepository struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session

	CreateCallCount int32
}

// NewMockSessionRepository creates a new mock session repository.
func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{
		sessions: make(map[string]*domain.Session),
	}
}

// AddSession adds a session to the mock repository.
func (m *MockSessionRepository) AddSession(session *domain.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.ID] = session
}

func (m *MockSessionRepository) Create(ctx context.Context, session *domain.Session) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *session
	m.sessions[session.ID] = &copy
	return nil
}

func (m *MockSessionRepository) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *session
	return &copy, nil
}

func (m *MockSessionRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.Session, 0)
	for _, s := range m.sessions {
		if s.UserID == userID {
			copy := *s
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockSessionRepository) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionRepository) DeleteByIDAndUser(ctx context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	if !ok || session.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// ──────────────────────────────────────────────
// MOCK ASSET STORE
// ──────────────────────────────────────────────

// MockAssetStore is an in-memory implementation of AssetStore.
type MockAssetStore struct {
	mu     sync.Mutex
	assets map[string][]byte

	UploadCallCount int32
	RemoveCallCount int32

	RemoveError error
}

// NewMockAssetStore creates a new mock asset store.
func NewMockAssetStore() *MockAssetStore {
	return &MockAssetStore{
		assets: make(map[string][]byte),
	}
}

func (m *MockAssetStore) Upload(ctx context.Context, filename string, r io.Reader) (string, error) {
	atomic.AddInt32(&m.UploadCallCount, 1)
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ref := "/uploads/" + filename
	m.assets[ref] = data
	return ref, nil
}

func (m *MockAssetStore) Remove(ctx context.Context, ref string) error {
	atomic.AddInt32(&m.RemoveCallCount, 1)
	if m.RemoveError != nil {
		return m.RemoveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.assets, ref)
	return nil
}

// Has reports whether a reference is stored.
func (m *MockAssetStore) Has(ref string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.assets[ref]
	return ok
}

// ──────────────────────────────────────────────
// MOCK RESET TOKEN STORE
// ──────────────────────────────────────────────

// MockResetTokenStore is an in-memory implementation of ResetTokenStore.
type MockResetTokenStore struct {
	mu     sync.Mutex
	tokens map[string]string

	ConsumeCallCount int32

	SaveError error
}

// NewMockResetTokenStore creates a new mock reset token store.
func NewMockResetTokenStore() *MockResetTokenStore {
	return &MockResetTokenStore{
		tokens: make(map[string]string),
	}
}

func (m *MockResetTokenStore) SaveResetToken(ctx context.Context, userID, token string) error {
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[userID] = token
	return nil
}

func (m *MockResetTokenStore) ResetTokenMatches(ctx context.Context, userID, token string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.tokens[userID]
	return ok && stored == token, nil
}

func (m *MockResetTokenStore) ConsumeResetToken(ctx context.Context, userID string) error {
	atomic.AddInt32(&m.ConsumeCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, userID)
	return nil
}

// Token returns the stored token for a user, empty when none.
func (m *MockResetTokenStore) Token(userID string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tokens[userID]
}

// ──────────────────────────────────────────────
// MOCK MAILER
// ──────────────────────────────────────────────

// MockMailer records outbound reset emails.
type MockMailer struct {
	mu    sync.Mutex
	sent  []string
	links []string

	SendError error
}

// NewMockMailer creates a new mock mailer.
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

func (m *MockMailer) SendPasswordResetEmail(ctx context.Context, to, link string) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, to)
	m.links = append(m.links, link)
	return nil
}

// SentTo returns the recipients of all recorded emails.
func (m *MockMailer) SentTo() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.sent...)
}

// Links returns the reset links of all recorded emails.
func (m *MockMailer) Links() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.links...)
}
