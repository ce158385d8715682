package testutil

import (
	"context"
	"strings"
	"time"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MockExpenseRepository is a mock implementation of domain.ExpenseRepository.
// Items are kept per owner in insertion order.
type MockExpenseRepository struct {
	Expenses    map[uuid.UUID][]*domain.Expense
	CreateCalls int
	UpdateCalls int
	DeleteCalls int
	ListErr     error
	CreateErr   error
	UpdateErr   error
	DeleteErr   error
}

// NewMockExpenseRepository creates a new MockExpenseRepository
func NewMockExpenseRepository() *MockExpenseRepository {
	return &MockExpenseRepository{
		Expenses: make(map[uuid.UUID][]*domain.Expense),
	}
}

// List returns copies of the owner's expenses
func (m *MockExpenseRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Expense, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Expense, 0, len(m.Expenses[ownerID]))
	for _, e := range m.Expenses[ownerID] {
		result = append(result, e.Clone())
	}
	return result, nil
}

// GetByID retrieves an expense by ID
func (m *MockExpenseRepository) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Expense, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	for _, e := range m.Expenses[ownerID] {
		if e.ID == id {
			return e.Clone(), nil
		}
	}
	return nil, domain.ErrExpenseNotFound
}

// Create stores an expense, assigning an ID when empty
func (m *MockExpenseRepository) Create(ctx context.Context, ownerID uuid.UUID, expense *domain.Expense) (*domain.Expense, error) {
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := expense.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.Expenses[ownerID] = append(m.Expenses[ownerID], stored)
	return stored.Clone(), nil
}

// Update applies a patch to an existing expense
func (m *MockExpenseRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ExpensePatch) error {
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, e := range m.Expenses[ownerID] {
		if e.ID == id {
			patch.Apply(e)
			e.UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrExpenseNotFound
}

// Delete removes an expense; absent IDs are ignored
func (m *MockExpenseRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	items := m.Expenses[ownerID]
	for i, e := range items {
		if e.ID == id {
			m.Expenses[ownerID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddExpense adds an expense to the mock repository (helper for tests)
func (m *MockExpenseRepository) AddExpense(ownerID uuid.UUID, expense *domain.Expense) {
	m.Expenses[ownerID] = append(m.Expenses[ownerID], expense.Clone())
}

// MockReceivableRepository is a mock implementation of domain.ReceivableRepository
type MockReceivableRepository struct {
	Receivables map[uuid.UUID][]*domain.Receivable
	CreateCalls int
	UpdateCalls int
	DeleteCalls int
	ListErr     error
	CreateErr   error
	UpdateErr   error
	DeleteErr   error
}

// NewMockReceivableRepository creates a new MockReceivableRepository
func NewMockReceivableRepository() *MockReceivableRepository {
	return &MockReceivableRepository{
		Receivables: make(map[uuid.UUID][]*domain.Receivable),
	}
}

func (m *MockReceivableRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Receivable, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Receivable, 0, len(m.Receivables[ownerID]))
	for _, r := range m.Receivables[ownerID] {
		result = append(result, r.Clone())
	}
	return result, nil
}

func (m *MockReceivableRepository) GetByID(ctx context.Context, ownerID uuid.UUID, id string) (*domain.Receivable, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	for _, r := range m.Receivables[ownerID] {
		if r.ID == id {
			return r.Clone(), nil
		}
	}
	return nil, domain.ErrReceivableNotFound
}

func (m *MockReceivableRepository) Create(ctx context.Context, ownerID uuid.UUID, receivable *domain.Receivable) (*domain.Receivable, error) {
	m.CreateCalls++
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := receivable.Clone()
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	m.Receivables[ownerID] = append(m.Receivables[ownerID], stored)
	return stored.Clone(), nil
}

func (m *MockReceivableRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.ReceivablePatch) error {
	m.UpdateCalls++
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, r := range m.Receivables[ownerID] {
		if r.ID == id {
			patch.Apply(r)
			r.UpdatedAt = time.Now()
			return nil
		}
	}
	return domain.ErrReceivableNotFound
}

func (m *MockReceivableRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	m.DeleteCalls++
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	items := m.Receivables[ownerID]
	for i, r := range items {
		if r.ID == id {
			m.Receivables[ownerID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddReceivable adds a receivable to the mock repository (helper for tests)
func (m *MockReceivableRepository) AddReceivable(ownerID uuid.UUID, receivable *domain.Receivable) {
	m.Receivables[ownerID] = append(m.Receivables[ownerID], receivable.Clone())
}

// MockPersonRepository is a mock implementation of domain.PersonRepository
type MockPersonRepository struct {
	People    map[uuid.UUID][]*domain.Person
	ListErr   error
	CreateErr error
	UpdateErr error
	DeleteErr error
}

// NewMockPersonRepository creates a new MockPersonRepository
func NewMockPersonRepository() *MockPersonRepository {
	return &MockPersonRepository{
		People: make(map[uuid.UUID][]*domain.Person),
	}
}

func (m *MockPersonRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Person, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Person, 0, len(m.People[ownerID]))
	for _, p := range m.People[ownerID] {
		c := *p
		result = append(result, &c)
	}
	return result, nil
}

func (m *MockPersonRepository) Create(ctx context.Context, ownerID uuid.UUID, person *domain.Person) (*domain.Person, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := *person
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	m.People[ownerID] = append(m.People[ownerID], &stored)
	c := stored
	return &c, nil
}

func (m *MockPersonRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.PersonPatch) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, p := range m.People[ownerID] {
		if p.ID == id {
			if patch.Name != nil {
				p.Name = *patch.Name
			}
			return nil
		}
	}
	return domain.ErrPersonNotFound
}

func (m *MockPersonRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	items := m.People[ownerID]
	for i, p := range items {
		if p.ID == id {
			m.People[ownerID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddPerson adds a person to the mock repository (helper for tests)
func (m *MockPersonRepository) AddPerson(ownerID uuid.UUID, person domain.Person) {
	m.People[ownerID] = append(m.People[ownerID], &person)
}

// MockCategoryRepository is a mock implementation of domain.CategoryRepository
type MockCategoryRepository struct {
	Categories map[uuid.UUID][]*domain.Category
	ListErr    error
	CreateErr  error
	UpdateErr  error
	DeleteErr  error
}

// NewMockCategoryRepository creates a new MockCategoryRepository
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{
		Categories: make(map[uuid.UUID][]*domain.Category),
	}
}

func (m *MockCategoryRepository) List(ctx context.Context, ownerID uuid.UUID) ([]*domain.Category, error) {
	if m.ListErr != nil {
		return nil, m.ListErr
	}
	result := make([]*domain.Category, 0, len(m.Categories[ownerID]))
	for _, c := range m.Categories[ownerID] {
		cp := *c
		result = append(result, &cp)
	}
	return result, nil
}

func (m *MockCategoryRepository) ListByKind(ctx context.Context, ownerID uuid.UUID, kind domain.CategoryKind) ([]*domain.Category, error) {
	all, err := m.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.Category, 0, len(all))
	for _, c := range all {
		if c.Kind == kind {
			result = append(result, c)
		}
	}
	return result, nil
}

func (m *MockCategoryRepository) Create(ctx context.Context, ownerID uuid.UUID, category *domain.Category) (*domain.Category, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	stored := *category
	if stored.ID == "" {
		stored.ID = uuid.New().String()
	}
	m.Categories[ownerID] = append(m.Categories[ownerID], &stored)
	c := stored
	return &c, nil
}

func (m *MockCategoryRepository) Update(ctx context.Context, ownerID uuid.UUID, id string, patch domain.CategoryPatch) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	for _, c := range m.Categories[ownerID] {
		if c.ID == id {
			if patch.Name != nil {
				c.Name = *patch.Name
			}
			return nil
		}
	}
	return domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) Delete(ctx context.Context, ownerID uuid.UUID, id string) error {
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	items := m.Categories[ownerID]
	for i, c := range items {
		if c.ID == id {
			m.Categories[ownerID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

// AddCategory adds a category to the mock repository (helper for tests)
func (m *MockCategoryRepository) AddCategory(ownerID uuid.UUID, category domain.Category) {
	m.Categories[ownerID] = append(m.Categories[ownerID], &category)
}

// MockSettingsRepository is a mock implementation of domain.SettingsRepository.
// SeedDefaults writes through to the person and category mocks when set.
type MockSettingsRepository struct {
	Income     map[uuid.UUID]decimal.Decimal
	People     *MockPersonRepository
	Categories *MockCategoryRepository
	SeedCalls  int
	GetErr     error
	UpdateErr  error
	SeedErr    error
}

// NewMockSettingsRepository creates a new MockSettingsRepository
func NewMockSettingsRepository(people *MockPersonRepository, categories *MockCategoryRepository) *MockSettingsRepository {
	return &MockSettingsRepository{
		Income:     make(map[uuid.UUID]decimal.Decimal),
		People:     people,
		Categories: categories,
	}
}

func (m *MockSettingsRepository) Get(ctx context.Context, ownerID uuid.UUID) (*domain.Settings, error) {
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return &domain.Settings{MonthlyIncome: m.Income[ownerID]}, nil
}

func (m *MockSettingsRepository) Update(ctx context.Context, ownerID uuid.UUID, patch domain.SettingsPatch) error {
	if m.UpdateErr != nil {
		return m.UpdateErr
	}
	if patch.MonthlyIncome != nil {
		m.Income[ownerID] = *patch.MonthlyIncome
	}
	return nil
}

func (m *MockSettingsRepository) SeedDefaults(ctx context.Context, ownerID uuid.UUID, people []domain.Person, categories []domain.Category) error {
	m.SeedCalls++
	if m.SeedErr != nil {
		return m.SeedErr
	}
	m.Income[ownerID] = decimal.Zero
	if m.People != nil {
		for _, p := range people {
			m.People.AddPerson(ownerID, p)
		}
	}
	if m.Categories != nil {
		for _, c := range categories {
			m.Categories.AddCategory(ownerID, c)
		}
	}
	return nil
}

// MockUserRepository is a mock implementation of domain.UserRepository
type MockUserRepository struct {
	ByID      map[uuid.UUID]*domain.User
	CreateErr error
}

// NewMockUserRepository creates a new MockUserRepository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		ByID: make(map[uuid.UUID]*domain.User),
	}
}

func (m *MockUserRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if user, ok := m.ByID[id]; ok {
		return user, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetBySubject(ctx context.Context, subject string) (*domain.User, error) {
	for _, user := range m.ByID {
		if user.Subject == subject {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	for _, user := range m.ByID {
		if strings.EqualFold(user.Email, email) {
			return user, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if m.CreateErr != nil {
		return nil, m.CreateErr
	}
	if user.Email != "" {
		if _, err := m.GetByEmail(ctx, user.Email); err == nil {
			return nil, domain.ErrEmailExists
		}
	}
	stored := *user
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CreatedAt = time.Now()
	m.ByID[stored.ID] = &stored
	return &stored, nil
}

// AddUser adds a user to the mock repository (helper for tests)
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.ByID[user.ID] = user
}
