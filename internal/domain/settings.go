package domain

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Person is a participant that expenses and receivables can be split between
type Person struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PersonPatch struct {
	Name *string
}

type CategoryKind string

const (
	CategoryKindExpense CategoryKind = "expense"
	CategoryKindIncome  CategoryKind = "income"
)

func (k CategoryKind) Valid() bool {
	return k == CategoryKindExpense || k == CategoryKindIncome
}

type Category struct {
	ID   string       `json:"id"`
	Name string       `json:"name"`
	Kind CategoryKind `json:"kind"`
}

type CategoryPatch struct {
	Name *string
}

// Settings is the per-owner configuration. People and categories are read
// from their own repositories; only MonthlyIncome is stored with the settings.
type Settings struct {
	MonthlyIncome     decimal.Decimal `json:"monthlyIncome"`
	People            []Person        `json:"people"`
	ExpenseCategories []Category      `json:"expenseCategories"`
	IncomeCategories  []Category      `json:"incomeCategories"`
}

// Clone returns a copy with independent slices
func (s *Settings) Clone() *Settings {
	c := *s
	c.People = append([]Person(nil), s.People...)
	c.ExpenseCategories = append([]Category(nil), s.ExpenseCategories...)
	c.IncomeCategories = append([]Category(nil), s.IncomeCategories...)
	return &c
}

// PersonName resolves a person id. Unknown ids resolve to "" and false.
func (s *Settings) PersonName(id string) (string, bool) {
	for _, p := range s.People {
		if p.ID == id {
			return p.Name, true
		}
	}
	return "", false
}

type SettingsPatch struct {
	MonthlyIncome *decimal.Decimal
}

// Default data seeded for every new owner
var (
	DefaultPeople = []Person{
		{ID: "1", Name: "Pessoa 1"},
		{ID: "2", Name: "Pessoa 2"},
	}
	DefaultCategories = []Category{
		{ID: "1", Name: "Aluguel", Kind: CategoryKindExpense},
		{ID: "2", Name: "Energia", Kind: CategoryKindExpense},
		{ID: "3", Name: "Água", Kind: CategoryKindExpense},
		{ID: "4", Name: "Internet", Kind: CategoryKindExpense},
		{ID: "5", Name: "Supermercado", Kind: CategoryKindExpense},
		{ID: "6", Name: "Salário", Kind: CategoryKindIncome},
	}
)

type PersonRepository interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*Person, error)
	Create(ctx context.Context, ownerID uuid.UUID, person *Person) (*Person, error)
	Update(ctx context.Context, ownerID uuid.UUID, id string, patch PersonPatch) error
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}

type CategoryRepository interface {
	List(ctx context.Context, ownerID uuid.UUID) ([]*Category, error)
	ListByKind(ctx context.Context, ownerID uuid.UUID, kind CategoryKind) ([]*Category, error)
	Create(ctx context.Context, ownerID uuid.UUID, category *Category) (*Category, error)
	Update(ctx context.Context, ownerID uuid.UUID, id string, patch CategoryPatch) error
	Delete(ctx context.Context, ownerID uuid.UUID, id string) error
}

type SettingsRepository interface {
	// Get returns zero income when the owner has no settings row yet
	Get(ctx context.Context, ownerID uuid.UUID) (*Settings, error)
	Update(ctx context.Context, ownerID uuid.UUID, patch SettingsPatch) error
	// SeedDefaults writes the default people, categories and settings row
	SeedDefaults(ctx context.Context, ownerID uuid.UUID, people []Person, categories []Category) error
}
