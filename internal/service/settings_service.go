package service

import (
	"context"
	"strings"

	"github.com/dafibh/casa/casa-backend/internal/domain"
	"github.com/dafibh/casa/casa-backend/internal/websocket"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// SettingsService manages monthly income, people and categories
type SettingsService struct {
	eventEmitter
	settingsRepo domain.SettingsRepository
	personRepo   domain.PersonRepository
	categoryRepo domain.CategoryRepository
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(settingsRepo domain.SettingsRepository, personRepo domain.PersonRepository, categoryRepo domain.CategoryRepository) *SettingsService {
	return &SettingsService{
		settingsRepo: settingsRepo,
		personRepo:   personRepo,
		categoryRepo: categoryRepo,
	}
}

// Get assembles the owner's settings from the settings row, people and categories
func (s *SettingsService) Get(ctx context.Context, ownerID uuid.UUID) (*domain.Settings, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	settings, err := s.settingsRepo.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	people, err := s.personRepo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	categories, err := s.categoryRepo.List(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := &domain.Settings{
		MonthlyIncome:     settings.MonthlyIncome,
		People:            make([]domain.Person, 0, len(people)),
		ExpenseCategories: make([]domain.Category, 0),
		IncomeCategories:  make([]domain.Category, 0),
	}
	for _, p := range people {
		result.People = append(result.People, *p)
	}
	for _, c := range categories {
		if c.Kind == domain.CategoryKindIncome {
			result.IncomeCategories = append(result.IncomeCategories, *c)
		} else {
			result.ExpenseCategories = append(result.ExpenseCategories, *c)
		}
	}
	return result, nil
}

// UpdateMonthlyIncome sets the fixed monthly income
func (s *SettingsService) UpdateMonthlyIncome(ctx context.Context, ownerID uuid.UUID, income decimal.Decimal) (*domain.Settings, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}
	if income.IsNegative() {
		return nil, domain.ErrInvalidIncome
	}
	if !domain.HasMoneyPrecision(income) {
		return nil, domain.ErrIncomePrecision
	}

	if err := s.settingsRepo.Update(ctx, ownerID, domain.SettingsPatch{MonthlyIncome: &income}); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to update monthly income")
		return nil, err
	}

	settings, err := s.Get(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ownerID, websocket.SettingsUpdated(settings))
	return settings, nil
}

// AddPerson adds a participant
func (s *SettingsService) AddPerson(ctx context.Context, ownerID uuid.UUID, name string) (*domain.Person, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	person, err := s.personRepo.Create(ctx, ownerID, &domain.Person{Name: name})
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to add person")
		return nil, err
	}

	s.publishEvent(ownerID, websocket.PersonCreated(person))
	return person, nil
}

// RenamePerson changes a participant's name
func (s *SettingsService) RenamePerson(ctx context.Context, ownerID uuid.UUID, id, name string) (*domain.Person, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	name, err := validateName(name)
	if err != nil {
		return nil, err
	}

	if err := s.personRepo.Update(ctx, ownerID, id, domain.PersonPatch{Name: &name}); err != nil {
		return nil, err
	}

	person := &domain.Person{ID: id, Name: name}
	s.publishEvent(ownerID, websocket.PersonUpdated(person))
	return person, nil
}

// RemovePerson deletes a participant. The last remaining person cannot be
// removed. Items that still reference the id keep it as an orphan.
func (s *SettingsService) RemovePerson(ctx context.Context, ownerID uuid.UUID, id string) error {
	if ownerID == uuid.Nil {
		return nil
	}

	people, err := s.personRepo.List(ctx, ownerID)
	if err != nil {
		return err
	}

	exists := false
	for _, p := range people {
		if p.ID == id {
			exists = true
			break
		}
	}
	if !exists {
		return nil
	}
	if len(people) <= 1 {
		return domain.ErrLastPerson
	}

	if err := s.personRepo.Delete(ctx, ownerID, id); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("person_id", id).Msg("Failed to remove person")
		return err
	}

	s.publishEvent(ownerID, websocket.PersonDeleted(map[string]interface{}{"id": id}))
	return nil
}

// AddCategory adds an expense or income category
func (s *SettingsService) AddCategory(ctx context.Context, ownerID uuid.UUID, name string, kind domain.CategoryKind) (*domain.Category, error) {
	if ownerID == uuid.Nil {
		return nil, nil
	}

	name, err := validateName(name)
	if err != nil {
		return nil, err
	}
	if !kind.Valid() {
		return nil, domain.ErrInvalidCategoryKind
	}

	category, err := s.categoryRepo.Create(ctx, ownerID, &domain.Category{Name: name, Kind: kind})
	if err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to add category")
		return nil, err
	}

	s.publishEvent(ownerID, websocket.CategoryCreated(category))
	return category, nil
}

// RenameCategory changes a category's name
func (s *SettingsService) RenameCategory(ctx context.Context, ownerID uuid.UUID, id, name string) error {
	if ownerID == uuid.Nil {
		return nil
	}

	name, err := validateName(name)
	if err != nil {
		return err
	}

	if err := s.categoryRepo.Update(ctx, ownerID, id, domain.CategoryPatch{Name: &name}); err != nil {
		return err
	}

	s.publishEvent(ownerID, websocket.CategoryUpdated(map[string]interface{}{"id": id, "name": name}))
	return nil
}

// RemoveCategory deletes a category. Items keep the id they reference.
func (s *SettingsService) RemoveCategory(ctx context.Context, ownerID uuid.UUID, id string) error {
	if ownerID == uuid.Nil {
		return nil
	}

	if err := s.categoryRepo.Delete(ctx, ownerID, id); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Str("category_id", id).Msg("Failed to remove category")
		return err
	}

	s.publishEvent(ownerID, websocket.CategoryDeleted(map[string]interface{}{"id": id}))
	return nil
}

// SeedDefaults writes the default people, categories and a zero income
func (s *SettingsService) SeedDefaults(ctx context.Context, ownerID uuid.UUID) error {
	if ownerID == uuid.Nil {
		return nil
	}

	if err := s.settingsRepo.SeedDefaults(ctx, ownerID, domain.DefaultPeople, domain.DefaultCategories); err != nil {
		log.Error().Err(err).Str("owner_id", ownerID.String()).Msg("Failed to seed default settings")
		return err
	}

	log.Info().Str("owner_id", ownerID.String()).Msg("Seeded default settings")
	return nil
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", domain.ErrNameRequired
	}
	if len(name) > domain.MaxNameLength {
		return "", domain.ErrNameTooLong
	}
	return name, nil
}
