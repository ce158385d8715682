package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSeededSettingsHandler(t *testing.T) (uuid.UUID, *settingsFixture, *SettingsHandler) {
	t.Helper()
	f := newSettingsFixture()
	ownerID := uuid.New()
	require.NoError(t, f.service.SeedDefaults(t.Context(), ownerID))
	return ownerID, f, NewSettingsHandler(f.service)
}

func TestGetSettings_Defaults(t *testing.T) {
	e := echo.New()
	ownerID, _, handler := newSeededSettingsHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/settings", nil), rec)
	setupOwnerContext(c, ownerID)

	require.NoError(t, handler.GetSettings(c))
	require.Equal(t, http.StatusOK, rec.Code)

	var response SettingsResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
	assert.Equal(t, "0.00", response.MonthlyIncome)
	assert.Len(t, response.People, 2)
	assert.Len(t, response.ExpenseCategories, 5)
	assert.Len(t, response.IncomeCategories, 1)
}

func TestUpdateIncome(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantIncome string
	}{
		{"valid income", `{"monthlyIncome":"5000"}`, http.StatusOK, "5000.00"},
		{"zero income", `{"monthlyIncome":"0"}`, http.StatusOK, "0.00"},
		{"negative income", `{"monthlyIncome":"-1"}`, http.StatusBadRequest, ""},
		{"fraction of a cent", `{"monthlyIncome":"10.001"}`, http.StatusBadRequest, ""},
		{"not a number", `{"monthlyIncome":"lots"}`, http.StatusBadRequest, ""},
		{"missing", `{}`, http.StatusBadRequest, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			ownerID, _, handler := newSeededSettingsHandler(t)

			rec := httptest.NewRecorder()
			c := e.NewContext(newJSONRequest(http.MethodPut, "/api/v1/settings/income", tt.body), rec)
			setupOwnerContext(c, ownerID)

			_ = handler.UpdateIncome(c)

			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			if tt.wantStatus != http.StatusOK {
				problem := decodeProblem(t, rec)
				require.NotEmpty(t, problem.Errors)
				assert.Equal(t, "monthlyIncome", problem.Errors[0].Field)
				return
			}
			var response SettingsResponse
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response))
			assert.Equal(t, tt.wantIncome, response.MonthlyIncome)
		})
	}
}

func TestAddAndRenamePerson(t *testing.T) {
	e := echo.New()
	ownerID, f, handler := newSeededSettingsHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/v1/settings/people", `{"name":"  Bia  "}`), rec)
	setupOwnerContext(c, ownerID)
	require.NoError(t, handler.AddPerson(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Bia", created.Name)
	assert.Len(t, f.people.People[ownerID], 3)

	rec = httptest.NewRecorder()
	c = e.NewContext(newJSONRequest(http.MethodPatch, "/api/v1/settings/people/"+created.ID, `{"name":"Beatriz"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	setupOwnerContext(c, ownerID)
	require.NoError(t, handler.RenamePerson(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(newJSONRequest(http.MethodPatch, "/api/v1/settings/people/ghost", `{"name":"Nobody"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	setupOwnerContext(c, ownerID)
	_ = handler.RenamePerson(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRemovePerson_KeepsLastOne(t *testing.T) {
	e := echo.New()
	ownerID, f, handler := newSeededSettingsHandler(t)

	remove := func(id string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/settings/people/"+id, nil), rec)
		c.SetParamNames("id")
		c.SetParamValues(id)
		setupOwnerContext(c, ownerID)
		_ = handler.RemovePerson(c)
		return rec
	}

	assert.Equal(t, http.StatusNoContent, remove("2").Code)

	rec := remove("1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, f.people.People[ownerID], 1)
}

func TestAddCategory_InvalidKind(t *testing.T) {
	e := echo.New()
	ownerID, _, handler := newSeededSettingsHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/v1/settings/categories", `{"name":"Gym","kind":"savings"}`), rec)
	setupOwnerContext(c, ownerID)

	_ = handler.AddCategory(c)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	problem := decodeProblem(t, rec)
	require.Len(t, problem.Errors, 1)
	assert.Equal(t, "kind", problem.Errors[0].Field)
}

func TestCategoryLifecycle(t *testing.T) {
	e := echo.New()
	ownerID, f, handler := newSeededSettingsHandler(t)

	rec := httptest.NewRecorder()
	c := e.NewContext(newJSONRequest(http.MethodPost, "/api/v1/settings/categories", `{"name":"Freelance","kind":"income"}`), rec)
	setupOwnerContext(c, ownerID)
	require.NoError(t, handler.AddCategory(c))
	require.Equal(t, http.StatusCreated, rec.Code)

	var created struct {
		ID   string `json:"id"`
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "income", created.Kind)

	rec = httptest.NewRecorder()
	c = e.NewContext(newJSONRequest(http.MethodPatch, "/api/v1/settings/categories/"+created.ID, `{"name":"Side jobs"}`), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	setupOwnerContext(c, ownerID)
	require.NoError(t, handler.RenameCategory(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	c = e.NewContext(httptest.NewRequest(http.MethodDelete, "/api/v1/settings/categories/"+created.ID, nil), rec)
	c.SetParamNames("id")
	c.SetParamValues(created.ID)
	setupOwnerContext(c, ownerID)
	require.NoError(t, handler.RemoveCategory(c))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Len(t, f.categories.Categories[ownerID], 6)
}
