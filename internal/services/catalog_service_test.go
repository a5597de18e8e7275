package services

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/vowmarket/backend/internal/models"
)

func catalogColumns() []string {
	return []string{"id", "status", "price", "wedding_date", "city", "state",
		"services_needed", "description", "active", "created_at", "is_favorited", "total"}
}

func catalogRouter(service *CatalogService) *chi.Mux {
	router := chi.NewRouter()
	router.Get("/catalog", service.ListCatalog)
	router.Get("/catalog/preferences", service.GetPreferences)
	router.Put("/catalog/preferences", service.SavePreferences)
	router.Get("/leads/{leadId}", service.GetLead)
	router.Post("/leads/{leadId}/favorite", service.AddFavorite)
	router.Delete("/leads/{leadId}/favorite", service.RemoveFavorite)
	router.Get("/account/summary", service.AccountSummary)
	return router
}

func TestCatalogService_ListCatalog(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, _ := redismock.NewClientMock()
	service := NewCatalogService(db, redisClient)
	router := catalogRouter(service)
	accountID := "1000000001"

	t.Run("default listing", func(t *testing.T) {
		wedding := time.Date(2027, 6, 12, 0, 0, 0, 0, time.UTC)
		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.wedding_date").
			WithArgs(accountID, 20, 0).
			WillReturnRows(sqlmock.NewRows(catalogColumns()).
				AddRow("lead-1", models.LeadStatusAvailable, 6000, wedding, "Austin", "TX",
					"{Photography,Florist}", "Garden wedding, 120 guests", true, time.Now(), true, 2).
				AddRow("lead-2", models.LeadStatusAvailable, 5000, nil, "Dallas", "TX",
					"{Catering}", "Courthouse ceremony", true, time.Now(), false, 2))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/catalog", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Leads []models.CatalogLead `json:"leads"`
			Total int                  `json:"total"`
			Page  int                  `json:"page"`
			Limit int                  `json:"limit"`
		}
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, 2, resp.Total)
		assert.Equal(t, 1, resp.Page)
		assert.Len(t, resp.Leads, 2)
		assert.True(t, resp.Leads[0].IsFavorited)
		assert.Equal(t, []string{"Photography", "Florist"}, resp.Leads[0].ServicesNeeded)
		assert.Nil(t, resp.Leads[1].WeddingDate)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("text, state and service filters add placeholders in order", func(t *testing.T) {
		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.wedding_date").
			WithArgs(accountID, "%garden%", sqlmock.AnyArg(), sqlmock.AnyArg(), 10, 10).
			WillReturnRows(sqlmock.NewRows(catalogColumns()))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET",
			"/catalog?q=garden&states=TX,CA&services=Photography&page=2&limit=10", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Leads []models.CatalogLead `json:"leads"`
			Total int                  `json:"total"`
		}
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Empty(t, resp.Leads)
		assert.Equal(t, 0, resp.Total)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unauthenticated", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/catalog", nil))

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestCatalogService_GetLead(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, _ := redismock.NewClientMock()
	service := NewCatalogService(db, redisClient)
	router := catalogRouter(service)
	accountID := "1000000001"

	t.Run("found", func(t *testing.T) {
		columns := []string{"id", "status", "price", "wedding_date", "city", "state",
			"services_needed", "description", "active", "created_at", "is_favorited", "owned"}
		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.wedding_date").
			WithArgs("lead-1", accountID).
			WillReturnRows(sqlmock.NewRows(columns).
				AddRow("lead-1", models.LeadStatusSold, 6000, nil, "Austin", "TX",
					"{Photography}", "Garden wedding", true, time.Now(), false, true))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/leads/lead-1", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Lead  models.CatalogLead `json:"lead"`
			Owned bool               `json:"owned"`
		}
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "lead-1", resp.Lead.ID)
		assert.True(t, resp.Owned)
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.wedding_date").
			WithArgs("lead-gone", accountID).
			WillReturnRows(sqlmock.NewRows(catalogColumns()))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/leads/lead-gone", "", accountID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCatalogService_Favorites(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, _ := redismock.NewClientMock()
	service := NewCatalogService(db, redisClient)
	router := catalogRouter(service)
	accountID := "1000000001"

	t.Run("add favorite", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("lead-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec("INSERT INTO favorites").
			WithArgs(accountID, "lead-1").
			WillReturnResult(sqlmock.NewResult(1, 1))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("POST", "/leads/lead-1/favorite", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("re-adding is a no-op success", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("lead-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		// ON CONFLICT DO NOTHING: zero rows affected, still a success.
		mock.ExpectExec("INSERT INTO favorites").
			WithArgs(accountID, "lead-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("POST", "/leads/lead-1/favorite", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]bool
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.True(t, resp["favorited"])
	})

	t.Run("removing an absent favorite succeeds", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("lead-1").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
		mock.ExpectExec("DELETE FROM favorites").
			WithArgs(accountID, "lead-1").
			WillReturnResult(sqlmock.NewResult(0, 0))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("DELETE", "/leads/lead-1/favorite", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp map[string]bool
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.False(t, resp["favorited"])
	})

	t.Run("favoriting a missing lead fails", func(t *testing.T) {
		mock.ExpectQuery("SELECT EXISTS").
			WithArgs("lead-gone").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("POST", "/leads/lead-gone/favorite", "", accountID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestCatalogService_Preferences(t *testing.T) {
	db, _, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewCatalogService(db, redisClient)
	router := catalogRouter(service)
	accountID := "1000000001"

	t.Run("defaults when nothing is stored", func(t *testing.T) {
		redisMock.ExpectGet("prefs:" + accountID).RedisNil()

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/catalog/preferences", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var prefs FilterPreferences
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&prefs))
		assert.Equal(t, SortNewest, prefs.Sort)
		assert.Equal(t, 1, prefs.Page)
		assert.Equal(t, 20, prefs.Limit)
	})

	t.Run("stored preferences round-trip", func(t *testing.T) {
		stored := FilterPreferences{
			Query:    "garden",
			States:   []string{"TX"},
			Services: []string{"Photography"},
			Sort:     SortPrice,
			Page:     2,
			Limit:    10,
		}
		raw, _ := json.Marshal(stored)

		redisMock.ExpectSet("prefs:"+accountID, raw, 0).SetVal("OK")
		redisMock.ExpectGet("prefs:" + accountID).SetVal(string(raw))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("PUT", "/catalog/preferences", string(raw), accountID))
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/catalog/preferences", "", accountID))
		assert.Equal(t, http.StatusOK, rec.Code)

		var prefs FilterPreferences
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&prefs))
		assert.Equal(t, stored, prefs)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("invalid sort key is rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("PUT", "/catalog/preferences",
			`{"sort":"alphabetical"}`, accountID))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestCatalogService_AccountSummary(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, _ := redismock.NewClientMock()
	service := NewCatalogService(db, redisClient)
	router := catalogRouter(service)
	accountID := "1000000001"

	mock.ExpectQuery("SELECT a.balance").
		WithArgs(accountID).
		WillReturnRows(sqlmock.NewRows([]string{"balance", "purchases", "favorites"}).
			AddRow(4000, 3, 5))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, authedRequest("GET", "/account/summary", "", accountID))

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Balance   int64 `json:"balance"`
		Purchases int   `json:"purchases"`
		Favorites int   `json:"favorites"`
	}
	assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, int64(4000), resp.Balance)
	assert.Equal(t, 3, resp.Purchases)
	assert.Equal(t, 5, resp.Favorites)
}
