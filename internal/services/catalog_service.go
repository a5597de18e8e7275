package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/lib/pq"
	"github.com/vowmarket/backend/internal/models"
)

// CatalogService serves the purchasable-lead catalog. The server is
// authoritative: sold, inactive and already-owned leads are filtered
// here, never on the client. Filter preferences live in Redis as a
// convenience cache with no correctness role.
type CatalogService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *ValidationHelper
}

func NewCatalogService(db *sql.DB, redisClient *redis.Client) *CatalogService {
	return &CatalogService{
		db:        db,
		redis:     redisClient,
		validator: NewValidationHelper(),
	}
}

// Catalog sort keys
const (
	SortNewest   = "newest"
	SortDate     = "date"
	SortPrice    = "price"
	SortLocation = "location"
)

func orderClause(sort string) string {
	switch sort {
	case SortDate:
		return "l.wedding_date ASC NULLS LAST, l.id"
	case SortPrice:
		return "l.price ASC, l.id"
	case SortLocation:
		return "l.state ASC, l.city ASC, l.id"
	default: // newest
		return "l.created_at DESC, l.id"
	}
}

// ListCatalog returns the filtered, sorted, paginated catalog
// @Summary List available leads
// @Description Get available, active leads not yet owned by the vendor, with favorite flags
// @Tags catalog
// @Produce json
// @Param q query string false "Text search over city and description"
// @Param states query string false "Comma-separated state codes"
// @Param services query string false "Comma-separated service filters"
// @Param sort query string false "Sort key: newest, date, price, location (default: newest)"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Leads per page (default: 20, max: 100)"
// @Success 200 {object} object{leads=[]models.CatalogLead,total=int,page=int,limit=int}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /catalog [get]
func (s *CatalogService) ListCatalog(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	q := strings.TrimSpace(r.URL.Query().Get("q"))
	states := splitParam(r.URL.Query().Get("states"))
	servicesFilter := splitParam(r.URL.Query().Get("services"))
	sort := r.URL.Query().Get("sort")
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	leads, total, err := s.fetchCatalog(accountID, q, states, servicesFilter, sort, page, limit)
	if err != nil {
		log.Printf("[CATALOG] Failed to fetch catalog for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch catalog", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"leads": leads,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

func splitParam(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (s *CatalogService) fetchCatalog(accountID, q string, states, servicesFilter []string, sort string, page, limit int) ([]models.CatalogLead, int, error) {
	conditions := []string{
		"l.active",
		"l.status = 'AVAILABLE'",
		"NOT EXISTS (SELECT 1 FROM purchases p WHERE p.lead_id = l.id AND p.account_id = $1)",
	}
	args := []interface{}{accountID}
	argIndex := 2

	if q != "" {
		conditions = append(conditions,
			fmt.Sprintf("(l.city ILIKE $%d OR l.description ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+q+"%")
		argIndex++
	}

	if len(states) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.state = ANY($%d)", argIndex))
		args = append(args, pq.Array(states))
		argIndex++
	}

	if len(servicesFilter) > 0 {
		conditions = append(conditions, fmt.Sprintf("l.services_needed && $%d", argIndex))
		args = append(args, pq.Array(servicesFilter))
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT l.id, l.status, l.price, l.wedding_date, l.city, l.state, l.services_needed,
		       l.description, l.active, l.created_at,
		       EXISTS(SELECT 1 FROM favorites f WHERE f.lead_id = l.id AND f.account_id = $1) AS is_favorited,
		       COUNT(*) OVER() AS total
		FROM leads l
		WHERE %s
		ORDER BY %s
		LIMIT $%d OFFSET $%d`,
		strings.Join(conditions, " AND "), orderClause(sort), argIndex, argIndex+1)
	args = append(args, limit, (page-1)*limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	leads := []models.CatalogLead{}
	total := 0
	for rows.Next() {
		var lead models.CatalogLead
		var services pq.StringArray
		if err := rows.Scan(&lead.ID, &lead.Status, &lead.Price, &lead.WeddingDate,
			&lead.City, &lead.State, &services, &lead.Description, &lead.Active,
			&lead.CreatedAt, &lead.IsFavorited, &total); err != nil {
			return nil, 0, err
		}
		lead.ServicesNeeded = services
		leads = append(leads, lead)
	}

	return leads, total, rows.Err()
}

// GetLead returns one lead with ownership and favorite flags
// @Summary Get lead detail
// @Description Get a single lead's attributes plus the vendor's relationship to it
// @Tags catalog
// @Produce json
// @Param leadId path string true "Lead ID"
// @Success 200 {object} object{lead=models.CatalogLead,owned=bool}
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{leadId} [get]
func (s *CatalogService) GetLead(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	leadID := chi.URLParam(r, "leadId")

	var lead models.CatalogLead
	var services pq.StringArray
	var owned bool
	err := s.db.QueryRow(`
		SELECT l.id, l.status, l.price, l.wedding_date, l.city, l.state, l.services_needed,
		       l.description, l.active, l.created_at,
		       EXISTS(SELECT 1 FROM favorites f WHERE f.lead_id = l.id AND f.account_id = $2) AS is_favorited,
		       EXISTS(SELECT 1 FROM purchases p WHERE p.lead_id = l.id AND p.account_id = $2) AS owned
		FROM leads l
		WHERE l.id = $1 AND l.active`, leadID, accountID).Scan(
		&lead.ID, &lead.Status, &lead.Price, &lead.WeddingDate, &lead.City, &lead.State,
		&services, &lead.Description, &lead.Active, &lead.CreatedAt, &lead.IsFavorited, &owned)

	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Lead not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CATALOG] Failed to fetch lead %s: %v", leadID, err)
		SendErrorResponse(w, "Failed to fetch lead", http.StatusInternalServerError, nil)
		return
	}
	lead.ServicesNeeded = services

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"lead":  lead,
		"owned": owned,
	})
}

// AddFavorite stars a lead
// @Summary Favorite a lead
// @Description Add a lead to the vendor's favorites; adding twice is a no-op
// @Tags catalog
// @Produce json
// @Param leadId path string true "Lead ID"
// @Success 200 {object} object{favorited=bool}
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{leadId}/favorite [post]
func (s *CatalogService) AddFavorite(w http.ResponseWriter, r *http.Request) {
	s.toggleFavorite(w, r, true)
}

// RemoveFavorite unstars a lead
// @Summary Unfavorite a lead
// @Description Remove a lead from favorites; removing an absent favorite is a no-op
// @Tags catalog
// @Produce json
// @Param leadId path string true "Lead ID"
// @Success 200 {object} object{favorited=bool}
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /leads/{leadId}/favorite [delete]
func (s *CatalogService) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	s.toggleFavorite(w, r, false)
}

// toggleFavorite is idempotent in both directions: the "already in the
// desired state" case succeeds, only not-found fails.
func (s *CatalogService) toggleFavorite(w http.ResponseWriter, r *http.Request, add bool) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	leadID := chi.URLParam(r, "leadId")

	var exists bool
	err := s.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM leads WHERE id = $1 AND active)`, leadID).Scan(&exists)
	if err != nil {
		log.Printf("[CATALOG] Favorite lookup failed for lead %s: %v", leadID, err)
		SendErrorResponse(w, "Failed to update favorite", http.StatusInternalServerError, nil)
		return
	}
	if !exists {
		SendErrorResponse(w, "Lead not found", http.StatusNotFound, nil)
		return
	}

	if add {
		_, err = s.db.Exec(`
			INSERT INTO favorites (account_id, lead_id, created_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (account_id, lead_id) DO NOTHING`, accountID, leadID)
	} else {
		_, err = s.db.Exec(`
			DELETE FROM favorites WHERE account_id = $1 AND lead_id = $2`, accountID, leadID)
	}
	if err != nil {
		log.Printf("[CATALOG] Favorite toggle failed for %s on lead %s: %v", accountID, leadID, err)
		SendErrorResponse(w, "Failed to update favorite", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{"favorited": add})
}

// FilterPreferences is the saved view state: filters, sort and paging.
// Purchase and favorite mutations never touch it.
type FilterPreferences struct {
	Query    string   `json:"query" validate:"max=200"`
	States   []string `json:"states" validate:"max=60,dive,max=40"`
	Services []string `json:"services" validate:"max=40,dive,max=80"`
	Sort     string   `json:"sort" validate:"omitempty,oneof=newest date price location"`
	Page     int      `json:"page" validate:"min=0"`
	Limit    int      `json:"limit" validate:"min=0,max=100"`
}

func prefsKey(accountID string) string {
	return fmt.Sprintf("prefs:%s", accountID)
}

// GetPreferences returns the saved catalog view preferences
// @Summary Get filter preferences
// @Description Get the vendor's saved catalog filters; defaults when none are stored
// @Tags catalog
// @Produce json
// @Success 200 {object} FilterPreferences
// @Failure 401 {object} ErrorResponse
// @Router /catalog/preferences [get]
func (s *CatalogService) GetPreferences(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	prefs := FilterPreferences{Sort: SortNewest, Page: 1, Limit: 20}
	if s.redis != nil {
		if raw, err := s.redis.Get(r.Context(), prefsKey(accountID)).Result(); err == nil {
			if err := json.Unmarshal([]byte(raw), &prefs); err != nil {
				log.Printf("[CATALOG] Corrupt preferences for %s, serving defaults: %v", accountID, err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(prefs)
}

// SavePreferences stores the catalog view preferences
// @Summary Save filter preferences
// @Description Persist the vendor's catalog filters as a non-authoritative cache
// @Tags catalog
// @Accept json
// @Produce json
// @Param request body FilterPreferences true "Filter preferences"
// @Success 200 {object} map[string]string
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /catalog/preferences [put]
func (s *CatalogService) SavePreferences(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var prefs FilterPreferences
	if err := dec.Decode(&prefs); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&prefs); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	if s.redis != nil {
		raw, _ := json.Marshal(prefs)
		if err := s.redis.Set(r.Context(), prefsKey(accountID), raw, 0).Err(); err != nil {
			log.Printf("[CATALOG] Failed to save preferences for %s: %v", accountID, err)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Preferences saved"})
}

// AccountSummary returns balance and catalog relationship counts
// @Summary Get account summary
// @Description Balance and counts for refreshing UI-facing state after purchases or favorites
// @Tags catalog
// @Produce json
// @Success 200 {object} object{balance=int64,purchases=int,favorites=int}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /account/summary [get]
func (s *CatalogService) AccountSummary(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	var balance int64
	var purchases, favorites int
	err := s.db.QueryRow(`
		SELECT a.balance,
		       (SELECT COUNT(*) FROM purchases p WHERE p.account_id = a.account_id),
		       (SELECT COUNT(*) FROM favorites f WHERE f.account_id = a.account_id)
		FROM accounts a
		WHERE a.account_id = $1`, accountID).Scan(&balance, &purchases, &favorites)

	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Account not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[CATALOG] Failed to fetch summary for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch account summary", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"balance":   balance,
		"purchases": purchases,
		"favorites": favorites,
	})
}
