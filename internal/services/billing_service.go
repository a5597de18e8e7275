package services

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"

	"github.com/vowmarket/backend/internal/models"
)

// BillingService reads billing profiles. Profiles are written by the
// onboarding flow; this side only checks completeness to gate purchases.
type BillingService struct {
	db *sql.DB
}

func NewBillingService(db *sql.DB) *BillingService {
	return &BillingService{db: db}
}

// FetchProfile loads the billing profile for an account. A missing row
// is returned as (nil, nil): no profile simply means incomplete.
func (s *BillingService) FetchProfile(accountID string) (*models.BillingProfile, error) {
	var profile models.BillingProfile
	err := s.db.QueryRow(`
		SELECT account_id, contact_name, company_name, address_line1, address_line2, city, state, zip
		FROM billing_profiles
		WHERE account_id = $1`, accountID).Scan(
		&profile.AccountID, &profile.ContactName, &profile.CompanyName,
		&profile.AddressLine1, &profile.AddressLine2, &profile.City, &profile.State, &profile.Zip,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetProfile returns the vendor's billing profile
// @Summary Get billing profile
// @Description Get the authenticated vendor's billing profile and completeness
// @Tags billing
// @Produce json
// @Success 200 {object} object{profile=models.BillingProfile,complete=bool}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /billing/profile [get]
func (s *BillingService) GetProfile(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	profile, err := s.FetchProfile(accountID)
	if err != nil {
		log.Printf("[BILLING] Failed to fetch profile for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch billing profile", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"profile":  profile,
		"complete": profile.Complete(),
	})
}
