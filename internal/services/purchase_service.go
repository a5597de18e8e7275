package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/vowmarket/backend/internal/models"
)

// PurchaseService executes lead purchases. A single purchase is one SQL
// transaction: re-validate, debit the ledger, flip the lead to SOLD,
// insert the ownership record; all four effects commit or none do. Bulk
// purchase drives that executor sequentially, one independent commit per
// lead, and reports a complete partition of outcomes.
type PurchaseService struct {
	db        *sql.DB
	ledger    *LedgerService
	chain     *PreconditionService
	validator *ValidationHelper
}

func NewPurchaseService(db *sql.DB, ledger *LedgerService, chain *PreconditionService) *PurchaseService {
	return &PurchaseService{
		db:        db,
		ledger:    ledger,
		chain:     chain,
		validator: NewValidationHelper(),
	}
}

// purchaseOne commits a single lead purchase atomically. Ownership,
// availability and affordability are re-checked here under row locks:
// the earlier chain verdict may be stale by commit time, and a failure
// now is an ordinary precondition outcome, not corruption. The lead row
// is locked before the account row, consistently, so concurrent
// purchases cannot deadlock.
func (s *PurchaseService) purchaseOne(accountID, leadID string) (*models.Purchase, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	var lead models.Lead
	err = tx.QueryRow(`
		SELECT id, status, price, active
		FROM leads
		WHERE id = $1
		FOR UPDATE`, leadID).Scan(&lead.ID, &lead.Status, &lead.Price, &lead.Active)
	if err == sql.ErrNoRows {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	if lead.Status != models.LeadStatusAvailable || !lead.Active {
		return nil, ErrAlreadyOwned
	}

	var owned bool
	err = tx.QueryRow(`
		SELECT EXISTS(SELECT 1 FROM purchases WHERE lead_id = $1 AND account_id = $2)`,
		leadID, accountID).Scan(&owned)
	if err != nil {
		return nil, err
	}
	if owned {
		return nil, ErrAlreadyOwned
	}

	// Locks the account row and fails with ErrInsufficientFunds before
	// writing anything if the balance moved since the chain check.
	record, err := s.ledger.DebitTx(tx, accountID, lead.Price,
		models.TxTypePurchase, fmt.Sprintf("Lead purchase %s", leadID))
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(`
		UPDATE leads SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`,
		models.LeadStatusSold, time.Now(), leadID, models.LeadStatusAvailable)
	if err != nil {
		return nil, err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		return nil, ErrAlreadyOwned
	}

	purchase := &models.Purchase{
		ID:          uuid.NewString(),
		LeadID:      leadID,
		AccountID:   accountID,
		Price:       lead.Price,
		PurchasedAt: time.Now(),
	}
	_, err = tx.Exec(`
		INSERT INTO purchases (id, lead_id, account_id, price, purchased_at)
		VALUES ($1, $2, $3, $4, $5)`,
		purchase.ID, purchase.LeadID, purchase.AccountID, purchase.Price, purchase.PurchasedAt)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	log.Printf("[PURCHASE] Account %s bought lead %s for %d, balance now %d",
		accountID, leadID, lead.Price, record.BalanceAfter)
	return purchase, nil
}

// PurchaseLead buys a single lead
// @Summary Purchase a lead
// @Description Buy one lead; debits the balance and records ownership atomically
// @Tags purchases
// @Produce json
// @Param leadId path string true "Lead ID"
// @Success 201 {object} object{success=bool,purchase=models.Purchase}
// @Failure 404 {object} ErrorResponse
// @Failure 422 {object} ErrorResponse "Blocked with reason NO_BILLING_ADDRESS, ALREADY_OWNED or INSUFFICIENT_BALANCE"
// @Failure 500 {object} ErrorResponse
// @Router /purchase/{leadId} [post]
func (s *PurchaseService) PurchaseLead(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	leadID := chi.URLParam(r, "leadId")

	if _, err := s.chain.CheckPurchase(accountID, leadID); err != nil {
		s.respondPurchaseError(w, accountID, leadID, err)
		return
	}

	purchase, err := s.purchaseOne(accountID, leadID)
	if err != nil {
		s.respondPurchaseError(w, accountID, leadID, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":  true,
		"purchase": purchase,
	})
}

func (s *PurchaseService) respondPurchaseError(w http.ResponseWriter, accountID, leadID string, err error) {
	if reason, ok := blockReasonFor(err); ok {
		SendBlockedResponse(w, reason)
		return
	}
	if err == ErrLeadNotFound {
		SendErrorResponse(w, "Lead not found", http.StatusNotFound, nil)
		return
	}
	log.Printf("[PURCHASE] Purchase of %s by %s failed: %v", leadID, accountID, err)
	SendErrorResponse(w, "Failed to process purchase", http.StatusInternalServerError, nil)
}

// BulkPurchaseRequest represents a multi-lead purchase
// @Description Bulk purchase request structure
type BulkPurchaseRequest struct {
	LeadIDs []string `json:"leadIds" validate:"required,min=1,max=100,dive,required"`
}

// BulkPurchase buys several leads with per-lead outcomes
// @Summary Purchase multiple leads
// @Description Attempt each eligible lead in order; partial failure is the documented result shape, not an error
// @Tags purchases
// @Accept json
// @Produce json
// @Param request body BulkPurchaseRequest true "Lead IDs in purchase order"
// @Success 200 {object} object{succeeded=[]models.Purchase,failed=[]BulkFailure,summary=object}
// @Failure 400 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /purchase/bulk [post]
func (s *PurchaseService) BulkPurchase(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req BulkPurchaseRequest
	if err := dec.Decode(&req); err != nil {
		SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.ValidateStruct(&req); err != nil {
		SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	eligibility, err := s.chain.CheckBulk(accountID, req.LeadIDs)
	if err != nil {
		log.Printf("[PURCHASE] Bulk precondition check failed for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to process bulk purchase", http.StatusInternalServerError, nil)
		return
	}

	succeeded := []models.Purchase{}
	failed := append([]BulkFailure{}, eligibility.Ineligible...)

	switch {
	case !eligibility.BillingOK:
		// Billing verdict is snapshotted at bulk start: every eligible
		// lead fails with the billing reason and nothing is attempted.
		for _, lead := range eligibility.Eligible {
			failed = append(failed, BulkFailure{LeadID: lead.ID, Reason: BlockNoBillingAddress})
		}

	default:
		if eligibility.TotalPrice > eligibility.Balance {
			log.Printf("[PURCHASE] Bulk run for %s: aggregate cost %d exceeds balance %d, expecting partial failure",
				accountID, eligibility.TotalPrice, eligibility.Balance)
		}

		for _, lead := range eligibility.Eligible {
			purchase, err := s.purchaseOne(accountID, lead.ID)
			if err == nil {
				succeeded = append(succeeded, *purchase)
				continue
			}
			if reason, ok := blockReasonFor(err); ok {
				failed = append(failed, BulkFailure{LeadID: lead.ID, Reason: reason})
				continue
			}
			// Non-precondition failures (ledger invariants, storage
			// errors) abort loudly rather than being folded into the
			// partition. Committed purchases stay committed.
			log.Printf("[PURCHASE] Bulk run for %s aborted on lead %s: %v", accountID, lead.ID, err)
			SendErrorResponse(w, "Failed to process bulk purchase", http.StatusInternalServerError, nil)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"succeeded": succeeded,
		"failed":    failed,
		"summary": map[string]int{
			"requested": len(req.LeadIDs),
			"eligible":  len(eligibility.Eligible),
			"succeeded": len(succeeded),
			"failed":    len(failed),
		},
	})
}

// ListPurchases returns the vendor's owned leads
// @Summary List purchases
// @Description Get the authenticated vendor's purchase history, newest first
// @Tags purchases
// @Produce json
// @Success 200 {object} object{purchases=[]models.Purchase,count=int}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /purchases [get]
func (s *PurchaseService) ListPurchases(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	rows, err := s.db.Query(`
		SELECT id, lead_id, account_id, price, purchased_at
		FROM purchases
		WHERE account_id = $1
		ORDER BY purchased_at DESC`, accountID)
	if err != nil {
		log.Printf("[PURCHASE] Failed to list purchases for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch purchases", http.StatusInternalServerError, nil)
		return
	}
	defer rows.Close()

	purchases := []models.Purchase{}
	for rows.Next() {
		var p models.Purchase
		if err := rows.Scan(&p.ID, &p.LeadID, &p.AccountID, &p.Price, &p.PurchasedAt); err != nil {
			SendErrorResponse(w, "Failed to fetch purchases", http.StatusInternalServerError, nil)
			return
		}
		purchases = append(purchases, p)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"purchases": purchases,
		"count":     len(purchases),
	})
}
