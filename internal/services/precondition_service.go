package services

import (
	"database/sql"

	"github.com/lib/pq"
	"github.com/vowmarket/backend/internal/models"
)

// PreconditionService runs the ordered gate-checks ahead of a purchase:
// billing address, then ownership/availability, then affordability. The
// first failing check wins; reasons are never coalesced because each one
// drives a different remediation on the client.
type PreconditionService struct {
	db      *sql.DB
	billing *BillingService
}

func NewPreconditionService(db *sql.DB, billing *BillingService) *PreconditionService {
	return &PreconditionService{db: db, billing: billing}
}

// CheckPurchase validates a single purchase. Returns the lead so the
// caller has the price, or one of the precondition sentinels.
func (s *PreconditionService) CheckPurchase(accountID, leadID string) (*models.Lead, error) {
	if err := s.CheckBilling(accountID); err != nil {
		return nil, err
	}

	lead, err := s.checkOwnership(accountID, leadID)
	if err != nil {
		return nil, err
	}

	balance, err := s.fetchBalance(accountID)
	if err != nil {
		return nil, err
	}
	if balance < lead.Price {
		return nil, ErrInsufficientFunds
	}

	return lead, nil
}

// CheckBilling fails with ErrNoBillingAddress unless the account has a
// complete billing profile on file.
func (s *PreconditionService) CheckBilling(accountID string) error {
	profile, err := s.billing.FetchProfile(accountID)
	if err != nil {
		return err
	}
	if !profile.Complete() {
		return ErrNoBillingAddress
	}
	return nil
}

func (s *PreconditionService) checkOwnership(accountID, leadID string) (*models.Lead, error) {
	var lead models.Lead
	var owned bool
	err := s.db.QueryRow(`
		SELECT l.id, l.status, l.price, l.active,
		       EXISTS(SELECT 1 FROM purchases p WHERE p.lead_id = l.id AND p.account_id = $2) AS owned
		FROM leads l
		WHERE l.id = $1`, leadID, accountID).Scan(
		&lead.ID, &lead.Status, &lead.Price, &lead.Active, &owned)

	if err == sql.ErrNoRows {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, err
	}

	if owned || lead.Status != models.LeadStatusAvailable || !lead.Active {
		return nil, ErrAlreadyOwned
	}
	return &lead, nil
}

func (s *PreconditionService) fetchBalance(accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRow(`SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ErrAccountNotFound
	}
	if err != nil {
		return 0, err
	}
	return balance, nil
}

// BulkFailure is one lead's outcome in a bulk result partition.
type BulkFailure struct {
	LeadID string      `json:"lead_id"`
	Reason BlockReason `json:"reason"`
}

// BulkEligibility is the precondition snapshot taken at bulk start.
// The billing verdict is fixed here and not re-checked per item.
type BulkEligibility struct {
	Eligible   []models.Lead
	Ineligible []BulkFailure
	BillingOK  bool
	TotalPrice int64
	Balance    int64
}

// CheckBulk pre-filters the requested leads, keeping supplied order, and
// evaluates aggregate affordability over the eligible set. Leads that
// are missing, inactive, sold, or already owned land in Ineligible with
// ALREADY_OWNED so the client can drop them from its view.
func (s *PreconditionService) CheckBulk(accountID string, leadIDs []string) (*BulkEligibility, error) {
	result := &BulkEligibility{
		Eligible:   []models.Lead{},
		Ineligible: []BulkFailure{},
	}

	result.BillingOK = true
	if err := s.CheckBilling(accountID); err == ErrNoBillingAddress {
		result.BillingOK = false
	} else if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(`
		SELECT l.id, l.status, l.price, l.active,
		       EXISTS(SELECT 1 FROM purchases p WHERE p.lead_id = l.id AND p.account_id = $2) AS owned
		FROM leads l
		WHERE l.id = ANY($1)`, pq.Array(leadIDs), accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type leadRow struct {
		lead  models.Lead
		owned bool
	}
	found := make(map[string]leadRow, len(leadIDs))
	for rows.Next() {
		var lr leadRow
		if err := rows.Scan(&lr.lead.ID, &lr.lead.Status, &lr.lead.Price, &lr.lead.Active, &lr.owned); err != nil {
			return nil, err
		}
		found[lr.lead.ID] = lr
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(leadIDs))
	for _, id := range leadIDs {
		if seen[id] {
			continue
		}
		seen[id] = true

		lr, ok := found[id]
		if !ok || lr.owned || lr.lead.Status != models.LeadStatusAvailable || !lr.lead.Active {
			result.Ineligible = append(result.Ineligible, BulkFailure{LeadID: id, Reason: BlockAlreadyOwned})
			continue
		}
		result.Eligible = append(result.Eligible, lr.lead)
		result.TotalPrice += lr.lead.Price
	}

	result.Balance, err = s.fetchBalance(accountID)
	if err != nil {
		return nil, err
	}

	return result, nil
}
