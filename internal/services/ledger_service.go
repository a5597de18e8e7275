package services

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/vowmarket/backend/internal/models"
)

// LedgerService owns every balance mutation. Each successful credit or
// debit appends exactly one transaction row and updates the account
// balance in the same SQL transaction; a reader can never observe one
// effect without the other. Per-account serialization comes from the
// FOR UPDATE row lock on the account record.
type LedgerService struct {
	db        *sql.DB
	validator *ValidationHelper
}

func NewLedgerService(db *sql.DB) *LedgerService {
	return &LedgerService{
		db:        db,
		validator: NewValidationHelper(),
	}
}

// Credit appends a positive transaction in its own transaction boundary.
func (s *LedgerService) Credit(accountID string, amount int64, txType, description string) (*models.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	record, err := s.CreditTx(tx, accountID, amount, txType, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return record, nil
}

// Debit appends a negative transaction in its own transaction boundary.
// Returns ErrInsufficientFunds without writing anything when the amount
// exceeds the balance.
func (s *LedgerService) Debit(accountID string, amount int64, txType, description string) (*models.Transaction, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	record, err := s.DebitTx(tx, accountID, amount, txType, description)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return record, nil
}

// CreditTx credits inside the caller's transaction, so a purchase refund
// or reward can share a commit with its surrounding writes.
func (s *LedgerService) CreditTx(tx *sql.Tx, accountID string, amount int64, txType, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("credit amount must be positive, got %d", amount)
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	return s.apply(tx, account, amount, txType, description)
}

// DebitTx debits inside the caller's transaction. The account row stays
// locked until the caller commits, which is what serializes concurrent
// purchases against the same account.
func (s *LedgerService) DebitTx(tx *sql.Tx, accountID string, amount int64, txType, description string) (*models.Transaction, error) {
	if amount <= 0 {
		return nil, fmt.Errorf("debit amount must be positive, got %d", amount)
	}

	account, err := s.lockAccount(tx, accountID)
	if err != nil {
		return nil, err
	}

	if account.Balance < amount {
		return nil, ErrInsufficientFunds
	}

	return s.apply(tx, account, -amount, txType, description)
}

func (s *LedgerService) lockAccount(tx *sql.Tx, accountID string) (*models.Account, error) {
	var account models.Account
	err := tx.QueryRow(`
		SELECT account_id, balance, version, updated_at
		FROM accounts
		WHERE account_id = $1
		FOR UPDATE`, accountID).Scan(&account.AccountID, &account.Balance, &account.Version, &account.UpdatedAt)

	if err == sql.ErrNoRows {
		return nil, ErrAccountNotFound
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// apply appends the transaction record and moves the balance. amount is
// already signed.
func (s *LedgerService) apply(tx *sql.Tx, account *models.Account, amount int64, txType, description string) (*models.Transaction, error) {
	record := &models.Transaction{
		ID:           uuid.NewString(),
		AccountID:    account.AccountID,
		Type:         txType,
		Amount:       amount,
		BalanceAfter: account.Balance + amount,
		Description:  description,
		CreatedAt:    time.Now(),
	}

	_, err := tx.Exec(`
		INSERT INTO transactions (id, account_id, type, amount, balance_after, description, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		record.ID, record.AccountID, record.Type, record.Amount, record.BalanceAfter, record.Description, record.CreatedAt)
	if err != nil {
		return nil, err
	}

	result, err := tx.Exec(`
		UPDATE accounts
		SET balance = $1, version = version + 1, updated_at = $2
		WHERE account_id = $3 AND version = $4`,
		record.BalanceAfter, time.Now(), account.AccountID, account.Version)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if rowsAffected == 0 {
		// The row is locked FOR UPDATE, so a version miss means the
		// balance moved outside the ledger.
		return nil, fmt.Errorf("%w: version conflict on account %s", ErrLedgerInvariant, account.AccountID)
	}

	return record, nil
}

// History returns the transaction log for an account, newest first,
// along with the total record count for pagination.
func (s *LedgerService) History(accountID string, page, limit int) ([]models.Transaction, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 25
	}
	offset := (page - 1) * limit

	rows, err := s.db.Query(`
		SELECT id, account_id, type, amount, balance_after, description, created_at,
		       COUNT(*) OVER() AS total
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	transactions := []models.Transaction{}
	total := 0
	for rows.Next() {
		var record models.Transaction
		if err := rows.Scan(&record.ID, &record.AccountID, &record.Type, &record.Amount,
			&record.BalanceAfter, &record.Description, &record.CreatedAt, &total); err != nil {
			return nil, 0, err
		}
		transactions = append(transactions, record)
	}

	return transactions, total, rows.Err()
}

// VerifyAudit replays the account's transaction log from zero and checks
// that every balance_after matches the running sum and that the final
// sum equals the stored balance. A mismatch is fatal and is never
// corrected here.
func (s *LedgerService) VerifyAudit(accountID string) error {
	rows, err := s.db.Query(`
		SELECT id, amount, balance_after
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at ASC, id ASC`, accountID)
	if err != nil {
		return err
	}
	defer rows.Close()

	var running int64
	for rows.Next() {
		var id string
		var amount, balanceAfter int64
		if err := rows.Scan(&id, &amount, &balanceAfter); err != nil {
			return err
		}
		running += amount
		if balanceAfter != running {
			return fmt.Errorf("%w: transaction %s recorded balance %d, replay gives %d",
				ErrLedgerInvariant, id, balanceAfter, running)
		}
	}
	if err := rows.Err(); err != nil {
		return err
	}

	var balance int64
	err = s.db.QueryRow(`SELECT balance FROM accounts WHERE account_id = $1`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return ErrAccountNotFound
	}
	if err != nil {
		return err
	}

	if balance != running {
		return fmt.Errorf("%w: account %s balance %d, replay gives %d",
			ErrLedgerInvariant, accountID, balance, running)
	}
	return nil
}

// GetLedger returns the transaction history with running balances
// @Summary Get transaction history
// @Description Get the account's ledger, newest first, with running balances
// @Tags ledger
// @Produce json
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Records per page (default: 25, max: 100)"
// @Success 200 {object} object{transactions=[]models.Transaction,total=int,page=int,limit=int}
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /ledger [get]
func (s *LedgerService) GetLedger(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 25
	}

	transactions, total, err := s.History(accountID, page, limit)
	if err != nil {
		log.Printf("[LEDGER] Failed to fetch history for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to fetch ledger", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"transactions": transactions,
		"total":        total,
		"page":         page,
		"limit":        limit,
	})
}

// DepositRequest represents a balance top-up
// @Description Deposit request structure
type DepositRequest struct {
	Amount      int64  `json:"amount" validate:"required,gt=0" example:"10000"` // Amount in cents
	Description string `json:"description" validate:"max=200" example:"Balance top-up"`
}

// Deposit credits the account balance
// @Summary Deposit funds
// @Description Credit the account balance; processor handoff happens upstream
// @Tags ledger
// @Accept json
// @Produce json
// @Param request body DepositRequest true "Deposit request"
// @Success 201 {object} object{success=bool,transaction=models.Transaction}
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /ledger/deposit [post]
func (s *LedgerService) Deposit(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req DepositRequest
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

	description := req.Description
	if description == "" {
		description = "Balance deposit"
	}

	record, err := s.Credit(accountID, req.Amount, models.TxTypeDeposit, description)
	if err != nil {
		log.Printf("[LEDGER] Deposit failed for %s: %v", accountID, err)
		SendErrorResponse(w, "Failed to process deposit", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[LEDGER] Deposit of %d to account %s, balance now %d", req.Amount, accountID, record.BalanceAfter)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]any{
		"success":     true,
		"transaction": record,
	})
}
