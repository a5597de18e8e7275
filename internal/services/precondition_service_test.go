package services

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/vowmarket/backend/internal/models"
)

func billingRow(accountID string) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"account_id", "contact_name", "company_name",
		"address_line1", "address_line2", "city", "state", "zip"}).
		AddRow(accountID, "Jane Doe", "Evergreen Florals", "1 Main St", "", "Austin", "TX", "78701")
}

func TestPreconditionService_CheckPurchase(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewPreconditionService(db, NewBillingService(db))
	accountID := "1000000001"
	leadID := "lead-1"

	t.Run("billing check runs first", func(t *testing.T) {
		// No profile row at all: blocked before ownership is even read.
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"account_id", "contact_name", "company_name",
				"address_line1", "address_line2", "city", "state", "zip"}))

		_, err := service.CheckPurchase(accountID, leadID)
		assert.ErrorIs(t, err, ErrNoBillingAddress)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("incomplete profile blocks", func(t *testing.T) {
		incomplete := sqlmock.NewRows([]string{"account_id", "contact_name", "company_name",
			"address_line1", "address_line2", "city", "state", "zip"}).
			AddRow(accountID, "Jane Doe", "", "", "", "Austin", "TX", "78701")

		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(incomplete)

		_, err := service.CheckPurchase(accountID, leadID)
		assert.ErrorIs(t, err, ErrNoBillingAddress)
	})

	t.Run("already owned blocks before affordability", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(leadID, accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow(leadID, models.LeadStatusAvailable, 6000, true, true))

		_, err := service.CheckPurchase(accountID, leadID)
		assert.ErrorIs(t, err, ErrAlreadyOwned)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("sold lead blocks as already owned", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(leadID, accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow(leadID, models.LeadStatusSold, 6000, true, false))

		_, err := service.CheckPurchase(accountID, leadID)
		assert.ErrorIs(t, err, ErrAlreadyOwned)
	})

	t.Run("missing lead", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs("lead-gone", accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}))

		_, err := service.CheckPurchase(accountID, "lead-gone")
		assert.ErrorIs(t, err, ErrLeadNotFound)
	})

	t.Run("insufficient balance blocks last", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(leadID, accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow(leadID, models.LeadStatusAvailable, 6000, true, false))

		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(5999))

		_, err := service.CheckPurchase(accountID, leadID)
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})

	t.Run("all checks pass", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(leadID, accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow(leadID, models.LeadStatusAvailable, 6000, true, false))

		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10000))

		lead, err := service.CheckPurchase(accountID, leadID)
		assert.NoError(t, err)
		assert.Equal(t, int64(6000), lead.Price)
	})
}

func TestPreconditionService_CheckBulk(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	service := NewPreconditionService(db, NewBillingService(db))
	accountID := "1000000001"

	t.Run("pre-filter keeps supplied order and flags ineligible leads", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(sqlmock.AnyArg(), accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow("lead-b", models.LeadStatusAvailable, 5000, true, false).
				AddRow("lead-a", models.LeadStatusAvailable, 6000, true, false).
				AddRow("lead-sold", models.LeadStatusSold, 4000, true, false).
				AddRow("lead-owned", models.LeadStatusAvailable, 3000, true, true))

		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10000))

		result, err := service.CheckBulk(accountID, []string{"lead-a", "lead-sold", "lead-b", "lead-owned", "lead-gone"})
		assert.NoError(t, err)
		assert.True(t, result.BillingOK)

		// Eligible leads come back in the order they were requested.
		assert.Len(t, result.Eligible, 2)
		assert.Equal(t, "lead-a", result.Eligible[0].ID)
		assert.Equal(t, "lead-b", result.Eligible[1].ID)
		assert.Equal(t, int64(11000), result.TotalPrice)
		assert.Equal(t, int64(10000), result.Balance)

		assert.Len(t, result.Ineligible, 3)
		for _, failure := range result.Ineligible {
			assert.Equal(t, BlockAlreadyOwned, failure.Reason)
		}
	})

	t.Run("missing billing profile marks the run blocked", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"account_id", "contact_name", "company_name",
				"address_line1", "address_line2", "city", "state", "zip"}))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(sqlmock.AnyArg(), accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow("lead-a", models.LeadStatusAvailable, 6000, true, false))

		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10000))

		result, err := service.CheckBulk(accountID, []string{"lead-a"})
		assert.NoError(t, err)
		assert.False(t, result.BillingOK)
		assert.Len(t, result.Eligible, 1)
	})

	t.Run("duplicate lead ids collapse", func(t *testing.T) {
		mock.ExpectQuery("SELECT account_id, contact_name, company_name").
			WithArgs(accountID).
			WillReturnRows(billingRow(accountID))

		mock.ExpectQuery("SELECT l.id, l.status, l.price, l.active").
			WithArgs(sqlmock.AnyArg(), accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "status", "price", "active", "owned"}).
				AddRow("lead-a", models.LeadStatusAvailable, 6000, true, false))

		mock.ExpectQuery("SELECT balance FROM accounts").
			WithArgs(accountID).
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(10000))

		result, err := service.CheckBulk(accountID, []string{"lead-a", "lead-a", "lead-a"})
		assert.NoError(t, err)
		assert.Len(t, result.Eligible, 1)
		assert.Equal(t, int64(6000), result.TotalPrice)
	})
}
