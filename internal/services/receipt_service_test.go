package services

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
)

func TestReceiptService_GetReceipt(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	redisClient, redisMock := redismock.NewClientMock()
	service := NewReceiptService(db, redisClient)

	router := chi.NewRouter()
	router.Get("/purchases/{purchaseId}/receipt", service.GetReceipt)

	accountID := "1000000001"
	purchasedAt := time.Date(2026, 3, 14, 10, 30, 0, 0, time.UTC)

	t.Run("receipt with QR image", func(t *testing.T) {
		mock.ExpectQuery("SELECT p.id, p.lead_id, p.account_id, p.price").
			WithArgs("purchase-1", accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "account_id", "price",
				"city", "state", "purchased_at"}).
				AddRow("purchase-1", "lead-1", accountID, 6000, "Austin", "TX", purchasedAt))

		token := base64.URLEncoding.EncodeToString([]byte("purchase-1"))
		expected, _ := json.Marshal(Receipt{
			PurchaseID:  "purchase-1",
			LeadID:      "lead-1",
			AccountID:   accountID,
			Price:       6000,
			City:        "Austin",
			State:       "TX",
			PurchasedAt: purchasedAt,
		})
		redisMock.ExpectSet("receipt:"+token, expected, 24*time.Hour).SetVal("OK")

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/purchases/purchase-1/receipt", "", accountID))

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp struct {
			Receipt Receipt `json:"receipt"`
			QRImage string  `json:"qr_image"`
		}
		assert.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "purchase-1", resp.Receipt.PurchaseID)
		assert.Equal(t, int64(6000), resp.Receipt.Price)

		// The QR comes back as base64-encoded PNG.
		image, err := base64.StdEncoding.DecodeString(resp.QRImage)
		assert.NoError(t, err)
		assert.Equal(t, []byte("\x89PNG"), image[:4])
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("another vendor's purchase is invisible", func(t *testing.T) {
		mock.ExpectQuery("SELECT p.id, p.lead_id, p.account_id, p.price").
			WithArgs("purchase-2", accountID).
			WillReturnRows(sqlmock.NewRows([]string{"id", "lead_id", "account_id", "price",
				"city", "state", "purchased_at"}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, authedRequest("GET", "/purchases/purchase-2/receipt", "", accountID))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
