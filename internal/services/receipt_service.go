package services

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	qrcode "github.com/skip2/go-qrcode"
)

// ReceiptService renders purchase receipts. The QR encodes a signedless
// receipt token the mobile app can scan to pull the cached payload.
type ReceiptService struct {
	db    *sql.DB
	redis *redis.Client
}

func NewReceiptService(db *sql.DB, redisClient *redis.Client) *ReceiptService {
	return &ReceiptService{db: db, redis: redisClient}
}

// Receipt is the scannable purchase summary.
type Receipt struct {
	PurchaseID  string    `json:"purchase_id"`
	LeadID      string    `json:"lead_id"`
	AccountID   string    `json:"account_id"`
	Price       int64     `json:"price"`
	City        string    `json:"city"`
	State       string    `json:"state"`
	PurchasedAt time.Time `json:"purchased_at"`
}

func (s *ReceiptService) buildReceipt(ctx context.Context, accountID, purchaseID string) (*Receipt, string, error) {
	var receipt Receipt
	err := s.db.QueryRow(`
		SELECT p.id, p.lead_id, p.account_id, p.price, l.city, l.state, p.purchased_at
		FROM purchases p
		JOIN leads l ON l.id = p.lead_id
		WHERE p.id = $1 AND p.account_id = $2`, purchaseID, accountID).Scan(
		&receipt.PurchaseID, &receipt.LeadID, &receipt.AccountID, &receipt.Price,
		&receipt.City, &receipt.State, &receipt.PurchasedAt)
	if err != nil {
		return nil, "", err
	}

	jsonData, err := json.Marshal(receipt)
	if err != nil {
		return nil, "", err
	}

	token := base64.URLEncoding.EncodeToString([]byte(receipt.PurchaseID))
	if s.redis != nil {
		key := fmt.Sprintf("receipt:%s", token)
		if err := s.redis.Set(ctx, key, jsonData, 24*time.Hour).Err(); err != nil {
			log.Printf("[RECEIPT] Failed to cache receipt %s: %v", receipt.PurchaseID, err)
		}
	}

	qr, err := qrcode.New(token, qrcode.Medium)
	if err != nil {
		return nil, "", err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, "", err
	}

	return &receipt, base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// GetReceipt returns the purchase receipt with a QR image
// @Summary Get purchase receipt
// @Description Get a scannable receipt for one of the vendor's purchases
// @Tags purchases
// @Produce json
// @Param purchaseId path string true "Purchase ID"
// @Success 200 {object} object{receipt=Receipt,qr_image=string}
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /purchases/{purchaseId}/receipt [get]
func (s *ReceiptService) GetReceipt(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
		return
	}
	purchaseID := chi.URLParam(r, "purchaseId")

	receipt, qrImage, err := s.buildReceipt(r.Context(), accountID, purchaseID)
	if err == sql.ErrNoRows {
		SendErrorResponse(w, "Purchase not found", http.StatusNotFound, nil)
		return
	}
	if err != nil {
		log.Printf("[RECEIPT] Failed to build receipt %s for %s: %v", purchaseID, accountID, err)
		SendErrorResponse(w, "Failed to build receipt", http.StatusInternalServerError, nil)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"receipt":  receipt,
		"qr_image": qrImage,
	})
}
