package services

import (
	"context"
	cryptorand "crypto/rand"
	"database/sql"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/vowmarket/backend/internal/models"
	"golang.org/x/crypto/argon2"
)

type AuthService struct {
	db        *sql.DB
	redis     *redis.Client
	validator *validator.Validate
}

// LoginRequest represents the login request payload
// @Description Login request structure
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email" example:"vendor@example.com"` // Vendor email
	Password string `json:"password" validate:"required,min=6" example:"password123"`     // Vendor password
}

// RegisterRequest represents the registration request payload
// @Description Registration request structure
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email" example:"vendor@example.com"`        // Vendor email address
	Password     string `json:"password" validate:"required,min=6" example:"password123"`            // Vendor password
	BusinessName string `json:"businessName" validate:"required,min=2" example:"Evergreen Florals"`  // Business name
	ContactName  string `json:"contactName" validate:"required,min=2" example:"Jane Doe"`            // Contact person
	PhoneNumber  string `json:"phoneNumber" validate:"required" example:"+15551234567"`              // Phone number
}

// AuthResponse represents the authentication response
// @Description Authentication response structure
type AuthResponse struct {
	Token  string        `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."` // JWT token
	Vendor models.Vendor `json:"vendor"`                                                  // Vendor information
}

func NewAuthService(db *sql.DB, redisClient *redis.Client) *AuthService {
	return &AuthService{
		db:        db,
		redis:     redisClient,
		validator: validator.New(),
	}
}

func (s *AuthService) sendErrorResponse(w http.ResponseWriter, message string, statusCode int, validationErr error) {
	SendErrorResponse(w, message, statusCode, validationErr)
}

// Register handles vendor registration
// @Summary Register a new vendor
// @Description Register a vendor with email, password and business details; opens a zero-balance account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration request"
// @Success 200 {object} AuthResponse "Registration successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 409 {string} string "Email already exists"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/register [post]
func (s *AuthService) Register(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Registration attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req RegisterRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Registration failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Registration validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	log.Printf("[AUTH] Registration request for email: %s", req.Email)

	hashedPassword, err := hashPassword(req.Password)
	if err != nil {
		log.Printf("[AUTH] Password hashing failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "An Internal Error Occurred", http.StatusInternalServerError, nil)
		return
	}

	// Generate 10-digit account ID
	accountID := generateAccountID()

	// Vendor row and zero-balance account commit together
	tx, err := s.db.Begin()
	if err != nil {
		log.Printf("[AUTH] Transaction start failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "Failed to create vendor", http.StatusInternalServerError, nil)
		return
	}
	defer tx.Rollback()

	var vendorID int
	err = tx.QueryRow("INSERT INTO vendors (email, password, business_name, contact_name, account_id, phone_number) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		strings.ToLower(req.Email), hashedPassword, req.BusinessName, req.ContactName, accountID, req.PhoneNumber).Scan(&vendorID)
	if err != nil {
		log.Printf("[AUTH] Vendor creation failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "Email Already Exists", http.StatusConflict, nil)
		return
	}

	_, err = tx.Exec("INSERT INTO accounts (account_id, balance, version, updated_at) VALUES ($1, $2, $3, NOW())",
		accountID, 0, 1)
	if err != nil {
		log.Printf("[AUTH] Account creation failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "Failed to create account", http.StatusInternalServerError, nil)
		return
	}

	if err = tx.Commit(); err != nil {
		log.Printf("[AUTH] Transaction commit failed for %s: %v", req.Email, err)
		s.sendErrorResponse(w, "Failed to create vendor", http.StatusInternalServerError, nil)
		return
	}

	log.Printf("[AUTH] Vendor created successfully - ID: %d, Email: %s", vendorID, req.Email)

	token, err := generateJWT(vendorID, accountID)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for vendor %d: %v", vendorID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	response := AuthResponse{
		Token: token,
		Vendor: models.Vendor{
			ID:           vendorID,
			Email:        req.Email,
			BusinessName: req.BusinessName,
			ContactName:  req.ContactName,
			AccountID:    accountID,
			PhoneNumber:  req.PhoneNumber,
		},
	}

	log.Printf("[AUTH] Registration successful for vendor %d", vendorID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Login handles vendor authentication
// @Summary Login vendor
// @Description Authenticate vendor with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login request"
// @Success 200 {object} AuthResponse "Login successful"
// @Failure 400 {string} string "Invalid request"
// @Failure 401 {string} string "Invalid credentials"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/login [post]
func (s *AuthService) Login(w http.ResponseWriter, r *http.Request) {
	log.Printf("[AUTH] Login attempt from IP: %s", r.RemoteAddr)

	maxBytes := 1_048_576 // 1 MB
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	var req LoginRequest
	if err := dec.Decode(&req); err != nil {
		log.Printf("[AUTH] Login failed - invalid request: %v", err)
		s.sendErrorResponse(w, "Invalid request", http.StatusBadRequest, nil)
		return
	}

	if err := dec.Decode(&struct{}{}); err != io.EOF {
		log.Printf("[AUTH] Multiple JSON objects detected")
		s.sendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return
	}

	if err := s.validator.Struct(&req); err != nil {
		log.Printf("[AUTH] Login validation failed: %v", err)
		s.sendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return
	}

	var vendor models.Vendor
	var hashedPassword string
	err := s.db.QueryRow("SELECT id, email, business_name, contact_name, password, account_id FROM vendors WHERE email = $1",
		strings.ToLower(req.Email)).Scan(&vendor.ID, &vendor.Email, &vendor.BusinessName, &vendor.ContactName, &hashedPassword, &vendor.AccountID)
	if err != nil {
		log.Printf("[AUTH] Vendor not found for email: %s", req.Email)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	if !verifyPassword(req.Password, hashedPassword) {
		log.Printf("[AUTH] Invalid password for vendor: %s", req.Email)
		s.sendErrorResponse(w, "Invalid credentials", http.StatusUnauthorized, nil)
		return
	}

	log.Printf("[AUTH] Password verified for vendor ID: %d", vendor.ID)

	token, err := generateJWT(vendor.ID, vendor.AccountID)
	if err != nil {
		log.Printf("[AUTH] JWT generation failed for vendor %d: %v", vendor.ID, err)
		s.sendErrorResponse(w, "Failed to generate token", http.StatusInternalServerError, nil)
		return
	}

	response := AuthResponse{
		Token:  token,
		Vendor: vendor,
	}

	log.Printf("[AUTH] Login successful for vendor %d", vendor.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

// Logout handles vendor logout
// @Summary Logout vendor
// @Description Logout vendor and blacklist token
// @Tags auth
// @Produce json
// @Success 200 {object} map[string]string "Logout successful"
// @Router /auth/logout [post]
func (s *AuthService) Logout(w http.ResponseWriter, r *http.Request) {
	token := r.Header.Get("Authorization")
	if token != "" && len(token) > 7 {
		token = token[7:] // Remove "Bearer " prefix

		if s.redis != nil {
			ctx := context.Background()
			key := fmt.Sprintf("blacklist:%s", token)
			// Blacklist token until its expiration
			expiry := time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour
			if err := s.redis.Set(ctx, key, "1", expiry).Err(); err != nil {
				log.Printf("[AUTH] Failed to blacklist token: %v", err)
			}
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"message": "Logout successful"})
}

// GetVendorAccount retrieves vendor details from auth token
// @Summary Get vendor account details
// @Description Get authenticated vendor's profile information
// @Tags auth
// @Produce json
// @Success 200 {object} models.Vendor "Vendor account details"
// @Failure 401 {string} string "Unauthorized"
// @Failure 500 {string} string "Internal server error"
// @Router /auth/account [get]
func (s *AuthService) GetVendorAccount(w http.ResponseWriter, r *http.Request) {
	accountID, ok := r.Context().Value("accountID").(string)
	if !ok || accountID == "" {
		log.Printf("[AUTH] Unauthorized account request - no account ID in context")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var vendor models.Vendor
	err := s.db.QueryRow("SELECT id, email, business_name, contact_name, phone_number, account_id FROM vendors WHERE account_id = $1",
		accountID).Scan(&vendor.ID, &vendor.Email, &vendor.BusinessName, &vendor.ContactName, &vendor.PhoneNumber, &vendor.AccountID)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("[AUTH] Vendor not found for account: %s", accountID)
			http.Error(w, "Vendor not found", http.StatusNotFound)
		} else {
			log.Printf("[AUTH] Failed to fetch vendor details for account %s: %v", accountID, err)
			http.Error(w, "Failed to fetch vendor details", http.StatusInternalServerError)
		}
		return
	}

	log.Printf("[AUTH] Fetched account details for vendor: %s (ID: %d)", vendor.Email, vendor.ID)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(vendor)
}

func generateJWT(vendorID int, accountID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"vendor_id":  vendorID,
		"account_id": accountID,
		"exp":        time.Now().Add(time.Duration(viper.GetInt("jwt.expiry_hours")) * time.Hour).Unix(),
	})

	return token.SignedString([]byte(viper.GetString("jwt.secret_key")))
}

func hashPassword(password string) (string, error) {
	salt := make([]byte, viper.GetInt("argon2.salt_length"))
	if _, err := cryptorand.Read(salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return fmt.Sprintf("%s$%s", base64.StdEncoding.EncodeToString(salt), base64.StdEncoding.EncodeToString(hash)), nil
}

func verifyPassword(password, hashedPassword string) bool {
	parts := strings.Split(hashedPassword, "$")
	if len(parts) != 2 {
		return false
	}

	salt, err := base64.StdEncoding.DecodeString(parts[0])
	if err != nil {
		return false
	}

	hash, err := base64.StdEncoding.DecodeString(parts[1])
	if err != nil {
		return false
	}

	computedHash := argon2.IDKey([]byte(password), salt,
		uint32(viper.GetInt("argon2.time")),
		uint32(viper.GetInt("argon2.memory")),
		uint8(viper.GetInt("argon2.threads")),
		uint32(viper.GetInt("argon2.key_length")))
	return string(hash) == string(computedHash)
}

func generateAccountID() string {
	const digits = "0123456789"
	b := make([]byte, 10)
	for i := range b {
		b[i] = digits[rand.Intn(len(digits))]
	}
	return string(b)
}
