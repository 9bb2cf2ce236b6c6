package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/google/uuid"
	db "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/database"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/services"
)

type AuthHandler struct {
	users     *services.UserService
	jwtSecret string
}

func NewAuthHandler(users *services.UserService, jwtSecret string) *AuthHandler {
	return &AuthHandler{users: users, jwtSecret: jwtSecret}
}

type signupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TenantID string `json:"tenant_id,omitempty"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if req.Email == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}
	if req.TenantID == "" {
		req.TenantID = "default"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "could not hash password")
		return
	}

	user := &models.User{
		ID:           uuid.NewString(),
		TenantID:     req.TenantID,
		Email:        req.Email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, db.ErrEmailTaken) {
			writeError(w, http.StatusConflict, "user exists")
			return
		}
		writeError(w, http.StatusInternalServerError, "could not create user")
		return
	}

	token := generateJWT(user.ID, user.TenantID, h.jwtSecret)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid body")
		return
	}

	user, err := h.users.GetByEmail(r.Context(), req.Email)
	if err != nil || user == nil ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token := generateJWT(user.ID, user.TenantID, h.jwtSecret)
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

// generateJWT creates a signed token with user and tenant claims.
func generateJWT(userID, tenantID, secret string) string {
	claims := jwt.MapClaims{
		"user_id":   userID,
		"tenant_id": tenantID,
		"exp":       time.Now().Add(24 * time.Hour).Unix(),
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	token, _ := tok.SignedString([]byte(secret))
	return token
}
