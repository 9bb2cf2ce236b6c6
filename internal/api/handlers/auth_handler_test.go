package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	db "github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/core/database"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/models"
	"github.com/shatadru-b/Universal-Enterprise-RAG-Platform-Bring-Your-Own-Repository/internal/services"
)

type fakeUserDB struct {
	stubStore
	createErr error
	users     map[string]*models.User
}

func (f *fakeUserDB) CreateUser(ctx context.Context, user *models.User) error {
	if f.createErr != nil {
		return f.createErr
	}
	if f.users == nil {
		f.users = make(map[string]*models.User)
	}
	f.users[user.Email] = user
	return nil
}

func (f *fakeUserDB) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return f.users[email], nil
}

func (f *fakeUserDB) Close() error { return nil }

func newAuthHandler(dbc *fakeUserDB) *AuthHandler {
	return NewAuthHandler(services.NewUserService(dbc), "test-secret")
}

func doSignup(t *testing.T, h *AuthHandler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/signup", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.Signup(rec, req)
	return rec
}

func TestSignup_ReturnsToken(t *testing.T) {
	h := newAuthHandler(&fakeUserDB{})

	rec := doSignup(t, h, `{"email":"a@b.com","password":"secret","tenant_id":"acme"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotEmpty(t, body["token"])
}

func TestSignup_DuplicateEmailIsConflict(t *testing.T) {
	h := newAuthHandler(&fakeUserDB{createErr: db.ErrEmailTaken})

	rec := doSignup(t, h, `{"email":"a@b.com","password":"secret"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestSignup_StorageFailureIsServerError(t *testing.T) {
	h := newAuthHandler(&fakeUserDB{createErr: assert.AnError})

	rec := doSignup(t, h, `{"email":"a@b.com","password":"secret"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code,
		"a database outage must not masquerade as a duplicate user")
}

func TestSignup_MissingFields(t *testing.T) {
	h := newAuthHandler(&fakeUserDB{})

	rec := doSignup(t, h, `{"email":"a@b.com"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
