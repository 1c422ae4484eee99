package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oatmeal/resume-builder/internal/config"
)

func newTestAuthHandler() *AuthHandler {
	passwordConfig := &config.PasswordConfig{BcryptCost: 10} // lower cost for faster tests
	jwtConfig := &config.JWTConfig{
		Secret:          "test-secret-key-for-jwt-signing-minimum-32-bytes",
		ExpirationHours: 24,
	}
	return NewAuthHandler(NewUserService(newFakeUserStore(), passwordConfig), NewJWTService(jwtConfig))
}

func postJSON(handler http.HandlerFunc, target string, body any) *httptest.ResponseRecorder {
	raw, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestAuthHandler_RegisterThenLogin(t *testing.T) {
	h := newTestAuthHandler()

	w := postJSON(h.Register, "/auth/register", map[string]string{
		"name":     "Jane Doe",
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	assert.NotEmpty(t, registered["token"])
	assert.NotContains(t, w.Body.String(), "password_hash")

	w = postJSON(h.Login, "/auth/login", map[string]string{
		"email":    "jane@example.com",
		"password": "password123",
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "token")
}

func TestAuthHandler_Register_DuplicateEmail(t *testing.T) {
	h := newTestAuthHandler()
	body := map[string]string{"name": "Jane", "email": "dup@example.com", "password": "password123"}

	w := postJSON(h.Register, "/auth/register", body)
	require.Equal(t, http.StatusCreated, w.Code)

	w = postJSON(h.Register, "/auth/register", body)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "already registered")
}

func TestAuthHandler_Login_WrongCredentials(t *testing.T) {
	h := newTestAuthHandler()

	w := postJSON(h.Register, "/auth/register", map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	for _, creds := range []map[string]string{
		{"email": "jane@example.com", "password": "wrong-password"},
		{"email": "nobody@example.com", "password": "password123"},
	} {
		w = postJSON(h.Login, "/auth/login", creds)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), ReasonUnauthorized)
	}
}

func TestAuthHandler_InvalidJSON(t *testing.T) {
	h := newTestAuthHandler()

	for name, handler := range map[string]http.HandlerFunc{
		"register": h.Register,
		"login":    h.Login,
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/auth/"+name, bytes.NewReader([]byte("invalid json")))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			handler(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "Invalid request body")
		})
	}
}

func TestAuthHandler_Register_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		reqBody map[string]string
	}{
		{"missing name", map[string]string{"email": "test@example.com", "password": "password123"}},
		{"invalid email", map[string]string{"name": "Test User", "email": "invalid-email", "password": "password123"}},
		{"missing email", map[string]string{"name": "Test User", "password": "password123"}},
		{"password too short", map[string]string{"name": "Test User", "email": "test@example.com", "password": "short"}},
		{"missing password", map[string]string{"name": "Test User", "email": "test@example.com"}},
	}

	h := newTestAuthHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(h.Register, "/auth/register", tt.reqBody)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation error")
		})
	}
}

func TestAuthHandler_Login_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		reqBody map[string]string
	}{
		{"missing email", map[string]string{"password": "password123"}},
		{"invalid email format", map[string]string{"email": "invalid-email", "password": "password123"}},
		{"missing password", map[string]string{"email": "test@example.com"}},
	}

	h := newTestAuthHandler()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := postJSON(h.Login, "/auth/login", tt.reqBody)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "validation error")
		})
	}
}

func TestAuthHandler_UpdatePassword(t *testing.T) {
	h := newTestAuthHandler()

	w := postJSON(h.Register, "/auth/register", map[string]string{
		"name": "Jane", "email": "jane@example.com", "password": "password123",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var registered struct {
		User struct {
			ID uuid.UUID `json:"id"`
		} `json:"user"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &registered))
	userID := registered.User.ID

	update := func(userID uuid.UUID, body any) *httptest.ResponseRecorder {
		raw, _ := json.Marshal(body)
		req := httptest.NewRequest(http.MethodPut, "/auth/password", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		w := httptest.NewRecorder()
		h.UpdatePasswordWithUserID(w, req, userID)
		return w
	}

	// Wrong current password
	w = update(userID, map[string]string{"current_password": "wrong", "new_password": "newpassword123"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// Unknown user
	w = update(uuid.New(), map[string]string{"current_password": "password123", "new_password": "newpassword123"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Validation failures
	w = update(userID, map[string]string{"new_password": "newpassword123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = update(userID, map[string]string{"current_password": "password123", "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Success, and the new password logs in
	w = update(userID, map[string]string{"current_password": "password123", "new_password": "newpassword123"})
	require.Equal(t, http.StatusOK, w.Code)

	w = postJSON(h.Login, "/auth/login", map[string]string{"email": "jane@example.com", "password": "newpassword123"})
	assert.Equal(t, http.StatusOK, w.Code)
}
