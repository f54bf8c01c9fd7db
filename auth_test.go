package main

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"inventaris-backend/controllers"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func postJSON(t *testing.T, app *App, path string, body interface{}, token string) (int, []byte) {
	t.Helper()
	return doJSON(t, app, "POST", path, body, token)
}

// doJSON выполняет запрос к приложению; body == nil означает запрос без тела
func doJSON(t *testing.T, app *App, method, path string, body interface{}, token string) (int, []byte) {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req := httptest.NewRequest(method, path, &payload)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Fiber.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, buf.Bytes()
}

func TestRegister(t *testing.T) {
	app, _ := setupTestApp()

	tests := []struct {
		name            string
		request         controllers.RegisterRequest
		expectedStatus  int
		expectedSuccess bool
	}{
		{
			name: "Успешная регистрация",
			request: controllers.RegisterRequest{
				FirstName:       "Siti",
				Email:           "test@example.com",
				Password:        "password123",
				ConfirmPassword: "password123",
			},
			expectedStatus:  201,
			expectedSuccess: true,
		},
		{
			name: "Повторный email",
			request: controllers.RegisterRequest{
				Email:           "TEST@example.com",
				Password:        "password123",
				ConfirmPassword: "password123",
			},
			expectedStatus:  409,
			expectedSuccess: false,
		},
		{
			name: "Неверный email",
			request: controllers.RegisterRequest{
				Email:           "invalid-email",
				Password:        "password123",
				ConfirmPassword: "password123",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
		{
			name: "Пароли не совпадают",
			request: controllers.RegisterRequest{
				Email:           "test2@example.com",
				Password:        "password123",
				ConfirmPassword: "different123",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
		{
			name: "Слишком короткий пароль",
			request: controllers.RegisterRequest{
				Email:           "test4@example.com",
				Password:        "1234567",
				ConfirmPassword: "1234567",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postJSON(t, app, "/auth/register", tt.request, "")
			assert.Equal(t, tt.expectedStatus, status)

			var response controllers.AuthResponse
			require.NoError(t, json.Unmarshal(body, &response))
			assert.Equal(t, tt.expectedSuccess, response.Success)

			if tt.expectedSuccess {
				assert.NotEmpty(t, response.Token)
				require.NotNil(t, response.User)
				assert.Equal(t, "test@example.com", response.User.Email)
				assert.False(t, response.User.ProfileCompleted)
			}
			if tt.expectedStatus == 400 {
				assert.NotEmpty(t, response.Fields)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	app, _ := setupTestApp()

	// Сначала регистрируем пользователя
	status, _ := postJSON(t, app, "/auth/register", controllers.RegisterRequest{
		Email:           "test@example.com",
		Password:        "password123",
		ConfirmPassword: "password123",
	}, "")
	require.Equal(t, 201, status)

	tests := []struct {
		name            string
		request         controllers.LoginRequest
		expectedStatus  int
		expectedSuccess bool
	}{
		{
			name: "Успешный вход",
			request: controllers.LoginRequest{
				Email:    "test@example.com",
				Password: "password123",
			},
			expectedStatus:  200,
			expectedSuccess: true,
		},
		{
			name: "Неверный пароль",
			request: controllers.LoginRequest{
				Email:    "test@example.com",
				Password: "wrongpassword",
			},
			expectedStatus:  401,
			expectedSuccess: false,
		},
		{
			name: "Несуществующий пользователь",
			request: controllers.LoginRequest{
				Email:    "nonexistent@example.com",
				Password: "password123",
			},
			expectedStatus:  401,
			expectedSuccess: false,
		},
		{
			name: "Слишком короткий пароль",
			request: controllers.LoginRequest{
				Email:    "test@example.com",
				Password: "12345",
			},
			expectedStatus:  400,
			expectedSuccess: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := postJSON(t, app, "/auth/login", tt.request, "")
			assert.Equal(t, tt.expectedStatus, status)

			var response controllers.AuthResponse
			require.NoError(t, json.Unmarshal(body, &response))
			assert.Equal(t, tt.expectedSuccess, response.Success)

			if tt.expectedSuccess {
				assert.NotEmpty(t, response.Token)
			}
		})
	}
}
