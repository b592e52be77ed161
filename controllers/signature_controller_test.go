package controllers

import (
	"errors"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetSignatureOrder(t *testing.T) {
	app := setupTestApp(t, false)
	number := app.createOrder(t, nil)

	tests := []struct {
		name           string
		query          string
		expectedStatus int
		expectedError  string
	}{
		{"Pending order from link", "?order=" + number, http.StatusOK, ""},
		{"Missing order parameter", "", http.StatusBadRequest, "INVALID_REQUEST"},
		{"Unknown order", "?order=nonexistent-0000", http.StatusNotFound, "ORDER_NOT_FOUND"},
		{"Full link", "?link=" + url.QueryEscape("http://localhost:8080/signature.html?order="+number), http.StatusOK, ""},
		{"Link without order", "?link=" + url.QueryEscape("http://localhost:8080/signature.html"), http.StatusNotFound, "ORDER_NOT_FOUND"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, response := app.do(t, http.MethodGet, "/api/v1/signature"+tt.query, nil)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, response))
				return
			}
			data := response["data"].(map[string]interface{})
			assert.Equal(t, false, data["signed"])
			assert.Equal(t, number, data["order"].(map[string]interface{})["orderNumber"])
		})
	}
}

func TestSignOrder(t *testing.T) {
	tests := []struct {
		name           string
		requestBody    map[string]interface{}
		expectedStatus int
		expectedError  string
		expectedEmails int
	}{
		{
			name:           "Successfully sign with email",
			requestBody:    map[string]interface{}{"signature": "data:image/png;base64,AAA", "customerEmail": "a@b.co"},
			expectedStatus: http.StatusOK,
			expectedEmails: 1,
		},
		{
			name:           "Successfully sign without email",
			requestBody:    map[string]interface{}{"signature": "data:image/png;base64,AAA"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Fail with empty signature",
			requestBody:    map[string]interface{}{"signature": ""},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_SIGNATURE",
		},
		{
			name:           "Fail with invalid email",
			requestBody:    map[string]interface{}{"signature": "sig", "customerEmail": "not-an-email"},
			expectedStatus: http.StatusBadRequest,
			expectedError:  "INVALID_EMAIL",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := setupTestApp(t, false)
			number := app.createOrder(t, nil)

			w, response := app.do(t, http.MethodPost, "/api/v1/orders/"+number+"/sign", tt.requestBody)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Len(t, app.notifier.Sent(), tt.expectedEmails)
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, errorCode(t, response))

				_, stored := app.do(t, http.MethodGet, "/api/v1/orders/"+number, nil)
				assert.Equal(t, "pending", stored["data"].(map[string]interface{})["status"])
				return
			}

			data := response["data"].(map[string]interface{})
			assert.Equal(t, "signed", data["status"])
			assert.NotNil(t, data["signedAt"])
			assert.Equal(t, tt.requestBody["signature"], data["signature"])
		})
	}
}

func TestSignOrderTwiceConflicts(t *testing.T) {
	app := setupTestApp(t, false)
	number := app.createOrder(t, nil)

	w, _ := app.do(t, http.MethodPost, "/api/v1/orders/"+number+"/sign", map[string]interface{}{"signature": "first"})
	require.Equal(t, http.StatusOK, w.Code)

	w, response := app.do(t, http.MethodPost, "/api/v1/orders/"+number+"/sign", map[string]interface{}{"signature": "second"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_SIGNED", errorCode(t, response))

	_, response = app.do(t, http.MethodGet, "/api/v1/signature?order="+number, nil)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, true, data["signed"])
	assert.Equal(t, "first", data["order"].(map[string]interface{})["signature"])
}

func TestSignOrderNotificationFailureStillSigns(t *testing.T) {
	app := setupTestApp(t, false)
	app.notifier.FailWith(errors.New("mail webhook unavailable"))
	number := app.createOrder(t, nil)

	w, response := app.do(t, http.MethodPost, "/api/v1/orders/"+number+"/sign", map[string]interface{}{
		"signature":     "sig",
		"customerEmail": "a@b.co",
	})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "signed", response["data"].(map[string]interface{})["status"])
}

func TestSignUnknownOrder(t *testing.T) {
	app := setupTestApp(t, false)

	w, response := app.do(t, http.MethodPost, "/api/v1/orders/nonexistent-0000/sign", map[string]interface{}{"signature": "sig"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "ORDER_NOT_FOUND", errorCode(t, response))
}
