package services

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"testing"

	"isilan_app_echo/internal/config"
	"isilan_app_echo/internal/models"
)

func signCallback(key, salt, merchantOid, status, totalAmount string) string {
	mac := hmac.New(sha256.New, []byte(key))
	mac.Write([]byte(merchantOid + salt + status + totalAmount))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func testPayTRClient() *PayTRClient {
	return NewPayTRClient(&config.Config{
		PayTRMerchantID:   "123456",
		PayTRMerchantKey:  "test-merchant-key",
		PayTRMerchantSalt: "test-merchant-salt",
	})
}

func TestSanitizeMerchantOid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "dashes and punctuation stripped",
			input:    "abc-123!",
			expected: "abc123",
		},
		{
			name:     "already alphanumeric",
			input:    "Job42abc",
			expected: "Job42abc",
		},
		{
			name:     "path traversal neutralized",
			input:    "../jobs/evil",
			expected: "jobsevil",
		},
		{
			name:     "unicode stripped",
			input:    "ilanöçş99",
			expected: "ilan99",
		},
		{
			name:     "empty input",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeMerchantOid(tt.input)
			if result != tt.expected {
				t.Errorf("SanitizeMerchantOid(%q) = %q; want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestVerifyCallback(t *testing.T) {
	client := testPayTRClient()
	validHash := signCallback("test-merchant-key", "test-merchant-salt", "job1abc", "success", "2999")

	tests := []struct {
		name     string
		msg      models.CallbackMessage
		expected bool
	}{
		{
			name:     "valid signature",
			msg:      models.CallbackMessage{MerchantOid: "job1abc", Status: "success", TotalAmount: "2999", Hash: validHash},
			expected: true,
		},
		{
			name:     "tampered hash",
			msg:      models.CallbackMessage{MerchantOid: "job1abc", Status: "success", TotalAmount: "2999", Hash: validHash[:len(validHash)-2] + "xx"},
			expected: false,
		},
		{
			name:     "tampered merchant oid",
			msg:      models.CallbackMessage{MerchantOid: "job2abc", Status: "success", TotalAmount: "2999", Hash: validHash},
			expected: false,
		},
		{
			name:     "tampered status",
			msg:      models.CallbackMessage{MerchantOid: "job1abc", Status: "failed", TotalAmount: "2999", Hash: validHash},
			expected: false,
		},
		{
			name:     "tampered amount",
			msg:      models.CallbackMessage{MerchantOid: "job1abc", Status: "success", TotalAmount: "2998", Hash: validHash},
			expected: false,
		},
		{
			name:     "empty hash",
			msg:      models.CallbackMessage{MerchantOid: "job1abc", Status: "success", TotalAmount: "2999"},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := client.VerifyCallback(&tt.msg)
			if result != tt.expected {
				t.Errorf("VerifyCallback(%+v) = %v; want %v", tt.msg, result, tt.expected)
			}
		})
	}
}

func TestVerifyCallbackWrongCredentials(t *testing.T) {
	client := testPayTRClient()

	tests := []struct {
		name string
		key  string
		salt string
	}{
		{name: "wrong key", key: "other-merchant-key", salt: "test-merchant-salt"},
		{name: "wrong salt", key: "test-merchant-key", salt: "other-merchant-salt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := models.CallbackMessage{
				MerchantOid: "job1abc",
				Status:      "success",
				TotalAmount: "2999",
				Hash:        signCallback(tt.key, tt.salt, "job1abc", "success", "2999"),
			}
			if client.VerifyCallback(&msg) {
				t.Errorf("VerifyCallback accepted a hash signed with %s", tt.name)
			}
		})
	}
}
