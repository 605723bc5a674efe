package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"isilan_app_echo/internal/config"
	"isilan_app_echo/internal/models"
)

var merchantOidPattern = regexp.MustCompile(`[^a-zA-Z0-9]+`)

// SanitizeMerchantOid strips every character outside [A-Za-z0-9] so
// the order id is safe to use as a Realtime Database key. The same
// normalization runs at purchase time and at callback time, so both
// sides address the same record.
func SanitizeMerchantOid(merchantOid string) string {
	return merchantOidPattern.ReplaceAllString(merchantOid, "")
}

// PayTRClient talks to the PayTR payment gateway: it requests iframe
// tokens for new purchases and verifies the HMAC on asynchronous
// callbacks.
type PayTRClient struct {
	merchantID   string
	merchantKey  []byte
	merchantSalt string
	apiURL       string
	okURL        string
	failURL      string
	testMode     bool
	client       *http.Client
}

func NewPayTRClient(cfg *config.Config) *PayTRClient {
	return &PayTRClient{
		merchantID:   cfg.PayTRMerchantID,
		merchantKey:  []byte(cfg.PayTRMerchantKey),
		merchantSalt: cfg.PayTRMerchantSalt,
		apiURL:       cfg.PayTRAPIURL,
		okURL:        cfg.PayTROkURL,
		failURL:      cfg.PayTRFailURL,
		testMode:     cfg.PayTRTestMode,
		client:       &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *PayTRClient) sign(message string) string {
	mac := hmac.New(sha256.New, c.merchantKey)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// CallbackHash computes the signature PayTR attaches to callback
// notifications: base64(HMAC-SHA256(merchant_oid + salt + status +
// total_amount)) keyed with the merchant key.
func (c *PayTRClient) CallbackHash(merchantOid, status, totalAmount string) string {
	return c.sign(merchantOid + c.merchantSalt + status + totalAmount)
}

// VerifyCallback checks the supplied hash against the expected one in
// constant time. A false result must keep the message away from any
// store access.
func (c *PayTRClient) VerifyCallback(msg *models.CallbackMessage) bool {
	expected := c.CallbackHash(msg.MerchantOid, msg.Status, msg.TotalAmount)
	return hmac.Equal([]byte(expected), []byte(msg.Hash))
}

// TokenRequest carries the fields PayTR's get-token API requires for a
// new iframe payment.
type TokenRequest struct {
	MerchantOid   string
	Email         string
	PaymentAmount int64 // kurus
	UserBasket    string
	UserName      string
	UserAddress   string
	UserPhone     string
	UserIP        string
}

// TokenResponse is the get-token API reply.
type TokenResponse struct {
	Status string `json:"status"`
	Token  string `json:"token"`
	Reason string `json:"reason"`
}

// GetToken requests an iframe token for a purchase. The request itself
// is signed with paytr_token, an HMAC over the concatenated request
// fields plus the merchant salt.
func (c *PayTRClient) GetToken(ctx context.Context, req TokenRequest) (*TokenResponse, error) {
	amount := fmt.Sprintf("%d", req.PaymentAmount)
	basket := base64.StdEncoding.EncodeToString([]byte(req.UserBasket))
	testMode := "0"
	if c.testMode {
		testMode = "1"
	}
	const (
		noInstallment  = "1"
		maxInstallment = "0"
		currency       = "TL"
		timeoutLimit   = "30"
	)

	hashStr := c.merchantID + req.UserIP + req.MerchantOid + req.Email + amount +
		basket + noInstallment + maxInstallment + currency + testMode
	paytrToken := c.sign(hashStr + c.merchantSalt)

	form := url.Values{}
	form.Set("merchant_id", c.merchantID)
	form.Set("user_ip", req.UserIP)
	form.Set("merchant_oid", req.MerchantOid)
	form.Set("email", req.Email)
	form.Set("payment_amount", amount)
	form.Set("paytr_token", paytrToken)
	form.Set("user_basket", basket)
	form.Set("debug_on", "0")
	form.Set("no_installment", noInstallment)
	form.Set("max_installment", maxInstallment)
	form.Set("user_name", req.UserName)
	form.Set("user_address", req.UserAddress)
	form.Set("user_phone", req.UserPhone)
	form.Set("merchant_ok_url", fmt.Sprintf("%s?merchant_oid=%s", c.okURL, req.MerchantOid))
	form.Set("merchant_fail_url", fmt.Sprintf("%s?merchant_oid=%s", c.failURL, req.MerchantOid))
	form.Set("timeout_limit", timeoutLimit)
	form.Set("currency", currency)
	form.Set("test_mode", testMode)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create get-token request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to call paytr get-token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read get-token response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("paytr get-token failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp TokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to decode get-token response: %w", err)
	}
	if tokenResp.Status != "success" {
		return nil, fmt.Errorf("paytr rejected the token request: %s", tokenResp.Reason)
	}

	return &tokenResp, nil
}
