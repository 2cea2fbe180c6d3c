package gateway

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vhxmt/doantotnghiep-sub001/internal/config"
)

func vnpayTestConfig() config.VNPayConfig {
	return config.VNPayConfig{
		TmnCode:    "SHOP0001",
		HashSecret: "test-secret",
		PayURL:     "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html",
		ReturnURL:  "https://shop.example.com/orders/return",
	}
}

func signVNPay(secret, data string) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write([]byte(data))
	return hex.EncodeToString(mac.Sum(nil))
}

// signedIPN builds a query string the way the gateway would sign it.
func signedIPN(secret string, params url.Values) string {
	hash := signVNPay(secret, canonicalize(params))
	params.Set("vnp_SecureHash", hash)
	return params.Encode()
}

func ipnParams(txnRef string) url.Values {
	params := url.Values{}
	params.Set("vnp_TmnCode", "SHOP0001")
	params.Set("vnp_TxnRef", txnRef)
	params.Set("vnp_Amount", "10000000")
	params.Set("vnp_ResponseCode", "00")
	params.Set("vnp_TransactionStatus", "00")
	params.Set("vnp_TransactionNo", "14587401")
	params.Set("vnp_BankCode", "NCB")
	params.Set("vnp_PayDate", "20250615120000")
	return params
}

func TestVNPayBuildPaymentRequest(t *testing.T) {
	v := NewVNPay(vnpayTestConfig())
	v.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }

	req, err := v.BuildPaymentRequest(context.Background(), PaymentOrder{
		OrderNumber: "SHP-250615-AAAA1111",
		Amount:      100000,
		Description: "Thanh toan don hang SHP-250615-AAAA1111",
		ClientIP:    "203.0.113.9",
	})
	require.NoError(t, err)
	assert.Equal(t, "SHP-250615-AAAA1111-1749988800", req.Reference)

	u, err := url.Parse(req.RedirectURL)
	require.NoError(t, err)
	params := u.Query()

	assert.Equal(t, "2.1.0", params.Get("vnp_Version"))
	assert.Equal(t, "10000000", params.Get("vnp_Amount")) // 100000 VND x 100
	assert.Equal(t, "20250615120000", params.Get("vnp_CreateDate"))
	assert.Equal(t, "203.0.113.9", params.Get("vnp_IpAddr"))

	// The hash must verify over the sorted, encoded params minus the hash itself.
	provided := params.Get("vnp_SecureHash")
	params.Del("vnp_SecureHash")
	assert.Equal(t, signVNPay("test-secret", canonicalize(params)), provided)
}

func TestVNPayParseCallback(t *testing.T) {
	v := NewVNPay(vnpayTestConfig())
	const txnRef = "SHP-250615-AAAA1111-1749988800"

	t.Run("signed IPN accepted", func(t *testing.T) {
		raw := signedIPN("test-secret", ipnParams(txnRef))

		res, err := v.ParseCallback([]byte(raw))
		require.NoError(t, err)
		assert.Equal(t, txnRef, res.Reference)
		assert.Equal(t, int64(100000), res.Amount) // divided back down
		assert.Equal(t, "14587401", res.TransactionID)
		assert.True(t, res.Succeeded)
	})

	t.Run("uppercase hash accepted", func(t *testing.T) {
		params := ipnParams(txnRef)
		hash := strings.ToUpper(signVNPay("test-secret", canonicalize(params)))
		params.Set("vnp_SecureHash", hash)
		params.Set("vnp_SecureHashType", "HMACSHA512")

		res, err := v.ParseCallback([]byte(params.Encode()))
		require.NoError(t, err)
		assert.True(t, res.Succeeded)
	})

	t.Run("tampered amount rejected", func(t *testing.T) {
		raw := signedIPN("test-secret", ipnParams(txnRef))
		raw = strings.Replace(raw, "10000000", "10000100", 1)

		_, err := v.ParseCallback([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("wrong secret rejected", func(t *testing.T) {
		raw := signedIPN("other-secret", ipnParams(txnRef))

		_, err := v.ParseCallback([]byte(raw))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("missing hash rejected", func(t *testing.T) {
		_, err := v.ParseCallback([]byte(ipnParams(txnRef).Encode()))
		assert.ErrorIs(t, err, ErrInvalidSignature)
	})

	t.Run("declined transaction verifies but does not succeed", func(t *testing.T) {
		params := ipnParams(txnRef)
		params.Set("vnp_ResponseCode", "24")
		params.Set("vnp_TransactionStatus", "02")
		raw := signedIPN("test-secret", params)

		res, err := v.ParseCallback([]byte(raw))
		require.NoError(t, err)
		assert.False(t, res.Succeeded)
	})
}

func TestVNPayOrderNumberFromReference(t *testing.T) {
	v := NewVNPay(vnpayTestConfig())

	got, err := v.OrderNumberFromReference("SHP-250615-AAAA1111-1749988800")
	require.NoError(t, err)
	assert.Equal(t, "SHP-250615-AAAA1111", got)

	_, err = v.OrderNumberFromReference("nodash")
	assert.Error(t, err)
}

func TestVNPayAck(t *testing.T) {
	v := NewVNPay(vnpayTestConfig())

	tests := []struct {
		outcome AckOutcome
		code    string
	}{
		{AckSuccess, "00"},
		{AckAlreadyConfirmed, "02"},
		{AckOrderNotFound, "01"},
		{AckAmountMismatch, "04"},
		{AckInvalidSignature, "97"},
		{AckInternalError, "99"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, v.Ack(tt.outcome).(vnpayAck).RspCode)
	}
}

func TestVNPayQueryStatusUnsupported(t *testing.T) {
	v := NewVNPay(vnpayTestConfig())
	_, err := v.QueryStatus(context.Background(), "ref")
	assert.ErrorIs(t, err, ErrQueryNotSupported)
}

func TestCanonicalize(t *testing.T) {
	params := url.Values{}
	params.Set("vnp_OrderInfo", "Thanh toan don hang")
	params.Set("vnp_Amount", "10000000")
	params.Set("vnp_ReturnUrl", "https://shop.example.com/return")

	got := canonicalize(params)
	assert.Equal(t,
		"vnp_Amount=10000000&vnp_OrderInfo=Thanh+toan+don+hang&vnp_ReturnUrl=https%3A%2F%2Fshop.example.com%2Freturn",
		got)
}
