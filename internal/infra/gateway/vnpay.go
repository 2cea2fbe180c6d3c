package gateway

import (
	"context"
	"crypto/sha512"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vhxmt/doantotnghiep-sub001/internal/config"
)

// VNPay signs an alphabetically sorted, URL-encoded parameter set with
// HMAC-SHA512. Payment is redirect-only: the customer is sent to the pay URL
// and the gateway confirms via an IPN GET whose query string is signed the
// same way. Amounts go over the wire multiplied by 100.
type VNPay struct {
	cfg config.VNPayConfig
	now func() time.Time
}

func NewVNPay(cfg config.VNPayConfig) *VNPay {
	return &VNPay{cfg: cfg, now: time.Now}
}

func (v *VNPay) Name() string { return "vnpay" }

// canonicalize sorts keys alphabetically and URL-encodes each key and value.
// This is the exact string the SecureHash covers; any drift in ordering or
// encoding breaks verification.
func canonicalize(params url.Values) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params.Get(k)))
	}
	return b.String()
}

func (v *VNPay) BuildPaymentRequest(_ context.Context, order PaymentOrder) (*PaymentRequest, error) {
	now := v.now()
	txnRef := fmt.Sprintf("%s-%d", order.OrderNumber, now.Unix())

	params := url.Values{}
	params.Set("vnp_Version", "2.1.0")
	params.Set("vnp_Command", "pay")
	params.Set("vnp_TmnCode", v.cfg.TmnCode)
	params.Set("vnp_Amount", strconv.FormatInt(order.Amount*100, 10))
	params.Set("vnp_CurrCode", "VND")
	params.Set("vnp_TxnRef", txnRef)
	params.Set("vnp_OrderInfo", order.Description)
	params.Set("vnp_OrderType", "other")
	params.Set("vnp_Locale", "vn")
	params.Set("vnp_ReturnUrl", v.cfg.ReturnURL)
	params.Set("vnp_IpAddr", order.ClientIP)
	params.Set("vnp_CreateDate", now.Format("20060102150405"))

	query := canonicalize(params)
	secureHash := hmacHex(sha512.New, v.cfg.HashSecret, query)

	return &PaymentRequest{
		RedirectURL: v.cfg.PayURL + "?" + query + "&vnp_SecureHash=" + secureHash,
		Reference:   txnRef,
	}, nil
}

// ParseCallback takes the raw IPN query string. The hash is recomputed over
// every vnp_ parameter except the hash fields themselves.
func (v *VNPay) ParseCallback(raw []byte) (*CallbackResult, error) {
	params, err := url.ParseQuery(string(raw))
	if err != nil {
		return nil, ErrInvalidSignature
	}

	provided := params.Get("vnp_SecureHash")
	if provided == "" {
		return nil, ErrInvalidSignature
	}
	params.Del("vnp_SecureHash")
	params.Del("vnp_SecureHashType")

	expected := hmacHex(sha512.New, v.cfg.HashSecret, canonicalize(params))
	if !macEqual(expected, strings.ToLower(provided)) {
		return nil, ErrInvalidSignature
	}

	rawAmount, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, ErrInvalidSignature
	}

	succeeded := params.Get("vnp_ResponseCode") == "00" &&
		params.Get("vnp_TransactionStatus") == "00"

	return &CallbackResult{
		Reference:     params.Get("vnp_TxnRef"),
		Amount:        rawAmount / 100,
		Succeeded:     succeeded,
		TransactionID: params.Get("vnp_TransactionNo"),
	}, nil
}

// OrderNumberFromReference inverts vnp_TxnRef = <orderNumber>-<unix>.
func (v *VNPay) OrderNumberFromReference(reference string) (string, error) {
	i := strings.LastIndex(reference, "-")
	if i <= 0 {
		return "", fmt.Errorf("malformed vnp_TxnRef %q", reference)
	}
	return reference[:i], nil
}

type vnpayAck struct {
	RspCode string `json:"RspCode"`
	Message string `json:"Message"`
}

func (v *VNPay) Ack(outcome AckOutcome) any {
	switch outcome {
	case AckSuccess:
		return vnpayAck{RspCode: "00", Message: "Confirm Success"}
	case AckAlreadyConfirmed:
		return vnpayAck{RspCode: "02", Message: "Order already confirmed"}
	case AckOrderNotFound:
		return vnpayAck{RspCode: "01", Message: "Order not found"}
	case AckAmountMismatch:
		return vnpayAck{RspCode: "04", Message: "Invalid amount"}
	case AckInvalidSignature:
		return vnpayAck{RspCode: "97", Message: "Invalid signature"}
	default:
		return vnpayAck{RspCode: "99", Message: "Unknown error"}
	}
}

// QueryStatus is unsupported: the querydr API needs the original transaction
// date, which the IPN flow does not retain. Reconciliation skips this gateway.
func (v *VNPay) QueryStatus(context.Context, string) (PaymentState, error) {
	return "", ErrQueryNotSupported
}

var _ Adapter = (*VNPay)(nil)
