package gateway

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vhxmt/doantotnghiep-sub001/internal/config"
)

// ZaloPay signs a pipe-delimited fixed field order with HMAC-SHA256. Requests
// are created server-to-server; callbacks arrive as a JSON body whose data
// string is MAC'd with a separate verification key (key2).
type ZaloPay struct {
	cfg        config.ZaloPayConfig
	httpClient *http.Client
	now        func() time.Time
}

func NewZaloPay(cfg config.ZaloPayConfig) *ZaloPay {
	return &ZaloPay{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		now:        time.Now,
	}
}

func (z *ZaloPay) Name() string { return "zalopay" }

type zaloPayCreateResponse struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
	OrderURL      string `json:"order_url"`
	ZpTransToken  string `json:"zp_trans_token"`
}

func (z *ZaloPay) BuildPaymentRequest(ctx context.Context, order PaymentOrder) (*PaymentRequest, error) {
	now := z.now()
	appTransID := fmt.Sprintf("%s_%s-%d", now.Format("060102"), order.OrderNumber, now.Unix())
	appUser := strconv.FormatUint(order.UserID, 10)
	appTime := strconv.FormatInt(now.UnixMilli(), 10)
	amount := strconv.FormatInt(order.Amount, 10)

	embed, _ := json.Marshal(map[string]string{"redirecturl": z.cfg.RedirectURL})
	embedData := string(embed)
	item := "[]"

	// mac = HMAC-SHA256(key1, app_id|app_trans_id|app_user|amount|app_time|embed_data|item)
	data := strings.Join([]string{z.cfg.AppID, appTransID, appUser, amount, appTime, embedData, item}, "|")
	mac := hmacHex(sha256.New, z.cfg.Key1, data)

	form := url.Values{}
	form.Set("app_id", z.cfg.AppID)
	form.Set("app_trans_id", appTransID)
	form.Set("app_user", appUser)
	form.Set("app_time", appTime)
	form.Set("amount", amount)
	form.Set("embed_data", embedData)
	form.Set("item", item)
	form.Set("description", order.Description)
	form.Set("callback_url", z.cfg.CallbackURL)
	form.Set("mac", mac)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.cfg.Endpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return nil, &ExternalGatewayError{Gateway: z.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &ExternalGatewayError{
			Gateway: z.Name(),
			Err:     fmt.Errorf("create order returned status %d", resp.StatusCode),
		}
	}

	var out zaloPayCreateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, &ExternalGatewayError{Gateway: z.Name(), Err: err}
	}
	if out.ReturnCode != 1 {
		return nil, &ExternalGatewayError{
			Gateway: z.Name(),
			Err:     fmt.Errorf("create order rejected: %d %s", out.ReturnCode, out.ReturnMessage),
		}
	}

	return &PaymentRequest{RedirectURL: out.OrderURL, Reference: appTransID}, nil
}

type zaloPayCallback struct {
	Data string `json:"data"`
	Mac  string `json:"mac"`
	Type int    `json:"type"`
}

type zaloPayCallbackData struct {
	AppTransID string `json:"app_trans_id"`
	AppUser    string `json:"app_user"`
	Amount     int64  `json:"amount"`
	ZpTransID  int64  `json:"zp_trans_id"`
	ServerTime int64  `json:"server_time"`
}

// ParseCallback verifies mac = HMAC-SHA256(key2, data) before touching the
// payload. ZaloPay only delivers callbacks for successful payments.
func (z *ZaloPay) ParseCallback(raw []byte) (*CallbackResult, error) {
	var cb zaloPayCallback
	if err := json.Unmarshal(raw, &cb); err != nil {
		return nil, ErrInvalidSignature
	}

	expected := hmacHex(sha256.New, z.cfg.Key2, cb.Data)
	if !macEqual(expected, cb.Mac) {
		return nil, ErrInvalidSignature
	}

	var data zaloPayCallbackData
	if err := json.Unmarshal([]byte(cb.Data), &data); err != nil {
		return nil, ErrInvalidSignature
	}

	return &CallbackResult{
		Reference:     data.AppTransID,
		Amount:        data.Amount,
		Succeeded:     true,
		TransactionID: strconv.FormatInt(data.ZpTransID, 10),
	}, nil
}

// OrderNumberFromReference inverts app_trans_id = yymmdd_<orderNumber>-<unix>.
func (z *ZaloPay) OrderNumberFromReference(reference string) (string, error) {
	_, rest, ok := strings.Cut(reference, "_")
	if !ok {
		return "", fmt.Errorf("malformed app_trans_id %q", reference)
	}
	i := strings.LastIndex(rest, "-")
	if i <= 0 {
		return "", fmt.Errorf("malformed app_trans_id %q", reference)
	}
	return rest[:i], nil
}

type zaloPayAck struct {
	ReturnCode    int    `json:"return_code"`
	ReturnMessage string `json:"return_message"`
}

// Ack codes: 1 terminal success, -1 terminal rejection, 0 transient (the
// gateway retries). Not-found and amount-mismatch are terminal rejections.
func (z *ZaloPay) Ack(outcome AckOutcome) any {
	switch outcome {
	case AckSuccess, AckAlreadyConfirmed:
		return zaloPayAck{ReturnCode: 1, ReturnMessage: "success"}
	case AckInvalidSignature:
		return zaloPayAck{ReturnCode: -1, ReturnMessage: "mac not equal"}
	case AckOrderNotFound:
		return zaloPayAck{ReturnCode: -1, ReturnMessage: "order not found"}
	case AckAmountMismatch:
		return zaloPayAck{ReturnCode: -1, ReturnMessage: "amount invalid"}
	default:
		return zaloPayAck{ReturnCode: 0, ReturnMessage: "internal error"}
	}
}

type zaloPayQueryResponse struct {
	ReturnCode   int   `json:"return_code"`
	IsProcessing bool  `json:"is_processing"`
	ZpTransID    int64 `json:"zp_trans_id"`
}

func (z *ZaloPay) QueryStatus(ctx context.Context, reference string) (PaymentState, error) {
	mac := hmacHex(sha256.New, z.cfg.Key1,
		strings.Join([]string{z.cfg.AppID, reference, z.cfg.Key1}, "|"))

	form := url.Values{}
	form.Set("app_id", z.cfg.AppID)
	form.Set("app_trans_id", reference)
	form.Set("mac", mac)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.cfg.QueryURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := z.httpClient.Do(req)
	if err != nil {
		return "", &ExternalGatewayError{Gateway: z.Name(), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", &ExternalGatewayError{
			Gateway: z.Name(),
			Err:     fmt.Errorf("query returned status %d", resp.StatusCode),
		}
	}

	var out zaloPayQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", &ExternalGatewayError{Gateway: z.Name(), Err: err}
	}

	switch {
	case out.ReturnCode == 1:
		return StatePaid, nil
	case out.IsProcessing:
		return StatePending, nil
	default:
		return StateFailed, nil
	}
}

var _ Adapter = (*ZaloPay)(nil)
