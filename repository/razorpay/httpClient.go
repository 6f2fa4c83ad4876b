package razorpayrepo

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"carrental/util/httpx"
)

type httpRepo struct {
	keyID  string
	secret string
	client *http.Client
}

func NewHTTP(keyID, secret string) Repo {
	return &httpRepo{keyID: keyID, secret: secret, client: httpx.Client()}
}

func (r *httpRepo) CreateOrder(req CreateOrderReq) (*CreateOrderResp, error) {
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	body := map[string]any{
		"amount":   int64(req.Amount * 100),
		"currency": currency,
		"receipt":  req.Receipt,
	}
	b, _ := json.Marshal(body)
	httpReq, _ := http.NewRequest("POST", "https://api.razorpay.com/v1/orders", bytes.NewReader(b))
	httpReq.SetBasicAuth(r.keyID, r.secret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("razorpay create order failed: %s", resp.Status)
	}

	var out struct {
		ID       string `json:"id"`
		Amount   int64  `json:"amount"`
		Currency string `json:"currency"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	if out.ID == "" {
		return nil, errors.New("razorpay: empty order id")
	}

	return &CreateOrderResp{
		OrderID:  out.ID,
		Amount:   float64(out.Amount) / 100,
		Currency: out.Currency,
	}, nil
}

// VerifySignature implements the gateway's scheme: hex HMAC-SHA256 of
// "order_id|payment_id" keyed by the API secret.
func (r *httpRepo) VerifySignature(orderID, paymentID, signature string) error {
	mac := hmac.New(sha256.New, []byte(r.secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	want := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(signature)) {
		return errors.New("razorpay: signature mismatch")
	}
	return nil
}
