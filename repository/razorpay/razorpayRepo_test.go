package razorpayrepo

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	r := NewHTTP("key_id", "secret_key")

	good := sign("secret_key", "order_abc", "pay_1")
	require.NoError(t, r.VerifySignature("order_abc", "pay_1", good))

	assert.Error(t, r.VerifySignature("order_abc", "pay_1", sign("wrong_key", "order_abc", "pay_1")))
	assert.Error(t, r.VerifySignature("order_abc", "pay_2", good), "signature is bound to the payment id")
	assert.Error(t, r.VerifySignature("order_abc", "pay_1", ""))
}
