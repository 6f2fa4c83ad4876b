package razorpayrepo

type CreateOrderReq struct {
	Amount   float64 // rupees; sent to the gateway in paise
	Currency string
	Receipt  string
}

type CreateOrderResp struct {
	OrderID  string
	Amount   float64
	Currency string
}

type Repo interface {
	CreateOrder(req CreateOrderReq) (*CreateOrderResp, error)
	// VerifySignature checks the HMAC the gateway sends with a payment
	// callback. A callback is never trusted before this passes.
	VerifySignature(orderID, paymentID, signature string) error
}
