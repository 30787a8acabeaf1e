// Package payments serves top-up packages, checkout, and transaction
// status. Balances and payment providers live in the backend; this
// package validates input and forwards calls with the user's token.
package payments

// Supported checkout providers.
const (
	ProviderMemo   = "memo" // bank transfer with a reference memo (VietQR)
	ProviderVNPay  = "vnpay"
	ProviderPayPal = "paypal"
)

var providers = []string{ProviderMemo, ProviderVNPay, ProviderPayPal}

// CodeInsufficientBalance is the backend error code for a wallet that
// cannot cover a reading. Clients special-case it via beErrorCode.
const CodeInsufficientBalance = "INSUFFICIENT_BALANCE"

// TopupRequest is the body of POST /api/topups.
type TopupRequest struct {
	PackageID string `json:"packageId"`
	Provider  string `json:"provider"`
}

// StatusRequest is the body of POST /api/transaction/status.
type StatusRequest struct {
	TransactionID string `json:"transactionId"`
}
