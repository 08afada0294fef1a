package paygate

// Request/response DTOs for the payment gateway. The engine treats every
// identifier here as opaque.

type CheckoutInput struct {
	DealID        string
	Amount        int64 // minor units
	Currency      string
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

type SubscriptionInput struct {
	DealID        string
	Amount        int64 // minor units, charged per interval
	Currency      string
	Interval      string // MONTHLY, YEARLY
	Description   string
	CustomerEmail string
	SuccessURL    string
	CancelURL     string
}

// CheckoutSession is what the caller redirects the payer to.
type CheckoutSession struct {
	ID             string `json:"id"`
	URL            string `json:"url"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	PriceID        string `json:"price_id,omitempty"`
}

type RefundInput struct {
	SessionID string
	Amount    int64 // 0 means full refund
	Reason    string
}

type RefundResult struct {
	ID     string `json:"id"`
	Amount int64  `json:"amount"`
	Status string `json:"status"`
}

// Session is the retrieve-session view used for webhook verification.
type Session struct {
	ID             string `json:"id"`
	Status         string `json:"status"`
	Paid           bool   `json:"paid"`
	AmountTotal    int64  `json:"amount_total"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	Reference      string `json:"client_reference_id,omitempty"`
}

type checkoutRequest struct {
	Amount            int64  `json:"amount"`
	Currency          string `json:"currency"`
	Mode              string `json:"mode"` // payment | subscription
	Interval          string `json:"interval,omitempty"`
	Description       string `json:"description,omitempty"`
	CustomerEmail     string `json:"customer_email,omitempty"`
	SuccessURL        string `json:"success_url"`
	CancelURL         string `json:"cancel_url"`
	ExternalReference string `json:"external_reference"`
}

type refundRequest struct {
	Session string `json:"session"`
	Amount  int64  `json:"amount,omitempty"`
	Reason  string `json:"reason,omitempty"`
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
