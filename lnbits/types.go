package lnbits

import "fmt"

// Identity is the Discord-side reference to a platform user: the
// snowflake, the account name and the current avatar.
type Identity struct {
	ID        string
	Username  string
	AvatarURL string
}

// Wallet is a balance-bearing account on the wallet platform. It is
// referenced here, never owned: the platform's usermanager extension is
// the source of truth.
type Wallet struct {
	ID       string `json:"id"`
	Admin    string `json:"admin"`
	Name     string `json:"name"`
	User     string `json:"user"`
	AdminKey string `json:"adminkey"`
	InKey    string `json:"inkey"`
}

// User is a usermanager user record, tagged with the Discord identity
// through its extra attributes.
type User struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Admin   string            `json:"admin"`
	Email   string            `json:"email"`
	Extra   map[string]string `json:"extra"`
	Wallets []Wallet          `json:"wallets"`
}

// Invoice is a payment request created on a receiving wallet
type Invoice struct {
	PaymentHash    string `json:"payment_hash"`
	PaymentRequest string `json:"payment_request"`
}

// WithdrawLink is a single-use claimable link from the withdraw extension
type WithdrawLink struct {
	ID    string `json:"id"`
	LNURL string `json:"lnurl"`
}

// LNURLScan is the decoded form of a withdraw LNURL
type LNURLScan struct {
	Callback           string `json:"callback"`
	MaxWithdrawable    int64  `json:"maxWithdrawable"`
	DefaultDescription string `json:"defaultDescription"`
}

// APIError is a non-2xx response from the wallet platform. Network
// failures are returned as plain errors; only HTTP-level failures carry
// a status.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("lnbits API error: status %d: %s", e.Status, e.Body)
}

// IsAuthError reports whether the failure is authorization-class, which
// is the one case where a cached wallet key is retried after eviction.
func (e *APIError) IsAuthError() bool {
	return e.Status == 401 || e.Status == 403
}
