package lnbits

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// CreateInvoice creates an incoming payment request on a wallet
func (c *Client) CreateInvoice(ctx context.Context, wallet *Wallet, amount int64, memo string) (*Invoice, error) {
	payload := map[string]any{
		"out":    false,
		"amount": amount,
		"memo":   memo,
		"unit":   "sat",
	}
	var invoice Invoice
	if err := c.Request(ctx, http.MethodPost, "/payments", wallet.AdminKey, "", nil, payload, &invoice); err != nil {
		return nil, err
	}
	return &invoice, nil
}

// PayInvoice pays a bolt11 payment request from a wallet
func (c *Client) PayInvoice(ctx context.Context, wallet *Wallet, bolt11 string) error {
	payload := map[string]any{
		"out":    true,
		"bolt11": bolt11,
	}
	return c.Request(ctx, http.MethodPost, "/payments", wallet.AdminKey, "", nil, payload, nil)
}

// SendPayment moves amount sats from sender to receiver, provisioning
// the receiver on first contact. The sequence is invoice-then-debit and
// is not atomic: when the debit fails the receiver is left with an
// unpaid invoice and the sender's balance is untouched. Callers must
// treat any error as "not settled".
func (c *Client) SendPayment(ctx context.Context, sender, receiver Identity, amount int64, memo string) (*Wallet, error) {
	senderWallet, err := c.GetUserWallet(ctx, sender)
	if err != nil {
		return nil, err
	}
	if senderWallet == nil {
		return nil, fmt.Errorf("no wallet for user %s", sender.Username)
	}

	receiverWallet, err := c.GetOrCreateWallet(ctx, receiver)
	if err != nil {
		return nil, err
	}

	invoice, err := c.CreateInvoice(ctx, receiverWallet, amount, memo)
	if err != nil {
		return nil, err
	}

	if err := c.PayInvoice(ctx, senderWallet, invoice.PaymentRequest); err != nil {
		return nil, err
	}

	return receiverWallet, nil
}

// EnableExtension activates a platform extension for a user's account
func (c *Client) EnableExtension(ctx context.Context, userID, extension string) error {
	query := url.Values{
		"userid":    {userID},
		"extension": {extension},
		"active":    {"true"},
	}
	return c.Request(ctx, http.MethodPost, "/extensions", c.adminKey, extUsermanager, query, nil, nil)
}

// CreateWithdrawLink creates a single-use withdraw link with equal
// min/max, claimable exactly once
func (c *Client) CreateWithdrawLink(ctx context.Context, wallet *Wallet, title string, amount int64) (*WithdrawLink, error) {
	if err := c.EnableExtension(ctx, wallet.User, extWithdraw); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"title":            title,
		"min_withdrawable": amount,
		"max_withdrawable": amount,
		"uses":             1,
		"wait_time":        1,
		"is_unique":        true,
	}
	var link WithdrawLink
	if err := c.Request(ctx, http.MethodPost, "/links", wallet.AdminKey, extWithdraw, nil, payload, &link); err != nil {
		return nil, err
	}
	return &link, nil
}

// ScanLNURL decodes a withdraw LNURL through the platform
func (c *Client) ScanLNURL(ctx context.Context, wallet *Wallet, lnurl string) (*LNURLScan, error) {
	var scan LNURLScan
	if err := c.Request(ctx, http.MethodGet, "/lnurlscan/"+lnurl, wallet.AdminKey, "", nil, nil, &scan); err != nil {
		return nil, err
	}
	return &scan, nil
}

// RedeemLNURL claims a scanned withdraw LNURL into a wallet
func (c *Client) RedeemLNURL(ctx context.Context, wallet *Wallet, scan *LNURLScan) error {
	payload := map[string]any{
		"lnurl_callback": scan.Callback,
		"amount":         scan.MaxWithdrawable / 1000,
		"memo":           scan.DefaultDescription,
		"out":            false,
		"unit":           "sat",
	}
	return c.Request(ctx, http.MethodPost, "/payments", wallet.AdminKey, "", nil, payload, nil)
}
