package payfast

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Client builds and verifies Payfast payment requests for one merchant
// account.
type Client struct {
	MerchantID  string
	MerchantKey string
	Passphrase  string
	ProcessURL  string
	ReturnURL   string
	CancelURL   string
	NotifyURL   string
}

// PaymentRequest is the checkout data turned into gateway fields.
type PaymentRequest struct {
	UserID        uuid.UUID
	Name          string
	Email         string
	CellNumber    string
	Amount        decimal.Decimal
	ItemName      string
	PurchaseType  string
	CustomPayload string // compact JSON, truncated to the gateway field limit
}

// Payment is the signed field set the client posts to the gateway.
type Payment struct {
	ProcessURL string
	Reference  string
	Fields     map[string]string
}

// customPayloadLimit is the gateway's custom_str field size.
const customPayloadLimit = 255

// Sign computes the MD5 signature over the sorted non-empty fields.
// Each value is trimmed and urlencoded with spaces as '+'; the passphrase,
// when set, is appended last.
func Sign(fields map[string]string, passphrase string) string {
	keys := make([]string, 0, len(fields))
	for k, v := range fields {
		if k == "signature" || strings.TrimSpace(v) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(strings.TrimSpace(fields[k])))
	}
	if passphrase != "" {
		b.WriteString("&passphrase=")
		b.WriteString(url.QueryEscape(passphrase))
	}

	sum := md5.Sum([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// BuildPaymentRequest assembles the signed gateway fields for a checkout.
func (c *Client) BuildPaymentRequest(req PaymentRequest) (*Payment, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("amount must be positive, got %s", req.Amount)
	}

	first, last := splitName(req.Name)
	reference := MerchantReference(req.UserID)

	payload := req.CustomPayload
	if len(payload) > customPayloadLimit {
		payload = payload[:customPayloadLimit]
	}

	fields := map[string]string{
		"merchant_id":   c.MerchantID,
		"merchant_key":  c.MerchantKey,
		"return_url":    c.ReturnURL,
		"cancel_url":    c.CancelURL,
		"notify_url":    c.NotifyURL,
		"name_first":    first,
		"name_last":     last,
		"email_address": req.Email,
		"cell_number":   FormatCellNumber(req.CellNumber),
		"m_payment_id":  reference,
		"amount":        req.Amount.StringFixed(2),
		"item_name":     req.ItemName,
		"custom_str1":   req.PurchaseType,
		"custom_str2":   payload,
	}
	fields["signature"] = Sign(fields, c.Passphrase)

	return &Payment{
		ProcessURL: c.ProcessURL,
		Reference:  reference,
		Fields:     fields,
	}, nil
}

// VerifyNotification recomputes the signature over the posted ITN fields and
// compares it to the one the gateway sent. Callers must reject the
// notification before touching any domain state when this returns false.
func (c *Client) VerifyNotification(form url.Values) bool {
	received := form.Get("signature")
	if received == "" {
		return false
	}

	fields := make(map[string]string, len(form))
	for k := range form {
		if k == "signature" {
			continue
		}
		fields[k] = form.Get(k)
	}

	return Sign(fields, c.Passphrase) == received
}

// MerchantReference generates a unique payment reference from the timestamp
// and the tail of the user ID.
func MerchantReference(userID uuid.UUID) string {
	id := strings.ReplaceAll(userID.String(), "-", "")
	return fmt.Sprintf("TG%d%s", time.Now().UnixMilli(), id[len(id)-4:])
}

// FormatCellNumber normalizes a South African cell number to international
// form without the plus sign (27XXXXXXXXX). Empty input stays empty.
func FormatCellNumber(raw string) string {
	var digits strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	n := digits.String()
	switch {
	case n == "":
		return ""
	case strings.HasPrefix(n, "27"):
		return n
	case strings.HasPrefix(n, "0"):
		return "27" + n[1:]
	case len(n) == 9:
		return "27" + n
	}
	return n
}

func splitName(name string) (string, string) {
	parts := strings.Fields(name)
	if len(parts) == 0 {
		return "", ""
	}
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.Join(parts[1:], " ")
}
