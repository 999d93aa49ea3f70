// Package upi classifies and reads UPI payment URLs produced by QR scans.
package upi

import (
	"errors"
	"net/url"
	"regexp"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

const (
	scheme           = "upi://pay"
	unknownPayee     = "Unknown Payee"
	personalMerchant = "0000"
)

// ErrInvalidQR is returned for content that is not a UPI payment URL.
var ErrInvalidQR = errors.New("not a valid UPI payment QR code")

// QRType is the kind of payment request a scanned code carries.
type QRType int

const (
	QRInvalid QRType = iota
	QRPersonal
	QRMerchant
)

func (t QRType) String() string {
	switch t {
	case QRPersonal:
		return "personal"
	case QRMerchant:
		return "merchant"
	default:
		return "invalid"
	}
}

// MarshalText writes the type by name so JSON clients see "merchant" or
// "personal".
func (t QRType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

var (
	payeeParam     = regexp.MustCompile(`[?&]pa=`)
	merchantCode   = regexp.MustCompile(`[?&]mc=([^&]+)`)
	merchantParams = regexp.MustCompile(`[?&](orgid|sign)=`)
	pathAddress    = regexp.MustCompile(`(?i)upi://pay/([^?&;]+)`)
	schemePrefix   = regexp.MustCompile(`(?i)upi://pay`)
)

// Classify decides whether raw scanned content is a merchant or personal UPI
// payment request. No percent-decoding happens here.
func Classify(raw string) QRType {
	cleaned := strings.ToLower(strings.TrimSpace(raw))
	if !strings.HasPrefix(cleaned, scheme) || !payeeParam.MatchString(cleaned) {
		return QRInvalid
	}

	if m := merchantCode.FindStringSubmatch(cleaned); m != nil && m[1] != personalMerchant {
		return QRMerchant
	}
	if merchantParams.MatchString(cleaned) {
		return QRMerchant
	}
	return QRPersonal
}

func fieldPattern(key string) *regexp.Regexp {
	return regexp.MustCompile(`(?i)(?:[?&;=]|^)` + regexp.QuoteMeta(key) + `=([^&;?]+)`)
}

func decodeValue(v string) string {
	v = strings.ReplaceAll(v, "+", " ")
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

// ParseField extracts a query parameter from a possibly malformed UPI URL.
// The key is matched case-insensitively and may be preceded by ?, &, ; or =.
func ParseField(raw, key string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	if m := fieldPattern(key).FindStringSubmatch(trimmed); m != nil {
		return decodeValue(m[1]), true
	}

	if !strings.EqualFold(key, "pa") {
		return "", false
	}

	if m := pathAddress.FindStringSubmatch(trimmed); m != nil && strings.Contains(m[1], "@") {
		return decodeValue(m[1]), true
	}
	if strings.Contains(trimmed, "@") && !strings.ContainsAny(trimmed, "=:") {
		return trimmed, true
	}
	return "", false
}

// BestPayeeName picks the most readable payee label available in the URL.
func BestPayeeName(raw string) string {
	cleaned := strings.TrimSpace(raw)
	if decoded, err := url.PathUnescape(cleaned); err == nil {
		cleaned = decoded
	}

	if name, ok := ParseField(cleaned, "pn"); ok && strings.TrimSpace(name) != "" {
		return strings.TrimSpace(name)
	}
	if addr, ok := ParseField(cleaned, "pa"); ok && addr != "" {
		return addr
	}

	parts := strings.FieldsFunc(cleaned, func(r rune) bool {
		return strings.ContainsRune("?&;=/", r)
	})
	for _, p := range parts {
		if strings.Contains(p, "@") {
			return p
		}
	}

	residual := schemePrefix.ReplaceAllString(cleaned, "")
	residual = strings.TrimFunc(residual, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSpace(r)
	})
	if residual != "" {
		return residual
	}
	return unknownPayee
}

// Payment is everything the app reads out of a scanned UPI URL.
type Payment struct {
	Type         QRType          `json:"type"`
	PayeeAddress string          `json:"payeeAddress"`
	PayeeName    string          `json:"payeeName"`
	Amount       decimal.Decimal `json:"amount"`
	MerchantCode string          `json:"merchantCode,omitempty"`
	Note         string          `json:"note,omitempty"`
	URL          string          `json:"url"`
}

// Parse classifies raw content and extracts the payment fields. Invalid
// content yields ErrInvalidQR so the caller can scan again.
func Parse(raw string) (*Payment, error) {
	qrType := Classify(raw)
	if qrType == QRInvalid {
		return nil, ErrInvalidQR
	}

	p := &Payment{
		Type:      qrType,
		PayeeName: BestPayeeName(raw),
		Amount:    decimal.Zero,
		URL:       strings.TrimSpace(raw),
	}
	p.PayeeAddress, _ = ParseField(raw, "pa")
	p.MerchantCode, _ = ParseField(raw, "mc")
	p.Note, _ = ParseField(raw, "tn")

	if am, ok := ParseField(raw, "am"); ok {
		if amount, err := decimal.NewFromString(strings.TrimSpace(am)); err == nil && amount.IsPositive() {
			p.Amount = amount
		}
	}
	return p, nil
}
