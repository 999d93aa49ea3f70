// Package payment hands a UPI request to the user's payment app.
package payment

import (
	"log/slog"
	"strings"

	"github.com/pkg/browser"
)

const upiScheme = "upi://pay"

// Opener opens a URL with whatever the platform registered for its scheme.
type Opener func(rawURL string) error

// BrowserOpener uses the platform's default URL handler.
func BrowserOpener() Opener {
	return browser.OpenURL
}

// Handler rewrites a UPI URL for one payment app.
type Handler interface {
	AppName() string
	Transform(upiURL string) string
}

type schemeHandler struct {
	name   string
	prefix string
}

func (h schemeHandler) AppName() string { return h.name }

func (h schemeHandler) Transform(upiURL string) string {
	if len(upiURL) >= len(upiScheme) && strings.EqualFold(upiURL[:len(upiScheme)], upiScheme) {
		return h.prefix + upiURL[len(upiScheme):]
	}
	return upiURL
}

// DefaultHandlers returns the payment apps we know deep-link schemes for.
func DefaultHandlers() []Handler {
	return []Handler{
		schemeHandler{name: "Google Pay", prefix: "tez://upi/pay"},
		schemeHandler{name: "PhonePe", prefix: "phonepe://pay"},
		schemeHandler{name: "Paytm", prefix: "paytmmp://pay"},
	}
}

// Launcher opens payment apps without waiting for the result.
type Launcher struct {
	handlers map[string]Handler
	open     Opener
}

func NewLauncher(open Opener, handlers ...Handler) *Launcher {
	if len(handlers) == 0 {
		handlers = DefaultHandlers()
	}
	l := &Launcher{handlers: make(map[string]Handler, len(handlers)), open: open}
	for _, h := range handlers {
		l.handlers[strings.ToLower(h.AppName())] = h
	}
	return l
}

// URLFor returns the URL that will be opened for the given app.
// Unknown apps get the generic upi:// URL.
func (l *Launcher) URLFor(rawURL, app string) string {
	normalized := strings.TrimSpace(rawURL)
	if h, ok := l.handlers[strings.ToLower(strings.TrimSpace(app))]; ok {
		return h.Transform(normalized)
	}
	return normalized
}

// Open fires the payment intent. Failures are logged; the pending transaction
// stays in place either way.
func (l *Launcher) Open(rawURL, app string) {
	target := l.URLFor(rawURL, app)
	if target == "" || l.open == nil {
		slog.Warn("payment launch skipped", "app", app)
		return
	}
	if err := l.open(target); err != nil {
		slog.Error("failed to open payment app", "app", app, "error", err)
		return
	}
	slog.Info("payment app opened", "app", app)
}
