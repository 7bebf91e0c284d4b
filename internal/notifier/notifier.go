// Package notifier forwards order and payment events to the spreadsheet webhook
// and the TikTok Events API. Every dispatch is best-effort and detached from
// the HTTP request that triggered it: there is no ordering guarantee relative
// to the response, failures are logged and dropped, nothing is retried.
package notifier

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"

	"pixrelay/api/internal/errs"
	"pixrelay/api/internal/logger"
)

const (
	DefaultTimeout = 10 * time.Second

	sinkSheets = "sheets"
	sinkTikTok = "tiktok"
)

// placeholderMarkers flag values copied from .env.example and never filled in.
var placeholderMarkers = []string{"SEU_ID_AQUI", "SEU_TOKEN_AQUI", "YOUR_", "EXAMPLE"}

// Options configures a Notifier. Empty or placeholder destinations disable their sink.
type Options struct {
	SheetsURL      string
	TikTokToken    string
	TikTokPixelID  string
	TikTokEndpoint string
	Timeout        time.Duration
}

// Notifier dispatches side effects on background goroutines.
type Notifier struct {
	sheetsURL      string
	tiktokToken    string
	tiktokPixelID  string
	tiktokEndpoint string
	timeout        time.Duration

	client *fasthttp.Client
	now    func() time.Time
	wg     sync.WaitGroup
}

func New(opts Options) *Notifier {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.TikTokPixelID == "" {
		opts.TikTokPixelID = DefaultPixelID
	}
	if opts.TikTokEndpoint == "" {
		opts.TikTokEndpoint = TikTokEventsURL
	}
	return &Notifier{
		sheetsURL:      opts.SheetsURL,
		tiktokToken:    opts.TikTokToken,
		tiktokPixelID:  opts.TikTokPixelID,
		tiktokEndpoint: opts.TikTokEndpoint,
		timeout:        opts.Timeout,
		client: &fasthttp.Client{
			Name:                "pixrelay",
			MaxIdleConnDuration: 30 * time.Second,
		},
		now: time.Now,
	}
}

// SheetsEnabled reports whether the spreadsheet webhook is configured.
func (n *Notifier) SheetsEnabled() bool { return configured(n.sheetsURL) }

// TrackingEnabled reports whether the TikTok Events API is configured.
func (n *Notifier) TrackingEnabled() bool { return configured(n.tiktokToken) }

// OrderCreated forwards a freshly created charge to the spreadsheet.
func (n *Notifier) OrderCreated(evt OrderEvent) {
	if !n.SheetsEnabled() {
		return
	}
	evt.Type = EventPixOrder
	evt.Timestamp = isoTimestamp(n.now())
	n.dispatch(sinkSheets, func(deadline time.Time) error {
		return n.postJSON(sinkSheets, n.sheetsURL, nil, evt, deadline)
	})
}

// PaymentConfirmed forwards a paid order to the spreadsheet and, when a
// tracking token is configured, reports a CompletePayment conversion.
func (n *Notifier) PaymentConfirmed(evt PaymentConfirmedEvent) {
	if n.SheetsEnabled() {
		row := evt
		row.Type = EventPaymentConfirmed
		row.Timestamp = isoTimestamp(n.now())
		n.dispatch(sinkSheets, func(deadline time.Time) error {
			return n.postJSON(sinkSheets, n.sheetsURL, nil, row, deadline)
		})
	}
	if n.TrackingEnabled() {
		body := n.completePayment(evt)
		n.dispatch(sinkTikTok, func(deadline time.Time) error {
			return n.postJSON(sinkTikTok, n.tiktokEndpoint, map[string]string{"Access-Token": n.tiktokToken}, body, deadline)
		})
	}
}

// Wait blocks until every dispatched side effect has finished.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) dispatch(sink string, fn func(deadline time.Time) error) {
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Errorf("[NOTIFIER] panic ao enviar para %s: %v", sink, r)
			}
		}()
		if err := fn(time.Now().Add(n.timeout)); err != nil {
			logger.Errorf("[NOTIFIER] Erro ao enviar para %s: %v", sink, err)
			return
		}
		logger.Debugf("[NOTIFIER] evento enviado para %s", sink)
	}()
}

func (n *Notifier) postJSON(sink, url string, headers map[string]string, body interface{}, deadline time.Time) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return &errs.NotifierError{Sink: sink, Err: fmt.Errorf("marshal: %w", err)}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentType("application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	req.SetBody(payload)

	if err := n.client.DoDeadline(req, resp, deadline); err != nil {
		return &errs.NotifierError{Sink: sink, Err: err}
	}
	// Apps Script answers POSTs with a redirect; anything below 400 is delivered.
	if resp.StatusCode() >= 400 {
		return &errs.NotifierError{Sink: sink, Status: resp.StatusCode()}
	}
	return nil
}

func configured(v string) bool {
	v = strings.TrimSpace(v)
	if v == "" {
		return false
	}
	upper := strings.ToUpper(v)
	for _, marker := range placeholderMarkers {
		if strings.Contains(upper, marker) {
			return false
		}
	}
	return true
}

// isoTimestamp matches JavaScript's Date.toISOString, which the spreadsheet script parses.
func isoTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
