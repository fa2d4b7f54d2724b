package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/use-agent/cartprobe/config"
	"github.com/use-agent/cartprobe/models"
)

var errWaitTimeout = errors.New("wait timed out")

// fakeElement scripts an element's enabled state and counts interactions.
type fakeElement struct {
	// enabledAfter is the number of Enabled calls returning false before
	// the element reports enabled; negative means never.
	enabledAfter int

	enabledCalls   int
	forceCalls     int
	clicks         int
	dispatchClicks int
	scrolls        int

	// onDispatch runs on DispatchClick, e.g. to reveal the confirmation.
	onDispatch func()

	clickErr error
}

func (e *fakeElement) Click(context.Context) error {
	e.clicks++
	return e.clickErr
}

func (e *fakeElement) DispatchClick(context.Context) error {
	e.dispatchClicks++
	if e.onDispatch != nil {
		e.onDispatch()
	}
	return nil
}

func (e *fakeElement) ScrollIntoCenter(context.Context) error {
	e.scrolls++
	return nil
}

func (e *fakeElement) Enabled(context.Context) (bool, error) {
	e.enabledCalls++
	if e.forceCalls > 0 {
		return true, nil
	}
	if e.enabledAfter < 0 {
		return false, nil
	}
	return e.enabledCalls > e.enabledAfter, nil
}

func (e *fakeElement) ForceEnable(context.Context) error {
	e.forceCalls++
	return nil
}

// fakePage serves scripted HTML and element lookups without a browser.
type fakePage struct {
	// pages maps URL to the HTML snapshots served in order after navigating
	// there; the last snapshot repeats.
	pages map[string][]string

	// clickable, present and visible map selectors to elements. A missing
	// selector behaves like a wait timeout.
	clickable map[string]*fakeElement
	present   map[string]*fakeElement
	visible   map[string]*fakeElement

	navErr   map[string]error
	panicOn  string
	current  string
	htmlCall int

	navigations []string
	screenshots int
	scrolls     int
}

func newFakePage() *fakePage {
	return &fakePage{
		pages:     map[string][]string{},
		clickable: map[string]*fakeElement{},
		present:   map[string]*fakeElement{},
		visible:   map[string]*fakeElement{},
		navErr:    map[string]error{},
	}
}

func (p *fakePage) Navigate(_ context.Context, url string) error {
	if url == p.panicOn {
		panic("renderer exploded")
	}
	p.navigations = append(p.navigations, url)
	if err := p.navErr[url]; err != nil {
		return err
	}
	p.current = url
	p.htmlCall = 0
	return nil
}

func (p *fakePage) HTML(context.Context) (string, error) {
	snaps := p.pages[p.current]
	if len(snaps) == 0 {
		return "<html><body></body></html>", nil
	}
	i := p.htmlCall
	if i >= len(snaps) {
		i = len(snaps) - 1
	}
	p.htmlCall++
	return snaps[i], nil
}

func (p *fakePage) Screenshot(context.Context) ([]byte, error) {
	p.screenshots++
	return []byte(fmt.Sprintf("png:%s:%d", p.current, p.screenshots)), nil
}

func (p *fakePage) ScrollViewport(context.Context) error {
	p.scrolls++
	return nil
}

func lookup(m map[string]*fakeElement, sel string) (Element, error) {
	if el, ok := m[sel]; ok {
		return el, nil
	}
	return nil, errWaitTimeout
}

func (p *fakePage) WaitClickable(_ context.Context, sel string, _ time.Duration) (Element, error) {
	return lookup(p.clickable, sel)
}

func (p *fakePage) WaitPresent(_ context.Context, sel string, _ time.Duration) (Element, error) {
	return lookup(p.present, sel)
}

func (p *fakePage) WaitVisible(_ context.Context, sel string, _ time.Duration) (Element, error) {
	return lookup(p.visible, sel)
}

// memArtifacts records artifacts in memory.
type memArtifacts struct {
	screenshots map[string][]byte
	markup      map[string]string
}

func newMemArtifacts() *memArtifacts {
	return &memArtifacts{screenshots: map[string][]byte{}, markup: map[string]string{}}
}

func (a *memArtifacts) SaveScreenshot(name string, png []byte) (string, error) {
	a.screenshots[name] = png
	return "prints/" + name, nil
}

func (a *memArtifacts) SaveMarkup(seq, raw string) (string, error) {
	a.markup[seq] = raw
	return "debug/" + seq + ".html", nil
}

// memSink records flushes.
type memSink struct {
	flushes [][]models.ExtractedRecord
	err     error
}

func (s *memSink) Flush(records []models.ExtractedRecord) (string, error) {
	cp := append([]models.ExtractedRecord(nil), records...)
	s.flushes = append(s.flushes, cp)
	if s.err != nil {
		return "", s.err
	}
	return "carga_saida.xlsx", nil
}

// recordingSleeper returns immediately and remembers requested pauses.
type recordingSleeper struct {
	calls []time.Duration
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return ctx.Err()
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func fixedNow() time.Time {
	return time.Date(2025, 5, 20, 14, 30, 0, 0, time.UTC)
}

func testConfig() *config.Config {
	cfg := config.Load()
	cfg.Overlay.Selectors = []string{".close", ".newsletter .close", ".cookie button", ".vendor-close"}
	cfg.Cart.PurchaseSelector = "#buy"
	cfg.Cart.ConfirmSelector = ".minicart"
	cfg.Cart.PageURL = ""
	return cfg
}

// productHTML renders a product page. Empty arguments leave the line out.
func productHTML(name, cash, original, availability string) string {
	body := ""
	if name != "" {
		body += "<h1>" + name + "</h1>"
	}
	if original != "" {
		body += `<span class="old">` + original + "</span>"
	}
	if cash != "" {
		body += `<span class="cash">` + cash + "</span>"
	}
	if availability != "" {
		body += `<p class="stock">` + availability + "</p>"
	}
	return "<html><body><main>" + body + "</main></body></html>"
}
