package scraper

import (
	"context"
	"fmt"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/use-agent/cartprobe/pipeline"
	"github.com/ysmood/gson"
)

// Element wraps a rod element as a pipeline.Element.
type Element struct {
	el *rod.Element
}

var _ pipeline.Element = (*Element)(nil)

// Scripts run with the element bound to this.
const (
	jsDispatchClick    = `() => this.click()`
	jsScrollIntoCenter = `() => this.scrollIntoView({block: "center", inline: "center"})`
	jsForceEnable      = `() => {
		this.disabled = false;
		this.removeAttribute("disabled");
		this.removeAttribute("aria-disabled");
		this.classList.remove("disabled");
	}`
	jsDisabledState = `() => ({
		disabled: this.disabled === true,
		aria: this.getAttribute("aria-disabled"),
		classed: this.classList.contains("disabled")
	})`
)

func (e *Element) Click(ctx context.Context) error {
	if err := e.el.Context(ctx).Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("click failed: %w", err)
	}
	return nil
}

func (e *Element) DispatchClick(ctx context.Context) error {
	if _, err := e.el.Context(ctx).Eval(jsDispatchClick); err != nil {
		return fmt.Errorf("script click failed: %w", err)
	}
	return nil
}

func (e *Element) ScrollIntoCenter(ctx context.Context) error {
	if _, err := e.el.Context(ctx).Eval(jsScrollIntoCenter); err != nil {
		return fmt.Errorf("scroll into view failed: %w", err)
	}
	return nil
}

// Enabled reports false when the control is disabled by property,
// by aria-disabled="true", or by a "disabled" class.
func (e *Element) Enabled(ctx context.Context) (bool, error) {
	res, err := e.el.Context(ctx).Eval(jsDisabledState)
	if err != nil {
		return false, fmt.Errorf("reading disabled state failed: %w", err)
	}
	return enabledFrom(res.Value), nil
}

func (e *Element) ForceEnable(ctx context.Context) error {
	if _, err := e.el.Context(ctx).Eval(jsForceEnable); err != nil {
		return fmt.Errorf("force enable failed: %w", err)
	}
	return nil
}

func enabledFrom(v gson.JSON) bool {
	if v.Get("disabled").Bool() || v.Get("classed").Bool() {
		return false
	}
	return v.Get("aria").Str() != "true"
}
