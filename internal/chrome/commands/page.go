package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// Page wraps the Page domain plus the in-page wait helpers.
type Page struct {
	C Caller
}

// Navigate loads url and returns the frame id.
func (p Page) Navigate(ctx context.Context, url string) (string, error) {
	resp, err := p.C.Call(ctx, "Page.navigate", map[string]any{"url": url})
	if err != nil {
		return "", err
	}
	return resultString(resp, "frameId"), nil
}

// ScreenshotParams mirror Page.captureScreenshot.
type ScreenshotParams struct {
	Format         string // "png" or "jpeg"; default png
	Quality        int    // jpeg only
	BeyondViewport bool
}

// CaptureScreenshot returns the base64-encoded image data.
func (p Page) CaptureScreenshot(ctx context.Context, params ScreenshotParams) (string, error) {
	format := params.Format
	if format == "" {
		format = "png"
	}
	call := map[string]any{
		"format":                format,
		"captureBeyondViewport": params.BeyondViewport,
	}
	if format == "jpeg" && params.Quality > 0 {
		call["quality"] = params.Quality
	}
	resp, err := p.C.Call(ctx, "Page.captureScreenshot", call)
	if err != nil {
		return "", err
	}
	data := resultString(resp, "data")
	if data == "" {
		return "", fmt.Errorf("Page.captureScreenshot returned no data")
	}
	return data, nil
}

// Title returns document.title.
func (p Page) Title(ctx context.Context) (string, error) {
	v, err := Runtime{C: p.C}.EvaluateValue(ctx, "document.title")
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// Content returns the outer HTML of the document, or of the first node
// matching selector when one is given.
func (p Page) Content(ctx context.Context, selector string) (string, error) {
	expr := "document.documentElement.outerHTML"
	if selector != "" {
		sel, err := json.Marshal(selector)
		if err != nil {
			return "", err
		}
		expr = fmt.Sprintf(`(() => {
  const el = document.querySelector(%s);
  return el ? el.outerHTML : "";
})()`, sel)
	}
	v, err := Runtime{C: p.C}.EvaluateValue(ctx, expr)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// WaitForSelector resolves once a node matching selector exists (and, when
// visible is set, has a non-empty box). A MutationObserver in the page does
// the waiting; the promise rejects on timeout.
func (p Page) WaitForSelector(ctx context.Context, selector string, timeout time.Duration, visible bool) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	expr := fmt.Sprintf(`new Promise((resolve, reject) => {
  const selector = %s;
  const needVisible = %t;
  const matches = () => {
    const el = document.querySelector(selector);
    if (!el) return false;
    if (!needVisible) return true;
    const rect = el.getBoundingClientRect();
    const style = window.getComputedStyle(el);
    return rect.width > 0 && rect.height > 0 && style.visibility !== "hidden";
  };
  if (matches()) { resolve({found: true}); return; }
  const observer = new MutationObserver(() => {
    if (matches()) { observer.disconnect(); clearTimeout(timer); resolve({found: true}); }
  });
  observer.observe(document.documentElement, {childList: true, subtree: true, attributes: true});
  const timer = setTimeout(() => {
    observer.disconnect();
    reject(new Error("timeout waiting for selector: " + selector));
  }, %d);
})`, sel, visible, timeout.Milliseconds())
	_, err = Runtime{C: p.C}.EvaluateValue(ctx, expr)
	return err
}

// WaitForLoad resolves when document.readyState is "complete", or on timeout
// with the then-current state.
func (p Page) WaitForLoad(ctx context.Context, timeout time.Duration) (string, error) {
	expr := fmt.Sprintf(`new Promise((resolve) => {
  if (document.readyState === "complete") { resolve("complete"); return; }
  const finish = () => resolve(document.readyState);
  window.addEventListener("load", () => resolve("complete"), {once: true});
  setTimeout(finish, %d);
})`, timeout.Milliseconds())
	v, err := Runtime{C: p.C}.EvaluateValue(ctx, expr)
	if err != nil {
		return "", err
	}
	state, _ := v.(string)
	return state, nil
}
