package commands

import (
	"context"
	"encoding/json"
	"fmt"
)

// VisualEffects injects small overlay snippets for demos and debugging.
// Each effect auto-removes after lifetime milliseconds; 0 keeps it until
// Clear.
type VisualEffects struct {
	C Caller
}

const effectClass = "__frago_effect__"

func (v VisualEffects) inject(ctx context.Context, snippet string) error {
	_, err := Runtime{C: v.C}.EvaluateValue(ctx, snippet)
	return err
}

func effectLifetime(lifetimeMS int) string {
	if lifetimeMS <= 0 {
		return ""
	}
	return fmt.Sprintf("setTimeout(() => el.remove(), %d);", lifetimeMS)
}

// Highlight outlines every node matching selector.
func (v VisualEffects) Highlight(ctx context.Context, selector string, lifetimeMS int) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	snippet := fmt.Sprintf(`(() => {
  document.querySelectorAll(%s).forEach((target) => {
    const rect = target.getBoundingClientRect();
    const el = document.createElement("div");
    el.className = "%s";
    el.style.cssText = "position:fixed;pointer-events:none;z-index:2147483646;" +
      "border:2px solid #f59e0b;border-radius:3px;" +
      "left:" + (rect.left - 2) + "px;top:" + (rect.top - 2) + "px;" +
      "width:" + rect.width + "px;height:" + rect.height + "px;";
    document.body.appendChild(el);
    %s
  });
  return true;
})()`, sel, effectClass, effectLifetime(lifetimeMS))
	return v.inject(ctx, snippet)
}

// Pointer shows a fake cursor at (x, y).
func (v VisualEffects) Pointer(ctx context.Context, x, y float64, lifetimeMS int) error {
	snippet := fmt.Sprintf(`(() => {
  const el = document.createElement("div");
  el.className = "%s";
  el.style.cssText = "position:fixed;pointer-events:none;z-index:2147483647;" +
    "width:16px;height:16px;border-radius:50%%;background:rgba(239,68,68,0.85);" +
    "left:%fpx;top:%fpx;transform:translate(-50%%,-50%%);";
  document.body.appendChild(el);
  %s
  return true;
})()`, effectClass, x, y, effectLifetime(lifetimeMS))
	return v.inject(ctx, snippet)
}

// Spotlight dims everything except the first node matching selector.
func (v VisualEffects) Spotlight(ctx context.Context, selector string, lifetimeMS int) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	snippet := fmt.Sprintf(`(() => {
  const target = document.querySelector(%s);
  if (!target) return false;
  const rect = target.getBoundingClientRect();
  const el = document.createElement("div");
  el.className = "%s";
  el.style.cssText = "position:fixed;inset:0;pointer-events:none;z-index:2147483645;" +
    "box-shadow:0 0 0 100vmax rgba(0,0,0,0.55);" +
    "left:" + rect.left + "px;top:" + rect.top + "px;" +
    "width:" + rect.width + "px;height:" + rect.height + "px;";
  document.body.appendChild(el);
  %s
  return true;
})()`, sel, effectClass, effectLifetime(lifetimeMS))
	return v.inject(ctx, snippet)
}

// Annotate attaches a floating label near the first node matching selector.
func (v VisualEffects) Annotate(ctx context.Context, selector, text string, lifetimeMS int) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	label, err := json.Marshal(text)
	if err != nil {
		return err
	}
	snippet := fmt.Sprintf(`(() => {
  const target = document.querySelector(%s);
  if (!target) return false;
  const rect = target.getBoundingClientRect();
  const el = document.createElement("div");
  el.className = "%s";
  el.textContent = %s;
  el.style.cssText = "position:fixed;pointer-events:none;z-index:2147483647;" +
    "background:#1f2937;color:#f9fafb;font:12px sans-serif;padding:4px 8px;" +
    "border-radius:4px;left:" + rect.left + "px;top:" + (rect.top - 28) + "px;";
  document.body.appendChild(el);
  %s
  return true;
})()`, sel, effectClass, label, effectLifetime(lifetimeMS))
	return v.inject(ctx, snippet)
}

// Underline draws a line under the first node matching selector.
func (v VisualEffects) Underline(ctx context.Context, selector string, lifetimeMS int) error {
	sel, err := json.Marshal(selector)
	if err != nil {
		return err
	}
	snippet := fmt.Sprintf(`(() => {
  const target = document.querySelector(%s);
  if (!target) return false;
  const rect = target.getBoundingClientRect();
  const el = document.createElement("div");
  el.className = "%s";
  el.style.cssText = "position:fixed;pointer-events:none;z-index:2147483646;" +
    "height:2px;background:#ef4444;" +
    "left:" + rect.left + "px;top:" + rect.bottom + "px;width:" + rect.width + "px;";
  document.body.appendChild(el);
  %s
  return true;
})()`, sel, effectClass, effectLifetime(lifetimeMS))
	return v.inject(ctx, snippet)
}

// Clear removes every effect overlay.
func (v VisualEffects) Clear(ctx context.Context) error {
	snippet := fmt.Sprintf(
		`(() => { document.querySelectorAll(".%s").forEach((el) => el.remove()); return true; })()`,
		effectClass)
	return v.inject(ctx, snippet)
}
