package commands

import "context"

// Input wraps Input.dispatchMouseEvent / dispatchKeyEvent.
type Input struct {
	C Caller
}

// Click dispatches mouseMoved, mousePressed, mouseReleased at (x, y).
// button defaults to "left".
func (i Input) Click(ctx context.Context, x, y float64, button string) error {
	if button == "" {
		button = "left"
	}
	moves := []map[string]any{
		{"type": "mouseMoved", "x": x, "y": y, "button": "none"},
		{"type": "mousePressed", "x": x, "y": y, "button": button, "clickCount": 1},
		{"type": "mouseReleased", "x": x, "y": y, "button": button, "clickCount": 1},
	}
	for _, params := range moves {
		if _, err := i.C.Call(ctx, "Input.dispatchMouseEvent", params); err != nil {
			return err
		}
	}
	return nil
}

// Type sends one char key event per code point of text.
func (i Input) Type(ctx context.Context, text string) error {
	for _, r := range text {
		_, err := i.C.Call(ctx, "Input.dispatchKeyEvent", map[string]any{
			"type": "char",
			"text": string(r),
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// Scroll dispatches a mouse wheel event at (x, y) with the given deltas.
func (i Input) Scroll(ctx context.Context, x, y, deltaX, deltaY float64) error {
	_, err := i.C.Call(ctx, "Input.dispatchMouseEvent", map[string]any{
		"type":   "mouseWheel",
		"x":      x,
		"y":      y,
		"deltaX": deltaX,
		"deltaY": deltaY,
	})
	return err
}
