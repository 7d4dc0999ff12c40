package commands

import (
	"context"
	"fmt"
)

// DOM wraps the DOM domain.
type DOM struct {
	C Caller
}

// BoxModel carries the content quad of a node: 8 floats, clockwise from the
// top-left corner.
type BoxModel struct {
	Content []float64
	Width   float64
	Height  float64
}

// GetDocument returns the root node id.
func (d DOM) GetDocument(ctx context.Context) (int, error) {
	resp, err := d.C.Call(ctx, "DOM.getDocument", nil)
	if err != nil {
		return 0, err
	}
	root, _ := result(resp)["root"].(map[string]any)
	id, ok := root["nodeId"].(float64)
	if !ok {
		return 0, fmt.Errorf("DOM.getDocument returned no root node")
	}
	return int(id), nil
}

// QuerySelector resolves selector under nodeID. A zero result means no match.
func (d DOM) QuerySelector(ctx context.Context, nodeID int, selector string) (int, error) {
	resp, err := d.C.Call(ctx, "DOM.querySelector", map[string]any{
		"nodeId":   nodeID,
		"selector": selector,
	})
	if err != nil {
		return 0, err
	}
	id, err := resultFloat(resp, "nodeId")
	if err != nil {
		return 0, err
	}
	return int(id), nil
}

// GetAttributes returns the node's attributes, folding the protocol's flat
// name/value list into a map.
func (d DOM) GetAttributes(ctx context.Context, nodeID int) (map[string]string, error) {
	resp, err := d.C.Call(ctx, "DOM.getAttributes", map[string]any{"nodeId": nodeID})
	if err != nil {
		return nil, err
	}
	raw, _ := result(resp)["attributes"].([]any)
	attrs := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		k, _ := raw[i].(string)
		v, _ := raw[i+1].(string)
		attrs[k] = v
	}
	return attrs, nil
}

// GetBoxModel returns the node's content quad.
func (d DOM) GetBoxModel(ctx context.Context, nodeID int) (*BoxModel, error) {
	resp, err := d.C.Call(ctx, "DOM.getBoxModel", map[string]any{"nodeId": nodeID})
	if err != nil {
		return nil, err
	}
	model, _ := result(resp)["model"].(map[string]any)
	rawQuad, _ := model["content"].([]any)
	if len(rawQuad) < 8 {
		return nil, fmt.Errorf("DOM.getBoxModel returned no content quad")
	}
	quad := make([]float64, len(rawQuad))
	for i, v := range rawQuad {
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("DOM.getBoxModel quad element %d is not a number", i)
		}
		quad[i] = f
	}
	w, _ := model["width"].(float64)
	h, _ := model["height"].(float64)
	return &BoxModel{Content: quad, Width: w, Height: h}, nil
}

// ClickSelector resolves selector from the document root, finds its content
// quad, and clicks its center.
func (d DOM) ClickSelector(ctx context.Context, selector string) error {
	rootID, err := d.GetDocument(ctx)
	if err != nil {
		return err
	}
	nodeID, err := d.QuerySelector(ctx, rootID, selector)
	if err != nil {
		return err
	}
	if nodeID == 0 {
		return fmt.Errorf("no node matches selector %q", selector)
	}
	box, err := d.GetBoxModel(ctx, nodeID)
	if err != nil {
		return err
	}
	q := box.Content
	x := (q[0] + q[4]) / 2
	y := (q[1] + q[5]) / 2
	return Input{C: d.C}.Click(ctx, x, y, "left")
}
