package commands

import (
	"context"
	"fmt"
)

// Target wraps the Target domain. Used exclusively by the tab manager.
type Target struct {
	C Caller
}

// TargetInfo is the subset of Target.getTargets entries the core consumes.
type TargetInfo struct {
	ID    string
	Type  string
	URL   string
	Title string
}

// Create opens a new target at url; width/height are optional (0 = default).
func (t Target) Create(ctx context.Context, url string, width, height int) (string, error) {
	params := map[string]any{"url": url}
	if width > 0 {
		params["width"] = width
	}
	if height > 0 {
		params["height"] = height
	}
	resp, err := t.C.Call(ctx, "Target.createTarget", params)
	if err != nil {
		return "", err
	}
	id := resultString(resp, "targetId")
	if id == "" {
		return "", fmt.Errorf("Target.createTarget returned no target id")
	}
	return id, nil
}

// Close closes the target.
func (t Target) Close(ctx context.Context, id string) error {
	_, err := t.C.Call(ctx, "Target.closeTarget", map[string]any{"targetId": id})
	return err
}

// Activate brings the target to the foreground.
func (t Target) Activate(ctx context.Context, id string) error {
	_, err := t.C.Call(ctx, "Target.activateTarget", map[string]any{"targetId": id})
	return err
}

// List returns the browser's current targets.
func (t Target) List(ctx context.Context) ([]TargetInfo, error) {
	resp, err := t.C.Call(ctx, "Target.getTargets", nil)
	if err != nil {
		return nil, err
	}
	raw, _ := result(resp)["targetInfos"].([]any)
	infos := make([]TargetInfo, 0, len(raw))
	for _, entry := range raw {
		m, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		info := TargetInfo{}
		info.ID, _ = m["targetId"].(string)
		info.Type, _ = m["type"].(string)
		info.URL, _ = m["url"].(string)
		info.Title, _ = m["title"].(string)
		infos = append(infos, info)
	}
	return infos, nil
}
