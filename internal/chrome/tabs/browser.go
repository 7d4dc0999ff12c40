package tabs

import (
	"context"

	"github.com/frago-dev/frago/internal/chrome/cdp"
	"github.com/frago-dev/frago/internal/chrome/commands"
)

// CDPBrowser adapts a live session plus HTTP discovery to the Browser
// interface. Target operations go over the session; the page list comes from
// /json/list so it reflects tabs the session never touched.
type CDPBrowser struct {
	Session commands.Caller
	Config  cdp.Config
}

func (b CDPBrowser) CreateTarget(ctx context.Context, url string) (string, error) {
	return commands.Target{C: b.Session}.Create(ctx, url, 0, 0)
}

func (b CDPBrowser) CloseTarget(ctx context.Context, id string) error {
	return commands.Target{C: b.Session}.Close(ctx, id)
}

func (b CDPBrowser) ActivateTarget(ctx context.Context, id string) error {
	return commands.Target{C: b.Session}.Activate(ctx, id)
}

func (b CDPBrowser) ListPages(ctx context.Context) ([]PageInfo, error) {
	targets, err := cdp.ListTargets(ctx, b.Config)
	if err != nil {
		return nil, err
	}
	pages := make([]PageInfo, 0, len(targets))
	for _, t := range targets {
		if t.Type != "page" {
			continue
		}
		pages = append(pages, PageInfo{ID: t.ID, URL: t.URL, Title: t.Title})
	}
	return pages, nil
}
