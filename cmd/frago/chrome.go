package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/frago-dev/frago/internal/chrome/cdp"
	"github.com/frago-dev/frago/internal/chrome/commands"
	"github.com/frago-dev/frago/internal/chrome/tabs"
	"github.com/frago-dev/frago/internal/run"
	"github.com/frago-dev/frago/internal/run/runlog"
	"github.com/frago-dev/frago/internal/run/screenshot"
)

func chromeCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	switch args[0] {
	case "navigate":
		chromeNavigate(args[1:])
	case "screenshot":
		chromeScreenshot(args[1:])
	case "exec-js":
		chromeExecJS(args[1:])
	case "tabs":
		chromeTabs(args[1:])
	default:
		usage()
		os.Exit(1)
	}
}

// chromeConfig consumes the connection flags every chrome verb shares
// and returns the remaining args.
func chromeConfig(args []string) (cdp.Config, []string) {
	cfg := cdp.Config{}
	var rest []string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--port":
			i++
			port, err := strconv.Atoi(requireValue(args, i, "--port"))
			if err != nil {
				fatal(fmt.Errorf("invalid port: %w", err))
			}
			cfg.Port = port
		case "--target":
			i++
			cfg.TargetID = requireValue(args, i, "--target")
		case "--no-proxy":
			cfg.NoProxy = true
		default:
			rest = append(rest, args[i])
		}
	}
	return cdp.FromEnvironment(cfg), rest
}

func connect(ctx context.Context, cfg cdp.Config, log zerolog.Logger) *cdp.Session {
	sess, err := cdp.Connect(ctx, cfg, log)
	if err != nil {
		fatal(err)
	}
	return sess
}

func chromeNavigate(args []string) {
	cfg, rest := chromeConfig(args)
	var url string
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--url":
			i++
			url = requireValue(rest, i, "--url")
		default:
			fatal(fmt.Errorf("unknown arg: %s", rest[i]))
		}
	}
	if url == "" {
		usage()
		os.Exit(1)
	}

	log := newLogger()
	ctx := context.Background()
	sess := connect(ctx, cfg, log)
	defer sess.Close()

	page := commands.Page{C: sess}
	if _, err := page.Navigate(ctx, url); err != nil {
		fatal(err)
	}
	if _, err := page.WaitForLoad(ctx, 30*time.Second); err != nil {
		log.Warn().Err(err).Msg("page load wait timed out")
	}
	store, ctxFile := openRunStore(log)
	logRunStep(store, ctxFile, log, "Navigated to page", runlog.ActionNavigation, map[string]any{"url": url})
	fmt.Println("navigated to", url)
}

func chromeScreenshot(args []string) {
	cfg, rest := chromeConfig(args)
	var out, name string
	var fullPage bool
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--out":
			i++
			out = requireValue(rest, i, "--out")
		case "--name":
			i++
			name = requireValue(rest, i, "--name")
		case "--full-page":
			fullPage = true
		default:
			fatal(fmt.Errorf("unknown arg: %s", rest[i]))
		}
	}

	log := newLogger()
	ctx := context.Background()
	sess := connect(ctx, cfg, log)
	defer sess.Close()

	shot := commands.Screenshot{C: sess}
	opts := commands.CaptureOptions{Format: "png", FullPage: fullPage}

	if out != "" {
		if err := shot.CaptureToFile(ctx, out, opts); err != nil {
			fatal(err)
		}
		store, ctxFile := openRunStore(log)
		logRunStep(store, ctxFile, log, "Captured screenshot", runlog.ActionScreenshot, map[string]any{"path": out})
		fmt.Println(out)
		return
	}

	// Without --out the capture files into the current run.
	store, ctxFile := openRunStore(log)
	current, err := ctxFile.Get()
	if err != nil {
		fatal(fmt.Errorf("no --out and no current run: %w", err))
	}
	if name == "" {
		name = "capture"
	}
	pipeline := &screenshot.Pipeline{Store: store, Capturer: shot, Log: log}
	res, err := pipeline.Capture(ctx, current.RunID, name, opts)
	if err != nil {
		fatal(err)
	}
	logRunStep(store, ctxFile, log, "Captured screenshot", runlog.ActionScreenshot, map[string]any{"path": res.Path, "number": res.Number})
	fmt.Println(res.Path)
}

func chromeExecJS(args []string) {
	cfg, rest := chromeConfig(args)
	var expr, scriptPath string
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--expr":
			i++
			expr = requireValue(rest, i, "--expr")
		default:
			scriptPath = rest[i]
		}
	}
	if expr == "" && scriptPath == "" {
		usage()
		os.Exit(1)
	}
	if expr == "" {
		b, err := os.ReadFile(scriptPath)
		if err != nil {
			fatal(err)
		}
		expr = string(b)
	}

	log := newLogger()
	ctx := context.Background()
	sess := connect(ctx, cfg, log)
	defer sess.Close()

	value, err := commands.Runtime{C: sess}.EvaluateValue(ctx, expr)
	if err != nil {
		fatal(err)
	}
	b, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(b))
}

func chromeTabs(args []string) {
	cfg, rest := chromeConfig(args)
	if len(rest) > 0 {
		fatal(fmt.Errorf("unknown arg: %s", rest[0]))
	}

	log := newLogger()
	ctx := context.Background()
	sess := connect(ctx, cfg, log)
	defer sess.Close()

	statePath, err := tabs.DefaultStatePath()
	if err != nil {
		fatal(err)
	}
	mgr, err := tabs.NewManager(tabs.CDPBrowser{Session: sess, Config: cfg}, tabs.Options{
		StatePath: statePath,
		Port:      cfg.Port,
		Logger:    log,
	})
	if err != nil {
		fatal(err)
	}
	if err := mgr.Reconcile(ctx); err != nil {
		fatal(err)
	}
	for _, e := range mgr.Entries() {
		fmt.Printf("%s\t%s\t%s\t%s\n", e.TabID, e.Origin, e.Title, e.URL)
	}
}

func openRunStore(log zerolog.Logger) (*run.Store, *run.ContextFile) {
	root, err := run.DefaultRoot()
	if err != nil {
		fatal(err)
	}
	ctxPath, err := run.DefaultContextPath()
	if err != nil {
		fatal(err)
	}
	store := run.NewStore(root, log)
	return store, &run.ContextFile{Path: ctxPath, Store: store, Log: log}
}
