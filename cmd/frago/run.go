package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/frago-dev/frago/internal/run"
	"github.com/frago-dev/frago/internal/run/discover"
	"github.com/frago-dev/frago/internal/run/runlog"
)

// logRunStep appends an activity record to the current run, best-effort:
// no current run means no entry, and append failures only warn.
func logRunStep(store *run.Store, ctxFile *run.ContextFile, log zerolog.Logger, step string, action runlog.ActionType, data map[string]any) {
	current, err := ctxFile.Get()
	if err != nil {
		return
	}
	entry := runlog.Entry{
		Step:            step,
		Status:          runlog.StatusSuccess,
		ActionType:      action,
		ExecutionMethod: runlog.MethodCommand,
		Data:            data,
	}
	if err := runlog.NewLogger(store.LogPath(current.RunID), log).Write(entry); err != nil {
		log.Warn().Err(err).Msg("run log append failed")
		return
	}
	_ = store.Touch(current.RunID)
}

func runCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	switch args[0] {
	case "create":
		runCreate(args[1:])
	case "list":
		runList(args[1:])
	case "archive":
		runArchive(args[1:])
	case "current":
		runCurrent(args[1:])
	case "use":
		runUse(args[1:])
	case "release":
		runRelease(args[1:])
	case "log":
		runLog(args[1:])
	case "discover":
		runDiscover(args[1:])
	default:
		usage()
		os.Exit(1)
	}
}

func runCreate(args []string) {
	var theme, id string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--theme":
			i++
			theme = requireValue(args, i, "--theme")
		case "--id":
			i++
			id = requireValue(args, i, "--id")
		default:
			fatal(fmt.Errorf("unknown arg: %s", args[i]))
		}
	}
	if theme == "" {
		usage()
		os.Exit(1)
	}

	log := newLogger()
	store, _ := openRunStore(log)
	meta, err := store.CreateRun(theme, id)
	if err != nil {
		fatal(err)
	}
	fmt.Println(meta.RunID)
}

func runList(args []string) {
	var status string
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--status":
			i++
			status = requireValue(args, i, "--status")
		default:
			fatal(fmt.Errorf("unknown arg: %s", args[i]))
		}
	}

	log := newLogger()
	store, _ := openRunStore(log)
	infos, err := store.ListRuns(status)
	if err != nil {
		fatal(err)
	}
	for _, info := range infos {
		fmt.Printf("%s\t%s\t%d logs\t%d screenshots\t%s\n",
			info.RunID, info.Status, info.LogCount, info.ScreenshotCount, info.ThemeDescription)
	}
}

func runArchive(args []string) {
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}
	log := newLogger()
	store, _ := openRunStore(log)
	if err := store.ArchiveRun(args[0]); err != nil {
		fatal(err)
	}
	fmt.Println("archived", args[0])
}

func runCurrent(args []string) {
	if len(args) != 0 {
		usage()
		os.Exit(1)
	}
	log := newLogger()
	_, ctxFile := openRunStore(log)
	current, err := ctxFile.Get()
	if err != nil {
		fatal(err)
	}
	b, err := json.MarshalIndent(current, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(b))
}

func runUse(args []string) {
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}
	log := newLogger()
	_, ctxFile := openRunStore(log)
	if err := ctxFile.Set(args[0]); err != nil {
		fatal(err)
	}
	fmt.Println("current run:", args[0])
}

func runRelease(args []string) {
	if len(args) != 0 {
		usage()
		os.Exit(1)
	}
	log := newLogger()
	_, ctxFile := openRunStore(log)
	if err := ctxFile.Release(); err != nil {
		fatal(err)
	}
}

func runLog(args []string) {
	var step, dataJSON string
	status := string(runlog.StatusSuccess)
	action := string(runlog.ActionOther)
	method := string(runlog.MethodManual)
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--step":
			i++
			step = requireValue(args, i, "--step")
		case "--status":
			i++
			status = requireValue(args, i, "--status")
		case "--action":
			i++
			action = requireValue(args, i, "--action")
		case "--method":
			i++
			method = requireValue(args, i, "--method")
		case "--data":
			i++
			dataJSON = requireValue(args, i, "--data")
		default:
			fatal(fmt.Errorf("unknown arg: %s", args[i]))
		}
	}
	if step == "" {
		usage()
		os.Exit(1)
	}

	log := newLogger()
	store, ctxFile := openRunStore(log)
	current, err := ctxFile.Get()
	if err != nil {
		fatal(err)
	}

	entry := runlog.Entry{Step: step}
	if entry.Status, err = runlog.ParseStatus(status); err != nil {
		fatal(err)
	}
	if entry.ActionType, err = runlog.ParseActionType(action); err != nil {
		fatal(err)
	}
	if entry.ExecutionMethod, err = runlog.ParseExecutionMethod(method); err != nil {
		fatal(err)
	}
	if dataJSON != "" {
		if err := json.Unmarshal([]byte(dataJSON), &entry.Data); err != nil {
			fatal(fmt.Errorf("--data must be a JSON object: %w", err))
		}
	}

	logger := runlog.NewLogger(store.LogPath(current.RunID), log)
	if err := logger.Write(entry); err != nil {
		fatal(err)
	}
	_ = store.Touch(current.RunID)
}

func runDiscover(args []string) {
	var query string
	threshold := 0
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--query":
			i++
			query = requireValue(args, i, "--query")
		case "--threshold":
			i++
			if _, err := fmt.Sscanf(requireValue(args, i, "--threshold"), "%d", &threshold); err != nil {
				fatal(fmt.Errorf("invalid threshold: %w", err))
			}
		default:
			fatal(fmt.Errorf("unknown arg: %s", args[i]))
		}
	}
	if query == "" {
		usage()
		os.Exit(1)
	}

	log := newLogger()
	store, _ := openRunStore(log)
	d := &discover.Discoverer{Store: store, Log: log}
	matches, err := d.DiscoverSimilarRuns(query, threshold)
	if err != nil {
		fatal(err)
	}
	for _, m := range matches {
		fmt.Printf("%3d\t%s\t%s\n", m.Score, m.Info.RunID, m.Info.ThemeDescription)
	}
}
