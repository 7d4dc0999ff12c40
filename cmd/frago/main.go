package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "chrome":
		chromeCmd(os.Args[2:])
	case "run":
		runCmd(os.Args[2:])
	case "recipe":
		recipeCmd(os.Args[2:])
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage:")
	fmt.Fprintln(os.Stderr, "  frago chrome navigate --url <url> [--port <n>] [--target <id>] [--no-proxy]")
	fmt.Fprintln(os.Stderr, "  frago chrome screenshot [--out <file.png>] [--name <desc>] [--full-page] [--port <n>]")
	fmt.Fprintln(os.Stderr, "  frago chrome exec-js (--expr <js> | <script.js>) [--port <n>]")
	fmt.Fprintln(os.Stderr, "  frago chrome tabs [--port <n>]")
	fmt.Fprintln(os.Stderr, "  frago run create --theme <text> [--id <run-id>]")
	fmt.Fprintln(os.Stderr, "  frago run list [--status active|archived]")
	fmt.Fprintln(os.Stderr, "  frago run archive <run-id>")
	fmt.Fprintln(os.Stderr, "  frago run current")
	fmt.Fprintln(os.Stderr, "  frago run use <run-id>")
	fmt.Fprintln(os.Stderr, "  frago run release")
	fmt.Fprintln(os.Stderr, "  frago run log --step <text> [--status <s>] [--action <a>] [--method <m>] [--data <json>]")
	fmt.Fprintln(os.Stderr, "  frago run discover --query <text> [--threshold <n>]")
	fmt.Fprintln(os.Stderr, "  frago recipe list")
	fmt.Fprintln(os.Stderr, "  frago recipe show <name>")
	fmt.Fprintln(os.Stderr, "  frago recipe run <name> [--params <json>] [--env K=V]... [--output stdout|file|clipboard] [--path <file>]")
}

// newLogger writes human-readable diagnostics to stderr. FRAGO_DEBUG=1
// turns on debug level.
func newLogger() zerolog.Logger {
	level := zerolog.WarnLevel
	if os.Getenv("FRAGO_DEBUG") == "1" {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).Level(level).With().Timestamp().Logger()
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}

func requireValue(args []string, i int, flag string) string {
	if i >= len(args) {
		fmt.Fprintf(os.Stderr, "%s requires a value\n", flag)
		os.Exit(1)
	}
	return args[i]
}
