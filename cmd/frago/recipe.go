package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/frago-dev/frago/internal/chrome/cdp"
	"github.com/frago-dev/frago/internal/chrome/commands"
	"github.com/frago-dev/frago/internal/envfile"
	"github.com/frago-dev/frago/internal/recipe"
	"github.com/frago-dev/frago/internal/recipe/runner"
)

func recipeCmd(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	switch args[0] {
	case "list":
		recipeList(args[1:])
	case "show":
		recipeShow(args[1:])
	case "run":
		recipeRun(args[1:])
	default:
		usage()
		os.Exit(1)
	}
}

func openRegistry() *recipe.Registry {
	root, err := recipe.DefaultRoot()
	if err != nil {
		fatal(err)
	}
	return recipe.NewRegistry([]recipe.Root{root}, newLogger())
}

func recipeList(args []string) {
	if len(args) != 0 {
		usage()
		os.Exit(1)
	}
	for _, rec := range openRegistry().ListAll() {
		fmt.Printf("%s\t%s\t%s\t%s\t%s\n", rec.Name, rec.Type, rec.Runtime, rec.Source, rec.Description)
	}
}

func recipeShow(args []string) {
	if len(args) != 1 {
		usage()
		os.Exit(1)
	}
	rec, err := openRegistry().Find(args[0], "")
	if err != nil {
		fatal(err)
	}
	b, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(b))
}

func recipeRun(args []string) {
	if len(args) < 1 {
		usage()
		os.Exit(1)
	}
	name := args[0]
	var paramsJSON, output, path string
	envOverrides := map[string]string{}
	rest := args[1:]
	for i := 0; i < len(rest); i++ {
		switch rest[i] {
		case "--params":
			i++
			paramsJSON = requireValue(rest, i, "--params")
		case "--env":
			i++
			kv := requireValue(rest, i, "--env")
			key, value, ok := strings.Cut(kv, "=")
			if !ok {
				fatal(fmt.Errorf("--env requires KEY=VALUE, got %q", kv))
			}
			envOverrides[key] = value
		case "--output":
			i++
			output = requireValue(rest, i, "--output")
		case "--path":
			i++
			path = requireValue(rest, i, "--path")
		default:
			fatal(fmt.Errorf("unknown arg: %s", rest[i]))
		}
	}

	var params map[string]any
	if paramsJSON != "" {
		if err := json.Unmarshal([]byte(paramsJSON), &params); err != nil {
			fatal(fmt.Errorf("--params must be a JSON object: %w", err))
		}
	}

	log := newLogger()
	reg := openRegistry()
	rec, err := reg.Find(name, "")
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()
	r := &runner.Runner{
		Registry: reg,
		Output:   &runner.OutputHandler{},
		Env:      recipeEnvLayers(),
		Log:      log,
	}
	// chrome-js recipes need a live page; other runtimes do not.
	if rec.Runtime == recipe.RuntimeChromeJS {
		sess, err := cdp.Connect(ctx, cdp.FromEnvironment(cdp.Config{}), log)
		if err != nil {
			fatal(err)
		}
		defer sess.Close()
		r.Evaluator = commands.Runtime{C: sess}
	}

	if output == "" {
		output = runner.TargetStdout
	}
	if _, err := r.Run(ctx, runner.Request{
		Name:          name,
		Params:        params,
		OutputTarget:  output,
		OutputOptions: runner.OutputOptions{Path: path},
		EnvOverrides:  envOverrides,
	}); err != nil {
		fatal(err)
	}
}

// recipeEnvLayers wires the file tiers: the project .env in the working
// directory's .frago dir and the user-level one.
func recipeEnvLayers() envfile.Layers {
	layers := envfile.Layers{ProjectFile: ".frago/.env"}
	if user, err := envfile.UserFilePath(); err == nil {
		layers.UserFile = user
	}
	return layers
}
