package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/adrg/xdg"
	"github.com/peterh/liner"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "tool" {
		os.Exit(RunTool(os.Args[2:]))
	}

	const (
		inputUsage = "input file path"
	)
	var (
		inputPath   string
		configPath  string
		logPath     string
		grouping    string
		concurrency int
		showHistory int
		listTools   bool
	)
	flag.StringVar(&inputPath, "input", "", inputUsage)
	flag.StringVar(&inputPath, "i", "", inputUsage+" (shorthand)")
	flag.StringVar(&configPath, "config", "", "config file path (default "+defaultConfigPath()+")")
	flag.StringVar(&logPath, "log", "", "write diagnostics to this file")
	flag.StringVar(&grouping, "grouping", "", "grouping of equal-precedence operators: right-to-left or left-to-right")
	flag.IntVar(&concurrency, "concurrency", 0, "number of lines evaluated at once")
	flag.IntVar(&showHistory, "history", 0, "print the last n evaluated lines and exit")
	flag.BoolVar(&listTools, "tools", false, "list the raster operations and exit")

	flag.Parse()

	app, err := NewApp(Options{
		ConfigPath:  configPath,
		LogPath:     logPath,
		Grouping:    grouping,
		Concurrency: concurrency,
		Out:         os.Stdout,
		Err:         os.Stderr,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer app.Close()

	switch {
	case listTools:
		app.ListTools()
	case showHistory > 0:
		err = app.PrintHistory(showHistory)
	case inputPath == "":
		err = RunPrompt(app)
	default:
		err = RunFile(app, inputPath)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		app.Close()
		os.Exit(1)
	}
}

var historyPath = filepath.Join(xdg.DataHome, "rastercalc", ".rastercalc_history")

func RunPrompt(app *App) error {
	line := liner.NewLiner()
	line.SetCtrlCAborts(true)
	defer func() {
		if err := os.MkdirAll(filepath.Dir(historyPath), os.ModePerm); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
		if f, err := os.Create(historyPath); err == nil {
			defer f.Close()
			if _, err := line.WriteHistory(f); err != nil {
				fmt.Fprintln(os.Stderr, err)
			}
		}
		line.Close()
	}()

	if f, err := os.Open(historyPath); err == nil {
		defer f.Close()
		if _, err := line.ReadHistory(f); err != nil {
			fmt.Fprintln(os.Stderr, err)
		}
	}

	for {
		input, err := line.Prompt("> ")
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			continue
		}
		if err != nil {
			return err
		}
		line.AppendHistory(input)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		err = app.Run(ctx, input)
		stop()
		if err != nil {
			printError(os.Stderr, err)
		}
	}
}

func RunFile(app *App, path string) error {
	bytes, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return app.Run(ctx, string(bytes))
}

// printError prints each error joined in err on its own line.
func printError(w io.Writer, err error) {
	if errs, ok := err.(interface{ Unwrap() []error }); ok {
		for _, err := range errs.Unwrap() {
			fmt.Fprintf(w, "Error: %v\n", err)
		}
	} else {
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}
