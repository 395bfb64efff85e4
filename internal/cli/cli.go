// Package cli parses the command line into an app.Config.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/specialistvlad/baf/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated app.Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	flagSet := flag.NewFlagSet("baf", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
baf - compiles a structured source file into a byte-exact binary.

Usage:
  baf [options] INPUT

Arguments:
  INPUT
    Path to a .toml, .json, or .hcl source file.

Options:
`)
		flagSet.PrintDefaults()
	}

	schemaFlag := flagSet.String("schema", "", "Name of the registered root schema to build.")
	formatFlag := flagSet.String("format", "", "Input format: 'toml', 'json', or 'hcl'. Default: by file extension.")
	outFlag := flagSet.String("o", "", "Path of the output file. Default: raw bytes to stdout.")
	visualizeFlag := flagSet.Bool("visualize", false, "Print the built datum tree instead of raw bytes.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	if flagSet.NArg() == 0 {
		flagSet.Usage()
		return nil, true, nil
	}
	inputPath := flagSet.Arg(0)

	format := strings.ToLower(*formatFlag)
	switch format {
	case "", "toml", "json", "hcl":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid format: must be 'toml', 'json', or 'hcl'"}
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}

	config, err := app.NewConfig(app.Config{
		InputPath: inputPath,
		Schema:    *schemaFlag,
		Format:    format,
		OutPath:   *outFlag,
		Visualize: *visualizeFlag,
		LogFormat: logFormat,
		LogLevel:  logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.", "input", config.InputPath, "schema", config.Schema)
	return config, false, nil
}
