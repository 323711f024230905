// Command codeact runs a CodeAct agent against a language model and offers
// debugging tools for the textual protocol.
//
// Usage:
//
//	codeact run "create hello.py and run it" --provider openai
//	codeact run --dry-run "anything"
//	echo '<execute_bash>ls' | codeact parse
//	codeact render "a task" --working-dir .
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"github.com/martinemde/codeact/config"
)

// CLI defines the command-line interface.
type CLI struct {
	Version VersionCmd `cmd:"" help:"Show version information."`
	Run     RunCmd     `cmd:"" help:"Run the agent on a task."`
	Parse   ParseCmd   `cmd:"" help:"Parse a model reply read from stdin into an action."`
	Render  RenderCmd  `cmd:"" help:"Print the prompt the model would receive for a task."`

	Config    string `short:"c" help:"Path to config file." type:"path"`
	LogLevel  string `help:"Log level (debug, info, warn, error)." env:"CODEACT_LOG_LEVEL"`
	LogFile   string `help:"Also write JSON logs to this file." env:"CODEACT_LOG_FILE"`
	LogFormat string `help:"Console log format (text or json)."`
}

// streams are the standard streams, bound so commands can be tested.
type streams struct {
	in  io.Reader
	out io.Writer
	err io.Writer
}

// loadConfig loads the config file and applies the global flags.
func (c *CLI) loadConfig() (*config.Config, error) {
	if err := config.LoadDotEnvForConfig(c.Config); err != nil {
		return nil, err
	}
	cfg, err := config.Load(c.Config)
	if err != nil {
		return nil, err
	}
	if c.LogLevel != "" {
		cfg.Log.Level = c.LogLevel
	}
	if c.LogFile != "" {
		cfg.Log.File = c.LogFile
	}
	if c.LogFormat != "" {
		cfg.Log.Format = c.LogFormat
	}
	return cfg, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("codeact"),
		kong.Description("CodeAct agent: bash and file editing through a tagged text protocol."),
		kong.UsageOnError(),
		kong.Bind(&streams{in: os.Stdin, out: os.Stdout, err: os.Stderr}),
	)

	err := ctx.Run(&cli)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
