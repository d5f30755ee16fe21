package rasterop

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// ExecDispatcher runs each operation as an external command:
//
//	<command> <prefix args...> <op> <args...>
type ExecDispatcher struct {
	Command string
	Args    []string
}

// NewExecDispatcher parses a command line such as "rastertool --quiet".
func NewExecDispatcher(commandLine string) (*ExecDispatcher, error) {
	fields := strings.Fields(commandLine)
	if len(fields) == 0 {
		return nil, errors.New("empty tool command")
	}
	return &ExecDispatcher{Command: fields[0], Args: fields[1:]}, nil
}

func (d *ExecDispatcher) Dispatch(ctx context.Context, op string, args []string) error {
	argv := append(append(append([]string{}, d.Args...), op), args...)
	cmd := exec.CommandContext(ctx, d.Command, argv...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		cmdStr := formatCommand(d.Command, argv)
		if detail := strings.TrimSpace(stderr.String()); detail != "" {
			return fmt.Errorf("command %s failed: %w: %s", cmdStr, err, detail)
		}
		return fmt.Errorf("command %s failed: %w", cmdStr, err)
	}
	return nil
}

func formatCommand(name string, args []string) string {
	parts := []string{quoteArg(name)}
	for _, arg := range args {
		parts = append(parts, quoteArg(arg))
	}
	return strings.Join(parts, " ")
}

func quoteArg(arg string) string {
	if arg == "" || strings.ContainsAny(arg, " \t\n\r\"\\") {
		return strconv.Quote(arg)
	}
	return arg
}

var _ Dispatcher = (*ExecDispatcher)(nil)
