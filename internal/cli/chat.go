package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Chative-core-poc-v1/userdesk/internal/agent/graph"
	logx "github.com/Chative-core-poc-v1/userdesk/pkg/logger"
)

const (
	userPrompt  = "You: "
	agentPrefix = "Agent: "
	quitCommand = "q"
	farewell    = "Goodbye!"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Start an interactive chat session (default)",
		Args:  cobra.NoArgs,
		RunE:  runChat,
	}
	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, _ []string) error {
	cfg, err := setup()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, appOptions{withIndex: true, withPipeline: true})
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logx.Warn().Err(err).Msg("shutdown")
		}
	}()

	out := cmd.OutOrStdout()
	printBanner(out)
	return runREPL(ctx, a.runner, cmd.InOrStdin(), out)
}

func printBanner(w io.Writer) {
	fmt.Fprintln(w, strings.Repeat("=", 50))
	fmt.Fprintln(w, "Welcome to the User Management Chatbot!")
	fmt.Fprintln(w, "You can create, read, update or delete user records.")
	fmt.Fprintf(w, "Type '%s' to exit the chat\n", quitCommand)
	fmt.Fprintln(w, strings.Repeat("=", 50))
}

// runREPL reads one query per line and prints each reply. It returns nil when
// the user quits, input ends or ctx is cancelled.
func runREPL(ctx context.Context, runner graph.Runner, in io.Reader, out io.Writer) error {
	readCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-readCtx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		fmt.Fprint(out, userPrompt)

		var line string
		select {
		case <-ctx.Done():
			fmt.Fprintln(out)
			fmt.Fprintln(out, farewell)
			return nil
		case l, ok := <-lines:
			if !ok {
				fmt.Fprintln(out)
				select {
				case err := <-errc:
					return err
				default:
					return nil
				}
			}
			line = strings.TrimSpace(l)
		}

		if line == "" {
			continue
		}
		if strings.EqualFold(line, quitCommand) {
			fmt.Fprintln(out, farewell)
			return nil
		}

		reply := runner.ProcessQuery(ctx, line)
		fmt.Fprintf(out, "%s%s\n", agentPrefix, reply)
	}
}
