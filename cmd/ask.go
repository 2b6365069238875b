package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/guilhermegouw/hiwar/internal/chat"
	"github.com/guilhermegouw/hiwar/internal/events"
)

var errTurnFailed = errors.New("reply did not complete")

func newAskCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask [message...]",
		Short: "Send one message and stream the reply to stdout",
		Long: `Send one message and print the reply as it streams.

The message is read from stdin when no arguments are given and stdin is
not a terminal. The exchange is saved to the session history like any
other chat.`,
		RunE: runAsk,
	}
	cmd.Flags().StringP("session", "s", "", "Continue the stored session with this id")
	return cmd
}

func runAsk(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	if text == "" && !term.IsTerminal(int(os.Stdin.Fd())) {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		text = string(data)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer enableDebug(cmd, cfg)()

	ctx := cmd.Context()
	a, err := newApp(ctx, cfg, nil)
	if err != nil {
		return err
	}
	defer a.Close()

	if id, _ := cmd.Flags().GetString("session"); id != "" {
		if err := a.ctrl.LoadSession(ctx, id); err != nil {
			return fmt.Errorf("loading session %s: %w", id, err)
		}
	}

	return ask(ctx, a.ctrl, text, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// ask runs one turn, writing each chunk to out as it arrives.
func ask(ctx context.Context, ctrl *chat.Controller, text string, out, errOut io.Writer) error {
	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sub := ctrl.Hub().Chat.Subscribe(subCtx)

	turn, err := ctrl.SendMessage(ctx, text)
	if err != nil {
		return err
	}

	var shown string
	for e := range sub {
		p := e.Payload
		if p.TurnID != turn.ID() {
			continue
		}
		if p.Type == events.ChatMessageUpdated && strings.HasPrefix(p.Text, shown) {
			fmt.Fprint(out, p.Text[len(shown):])
			shown = p.Text
		}
		if p.Type == events.ChatStreamFinished || p.Type == events.ChatStreamCancelled {
			break
		}
	}

	<-turn.Done()
	res := turn.Result()
	if res.Outcome == chat.OutcomeCompleted {
		// updates may have been dropped under load
		if strings.HasPrefix(res.Text, shown) {
			fmt.Fprint(out, res.Text[len(shown):])
		}
		fmt.Fprintln(out)
		return nil
	}

	if shown != "" {
		fmt.Fprintln(out)
	} else if res.Text != "" {
		fmt.Fprintln(errOut, res.Text)
	}
	if res.Err != nil {
		return fmt.Errorf("%w (%s): %w", errTurnFailed, res.Outcome, res.Err)
	}
	return fmt.Errorf("%w (%s)", errTurnFailed, res.Outcome)
}
