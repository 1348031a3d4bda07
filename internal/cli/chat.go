package cli

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/domain"
	"github.com/inkwell-ai/inkwell/internal/engine"
)

func init() {
	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Interactive chat against a notebook or source",
		Run:   runChat,
	}

	cmd.Flags().String("notebook", "", "Notebook id to chat with")
	cmd.Flags().String("source", "", "Source id to chat with")
	cmd.Flags().String("model", "", "Model override for this conversation")

	RootCmd.AddCommand(cmd)
}

func runChat(cmd *cobra.Command, args []string) {
	notebookID, _ := cmd.Flags().GetString("notebook")
	sourceID, _ := cmd.Flags().GetString("source")
	model, _ := cmd.Flags().GetString("model")

	var scope domain.Scope
	switch {
	case notebookID != "" && sourceID == "":
		scope = domain.NotebookScope(notebookID)
	case sourceID != "" && notebookID == "":
		scope = domain.SourceScope(sourceID)
	default:
		fmt.Fprintln(os.Stderr, "error: exactly one of --notebook or --source is required")
		os.Exit(1)
	}

	a, err := newApp()
	if err != nil {
		exitErr("startup", err)
	}
	defer a.Close()

	chat := a.engine.Chat(scope)
	if err := chat.Sessions.Load(context.Background()); err != nil {
		exitErr("load sessions", err)
	}
	if cur := chat.Sessions.Current(); cur != nil {
		fmt.Printf("resuming session %q (%d messages)\n", cur.Title, chat.Log.Len())
	}

	// SIGINT during a response cancels the stream; the typed message
	// stays. A second SIGINT at the prompt exits.
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, syscall.SIGINT)
	go func() {
		for range interrupt {
			if chat.Controller.State() == engine.StateIdle {
				fmt.Println("\nbye")
				os.Exit(0)
			}
			chat.Controller.StopStream()
		}
	}()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		if text == "/quit" || text == "/exit" {
			return
		}

		err := chat.Controller.SendMessage(context.Background(), text, model, printEvent)
		if err != nil {
			// Details were already printed by the sink.
			continue
		}
	}
}

func printEvent(evt engine.Event) {
	switch evt.Type {
	case engine.EventToken:
		fmt.Print(evt.Content)
	case engine.EventDone:
		fmt.Println()
	case engine.EventCancelled:
		fmt.Println("\n[stopped]")
	case engine.EventError:
		if evt.Err.IsCredential() {
			fmt.Printf("\n[credential error] %s\nFix your API keys at %s\n", evt.Err.Message, evt.Err.Remediation)
		} else {
			fmt.Printf("\n[error] %s\n", evt.Err.Message)
		}
	}
}
