package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/inkwell-ai/inkwell/internal/domain"
)

func init() {
	sessionsCmd := &cobra.Command{
		Use:   "sessions",
		Short: "Inspect the local transcript archive",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List archived sessions",
		Run:   runSessionsList,
	}
	listCmd.Flags().String("notebook", "", "Filter by notebook id")
	listCmd.Flags().String("source", "", "Filter by source id")

	showCmd := &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print an archived transcript",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsShow,
	}

	rmCmd := &cobra.Command{
		Use:   "rm <session-id>",
		Short: "Remove a session from the archive",
		Args:  cobra.ExactArgs(1),
		Run:   runSessionsRm,
	}

	sessionsCmd.AddCommand(listCmd, showCmd, rmCmd)
	RootCmd.AddCommand(sessionsCmd)
}

func runSessionsList(cmd *cobra.Command, args []string) {
	notebookID, _ := cmd.Flags().GetString("notebook")
	sourceID, _ := cmd.Flags().GetString("source")

	a, err := newApp()
	if err != nil {
		exitErr("startup", err)
	}
	defer a.Close()

	ctx := context.Background()
	var sessions []domain.ChatSession
	switch {
	case notebookID != "":
		sessions, err = a.archive.ListSessions(ctx, domain.NotebookScope(notebookID))
	case sourceID != "":
		sessions, err = a.archive.ListSessions(ctx, domain.SourceScope(sourceID))
	default:
		sessions, err = a.archive.AllSessions(ctx)
	}
	if err != nil {
		exitErr("list sessions", err)
	}

	for _, s := range sessions {
		fmt.Printf("%s  %-8s %-20s %3d msgs  %s\n",
			s.ID, s.Scope.Kind, s.Scope.ID, s.MessageCount, s.Title)
	}
}

func runSessionsShow(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		exitErr("startup", err)
	}
	defer a.Close()

	messages, err := a.archive.GetMessages(context.Background(), args[0])
	if err != nil {
		exitErr("load transcript", err)
	}

	for _, m := range messages {
		fmt.Printf("[%s]\n%s\n\n", m.Role, m.Content)
	}
}

func runSessionsRm(cmd *cobra.Command, args []string) {
	a, err := newApp()
	if err != nil {
		exitErr("startup", err)
	}
	defer a.Close()

	if err := a.archive.DeleteSession(context.Background(), args[0]); err != nil {
		exitErr("delete session", err)
	}
	fmt.Println("deleted")
}
