package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"chainchat/internal/service/chat"
)

var sessionsLocalFlag bool

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List chat sessions",
	Long:  "Lists server sessions merged with the local archive. Falls back to the archive alone when the server is unreachable.",
	RunE:  runSessions,
}

var sessionsDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session on the server and in the local archive",
	Args:  cobra.ExactArgs(1),
	RunE:  runSessionsDelete,
}

func init() {
	sessionsCmd.Flags().BoolVar(&sessionsLocalFlag, "local", false, "list only the local archive")
	sessionsCmd.AddCommand(sessionsDeleteCmd)
}

func runSessions(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	local, err := archive.ListSessions(ctx)
	if err != nil {
		return err
	}

	merged := local
	if !sessionsLocalFlag {
		server, err := apiClient.ListSessions(ctx)
		if err != nil {
			logger.Warn("listing server sessions failed, showing archive only", "error", err)
			fmt.Println("(server unreachable, showing local archive)")
		}
		merged = chat.MergeSessions(server, local, nil)
	}

	if len(merged) == 0 {
		fmt.Println("no sessions")
		return nil
	}
	for _, s := range merged {
		title := s.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Printf("%s  %s  %s\n", s.ID, s.CreatedAt.Format("2006-01-02 15:04"), title)
	}
	return nil
}

func runSessionsDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	if err := apiClient.DeleteSession(ctx, id); err != nil {
		return fmt.Errorf("delete session %s: %w", id, err)
	}

	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()
	if err := archive.DeleteSession(ctx, id); err != nil {
		logger.Warn("removing archived session failed", "session_id", id, "error", err)
	}

	fmt.Println("deleted", id)
	return nil
}
