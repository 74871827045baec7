package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"chainchat/internal/domain"
	chatModels "chainchat/internal/domain/models/chat"
	"chainchat/internal/service/chat"
)

var replayLocalFlag bool

var replayCmd = &cobra.Command{
	Use:   "replay <session-id>",
	Short: "Print the transcript of a past session",
	Long:  "Reconstructs a session transcript from its persisted history and prints it. Fetched sessions are archived so --local works offline afterwards.",
	Args:  cobra.ExactArgs(1),
	RunE:  runReplay,
}

func init() {
	replayCmd.Flags().BoolVar(&replayLocalFlag, "local", false, "replay from the local archive without contacting the server")
}

func runReplay(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	id := args[0]

	archive, err := openArchive()
	if err != nil {
		return err
	}
	defer func() { _ = archive.Close() }()

	var session *chatModels.Session
	if replayLocalFlag {
		session, err = archive.LoadSession(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("session %s is not in the local archive", id)
		}
		if err != nil {
			return err
		}
	} else {
		session, err = apiClient.GetSession(ctx, id)
		if err != nil {
			// Offline fallback: an archived copy still replays.
			archived, archiveErr := archive.LoadSession(ctx, id)
			if archiveErr != nil {
				return fmt.Errorf("fetch session %s: %w", id, err)
			}
			logger.Warn("server fetch failed, replaying archived copy", "session_id", id, "error", err)
			session = archived
		} else if err := archive.SaveSession(ctx, session); err != nil {
			logger.Warn("archiving session failed", "session_id", id, "error", err)
		}
	}

	if session.Title != "" {
		fmt.Printf("%s# %s%s\n", colorDim, session.Title, colorReset)
	}

	messages := chat.NewReconstructor(logger).Reconstruct(session.History)
	if len(messages) == 0 {
		fmt.Println("(empty transcript)")
		return nil
	}

	out := newRenderer(os.Stdout)
	out.Render(messages)
	out.Finish()
	return nil
}
