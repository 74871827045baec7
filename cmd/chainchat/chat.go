package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"chainchat/internal/domain"
	chatModels "chainchat/internal/domain/models/chat"
	chatSvc "chainchat/internal/domain/services/chat"
	"chainchat/internal/service/chat"
	"chainchat/internal/service/chat/streaming"
)

var chatSessionFlag string

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat session",
	RunE:  runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSessionFlag, "session", "", "resume an existing session id")
}

// repl holds the interactive state for one chat run.
type repl struct {
	conv       *chat.Conversation
	controller *streaming.Controller
	filters    *chatModels.ContextFilters
	sessionID  string

	// Optimistic sidebar state: locally created sessions the server has
	// not listed yet, reconciled by chat.MergeSessions.
	localSessions []chatModels.SessionSummary
	deletedIDs    []string
}

func runChat(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	filters := &chatModels.ContextFilters{ChainIDs: cfg.DefaultChainIDs}
	if cfg.DefaultNetwork != "" {
		network := cfg.DefaultNetwork
		filters.NetworkSelector = &network
	}

	r := &repl{
		conv:       chat.NewConversation(filters),
		controller: streaming.NewController(apiClient, apiClient, logger),
		filters:    filters,
		sessionID:  chatSessionFlag,
	}

	if r.sessionID != "" {
		if err := r.resume(ctx); err != nil {
			return err
		}
	} else {
		// Optimistic entry until the server assigns a real session.
		r.localSessions = append(r.localSessions, chatModels.SessionSummary{
			ID:         uuid.NewString(),
			Title:      "New chat",
			CreatedAt:  time.Now(),
			Optimistic: true,
		})
	}

	fmt.Println("chainchat - type a message, /help for commands, /quit to exit")
	scanner := bufio.NewScanner(os.Stdin)

	for {
		fmt.Printf("%syou>%s ", colorBlue, colorReset)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := r.handleCommand(ctx, line); quit {
				break
			}
			continue
		}
		r.runTurn(ctx, line)
	}

	return scanner.Err()
}

// resume fetches an existing session, rebuilds its transcript, and renders
// it. The fetched session is archived for offline replay.
func (r *repl) resume(ctx context.Context) error {
	session, err := apiClient.GetSession(ctx, r.sessionID)
	if err != nil {
		return fmt.Errorf("resume session %s: %w", r.sessionID, err)
	}
	if session.Context != nil {
		*r.filters = chatModels.ContextFromWire(*session.Context)
	}

	r.conv.Messages = chat.NewReconstructor(logger).Reconstruct(session.History)
	r.conv.SessionID = session.ID

	full := newRenderer(os.Stdout)
	full.Render(r.conv.Messages)
	full.Finish()

	if archive, err := openArchive(); err == nil {
		defer func() { _ = archive.Close() }()
		if err := archive.SaveSession(ctx, session); err != nil {
			logger.Warn("archiving session failed", "session_id", session.ID, "error", err)
		}
	}
	return nil
}

// runTurn executes one streamed chat turn. Ctrl-C cancels the turn without
// leaving the REPL; messages already rendered stay.
func (r *repl) runTurn(ctx context.Context, text string) {
	turnCtx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	req := &chatSvc.TurnRequest{
		SessionID: r.sessionID,
		Message:   chatModels.NewUserMessage(chatModels.TextBlock(text)),
		Context:   r.filters,
	}

	// Record the user message so the live transcript converges with what the
	// history reconstructor would produce. The prompt already echoed it, so
	// the renderer starts past it.
	r.conv.Messages = append(r.conv.Messages, req.Message)
	out := newRenderer(os.Stdout)
	out.catchUp(r.conv.Messages)

	err := r.controller.Run(turnCtx, r.conv, req, out.Render)
	out.Finish()

	switch {
	case errors.Is(err, domain.ErrCancelled):
		fmt.Printf("%s[cancelled]%s\n", colorDim, colorReset)
	case err != nil:
		logger.Error("turn failed", "error", err)
		fmt.Printf("%serror:%s %v\n", colorRed, colorReset, err)
	}

	// The first turn creates the session; reconcile the optimistic entry.
	if r.sessionID == "" && r.conv.SessionID != "" {
		r.sessionID = r.conv.SessionID
		for _, s := range r.localSessions {
			if s.Optimistic {
				r.deletedIDs = append(r.deletedIDs, s.ID)
			}
		}
		r.localSessions = []chatModels.SessionSummary{{
			ID:        r.sessionID,
			Title:     "New chat",
			CreatedAt: time.Now(),
		}}
	}
}

// handleCommand dispatches a slash command. Returns true to exit the REPL.
func (r *repl) handleCommand(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	cmd, args := fields[0], fields[1:]

	switch cmd {
	case "/quit", "/exit":
		return true

	case "/help":
		fmt.Println(`Commands:
  /context              show the active chain/network/wallet context
  /wallet <address>     set the wallet address
  /chains <id,id,...>   set the chain id list
  /network <name>       set the network selector
  /sessions             list sessions (server + local)
  /feedback <up|down>   rate the last assistant response
  /quit                 exit`)

	case "/context":
		r.printContext()

	case "/wallet":
		if len(args) != 1 {
			fmt.Println("usage: /wallet <address>")
			break
		}
		addr := args[0]
		r.updateContext(ctx, func(f *chatModels.ContextFilters) { f.WalletAddress = &addr })

	case "/chains":
		if len(args) != 1 {
			fmt.Println("usage: /chains <id,id,...>")
			break
		}
		ids := strings.Split(args[0], ",")
		r.updateContext(ctx, func(f *chatModels.ContextFilters) { f.ChainIDs = ids })

	case "/network":
		if len(args) != 1 {
			fmt.Println("usage: /network <name>")
			break
		}
		network := args[0]
		r.updateContext(ctx, func(f *chatModels.ContextFilters) { f.NetworkSelector = &network })

	case "/sessions":
		r.printSessions(ctx)

	case "/feedback":
		if len(args) != 1 || (args[0] != chatSvc.FeedbackUp && args[0] != chatSvc.FeedbackDown) {
			fmt.Println("usage: /feedback <up|down>")
			break
		}
		r.submitFeedback(ctx, args[0])

	default:
		fmt.Printf("unknown command %s (try /help)\n", cmd)
	}
	return false
}

func (r *repl) printContext() {
	fmt.Printf("chains:  %s\n", strings.Join(r.filters.ChainIDs, ", "))
	network := "-"
	if r.filters.NetworkSelector != nil {
		network = *r.filters.NetworkSelector
	}
	fmt.Printf("network: %s\n", network)
	wallet := "-"
	if r.filters.WalletAddress != nil {
		wallet = *r.filters.WalletAddress
	}
	fmt.Printf("wallet:  %s\n", wallet)
}

// updateContext applies a local edit and pushes it to the server when a
// session already exists.
func (r *repl) updateContext(ctx context.Context, edit func(*chatModels.ContextFilters)) {
	updated := *r.filters
	edit(&updated)
	if err := updated.Validate(); err != nil {
		fmt.Printf("%serror:%s %v\n", colorRed, colorReset, err)
		return
	}
	*r.filters = updated

	if r.sessionID != "" {
		if err := apiClient.UpdateSession(ctx, r.sessionID, r.filters); err != nil {
			logger.Warn("context update not persisted", "session_id", r.sessionID, "error", err)
			fmt.Println("context updated locally; server update failed")
			return
		}
	}
	r.printContext()
}

func (r *repl) printSessions(ctx context.Context) {
	server, err := apiClient.ListSessions(ctx)
	if err != nil {
		logger.Warn("listing sessions failed", "error", err)
	}
	merged := chat.MergeSessions(server, r.localSessions, r.deletedIDs)
	if len(merged) == 0 {
		fmt.Println("no sessions")
		return
	}
	for _, s := range merged {
		marker := " "
		if s.ID == r.sessionID || s.Optimistic {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, s.ID, s.Title)
	}
}

// submitFeedback rates the most recent response that carries a request id.
// Replayed history has none, so feedback silently requires a live turn.
func (r *repl) submitFeedback(ctx context.Context, rating string) {
	requestID := ""
	for i := len(r.conv.Messages) - 1; i >= 0; i-- {
		if id := r.conv.Messages[i].RequestID; id != "" {
			requestID = id
			break
		}
	}
	if requestID == "" {
		fmt.Println("nothing to rate yet")
		return
	}
	if err := apiClient.SubmitFeedback(ctx, r.sessionID, requestID, rating); err != nil {
		fmt.Printf("%serror:%s %v\n", colorRed, colorReset, err)
		return
	}
	fmt.Println("feedback sent")
}
