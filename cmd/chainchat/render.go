package main

import (
	"fmt"
	"io"

	chatModels "chainchat/internal/domain/models/chat"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorBlue   = "\033[34m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

// renderer prints transcript growth incrementally. The controller calls
// Render after every mutating transition with the full message list; the
// renderer tracks how much of the tail it has already written so streamed
// deltas and presence updates appear as they arrive.
type renderer struct {
	out io.Writer

	printed     int  // messages already started
	textLen     int  // printed byte length of a trailing assistant message
	statusCount int  // printed statuses of a trailing presence message
	midLine     bool // an assistant line is open, no trailing newline yet
}

func newRenderer(out io.Writer) *renderer {
	return &renderer{out: out}
}

// catchUp marks all current messages as printed. Used when resuming a
// session whose history was already rendered in full.
func (r *renderer) catchUp(messages []chatModels.Message) {
	r.printed = len(messages)
	r.textLen = 0
	r.statusCount = 0
	if len(messages) > 0 {
		last := messages[len(messages)-1]
		r.textLen = len(last.Text)
		r.statusCount = len(last.Statuses)
	}
}

// Render prints whatever grew since the last call.
func (r *renderer) Render(messages []chatModels.Message) {
	// Continue the in-progress tail message first.
	if r.printed > 0 && r.printed <= len(messages) {
		last := &messages[r.printed-1]
		switch last.Type {
		case chatModels.MessageTypeAssistant:
			if len(last.Text) > r.textLen {
				fmt.Fprint(r.out, last.Text[r.textLen:])
				r.textLen = len(last.Text)
				r.midLine = true
			}
		case chatModels.MessageTypePresence:
			for _, s := range last.Statuses[r.statusCount:] {
				r.printStatus(s)
			}
			r.statusCount = len(last.Statuses)
		}
	}

	for i := r.printed; i < len(messages); i++ {
		r.startMessage(&messages[i])
	}
	r.printed = len(messages)
}

// Finish closes any open assistant line.
func (r *renderer) Finish() {
	if r.midLine {
		fmt.Fprintln(r.out)
		r.midLine = false
	}
}

// startMessage prints the opening of a newly appended message.
func (r *renderer) startMessage(m *chatModels.Message) {
	r.Finish()
	r.textLen = 0
	r.statusCount = 0

	switch m.Type {
	case chatModels.MessageTypeUser:
		for _, block := range m.Content {
			switch block.Type {
			case chatModels.BlockTypeText:
				fmt.Fprintf(r.out, "%syou>%s %s\n", colorBlue, colorReset, block.Text)
			case chatModels.BlockTypeImage:
				fmt.Fprintf(r.out, "%syou>%s [image] %s\n", colorBlue, colorReset, block.URL)
			case chatModels.BlockTypeTransactionReceipt:
				fmt.Fprintf(r.out, "%syou>%s [transaction %s on chain %d]\n", colorBlue, colorReset, block.TxHash, block.ChainID)
			}
		}

	case chatModels.MessageTypeAssistant:
		fmt.Fprintf(r.out, "%sassistant>%s %s", colorGreen, colorReset, m.Text)
		r.textLen = len(m.Text)
		r.midLine = true

	case chatModels.MessageTypePresence:
		for _, s := range m.Statuses {
			r.printStatus(s)
		}
		r.statusCount = len(m.Statuses)

	case chatModels.MessageTypeImage:
		fmt.Fprintf(r.out, "%s[image %dx%d]%s %s\n", colorCyan, m.Image.Width, m.Image.Height, colorReset, m.Image.URL)

	case chatModels.MessageTypeAction:
		fmt.Fprintf(r.out, "%s[action]%s %s\n", colorYellow, colorReset, describeAction(m.Action))

	case chatModels.MessageTypeError:
		fmt.Fprintf(r.out, "%serror:%s %s\n", colorRed, colorReset, m.ErrorText)
	}
}

func (r *renderer) printStatus(s string) {
	fmt.Fprintf(r.out, "%s  · %s%s\n", colorDim, s, colorReset)
}

// describeAction renders a signing request as one line. Signing itself is
// out of scope for this client; actions are displayed, never executed.
func describeAction(a *chatModels.Action) string {
	switch a.Kind {
	case chatModels.ActionKindSignTransaction:
		tx := a.Transaction
		if tx.Value != nil {
			return fmt.Sprintf("sign transaction on chain %d to %s (value %s wei)", tx.ChainID, tx.To, *tx.Value)
		}
		return fmt.Sprintf("sign transaction on chain %d to %s", tx.ChainID, tx.To)
	case chatModels.ActionKindSignSwap:
		swap := a.Swap
		desc := fmt.Sprintf("swap %s %s for %s %s",
			swap.SellToken.Amount, swap.SellToken.Symbol,
			swap.BuyToken.Amount, swap.BuyToken.Symbol)
		if swap.Approval != nil {
			desc += " (approval required)"
		}
		return desc
	default:
		return "unrecognized action"
	}
}
