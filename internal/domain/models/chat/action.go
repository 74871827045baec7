package chat

// Action kind constants. These match the `type` discriminator inside action
// frame payloads; any other value on the wire is ignored.
const (
	ActionKindSignTransaction = "sign_transaction"
	ActionKindSignSwap        = "sign_swap"
)

// Action is a request for the user to sign something. Exactly one of
// Transaction or Swap is set, selected by Kind.
type Action struct {
	Kind        string              `json:"kind"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
	Swap        *SwapPayload        `json:"swap,omitempty"`
}

// TransactionPayload carries enough data to render and submit a transaction
// signing request. Chain ids stay numeric here: they are tied to a specific
// chain on the wire, unlike the string ids in ContextFilters.
type TransactionPayload struct {
	ChainID int64   `json:"chain_id"`
	To      string  `json:"to"`
	Data    string  `json:"data"`
	Value   *string `json:"value,omitempty"` // Wei amount as decimal string
}

// TokenAmount is one side of a swap quote.
type TokenAmount struct {
	Symbol  string `json:"symbol"`
	Address string `json:"address,omitempty"`
	Amount  string `json:"amount"` // Base-unit amount as decimal string
	ChainID int64  `json:"chain_id,omitempty"`
}

// SwapPayload carries a swap quote plus the transaction(s) needed to execute
// it. Approval is present only when the sell token needs an allowance first.
type SwapPayload struct {
	SellToken   TokenAmount         `json:"sell_token"`
	BuyToken    TokenAmount         `json:"buy_token"`
	Transaction *TransactionPayload `json:"transaction,omitempty"`
	Approval    *TransactionPayload `json:"approval,omitempty"`
}
