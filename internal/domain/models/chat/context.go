package chat

import (
	"regexp"
	"strconv"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
)

// walletAddressPattern matches a 0x-prefixed 20-byte hex address.
var walletAddressPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)

// ContextFilters is the client-facing chain/network/wallet scoping applied to
// a session. Owned by the caller (one instance per chat page); replaced
// wholesale when a context frame arrives from the stream.
type ContextFilters struct {
	ChainIDs        []string `json:"chainIds"`
	NetworkSelector *string  `json:"networkSelector"`
	WalletAddress   *string  `json:"walletAddress"`
}

// WireContext is the snake_case shape the service speaks. Chain ids are
// numeric on the wire; absent optional fields are omitted rather than null.
type WireContext struct {
	ChainIDs      []int64 `json:"chain_ids"`
	Networks      *string `json:"networks,omitempty"`
	WalletAddress *string `json:"wallet_address,omitempty"`
}

// ToWire converts the client-facing context into the wire shape.
// Nil optional fields stay nil so json omits them, and an absent chain-id
// list becomes an empty one. Chain ids that do not parse as integers are
// dropped; Validate rejects them before anything is sent.
func (c ContextFilters) ToWire() WireContext {
	w := WireContext{ChainIDs: make([]int64, 0, len(c.ChainIDs))}
	for _, id := range c.ChainIDs {
		n, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			continue
		}
		w.ChainIDs = append(w.ChainIDs, n)
	}
	if c.NetworkSelector != nil && *c.NetworkSelector != "" {
		networks := *c.NetworkSelector
		w.Networks = &networks
	}
	if c.WalletAddress != nil && *c.WalletAddress != "" {
		addr := *c.WalletAddress
		w.WalletAddress = &addr
	}
	return w
}

// ContextFromWire is the inverse of ToWire. Used for context stream frames
// and for session create/update/fetch responses.
func ContextFromWire(w WireContext) ContextFilters {
	c := ContextFilters{ChainIDs: make([]string, 0, len(w.ChainIDs))}
	for _, n := range w.ChainIDs {
		c.ChainIDs = append(c.ChainIDs, strconv.FormatInt(n, 10))
	}
	if w.Networks != nil {
		networks := *w.Networks
		c.NetworkSelector = &networks
	}
	if w.WalletAddress != nil {
		addr := *w.WalletAddress
		c.WalletAddress = &addr
	}
	return c
}

// Validate checks the context before it is sent to the service.
func (c ContextFilters) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.ChainIDs, validation.Each(is.Digit)),
		validation.Field(&c.WalletAddress, validation.By(validateWalletAddress)),
	)
}

// validateWalletAddress accepts nil or a 0x-prefixed 40-hex-digit address.
func validateWalletAddress(value interface{}) error {
	addr, _ := value.(*string)
	if addr == nil || *addr == "" {
		return nil
	}
	return validation.Validate(*addr, validation.Match(walletAddressPattern))
}
