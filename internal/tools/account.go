package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fenwick-labs/voicegate/internal/agentctrl"
	"github.com/fenwick-labs/voicegate/internal/backend"
	"github.com/fenwick-labs/voicegate/internal/config"
	"github.com/fenwick-labs/voicegate/internal/session"
)

// requireAuth checks the spec.md §4.3 authentication policy shared by
// every requires_auth tool: fail with ToolUnauthenticated before any
// backend call is attempted.
func requireAuth(sess *session.Session) *Result {
	if sess != nil && sess.Authenticated() {
		return nil
	}
	return errResult(config.ErrToolUnauthenticated, "error: authentication required to access account information")
}

// backendResult maps a backend.Client error into a tool Result, per
// spec.md §7's per-call error kinds.
func backendResult(err error) *Result {
	var cfgErr *config.Error
	if errors.As(err, &cfgErr) {
		switch cfgErr.Kind {
		case config.ErrToolUnauthenticated:
			return errResult(config.ErrToolUnauthenticated, "error: authentication required to access account information")
		case config.ErrBackendTimeout:
			return errResult(config.ErrBackendTimeout, "I'm sorry, the account system is taking too long to respond. Please try again shortly.")
		default:
			return errResult(config.ErrBackendHTTPError, "I'm sorry, I couldn't reach the account system right now. Please try again shortly.")
		}
	}
	return errResult(config.ErrBackendHTTPError, "I'm sorry, something went wrong while checking your account. Please try again shortly.")
}

// GetAccountBalance implements spec.md §4.3's get_account_balance tool.
type GetAccountBalance struct {
	client *backend.Client
}

func NewGetAccountBalance(client *backend.Client) *GetAccountBalance {
	return &GetAccountBalance{client: client}
}

func (g *GetAccountBalance) Name() string         { return "get_account_balance" }
func (g *GetAccountBalance) RequiresAuth() bool    { return true }
func (g *GetAccountBalance) Description() string   { return "Get the customer's account balances." }

func (g *GetAccountBalance) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	bal, err := g.client.GetBalance(ctx, sess.AuthToken)
	if err != nil {
		return backendResult(err), nil, nil
	}
	total := bal.Main + bal.Savings
	text := fmt.Sprintf("Main balance: %.2f %s. Savings balance: %.2f %s. Total: %.2f %s.",
		bal.Main, bal.Currency, bal.Savings, bal.Currency, total, bal.Currency)
	return okResult(text), nil, nil
}

// GetAccountDetails implements spec.md §4.3's get_account_details tool.
type GetAccountDetails struct {
	client *backend.Client
}

func NewGetAccountDetails(client *backend.Client) *GetAccountDetails {
	return &GetAccountDetails{client: client}
}

func (g *GetAccountDetails) Name() string       { return "get_account_details" }
func (g *GetAccountDetails) RequiresAuth() bool  { return true }
func (g *GetAccountDetails) Description() string { return "Get the customer's account details." }

func (g *GetAccountDetails) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	details, err := g.client.GetAccountDetails(ctx, sess.AuthToken)
	if err != nil {
		return backendResult(err), nil, nil
	}
	text := fmt.Sprintf("Account %s (%s), held by %s.", details.AccountNo, details.Type, details.Holder)
	return okResult(text), nil, nil
}

// GetRecentTransactions implements spec.md §4.3's get_recent_transactions
// tool.
type GetRecentTransactions struct {
	client *backend.Client
}

func NewGetRecentTransactions(client *backend.Client) *GetRecentTransactions {
	return &GetRecentTransactions{client: client}
}

func (g *GetRecentTransactions) Name() string       { return "get_recent_transactions" }
func (g *GetRecentTransactions) RequiresAuth() bool  { return true }
func (g *GetRecentTransactions) Description() string { return "Get the customer's recent transactions." }

type recentTransactionsArgs struct {
	Limit int `json:"limit" validate:"omitempty,min=1,max=20"`
}

func (g *GetRecentTransactions) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	var args recentTransactionsArgs
	if errRes := decodeArgs(arguments, &args); errRes != nil {
		return errRes, nil, nil
	}
	limit := args.Limit
	if limit <= 0 {
		limit = 10
	}

	txns, err := g.client.GetRecentTransactions(ctx, sess.AuthToken, limit)
	if err != nil {
		return backendResult(err), nil, nil
	}
	if len(txns) == 0 {
		return okResult("No recent transactions found."), nil, nil
	}

	text := "Recent transactions:\n"
	for _, t := range txns {
		text += fmt.Sprintf("%s: %s %s%.2f\n", t.Date, t.Description, t.Sign, t.Amount)
	}
	return okResult(text), nil, nil
}

// GetCardDetails implements spec.md §4.3's get_card_details tool.
type GetCardDetails struct {
	client *backend.Client
}

func NewGetCardDetails(client *backend.Client) *GetCardDetails {
	return &GetCardDetails{client: client}
}

func (g *GetCardDetails) Name() string       { return "get_card_details" }
func (g *GetCardDetails) RequiresAuth() bool  { return true }
func (g *GetCardDetails) Description() string { return "Get the customer's card details." }

func (g *GetCardDetails) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	card, err := g.client.GetCardDetails(ctx, sess.AuthToken)
	if err != nil {
		return backendResult(err), nil, nil
	}
	text := fmt.Sprintf("Card %s is %s. Credit limit %.2f, available %.2f, expires %s.",
		card.MaskedPAN, card.State, card.CreditLimit, card.Available, card.Expiry)
	return okResult(text), nil, nil
}

// FreezeCard implements spec.md §4.3's freeze_card tool.
type FreezeCard struct {
	client *backend.Client
}

func NewFreezeCard(client *backend.Client) *FreezeCard {
	return &FreezeCard{client: client}
}

func (f *FreezeCard) Name() string       { return "freeze_card" }
func (f *FreezeCard) RequiresAuth() bool  { return true }
func (f *FreezeCard) Description() string { return "Freeze the customer's card." }

func (f *FreezeCard) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	state, err := f.client.FreezeCard(ctx, sess.AuthToken)
	if err != nil {
		return backendResult(err), nil, nil
	}
	return okResult(fmt.Sprintf("Your card is now %s.", state.State)), nil, nil
}

// UnfreezeCard implements spec.md §4.3's unfreeze_card tool.
type UnfreezeCard struct {
	client *backend.Client
}

func NewUnfreezeCard(client *backend.Client) *UnfreezeCard {
	return &UnfreezeCard{client: client}
}

func (u *UnfreezeCard) Name() string       { return "unfreeze_card" }
func (u *UnfreezeCard) RequiresAuth() bool  { return true }
func (u *UnfreezeCard) Description() string { return "Unfreeze the customer's card." }

func (u *UnfreezeCard) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	state, err := u.client.UnfreezeCard(ctx, sess.AuthToken)
	if err != nil {
		return backendResult(err), nil, nil
	}
	return okResult(fmt.Sprintf("Your card is now %s.", state.State)), nil, nil
}

// CheckProductOwnership implements spec.md §4.3's check_product_ownership
// tool. There is no dedicated backend endpoint for this in §6's table;
// it's derived from account details, matching the account API's fixed
// schema rather than inventing a new backend route.
type CheckProductOwnership struct {
	client *backend.Client
}

func NewCheckProductOwnership(client *backend.Client) *CheckProductOwnership {
	return &CheckProductOwnership{client: client}
}

func (c *CheckProductOwnership) Name() string       { return "check_product_ownership" }
func (c *CheckProductOwnership) RequiresAuth() bool  { return true }
func (c *CheckProductOwnership) Description() string {
	return "Check whether the customer already holds a given product type."
}

type checkProductOwnershipArgs struct {
	ProductType string `json:"product_type" validate:"required"`
}

func (c *CheckProductOwnership) Execute(ctx context.Context, sess *session.Session, arguments json.RawMessage) (*Result, *agentctrl.HandoffSignal, error) {
	if errRes := requireAuth(sess); errRes != nil {
		return errRes, nil, nil
	}
	var args checkProductOwnershipArgs
	if errRes := decodeArgs(arguments, &args); errRes != nil {
		return errRes, nil, nil
	}

	details, err := c.client.GetAccountDetails(ctx, sess.AuthToken)
	if err != nil {
		return backendResult(err), nil, nil
	}

	owns := details.Type == args.ProductType
	if owns {
		return okResult(fmt.Sprintf("The customer already holds a %s account; no action needed.", args.ProductType)), nil, nil
	}
	return okResult(fmt.Sprintf("The customer does not hold a %s product; recommend offering an application.", args.ProductType)), nil, nil
}
