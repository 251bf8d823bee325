package checks

import (
	"context"
	"fmt"

	"risk_guard/internal/core"
)

// ContractBalanceCheck vetoes buys when the exchange reports no available
// contract balance at all. It is a coarse pre-filter; the exact cost of the
// order is the sandbox's concern.
type ContractBalanceCheck struct {
	account core.IAccountService
	logger  core.ILogger
}

// NewContractBalanceCheck wires the check's collaborators.
func NewContractBalanceCheck(account core.IAccountService, logger core.ILogger) *ContractBalanceCheck {
	return &ContractBalanceCheck{
		account: account,
		logger:  logger.WithField("check", "contract_balance"),
	}
}

func (c *ContractBalanceCheck) Name() string {
	return "contract_balance"
}

// Supports governs buys that did not opt out of balance enforcement.
func (c *ContractBalanceCheck) Supports(_ context.Context, order core.Order, _ *Context) (bool, error) {
	return order.Kind == core.OrderKindBuy && !order.IgnoreInsufficientBalance, nil
}

func (c *ContractBalanceCheck) Check(ctx context.Context, order core.Order, _ *Context) (Result, error) {
	available, err := c.account.AvailableContractBalance(ctx, order.Symbol.QuoteCoin)
	if err != nil {
		return Result{}, err
	}
	if available.IsPositive() {
		return Success(fmt.Sprintf("available contract balance %s %s", available, order.Symbol.QuoteCoin)), nil
	}
	return Failure(FailureInsufficientContractBalance,
		fmt.Sprintf("available contract balance %s %s", available, order.Symbol.QuoteCoin)), nil
}
