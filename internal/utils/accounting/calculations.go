package accounting

import (
	"fmt"

	"github.com/ledgerpipe/ledgerpipe/internal/apperrors"
	"github.com/ledgerpipe/ledgerpipe/internal/core/domain"
)

// SignedAmount applies the ledger's sign convention to an entry amount:
// a CREDIT increases the account balance, a DEBIT decreases it. This is the
// single place the convention is defined; every balance computation goes
// through it.
func SignedAmount(entryType domain.EntryType, amount int64) (int64, error) {
	switch entryType {
	case domain.Credit:
		return amount, nil
	case domain.Debit:
		return -amount, nil
	default:
		return 0, fmt.Errorf("unknown entry type %q", entryType)
	}
}

// ValidatePlan checks an entries plan against the posting contract: at least
// two lines, all amounts positive, a single currency, and debits equal to
// credits. Violations surface as ErrUnbalancedEntries or ErrValidation and are
// never retried.
func ValidatePlan(lines []domain.PlanLine) error {
	if len(lines) < 2 {
		return fmt.Errorf("%w: plan must contain at least two entries", apperrors.ErrUnbalancedEntries)
	}

	currency := lines[0].CurrencyCode
	var debits, credits int64
	for _, line := range lines {
		if line.Amount <= 0 {
			return fmt.Errorf("%w: entry amount must be positive for account %s", apperrors.ErrValidation, line.ExternalAccountID)
		}
		if line.ExternalAccountID == "" {
			return fmt.Errorf("%w: entry account reference is required", apperrors.ErrValidation)
		}
		if line.CurrencyCode != currency {
			return fmt.Errorf("%w: plan mixes currencies %s and %s", apperrors.ErrValidation, currency, line.CurrencyCode)
		}
		switch line.EntryType {
		case domain.Debit:
			debits += line.Amount
		case domain.Credit:
			credits += line.Amount
		default:
			return fmt.Errorf("%w: unknown entry type %q", apperrors.ErrValidation, line.EntryType)
		}
	}

	if debits != credits {
		return fmt.Errorf("%w: debits sum to %d and credits sum to %d", apperrors.ErrUnbalancedEntries, debits, credits)
	}
	return nil
}

// BalanceChanges folds a set of entries into per-account signed deltas.
func BalanceChanges(entries []domain.Entry) (map[string]int64, error) {
	changes := make(map[string]int64, len(entries))
	for _, entry := range entries {
		signed, err := SignedAmount(entry.EntryType, entry.Amount)
		if err != nil {
			return nil, fmt.Errorf("entry %s: %w", entry.EntryID, err)
		}
		changes[entry.AccountID] += signed
	}
	return changes, nil
}
