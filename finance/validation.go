package finance

import (
	"strings"

	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
)

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "id is required")
	}
	return nil
}

func (in CreateTransactionInput) validate() error {
	if strings.TrimSpace(in.Description) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "description is required")
	}
	if !in.Amount.IsPositive() {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "amount must be positive")
	}
	if !in.Type.Valid() {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "invalid transaction type %q", in.Type)
	}
	return nil
}

func (in UpdateTransactionInput) validate() error {
	if in.Description != nil && strings.TrimSpace(*in.Description) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "description cannot be empty")
	}
	if in.Amount != nil && !in.Amount.IsPositive() {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "amount must be positive")
	}
	if in.Type != nil && !in.Type.Valid() {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "invalid transaction type %q", *in.Type)
	}
	return nil
}

func (in CreateCategoryInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "name is required")
	}
	return nil
}

func (in UpdateCategoryInput) validate() error {
	if in.Name != nil && strings.TrimSpace(*in.Name) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "name cannot be empty")
	}
	return nil
}

func (f TransactionFilters) validate() error {
	if f.Page < 1 || f.Limit < 1 {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "page and limit must be at least 1")
	}
	if f.Type != nil && !f.Type.Valid() {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "invalid transaction type %q", *f.Type)
	}
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "month must be between 1 and 12")
	}
	return nil
}
