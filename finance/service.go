// Package finance exposes the transaction, category and profile operations of
// the backend. Every call goes through the client pipeline, so token refresh is
// handled there and never here.
package finance

import (
	"context"

	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/jrsteele09/go-finance-client/money"
	"github.com/jrsteele09/go-finance-client/session"
	"github.com/pkg/errors"
)

// Profile is the part of the session store the profile flow needs.
type Profile interface {
	Snapshot() session.Session
	RenameUser(name string) error
}

type Service struct {
	exec    graphql.Executor
	profile Profile
}

func NewService(exec graphql.Executor, profile Profile) (*Service, error) {
	if exec == nil {
		return nil, errors.New("[finance NewService] executor is required")
	}
	if profile == nil {
		return nil, errors.New("[finance NewService] profile is required")
	}
	return &Service{exec: exec, profile: profile}, nil
}

// ListTransactions may be answered from the response cache.
func (s *Service) ListTransactions(ctx context.Context) ([]Transaction, error) {
	op := graphql.NewQuery(graphql.ListTransactionsOperation, graphql.ListTransactionsDocument, nil).
		WithFetchPolicy(graphql.CacheFirst)
	txs, err := graphql.Run[[]Transaction](ctx, s.exec, op, "listTransactions")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListTransactions]")
	}
	return txs, nil
}

func (s *Service) ListTransactionsPaginated(ctx context.Context, filters TransactionFilters) (*PaginatedTransactions, error) {
	if err := filters.validate(); err != nil {
		return nil, err
	}
	op := graphql.NewQuery(graphql.ListTransactionsPaginatedOperation, graphql.ListTransactionsPaginatedDocument, map[string]any{
		"filters": filters,
	})
	page, err := graphql.Run[PaginatedTransactions](ctx, s.exec, op, "listTransactionsPaginated")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListTransactionsPaginated]")
	}
	return &page, nil
}

func (s *Service) GetTransaction(ctx context.Context, id string) (*Transaction, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	op := graphql.NewQuery(graphql.GetTransactionOperation, graphql.GetTransactionDocument, map[string]any{"id": id})
	tx, err := graphql.Run[Transaction](ctx, s.exec, op, "getTransaction")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.GetTransaction]")
	}
	return &tx, nil
}

func (s *Service) CreateTransaction(ctx context.Context, in CreateTransactionInput) (*Transaction, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	op := graphql.NewMutation(graphql.CreateTransactionOperation, graphql.CreateTransactionDocument, map[string]any{"data": in})
	tx, err := graphql.Run[Transaction](ctx, s.exec, op, "createTransaction")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateTransaction]")
	}
	return &tx, nil
}

func (s *Service) UpdateTransaction(ctx context.Context, id string, in UpdateTransactionInput) (*Transaction, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	op := graphql.NewMutation(graphql.UpdateTransactionOperation, graphql.UpdateTransactionDocument, map[string]any{
		"id":   id,
		"data": in,
	})
	tx, err := graphql.Run[Transaction](ctx, s.exec, op, "updateTransaction")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateTransaction]")
	}
	return &tx, nil
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	op := graphql.NewMutation(graphql.DeleteTransactionOperation, graphql.DeleteTransactionDocument, map[string]any{"id": id})
	deleted, err := graphql.Run[bool](ctx, s.exec, op, "deleteTransaction")
	if err != nil {
		return false, errors.Wrap(err, "[Service.DeleteTransaction]")
	}
	return deleted, nil
}

// Summary totals all transactions into income, expense and balance.
func (s *Service) Summary(ctx context.Context) (money.Summary, error) {
	txs, err := s.ListTransactions(ctx)
	if err != nil {
		return money.Summary{}, err
	}
	return Summarise(txs), nil
}

func Summarise(txs []Transaction) money.Summary {
	entries := make([]money.Entry, 0, len(txs))
	for _, tx := range txs {
		entries = append(entries, money.Entry{Amount: tx.Amount, Income: tx.Type == Income})
	}
	return money.Sum(entries)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	op := graphql.NewQuery(graphql.ListCategoriesOperation, graphql.ListCategoriesDocument, nil).
		WithFetchPolicy(graphql.CacheFirst)
	categories, err := graphql.Run[[]Category](ctx, s.exec, op, "listCategories")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListCategories]")
	}
	return categories, nil
}

func (s *Service) GetCategory(ctx context.Context, id string) (*Category, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	op := graphql.NewQuery(graphql.GetCategoryOperation, graphql.GetCategoryDocument, map[string]any{"id": id})
	c, err := graphql.Run[Category](ctx, s.exec, op, "getCategory")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.GetCategory]")
	}
	return &c, nil
}

func (s *Service) CreateCategory(ctx context.Context, in CreateCategoryInput) (*Category, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	op := graphql.NewMutation(graphql.CreateCategoryOperation, graphql.CreateCategoryDocument, map[string]any{"data": in})
	c, err := graphql.Run[Category](ctx, s.exec, op, "createCategory")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateCategory]")
	}
	return &c, nil
}

func (s *Service) UpdateCategory(ctx context.Context, id string, in UpdateCategoryInput) (*Category, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if err := in.validate(); err != nil {
		return nil, err
	}
	op := graphql.NewMutation(graphql.UpdateCategoryOperation, graphql.UpdateCategoryDocument, map[string]any{
		"id":   id,
		"data": in,
	})
	c, err := graphql.Run[Category](ctx, s.exec, op, "updateCategory")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateCategory]")
	}
	return &c, nil
}

func (s *Service) DeleteCategory(ctx context.Context, id string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	op := graphql.NewMutation(graphql.DeleteCategoryOperation, graphql.DeleteCategoryDocument, map[string]any{"id": id})
	deleted, err := graphql.Run[bool](ctx, s.exec, op, "deleteCategory")
	if err != nil {
		return false, errors.Wrap(err, "[Service.DeleteCategory]")
	}
	return deleted, nil
}

// UpdateProfileName renames the signed-in user on the backend and then in the
// local session.
func (s *Service) UpdateProfileName(ctx context.Context, name string) (*session.User, error) {
	if name == "" {
		return nil, ierrors.Wrapf(ierrors.ErrInvalidInput, "name is required")
	}
	snap := s.profile.Snapshot()
	if snap.User == nil {
		return nil, errors.Wrap(ierrors.ErrNotAuthenticated, "[Service.UpdateProfileName]")
	}

	op := graphql.NewMutation(graphql.UpdateUserOperation, graphql.UpdateUserDocument, map[string]any{
		"id":   snap.User.ID,
		"data": updateUserInput{Name: name},
	})
	user, err := graphql.Run[session.User](ctx, s.exec, op, "updateUser")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateProfileName]")
	}
	if err := s.profile.RenameUser(user.Name); err != nil {
		var storageErr *session.StorageError
		if !errors.As(err, &storageErr) {
			return nil, errors.Wrap(err, "[Service.UpdateProfileName] RenameUser")
		}
	}
	return &user, nil
}
