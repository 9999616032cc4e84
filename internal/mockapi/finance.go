package mockapi

import (
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	errTransactionNotFound = errors.New("Transação não encontrada")
	errCategoryNotFound    = errors.New("Categoria não encontrada")
	errForeignCategory     = errors.New("Categoria não encontrada ou não pertence ao usuário")
)

type transaction struct {
	ID          string      `json:"id"`
	Description string      `json:"description"`
	Amount      json.Number `json:"amount"`
	Type        string      `json:"type"`
	Date        time.Time   `json:"date"`
	UserID      string      `json:"userId"`
	CategoryID  *string     `json:"categoryId"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

type category struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Icon        *string   `json:"icon"`
	Color       *string   `json:"color"`
	UserID      string    `json:"userId"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type transactionInput struct {
	Description *string      `json:"description"`
	Amount      *json.Number `json:"amount"`
	Type        *string      `json:"type"`
	CategoryID  *string      `json:"categoryId"`
	Date        *time.Time   `json:"date"`
}

type categoryInput struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Icon        *string `json:"icon"`
	Color       *string `json:"color"`
}

type idVars struct {
	ID string `json:"id"`
}

func (s *Server) userTransactions(userID string) []*transaction {
	out := make([]*transaction, 0)
	for _, tx := range s.transactions {
		if tx.UserID == userID {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (s *Server) listTransactions(c call) (any, error) {
	return s.userTransactions(c.userID), nil
}

func (s *Server) listTransactionsPaginated(c call) (any, error) {
	var vars struct {
		Filters struct {
			Search     string `json:"search"`
			Type       string `json:"type"`
			CategoryID string `json:"categoryId"`
			Month      *int   `json:"month"`
			Year       *int   `json:"year"`
			Page       int    `json:"page"`
			Limit      int    `json:"limit"`
		} `json:"filters"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	f := vars.Filters
	if f.Page < 1 || f.Limit < 1 {
		return nil, errors.New("page e limit devem ser maiores que zero")
	}

	matched := make([]*transaction, 0)
	for _, tx := range s.userTransactions(c.userID) {
		if f.Search != "" && !strings.Contains(tx.Description, f.Search) {
			continue
		}
		if f.Type != "" && tx.Type != f.Type {
			continue
		}
		if f.CategoryID != "" && (tx.CategoryID == nil || *tx.CategoryID != f.CategoryID) {
			continue
		}
		if f.Year != nil && tx.Date.Year() != *f.Year {
			continue
		}
		if f.Year != nil && f.Month != nil && int(tx.Date.Month()) != *f.Month {
			continue
		}
		matched = append(matched, tx)
	}

	total := len(matched)
	totalPages := (total + f.Limit - 1) / f.Limit
	start := min((f.Page-1)*f.Limit, total)
	end := min(start+f.Limit, total)

	return map[string]any{
		"transactions": matched[start:end],
		"pagination": map[string]any{
			"currentPage":     f.Page,
			"totalPages":      totalPages,
			"totalItems":      total,
			"itemsPerPage":    f.Limit,
			"hasNextPage":     f.Page < totalPages,
			"hasPreviousPage": f.Page > 1,
		},
	}, nil
}

func (s *Server) ownTransaction(userID, id string) (*transaction, error) {
	tx, ok := s.transactions[id]
	if !ok || tx.UserID != userID {
		return nil, errTransactionNotFound
	}
	return tx, nil
}

func (s *Server) checkCategory(userID string, id *string) error {
	if id == nil || *id == "" {
		return nil
	}
	cat, ok := s.categories[*id]
	if !ok || cat.UserID != userID {
		return errForeignCategory
	}
	return nil
}

func (s *Server) getTransaction(c call) (any, error) {
	var vars idVars
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	return s.ownTransaction(c.userID, vars.ID)
}

func (s *Server) createTransaction(c call) (any, error) {
	var vars struct {
		Data transactionInput `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	in := vars.Data
	if in.Description == nil || in.Amount == nil || in.Type == nil {
		return nil, errors.New("description, amount e type são obrigatórios")
	}
	if err := s.checkCategory(c.userID, in.CategoryID); err != nil {
		return nil, err
	}
	now := s.now()
	tx := &transaction{
		ID:          uuid.NewString(),
		Description: *in.Description,
		Amount:      *in.Amount,
		Type:        *in.Type,
		Date:        now,
		UserID:      c.userID,
		CategoryID:  in.CategoryID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if in.Date != nil {
		tx.Date = *in.Date
	}
	s.transactions[tx.ID] = tx
	return tx, nil
}

func (s *Server) updateTransaction(c call) (any, error) {
	var vars struct {
		ID   string           `json:"id"`
		Data transactionInput `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	tx, err := s.ownTransaction(c.userID, vars.ID)
	if err != nil {
		return nil, err
	}
	in := vars.Data
	if err := s.checkCategory(c.userID, in.CategoryID); err != nil {
		return nil, err
	}
	if in.Description != nil {
		tx.Description = *in.Description
	}
	if in.Amount != nil {
		tx.Amount = *in.Amount
	}
	if in.Type != nil {
		tx.Type = *in.Type
	}
	if in.CategoryID != nil {
		tx.CategoryID = in.CategoryID
	}
	if in.Date != nil {
		tx.Date = *in.Date
	}
	tx.UpdatedAt = s.now()
	return tx, nil
}

func (s *Server) deleteTransaction(c call) (any, error) {
	var vars idVars
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if _, err := s.ownTransaction(c.userID, vars.ID); err != nil {
		return nil, err
	}
	delete(s.transactions, vars.ID)
	return true, nil
}

func (s *Server) listCategories(c call) (any, error) {
	out := make([]*category, 0)
	for _, cat := range s.categories {
		if cat.UserID == c.userID {
			out = append(out, cat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Server) ownCategory(userID, id string) (*category, error) {
	cat, ok := s.categories[id]
	if !ok || cat.UserID != userID {
		return nil, errCategoryNotFound
	}
	return cat, nil
}

func (s *Server) getCategory(c call) (any, error) {
	var vars idVars
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	return s.ownCategory(c.userID, vars.ID)
}

func (s *Server) createCategory(c call) (any, error) {
	var vars struct {
		Data categoryInput `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if vars.Data.Name == nil {
		return nil, errors.New("name é obrigatório")
	}
	now := s.now()
	cat := &category{
		ID:          uuid.NewString(),
		Name:        *vars.Data.Name,
		Description: vars.Data.Description,
		Icon:        vars.Data.Icon,
		Color:       vars.Data.Color,
		UserID:      c.userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.categories[cat.ID] = cat
	return cat, nil
}

func (s *Server) updateCategory(c call) (any, error) {
	var vars struct {
		ID   string        `json:"id"`
		Data categoryInput `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	cat, err := s.ownCategory(c.userID, vars.ID)
	if err != nil {
		return nil, err
	}
	if vars.Data.Name != nil {
		cat.Name = *vars.Data.Name
	}
	if vars.Data.Description != nil {
		cat.Description = vars.Data.Description
	}
	if vars.Data.Icon != nil {
		cat.Icon = vars.Data.Icon
	}
	if vars.Data.Color != nil {
		cat.Color = vars.Data.Color
	}
	cat.UpdatedAt = s.now()
	return cat, nil
}

func (s *Server) deleteCategory(c call) (any, error) {
	var vars idVars
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if _, err := s.ownCategory(c.userID, vars.ID); err != nil {
		return nil, err
	}
	delete(s.categories, vars.ID)
	for _, tx := range s.transactions {
		if tx.CategoryID != nil && *tx.CategoryID == vars.ID {
			tx.CategoryID = nil
		}
	}
	return true, nil
}
