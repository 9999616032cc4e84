// Package ideas is the client for the idea board: ideas, comments and votes.
package ideas

import (
	"context"
	"strings"
	"time"

	"github.com/jrsteele09/go-finance-client/graphql"
	ierrors "github.com/jrsteele09/go-finance-client/internal/errors"
	"github.com/pkg/errors"
)

type Author struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	IdeaID    string    `json:"ideaId"`
	CreatedAt time.Time `json:"createdAt"`
}

type Idea struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description,omitempty"`
	AuthorID    string    `json:"authorId"`
	CountVotes  int       `json:"countVotes"`
	Author      *Author   `json:"author,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type CreateIdeaInput struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
}

type UpdateIdeaInput struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
}

type createCommentInput struct {
	Content string `json:"content"`
}

type Service struct {
	exec graphql.Executor
}

func NewService(exec graphql.Executor) (*Service, error) {
	if exec == nil {
		return nil, errors.New("[ideas NewService] executor is required")
	}
	return &Service{exec: exec}, nil
}

func (s *Service) List(ctx context.Context) ([]Idea, error) {
	op := graphql.NewQuery(graphql.ListIdeasOperation, graphql.ListIdeasDocument, nil)
	list, err := graphql.Run[[]Idea](ctx, s.exec, op, "listIdeas")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.List]")
	}
	return list, nil
}

func (s *Service) Get(ctx context.Context, id string) (*Idea, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	op := graphql.NewQuery(graphql.GetIdeaOperation, graphql.GetIdeaDocument, map[string]any{"id": id})
	idea, err := graphql.Run[Idea](ctx, s.exec, op, "getIdea")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Get]")
	}
	return &idea, nil
}

func (s *Service) Create(ctx context.Context, in CreateIdeaInput) (*Idea, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, ierrors.Wrapf(ierrors.ErrInvalidInput, "title is required")
	}
	op := graphql.NewMutation(graphql.CreateIdeaOperation, graphql.CreateIdeaDocument, map[string]any{"data": in})
	idea, err := graphql.Run[Idea](ctx, s.exec, op, "createIdea")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Create]")
	}
	return &idea, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateIdeaInput) (*Idea, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}
	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return nil, ierrors.Wrapf(ierrors.ErrInvalidInput, "title cannot be empty")
	}
	op := graphql.NewMutation(graphql.UpdateIdeaOperation, graphql.UpdateIdeaDocument, map[string]any{
		"id":   id,
		"data": in,
	})
	idea, err := graphql.Run[Idea](ctx, s.exec, op, "updateIdea")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Update]")
	}
	return &idea, nil
}

func (s *Service) Delete(ctx context.Context, id string) (bool, error) {
	if err := requireID(id); err != nil {
		return false, err
	}
	op := graphql.NewMutation(graphql.DeleteIdeaOperation, graphql.DeleteIdeaDocument, map[string]any{"id": id})
	deleted, err := graphql.Run[bool](ctx, s.exec, op, "deleteIdea")
	if err != nil {
		return false, errors.Wrap(err, "[Service.Delete]")
	}
	return deleted, nil
}

// Comment adds a comment to an idea.
func (s *Service) Comment(ctx context.Context, ideaID, content string) (*Comment, error) {
	if err := requireID(ideaID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(content) == "" {
		return nil, ierrors.Wrapf(ierrors.ErrInvalidInput, "comment content is required")
	}
	op := graphql.NewMutation(graphql.CreateCommentOperation, graphql.CreateCommentDocument, map[string]any{
		"ideaId": ideaID,
		"data":   createCommentInput{Content: content},
	})
	c, err := graphql.Run[Comment](ctx, s.exec, op, "createComment")
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Comment]")
	}
	return &c, nil
}

// ToggleVote adds the current user's vote, or removes it when already present.
func (s *Service) ToggleVote(ctx context.Context, ideaID string) (bool, error) {
	if err := requireID(ideaID); err != nil {
		return false, err
	}
	op := graphql.NewMutation(graphql.ToggleVoteOperation, graphql.ToggleVoteDocument, map[string]any{"ideaId": ideaID})
	toggled, err := graphql.Run[bool](ctx, s.exec, op, "toggleVote")
	if err != nil {
		return false, errors.Wrap(err, "[Service.ToggleVote]")
	}
	return toggled, nil
}

func requireID(id string) error {
	if strings.TrimSpace(id) == "" {
		return ierrors.Wrapf(ierrors.ErrInvalidInput, "id is required")
	}
	return nil
}
