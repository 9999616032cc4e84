package mockapi

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

var errIdeaNotFound = errors.New("Ideia não encontrada")

type idea struct {
	ID          string
	Title       string
	Description *string
	AuthorID    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type comment struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"authorId"`
	IdeaID    string    `json:"ideaId"`
	CreatedAt time.Time `json:"createdAt"`
}

type authorView struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ideaView struct {
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description *string     `json:"description"`
	AuthorID    string      `json:"authorId"`
	CountVotes  int         `json:"countVotes"`
	Author      *authorView `json:"author"`
	Comments    []*comment  `json:"comments"`
	CreatedAt   time.Time   `json:"createdAt"`
	UpdatedAt   time.Time   `json:"updatedAt"`
}

func (s *Server) viewIdea(i *idea) ideaView {
	v := ideaView{
		ID:          i.ID,
		Title:       i.Title,
		Description: i.Description,
		AuthorID:    i.AuthorID,
		CountVotes:  len(s.votes[i.ID]),
		Comments:    make([]*comment, 0),
		CreatedAt:   i.CreatedAt,
		UpdatedAt:   i.UpdatedAt,
	}
	if u, ok := s.users[i.AuthorID]; ok {
		v.Author = &authorView{ID: u.ID, Name: u.Name}
	}
	for _, cm := range s.comments {
		if cm.IdeaID == i.ID {
			v.Comments = append(v.Comments, cm)
		}
	}
	return v
}

type ideaInput struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

func (s *Server) listIdeas(call) (any, error) {
	list := make([]*idea, 0, len(s.ideas))
	for _, i := range s.ideas {
		list = append(list, i)
	}
	sort.Slice(list, func(a, b int) bool {
		if !list[a].CreatedAt.Equal(list[b].CreatedAt) {
			return list[a].CreatedAt.Before(list[b].CreatedAt)
		}
		return list[a].ID < list[b].ID
	})
	out := make([]ideaView, 0, len(list))
	for _, i := range list {
		out = append(out, s.viewIdea(i))
	}
	return out, nil
}

func (s *Server) findIdea(id string) (*idea, error) {
	i, ok := s.ideas[id]
	if !ok {
		return nil, errIdeaNotFound
	}
	return i, nil
}

func (s *Server) getIdea(c call) (any, error) {
	var vars idVars
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	i, err := s.findIdea(vars.ID)
	if err != nil {
		return nil, err
	}
	return s.viewIdea(i), nil
}

func (s *Server) createIdea(c call) (any, error) {
	var vars struct {
		Data ideaInput `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if vars.Data.Title == nil {
		return nil, errors.New("title é obrigatório")
	}
	now := s.now()
	i := &idea{
		ID:          uuid.NewString(),
		Title:       *vars.Data.Title,
		Description: vars.Data.Description,
		AuthorID:    c.userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.ideas[i.ID] = i
	return s.viewIdea(i), nil
}

func (s *Server) updateIdea(c call) (any, error) {
	var vars struct {
		ID   string    `json:"id"`
		Data ideaInput `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	i, err := s.findIdea(vars.ID)
	if err != nil {
		return nil, err
	}
	if vars.Data.Title != nil {
		i.Title = *vars.Data.Title
	}
	if vars.Data.Description != nil {
		i.Description = vars.Data.Description
	}
	i.UpdatedAt = s.now()
	return s.viewIdea(i), nil
}

func (s *Server) deleteIdea(c call) (any, error) {
	var vars idVars
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if _, err := s.findIdea(vars.ID); err != nil {
		return nil, err
	}
	delete(s.ideas, vars.ID)
	delete(s.votes, vars.ID)
	kept := s.comments[:0]
	for _, cm := range s.comments {
		if cm.IdeaID != vars.ID {
			kept = append(kept, cm)
		}
	}
	s.comments = kept
	return true, nil
}

func (s *Server) createComment(c call) (any, error) {
	var vars struct {
		IdeaID string `json:"ideaId"`
		Data   struct {
			Content string `json:"content"`
		} `json:"data"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if _, ok := s.ideas[vars.IdeaID]; !ok {
		return nil, errors.New("Ideia não encontrada.")
	}
	cm := &comment{
		ID:        uuid.NewString(),
		Content:   vars.Data.Content,
		AuthorID:  c.userID,
		IdeaID:    vars.IdeaID,
		CreatedAt: s.now(),
	}
	s.comments = append(s.comments, cm)
	return cm, nil
}

// toggleVote adds the caller's vote or removes it when already cast.
func (s *Server) toggleVote(c call) (any, error) {
	var vars struct {
		IdeaID string `json:"ideaId"`
	}
	if err := c.decode(&vars); err != nil {
		return nil, err
	}
	if _, err := s.findIdea(vars.IdeaID); err != nil {
		return nil, err
	}
	voters, ok := s.votes[vars.IdeaID]
	if !ok {
		voters = make(map[string]bool)
		s.votes[vars.IdeaID] = voters
	}
	if voters[c.userID] {
		delete(voters, c.userID)
	} else {
		voters[c.userID] = true
	}
	return true, nil
}
