package handler

import (
	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/authoring"
	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/question"
)

type userResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Username  string `json:"username"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt,omitempty"`
}

func toUserResponse(u *auth.User) userResponse {
	return userResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Username:  u.Username,
		Role:      u.Role,
		CreatedAt: u.CreatedAt.UTC().Format(timeFormat),
	}
}

type gameResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	OwnerID       string `json:"ownerId"`
	OwnerName     string `json:"ownerName"`
	Visibility    string `json:"visibility"`
	Status        string `json:"status"`
	CategoryCount int    `json:"categoryCount"`
	QuestionCount int    `json:"questionCount"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

func toGameResponse(g *game.Game) gameResponse {
	return gameResponse{
		ID:            g.ID.String(),
		Name:          g.Name,
		OwnerID:       g.OwnerID.String(),
		OwnerName:     g.OwnerName,
		Visibility:    g.Visibility,
		Status:        g.Status,
		CategoryCount: g.CategoryCount,
		QuestionCount: g.QuestionCount,
		CreatedAt:     g.CreatedAt.UTC().Format(timeFormat),
		UpdatedAt:     g.UpdatedAt.UTC().Format(timeFormat),
	}
}

type categoryResponse struct {
	ID     string `json:"id"`
	GameID string `json:"gameId"`
	Name   string `json:"name"`
}

func toCategoryResponse(c *category.Category) categoryResponse {
	return categoryResponse{
		ID:     c.ID.String(),
		GameID: c.GameID.String(),
		Name:   c.Name,
	}
}

type questionResponse struct {
	ID         string  `json:"id"`
	CategoryID string  `json:"categoryId"`
	Question   string  `json:"question"`
	Answer     string  `json:"answer"`
	Points     int     `json:"points"`
	ImageURL   *string `json:"imageUrl"`
	UpdatedAt  string  `json:"updatedAt"`
}

func toQuestionResponse(q *question.Question) questionResponse {
	return questionResponse{
		ID:         q.ID.String(),
		CategoryID: q.CategoryID.String(),
		Question:   q.Question,
		Answer:     q.Answer,
		Points:     q.Points,
		ImageURL:   q.ImageURL,
		UpdatedAt:  q.UpdatedAt.UTC().Format(timeFormat),
	}
}

type boardCategoryResponse struct {
	categoryResponse
	Questions []questionResponse `json:"questions"`
}

type boardResponse struct {
	gameResponse
	CanEdit    bool                    `json:"canEdit"`
	Categories []boardCategoryResponse `json:"categories"`
}

func toBoardResponse(b *authoring.Board, canEdit bool) boardResponse {
	resp := boardResponse{
		gameResponse: toGameResponse(b.Game),
		CanEdit:      canEdit,
		Categories:   make([]boardCategoryResponse, 0, len(b.Categories)),
	}
	for i := range b.Categories {
		c := boardCategoryResponse{
			categoryResponse: toCategoryResponse(&b.Categories[i].Category),
			Questions:        make([]questionResponse, 0, len(b.Categories[i].Questions)),
		}
		for j := range b.Categories[i].Questions {
			c.Questions = append(c.Questions, toQuestionResponse(&b.Categories[i].Questions[j]))
		}
		resp.Categories = append(resp.Categories, c)
	}
	return resp
}
