// Package authoring builds and edits games: their categories, their
// questions and question images. Every operation persists first and returns
// the stored entity only on success.
package authoring

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/quizboard/quizboard/internal/auth"
	"github.com/quizboard/quizboard/internal/category"
	"github.com/quizboard/quizboard/internal/game"
	"github.com/quizboard/quizboard/internal/question"
	"github.com/quizboard/quizboard/internal/storage"
)

// MaxCategories is the most categories a game may be created with.
const MaxCategories = 6

// ImageUploader stores an image and returns its public URL. Discard removes
// an image that ended up unreferenced.
type ImageUploader interface {
	Upload(ctx context.Context, up storage.Upload) (string, error)
	Discard(ctx context.Context, imageURL string) error
}

// NewGame is the input to CreateGame.
type NewGame struct {
	Title      string
	Categories []string
	Visibility string // defaults to private
}

// GameChanges holds the game fields a caller may change. Nil fields are left alone.
type GameChanges struct {
	Name       *string
	Visibility *string
	Status     *string // admin only
}

// NewQuestion is the input to AddQuestion. Points defaults to the next step
// in the category; Image, when set, takes precedence over ImageURL.
type NewQuestion struct {
	Question string
	Answer   string
	Points   *int
	ImageURL *string
	Image    *storage.Upload
}

// Service coordinates the game, category and question repositories.
type Service struct {
	games      game.Repository
	categories category.Repository
	questions  question.Repository
	uploader   ImageUploader
}

// NewService creates a new authoring Service.
func NewService(games game.Repository, categories category.Repository, questions question.Repository, uploader ImageUploader) *Service {
	return &Service{
		games:      games,
		categories: categories,
		questions:  questions,
		uploader:   uploader,
	}
}

// CreateGame inserts the game and then one category per name, in order.
// If a category insert fails the game and the categories inserted so far are
// kept and a *PartialCreateError describes them.
func (s *Service) CreateGame(ctx context.Context, owner *auth.Identity, in NewGame) (*Board, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	if len(in.Categories) == 0 || len(in.Categories) > MaxCategories {
		return nil, fmt.Errorf("%w: between 1 and %d categories are required", ErrInvalidInput, MaxCategories)
	}
	names := make([]string, 0, len(in.Categories))
	for _, n := range in.Categories {
		n = strings.TrimSpace(n)
		if n == "" {
			return nil, fmt.Errorf("%w: category names must not be empty", ErrInvalidInput)
		}
		names = append(names, n)
	}

	visibility := in.Visibility
	if visibility == "" {
		visibility = game.VisibilityPrivate
	}
	if !game.ValidVisibility(visibility) {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, visibility)
	}

	g := &game.Game{
		Name:       title,
		OwnerID:    owner.UserID,
		OwnerName:  owner.Username,
		Visibility: visibility,
		Status:     game.StatusActive,
	}
	if err := s.games.Create(ctx, g); err != nil {
		return nil, fmt.Errorf("creating game: %w", err)
	}

	board := &Board{Game: g, Categories: make([]CategoryQuestions, 0, len(names))}
	persisted := make([]category.Category, 0, len(names))
	for _, name := range names {
		c := &category.Category{GameID: g.ID, Name: name}
		if err := s.categories.Create(ctx, c); err != nil {
			slog.Error("category insert failed after game insert", "error", err, "gameId", g.ID, "category", name)
			return nil, &PartialCreateError{Game: g, Persisted: persisted, Failed: name, Err: err}
		}
		persisted = append(persisted, *c)
		board.Categories = append(board.Categories, CategoryQuestions{Category: *c, Questions: []question.Question{}})
	}
	g.CategoryCount = len(persisted)

	slog.Info("game created", "gameId", g.ID, "ownerId", owner.UserID, "categories", len(persisted))
	return board, nil
}

// Board fetches a game with its categories and questions. Private games are
// reported as not found to viewers who may not see them.
func (s *Service) Board(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) (*Board, error) {
	g, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.CanView(g, viewer) {
		return nil, game.ErrGameNotFound
	}
	return s.expand(ctx, g)
}

// UpdateGame renames a game or changes its visibility (owner or admin) or
// its status (admin only).
func (s *Service) UpdateGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, changes GameChanges) (*game.Game, error) {
	if _, err := s.editableGame(ctx, viewer, gameID); err != nil {
		return nil, err
	}

	fields := game.UpdateFields{Visibility: changes.Visibility, Status: changes.Status}
	if changes.Name != nil {
		name := strings.TrimSpace(*changes.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
		}
		fields.Name = &name
	}
	if changes.Visibility != nil && !game.ValidVisibility(*changes.Visibility) {
		return nil, fmt.Errorf("%w: unknown visibility %q", ErrInvalidInput, *changes.Visibility)
	}
	if changes.Status != nil {
		if !viewer.IsAdmin() {
			return nil, ErrAdminOnly
		}
		if !game.ValidStatus(*changes.Status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrInvalidInput, *changes.Status)
		}
	}

	return s.games.Update(ctx, gameID, fields)
}

// DeleteGame removes a game by deleting, for each category, its questions and
// then the category, and finally the game row. A failure stops the cascade;
// the returned *PartialDeleteError counts what was already removed.
func (s *Service) DeleteGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) error {
	if _, err := s.editableGame(ctx, viewer, gameID); err != nil {
		return err
	}

	cats, err := s.categories.ListByGame(ctx, gameID)
	if err != nil {
		return fmt.Errorf("listing categories: %w", err)
	}

	var questionsDeleted, categoriesDeleted int
	for _, c := range cats {
		n, err := s.questions.DeleteByCategory(ctx, c.ID)
		if err != nil {
			return s.partialDelete(gameID, PhaseQuestions, questionsDeleted, categoriesDeleted, err)
		}
		questionsDeleted += n

		if err := s.categories.Delete(ctx, c.ID); err != nil && !errors.Is(err, category.ErrCategoryNotFound) {
			return s.partialDelete(gameID, PhaseCategories, questionsDeleted, categoriesDeleted, err)
		}
		categoriesDeleted++
	}

	if err := s.games.Delete(ctx, gameID); err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			return err
		}
		return s.partialDelete(gameID, PhaseGame, questionsDeleted, categoriesDeleted, err)
	}

	slog.Info("game deleted", "gameId", gameID, "categories", categoriesDeleted, "questions", questionsDeleted)
	return nil
}

// AddCategory appends an empty category to a game. An empty name becomes
// category.DefaultName.
func (s *Service) AddCategory(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID, name string) (*category.Category, error) {
	if _, err := s.editableGame(ctx, viewer, gameID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		name = category.DefaultName
	}

	c := &category.Category{GameID: gameID, Name: name}
	if err := s.categories.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	return c, nil
}

// RenameCategory changes a category's name.
func (s *Service) RenameCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, name string) (*category.Category, error) {
	if _, err := s.editableCategory(ctx, viewer, categoryID); err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name must not be empty", ErrInvalidInput)
	}
	return s.categories.Rename(ctx, categoryID, name)
}

// DeleteCategory deletes the category's questions and then the category.
// If the second phase fails the questions stay deleted and a
// *PartialDeleteError with FailedPhase PhaseCategories is returned.
func (s *Service) DeleteCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID) error {
	if _, err := s.editableCategory(ctx, viewer, categoryID); err != nil {
		return err
	}

	n, err := s.questions.DeleteByCategory(ctx, categoryID)
	if err != nil {
		return s.partialDelete(categoryID, PhaseQuestions, 0, 0, err)
	}

	if err := s.categories.Delete(ctx, categoryID); err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return err
		}
		return s.partialDelete(categoryID, PhaseCategories, n, 0, err)
	}

	return nil
}

// AddQuestion appends a question to a category. Without explicit points the
// question is worth (existing questions + 1) * 100. If an image is supplied
// and its upload fails, no question is created.
func (s *Service) AddQuestion(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID, in NewQuestion) (*question.Question, error) {
	if _, err := s.editableCategory(ctx, viewer, categoryID); err != nil {
		return nil, err
	}

	q := &question.Question{
		CategoryID: categoryID,
		Question:   strings.TrimSpace(in.Question),
		Answer:     strings.TrimSpace(in.Answer),
		ImageURL:   nonEmpty(in.ImageURL),
	}

	if in.Points != nil {
		q.Points = *in.Points
	} else {
		count, err := s.questions.CountByCategory(ctx, categoryID)
		if err != nil {
			return nil, fmt.Errorf("counting questions: %w", err)
		}
		q.Points = question.DefaultPoints(count)
	}

	var uploaded string
	if in.Image != nil {
		url, err := s.uploader.Upload(ctx, *in.Image)
		if err != nil {
			return nil, err
		}
		uploaded = url
		q.ImageURL = &url
	}

	if err := s.questions.Create(ctx, q); err != nil {
		s.discardImage(ctx, uploaded)
		return nil, fmt.Errorf("creating question: %w", err)
	}
	return q, nil
}

// UpdateQuestion edits question text, answer, points or image URL. Points
// are not re-validated against the rest of the category.
func (s *Service) UpdateQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, fields question.UpdateFields) (*question.Question, error) {
	if _, err := s.editableQuestion(ctx, viewer, questionID); err != nil {
		return nil, err
	}
	return s.questions.Update(ctx, questionID, fields)
}

// ReplaceQuestionImage uploads a new image and points the question at it.
// The question is left untouched if the upload fails.
func (s *Service) ReplaceQuestionImage(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID, up storage.Upload) (*question.Question, error) {
	if _, err := s.editableQuestion(ctx, viewer, questionID); err != nil {
		return nil, err
	}

	url, err := s.uploader.Upload(ctx, up)
	if err != nil {
		return nil, err
	}

	q, err := s.questions.Update(ctx, questionID, question.UpdateFields{ImageURL: &url})
	if err != nil {
		s.discardImage(ctx, url)
		return nil, err
	}
	return q, nil
}

// discardImage removes a freshly uploaded image whose question was not saved.
func (s *Service) discardImage(ctx context.Context, imageURL string) {
	if imageURL == "" {
		return
	}
	if err := s.uploader.Discard(ctx, imageURL); err != nil {
		slog.Warn("failed to discard unreferenced image", "error", err, "url", imageURL)
	}
}

// DeleteQuestion removes a single question.
func (s *Service) DeleteQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID) error {
	if _, err := s.editableQuestion(ctx, viewer, questionID); err != nil {
		return err
	}
	return s.questions.Delete(ctx, questionID)
}

func (s *Service) expand(ctx context.Context, g *game.Game) (*Board, error) {
	cats, err := s.categories.ListByGame(ctx, g.ID)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}

	board := &Board{Game: g, Categories: make([]CategoryQuestions, 0, len(cats))}
	for _, c := range cats {
		qs, err := s.questions.ListByCategory(ctx, c.ID)
		if err != nil {
			return nil, fmt.Errorf("listing questions for category %s: %w", c.ID, err)
		}
		board.Categories = append(board.Categories, CategoryQuestions{Category: c, Questions: qs})
	}
	return board, nil
}

// editableGame loads a game the viewer may change. Games the viewer cannot
// even see are reported as not found.
func (s *Service) editableGame(ctx context.Context, viewer *auth.Identity, gameID uuid.UUID) (*game.Game, error) {
	g, err := s.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !game.CanView(g, viewer) {
		return nil, game.ErrGameNotFound
	}
	if !game.CanEdit(g, viewer) {
		return nil, ErrForbidden
	}
	return g, nil
}

func (s *Service) editableCategory(ctx context.Context, viewer *auth.Identity, categoryID uuid.UUID) (*category.Category, error) {
	c, err := s.categories.GetByID(ctx, categoryID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableGame(ctx, viewer, c.GameID); err != nil {
		if errors.Is(err, game.ErrGameNotFound) {
			return nil, category.ErrCategoryNotFound
		}
		return nil, err
	}
	return c, nil
}

func (s *Service) editableQuestion(ctx context.Context, viewer *auth.Identity, questionID uuid.UUID) (*question.Question, error) {
	q, err := s.questions.GetByID(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if _, err := s.editableCategory(ctx, viewer, q.CategoryID); err != nil {
		if errors.Is(err, category.ErrCategoryNotFound) {
			return nil, question.ErrQuestionNotFound
		}
		return nil, err
	}
	return q, nil
}

func (s *Service) partialDelete(target uuid.UUID, phase string, questions, categories int, err error) error {
	slog.Error("cascading delete stopped", "error", err, "targetId", target, "phase", phase,
		"questionsDeleted", questions, "categoriesDeleted", categories)
	return &PartialDeleteError{
		TargetID:          target,
		FailedPhase:       phase,
		QuestionsDeleted:  questions,
		CategoriesDeleted: categories,
		Err:               err,
	}
}

func nonEmpty(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
