package validation

import (
	"math"
	"net/url"
	"strings"
)

const maxTextLen = 2000

// MaxPoints is the largest value the points column can hold.
const MaxPoints = math.MaxInt32

// QuestionRequest mirrors the fields needed for question validation. On
// create, nil Points means "use the default"; on update, nil means unchanged.
type QuestionRequest struct {
	Question *string
	Answer   *string
	Points   *int
	ImageURL *string
}

// ValidateQuestionRequest validates a question create or update. Points may
// be any value from 0 to MaxPoints.
func ValidateQuestionRequest(req QuestionRequest) []FieldError {
	var errs []FieldError

	if req.Question != nil && len(*req.Question) > maxTextLen {
		errs = append(errs, FieldError{Field: "question", Message: "question must be at most 2000 characters"})
	}
	if req.Answer != nil && len(*req.Answer) > maxTextLen {
		errs = append(errs, FieldError{Field: "answer", Message: "answer must be at most 2000 characters"})
	}
	if req.Points != nil && *req.Points < 0 {
		errs = append(errs, FieldError{Field: "points", Message: "points must not be negative"})
	} else if req.Points != nil && *req.Points > MaxPoints {
		errs = append(errs, FieldError{Field: "points", Message: "points must be at most 2147483647"})
	}
	if req.ImageURL != nil && strings.TrimSpace(*req.ImageURL) != "" {
		u, err := url.Parse(strings.TrimSpace(*req.ImageURL))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, FieldError{Field: "imageUrl", Message: "imageUrl must be an absolute http(s) URL"})
		}
	}

	return errs
}
