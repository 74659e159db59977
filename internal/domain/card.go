package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidRating is returned by ParseRating for input that is not a
// whole number.
var ErrInvalidRating = errors.New("invalid rating")

// Rating is the user's difficulty/familiarity score for a card.
// Zero means the card has not been rated yet.
type Rating int

const (
	Unrated   Rating = 0
	MinRating Rating = 1
	MaxRating Rating = 5
)

// IsValid reports whether r is a user-assignable rating (1 through 5).
func (r Rating) IsValid() bool {
	return r >= MinRating && r <= MaxRating
}

func (r Rating) String() string {
	if r == Unrated {
		return "unrated"
	}
	return fmt.Sprintf("%d/%d", int(r), int(MaxRating))
}

// ParseRating parses a non-negative decimal rating. Signs, spaces and other
// characters are rejected; the range is not checked.
func ParseRating(s string) (Rating, error) {
	if s == "" || strings.TrimLeft(s, "0123456789") != "" {
		return Unrated, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Unrated, fmt.Errorf("%w: %q", ErrInvalidRating, s)
	}
	return Rating(n), nil
}

// Card represents a single flashcard. Question is the card's identity.
type Card struct {
	Question string  `db:"question"`
	Answer   string  `db:"answer"`
	Category *string `db:"category"` // nil when the card has no category
	Rating   Rating  `db:"rating"`
}

// CategoryName returns the card's category, or "" when it has none.
func (c Card) CategoryName() string {
	if c.Category == nil {
		return ""
	}
	return *c.Category
}

// NewCategory turns user input into an optional category: blank input means
// no category.
func NewCategory(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}
