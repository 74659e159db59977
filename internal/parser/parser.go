// Package parser reads and writes cards in the plain-text block format used
// by the shell:
//
//	Q: What is the capital of France?
//	A: Paris
//	C: geography
//
// Each field may continue over several lines. A line holding only "---"
// separates cards.
package parser

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/conorfennell/cardbox/internal/domain"
)

const (
	questionPrefix = "Q:"
	answerPrefix   = "A:"
	categoryPrefix = "C:"
	separator      = "---"
)

type state int

const (
	seeking state = iota
	readingQuestion
	readingAnswer
	readingCategory
)

var prefixes = []struct {
	prefix string
	state  state
}{
	{questionPrefix, readingQuestion},
	{answerPrefix, readingAnswer},
	{categoryPrefix, readingCategory},
}

// Parse reads from an io.Reader and extracts all cards. Blocks without a
// question are dropped; a blank category means the card has none.
func Parse(r io.Reader) ([]domain.Card, error) {
	scanner := bufio.NewScanner(r)
	var cards []domain.Card
	var current domain.Card
	var block []string
	currentState := seeking

	flushBlock := func() {
		if len(block) == 0 {
			return
		}
		content := strings.Join(block, "\n")
		switch currentState {
		case readingQuestion:
			current.Question = content
		case readingAnswer:
			current.Answer = content
		case readingCategory:
			current.Category = domain.NewCategory(content)
		}
		block = nil
	}

	finishCard := func() {
		flushBlock()
		if current.Question != "" {
			cards = append(cards, current)
		}
		current = domain.Card{}
		currentState = seeking
	}

	for scanner.Scan() {
		line := scanner.Text()

		if line == separator {
			finishCard()
			continue
		}

		next, rest, ok := fieldStart(line)
		if !ok {
			if currentState != seeking {
				block = append(block, line)
			}
			continue
		}

		if next == readingQuestion && currentState != seeking {
			finishCard() // A new question always starts a new card
		} else {
			flushBlock()
		}
		currentState = next
		block = append(block, rest)
	}

	finishCard() // Finish the very last card

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cards, nil
}

// fieldStart reports whether line opens a field and returns the field's
// state and the text after the prefix (minus one optional space).
func fieldStart(line string) (state, string, bool) {
	for _, p := range prefixes {
		if rest, ok := strings.CutPrefix(line, p.prefix); ok {
			return p.state, strings.TrimPrefix(rest, " "), true
		}
	}
	return seeking, "", false
}

// Format writes card in the block format Parse reads. The category line is
// omitted when the card has none.
func Format(w io.Writer, card domain.Card) error {
	if _, err := fmt.Fprintf(w, "%s %s\n%s %s\n", questionPrefix, card.Question, answerPrefix, card.Answer); err != nil {
		return err
	}
	if card.Category != nil {
		if _, err := fmt.Fprintf(w, "%s %s\n", categoryPrefix, *card.Category); err != nil {
			return err
		}
	}
	return nil
}

// Separator is the line that divides cards in a listing.
func Separator() string {
	return separator
}
