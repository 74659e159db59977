// Package shell is the interactive front end of cardbox. It maps user
// commands onto the card store, validates user input before it reaches the
// store and flushes the store after every change.
package shell

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/conorfennell/cardbox/internal/domain"
	"github.com/conorfennell/cardbox/internal/parser"
	"github.com/conorfennell/cardbox/internal/storage"
	"github.com/go-playground/validator/v10"
)

// Store is the subset of the card store the shell drives.
type Store interface {
	Add(question, answer string, category *string) error
	DrawRandom(opts ...storage.DrawOption) (*domain.Card, error)
	Rate(question string, rating domain.Rating) error
	Edit(oldQuestion, newQuestion, newAnswer string, newCategory *string) error
	Delete(question string) error
	Search(substring string) ([]domain.Card, error)
	FindByCategory(category string) (*domain.Card, error)
	List() ([]domain.Card, error)
	Flush() error
}

// User-facing messages.
const (
	msgAdded         = "Card added."
	msgRated         = "Card rated."
	msgEdited        = "Card edited."
	msgDeleted       = "Card deleted."
	msgNoCards       = "There are no cards to study."
	msgNoRatedCards  = "There are no cards rated %d or higher."
	msgNoResults     = "No results found."
	msgEmptyCategory = "There are no cards in this category."
	msgEmptyLibrary  = "The card library is empty."
	msgInvalidRating = "Invalid rating. Please enter a number between 1 and 5."
	msgNoQuestion    = "A card needs a question."
	msgOneCard       = "Enter one card at a time."
	msgDuplicate     = "A card with this question already exists."
	msgUnknown       = "Unknown command %q. Type 'help' for a list of commands."
)

const helpText = `Commands:
  add                     enter a new card (Q:/A:/C: lines, end with a blank line)
  study [min-rating]      show a random card, optionally rated at least min-rating
  rate <1-5> <question>   rate a card
  edit <question>         rewrite a card (Q:/A:/C: lines, end with a blank line)
  delete <question>       delete a card
  search <text>           list cards whose question, answer or category contains text
  category <name>         show a card from a category
  list                    list all cards
  help                    show this help
  quit                    leave the shell
`

// InputError is a problem with what the user typed. It is shown to the
// user and never reaches the store.
type InputError struct {
	Message string
}

func (e *InputError) Error() string {
	return e.Message
}

func inputErr(format string, args ...any) error {
	return &InputError{Message: fmt.Sprintf(format, args...)}
}

// IsInputError reports whether err should be shown to the user rather than
// treated as a failure.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// CardInput is the user's description of a card.
type CardInput struct {
	Question string `validate:"required"`
	Answer   string
	Category string
}

type rateInput struct {
	Question string        `validate:"required"`
	Rating   domain.Rating `validate:"min=1,max=5"`
}

// Shell runs user commands against a Store.
type Shell struct {
	store    Store
	out      io.Writer
	prompt   string
	validate *validator.Validate
}

// Option configures a Shell.
type Option func(*Shell)

// WithPrompt sets the prompt printed before each interactive command.
func WithPrompt(prompt string) Option {
	return func(s *Shell) {
		s.prompt = prompt
	}
}

// New creates a shell writing its output to out.
func New(store Store, out io.Writer, opts ...Option) *Shell {
	s := &Shell{
		store:    store,
		out:      out,
		prompt:   "> ",
		validate: validator.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddCard stores a new card and flushes it.
func (s *Shell) AddCard(in CardInput) error {
	if err := s.validate.Struct(in); err != nil {
		return inputErr(msgNoQuestion)
	}
	if err := s.store.Add(in.Question, in.Answer, domain.NewCategory(in.Category)); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return inputErr(msgDuplicate)
		}
		return err
	}
	if err := s.store.Flush(); err != nil {
		return err
	}
	s.println(msgAdded)
	return nil
}

// Study shows a random card. A valid minRating (1-5) restricts the draw to
// cards rated at least that; anything else draws from all cards.
func (s *Shell) Study(minRating string) error {
	var opts []storage.DrawOption
	threshold, err := domain.ParseRating(minRating)
	if err == nil && threshold.IsValid() {
		opts = append(opts, storage.MinRating(threshold))
	} else if minRating != "" {
		slog.Debug("ignoring invalid minimum rating", "input", minRating)
	}

	card, err := s.store.DrawRandom(opts...)
	if err != nil {
		return err
	}
	if card == nil {
		if len(opts) > 0 {
			s.println(fmt.Sprintf(msgNoRatedCards, int(threshold)))
		} else {
			s.println(msgNoCards)
		}
		return nil
	}
	return s.printCard(*card)
}

// RateCard validates the rating and stores it.
func (s *Shell) RateCard(question, rating string) error {
	r, err := domain.ParseRating(rating)
	if err != nil {
		return inputErr(msgInvalidRating)
	}
	if err := s.validate.Struct(rateInput{Question: question, Rating: r}); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && verrs[0].Field() == "Question" {
			return inputErr(msgNoQuestion)
		}
		return inputErr(msgInvalidRating)
	}
	if err := s.store.Rate(question, r); err != nil {
		return err
	}
	if err := s.store.Flush(); err != nil {
		return err
	}
	s.println(msgRated)
	return nil
}

// EditCard rewrites the card stored under oldQuestion.
func (s *Shell) EditCard(oldQuestion string, in CardInput) error {
	if oldQuestion == "" {
		return inputErr(msgNoQuestion)
	}
	if err := s.validate.Struct(in); err != nil {
		return inputErr(msgNoQuestion)
	}
	if err := s.store.Edit(oldQuestion, in.Question, in.Answer, domain.NewCategory(in.Category)); err != nil {
		if errors.Is(err, storage.ErrDuplicateKey) {
			return inputErr(msgDuplicate)
		}
		return err
	}
	if err := s.store.Flush(); err != nil {
		return err
	}
	s.println(msgEdited)
	return nil
}

// DeleteCard removes a card.
func (s *Shell) DeleteCard(question string) error {
	if question == "" {
		return inputErr(msgNoQuestion)
	}
	if err := s.store.Delete(question); err != nil {
		return err
	}
	if err := s.store.Flush(); err != nil {
		return err
	}
	s.println(msgDeleted)
	return nil
}

// Search lists every card matching text.
func (s *Shell) Search(text string) error {
	cards, err := s.store.Search(text)
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		s.println(msgNoResults)
		return nil
	}
	return s.printCards(cards)
}

// Category shows the first card in a category.
func (s *Shell) Category(name string) error {
	card, err := s.store.FindByCategory(name)
	if err != nil {
		return err
	}
	if card == nil {
		s.println(msgEmptyCategory)
		return nil
	}
	return s.printCard(*card)
}

// List shows every card.
func (s *Shell) List() error {
	cards, err := s.store.List()
	if err != nil {
		return err
	}
	if len(cards) == 0 {
		s.println(msgEmptyLibrary)
		return nil
	}
	return s.printCards(cards)
}

// Run reads commands from in until EOF or "quit". Input errors are printed
// and the loop continues; store failures end it.
func (s *Shell) Run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, s.prompt)
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		name, arg, _ := strings.Cut(line, " ")
		arg = strings.TrimSpace(arg)

		var err error
		switch name {
		case "quit", "exit":
			return nil
		case "help":
			fmt.Fprint(s.out, helpText)
		case "add":
			var in CardInput
			if in, err = readCard(scanner); err == nil {
				err = s.AddCard(in)
			}
		case "edit":
			var in CardInput
			if in, err = readCard(scanner); err == nil {
				err = s.EditCard(arg, in)
			}
		case "rate":
			rating, question, _ := strings.Cut(arg, " ")
			err = s.RateCard(strings.TrimSpace(question), rating)
		default:
			err = s.Exec(name, Request{Args: argList(arg)})
		}

		if err != nil {
			if !IsInputError(err) {
				return err
			}
			s.println(err.Error())
		}
	}
	return scanner.Err()
}

// readCard reads one card in block format, ending at a blank line, a "---"
// line or end of input.
func readCard(scanner *bufio.Scanner) (CardInput, error) {
	var lines []string
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" || line == parser.Separator() {
			break
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return CardInput{}, err
	}

	cards, err := parser.Parse(strings.NewReader(strings.Join(lines, "\n")))
	if err != nil {
		return CardInput{}, err
	}
	switch len(cards) {
	case 0:
		return CardInput{}, inputErr(msgNoQuestion)
	case 1:
		c := cards[0]
		return CardInput{Question: c.Question, Answer: c.Answer, Category: c.CategoryName()}, nil
	default:
		return CardInput{}, inputErr(msgOneCard)
	}
}

func argList(arg string) []string {
	if arg == "" {
		return nil
	}
	return []string{arg}
}

func (s *Shell) printCard(card domain.Card) error {
	if err := parser.Format(s.out, card); err != nil {
		return err
	}
	_, err := fmt.Fprintf(s.out, "Rating: %s\n", card.Rating)
	return err
}

func (s *Shell) printCards(cards []domain.Card) error {
	for i, c := range cards {
		if i > 0 {
			s.println(parser.Separator())
		}
		if err := s.printCard(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Shell) println(msg string) {
	fmt.Fprintln(s.out, msg)
}
