package shell

import "strings"

// Request carries the arguments of a one-shot command.
type Request struct {
	Question    string
	Answer      string
	Category    string
	OldQuestion string
	Rating      string
	MinRating   string
	Args        []string // positional arguments after the command name
}

// text returns the positional arguments joined by spaces, falling back to
// fallback when there are none.
func (r Request) text(fallback string) string {
	if len(r.Args) == 0 {
		return fallback
	}
	return strings.Join(r.Args, " ")
}

// Exec runs a single named command.
func (s *Shell) Exec(command string, req Request) error {
	switch command {
	case "add":
		return s.AddCard(CardInput{Question: req.Question, Answer: req.Answer, Category: req.Category})
	case "study":
		return s.Study(req.text(req.MinRating))
	case "rate":
		return s.RateCard(req.text(req.Question), req.Rating)
	case "edit":
		return s.EditCard(req.OldQuestion, CardInput{Question: req.Question, Answer: req.Answer, Category: req.Category})
	case "delete":
		return s.DeleteCard(req.text(req.Question))
	case "search":
		return s.Search(req.text(""))
	case "category":
		return s.Category(req.text(req.Category))
	case "list":
		return s.List()
	case "help":
		_, err := s.out.Write([]byte(helpText))
		return err
	default:
		return inputErr(msgUnknown, command)
	}
}
