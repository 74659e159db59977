package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/conorfennell/cardbox/internal/domain"
	"github.com/jmoiron/sqlx"
)

// Store is the card store: a handle on a single SQLite file.
//
// Writes are staged in an open transaction and only become durable when
// Flush is called. Close discards anything that was not flushed. The pool is
// limited to one connection, so every statement runs inside that same
// transaction and reads see unflushed writes.
type Store struct {
	db   *sqlx.DB
	tx   *sqlx.Tx
	rng  *rand.Rand
	path string
}

// Option configures a Store.
type Option func(*Store)

// WithSeed makes DrawRandom deterministic. A zero seed keeps the default
// randomly seeded source.
func WithSeed(seed uint64) Option {
	return func(s *Store) {
		if seed != 0 {
			s.rng = rand.New(rand.NewPCG(seed, seed))
		}
	}
}

// Open opens (creating if needed) the card database at path and ensures the
// schema exists.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, storageErr("open database", err)
	}
	// SQLite has a single writer and pending writes live on one connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, storageErr("connect to database", err)
	}

	// Execute the schema to create tables if they don't exist.
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, storageErr("apply schema", err)
	}

	s := &Store{db: db, path: path}
	for _, opt := range opts {
		opt(s)
	}
	slog.Debug("card store opened", "path", path)
	return s, nil
}

// Close rolls back unflushed writes and closes the database.
func (s *Store) Close() error {
	if s.tx != nil {
		if err := s.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
			slog.Warn("failed to discard pending writes", "path", s.path, "error", err)
		} else {
			slog.Debug("discarded unflushed writes", "path", s.path)
		}
		s.tx = nil
	}
	if err := s.db.Close(); err != nil {
		return storageErr("close database", err)
	}
	return nil
}

// Flush commits pending writes to disk. It is a no-op when nothing is
// pending.
func (s *Store) Flush() error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	if err := tx.Commit(); err != nil {
		return storageErr("commit pending writes", err)
	}
	slog.Debug("flushed card store", "path", s.path)
	return nil
}

// pending returns the open transaction, starting one if needed.
func (s *Store) pending() (*sqlx.Tx, error) {
	if s.tx != nil {
		return s.tx, nil
	}
	tx, err := s.db.Beginx()
	if err != nil {
		return nil, storageErr("begin transaction", err)
	}
	s.tx = tx
	return tx, nil
}

// Add inserts a new, unrated card. A nil category is stored as NULL.
// It returns ErrDuplicateKey if a card with the same question exists.
func (s *Store) Add(question, answer string, category *string) error {
	tx, err := s.pending()
	if err != nil {
		return err
	}
	_, err = tx.Exec(`
		INSERT INTO cards (question, answer, category, rating)
		VALUES (?, ?, ?, ?)
	`, question, answer, nullable(category), int64(domain.Unrated))
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, question)
		}
		return storageErr(fmt.Sprintf("insert card %q", question), err)
	}
	slog.Debug("card added", "question", question)
	return nil
}

type drawFilter struct {
	minRating domain.Rating
	filtered  bool
}

// DrawOption narrows the set DrawRandom picks from.
type DrawOption func(*drawFilter)

// MinRating restricts the draw to cards rated at least r.
func MinRating(r domain.Rating) DrawOption {
	return func(f *drawFilter) {
		f.minRating = r
		f.filtered = true
	}
}

// DrawRandom returns one card picked uniformly at random from the cards that
// pass the filter. It returns nil (and no error) when no card qualifies.
func (s *Store) DrawRandom(opts ...DrawOption) (*domain.Card, error) {
	var f drawFilter
	for _, opt := range opts {
		opt(&f)
	}

	tx, err := s.pending()
	if err != nil {
		return nil, err
	}

	var cards []domain.Card
	if f.filtered {
		err = tx.Select(&cards, selectCards+` WHERE rating >= ? ORDER BY rowid`, int64(f.minRating))
	} else {
		err = tx.Select(&cards, selectCards+` ORDER BY rowid`)
	}
	if err != nil {
		return nil, storageErr("select cards to draw", err)
	}
	if len(cards) == 0 {
		return nil, nil // Nothing to draw
	}

	card := cards[s.intN(len(cards))]
	return &card, nil
}

func (s *Store) intN(n int) int {
	if s.rng == nil {
		return rand.IntN(n)
	}
	return s.rng.IntN(n)
}

// Rate sets the rating of the card with the given question. The rating is
// stored as given. Rating a missing card changes nothing.
func (s *Store) Rate(question string, rating domain.Rating) error {
	tx, err := s.pending()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`UPDATE cards SET rating = ? WHERE question = ?`, int64(rating), question)
	if err != nil {
		return storageErr(fmt.Sprintf("rate card %q", question), err)
	}
	logAffected(res, "card rated", "question", question, "rating", int(rating))
	return nil
}

// Edit rewrites the card stored under oldQuestion. Since the question is the
// key this may rename the card; renaming onto another existing card returns
// ErrDuplicateKey and leaves both cards unchanged. Editing a missing card
// changes nothing.
func (s *Store) Edit(oldQuestion, newQuestion, newAnswer string, newCategory *string) error {
	tx, err := s.pending()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`
		UPDATE cards
		SET question = ?, answer = ?, category = ?
		WHERE question = ?
	`, newQuestion, newAnswer, nullable(newCategory), oldQuestion)
	if err != nil {
		if isPrimaryKeyViolation(err) {
			return fmt.Errorf("%w: %q", ErrDuplicateKey, newQuestion)
		}
		return storageErr(fmt.Sprintf("edit card %q", oldQuestion), err)
	}
	logAffected(res, "card edited", "old_question", oldQuestion, "question", newQuestion)
	return nil
}

// Delete removes the card with the given question, if there is one.
func (s *Store) Delete(question string) error {
	tx, err := s.pending()
	if err != nil {
		return err
	}
	res, err := tx.Exec(`DELETE FROM cards WHERE question = ?`, question)
	if err != nil {
		return storageErr(fmt.Sprintf("delete card %q", question), err)
	}
	logAffected(res, "card deleted", "question", question)
	return nil
}

// Search returns every card whose question, answer or category contains
// substring, compared with SQLite LIKE (case-insensitive for ASCII).
// The result is never nil.
func (s *Store) Search(substring string) ([]domain.Card, error) {
	tx, err := s.pending()
	if err != nil {
		return nil, err
	}
	pattern := "%" + escapeLike(substring) + "%"
	cards := []domain.Card{}
	err = tx.Select(&cards, selectCards+`
		WHERE question LIKE ? ESCAPE '\'
		   OR answer LIKE ? ESCAPE '\'
		   OR category LIKE ? ESCAPE '\'
		ORDER BY rowid
	`, pattern, pattern, pattern)
	if err != nil {
		return nil, storageErr(fmt.Sprintf("search cards for %q", substring), err)
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

// FindByCategory returns the first stored card whose category is exactly
// category, or nil when there is none. Only one card is returned even if
// several share the category.
func (s *Store) FindByCategory(category string) (*domain.Card, error) {
	tx, err := s.pending()
	if err != nil {
		return nil, err
	}
	var card domain.Card
	err = tx.Get(&card, selectCards+` WHERE category = ? ORDER BY rowid LIMIT 1`, category)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // No card in this category
		}
		return nil, storageErr(fmt.Sprintf("find card in category %q", category), err)
	}
	return &card, nil
}

// List returns all cards in insertion order. The result is never nil.
func (s *Store) List() ([]domain.Card, error) {
	tx, err := s.pending()
	if err != nil {
		return nil, err
	}
	cards := []domain.Card{}
	if err := tx.Select(&cards, selectCards+` ORDER BY rowid`); err != nil {
		return nil, storageErr("list cards", err)
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	return cards, nil
}

// nullable maps an absent category to SQL NULL.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside a LIKE pattern using '\' as the
// escape character.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func logAffected(res sql.Result, msg string, args ...any) {
	n, err := res.RowsAffected()
	if err != nil {
		return
	}
	if n == 0 {
		slog.Debug(msg+" (no matching card)", args...)
		return
	}
	slog.Debug(msg, args...)
}
