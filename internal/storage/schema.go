package storage

const schema = `
-- The 'cards' table stores every flashcard, keyed by its question text.
CREATE TABLE IF NOT EXISTS cards (
    question TEXT PRIMARY KEY,
    answer TEXT,
    category TEXT,            -- NULL when the card has no category
    rating INTEGER DEFAULT 0  -- 0: unrated, 1-5: user rating
);
`

const selectCards = `SELECT question, answer, category, rating FROM cards`
