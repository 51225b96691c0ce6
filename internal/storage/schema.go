package storage

// The on-disk layout is shared with earlier versions of the app and must stay
// byte-compatible: the schedule table keeps its historical name (including the
// misspelling) and the card UUID lives in the "command" column. Timestamps are
// stored as RFC 3339 UTC text, state and rating as the textual integer value.
const schema = `
CREATE TABLE IF NOT EXISTS schedulling (
    id integer primary key autoincrement,
    priority integer,
    due text,
    stability real,
    difficulty real,
    elapsed_days integer,
    scheduled_days integer,
    reps integer,
    lapses integer,
    state text,
    last_review text,
    command text,
    tags text
);

CREATE TABLE IF NOT EXISTS review_log (
    id integer primary key,
    card_id integer,
    rating text,
    review_date text
);

CREATE TABLE IF NOT EXISTS tags (
    id integer primary key autoincrement,
    tag text
);
`
