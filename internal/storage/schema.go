package storage

const schema = `
-- The 'sources' table tracks where imported content comes from, either a local directory or a git repository.
CREATE TABLE IF NOT EXISTS sources (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL UNIQUE,
    type TEXT NOT NULL DEFAULT 'local', -- 'local' or 'git'
    last_scanned DATETIME
);

-- The 'imports' table maps a content hash to what was published for it.
CREATE TABLE IF NOT EXISTS imports (
    hash TEXT PRIMARY KEY,
    kind TEXT NOT NULL,          -- 'article' or 'quiz'
    title TEXT NOT NULL,
    chain_id INTEGER NOT NULL,   -- on-chain id, -1 when unknown
    source_id INTEGER NOT NULL,
    imported_at DATETIME NOT NULL,

    FOREIGN KEY(source_id) REFERENCES sources(id) ON DELETE CASCADE
);

-- The 'transactions' table is a local journal of every contract write.
CREATE TABLE IF NOT EXISTS transactions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    hash TEXT NOT NULL DEFAULT '',
    method TEXT NOT NULL,
    account TEXT NOT NULL,
    subject TEXT NOT NULL DEFAULT '',
    status INTEGER NOT NULL, -- 0: failed, 1: confirmed, 2: reverted
    error TEXT NOT NULL DEFAULT '',
    created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_transactions_account ON transactions(account, created_at DESC);
`
