package db

// initialize creates the cache and queue tables if they don't exist.
// The cache tables hold exactly one user's mirror at a time; the owning
// user id lives in cache_meta and is reset on account switch.
func (db *DB) initialize() error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS cache_meta (
		id INTEGER PRIMARY KEY CHECK(id = 1),
		user_id TEXT NOT NULL DEFAULT '',
		last_fetch_at INTEGER NOT NULL DEFAULT 0
	);
	INSERT OR IGNORE INTO cache_meta (id, user_id, last_fetch_at) VALUES (1, '', 0);

	CREATE TABLE IF NOT EXISTS cache_assets (
		id TEXT PRIMARY KEY,
		container_id TEXT NOT NULL,
		generation_id TEXT NOT NULL,
		media_type TEXT NOT NULL,
		media_index INTEGER NOT NULL,
		source_url TEXT NOT NULL,
		preview_url TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL,
		enhanced INTEGER NOT NULL DEFAULT 0,
		favorite INTEGER NOT NULL DEFAULT 0,
		aspect_ratio TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_cache_assets_created ON cache_assets(created_at DESC);

	CREATE TABLE IF NOT EXISTS cache_favorites (
		generation_id TEXT NOT NULL,
		media_type TEXT NOT NULL,
		media_index INTEGER NOT NULL,
		PRIMARY KEY (generation_id, media_type, media_index)
	);

	CREATE TABLE IF NOT EXISTS pending_actions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		kind TEXT NOT NULL,
		generation_id TEXT NOT NULL,
		media_type TEXT NOT NULL,
		media_index INTEGER NOT NULL,
		state TEXT NOT NULL,
		last_error TEXT NOT NULL DEFAULT '',
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_pending_actions_state ON pending_actions(state);
	`)
	return err
}
