package sqlite

import "database/sql"

// ─── Key-Value Operations ───────────────────────────────────────────────────
// The record store treats these like localStorage: full-value writes,
// last write wins, no deltas.

// Get returns the stored value for key and whether it exists.
func (d *DB) Get(key string) (string, bool, error) {
	var value string
	err := d.db.QueryRow(`SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set stores the full value for key, replacing any previous value.
func (d *DB) Set(key, value string) error {
	_, err := d.db.Exec(`
		INSERT INTO kv (key, value, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			value      = excluded.value,
			updated_at = datetime('now')
	`, key, value)
	return err
}

// Delete removes the key. Missing keys are a no-op.
func (d *DB) Delete(key string) error {
	_, err := d.db.Exec(`DELETE FROM kv WHERE key = ?`, key)
	return err
}
