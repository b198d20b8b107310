package cache

import (
	"database/sql"

	"github.com/hveda/gallerysync/internal/models"
)

// load restores the persisted snapshot. Called once at construction.
func (s *Store) load() error {
	err := s.db.QueryRow(`SELECT user_id, last_fetch_at FROM cache_meta WHERE id = 1`).
		Scan(&s.user, &s.lastFetch)
	if err != nil && err != sql.ErrNoRows {
		return err
	}

	rows, err := s.db.Query(`
		SELECT id, container_id, generation_id, media_type, media_index,
		       source_url, preview_url, prompt, created_at, enhanced, favorite, aspect_ratio
		FROM cache_assets
		ORDER BY created_at DESC, id ASC
	`)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var item models.AssetItem
		if err := rows.Scan(
			&item.ID, &item.ContainerID, &item.GenerationID, &item.MediaType,
			&item.MediaIndex, &item.SourceURL, &item.PreviewURL, &item.Prompt,
			&item.CreatedAt, &item.Enhanced, &item.Favorite, &item.AspectRatio,
		); err != nil {
			return err
		}
		s.assets = append(s.assets, item)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	favRows, err := s.db.Query(`SELECT generation_id, media_type, media_index FROM cache_favorites`)
	if err != nil {
		return err
	}
	defer favRows.Close()
	for favRows.Next() {
		var target models.Target
		if err := favRows.Scan(&target.GenerationID, &target.MediaType, &target.MediaIndex); err != nil {
			return err
		}
		s.favorites[target] = struct{}{}
	}
	return favRows.Err()
}

// persistAssets rewrites the cache_assets table from the in-memory list
// in a single transaction.
func (s *Store) persistAssets() {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.WithError(err).Warn("failed to begin asset persistence")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_assets`); err != nil {
		s.log.WithError(err).Warn("failed to clear persisted assets")
		return
	}

	stmt, err := tx.Prepare(`
		INSERT INTO cache_assets (id, container_id, generation_id, media_type, media_index,
			source_url, preview_url, prompt, created_at, enhanced, favorite, aspect_ratio)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		s.log.WithError(err).Warn("failed to prepare asset insert")
		return
	}
	defer stmt.Close()

	for _, item := range s.assets {
		if _, err := stmt.Exec(
			item.ID, item.ContainerID, item.GenerationID, item.MediaType, item.MediaIndex,
			item.SourceURL, item.PreviewURL, item.Prompt, item.CreatedAt,
			item.Enhanced, item.Favorite, item.AspectRatio,
		); err != nil {
			s.log.WithError(err).WithField("asset", item.ID).Warn("failed to persist asset")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.log.WithError(err).Warn("failed to commit asset persistence")
	}
}

func (s *Store) persistAsset(item models.AssetItem) {
	_, err := s.db.Exec(`
		UPDATE cache_assets
		SET source_url = ?, preview_url = ?, prompt = ?, enhanced = ?, favorite = ?, aspect_ratio = ?
		WHERE id = ?
	`, item.SourceURL, item.PreviewURL, item.Prompt, item.Enhanced, item.Favorite, item.AspectRatio, item.ID)
	if err != nil {
		s.log.WithError(err).WithField("asset", item.ID).Warn("failed to persist asset update")
	}
}

func (s *Store) persistFavorites() {
	tx, err := s.db.Begin()
	if err != nil {
		s.log.WithError(err).Warn("failed to begin favorite persistence")
		return
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM cache_favorites`); err != nil {
		s.log.WithError(err).Warn("failed to clear persisted favorites")
		return
	}
	stmt, err := tx.Prepare(`INSERT INTO cache_favorites (generation_id, media_type, media_index) VALUES (?, ?, ?)`)
	if err != nil {
		s.log.WithError(err).Warn("failed to prepare favorite insert")
		return
	}
	defer stmt.Close()

	for target := range s.favorites {
		if _, err := stmt.Exec(target.GenerationID, target.MediaType, target.MediaIndex); err != nil {
			s.log.WithError(err).Warn("failed to persist favorite")
			return
		}
	}
	if err := tx.Commit(); err != nil {
		s.log.WithError(err).Warn("failed to commit favorite persistence")
	}
}

func (s *Store) persistMeta() {
	_, err := s.db.Exec(`UPDATE cache_meta SET user_id = ?, last_fetch_at = ? WHERE id = 1`,
		s.user, s.lastFetch)
	if err != nil {
		s.log.WithError(err).Warn("failed to persist cache metadata")
	}
}
