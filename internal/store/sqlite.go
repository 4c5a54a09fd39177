package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/agendaviva/ingest/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Used for local
// single-URL testing runs where standing up Postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS fonts_scraping (
	id                TEXT PRIMARY KEY,
	nom               TEXT NOT NULL,
	url               TEXT NOT NULL UNIQUE,
	tipus             TEXT NOT NULL DEFAULT 'web',
	activa            INTEGER NOT NULL DEFAULT 1,
	prioritat         INTEGER NOT NULL DEFAULT 1,
	notes             TEXT NOT NULL DEFAULT '',
	last_scraped      DATETIME,
	last_success      DATETIME,
	last_error        TEXT NOT NULL DEFAULT '',
	last_items_found  INTEGER NOT NULL DEFAULT 0,
	total_items_found INTEGER NOT NULL DEFAULT 0,
	created_at        DATETIME NOT NULL,
	updated_at        DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS activitats (
	id                  TEXT PRIMARY KEY,
	nom                 TEXT NOT NULL,
	slug                TEXT NOT NULL UNIQUE,
	descripcio          TEXT NOT NULL DEFAULT '',
	tipologies          TEXT NOT NULL DEFAULT '[]',
	tipologia_principal TEXT NOT NULL,
	quan_es_fa          TEXT NOT NULL DEFAULT 'puntual',
	edat_min            INTEGER,
	edat_max            INTEGER,
	edat_text           TEXT NOT NULL DEFAULT '',
	municipi_id         TEXT NOT NULL DEFAULT '',
	barri_zona          TEXT NOT NULL DEFAULT '',
	espai               TEXT NOT NULL DEFAULT '',
	adreca              TEXT NOT NULL DEFAULT '',
	dies                TEXT NOT NULL DEFAULT '',
	horari              TEXT NOT NULL DEFAULT '',
	preu                TEXT NOT NULL DEFAULT '',
	email               TEXT NOT NULL DEFAULT '',
	telefon             TEXT NOT NULL DEFAULT '',
	web                 TEXT NOT NULL DEFAULT '',
	tags                TEXT NOT NULL DEFAULT '[]',
	nd                  TEXT NOT NULL DEFAULT '{}',
	nd_verificat_per    TEXT NOT NULL DEFAULT '',
	estat               TEXT NOT NULL DEFAULT 'pendent',
	font_url            TEXT NOT NULL DEFAULT '',
	font_text           TEXT NOT NULL DEFAULT '',
	font_tipus          TEXT NOT NULL DEFAULT '',
	confianca_global    INTEGER NOT NULL DEFAULT 0,
	agent_model         TEXT NOT NULL DEFAULT '',
	agent_processed_at  DATETIME,
	created_by          TEXT NOT NULL DEFAULT '',
	data_fi             DATETIME,
	created_at          DATETIME NOT NULL,
	updated_at          DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS cua_revisio (
	id           TEXT PRIMARY KEY,
	activitat_id TEXT NOT NULL,
	prioritat    TEXT NOT NULL DEFAULT 'mitjana',
	motiu        TEXT NOT NULL DEFAULT '',
	motiu_detall TEXT NOT NULL DEFAULT '[]',
	oberta       INTEGER NOT NULL DEFAULT 1,
	resolucio    TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL,
	resolved_at  DATETIME
);

CREATE TABLE IF NOT EXISTS scraping_logs (
	id                 TEXT PRIMARY KEY,
	font_id            TEXT NOT NULL,
	blocs_trobats      INTEGER NOT NULL DEFAULT 0,
	activitats_creades INTEGER NOT NULL DEFAULT 0,
	activitats_en_cua  INTEGER NOT NULL DEFAULT 0,
	errors             TEXT NOT NULL DEFAULT '[]',
	duration_ms        INTEGER NOT NULL DEFAULT 0,
	created_at         DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_activitats_estat ON activitats(estat);
CREATE INDEX IF NOT EXISTS idx_activitats_municipi ON activitats(municipi_id);
CREATE INDEX IF NOT EXISTS idx_fonts_scraping_activa ON fonts_scraping(activa);
CREATE INDEX IF NOT EXISTS idx_cua_revisio_oberta ON cua_revisio(oberta, prioritat);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// --- Activities ---

func (s *SQLiteStore) InsertActivity(ctx context.Context, a *model.Activity) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	tipologiesJSON, err := json.Marshal(a.Tipologies)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal tipologies")
	}
	tagsJSON, err := json.Marshal(a.Tags)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal tags")
	}
	ndJSON, err := json.Marshal(a.ND)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal nd")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO activitats (`+activityColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		         ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.Nom, a.Slug, a.Descripcio, string(tipologiesJSON), a.TipologiaPrincipal, a.QuanEsFa,
		a.EdatMin, a.EdatMax, a.EdatText, a.MunicipiID, a.BarriZona, a.Espai, a.Adreca,
		a.Dies, a.Horari, a.Preu, a.Email, a.Telefon, a.Web, string(tagsJSON), string(ndJSON),
		a.NDVerificatPer, string(a.Estat), a.FontURL, a.FontText, string(a.FontTipus),
		a.ConfiancaGlobal, a.AgentModel, a.AgentProcessedAt, a.CreatedBy, a.DataFi,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert activity %s", a.Slug)
	}
	return a.ID, nil
}

func (s *SQLiteStore) GetActivityBySlug(ctx context.Context, slug string) (*model.Activity, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+activityColumns+` FROM activitats WHERE slug = ?`, slug)
	a, err := scanActivitySQL(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get activity %s", slug)
	}
	return a, nil
}

func (s *SQLiteStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]model.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activitats WHERE 1=1`
	args := []any{}

	if filter.Estat != "" {
		query += ` AND estat = ?`
		args = append(args, string(filter.Estat))
	}
	if filter.MunicipiID != "" {
		query += ` AND municipi_id = ?`
		args = append(args, filter.MunicipiID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)
	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list activities")
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		a, err := scanActivitySQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list activities iterate")
}

func (s *SQLiteStore) ListActivitySlugs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT slug FROM activitats`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list slugs")
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan slug")
		}
		slugs = append(slugs, slug)
	}
	return slugs, eris.Wrap(rows.Err(), "sqlite: list slugs iterate")
}

func (s *SQLiteStore) SearchActivitiesByName(ctx context.Context, fragment string) ([]model.Activity, error) {
	// SQLite's LIKE folds case for ASCII only, so "música" would miss
	// "Música". Match in Go instead, the way Postgres ILIKE would.
	rows, err := s.db.QueryContext(ctx,
		`SELECT ` + activityColumns + ` FROM activitats`,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: search activities")
	}
	defer rows.Close()

	needle := strings.ToLower(fragment)
	var out []model.Activity
	for rows.Next() {
		a, err := scanActivitySQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan activity")
		}
		if !strings.Contains(strings.ToLower(a.Nom), needle) {
			continue
		}
		out = append(out, *a)
		if len(out) == 50 {
			break
		}
	}
	return out, eris.Wrap(rows.Err(), "sqlite: search activities iterate")
}

func (s *SQLiteStore) UpdateActivityStatus(ctx context.Context, id string, estat model.ActivityStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE activitats SET estat = ?, updated_at = ? WHERE id = ?`,
		string(estat), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update activity status %s", id)
	}
	return checkAffected(res, "activity", id)
}

// --- Scraping sources ---

func (s *SQLiteStore) InsertSource(ctx context.Context, src *model.ScrapingSource) (string, error) {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	src.CreatedAt = now
	src.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO fonts_scraping (id, nom, url, tipus, activa, prioritat, notes, last_items_found, total_items_found, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		src.ID, src.Nom, src.URL, string(src.Tipus), src.Activa, src.Prioritat, src.Notes,
		src.LastItemsFound, src.TotalItemsFound, src.CreatedAt, src.UpdatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert source %s", src.URL)
	}
	return src.ID, nil
}

func (s *SQLiteStore) GetSource(ctx context.Context, id string) (*model.ScrapingSource, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM fonts_scraping WHERE id = ?`, id)
	src, err := scanSourceSQL(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get source %s", id)
	}
	return src, nil
}

func (s *SQLiteStore) GetSourceByURL(ctx context.Context, url string) (*model.ScrapingSource, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sourceColumns+` FROM fonts_scraping WHERE url = ?`, url)
	src, err := scanSourceSQL(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "sqlite: get source by url %s", url)
	}
	return src, nil
}

func (s *SQLiteStore) ListSources(ctx context.Context, onlyActive bool) ([]model.ScrapingSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM fonts_scraping`
	if onlyActive {
		query += ` WHERE activa = 1`
	}
	query += ` ORDER BY prioritat DESC, created_at ASC`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list sources")
	}
	defer rows.Close()

	var out []model.ScrapingSource
	for rows.Next() {
		src, err := scanSourceSQL(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan source")
		}
		out = append(out, *src)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list sources iterate")
}

func (s *SQLiteStore) UpdateSourceRun(ctx context.Context, id string, update model.SourceRunUpdate) error {
	now := time.Now().UTC()

	var res sql.Result
	var err error
	if update.Success {
		res, err = s.db.ExecContext(ctx,
			`UPDATE fonts_scraping
			 SET last_scraped = ?, last_success = ?, last_error = '',
			     last_items_found = ?, total_items_found = total_items_found + ?, updated_at = ?
			 WHERE id = ?`,
			now, now, update.ItemsFound, update.ItemsFound, now, id,
		)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE fonts_scraping
			 SET last_scraped = ?, last_error = ?, last_items_found = 0, updated_at = ?
			 WHERE id = ?`,
			now, update.Error, now, id,
		)
	}
	if err != nil {
		return eris.Wrapf(err, "sqlite: update source run %s", id)
	}
	return checkAffected(res, "source", id)
}

func (s *SQLiteStore) SetSourceActive(ctx context.Context, id string, active bool) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE fonts_scraping SET activa = ?, updated_at = ? WHERE id = ?`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: set source active %s", id)
	}
	return checkAffected(res, "source", id)
}

func (s *SQLiteStore) DeleteSourcesNotUpdatedSince(ctx context.Context, cutoff time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM fonts_scraping WHERE updated_at < ?`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete stale sources")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (s *SQLiteStore) DeleteSourcesWithAllActivitiesEnded(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM fonts_scraping
		 WHERE EXISTS (SELECT 1 FROM activitats a WHERE a.font_url = fonts_scraping.url)
		   AND NOT EXISTS (
			SELECT 1 FROM activitats a
			WHERE a.font_url = fonts_scraping.url AND (a.data_fi IS NULL OR a.data_fi >= ?)
		 )`,
		now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: delete ended sources")
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// --- Review queue ---

func (s *SQLiteStore) InsertReviewEntry(ctx context.Context, e *model.ReviewQueueEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.Oberta = true
	e.CreatedAt = time.Now().UTC()

	detallJSON, err := json.Marshal(e.MotiuDetall)
	if err != nil {
		return "", eris.Wrap(err, "sqlite: marshal motiu detall")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO cua_revisio (id, activitat_id, prioritat, motiu, motiu_detall, oberta, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActivitatID, string(e.Prioritat), e.Motiu, string(detallJSON), e.Oberta, e.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: insert review entry for %s", e.ActivitatID)
	}
	return e.ID, nil
}

func (s *SQLiteStore) ListOpenReviewEntries(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, activitat_id, prioritat, motiu, motiu_detall, oberta, resolucio, created_at, resolved_at
		 FROM cua_revisio WHERE oberta = 1
		 ORDER BY CASE prioritat WHEN 'alta' THEN 0 WHEN 'mitjana' THEN 1 ELSE 2 END, created_at ASC
		 LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list review entries")
	}
	defer rows.Close()

	var out []model.ReviewQueueEntry
	for rows.Next() {
		var e model.ReviewQueueEntry
		var detallJSON []byte
		var resolucio string
		if err := rows.Scan(&e.ID, &e.ActivitatID, &e.Prioritat, &e.Motiu, &detallJSON,
			&e.Oberta, &resolucio, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan review entry")
		}
		e.Resolucio = model.ReviewResolution(resolucio)
		if err := json.Unmarshal(detallJSON, &e.MotiuDetall); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal motiu detall")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list review entries iterate")
}

func (s *SQLiteStore) ResolveReviewEntry(ctx context.Context, id string, resolucio model.ReviewResolution) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE cua_revisio SET oberta = 0, resolucio = ?, resolved_at = ? WHERE id = ?`,
		string(resolucio), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: resolve review entry %s", id)
	}
	return checkAffected(res, "review entry", id)
}

// --- Scrape logs ---

func (s *SQLiteStore) InsertScrapeLogs(ctx context.Context, logs []model.ScrapeLog) error {
	if len(logs) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(logs))
	args := make([]any, 0, len(logs)*8)
	for _, l := range logs {
		errorsJSON, err := json.Marshal(l.Errors)
		if err != nil {
			return eris.Wrap(err, "sqlite: marshal log errors")
		}
		createdAt := l.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?, ?)")
		args = append(args, uuid.New().String(), l.SourceID, l.BlocksFound,
			l.ActivitiesCreated, l.ActivitiesQueued, string(errorsJSON), l.DurationMs, createdAt)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scraping_logs (id, font_id, blocs_trobats, activitats_creades, activitats_en_cua, errors, duration_ms, created_at)
		 VALUES `+strings.Join(placeholders, ", "),
		args...,
	)
	return eris.Wrap(err, "sqlite: insert scrape logs")
}

// --- scan helpers ---

// sqlRow lets the scan helpers work for both QueryRow and Query results.
type sqlRow interface {
	Scan(dest ...any) error
}

func scanActivitySQL(row sqlRow) (*model.Activity, error) {
	var a model.Activity
	var tipologiesJSON, tagsJSON, ndJSON []byte
	var estat, fontTipus string

	err := row.Scan(&a.ID, &a.Nom, &a.Slug, &a.Descripcio, &tipologiesJSON, &a.TipologiaPrincipal,
		&a.QuanEsFa, &a.EdatMin, &a.EdatMax, &a.EdatText, &a.MunicipiID, &a.BarriZona, &a.Espai,
		&a.Adreca, &a.Dies, &a.Horari, &a.Preu, &a.Email, &a.Telefon, &a.Web, &tagsJSON, &ndJSON,
		&a.NDVerificatPer, &estat, &a.FontURL, &a.FontText, &fontTipus, &a.ConfiancaGlobal,
		&a.AgentModel, &a.AgentProcessedAt, &a.CreatedBy, &a.DataFi, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}

	a.Estat = model.ActivityStatus(estat)
	a.FontTipus = model.SourceType(fontTipus)
	if err := json.Unmarshal(tipologiesJSON, &a.Tipologies); err != nil {
		return nil, eris.Wrap(err, "unmarshal tipologies")
	}
	if err := json.Unmarshal(tagsJSON, &a.Tags); err != nil {
		return nil, eris.Wrap(err, "unmarshal tags")
	}
	if err := json.Unmarshal(ndJSON, &a.ND); err != nil {
		return nil, eris.Wrap(err, "unmarshal nd")
	}
	return &a, nil
}

func scanSourceSQL(row sqlRow) (*model.ScrapingSource, error) {
	var src model.ScrapingSource
	var tipus string

	err := row.Scan(&src.ID, &src.Nom, &src.URL, &tipus, &src.Activa, &src.Prioritat, &src.Notes,
		&src.LastScraped, &src.LastSuccess, &src.LastError, &src.LastItemsFound,
		&src.TotalItemsFound, &src.CreatedAt, &src.UpdatedAt)
	if err != nil {
		return nil, err
	}
	src.Tipus = model.SourceTipus(tipus)
	return &src, nil
}

func checkAffected(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return fmt.Errorf("%s not found: %s", kind, id)
	}
	return nil
}
