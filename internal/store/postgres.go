package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/agendaviva/ingest/internal/db"
	"github.com/agendaviva/ingest/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// the hot paths of the ingestion loop.
var preparedStatements = map[string]string{
	"get_activity_by_slug": `SELECT ` + activityColumns + ` FROM activitats WHERE slug = $1`,
	"list_activity_slugs":  `SELECT slug FROM activitats`,
	"get_source_by_url":    `SELECT ` + sourceColumns + ` FROM fonts_scraping WHERE url = $1`,
	"insert_review_entry":  `INSERT INTO cua_revisio (id, activitat_id, prioritat, motiu, motiu_detall, oberta, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool. Used by tests with pgxmock.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS fonts_scraping (
	id                TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	nom               TEXT NOT NULL,
	url               TEXT NOT NULL UNIQUE,
	tipus             TEXT NOT NULL DEFAULT 'web',
	activa            BOOLEAN NOT NULL DEFAULT true,
	prioritat         INTEGER NOT NULL DEFAULT 1,
	notes             TEXT NOT NULL DEFAULT '',
	last_scraped      TIMESTAMPTZ,
	last_success      TIMESTAMPTZ,
	last_error        TEXT NOT NULL DEFAULT '',
	last_items_found  INTEGER NOT NULL DEFAULT 0,
	total_items_found INTEGER NOT NULL DEFAULT 0,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS activitats (
	id                  TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	nom                 TEXT NOT NULL,
	slug                TEXT NOT NULL UNIQUE,
	descripcio          TEXT NOT NULL DEFAULT '',
	tipologies          JSONB NOT NULL DEFAULT '[]',
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
	tags                JSONB NOT NULL DEFAULT '[]',
	nd                  JSONB NOT NULL DEFAULT '{}',
	nd_verificat_per    TEXT NOT NULL DEFAULT '',
	estat               TEXT NOT NULL DEFAULT 'pendent',
	font_url            TEXT NOT NULL DEFAULT '',
	font_text           TEXT NOT NULL DEFAULT '',
	font_tipus          TEXT NOT NULL DEFAULT '',
	confianca_global    INTEGER NOT NULL DEFAULT 0,
	agent_model         TEXT NOT NULL DEFAULT '',
	agent_processed_at  TIMESTAMPTZ,
	created_by          TEXT NOT NULL DEFAULT '',
	data_fi             TIMESTAMPTZ,
	created_at          TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at          TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS cua_revisio (
	id           TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	activitat_id TEXT NOT NULL,
	prioritat    TEXT NOT NULL DEFAULT 'mitjana',
	motiu        TEXT NOT NULL DEFAULT '',
	motiu_detall JSONB NOT NULL DEFAULT '[]',
	oberta       BOOLEAN NOT NULL DEFAULT true,
	resolucio    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	resolved_at  TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS scraping_logs (
	id                 TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	font_id            TEXT NOT NULL,
	blocs_trobats      INTEGER NOT NULL DEFAULT 0,
	activitats_creades INTEGER NOT NULL DEFAULT 0,
	activitats_en_cua  INTEGER NOT NULL DEFAULT 0,
	errors             JSONB NOT NULL DEFAULT '[]',
	duration_ms        BIGINT NOT NULL DEFAULT 0,
	created_at         TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_activitats_slug ON activitats(slug);
CREATE INDEX IF NOT EXISTS idx_activitats_estat ON activitats(estat);
CREATE INDEX IF NOT EXISTS idx_activitats_municipi ON activitats(municipi_id);
CREATE INDEX IF NOT EXISTS idx_fonts_scraping_activa ON fonts_scraping(activa);
CREATE INDEX IF NOT EXISTS idx_cua_revisio_oberta ON cua_revisio(oberta, prioritat);
CREATE INDEX IF NOT EXISTS idx_scraping_logs_font ON scraping_logs(font_id);
`

const activityColumns = `id, nom, slug, descripcio, tipologies, tipologia_principal, quan_es_fa,
	edat_min, edat_max, edat_text, municipi_id, barri_zona, espai, adreca, dies, horari, preu,
	email, telefon, web, tags, nd, nd_verificat_per, estat, font_url, font_text, font_tipus,
	confianca_global, agent_model, agent_processed_at, created_by, data_fi, created_at, updated_at`

const sourceColumns = `id, nom, url, tipus, activa, prioritat, notes, last_scraped, last_success,
	last_error, last_items_found, total_items_found, created_at, updated_at`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// --- Activities ---

func (s *PostgresStore) InsertActivity(ctx context.Context, a *model.Activity) (string, error) {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	a.CreatedAt = now
	a.UpdatedAt = now

	tipologiesJSON, err := json.Marshal(a.Tipologies)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal tipologies")
	}
	tagsJSON, err := json.Marshal(a.Tags)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal tags")
	}
	ndJSON, err := json.Marshal(a.ND)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal nd")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO activitats (`+activityColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17,
		         $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28, $29, $30, $31, $32, $33, $34)`,
		a.ID, a.Nom, a.Slug, a.Descripcio, tipologiesJSON, a.TipologiaPrincipal, a.QuanEsFa,
		a.EdatMin, a.EdatMax, a.EdatText, a.MunicipiID, a.BarriZona, a.Espai, a.Adreca,
		a.Dies, a.Horari, a.Preu, a.Email, a.Telefon, a.Web, tagsJSON, ndJSON,
		a.NDVerificatPer, string(a.Estat), a.FontURL, a.FontText, string(a.FontTipus),
		a.ConfiancaGlobal, a.AgentModel, a.AgentProcessedAt, a.CreatedBy, a.DataFi,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert activity %s", a.Slug)
	}
	return a.ID, nil
}

func (s *PostgresStore) GetActivityBySlug(ctx context.Context, slug string) (*model.Activity, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+activityColumns+` FROM activitats WHERE slug = $1`, slug)
	a, err := scanActivity(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get activity %s", slug)
	}
	return a, nil
}

func (s *PostgresStore) ListActivities(ctx context.Context, filter ActivityFilter) ([]model.Activity, error) {
	query := `SELECT ` + activityColumns + ` FROM activitats WHERE true`
	args := []any{}
	argIdx := 1

	if filter.Estat != "" {
		query += fmt.Sprintf(` AND estat = $%d`, argIdx)
		args = append(args, string(filter.Estat))
		argIdx++
	}
	if filter.MunicipiID != "" {
		query += fmt.Sprintf(` AND municipi_id = $%d`, argIdx)
		args = append(args, filter.MunicipiID)
		argIdx++
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += fmt.Sprintf(` LIMIT $%d`, argIdx)
	args = append(args, limit)
	argIdx++

	if filter.Offset > 0 {
		query += fmt.Sprintf(` OFFSET $%d`, argIdx)
		args = append(args, filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list activities")
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list activities iterate")
}

func (s *PostgresStore) ListActivitySlugs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT slug FROM activitats`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list slugs")
	}
	defer rows.Close()

	var slugs []string
	for rows.Next() {
		var slug string
		if err := rows.Scan(&slug); err != nil {
			return nil, eris.Wrap(err, "postgres: scan slug")
		}
		slugs = append(slugs, slug)
	}
	return slugs, eris.Wrap(rows.Err(), "postgres: list slugs iterate")
}

func (s *PostgresStore) SearchActivitiesByName(ctx context.Context, fragment string) ([]model.Activity, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+activityColumns+` FROM activitats WHERE nom ILIKE '%' || $1 || '%' LIMIT 50`,
		fragment,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: search activities")
	}
	defer rows.Close()

	var out []model.Activity
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan activity")
		}
		out = append(out, *a)
	}
	return out, eris.Wrap(rows.Err(), "postgres: search activities iterate")
}

func (s *PostgresStore) UpdateActivityStatus(ctx context.Context, id string, estat model.ActivityStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE activitats SET estat = $1, updated_at = $2 WHERE id = $3`,
		string(estat), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update activity status %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("activity not found: %s", id)
	}
	return nil
}

// --- Scraping sources ---

func (s *PostgresStore) InsertSource(ctx context.Context, src *model.ScrapingSource) (string, error) {
	if src.ID == "" {
		src.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	src.CreatedAt = now
	src.UpdatedAt = now

	_, err := s.pool.Exec(ctx,
		`INSERT INTO fonts_scraping (id, nom, url, tipus, activa, prioritat, notes, last_items_found, total_items_found, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		src.ID, src.Nom, src.URL, string(src.Tipus), src.Activa, src.Prioritat, src.Notes,
		src.LastItemsFound, src.TotalItemsFound, src.CreatedAt, src.UpdatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert source %s", src.URL)
	}
	return src.ID, nil
}

func (s *PostgresStore) GetSource(ctx context.Context, id string) (*model.ScrapingSource, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM fonts_scraping WHERE id = $1`, id)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get source %s", id)
	}
	return src, nil
}

func (s *PostgresStore) GetSourceByURL(ctx context.Context, url string) (*model.ScrapingSource, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+sourceColumns+` FROM fonts_scraping WHERE url = $1`, url)
	src, err := scanSource(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, eris.Wrapf(err, "postgres: get source by url %s", url)
	}
	return src, nil
}

func (s *PostgresStore) ListSources(ctx context.Context, onlyActive bool) ([]model.ScrapingSource, error) {
	query := `SELECT ` + sourceColumns + ` FROM fonts_scraping`
	if onlyActive {
		query += ` WHERE activa = true`
	}
	query += ` ORDER BY prioritat DESC, created_at ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list sources")
	}
	defer rows.Close()

	var out []model.ScrapingSource
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan source")
		}
		out = append(out, *src)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list sources iterate")
}

func (s *PostgresStore) UpdateSourceRun(ctx context.Context, id string, update model.SourceRunUpdate) error {
	now := time.Now().UTC()

	query := `UPDATE fonts_scraping
	          SET last_scraped = $1, last_error = $2, last_items_found = 0, updated_at = $1
	          WHERE id = $3`
	args := []any{now, update.Error, id}
	if update.Success {
		query = `UPDATE fonts_scraping
		         SET last_scraped = $1, last_success = $1, last_error = '',
		             last_items_found = $2, total_items_found = total_items_found + $2, updated_at = $1
		         WHERE id = $3`
		args = []any{now, update.ItemsFound, id}
	}

	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "postgres: update source run %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("source not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) SetSourceActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE fonts_scraping SET activa = $1, updated_at = $2 WHERE id = $3`,
		active, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: set source active %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("source not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) DeleteSourcesNotUpdatedSince(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM fonts_scraping WHERE updated_at < $1`, cutoff,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete stale sources")
	}
	return int(tag.RowsAffected()), nil
}

func (s *PostgresStore) DeleteSourcesWithAllActivitiesEnded(ctx context.Context, now time.Time) (int, error) {
	// A source qualifies when it has at least one linked activity and none
	// of them are still current.
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM fonts_scraping f
		 WHERE EXISTS (SELECT 1 FROM activitats a WHERE a.font_url = f.url)
		   AND NOT EXISTS (
			SELECT 1 FROM activitats a
			WHERE a.font_url = f.url AND (a.data_fi IS NULL OR a.data_fi >= $1)
		 )`,
		now,
	)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: delete ended sources")
	}
	return int(tag.RowsAffected()), nil
}

// --- Review queue ---

func (s *PostgresStore) InsertReviewEntry(ctx context.Context, e *model.ReviewQueueEntry) (string, error) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.Oberta = true
	e.CreatedAt = time.Now().UTC()

	detallJSON, err := json.Marshal(e.MotiuDetall)
	if err != nil {
		return "", eris.Wrap(err, "postgres: marshal motiu detall")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO cua_revisio (id, activitat_id, prioritat, motiu, motiu_detall, oberta, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		e.ID, e.ActivitatID, string(e.Prioritat), e.Motiu, detallJSON, e.Oberta, e.CreatedAt,
	)
	if err != nil {
		return "", eris.Wrapf(err, "postgres: insert review entry for %s", e.ActivitatID)
	}
	return e.ID, nil
}

func (s *PostgresStore) ListOpenReviewEntries(ctx context.Context, limit int) ([]model.ReviewQueueEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, activitat_id, prioritat, motiu, motiu_detall, oberta, resolucio, created_at, resolved_at
		 FROM cua_revisio WHERE oberta = true
		 ORDER BY CASE prioritat WHEN 'alta' THEN 0 WHEN 'mitjana' THEN 1 ELSE 2 END, created_at ASC
		 LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list review entries")
	}
	defer rows.Close()

	var out []model.ReviewQueueEntry
	for rows.Next() {
		var e model.ReviewQueueEntry
		var detallJSON []byte
		var resolucio string
		if err := rows.Scan(&e.ID, &e.ActivitatID, &e.Prioritat, &e.Motiu, &detallJSON,
			&e.Oberta, &resolucio, &e.CreatedAt, &e.ResolvedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan review entry")
		}
		e.Resolucio = model.ReviewResolution(resolucio)
		if err := json.Unmarshal(detallJSON, &e.MotiuDetall); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal motiu detall")
		}
		out = append(out, e)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list review entries iterate")
}

func (s *PostgresStore) ResolveReviewEntry(ctx context.Context, id string, resolucio model.ReviewResolution) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE cua_revisio SET oberta = false, resolucio = $1, resolved_at = $2 WHERE id = $3`,
		string(resolucio), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: resolve review entry %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("review entry not found: %s", id)
	}
	return nil
}

// --- Scrape logs ---

func (s *PostgresStore) InsertScrapeLogs(ctx context.Context, logs []model.ScrapeLog) error {
	rows := make([][]any, 0, len(logs))
	for _, l := range logs {
		errorsJSON, err := json.Marshal(l.Errors)
		if err != nil {
			return eris.Wrap(err, "postgres: marshal log errors")
		}
		createdAt := l.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now().UTC()
		}
		rows = append(rows, []any{
			uuid.New().String(), l.SourceID, l.BlocksFound, l.ActivitiesCreated,
			l.ActivitiesQueued, errorsJSON, l.DurationMs, createdAt,
		})
	}

	_, err := db.CopyFrom(ctx, s.pool, "scraping_logs",
		[]string{"id", "font_id", "blocs_trobats", "activitats_creades", "activitats_en_cua", "errors", "duration_ms", "created_at"},
		rows,
	)
	return eris.Wrap(err, "postgres: insert scrape logs")
}

// --- scan helpers ---

func scanActivity(row pgx.Row) (*model.Activity, error) {
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

func scanSource(row pgx.Row) (*model.ScrapingSource, error) {
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
