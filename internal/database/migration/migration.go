package migration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"
)

type migrationStep struct {
	Name string
	SQL  string
}

var steps = []migrationStep{
	{
		Name: "create_extension_uuid_ossp",
		SQL:  `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`,
	},
	{
		Name: "create_table_properties",
		SQL: `CREATE TABLE IF NOT EXISTS properties (
  id             UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  address_line1  TEXT        NOT NULL,
  address_line2  TEXT        NOT NULL DEFAULT '',
  city           TEXT        NOT NULL,
  postcode       TEXT        NOT NULL,
  reference_code TEXT        NOT NULL DEFAULT '',
  completion_pct INT         NOT NULL DEFAULT 0 CHECK (completion_pct BETWEEN 0 AND 100),
  public         BOOLEAN     NOT NULL DEFAULT false,
  created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_properties_postcode",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_properties_postcode ON properties (postcode);`,
	},
	{
		// Reference codes are optional; uniqueness applies only when set.
		Name: "create_index_properties_reference_code",
		SQL: `CREATE UNIQUE INDEX IF NOT EXISTS idx_properties_reference_code
  ON properties (reference_code) WHERE reference_code <> '';`,
	},
	{
		Name: "create_table_relationships",
		SQL: `CREATE TABLE IF NOT EXISTS relationships (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  property_id  UUID        NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
  principal_id TEXT        NOT NULL,
  tier         TEXT        NOT NULL CHECK (tier IN ('owner', 'occupier', 'interested')),
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE (property_id, principal_id, tier)
);`,
	},
	{
		Name: "create_index_relationships_principal",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_relationships_principal ON relationships (principal_id);`,
	},
	{
		Name: "create_table_documents",
		SQL: `CREATE TABLE IF NOT EXISTS documents (
  id                UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  property_id       UUID        NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
  creator_id        TEXT        NOT NULL,
  visibility        TEXT        NOT NULL CHECK (visibility IN ('private', 'shared', 'public')),
  filename          TEXT        NOT NULL,
  storage_path      TEXT        NOT NULL UNIQUE,
  size              BIGINT      NOT NULL CHECK (size >= 0),
  content_type      TEXT        NOT NULL,
  processing_status TEXT        NOT NULL DEFAULT 'pending',
  extracted_text    TEXT,
  metadata          JSONB       NOT NULL DEFAULT '{}',
  thumbnail_path    TEXT,
  created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_documents_property",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_documents_property ON documents (property_id, created_at);`,
	},
	{
		Name: "create_table_notes",
		SQL: `CREATE TABLE IF NOT EXISTS notes (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  property_id UUID        NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
  creator_id  TEXT        NOT NULL,
  visibility  TEXT        NOT NULL CHECK (visibility IN ('private', 'shared', 'public')),
  title       TEXT        NOT NULL,
  body        TEXT        NOT NULL DEFAULT '',
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_notes_property",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_notes_property ON notes (property_id, created_at);`,
	},
	{
		Name: "create_table_tasks",
		SQL: `CREATE TABLE IF NOT EXISTS tasks (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  property_id UUID        NOT NULL REFERENCES properties (id) ON DELETE CASCADE,
  creator_id  TEXT        NOT NULL,
  visibility  TEXT        NOT NULL CHECK (visibility IN ('private', 'shared', 'public')),
  title       TEXT        NOT NULL,
  done        BOOLEAN     NOT NULL DEFAULT false,
  due_at      TIMESTAMPTZ,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
  updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_tasks_property",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_tasks_property ON tasks (property_id, created_at);`,
	},
	{
		Name: "create_table_audit_events",
		SQL: `CREATE TABLE IF NOT EXISTS audit_events (
  id          UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  actor_id    TEXT        NOT NULL,
  action      TEXT        NOT NULL,
  entity_type TEXT        NOT NULL,
  entity_id   UUID        NOT NULL,
  old_state   JSONB,
  new_state   JSONB,
  created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);`,
	},
	{
		Name: "create_index_audit_events_entity",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_audit_events_entity ON audit_events (entity_type, entity_id, created_at);`,
	},
	{
		Name: "create_table_document_jobs",
		SQL: `CREATE TABLE IF NOT EXISTS document_jobs (
  id           UUID        PRIMARY KEY DEFAULT uuid_generate_v4(),
  document_id  UUID        NOT NULL REFERENCES documents (id) ON DELETE CASCADE,
  kind         TEXT        NOT NULL CHECK (kind IN ('ocr', 'av_scan', 'extract_metadata', 'generate_thumbnail')),
  status       TEXT        NOT NULL DEFAULT 'queued'
                           CHECK (status IN ('queued', 'processing', 'completed', 'failed', 'cancelled')),
  attempts     INT         NOT NULL DEFAULT 0,
  max_attempts INT         NOT NULL DEFAULT 3,
  last_error   TEXT,
  payload      JSONB       NOT NULL DEFAULT '{}',
  result       JSONB,
  created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
  started_at   TIMESTAMPTZ,
  completed_at TIMESTAMPTZ
);`,
	},
	{
		Name: "create_index_document_jobs_claim",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_jobs_claim ON document_jobs (status, kind, created_at);`,
	},
	{
		Name: "create_index_document_jobs_document",
		SQL:  `CREATE INDEX IF NOT EXISTS idx_document_jobs_document ON document_jobs (document_id);`,
	},
	{
		Name: "create_table_response_cache",
		SQL: `CREATE TABLE IF NOT EXISTS response_cache (
  provider         TEXT        NOT NULL,
  request_key      TEXT        NOT NULL,
  payload          JSONB       NOT NULL,
  validation_token TEXT,
  fetched_at       TIMESTAMPTZ NOT NULL,
  ttl_seconds      BIGINT      NOT NULL CHECK (ttl_seconds > 0),
  stale            BOOLEAN     NOT NULL DEFAULT false,
  PRIMARY KEY (provider, request_key)
);`,
	},
}

// EnsureMigrated checks if the 'properties' table exists and runs migrations if it doesn't.
func EnsureMigrated(ctx context.Context, db *sql.DB, loc *time.Location, dbHost string) error {
	start := time.Now()

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_check",
		"status":    "starting",
		"db_host":   dbHost,
	})

	var exists bool
	query := "SELECT to_regclass('public.properties') IS NOT NULL"
	err := db.QueryRowContext(ctx, query).Scan(&exists)
	if err != nil {
		logJSON(loc, map[string]any{
			"component":     "database",
			"event":         "db_migration_failed",
			"status":        "error",
			"error_message": fmt.Sprintf("failed to check sentinel table: %v", err),
			"db_host":       dbHost,
			"duration_ms":   time.Since(start).Milliseconds(),
		})
		return fmt.Errorf("failed to check sentinel table: %w", err)
	}

	if exists {
		logJSON(loc, map[string]any{
			"component":   "database",
			"event":       "db_migration_skip",
			"status":      "success",
			"msg":         "schema already exists, skipping migration",
			"db_host":     dbHost,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil
	}

	logJSON(loc, map[string]any{
		"component": "database",
		"event":     "db_migration_start",
		"status":    "in_progress",
		"db_host":   dbHost,
	})

	for _, step := range steps {
		stepStart := time.Now()
		_, err := db.ExecContext(ctx, step.SQL)
		if err != nil {
			logJSON(loc, map[string]any{
				"component":        "database",
				"event":            "db_migration_failed",
				"status":           "error",
				"migration_step":   step.Name,
				"error_message":    err.Error(),
				"db_host":          dbHost,
				"duration_ms":      time.Since(start).Milliseconds(),
				"step_duration_ms": time.Since(stepStart).Milliseconds(),
			})
			return fmt.Errorf("migration step %s failed: %w", step.Name, err)
		}

		logJSON(loc, map[string]any{
			"component":        "database",
			"event":            "db_migration_step",
			"status":           "success",
			"migration_step":   step.Name,
			"db_host":          dbHost,
			"step_duration_ms": time.Since(stepStart).Milliseconds(),
		})
	}

	logJSON(loc, map[string]any{
		"component":   "database",
		"event":       "db_migration_success",
		"status":      "success",
		"db_host":     dbHost,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	return nil
}

func logJSON(loc *time.Location, data map[string]any) {
	data["ts"] = time.Now().In(loc).Format(time.RFC3339Nano)
	if _, ok := data["level"]; !ok {
		if data["status"] == "error" {
			data["level"] = "error"
		} else {
			data["level"] = "info"
		}
	}

	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("failed to marshal migration log: %v", err)
		return
	}
	log.SetFlags(0)
	log.Println(string(b))
}
