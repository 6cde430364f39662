package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/pagemarkhq/pagemark-backend/internal/logger"
	"github.com/pagemarkhq/pagemark-backend/internal/types"
	"github.com/pagemarkhq/pagemark-backend/internal/utils"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := utils.GetEnv("POSTGRES_HOST", "localhost", log)
	postgresPort := utils.GetEnv("POSTGRES_PORT", "5432", log)
	postgresUser := utils.GetEnv("POSTGRES_USER", "postgres", log)
	postgresPassword := utils.GetEnv("POSTGRES_PASSWORD", "", log)
	postgresName := utils.GetEnv("POSTGRES_NAME", "pagemark", log)

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	serviceLog.Info("Connecting to Postgres...")
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		serviceLog.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`).Error; err != nil {
		serviceLog.Error("Failed to enable uuid-ossp extension", "error", err)
		return nil, fmt.Errorf("enable uuid-ossp extension: %w", err)
	}

	return &PostgresService{db: db, log: serviceLog}, nil
}

func (s *PostgresService) DB() *gorm.DB { return s.db }

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.UserToken{},
		&types.PdfFile{},
		&types.Annotation{},
		&types.Drawing{},
		&types.ContentUnit{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	// Idempotent indexing invariant: at most one content unit per
	// (owner, source annotation). Closed here, at the storage layer, so
	// concurrent inserts cannot race past an application-level check.
	if err := s.db.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS "idx_content_unit_owner_source_annotation"
		ON "content_unit" ("user_id", "source_annotation_id")
		WHERE "source_annotation_id" IS NOT NULL
	`).Error; err != nil {
		s.log.Error("Failed to create content_unit unique index", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		table, name, sql string
	}{
		{"user_token", "fk_user_token_user_id", `ALTER TABLE "user_token" ADD CONSTRAINT "fk_user_token_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"pdf_file", "fk_pdf_file_user_id", `ALTER TABLE "pdf_file" ADD CONSTRAINT "fk_pdf_file_user_id" FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE`},
		{"annotation", "fk_annotation_pdf_file_id", `ALTER TABLE "annotation" ADD CONSTRAINT "fk_annotation_pdf_file_id" FOREIGN KEY ("pdf_file_id") REFERENCES "pdf_file"("id") ON DELETE CASCADE`},
		{"drawing", "fk_drawing_pdf_file_id", `ALTER TABLE "drawing" ADD CONSTRAINT "fk_drawing_pdf_file_id" FOREIGN KEY ("pdf_file_id") REFERENCES "pdf_file"("id") ON DELETE CASCADE`},
		{"content_unit", "fk_content_unit_pdf_file_id", `ALTER TABLE "content_unit" ADD CONSTRAINT "fk_content_unit_pdf_file_id" FOREIGN KEY ("pdf_file_id") REFERENCES "pdf_file"("id") ON DELETE CASCADE`},
	}
	for _, c := range constraints {
		var count int64
		s.db.Raw(`SELECT COUNT(*) FROM information_schema.table_constraints WHERE constraint_name = ? AND table_name = ?`, c.name, c.table).Scan(&count)
		if count > 0 {
			continue
		}
		if err := s.db.Exec(c.sql).Error; err != nil {
			s.log.Warn("Failed to add foreign key constraint", "constraint", c.name, "error", err)
		}
	}
	return nil
}
