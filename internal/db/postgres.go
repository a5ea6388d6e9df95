package db

import (
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/learnhub/learnhub-backend/internal/envutil"
	"github.com/learnhub/learnhub-backend/internal/logger"
	"github.com/learnhub/learnhub-backend/internal/types"
)

type PostgresService struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostgresService(log *logger.Logger) (*PostgresService, error) {
	serviceLog := log.With("service", "PostgresService")

	postgresHost := envutil.String("POSTGRES_HOST", "localhost")
	postgresPort := envutil.String("POSTGRES_PORT", "5432")
	postgresUser := envutil.String("POSTGRES_USER", "postgres")
	postgresPassword := envutil.String("POSTGRES_PASSWORD", "")
	postgresName := envutil.String("POSTGRES_NAME", "learnhub")

	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", postgresUser, postgresPassword, postgresHost, postgresPort, postgresName)

	log.Info("Connecting to Postgres...")
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		TranslateError:                           true,
	})
	if err != nil {
		log.Error("Failed to connect to Postgres", "error", err)
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}

	return &PostgresService{db: gdb, log: serviceLog}, nil
}

func (s *PostgresService) AutoMigrateAll() error {
	s.log.Info("Auto migrating postgres tables...")
	err := s.db.AutoMigrate(
		&types.User{},
		&types.Course{},
		&types.CourseModule{},
		&types.Enrollment{},
		&types.ModuleProgress{},
	)
	if err != nil {
		s.log.Error("Auto migration failed for postgres tables", "error", err)
		return err
	}

	s.log.Info("Configuring foreign key relationships for postgres tables...")
	constraints := []struct {
		name string
		stmt string
	}{
		{
			name: "fk_course_instructor_id",
			stmt: `ALTER TABLE "course" ADD CONSTRAINT "fk_course_instructor_id" FOREIGN KEY ("instructor_id") REFERENCES "user"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_course_module_course_id",
			stmt: `ALTER TABLE "course_module" ADD CONSTRAINT "fk_course_module_course_id" FOREIGN KEY ("course_id") REFERENCES "course"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_enrollment_student_id",
			stmt: `ALTER TABLE "enrollment" ADD CONSTRAINT "fk_enrollment_student_id" FOREIGN KEY ("student_id") REFERENCES "user"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_enrollment_course_id",
			stmt: `ALTER TABLE "enrollment" ADD CONSTRAINT "fk_enrollment_course_id" FOREIGN KEY ("course_id") REFERENCES "course"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_module_progress_enrollment_id",
			stmt: `ALTER TABLE "module_progress" ADD CONSTRAINT "fk_module_progress_enrollment_id" FOREIGN KEY ("enrollment_id") REFERENCES "enrollment"("id") ON DELETE CASCADE`,
		},
		{
			name: "fk_module_progress_module_id",
			stmt: `ALTER TABLE "module_progress" ADD CONSTRAINT "fk_module_progress_module_id" FOREIGN KEY ("module_id") REFERENCES "course_module"("id") ON DELETE CASCADE`,
		},
	}
	for _, c := range constraints {
		if err := s.db.Exec(c.stmt).Error; err != nil {
			// Re-running migrations against an existing schema is fine.
			s.log.Debug("Constraint already present or not applicable", "constraint", c.name, "error", err)
		}
	}
	return nil
}

func (s *PostgresService) DB() *gorm.DB {
	return s.db
}
