package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"lingoclass/internal/config"
	"lingoclass/internal/domain/models"
	"lingoclass/internal/domain/services"
	"lingoclass/internal/metering"
	"lingoclass/internal/repository/postgres"
	"lingoclass/internal/service/quota"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before migrating (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only apply migrations, don't insert demo data")
	clearData := flag.Bool("clear-data", false, "Delete all rows (keep schema)")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()

	// Destructive operations are never allowed against production data
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("BLOCKED: --drop-tables and --clear-data are disabled in production")
	}

	logger := config.NewLogger("prod", os.Stdout)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
	}

	log.Printf("Migrating schema (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)
	if err := postgres.Migrate(ctx, pool, tables, cfg.TablePrefix, logger); err != nil {
		log.Fatalf("Failed to migrate: %v", err)
	}

	if *schemaOnly {
		log.Println("Schema ready (schema-only mode)")
		return
	}

	if err := clearAllData(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to clear data: %v", err)
	}
	if *clearData {
		log.Println("Data cleared")
		return
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	txManager := postgres.NewTransactionManager(pool, logger)

	var ids *demoIDs
	err = txManager.ExecTx(ctx, func(ctx context.Context) error {
		var err error
		ids, err = seedDemo(ctx, &seeder{pool: pool, tables: tables})
		return err
	})
	if err != nil {
		log.Fatalf("Failed to seed demo data: %v", err)
	}
	log.Printf("Seeded organization %d, school %d, teachers %v", ids.organization, ids.school, ids.teachers)

	// Replay the analytics sample through the quota service so the demo
	// organization starts with realistic usage.
	registry, err := metering.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load metering registry: %v", err)
	}
	quotaService := quota.NewService(
		postgres.NewPointsRepository(repoConfig),
		txManager,
		quota.NewLedger(registry, logger),
		nil,
		logger,
	)
	for _, seconds := range []float64{100, 150, 200, 100, 250} {
		_, err := quotaService.DeductOrganization(ctx, ids.organization, &services.UsageRecord{
			TeacherID:   ids.teachers[0],
			FeatureType: "speech_assessment",
			UnitCount:   seconds,
			UnitType:    "seconds",
			Detail:      map[string]interface{}{"source": "seed"},
		})
		if err != nil {
			log.Fatalf("Failed to replay usage: %v", err)
		}
	}

	info, err := quotaService.OrganizationPointsInfo(ctx, ids.organization)
	if err != nil {
		log.Fatalf("Failed to read points: %v", err)
	}
	log.Printf("Organization points: %d/%d used, status %s", info.UsedPoints, info.TotalPoints, info.Status)
	log.Println("Seeding complete")
}

type demoIDs struct {
	teachers     []int64
	organization int64
	school       int64
}

type seeder struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
}

// insert runs an INSERT ... RETURNING id inside the surrounding transaction
func (s *seeder) insert(ctx context.Context, query string, args ...interface{}) (int64, error) {
	var id int64
	if err := postgres.GetExecutor(ctx, s.pool).QueryRow(ctx, query, args...).Scan(&id); err != nil {
		return 0, fmt.Errorf("%s: %w", strings.Fields(query)[2], err)
	}
	return id, nil
}

// seedDemo creates the sample organization used in local development:
// teacher A owns organization O, teacher B is an org_admin without grants,
// teacher C administers school S.
func seedDemo(ctx context.Context, s *seeder) (*demoIDs, error) {
	t := s.tables
	ids := &demoIDs{}

	for _, teacher := range []struct{ email, name string }{
		{"owner@example.com", "Teacher A"},
		{"admin@example.com", "Teacher B"},
		{"school@example.com", "Teacher C"},
	} {
		id, err := s.insert(ctx,
			"INSERT INTO "+t.Teachers+" (email, name) VALUES ($1, $2) RETURNING id",
			teacher.email, teacher.name)
		if err != nil {
			return nil, err
		}
		ids.teachers = append(ids.teachers, id)
	}
	a, b, c := ids.teachers[0], ids.teachers[1], ids.teachers[2]

	var err error
	ids.organization, err = s.insert(ctx,
		"INSERT INTO "+t.Organizations+" (name, total_points) VALUES ($1, $2) RETURNING id",
		"Demo Language Center", 1800)
	if err != nil {
		return nil, err
	}
	org := ids.organization

	for _, m := range []struct {
		teacher int64
		role    string
	}{{a, models.RoleOrgOwner}, {b, models.RoleOrgAdmin}, {c, models.RoleTeacher}} {
		if _, err := s.insert(ctx,
			"INSERT INTO "+t.TeacherOrganizations+" (teacher_id, organization_id, role) VALUES ($1, $2, $3) RETURNING id",
			m.teacher, org, m.role); err != nil {
			return nil, err
		}
	}

	ids.school, err = s.insert(ctx,
		"INSERT INTO "+t.Schools+" (organization_id, name) VALUES ($1, $2) RETURNING id",
		org, "Downtown Campus")
	if err != nil {
		return nil, err
	}
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.TeacherSchools+" (teacher_id, school_id, roles) VALUES ($1, $2, $3) RETURNING id",
		c, ids.school, []string{models.RoleSchoolAdmin}); err != nil {
		return nil, err
	}

	// Programs: one personal, one per owner kind
	personal, err := s.insert(ctx,
		"INSERT INTO "+t.Programs+" (name, teacher_id) VALUES ($1, $2) RETURNING id",
		"Teacher A's phonics drills", a)
	if err != nil {
		return nil, err
	}
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.Programs+" (name, teacher_id, organization_id) VALUES ($1, $2, $3) RETURNING id",
		"Center curriculum", a, org); err != nil {
		return nil, err
	}
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.Programs+" (name, teacher_id, school_id) VALUES ($1, $2, $3) RETURNING id",
		"Downtown conversation club", c, ids.school); err != nil {
		return nil, err
	}
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.Programs+" (name, is_template) VALUES ($1, TRUE) RETURNING id",
		"Starter template"); err != nil {
		return nil, err
	}

	lesson, err := s.insert(ctx,
		"INSERT INTO "+t.Lessons+" (program_id, name, order_index) VALUES ($1, $2, 0) RETURNING id",
		personal, "Short vowels")
	if err != nil {
		return nil, err
	}
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.Contents+" (lesson_id, title, type, level) VALUES ($1, $2, $3, $4) RETURNING id",
		lesson, "Read aloud: cat, hat, bat", "reading_assessment", "A1"); err != nil {
		return nil, err
	}

	// Classrooms: A's personal one with an assignment copy, C's school one
	classroom, err := s.insert(ctx,
		"INSERT INTO "+t.Classrooms+" (name, level, teacher_id) VALUES ($1, $2, $3) RETURNING id",
		"Evening beginners", "A1", a)
	if err != nil {
		return nil, err
	}
	schoolClassroom, err := s.insert(ctx,
		"INSERT INTO "+t.Classrooms+" (name, teacher_id) VALUES ($1, $2) RETURNING id",
		"Downtown 3B", c)
	if err != nil {
		return nil, err
	}
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.ClassroomSchools+" (classroom_id, school_id) VALUES ($1, $2) RETURNING id",
		schoolClassroom, ids.school); err != nil {
		return nil, err
	}

	assignment, err := s.insert(ctx,
		"INSERT INTO "+t.Assignments+" (teacher_id, classroom_id, title) VALUES ($1, $2, $3) RETURNING id",
		a, classroom, "Week 1 reading")
	if err != nil {
		return nil, err
	}
	copyID, err := s.insert(ctx,
		"INSERT INTO "+t.Contents+" (title, type, level, is_assignment_copy) VALUES ($1, $2, $3, TRUE) RETURNING id",
		"Read aloud: cat, hat, bat", "reading_assessment", "A1")
	if err != nil {
		return nil, err
	}
	if _, err := postgres.GetExecutor(ctx, s.pool).Exec(ctx,
		"INSERT INTO "+t.AssignmentContents+" (assignment_id, content_id, order_index) VALUES ($1, $2, 0)",
		assignment, copyID); err != nil {
		return nil, fmt.Errorf("assignment content: %w", err)
	}

	// Teacher B bills AI usage to a personal plan
	now := time.Now().UTC()
	if _, err := s.insert(ctx,
		"INSERT INTO "+t.SubscriptionPeriods+" (teacher_id, plan_name, quota_total, start_date, end_date) VALUES ($1, $2, $3, $4, $5) RETURNING id",
		b, "tutor_monthly", 600, now.AddDate(0, 0, -1), now.AddDate(0, 1, 0)); err != nil {
		return nil, err
	}

	return ids, nil
}

// dropAllTables drops every table, children first
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range tables.All() {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}
	return nil
}

// clearAllData empties the application tables and resets their sequences
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	all := tables.All()
	// The goose version table is last and must keep its rows
	data := all[:len(all)-1]
	_, err := pool.Exec(ctx, "TRUNCATE "+strings.Join(data, ", ")+" RESTART IDENTITY CASCADE")
	return err
}
