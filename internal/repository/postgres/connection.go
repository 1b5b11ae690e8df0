package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"lingoclass/internal/domain/repositories"
)

// RepositoryConfig holds configuration for repository implementations
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds dynamically prefixed table names
type TableNames struct {
	Teachers             string
	Organizations        string
	Schools              string
	TeacherOrganizations string
	TeacherSchools       string
	Programs             string
	Lessons              string
	Contents             string
	Classrooms           string
	ClassroomSchools     string
	Students             string
	ClassroomStudents    string
	Assignments          string
	AssignmentContents   string
	SubscriptionPeriods  string
	PointsUsageLogs      string
	PermissionGrants     string
	GooseVersion         string
}

// NewTableNames creates table names with the given prefix
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Teachers:             fmt.Sprintf("%steachers", prefix),
		Organizations:        fmt.Sprintf("%sorganizations", prefix),
		Schools:              fmt.Sprintf("%sschools", prefix),
		TeacherOrganizations: fmt.Sprintf("%steacher_organizations", prefix),
		TeacherSchools:       fmt.Sprintf("%steacher_schools", prefix),
		Programs:             fmt.Sprintf("%sprograms", prefix),
		Lessons:              fmt.Sprintf("%slessons", prefix),
		Contents:             fmt.Sprintf("%scontents", prefix),
		Classrooms:           fmt.Sprintf("%sclassrooms", prefix),
		ClassroomSchools:     fmt.Sprintf("%sclassroom_schools", prefix),
		Students:             fmt.Sprintf("%sstudents", prefix),
		ClassroomStudents:    fmt.Sprintf("%sclassroom_students", prefix),
		Assignments:          fmt.Sprintf("%sassignments", prefix),
		AssignmentContents:   fmt.Sprintf("%sassignment_contents", prefix),
		SubscriptionPeriods:  fmt.Sprintf("%ssubscription_periods", prefix),
		PointsUsageLogs:      fmt.Sprintf("%spoints_usage_logs", prefix),
		PermissionGrants:     fmt.Sprintf("%spermission_grants", prefix),
		GooseVersion:         fmt.Sprintf("%sgoose_db_version", prefix),
	}
}

// All returns every application table, children before parents, for
// teardown scripts.
func (t *TableNames) All() []string {
	return []string{
		t.PermissionGrants,
		t.PointsUsageLogs,
		t.SubscriptionPeriods,
		t.AssignmentContents,
		t.Assignments,
		t.ClassroomStudents,
		t.Students,
		t.ClassroomSchools,
		t.Classrooms,
		t.Contents,
		t.Lessons,
		t.Programs,
		t.TeacherSchools,
		t.TeacherOrganizations,
		t.Schools,
		t.Organizations,
		t.Teachers,
		t.GooseVersion,
	}
}

const (
	maxConns      = 25
	minConns      = 5
	pgBouncerPort = 6543
)

// CreateConnectionPool opens and pings a pgx pool.
//
// Transaction poolers such as PgBouncer (port 6543 on hosted Postgres) reject
// prepared statements, so on that port the pool switches to
// QueryExecModeCacheDescribe. That mode still uses the extended protocol,
// which the JSONB usage log detail needs. An explicit
// default_query_exec_mode in the URL wins over the port check.
//
// Table prefixes (dev_, test_, prod_) are interpolated into the SQL text, so
// each environment gets its own statement cache entries.
func CreateConnectionPool(ctx context.Context, databaseURL string, logger *slog.Logger) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = maxConns
	config.MinConns = minConns

	if config.ConnConfig.Port == pgBouncerPort && config.ConnConfig.DefaultQueryExecMode == pgx.QueryExecModeCacheStatement {
		config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeCacheDescribe
		logger.Debug("using cache_describe mode for transaction pooler", "port", pgBouncerPort)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// PoolStats exposes pool counters for the metrics gauges.
func PoolStats(pool *pgxpool.Pool) (acquired, total func() int32) {
	return func() int32 { return pool.Stat().AcquiredConns() },
		func() int32 { return pool.Stat().TotalConns() }
}

// GetExecutor returns the transaction carried by ctx, or the pool when there
// is none, so repositories join an enclosing ExecTx automatically.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
