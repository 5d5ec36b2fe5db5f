package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/samtime/samtime-backend/migrations"
	"github.com/samtime/samtime-backend/pkg/database"
	"github.com/samtime/samtime-backend/pkg/logger"
)

var (
	// Global test container (shared across all integration tests)
	globalSuite   *IntegrationSuite
	containerOnce sync.Once
	containerErr  error
)

// IntegrationSuite provides a migrated PostgreSQL for integration tests
type IntegrationSuite struct {
	Container *PostgresContainer
	DB        *database.DB
	Fixtures  *FixtureFactory
}

// NewIntegrationSuite starts (once per test binary) a container with every
// migration applied.
//
// Usage:
//
//	func TestMain(m *testing.M) {
//	    suite, err := testutil.NewIntegrationSuite(context.Background())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    code := m.Run()
//	    suite.Cleanup(context.Background())
//	    os.Exit(code)
//	}
func NewIntegrationSuite(ctx context.Context) (*IntegrationSuite, error) {
	containerOnce.Do(func() {
		container, err := NewPostgresContainer(ctx, DefaultPostgresConfig())
		if err != nil {
			containerErr = err
			return
		}

		db, err := database.NewWithDSN(container.DSN, logger.Nop())
		if err != nil {
			container.Terminate(ctx)
			containerErr = err
			return
		}

		if err := db.Migrate(ctx, migrations.FS, false); err != nil {
			db.Close()
			container.Terminate(ctx)
			containerErr = fmt.Errorf("failed to migrate test database: %w", err)
			return
		}

		globalSuite = &IntegrationSuite{
			Container: container,
			DB:        db,
			Fixtures:  NewFixtureFactory(),
		}
	})

	return globalSuite, containerErr
}

// Reset empties every table between tests
func (s *IntegrationSuite) Reset(t *testing.T) {
	t.Helper()
	_, err := s.DB.ExecContext(context.Background(),
		`TRUNCATE punches, employees, companies RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("failed to reset tables: %v", err)
	}
}

// Cleanup closes the database and stops the container
func (s *IntegrationSuite) Cleanup(ctx context.Context) {
	if s == nil {
		return
	}
	s.DB.Close()
	s.Container.Terminate(ctx)
}
