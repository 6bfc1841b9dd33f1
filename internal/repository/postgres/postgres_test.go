package postgres_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"tasque/internal/config"
	repo "tasque/internal/repository"
	"tasque/internal/repository/postgres"
	"tasque/internal/repository/repotest"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// PostgresTestSuite гоняет общий набор тестов хранилища на настоящем PostgreSQL
type PostgresTestSuite struct {
	repotest.StoreSuite
	container testcontainers.Container
	storage   *postgres.Storage
}

func (s *PostgresTestSuite) SetupSuite() {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "test",
			"POSTGRES_PASSWORD": "test",
			"POSTGRES_DB":       "testdb",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").
			WithOccurrence(2).
			WithStartupTimeout(60 * time.Second),
	}

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(s.T(), err)
	s.container = container

	host, err := container.Host(ctx)
	require.NoError(s.T(), err)
	port, err := container.MappedPort(ctx, "5432")
	require.NoError(s.T(), err)

	url := fmt.Sprintf("postgres://test:test@%s:%s/testdb?sslmode=disable", host, port.Port())

	require.NoError(s.T(), postgres.Migrate(url))

	s.storage, err = postgres.New(ctx, config.DatabaseConfig{
		URL:            url,
		MaxConnections: 4,
		MinConnections: 1,
		IdleTimeout:    time.Minute,
	})
	require.NoError(s.T(), err)

	s.NewStore = func(*testing.T) repo.Store { return s.storage }
	s.Reset = func() {
		_, err := s.storage.DB().Exec(`TRUNCATE task_queue, task_tags, tags, tasks`)
		require.NoError(s.T(), err)
	}
}

func (s *PostgresTestSuite) TearDownSuite() {
	if s.storage != nil {
		s.storage.Close()
	}
	if s.container != nil {
		_ = s.container.Terminate(context.Background())
	}
}

func TestPostgresSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("интеграционные тесты пропущены в режиме -short")
	}
	suite.Run(t, new(PostgresTestSuite))
}
