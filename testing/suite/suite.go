package suite

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const (
	expireDuration  = 120
	maxWaitDuration = 120 * time.Second
)

const (
	redisPort  = "6379/tcp"
	redisImage = "redis"
	redisTag   = "alpine"

	postgresPort     = "5432/tcp"
	postgresImage    = "postgres"
	postgresTag      = "16-alpine"
	postgresPassword = "secret"
	postgresDB       = "domino"
)

// Suite runs throwaway containers for integration tests. Tests are skipped when no
// docker daemon is reachable.
type Suite struct {
	*testing.T
	Logger *logrus.Logger

	pool *dockertest.Pool
}

func New(t *testing.T) (context.Context, *Suite) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), maxWaitDuration)
	t.Cleanup(func() {
		cancel()
	})

	logger := logrus.New()
	logger.SetLevel(logrus.InfoLevel)
	logger.SetFormatter(&logrus.JSONFormatter{})

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("could not connect to docker: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker daemon not reachable: %v", err)
	}
	// exponential backoff-retry, because the application in the container might not be ready to accept connections yet
	pool.MaxWait = maxWaitDuration

	return ctx, &Suite{
		T:      t,
		Logger: logger,
		pool:   pool,
	}
}

func (s *Suite) run(opts *dockertest.RunOptions) *dockertest.Resource {
	s.Helper()

	// pulls an image, creates a container based on it and runs it
	resource, err := s.pool.RunWithOptions(opts, func(config *docker.HostConfig) {
		// set AutoRemove to true so that stopped container goes away by itself
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		s.Fatalf("could not start %s: %v", opts.Repository, err)
	}

	// never returns error
	_ = resource.Expire(expireDuration) // Tell docker to hard kill the container in 120 seconds

	s.Cleanup(func() {
		if err := s.pool.Purge(resource); err != nil {
			s.Logf("could not purge %s: %v", opts.Repository, err)
		}
	})
	return resource
}

// Redis starts a redis container and returns a client against an empty database.
func (s *Suite) Redis(ctx context.Context) *redis.Client {
	s.Helper()

	resource := s.run(&dockertest.RunOptions{
		Repository: redisImage,
		Tag:        redisTag,
		Env:        []string{},
	})
	redisHost := resource.GetHostPort(redisPort)

	var redisClient *redis.Client
	if err := s.pool.Retry(func() error {
		redisClient = redis.NewClient(&redis.Options{
			Addr: redisHost,
		})
		return redisClient.Ping(ctx).Err()
	}); err != nil {
		s.Fatalf("could not connect to redis: %v", err)
	}

	if err := redisClient.FlushDB(ctx).Err(); err != nil {
		s.Fatalf("could not flush database: %v", err)
	}
	s.Cleanup(func() { _ = redisClient.Close() })
	return redisClient
}

// Postgres starts a postgres container and returns a pool plus its connection URL.
func (s *Suite) Postgres(ctx context.Context) (*pgxpool.Pool, string) {
	s.Helper()

	resource := s.run(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_PASSWORD=" + postgresPassword,
			"POSTGRES_DB=" + postgresDB,
		},
	})
	url := fmt.Sprintf("postgres://postgres:%s@%s/%s?sslmode=disable",
		postgresPassword, resource.GetHostPort(postgresPort), postgresDB)

	var pool *pgxpool.Pool
	if err := s.pool.Retry(func() error {
		p, err := pgxpool.New(ctx, url)
		if err != nil {
			return err
		}
		if err := p.Ping(ctx); err != nil {
			p.Close()
			return err
		}
		pool = p
		return nil
	}); err != nil {
		s.Fatalf("could not connect to postgres: %v", err)
	}
	s.Cleanup(pool.Close)
	return pool, url
}
