package container

import (
	"context"
	"fmt"

	"zbozi/categories/internal/client"
	"zbozi/categories/internal/config"
	"zbozi/categories/internal/proxy"
	"zbozi/categories/internal/repository"
	"zbozi/categories/internal/service"
	"zbozi/categories/internal/source"

	log "github.com/sirupsen/logrus"
)

// Container holds all initialized components
type Container struct {
	Config     *config.Config
	Client     client.ZboziClient
	Resolver   source.Resolver
	Repository repository.ResultRepository

	Service *service.Service
}

// New creates a new container with all dependencies initialized
func New(cfg *config.Config) (*Container, error) {
	container := &Container{
		Config: cfg,
	}

	logger := log.StandardLogger()

	proxySupplier := proxy.NewSupplier(context.Background(), cfg.Parameters.Proxies, cfg.Parameters.APIURL)

	zboziClient := client.NewZboziClient(cfg.Parameters, proxySupplier)
	container.Client = zboziClient

	switch cfg.Parameters.Source {
	case config.SourceFile:
		container.Resolver = source.NewFileResolver(cfg.InputPath(), logger)
	case config.SourceTree:
		container.Resolver = source.NewTreeResolver(zboziClient, logger)
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Parameters.Source)
	}

	repo, err := repository.CreateResultRepository(cfg.OutputPath())
	if err != nil {
		return nil, err
	}
	container.Repository = repo

	container.Service = service.NewService(
		container.Resolver,
		zboziClient,
		repo,
		cfg.Parameters.ChunkSize,
		cfg.Parameters.SleepTime,
		logger,
	)

	return container, nil
}

// Run resolves all categories and writes the result table
func (c *Container) Run(ctx context.Context) error {
	log.Infof("🔄 Resolving categories from %s source", c.Config.Parameters.Source)

	summary, err := c.Service.Run(ctx)
	if err != nil {
		return err
	}

	log.Infof("✅ Result table written to %s (%d rows)", c.Config.OutputPath(), summary.Rows)
	return nil
}

// Close performs cleanup when shutting down
func (c *Container) Close() error {
	log.Debug("Shutting down container...")

	if err := c.Repository.Close(); err != nil {
		return fmt.Errorf("failed to close result table: %w", err)
	}

	return nil
}
