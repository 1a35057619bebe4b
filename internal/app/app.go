// Package app wires configuration, storage and transports into a runnable service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"todoManagement/internal/auth"
	"todoManagement/internal/config"
	"todoManagement/internal/db"
	grpcserver "todoManagement/internal/grpc"
	"todoManagement/internal/httpapi"
	"todoManagement/internal/mail"
	"todoManagement/models"
	"todoManagement/repository"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	cfg    *config.Config
	log    *slog.Logger
	db     *db.DB
	users  *repository.UserRepository
	codec  *auth.Codec
	guard  *auth.Guard
	server *httpapi.Server
}

// New opens the database, builds every component and makes sure an admin
// account exists. Nothing listens until Run is called.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	d, err := db.Open(cfg.Database.Driver, cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	codec, err := auth.NewCodec(cfg.Auth)
	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("create token codec: %w", err)
	}
	users := repository.NewUserRepository(d)
	todos := repository.NewTodoRepository(d)
	hasher := auth.NewHasher(cfg.Auth.BcryptCost)
	guard := auth.NewGuard(codec, users)

	if err := ensureDefaultAdmin(context.Background(), cfg, logger, users, hasher); err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	handler := httpapi.NewRouter(httpapi.Deps{
		Config: cfg,
		Logger: logger,
		Users:  users,
		Todos:  todos,
		Hasher: hasher,
		Codec:  codec,
		Guard:  guard,
		Mail:   mail.NewLogSender(logger),
	})

	return &App{
		cfg:    cfg,
		log:    logger,
		db:     d,
		users:  users,
		codec:  codec,
		guard:  guard,
		server: httpapi.New(cfg.HTTP, handler),
	}, nil
}

// ensureDefaultAdmin creates the bootstrap admin when no admin exists yet.
func ensureDefaultAdmin(ctx context.Context, cfg *config.Config, logger *slog.Logger, users repository.UserRepositoryI, hasher *auth.Hasher) error {
	n, err := users.CountAdmins(ctx)
	if err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := hasher.Hash(cfg.Bootstrap.AdminPassword)
	if err != nil {
		return err
	}
	fullName := "System Administrator"
	_, err = users.Create(ctx, &models.User{
		Email:        cfg.Bootstrap.AdminEmail,
		Username:     cfg.Bootstrap.AdminUsername,
		FullName:     &fullName,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		IsActive:     true,
		IsVerified:   true,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		logger.Warn("bootstrap admin not created, username or email already taken", "username", cfg.Bootstrap.AdminUsername)
		return nil
	}
	if err != nil {
		return err
	}
	logger.Info("default admin user created", "username", cfg.Bootstrap.AdminUsername)
	if cfg.UsesDefaultAdminPassword() {
		logger.Warn("default admin password in use, change it immediately", "username", cfg.Bootstrap.AdminUsername)
	}
	return nil
}

// Run serves HTTP and gRPC until ctx is cancelled or a server fails.
func (a *App) Run(ctx context.Context) error {
	defer func() { _ = a.db.Close() }()

	stopGRPC, err := grpcserver.StartGRPC(a.cfg, a.guard, a.codec, a.users)
	if err != nil {
		return fmt.Errorf("start grpc: %w", err)
	}
	a.log.Info("grpc server listening", "addr", a.cfg.GRPC.Address)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("http server starting", "addr", a.server.Addr())
		errCh <- a.server.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server exited: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown http server: %w", err)
	}
	if err := stopGRPC(shutdownCtx); err != nil && runErr == nil {
		runErr = fmt.Errorf("shutdown grpc server: %w", err)
	}
	return runErr
}
