package myhttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"employee-portal/internal/auth-service/adapters/driven/db"
	"employee-portal/internal/auth-service/adapters/driven/mail"
	"employee-portal/internal/auth-service/adapters/driven/media"
	"employee-portal/internal/auth-service/adapters/driver/myhttp/handle"
	"employee-portal/internal/auth-service/adapters/driver/myhttp/middleware"
	"employee-portal/internal/auth-service/core/domain/models"
	"employee-portal/internal/auth-service/core/ports/driven"
	"employee-portal/internal/auth-service/core/service"
	"employee-portal/internal/config"
	"employee-portal/internal/mylogger"
)

const WaitTime = 10

type Server struct {
	mux       *http.ServeMux
	cfg       *config.Config
	srv       *http.Server
	mylog     mylogger.Logger
	db        *db.DB
	mailQueue driven.IMailQueue
	ctx       context.Context
	appCtx    context.Context
	mu        sync.Mutex
	wg        sync.WaitGroup
}

func NewServer(ctx, appCtx context.Context, mylog mylogger.Logger, cfg *config.Config) *Server {
	s := &Server{
		ctx:    ctx,
		appCtx: appCtx,
		cfg:    cfg,
		mylog:  mylog,
		mux:    http.NewServeMux(),
	}

	return s
}

// Run initializes adapters and routes and starts listening. It returns
// when the server stops.
func (s *Server) Run() error {
	mylog := s.mylog.Action("server_started")

	database, err := db.New(s.ctx, &s.cfg.DB, mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	s.db = database
	mylog.Info("Successful database connection")

	if err := database.RunMigrations(s.ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	mailQueue, err := mail.New(s.appCtx, s.cfg.RabbitMq, s.mylog)
	if err != nil {
		return fmt.Errorf("failed to connect to rabbitmq: %w", err)
	}
	s.mailQueue = mailQueue
	mylog.Info("Successful message broker connection")

	mediaStore, err := media.NewS3Store(s.ctx, s.cfg.Media)
	if err != nil {
		return fmt.Errorf("failed to init media store: %w", err)
	}

	sender, err := mail.NewPostmarkSender(s.cfg.Mail)
	if err != nil {
		return fmt.Errorf("failed to init mail sender: %w", err)
	}

	if err := s.Configure(mediaStore, sender); err != nil {
		return fmt.Errorf("failed to configure server: %w", err)
	}

	s.mu.Lock()
	s.srv = &http.Server{
		Addr:    fmt.Sprintf(":%v", s.cfg.Srv.AuthServicePort),
		Handler: s.mux,
	}
	s.mu.Unlock()

	mylog = mylog.WithGroup("details").With("port", s.cfg.Srv.AuthServicePort)

	mylog.Info("server is running")
	return s.startHTTPServer()
}

// Stop provides a programmatic shutdown. Accepts a context for timeout control.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.mylog.Info("Shutting down HTTP server...")

	// Closing the queue ends the worker's jobs stream. The close must
	// happen before the wait: the worker has no other exit path, so the
	// reverse order never returns.
	if s.mailQueue != nil {
		if err := s.mailQueue.Close(); err != nil {
			s.mylog.Error("Failed to close message broker", err)
		}
	}

	s.wg.Wait()

	if s.srv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, WaitTime*time.Second)
		defer cancel()

		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.mylog.Error("Failed to shut down HTTP server gracefully", err)
			return fmt.Errorf("http server shutdown: %w", err)
		}
	}

	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.mylog.Error("Failed to close database", err)
			return fmt.Errorf("db close: %w", err)
		}
		s.mylog.Info("Database closed")
	}

	s.mylog.Info("HTTP server shut down gracefully")
	return nil
}

func (s *Server) startHTTPServer() error {
	errCh := make(chan error, 1)

	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		} else {
			errCh <- nil
		}
	}()

	select {
	case <-s.ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}

// Configure wires repositories, services, the mail worker and routes.
func (s *Server) Configure(mediaStore *media.S3Store, sender *mail.PostmarkSender) error {
	// Repositories
	userRepo := db.NewUserRepo(s.db)

	// Services
	authService := service.NewAuthService(s.appCtx, s.cfg, userRepo, s.mailQueue, mediaStore, s.mylog)

	// Mail delivery worker, decoupled from the registration path
	worker := mail.NewWorker(s.appCtx, &s.wg, s.mylog, s.mailQueue, sender)
	if err := worker.Start(); err != nil {
		return fmt.Errorf("failed to start mail worker: %w", err)
	}

	// Handlers
	authHandler := handle.NewAuthHandler(authService, s.mylog)
	authMiddleware := middleware.NewAuthMiddleware(authService.Sessions(), s.mylog)

	// Routes
	s.mux.Handle("POST /api/auth/register", authHandler.Register())
	s.mux.Handle("GET /api/auth/verify-email", authHandler.VerifyEmail())
	s.mux.Handle("POST /api/auth/login", authHandler.Login())
	s.mux.Handle("POST /api/auth/logout", authHandler.Logout())

	s.mux.Handle("GET /api/auth/profile",
		authMiddleware.Authenticate(authHandler.Profile()))
	s.mux.Handle("PATCH /api/auth/updateProfile/{id}",
		authMiddleware.Authenticate(
			authMiddleware.Authorize(models.RoleAdmin, models.RoleUser)(authHandler.UpdateProfile())))

	return nil
}
