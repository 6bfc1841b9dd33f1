package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"tasque/internal/config"
	"tasque/internal/handlers"
	"tasque/internal/logger"
	"tasque/internal/middleware"
	repo "tasque/internal/repository"
	"tasque/internal/repository/inmemory"
	"tasque/internal/repository/postgres"
	"tasque/internal/repository/sqlite"
	"tasque/internal/service"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const serviceName = "tasque"

type App struct {
	config *config.Config
	server *http.Server
	router chi.Router
	store  repo.Store

	Tasks *service.TaskService
	Tags  *service.TagService
	Queue *service.QueueService
}

func New(cfg *config.Config) *App {
	return &App{config: cfg}
}

// Init поднимает логгер, хранилище со схемой, сервисы и роутер
func (a *App) Init(ctx context.Context) error {
	if err := logger.Init(a.config.Logging.Development); err != nil {
		return fmt.Errorf("инициализация логгера: %w", err)
	}

	store, err := OpenStore(ctx, a.config)
	if err != nil {
		return err
	}
	a.store = store

	a.Tasks = service.NewTaskService(store)
	a.Tags = service.NewTagService(store)
	a.Queue = service.NewQueueService(store)

	a.router = a.newRouter()
	a.server = &http.Server{
		Addr:              a.config.GetServerAddr(),
		Handler:           a.router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       time.Minute,
	}
	return nil
}

// OpenStore выбирает хранилище по repository.type. Схема sqlite и postgres
// доводится до последней версии.
func OpenStore(ctx context.Context, cfg *config.Config) (repo.Store, error) {
	logger.Info("Repository: Открытие хранилища", zap.String("type", cfg.Repository.Type))

	switch cfg.Repository.Type {
	case config.RepositorySQLite:
		store, err := sqlite.Open(ctx, cfg.SQLite.Path)
		if err != nil {
			return nil, fmt.Errorf("открытие sqlite: %w", err)
		}
		return store, nil
	case config.RepositoryPostgres:
		if err := postgres.Migrate(cfg.Database.URL); err != nil {
			return nil, fmt.Errorf("миграции postgres: %w", err)
		}
		store, err := postgres.New(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("подключение к postgres: %w", err)
		}
		return store, nil
	case config.RepositoryInMemory:
		return inmemory.New(), nil
	default:
		return nil, fmt.Errorf("неизвестный тип репозитория %q", cfg.Repository.Type)
	}
}

func (a *App) newRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Tracing(serviceName))
	r.Use(middleware.Logging)
	r.Use(middleware.CORS(a.config.Server.AllowedOrigins))
	r.Use(middleware.RateLimit(a.config.Server.RateLimit))
	r.NotFound(handlers.NotFound)

	handlers.Routes(r,
		handlers.NewTaskHandler(a.Tasks),
		handlers.NewTagHandler(a.Tags),
		handlers.NewQueueHandler(a.Queue))

	return r
}

func (a *App) Handler() http.Handler {
	return a.router
}

// Run слушает порт до сигнала остановки и возвращает код выхода
func (a *App) Run() int {
	listener, err := net.Listen("tcp", a.server.Addr)
	if err != nil {
		logger.Error("HTTP: Не удалось занять адрес", err, zap.String("addr", a.server.Addr))
		a.closeStore()
		return 1
	}

	go func() {
		logger.Info("Server started", zap.String("addr", listener.Addr().String()))
		if err := a.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP: Сервер остановился с ошибкой", err)
		}
	}()

	wait := gfshutdown.GracefulShutdown(context.Background(), a.config.Server.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			// порядок важен: сначала дожидаемся запросов, потом закрываем хранилище
			serviceName: func(ctx context.Context) error {
				logger.Info("Завершение работы HTTP сервера...")
				shutdownErr := a.server.Shutdown(ctx)
				storeErr := a.closeStore()
				logger.Info("Завершение работы логгирования...")
				logger.Sync()
				return errors.Join(shutdownErr, storeErr)
			},
		})

	return <-wait
}

func (a *App) closeStore() error {
	if a.store == nil {
		return nil
	}
	if err := a.store.Close(); err != nil {
		logger.Error("Repository: Ошибка закрытия хранилища", err)
		return err
	}
	return nil
}
