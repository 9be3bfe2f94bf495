package main

import (
	"context"
	"flag"
	"net/http"
	"time"

	"github.com/99designs/gqlgen/graphql/handler"
	"github.com/99designs/gqlgen/graphql/handler/transport"
	"github.com/99designs/gqlgen/graphql/playground"
	"github.com/UkralStul/graphql-timeline-service/graph"
	"github.com/UkralStul/graphql-timeline-service/graph/generated"
	"github.com/UkralStul/graphql-timeline-service/internal/config"
	"github.com/UkralStul/graphql-timeline-service/internal/dataloader"
	"github.com/UkralStul/graphql-timeline-service/internal/domain"
	"github.com/UkralStul/graphql-timeline-service/internal/logger"
	"github.com/UkralStul/graphql-timeline-service/internal/storage"
	"github.com/UkralStul/graphql-timeline-service/internal/storage/inmemory"
	"github.com/UkralStul/graphql-timeline-service/internal/storage/postgres"
	"github.com/UkralStul/graphql-timeline-service/internal/visibility"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
)

func main() {
	cfg := config.Load()

	storageType := flag.String("storage", "in-memory", "Storage type (in-memory or postgres)")
	flag.Parse()

	var store storage.Storage
	var err error

	logger.Log.Infof("Starting server with %s storage", *storageType)
	if *storageType == "postgres" {
		if cfg.DatabaseURL == "" {
			logger.Log.Fatal("DATABASE_URL must be set for postgres storage")
		}
		store, err = postgres.New(cfg.DatabaseURL)
		if err != nil {
			logger.Log.Fatalf("failed to connect to postgres: %v", err)
		}
	} else {
		store = inmemory.New()
		// Заполним данными для тестов
		fillWithMockData(store)
	}

	router := chi.NewRouter()
	router.Use(middleware.Logger)
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)

	resolver := &graph.Resolver{
		Storage:  store,
		Engine:   visibility.NewEngine(store),
		Guard:    visibility.NewGuard(store),
		Observer: graph.NewPostObserver(),
	}
	schema := generated.NewExecutableSchema(generated.Config{Resolvers: resolver})

	srv := handler.NewDefaultServer(schema)
	srv.AddTransport(&transport.Websocket{
		Upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		KeepAlivePingInterval: 10 * time.Second,
	})

	router.Handle("/", playground.Handler("GraphQL playground", "/query"))
	router.Handle("/query", dataloader.Middleware(store, srv))

	logger.Log.Infof("connect to http://localhost:%s/ for GraphQL playground", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		logger.Log.Fatalf("server failed to start: %v", err)
	}
}

func fillWithMockData(s storage.Storage) {
	ctx := context.Background()

	// 1. Premium автор с закрытым контентом.
	alice, err := s.CreateUser(ctx, &domain.User{
		Username:    "alice",
		Email:       "alice@example.com",
		DisplayName: "Alice",
		UserType:    domain.UserTypePremium,
	})
	if err != nil {
		logger.Log.Fatalf("fillWithMockData: failed to create premium user: %v", err)
	}

	// 2. Обычный пользователь, увидит тизер закрытого поста.
	bob, err := s.CreateUser(ctx, &domain.User{
		Username:    "bob",
		Email:       "bob@example.com",
		DisplayName: "Bob",
		UserType:    domain.UserTypeNormal,
	})
	if err != nil {
		logger.Log.Fatalf("fillWithMockData: failed to create normal user: %v", err)
	}

	// 3. Публичный пост.
	public, err := s.CreatePost(ctx, &domain.Post{
		Content:  "Hello from the public timeline!",
		AuthorID: alice.ID,
	})
	if err != nil {
		logger.Log.Fatalf("fillWithMockData: failed to create public post: %v", err)
	}

	// 4. Закрытый пост: подписчики Alice видят целиком, остальные - тизер.
	gated, err := s.CreatePost(ctx, &domain.Post{
		Content:           "Subscriber-only deep dive into the timeline engine internals.",
		IsSubscribersOnly: true,
		AuthorID:          alice.ID,
	})
	if err != nil {
		logger.Log.Fatalf("fillWithMockData: failed to create gated post: %v", err)
	}

	// 5. Немного активности вокруг публичного поста.
	if err := s.CreateLike(ctx, bob.ID, public.ID); err != nil {
		logger.Log.Fatalf("fillWithMockData: failed to like post: %v", err)
	}
	_, err = s.CreateComment(ctx, &domain.Comment{
		Content: "Great post!",
		UserID:  bob.ID,
		PostID:  public.ID,
	})
	if err != nil {
		logger.Log.Fatalf("fillWithMockData: failed to comment: %v", err)
	}

	logger.Log.Infof("Mock data filled successfully. Public post ID: %s, gated post ID: %s", public.ID, gated.ID)
}
