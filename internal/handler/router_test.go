package handler

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/menagerie/menagerie/internal/auth"
	"github.com/menagerie/menagerie/internal/middleware"
	"github.com/menagerie/menagerie/internal/service"
	"github.com/menagerie/menagerie/internal/testutil"
)

const testAdminSecret = "test-admin-secret"

type testEnv struct {
	router  chi.Router
	animals *testutil.AnimalStore
	auth    *service.AuthService
}

// newTestEnv wires the full route table against in-memory fakes,
// mirroring the production router.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	animalStore := testutil.NewAnimalStore()
	animalSvc := service.NewAnimalService(animalStore)

	issuer, err := auth.NewTokenIssuer("test-secret", "HS256", 30*time.Minute)
	if err != nil {
		t.Fatalf("NewTokenIssuer failed: %v", err)
	}
	authSvc := service.NewAuthService(service.AuthConfig{
		Issuer:        issuer,
		Username:      "admin",
		Password:      "password",
		Keys:          testutil.NewKeyStore(),
		Cache:         testutil.NewVerdictCache(),
		KeyDefaultTTL: 360 * time.Hour,
	})

	animalHandler := NewAnimalHandler(animalSvc, logger)
	authHandler := NewAuthHandler(authSvc, logger)
	indexHandler := NewIndexHandler(animalSvc, logger)

	r := chi.NewRouter()
	r.NotFound(NotFound)
	r.MethodNotAllowed(MethodNotAllowed)

	r.Get("/", indexHandler.Index)
	r.Post("/token/", authHandler.Token)
	r.Post("/animals/", animalHandler.Create)
	r.Get("/animals/", animalHandler.List)
	r.Put("/animals/{id}", animalHandler.Update)
	r.Delete("/animals/{id}", animalHandler.Delete)
	r.Post("/upsert/", animalHandler.Upsert)

	r.Group(func(r chi.Router) {
		r.Use(middleware.APIKeyGate(authSvc, logger))
		r.Get("/secure-data/", authHandler.SecureData)
	})

	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.RequireAdminSecret(testAdminSecret, logger))
		r.Post("/keys", authHandler.CreateKey)
		r.Get("/keys", authHandler.ListKeys)
		r.Delete("/keys/{id}", authHandler.RevokeKey)
		r.Post("/keys/{id}/renew", authHandler.RenewKey)
	})

	return &testEnv{
		router:  r,
		animals: animalStore,
		auth:    authSvc,
	}
}
