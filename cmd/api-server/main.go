package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"watchplan/internal/admin"
	"watchplan/internal/audit"
	"watchplan/internal/auth"
	"watchplan/internal/catalog"
	"watchplan/internal/feed"
	"watchplan/internal/progress"
	"watchplan/internal/reviews"
	"watchplan/internal/social"
	"watchplan/internal/watchlist"
	"watchplan/pkg/database"
	"watchplan/pkg/utils"
)

func main() {
	cfg, err := utils.Load()
	if err != nil {
		log.Fatalf("load config failed: %v", err)
	}

	dbCfg := database.Config{Path: cfg.Database.Path}
	db := database.MustOpen(dbCfg)
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatalf("db migrate failed: %v", err)
	}

	manager := database.NewManager(dbCfg)
	defer manager.Close()

	router := gin.Default()
	_ = router.SetTrustedProxies([]string{"127.0.0.1"})

	// Start the feed TCP server first (so binding errors surface early)
	hub := feed.NewHub()
	router.GET("/feed/ws", feed.WSHandler(hub))
	tcpSrv := feed.NewServer(cfg.FeedAddr, hub)

	recorder := audit.NewRecorder(db)
	recorder.Publisher = hub

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": cfg.Database.Path})
	})

	router.GET("/ready", func(c *gin.Context) {
		stats := hub.Stats()
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		if _, err := manager.Acquire(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":      "not_ready",
				"db_error":    err.Error(),
				"tcp_clients": stats.TCPClients,
				"ws_clients":  stats.WSClients,
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":      "ready",
			"db":          "ok",
			"tcp_clients": stats.TCPClients,
			"ws_clients":  stats.WSClients,
		})
	})

	// Catalog (public)
	catalogRepo := catalog.NewRepo(db)
	catalogHandler := catalog.NewHandler(catalogRepo)
	catalogHandler.RegisterRoutes(router)

	// Auth
	tokenSvc := auth.TokenService{
		Secret:   []byte(cfg.Auth.JWTSecret),
		Issuer:   cfg.Auth.JWTIssuer,
		Duration: cfg.Auth.JWTDuration,
	}
	authRepo := auth.NewRepo(db)
	authHandler := auth.NewHandler(authRepo, tokenSvc)
	authHandler.RegisterRoutes(router.Group("/auth"))

	// Reviews are readable without a token
	reviewsRepo := reviews.NewRepo(db)
	reviewsHandler := reviews.NewHandler(reviewsRepo, recorder)
	reviewsHandler.RegisterPublicRoutes(router.Group(""))

	// Protected routes
	protected := router.Group("/users")
	protected.Use(auth.AuthMiddleware(tokenSvc, authRepo))

	protected.GET("/me", func(c *gin.Context) {
		claims := auth.MustGetClaims(c)
		c.JSON(http.StatusOK, gin.H{
			"username": claims.Username,
			"role":     claims.Role,
		})
	})

	watchlistHandler := watchlist.NewHandler(watchlist.NewRepo(db), recorder)
	watchlistHandler.RegisterRoutes(protected)

	progressHandler := progress.NewHandler(progress.NewRepo(db), recorder)
	progressHandler.RegisterRoutes(protected)

	reviewsHandler.RegisterProtectedRoutes(protected)

	socialHandler := social.NewHandler(social.NewRepo(db), authRepo, recorder)
	socialHandler.RegisterRoutes(protected)

	// Admin editor and activity log, role gated
	adminGroup := router.Group("/admin")
	adminGroup.Use(auth.AuthMiddleware(tokenSvc, authRepo), auth.RequireRole("admin", "moderator"))

	registry := admin.DefaultRegistry()
	editor := admin.NewEditor(db, registry, recorder)
	adminHandler := admin.NewHandler(editor, recorder)
	adminHandler.RegisterRoutes(adminGroup)

	httpSrv := &http.Server{
		Addr:    cfg.ServerAddr,
		Handler: router,
	}

	errCh := make(chan error, 2)
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tcpSrv.Run(); err != nil {
			errCh <- err
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP API server listening on %s", cfg.ServerAddr)
		if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Printf("server error: %v", err)
	}

	log.Println("shutting down servers")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown error: %v", err)
	}
	if err := tcpSrv.Close(); err != nil {
		log.Printf("tcp shutdown error: %v", err)
	}

	wg.Wait()
	log.Println("servers stopped")
}
