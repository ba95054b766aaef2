package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/oakline/storefront/app/auth"
	"github.com/oakline/storefront/app/cart"
	"github.com/oakline/storefront/app/catalog"
	"github.com/oakline/storefront/app/categories"
	"github.com/oakline/storefront/app/checkout"
	"github.com/oakline/storefront/app/dashboard"
	"github.com/oakline/storefront/app/orders"
	"github.com/oakline/storefront/app/reviews"
	"github.com/oakline/storefront/app/users"
	"github.com/oakline/storefront/config"
	"github.com/oakline/storefront/logger"
	"github.com/oakline/storefront/middleware"
	"github.com/oakline/storefront/models"
	"github.com/oakline/storefront/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Env)
	if err != nil {
		os.Stderr.WriteString("logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := db.AutoMigrate(
		&models.Category{},
		&models.Product{},
		&models.User{},
		&models.Cart{},
		&models.CartItem{},
		&models.Order{},
		&models.OrderDetail{},
		&models.Review{},
	); err != nil {
		log.Fatal("migration failed", zap.Error(err))
	}

	usersRepo := models.NewUsersRepository(db)
	if err := bootstrapAdmin(usersRepo, cfg, log); err != nil {
		log.Fatal("admin bootstrap failed", zap.Error(err))
	}

	productsRepo := models.NewProductsRepository(db)
	categoriesRepo := models.NewCategoriesRepository(db)
	reviewsRepo := models.NewReviewsRepository(db)
	statsRepo := models.NewStatsRepository(db)
	store := storage.NewGormStore(db)

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	authHandler := auth.NewHandler(usersRepo, tokens)
	catalogHandler := catalog.NewCatalogHandler(productsRepo)
	categoryHandler := categories.NewCategoryHandler(categoriesRepo)
	cartHandler := cart.NewHandler(cart.NewService(store), log)
	checkoutHandler := checkout.NewHandler(checkout.NewPlacer(store), log)
	ordersHandler := orders.NewHandler(store, orders.NewLifecycle(store), log)
	reviewsHandler := reviews.NewHandler(reviewsRepo, productsRepo)
	usersHandler := users.NewHandler(usersRepo)
	dashboardHandler := dashboard.NewHandler(statsRepo)

	mux := http.NewServeMux()

	mux.HandleFunc("POST /auth/register", authHandler.HandleRegister)
	mux.HandleFunc("POST /auth/login", authHandler.HandleLogin)

	mux.HandleFunc("GET /catalog", catalogHandler.HandleGet)
	mux.HandleFunc("GET /catalog/{id}", catalogHandler.HandleGetProduct)
	mux.HandleFunc("POST /catalog", auth.RequireAdmin(tokens, catalogHandler.HandleCreate))
	mux.HandleFunc("PUT /catalog/{id}", auth.RequireAdmin(tokens, catalogHandler.HandleUpdate))
	mux.HandleFunc("DELETE /catalog/{id}", auth.RequireAdmin(tokens, catalogHandler.HandleDelete))

	mux.HandleFunc("GET /categories", categoryHandler.HandleGetAll)
	mux.HandleFunc("POST /categories", auth.RequireAdmin(tokens, categoryHandler.HandleCreate))
	mux.HandleFunc("PUT /categories/{id}", auth.RequireAdmin(tokens, categoryHandler.HandleUpdate))
	mux.HandleFunc("DELETE /categories/{id}", auth.RequireAdmin(tokens, categoryHandler.HandleDelete))

	mux.HandleFunc("GET /cart", auth.RequireAuth(tokens, cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", auth.RequireAuth(tokens, cartHandler.HandleAdd))
	mux.HandleFunc("PUT /cart/items/{productId}", auth.RequireAuth(tokens, cartHandler.HandleUpdateQuantity))
	mux.HandleFunc("DELETE /cart/items/{productId}", auth.RequireAuth(tokens, cartHandler.HandleRemove))
	mux.HandleFunc("DELETE /cart", auth.RequireAuth(tokens, cartHandler.HandleClear))

	mux.HandleFunc("POST /checkout/place-order", auth.RequireAuth(tokens, checkoutHandler.HandlePlaceOrder))

	mux.HandleFunc("GET /orders", auth.RequireAuth(tokens, ordersHandler.HandleList))
	mux.HandleFunc("GET /orders/{orderId}", auth.RequireAuth(tokens, ordersHandler.HandleGet))

	mux.HandleFunc("GET /products/{id}/reviews", reviewsHandler.HandleList)
	mux.HandleFunc("POST /products/{id}/reviews", auth.RequireAuth(tokens, reviewsHandler.HandleCreate))

	mux.HandleFunc("GET /admin/orders", auth.RequireAdmin(tokens, ordersHandler.HandleAdminList))
	mux.HandleFunc("POST /admin/orders/{orderId}/status", auth.RequireAdmin(tokens, ordersHandler.HandleUpdateStatus))
	mux.HandleFunc("GET /admin/users", auth.RequireAdmin(tokens, usersHandler.HandleList))
	mux.HandleFunc("GET /admin/users/{id}", auth.RequireAdmin(tokens, usersHandler.HandleGet))
	mux.HandleFunc("POST /admin/users", auth.RequireAdmin(tokens, usersHandler.HandleCreate))
	mux.HandleFunc("PUT /admin/users/{id}", auth.RequireAdmin(tokens, usersHandler.HandleUpdate))
	mux.HandleFunc("DELETE /admin/users/{id}", auth.RequireAdmin(tokens, usersHandler.HandleDelete))
	mux.HandleFunc("GET /admin/dashboard", auth.RequireAdmin(tokens, dashboardHandler.HandleGet))

	handler := middleware.RequestID(middleware.RequestLogger(log, mux))

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("server listening", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

// bootstrapAdmin creates the initial admin account on an empty user table so
// a fresh deployment can be administered without touching the database.
func bootstrapAdmin(repo *models.UsersRepository, cfg *config.Config, log *zap.Logger) error {
	count, err := repo.CountUsers()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.AdminPassword == "" {
		log.Warn("no users exist and ADMIN_PASSWORD is unset, skipping admin bootstrap")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	admin := &models.User{
		Username: "admin",
		Email:    cfg.AdminEmail,
		Password: string(hash),
		Role:     models.RoleAdmin,
	}
	if err := repo.CreateUser(admin); err != nil {
		return err
	}
	log.Info("created bootstrap admin", zap.String("email", cfg.AdminEmail))
	return nil
}
