package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	html "github.com/gofiber/template/html/v2"

	"shopadmin/internal/backend"
	"shopadmin/internal/cache"
	"shopadmin/internal/config"
	"shopadmin/internal/csvpreview"
	"shopadmin/internal/gate"
	"shopadmin/internal/http/handlers"
	"shopadmin/internal/jobs"
	applog "shopadmin/internal/log"
	"shopadmin/internal/productform"
	"shopadmin/internal/repos"
	"shopadmin/internal/services"
	"shopadmin/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		lg := applog.Component("main")
		lg.Fatal().Err(err).Msg("load config")
	}

	// Optional file logging
	var out io.Writer = os.Stdout
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			lg := applog.Component("main")
			lg.Warn().Err(err).Str("file", cfg.LogFile).Msg("could not open log file")
		} else {
			defer f.Close()
			out = io.MultiWriter(os.Stdout, f)
		}
	}
	applog.Setup(cfg.Env, out)
	lg := applog.Component("main")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---------- Client storage ----------
	var store session.Store
	var sweeps []jobs.Sweep
	switch cfg.StorageDriver {
	case "memory":
		store = session.NewMemoryStore()
	case "redis":
		rdb, err := cache.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			lg.Fatal().Err(err).Msg("connect redis")
		}
		defer rdb.Close()
		// keys expire on their own
		store = cache.NewRedisStore(rdb, cfg.StorageTTL)
	default:
		db, err := repos.OpenDB(cfg.DBDSN)
		if err != nil {
			lg.Fatal().Err(err).Msg("open database")
		}
		defer db.Close()
		repo := repos.NewClientStorageRepo(db)
		store = repo
		sweeps = append(sweeps, jobs.Sweep{Name: "client_storage", MaxIdle: cfg.StorageTTL, Run: repo.PurgeIdle})
	}

	// ---------- Services ----------
	api := backend.New(cfg.BackendURL, cfg.RequestTimeout, backend.WithTokenHeader(cfg.TokenHeader))
	catalog := services.NewCatalogService(api)
	tracker := csvpreview.NewTracker()
	imports := services.NewImportService(api, tracker)

	var auth *services.AuthService
	loc := cfg.Location()
	forms := productform.NewRegistry(func(clientID string, mode productform.Mode) *productform.Form {
		fb := services.FormBackend{
			Catalog: catalog,
			Token:   func(ctx context.Context) (string, error) { return auth.Token(ctx, clientID) },
		}
		return productform.New(mode, fb, fb, loc)
	})
	auth = services.NewAuthService(api, store, forms, tracker)

	sweeps = append(sweeps,
		jobs.InMemory("product_forms", cfg.FormIdle, forms.PurgeIdle),
		jobs.InMemory("csv_selections", cfg.FormIdle, tracker.PurgeIdle),
	)
	sched := jobs.NewScheduler(cfg.SweepSchedule, applog.Component("jobs"), sweeps...)
	if err := sched.Start(); err != nil {
		lg.Fatal().Err(err).Str("schedule", cfg.SweepSchedule).Msg("start scheduler")
	}
	defer sched.Stop()

	g, err := gate.New(gate.DefaultPublicPaths, cfg.GateRoutes)
	if err != nil {
		lg.Fatal().Err(err).Msg("build route gate")
	}

	ck := handlers.Cookies{Session: cfg.SessionCookie, Client: cfg.ClientCookie, Secure: cfg.Env == "production"}
	deps := handlers.NewDeps(auth, catalog, forms, imports, ck, int64(cfg.MaxUploadBytes))

	// Templates & app
	engine := html.New(cfg.TemplatesDir, ".html")
	engine.Reload(cfg.Env != "production")

	app := fiber.New(fiber.Config{
		Views:        engine,
		Immutable:    true,
		BodyLimit:    cfg.MaxUploadBytes,
		ErrorHandler: handlers.ErrorHandler,
	})

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New(logger.Config{Output: out}))
	app.Use(helmet.New())
	app.Use(handlers.ClientID(ck))
	app.Use(handlers.RouteGate(g, ck))
	app.Use(handlers.LoadUser(auth))
	app.Use(limiter.New(limiter.Config{
		Max:        120,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return strings.HasPrefix(c.Path(), "/static/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   ck.Secure,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Security(c, "csrf.fail", map[string]any{"err": err.Error()})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Security check failed. Please refresh and try again."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok, ok := c.Locals("csrf").(string); ok {
			c.Locals("CSRFToken", tok)
		}
		return c.Next()
	})

	app.Static("/static", cfg.StaticDir)

	// Auth routes (login throttled)
	app.Get("/login", deps.AuthHandler.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Too many attempts. Please try again later."})
		},
	}), deps.AuthHandler.Login)
	app.Post("/logout", deps.AuthHandler.Logout)
	app.Get("/signup", handlers.Placeholder("Sign up"))
	app.Get("/verifyemail", handlers.Placeholder("Verify email"))
	app.Get("/profile", handlers.Placeholder("Profile"))

	// Dashboard
	app.Get("/", deps.DashboardHandler.Home)
	app.Get("/get-products", deps.ProductHandler.List)
	app.Post("/delete-product/:productId", deps.ProductHandler.Delete)
	app.Get("/add-to-product", deps.ProductHandler.NewForm)
	app.Post("/add-to-product", deps.ProductHandler.Create)
	app.Get("/update-product/:productId", deps.ProductHandler.EditForm)
	app.Post("/update-product/:productId", deps.ProductHandler.Update)

	importGuard := func(c *fiber.Ctx) error { return c.Next() }
	if cfg.ImportAdminOnly {
		importGuard = handlers.RequireAdmin(auth)
	}
	app.Get("/upload-product-by-csv", importGuard, deps.ImportHandler.Page)
	app.Post("/upload-product-by-csv", importGuard, deps.ImportHandler.Submit)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).Render("notfound", fiber.Map{"Message": "Page not found"})
	})

	go func() {
		<-ctx.Done()
		_ = app.ShutdownWithTimeout(10 * time.Second)
	}()

	lg.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("listening")
	if err := app.Listen(":" + cfg.Port); err != nil {
		lg.Error().Err(err).Msg("server stopped")
	}
}
