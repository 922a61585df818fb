package main

import (
	"io"
	"log"
	"os"
	"os/signal"
	"path/filepath"
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

	"glowshop/internal/cache"
	"glowshop/internal/config"
	"glowshop/internal/http/handlers"
	applog "glowshop/internal/log"
	"glowshop/internal/repos"
	"glowshop/internal/services"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			mw := io.MultiWriter(os.Stdout, f)
			log.SetOutput(mw)
		}
	}

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	// Auth wiring
	userRepo := repos.NewUserRepo(db)
	authSvc := &services.AuthService{Users: userRepo}
	authH := &handlers.AuthHandler{Auth: authSvc}

	// Catalog aggregation layer: one service instance owns the cache and the
	// unified read model for the whole process.
	cm := cache.NewManager()
	catalog := services.NewCatalogService(
		repos.NewCategoryRepo(db),
		repos.NewBrandRepo(db),
		repos.NewProductRepo(db),
		repos.NewAnalyticsRepo(db),
		cm,
	)
	defer catalog.Close()
	catalog.StartSweep(cfg.CacheSweep)
	if err := catalog.LoadAll(); err != nil {
		log.Printf("[warn] initial catalog load: %v", err)
	}

	offers := services.NewOfferService(
		repos.NewOfferRepo(db),
		repos.NewProductRepo(db),
		repos.NewReconRepo(db),
	)

	// Templates & app
	engine := html.New("./web/templates", ".html")
	engine.Reload(true)

	app := fiber.New(fiber.Config{
		Views: engine,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			applog.Error(c, "server.error", err, nil)
			// Avoid leaking internals; best-effort render
			if rerr := c.Status(fiber.StatusInternalServerError).Render("notfound", fiber.Map{
				"Message": "Algo salió mal. Intenta de nuevo.",
			}); rerr != nil {
				return c.Status(fiber.StatusInternalServerError).SendString("Algo salió mal. Intenta de nuevo.")
			}
			return nil
		},
	})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	// Attach user to context if logged in (for templates/headers)
	app.Use(func(c *fiber.Ctx) error {
		if sid := c.Cookies("sid"); sid != "" {
			if u, err := authSvc.CurrentUser(sid); err == nil && u != nil {
				c.Locals("user", u)
			}
		}
		return c.Next()
	})
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			p := string(c.Request().URI().Path())
			return strings.HasPrefix(p, "/static/") || strings.HasPrefix(p, "/media/")
		},
	}))
	app.Use(csrf.New(csrf.Config{
		KeyLookup:      "form:csrf",
		CookieName:     "csrf_",
		CookieSameSite: "Lax",
		CookieSecure:   false, // set true behind HTTPS
		Next: func(c *fiber.Ctx) bool {
			// The consultation ping fires from the product page right before
			// the WhatsApp hand-off; it is idempotent and unauthenticated.
			return c.Path() == "/api/v1/consultations"
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			formTok := c.FormValue("csrf")
			applog.Security(c, "csrf.fail", map[string]any{"form": formTok})
			return c.Status(fiber.StatusForbidden).Render("notfound", fiber.Map{"Message": "Falló la verificación de seguridad. Recarga e intenta de nuevo."})
		},
	}))
	app.Use(func(c *fiber.Ctx) error {
		if tok := c.Locals("csrf"); tok != nil {
			c.Locals("CSRFToken", tok.(string))
		}
		return c.Next()
	})

	// ---------- Static assets ----------
	mediaDir := cfg.MediaDir
	if !filepath.IsAbs(mediaDir) {
		if abs, err := filepath.Abs(mediaDir); err == nil {
			mediaDir = abs
		}
	}
	log.Printf("[static] /static -> ./web/static")
	log.Printf("[static] /media  -> %s", mediaDir)

	app.Static("/static", "./web/static")
	// Guarded media to avoid traversal
	app.Get("/media/*", func(c *fiber.Ctx) error {
		path := c.Params("*")
		rawLower := strings.ToLower(path)
		if strings.Contains(rawLower, "..") || strings.Contains(rawLower, "%2e") || strings.Contains(rawLower, "\x00") {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		clean := filepath.Clean(path)
		if clean == "." || strings.Contains(clean, "..") || filepath.IsAbs(clean) {
			applog.Security(c, "media.traversal.block", map[string]any{"path": path})
			return c.SendStatus(fiber.StatusNotFound)
		}
		full := filepath.Join(mediaDir, clean)
		return c.SendFile(full, true)
	})

	// ---------- App handlers ----------
	deps := handlers.NewDeps(db, cfg, catalog, offers)

	// Public pages
	app.Get("/", deps.CategoryHandler.Home)
	app.Get("/catalog", limiter.New(limiter.Config{Max: 30, Expiration: time.Minute}), deps.CatalogHandler.Browse)
	app.Get("/category/:id", deps.CategoryHandler.List)
	app.Get("/brands", deps.BrandHandler.List)
	app.Get("/brand/:name", deps.BrandHandler.Products)

	// Product pages
	app.Get("/product", func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Este producto ya no está disponible"})
	})
	app.Get("/product/:id", deps.ProductHandler.Detail)

	// API
	api := app.Group("/api/v1")
	api.Get("/products", deps.CatalogHandler.API)
	api.Get("/most-requested", deps.ConsultationHandler.MostRequested)
	consultLimiter := limiter.New(limiter.Config{
		Max:        15,
		Expiration: 30 * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|consult"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.consultation.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded, retry soon"})
		},
	})
	api.Post("/consultations", consultLimiter, deps.ConsultationHandler.Register)

	// Auth routes (login throttled)
	app.Get("/login", authH.LoginForm)
	app.Post("/login", limiter.New(limiter.Config{
		Max:        5,
		Expiration: 10 * time.Minute,
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.login.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).Render("login", fiber.Map{"Err": "Demasiados intentos. Intenta más tarde."})
		},
	}), authH.Login)
	app.Post("/logout", authH.Logout)

	// Seller submission area
	seller := app.Group("/seller", handlers.RequireSeller(authSvc))
	seller.Get("/", deps.SellerHandler.Form)
	seller.Post("/products", deps.SellerHandler.Submit)
	seller.Get("/products/:id/offers", deps.SellerHandler.ProductOffers)
	seller.Post("/offers/:id/delete", deps.SellerHandler.RemoveOffer)

	// Cache admin
	admin := api.Group("/cache", handlers.RequireAdmin(authSvc))
	admin.Get("/stats", deps.CacheHandler.Stats)
	admin.Post("/invalidate", deps.CacheHandler.Invalidate)
	admin.Post("/refresh", deps.CacheHandler.Refresh)

	// Health & 404
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(404).Render("notfound", fiber.Map{"Message": "Página no encontrada"})
	})

	// Serve until interrupted, then stop the sweep and drain.
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		catalog.Close()
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal(err)
	}
}
