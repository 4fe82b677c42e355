package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/rs/zerolog"
)

// SetupClientRoutes serves the built single-page client from dir. Unknown
// paths fall back to index.html so client-side routes survive a reload.
func SetupClientRoutes(app *fiber.App, dir string, log zerolog.Logger) {
	if _, err := os.Stat(filepath.Join(dir, "index.html")); err != nil {
		log.Warn().Str("dir", dir).Msg("⚠️ [Static] client bundle not found, skipping static routes")
		return
	}

	app.Use("/", filesystem.New(filesystem.Config{
		Root:         http.Dir(dir),
		Index:        "index.html",
		MaxAge:       3600,
		NotFoundFile: "index.html",
	}))
	log.Info().Str("dir", dir).Msg("✅ [Static] serving client bundle")
}
