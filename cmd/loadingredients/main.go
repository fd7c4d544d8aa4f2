// Command loadingredients bulk-loads ingredients from a JSON or YAML file.
// Entries already present (same name and measurement unit) are skipped.
//
//	loadingredients -file data/ingredients.json
//
// The file holds a list of {"name", "measurement_unit"} objects. The
// database is selected with the same DB_* variables the server reads.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v2"
	"gorm.io/gorm"

	"github.com/tbourn/go-recipes-backend/internal/config"
	"github.com/tbourn/go-recipes-backend/internal/repo"
	"github.com/tbourn/go-recipes-backend/internal/services"
	"github.com/tbourn/go-recipes-backend/internal/sysutil"
)

func main() {
	file := flag.String("file", "data/ingredients.json", "ingredients file (.json, .yaml or .yml)")
	batch := flag.Int("batch", 500, "rows per INSERT")
	flag.Parse()

	_ = godotenv.Load()
	sysutil.SetLogLevel(os.Getenv("LOG_LEVEL"))
	log.Logger = sysutil.NewLogger(os.Stderr, true, "")

	dbCfg, err := config.LoadDB()
	if err != nil {
		log.Fatal().Err(err).Msg("database config")
	}
	db, err := repo.Open(dbCfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", dbCfg.Driver).Msg("open database")
	}
	if err := repo.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("migrate database")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, db, *file, *batch, os.Stdout); err != nil {
		log.Fatal().Err(err).Str("file", *file).Msg("import failed")
	}
}

// run imports the file at path into db and prints the outcome to out.
func run(ctx context.Context, db *gorm.DB, path string, batch int, out io.Writer) error {
	items, err := readIngredients(path)
	if err != nil {
		return err
	}
	catalog := services.NewCatalogService(db)
	if batch > 0 {
		catalog.ImportBatchSize = batch
	}
	res, err := catalog.ImportIngredients(ctx, items)
	if err != nil {
		return err
	}
	log.Info().Int("read", len(items)).Int64("created", res.Created).Int64("skipped", res.Skipped).Msg("ingredients imported")
	_, err = fmt.Fprintf(out, "created %d, skipped %d\n", res.Created, res.Skipped)
	return err
}

// readIngredients decodes the file by extension.
func readIngredients(path string) ([]services.IngredientCreateInput, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []services.IngredientCreateInput
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(raw, &items)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &items)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .json, .yaml or .yml)", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	if len(items) == 0 {
		return nil, errors.New("no ingredients in " + filepath.Base(path))
	}
	return items, nil
}
