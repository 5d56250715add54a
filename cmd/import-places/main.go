// import-places upserts places from one or more CSV exports into the directory.
//
//	import-places [-rejects rejects.csv] places.csv [more.csv ...]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/sfomuseum/go-csvdict/v2"
	"github.com/tastemichigan/api-go/config"
	"github.com/tastemichigan/api-go/importer"
	"github.com/tastemichigan/api-go/repository"
)

func main() {
	rejects := flag.String("rejects", "", "Optional path to write rejected rows as CSV")
	flag.Parse()

	if flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: import-places [-rejects path] file.csv [file.csv ...]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	config.InitLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := config.InitDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	imp := importer.NewImporter(repository.NewPlaceRepository(db))

	var rejectWriter *csvdict.Writer
	if *rejects != "" {
		rejectWriter, err = csvdict.NewWriterFromPath(*rejects)
		if err != nil {
			log.Fatal().Err(err).Str("path", *rejects).Msg("failed to create rejects file")
		}
	}

	failed := 0
	for _, path := range flag.Args() {
		report, err := importFile(ctx, imp, path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("import aborted")
		}

		log.Info().
			Str("path", path).
			Int("total", report.Total).
			Int("succeeded", report.Succeeded).
			Int("failed", report.Failed).
			Msg("imported file")

		for _, rowErr := range report.Errors {
			log.Warn().Str("path", path).Int("row", rowErr.Row).Str("name", rowErr.Name).Msg(rowErr.Message)

			if rejectWriter != nil {
				rejectWriter.WriteRow(map[string]string{
					"file":    path,
					"row":     strconv.Itoa(rowErr.Row),
					"name":    rowErr.Name,
					"message": rowErr.Message,
				})
			}
		}
		failed += report.Failed
	}

	if rejectWriter != nil {
		rejectWriter.Flush()
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func importFile(ctx context.Context, imp *importer.Importer, path string) (*importer.ImportReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return imp.Import(ctx, f)
}
