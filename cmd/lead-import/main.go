// Command lead-import loads a CSV of purchased leads into the fresh pool.
//
// Expected columns: nombre, cuil, telefonos, localidad, obra_social, edad.
// Multiple phones in one cell are separated by ";". The file name becomes the
// batch's source_file so a bad purchase can be traced back later.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	leadrepo "salesops_backend/internal/leads/repository"
	"salesops_backend/internal/leads/service"
	"salesops_backend/platform/config"
	"salesops_backend/platform/db"
	"salesops_backend/platform/logger"
)

func main() {
	filePath := flag.String("file", "", "path to the CSV file to import")
	sourceName := flag.String("source", "", "source file label stored on each lead (defaults to the file name)")
	flag.Parse()

	if *filePath == "" {
		flag.Usage()
		os.Exit(2)
	}
	if *sourceName == "" {
		*sourceName = filepath.Base(*filePath)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting lead import", "file", *filePath, "source", *sourceName)

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	records, err := readRecords(*filePath)
	if err != nil {
		log.Error("failed to read CSV", "error", err)
		panic("failed to read CSV: " + err.Error())
	}
	if len(records) == 0 {
		log.Info("no rows to import")
		return
	}

	svc := service.New(leadrepo.New(pool))
	result, err := svc.ImportBatch(ctx, *sourceName, records)
	if err != nil {
		log.Error("import failed", "error", err)
		panic("import failed: " + err.Error())
	}

	log.Info("import complete",
		"batchId", result.BatchID,
		"imported", result.Imported,
		"duplicates", result.Duplicates,
		"failed", result.Failed,
	)
}

func readRecords(path string) ([]service.ImportRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, err
	}
	col := columnIndex(header)
	idx := func(name string) int {
		if i, ok := col[name]; ok {
			return i
		}
		return -1
	}

	var records []service.ImportRecord
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		rec := service.ImportRecord{
			FullName:   field(row, idx("nombre")),
			TaxID:      field(row, idx("cuil")),
			Locality:   field(row, idx("localidad")),
			ObraSocial: field(row, idx("obra_social")),
		}
		for _, phone := range strings.Split(field(row, idx("telefonos")), ";") {
			if phone = strings.TrimSpace(phone); phone != "" {
				rec.Phones = append(rec.Phones, phone)
			}
		}
		if raw := field(row, idx("edad")); raw != "" {
			if age, err := strconv.Atoi(raw); err == nil {
				rec.Age = &age
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func columnIndex(header []string) map[string]int {
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return col
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}
