package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"nfecusto/internal/config"
	"nfecusto/internal/domain"
	"nfecusto/internal/repository/postgres"
	"nfecusto/internal/service"
)

// importnfe imports NFe XML files from the command line, one outcome line
// per file. Directories are scanned one level deep for .xml files.
func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: importnfe <file.xml|directory> [...]")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := postgres.NewDB(&cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()

	importSvc := service.NewImportService(
		postgres.NewInvoiceRepo(db),
		postgres.NewSupplierRepo(db),
		postgres.NewProductRepo(db),
		nil, // archive disabled for CLI imports
		&cfg.Archive,
	)

	paths, err := collectFiles(os.Args[1:])
	if err != nil {
		log.Fatalf("failed to collect files: %v", err)
	}
	if len(paths) == 0 {
		fmt.Println("no .xml files found")
		os.Exit(1)
	}

	inputs := make([]service.ImportInput, 0, len(paths))
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Fatalf("failed to read %s: %v", path, err)
		}
		inputs = append(inputs, service.ImportInput{
			Name: filepath.Base(path),
			XML:  string(data),
		})
	}

	outcomes := importSvc.ImportBatch(context.Background(), inputs)

	failed := 0
	for _, o := range outcomes {
		switch o.Status {
		case domain.ImportStatusImported:
			fmt.Printf("imported   %s (access key %s)\n", o.Name, o.Invoice.AccessKey)
		case domain.ImportStatusDuplicate:
			fmt.Printf("duplicate  %s\n", o.Name)
		default:
			failed++
			fmt.Printf("failed     %s: %s\n", o.Name, o.Reason)
		}
	}

	if failed > 0 {
		os.Exit(1)
	}
}

func collectFiles(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		entries, err := os.ReadDir(arg)
		if err != nil {
			return nil, err
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			if strings.EqualFold(filepath.Ext(entry.Name()), ".xml") {
				paths = append(paths, filepath.Join(arg, entry.Name()))
			}
		}
	}
	return paths, nil
}
