package main

import (
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"library-catalog/config"
	"library-catalog/library"
)

var seedHeader = []string{"book_id", "title", "author", "year", "isbn"}

func main() {
	cfg := config.Load()
	dataDir := flag.String("data-dir", cfg.DataDir, "catalog data directory")
	seed := flag.String("seed", "books_seed.csv", "CSV file with book_id,title,author,year,isbn")
	flag.Parse()

	catalog, err := library.NewCatalog(*dataDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening catalog: %v\n", err)
		os.Exit(1)
	}

	f, err := os.Open(*seed)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading seed file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Importing books from %s into %s...\n", *seed, catalog.DataDir())
	sum, err := importBooks(catalog, f, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Import aborted: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", sum.added)
	fmt.Printf("Already present: %d\n", sum.skipped)
	fmt.Printf("Errors: %d\n", sum.failed)
}

type summary struct {
	added, skipped, failed int
}

// importBooks adds every seed row whose id is not yet in the catalog. Bad rows
// are reported and counted; storage errors abort the import.
func importBooks(catalog *library.Catalog, r io.Reader, out io.Writer) (summary, error) {
	var sum summary
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(seedHeader)

	header, err := cr.Read()
	if err != nil {
		return sum, fmt.Errorf("read header: %w", err)
	}
	if strings.Join(header, ",") != strings.Join(seedHeader, ",") {
		return sum, fmt.Errorf("unexpected header %v, want %v", header, seedHeader)
	}

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			fmt.Fprintf(out, "ERROR - line %d: %v\n", pe.StartLine, pe.Err)
			sum.failed++
			continue
		}
		if err != nil {
			return sum, err
		}

		b := library.Book{
			ID:     strings.TrimSpace(row[0]),
			Title:  strings.TrimSpace(row[1]),
			Author: strings.TrimSpace(row[2]),
			Year:   strings.TrimSpace(row[3]),
			ISBN:   strings.TrimSpace(row[4]),
			Status: library.StatusAvailable,
		}
		fmt.Fprintf(out, "Importing: %s by %s... ", b.Title, b.Author)
		if err := b.Validate(); err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			sum.failed++
			continue
		}
		added, err := catalog.AddBookIfAbsent(b)
		if err != nil {
			return sum, err
		}
		if !added {
			fmt.Fprintf(out, "SKIPPED (ID %s exists)\n", b.ID)
			sum.skipped++
			continue
		}
		fmt.Fprintf(out, "SUCCESS (ID: %s)\n", b.ID)
		sum.added++
	}
	return sum, nil
}
