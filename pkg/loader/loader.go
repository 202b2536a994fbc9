// Package loader reads target profile URL lists from text and CSV files.
package loader

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// urlColumn is the required column name in CSV inputs.
const urlColumn = "linkedin_url"

// FromFile loads profile URLs from a file, dispatching on the extension.
// Files ending in .csv are parsed as CSV with a linkedin_url column; anything
// else is treated as one URL per line.
func FromFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open target file: %w", err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FromCSV(f)
	}
	return FromReader(f)
}

// FromReader reads one URL per line. Blank lines and lines starting with '#'
// are skipped.
func FromReader(r io.Reader) ([]string, error) {
	var urls []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		urls = append(urls, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read target list: %w", err)
	}

	return urls, nil
}

// FromCSV reads URLs from the linkedin_url column of a CSV stream. The
// header row is required; other columns are ignored.
func FromCSV(r io.Reader) ([]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	col := -1
	for i, name := range header {
		if strings.EqualFold(strings.TrimSpace(name), urlColumn) {
			col = i
			break
		}
	}
	if col < 0 {
		return nil, fmt.Errorf("csv input is missing the %q column", urlColumn)
	}

	var urls []string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv record: %w", err)
		}
		if col >= len(record) {
			continue
		}
		url := strings.TrimSpace(record[col])
		if url == "" {
			continue
		}
		urls = append(urls, url)
	}

	return urls, nil
}
