package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/printforge/spooltrack/pkg/domain/entities"
)

var spoolHeader = []string{
	"brand", "material_type", "color_name", "color_hex",
	"diameter", "nominal_weight", "remaining_weight", "purchase_price", "location",
}

// LoadSpoolsCSV reads spools from a CSV file. The header must match the
// spool column set exactly; any row failure aborts the load with its row
// number.
func LoadSpoolsCSV(filename string) ([]*entities.Filament, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open spools file %s: %w", filename, err)
	}
	defer file.Close()
	return ReadSpools(file)
}

// ReadSpools parses spool CSV from a reader.
func ReadSpools(r io.Reader) ([]*entities.Filament, error) {
	records, err := csv.NewReader(r).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read spools CSV: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("spools CSV must have header and at least one data row")
	}
	if !validateHeader(records[0], spoolHeader) {
		return nil, fmt.Errorf("spools CSV header mismatch. Expected: %v, Got: %v", spoolHeader, records[0])
	}

	var spools []*entities.Filament
	for i, record := range records[1:] {
		if len(record) != len(spoolHeader) {
			return nil, fmt.Errorf("spools CSV row %d: expected %d columns, got %d", i+2, len(spoolHeader), len(record))
		}
		spool, err := parseSpool(record)
		if err != nil {
			return nil, fmt.Errorf("spools CSV row %d: %w", i+2, err)
		}
		spools = append(spools, spool)
	}
	return spools, nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i, col := range expected {
		if strings.ToLower(strings.TrimSpace(actual[i])) != col {
			return false
		}
	}
	return true
}

func parseSpool(record []string) (*entities.Filament, error) {
	diameter, err := strconv.ParseFloat(record[4], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid diameter: %s", record[4])
	}
	nominal, err := strconv.ParseFloat(record[5], 64)
	if err != nil {
		return nil, fmt.Errorf("invalid nominal_weight: %s", record[5])
	}

	// An empty remaining weight means a full spool.
	remaining := nominal
	if strings.TrimSpace(record[6]) != "" {
		remaining, err = strconv.ParseFloat(record[6], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid remaining_weight: %s", record[6])
		}
	}

	f, err := entities.NewFilament(
		record[0], record[1], record[2], record[3],
		diameter, entities.Grams(nominal), entities.Grams(remaining))
	if err != nil {
		return nil, err
	}

	if strings.TrimSpace(record[7]) != "" {
		price, err := strconv.ParseFloat(record[7], 64)
		if err != nil {
			return nil, fmt.Errorf("invalid purchase_price: %s", record[7])
		}
		p := entities.Money(price)
		f.PurchasePrice = &p
	}
	f.Location = record[8]
	return f, nil
}
