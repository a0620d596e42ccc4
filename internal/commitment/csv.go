// Copyright 2025 Certen Protocol
//
// Thin CSV adapters for the demo CLI and tests. Production CSV
// ingestion (schema evolution, SAP adapters) is an external
// collaborator's concern per spec §1 — this is intentionally minimal.
// Grounded on original_source's io.rs (read_suppliers_csv/read_ubos_csv).

package commitment

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
)

// LoadSuppliersCSV reads Supplier rows from a CSV file with a header
// row "name,jurisdiction,tier", preserving file order.
func LoadSuppliersCSV(r io.Reader) ([]Supplier, error) {
	records, err := readCSVRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	idx, err := columnIndex(header, "name", "jurisdiction", "tier")
	if err != nil {
		return nil, fmt.Errorf("commitment: suppliers csv: %w", err)
	}

	rows := make([]Supplier, 0, len(records)-1)
	for i, rec := range records[1:] {
		tier, err := strconv.Atoi(rec[idx["tier"]])
		if err != nil {
			return nil, fmt.Errorf("commitment: suppliers csv row %d: invalid tier: %w", i, err)
		}
		rows = append(rows, Supplier{
			Name:         rec[idx["name"]],
			Jurisdiction: rec[idx["jurisdiction"]],
			Tier:         tier,
		})
	}
	return rows, nil
}

// LoadUbosCSV reads Ubo rows from a CSV file with a header row
// "name,birthdate,citizenship", preserving file order.
func LoadUbosCSV(r io.Reader) ([]Ubo, error) {
	records, err := readCSVRecords(r)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	header := records[0]
	idx, err := columnIndex(header, "name", "birthdate", "citizenship")
	if err != nil {
		return nil, fmt.Errorf("commitment: ubos csv: %w", err)
	}

	rows := make([]Ubo, 0, len(records)-1)
	for _, rec := range records[1:] {
		rows = append(rows, Ubo{
			Name:        rec[idx["name"]],
			Birthdate:   rec[idx["birthdate"]],
			Citizenship: rec[idx["citizenship"]],
		})
	}
	return rows, nil
}

func readCSVRecords(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("commitment: read csv: %w", err)
	}
	return records, nil
}

func columnIndex(header []string, required ...string) (map[string]int, error) {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}
	for _, r := range required {
		if _, ok := idx[r]; !ok {
			return nil, fmt.Errorf("missing required column %q", r)
		}
	}
	return idx, nil
}
