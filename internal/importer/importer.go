// Package importer provides CSV and Excel import functionality for cargo
// manifests. It supports automatic delimiter detection, flexible column
// mapping, and case-insensitive header recognition.
package importer

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/piwi3910/CargoFit/internal/model"
)

// ImportResult holds the results of an import operation.
type ImportResult struct {
	Items    []model.CargoItem
	Errors   []string
	Warnings []string
}

// Pieces returns the number of pieces across all imported lines.
func (r ImportResult) Pieces() int {
	n := 0
	for _, it := range r.Items {
		n += it.Quantity
	}
	return n
}

// ColumnMapping maps semantic column roles to their indices in the data.
// A value of -1 means the column is absent.
type ColumnMapping struct {
	ID          int
	SKU         int
	Description int
	Length      int
	Width       int
	Height      int
	Weight      int
	Quantity    int
	Stop        int
	Stackable   int
	TopOnly     int
	Fragile     int
	Hazardous   int
	Rotatable   int
}

// headerAliases maps canonical column names to their accepted aliases (all lowercase).
var headerAliases = map[string][]string{
	"id":          {"id", "line id", "line"},
	"sku":         {"sku", "item", "part", "part number", "product", "name", "label"},
	"description": {"description", "desc", "notes"},
	"length":      {"length", "len", "l"},
	"width":       {"width", "w"},
	"height":      {"height", "h"},
	"weight":      {"weight", "wt", "mass", "kg", "lbs"},
	"quantity":    {"quantity", "qty", "count", "pcs", "pieces"},
	"stop":        {"stop", "stop sequence", "stopsequence", "drop", "delivery"},
	"stackable":   {"stackable", "stack", "can stack"},
	"toponly":     {"top only", "top_only", "no stack", "do not stack"},
	"fragile":     {"fragile"},
	"hazardous":   {"hazardous", "hazmat", "dangerous"},
	"rotatable":   {"rotatable", "rotate", "can rotate"},
}

// DetectCSVDelimiter reads the file content and determines the most likely CSV delimiter.
// It tries comma, semicolon, tab, and pipe. The delimiter that produces the most
// consistent (non-one) column count across lines wins.
func DetectCSVDelimiter(data []byte) rune {
	candidates := []rune{',', ';', '\t', '|'}
	bestDelimiter := ','
	bestScore := 0

	for _, delim := range candidates {
		reader := csv.NewReader(bytes.NewReader(data))
		reader.Comma = delim
		reader.LazyQuotes = true
		reader.FieldsPerRecord = -1

		records, err := reader.ReadAll()
		if err != nil || len(records) < 1 {
			continue
		}

		firstCols := len(records[0])
		if firstCols < 2 {
			continue
		}

		score := 0
		for _, row := range records {
			if len(row) == firstCols {
				score++
			}
		}

		weighted := score*10 + firstCols
		if weighted > bestScore {
			bestScore = weighted
			bestDelimiter = delim
		}
	}

	return bestDelimiter
}

func emptyMapping() ColumnMapping {
	return ColumnMapping{
		ID: -1, SKU: -1, Description: -1,
		Length: -1, Width: -1, Height: -1, Weight: -1,
		Quantity: -1, Stop: -1,
		Stackable: -1, TopOnly: -1, Fragile: -1, Hazardous: -1, Rotatable: -1,
	}
}

// positionalMapping is used for manifests without a header row:
// SKU, Length, Width, Height, Weight, Quantity, Stop.
func positionalMapping() ColumnMapping {
	m := emptyMapping()
	m.SKU, m.Length, m.Width, m.Height, m.Weight, m.Quantity, m.Stop = 0, 1, 2, 3, 4, 5, 6
	return m
}

func (m *ColumnMapping) slot(role string) *int {
	switch role {
	case "id":
		return &m.ID
	case "sku":
		return &m.SKU
	case "description":
		return &m.Description
	case "length":
		return &m.Length
	case "width":
		return &m.Width
	case "height":
		return &m.Height
	case "weight":
		return &m.Weight
	case "quantity":
		return &m.Quantity
	case "stop":
		return &m.Stop
	case "stackable":
		return &m.Stackable
	case "toponly":
		return &m.TopOnly
	case "fragile":
		return &m.Fragile
	case "hazardous":
		return &m.Hazardous
	case "rotatable":
		return &m.Rotatable
	}
	return nil
}

// DetectColumns examines a header row and returns a ColumnMapping.
// It performs case-insensitive matching against known aliases for each column role.
// Returns the mapping and true if a header was detected, or a default positional
// mapping and false if no header was found.
func DetectColumns(row []string) (ColumnMapping, bool) {
	mapping := emptyMapping()

	isHeader := false
	for i, cell := range row {
		normalized := strings.ToLower(strings.TrimSpace(cell))
		for role, aliases := range headerAliases {
			for _, alias := range aliases {
				if normalized != alias {
					continue
				}
				isHeader = true
				if dst := mapping.slot(role); *dst == -1 {
					*dst = i
				}
			}
		}
	}

	if !isHeader {
		return positionalMapping(), false
	}
	return mapping, true
}

// parseFlag converts a yes/no style cell to a bool. It returns false for ok
// when the text is not recognized.
func parseFlag(s string) (value bool, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "yes", "y", "true", "t", "1", "x":
		return true, true
	case "no", "n", "false", "f", "0", "-":
		return false, true
	default:
		return false, false
	}
}

// getCell safely retrieves a cell value from a row by column index.
// Returns empty string if the index is out of range or negative.
func getCell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[idx])
}

func parseDimension(row []string, idx int, name, rowLabel string) (float64, string) {
	s := getCell(row, idx)
	if s == "" {
		return 0, fmt.Sprintf("%s: Missing %s value", rowLabel, name)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Sprintf("%s: Invalid %s '%s'", rowLabel, name, s)
	}
	return v, ""
}

// parseRow extracts a CargoItem from a row using the given column mapping.
// Returns the item, any error message, and any warnings.
func parseRow(row []string, mapping ColumnMapping, rowLabel string, itemCount int) (model.CargoItem, string, []string) {
	sku := getCell(row, mapping.SKU)
	if sku == "" {
		sku = fmt.Sprintf("Item %d", itemCount+1)
	}

	length, errMsg := parseDimension(row, mapping.Length, "length", rowLabel)
	if errMsg != "" {
		return model.CargoItem{}, errMsg, nil
	}
	width, errMsg := parseDimension(row, mapping.Width, "width", rowLabel)
	if errMsg != "" {
		return model.CargoItem{}, errMsg, nil
	}
	height, errMsg := parseDimension(row, mapping.Height, "height", rowLabel)
	if errMsg != "" {
		return model.CargoItem{}, errMsg, nil
	}
	weight, errMsg := parseDimension(row, mapping.Weight, "weight", rowLabel)
	if errMsg != "" {
		return model.CargoItem{}, errMsg, nil
	}

	qty := 1
	if qtyStr := getCell(row, mapping.Quantity); qtyStr != "" {
		n, err := strconv.Atoi(qtyStr)
		if err != nil {
			return model.CargoItem{}, fmt.Sprintf("%s: Invalid quantity '%s'", rowLabel, qtyStr), nil
		}
		qty = n
	}

	if length <= 0 || width <= 0 || height <= 0 || qty <= 0 {
		return model.CargoItem{}, fmt.Sprintf("%s: Length, width, height, and quantity must be positive", rowLabel), nil
	}
	if weight < 0 {
		return model.CargoItem{}, fmt.Sprintf("%s: Weight must not be negative", rowLabel), nil
	}

	item := model.NewCargoItem(sku, length, width, height, weight, qty)
	if id := getCell(row, mapping.ID); id != "" {
		item.ID = id
	}
	item.Description = getCell(row, mapping.Description)

	var warnings []string
	if stopStr := getCell(row, mapping.Stop); stopStr != "" {
		stop, err := strconv.Atoi(stopStr)
		if err != nil || stop < 1 {
			warnings = append(warnings, fmt.Sprintf("%s: Invalid stop '%s', defaulting to 1", rowLabel, stopStr))
		} else {
			item.StopSequence = stop
		}
	}

	flags := []struct {
		name string
		idx  int
		dst  *bool
	}{
		{"stackable", mapping.Stackable, &item.Stackable},
		{"fragile", mapping.Fragile, &item.Fragile},
		{"hazardous", mapping.Hazardous, &item.Hazardous},
		{"rotatable", mapping.Rotatable, &item.Rotatable},
	}
	for _, f := range flags {
		s := getCell(row, f.idx)
		if s == "" {
			continue
		}
		v, ok := parseFlag(s)
		if !ok {
			warnings = append(warnings, fmt.Sprintf("%s: Unknown %s value '%s', keeping %t", rowLabel, f.name, s, *f.dst))
			continue
		}
		*f.dst = v
	}
	if s := getCell(row, mapping.TopOnly); s != "" {
		if v, ok := parseFlag(s); ok && v {
			item.Stackable = false
		}
	}

	return item, "", warnings
}

// isEmptyRow returns true if the row has no meaningful content.
func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ImportCSV imports cargo lines from a CSV file.
// It automatically detects the delimiter and maps columns by header names.
// Supports comma, semicolon, tab, and pipe delimiters.
func ImportCSV(path string) ImportResult {
	result := ImportResult{}

	data, err := os.ReadFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open file: %v", err))
		return result
	}

	if len(bytes.TrimSpace(data)) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	delimiter := DetectCSVDelimiter(data)
	if delimiter != ',' {
		delimName := map[rune]string{';': "semicolon", '\t': "tab", '|': "pipe"}[delimiter]
		result.Warnings = append(result.Warnings, fmt.Sprintf("Detected %s delimiter", delimName))
	}

	records, err := readCSV(bytes.NewReader(data), delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", result.Warnings)
}

// ImportCSVFromReader imports cargo lines from a CSV reader with a specific
// delimiter. This is useful for testing or when the delimiter is already known.
func ImportCSVFromReader(reader io.Reader, delimiter rune) ImportResult {
	result := ImportResult{}

	records, err := readCSV(reader, delimiter)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read CSV: %v", err))
		return result
	}

	if len(records) == 0 {
		result.Errors = append(result.Errors, "File is empty")
		return result
	}

	return importFromRows(records, "Line", nil)
}

func readCSV(r io.Reader, delimiter rune) ([][]string, error) {
	csvReader := csv.NewReader(r)
	csvReader.Comma = delimiter
	csvReader.LazyQuotes = true
	csvReader.FieldsPerRecord = -1
	return csvReader.ReadAll()
}

// ImportExcel imports cargo lines from an Excel (.xlsx) file.
// Reads the first sheet and auto-detects column mapping from headers.
func ImportExcel(path string) ImportResult {
	result := ImportResult{}

	f, err := excelize.OpenFile(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot open Excel file: %v", err))
		return result
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		result.Errors = append(result.Errors, "Excel file has no sheets")
		return result
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("Cannot read Excel data: %v", err))
		return result
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "Sheet is empty")
		return result
	}

	return importFromRows(rows, "Row", nil)
}

// Import dispatches on the file extension: .xlsx and .xlsm go through
// ImportExcel, everything else is read as CSV.
func Import(path string) ImportResult {
	lower := strings.ToLower(path)
	if strings.HasSuffix(lower, ".xlsx") || strings.HasSuffix(lower, ".xlsm") {
		return ImportExcel(path)
	}
	return ImportCSV(path)
}

// importFromRows is the shared import logic for both CSV and Excel data.
// It detects headers, maps columns, and parses each row into cargo lines.
func importFromRows(rows [][]string, rowPrefix string, initialWarnings []string) ImportResult {
	result := ImportResult{
		Warnings: initialWarnings,
	}

	if len(rows) == 0 {
		result.Errors = append(result.Errors, "No data rows found")
		return result
	}

	mapping, hasHeader := DetectColumns(rows[0])
	startRow := 0
	if hasHeader {
		startRow = 1
		result.Warnings = append(result.Warnings, "Detected header row, skipping")

		missing := []string{}
		if mapping.Length == -1 {
			missing = append(missing, "Length")
		}
		if mapping.Width == -1 {
			missing = append(missing, "Width")
		}
		if mapping.Height == -1 {
			missing = append(missing, "Height")
		}
		if mapping.Weight == -1 {
			missing = append(missing, "Weight")
		}
		if len(missing) > 0 {
			result.Errors = append(result.Errors, fmt.Sprintf("Required columns not found in header: %s", strings.Join(missing, ", ")))
			return result
		}
	} else if len(rows[0]) >= 2 {
		// Unrecognized header: the second column should be a number
		if _, err := strconv.ParseFloat(strings.TrimSpace(rows[0][1]), 64); err != nil {
			startRow = 1
			result.Warnings = append(result.Warnings, "Detected header row, skipping")
		}
	}

	seen := make(map[string]bool)
	for i := startRow; i < len(rows); i++ {
		row := rows[i]
		if isEmptyRow(row) {
			continue
		}

		rowLabel := fmt.Sprintf("%s %d", rowPrefix, i+1)
		item, errMsg, warnings := parseRow(row, mapping, rowLabel, len(result.Items))
		if errMsg != "" {
			result.Errors = append(result.Errors, errMsg)
			continue
		}
		if seen[item.ID] {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: Duplicate id '%s'", rowLabel, item.ID))
			continue
		}
		seen[item.ID] = true
		result.Warnings = append(result.Warnings, warnings...)
		result.Items = append(result.Items, item)
	}

	return result
}
