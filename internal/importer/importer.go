package importer

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/example/flashdeck/pkg/models"
)

// ImportConfig defines the import configuration
type ImportConfig struct {
	QuestionColumn   int    // 0-based column with the question
	AnswerColumn     int    // 0-based column with the answer
	HintColumn       int    // 0-based column with the hint
	DifficultyColumn int    // 0-based column with the difficulty
	SheetName        string // Name of the sheet to import (Excel only)
	StartRow         int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		QuestionColumn:   0,
		AnswerColumn:     1,
		HintColumn:       2,
		DifficultyColumn: 3,
		SheetName:        "Sheet1",
		StartRow:         2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	Skipped        int
	Errors         []string
}

// Import reads cards from an uploaded Excel or CSV stream. The filename
// extension selects the format.
func Import(r io.Reader, filename string, config ImportConfig) ([]models.Card, *ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".csv" {
		return importFromCSV(r, config)
	}
	return importFromExcel(r, config)
}

// importFromExcel reads cards from an Excel stream
func importFromExcel(r io.Reader, config ImportConfig) ([]models.Card, *ImportResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %v", err)
	}
	defer f.Close()

	sheet := config.SheetName
	if idx, err := f.GetSheetIndex(sheet); sheet == "" || err != nil || idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get rows: %v", err)
	}

	return collectCards(rows, config)
}

// importFromCSV reads cards from a CSV stream
func importFromCSV(r io.Reader, config ImportConfig) ([]models.Card, *ImportResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read CSV file: %v", err)
	}

	return collectCards(rows, config)
}

// collectCards turns raw rows into cards, recording per-row problems in
// the result rather than aborting the whole import
func collectCards(rows [][]string, config ImportConfig) ([]models.Card, *ImportResult, error) {
	result := &ImportResult{Errors: make([]string, 0)}
	var cards []models.Card

	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		result.TotalProcessed++

		question := strings.TrimSpace(cell(row, config.QuestionColumn))
		answer := strings.TrimSpace(cell(row, config.AnswerColumn))
		if question == "" || answer == "" {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: question or answer is empty", i+1))
			continue
		}

		difficulty := strings.ToLower(strings.TrimSpace(cell(row, config.DifficultyColumn)))
		switch difficulty {
		case "", models.DifficultyEasy, models.DifficultyMedium, models.DifficultyHard:
		default:
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: unknown difficulty %q ignored", i+1, difficulty))
			difficulty = ""
		}

		cards = append(cards, models.Card{
			Question:   question,
			Answer:     answer,
			Hint:       strings.TrimSpace(cell(row, config.HintColumn)),
			Difficulty: difficulty,
		})
		result.Created++
	}

	return cards, result, nil
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}
