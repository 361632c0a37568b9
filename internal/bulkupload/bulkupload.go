// Package bulkupload imports staff rosters from spreadsheets. Rows are
// validated independently; one bad row never blocks the rest of the file.
package bulkupload

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/groundcrewhq/groundcrew/internal/models"
	"github.com/groundcrewhq/groundcrew/internal/store"
)

// SheetName is the worksheet rosters are read from and written to.
const SheetName = "Roster"

var headerColumns = []string{"Name", "Phone", "Email", "Role", "Shift", "Zone"}

// RowError describes why one spreadsheet row was skipped. Row numbers are
// 1-based as shown in the spreadsheet itself.
type RowError struct {
	Row    int    `json:"row"`
	Reason string `json:"reason"`
}

// Result is the outcome of parsing one roster file.
type Result struct {
	Staff     []store.StaffParams
	RowErrors []RowError
	Total     int
}

// ParseRoster reads an xlsx roster and returns the valid rows plus a
// per-row error list for the rest.
func ParseRoster(r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := SheetName
	if idx, _ := f.GetSheetIndex(sheet); idx < 0 {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s is empty", sheet)
	}

	result := &Result{}
	for i, row := range rows[1:] {
		rowNum := i + 2
		if isBlankRow(row) {
			continue
		}
		result.Total++

		params, reason := parseRow(row)
		if reason != "" {
			result.RowErrors = append(result.RowErrors, RowError{Row: rowNum, Reason: reason})
			continue
		}
		result.Staff = append(result.Staff, params)
	}
	return result, nil
}

func parseRow(row []string) (store.StaffParams, string) {
	cell := func(i int) string {
		if i < len(row) {
			return strings.TrimSpace(row[i])
		}
		return ""
	}

	name := cell(0)
	phone := cell(1)
	email := cell(2)
	role := models.Role(strings.ToLower(cell(3)))
	shift := models.ShiftColor(strings.ToLower(cell(4)))
	zone := cell(5)

	switch {
	case name == "":
		return store.StaffParams{}, "name is required"
	case !models.ValidPhone(phone):
		return store.StaffParams{}, fmt.Sprintf("phone %q is not E.164", phone)
	case email != "" && !models.ValidEmail(email):
		return store.StaffParams{}, fmt.Sprintf("email %q is not valid", email)
	case !role.Valid():
		return store.StaffParams{}, fmt.Sprintf("unknown role %q", cell(3))
	case !shift.Valid():
		return store.StaffParams{}, fmt.Sprintf("unknown shift %q", cell(4))
	case zone == "":
		return store.StaffParams{}, "zone is required"
	}

	params := store.StaffParams{
		Name:  name,
		Phone: phone,
		Role:  role,
		Shift: shift,
		Zone:  zone,
	}
	if email != "" {
		params.Email = &email
	}
	return params, ""
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// Template produces an empty roster workbook with a styled header row for
// operators to fill in.
func Template() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	f.DeleteSheet("Sheet1")

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"2E7D32"}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, column := range headerColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, column); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	lastCell, _ := excelize.CoordinatesToCellName(len(headerColumns), 1)
	if err := f.SetCellStyle(SheetName, "A1", lastCell, headerStyle); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}
	_ = f.SetColWidth(SheetName, "A", "F", 22)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to serialize template: %w", err)
	}
	return buf.Bytes(), nil
}
