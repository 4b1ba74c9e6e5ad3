package handlers

import (
	"cmp"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"fuel-procurement-service/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

const policySheet = "StockPolicies"

// ImportTemplateColumn defines a column in the import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"`
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity     string                 `json:"entity"`
	Version    string                 `json:"version"`
	Columns    []ImportTemplateColumn `json:"columns"`
	SampleData []map[string]string    `json:"sampleData,omitempty"`
}

// StockPolicyImportTemplate returns the template for stock policies
func StockPolicyImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "stock-policies",
		Version: "1.0",
		Columns: []ImportTemplateColumn{
			{Name: "depotCode", Description: "Depot code", Required: true, Type: "string", Example: "DEP-NORTH"},
			{Name: "fuelCode", Description: "Fuel type code", Required: true, Type: "string", Example: "DT"},
			{Name: "criticalLevelLiters", Description: "Critical level in liters", Required: true, Type: "number", Example: "5000"},
			{Name: "minLevelLiters", Description: "Minimum level in liters", Required: true, Type: "number", Example: "12000"},
			{Name: "targetLevelLiters", Description: "Target level in liters", Required: true, Type: "number", Example: "40000"},
		},
		SampleData: []map[string]string{
			{"depotCode": "DEP-NORTH", "fuelCode": "DT", "criticalLevelLiters": "5000", "minLevelLiters": "12000", "targetLevelLiters": "40000"},
			{"depotCode": "DEP-NORTH", "fuelCode": "A95", "criticalLevelLiters": "2000", "minLevelLiters": "6000", "targetLevelLiters": "20000"},
		},
	}
}

// ImportHandler serves stock policy import
type ImportHandler struct {
	service *services.PolicyService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(service *services.PolicyService) *ImportHandler {
	return &ImportHandler{service: service}
}

// GetStockPolicyImportTemplate returns the stock policy import template
// @Summary Stock policy import template
// @Tags Stock Policies
// @Produce json
// @Param format query string false "json, csv or xlsx" default(json)
// @Router /api/v1/stock-policies/import/template [get]
func (h *ImportHandler) GetStockPolicyImportTemplate(c *gin.Context) {
	template := StockPolicyImportTemplate()

	switch c.DefaultQuery("format", "json") {
	case "csv":
		h.writeCSVTemplate(c, template)
	case "xlsx":
		h.writeXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{"success": true, "template": template})
	}
}

func (h *ImportHandler) writeCSVTemplate(c *gin.Context, template ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=stock_policies_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	_ = writer.Write(headers)

	for _, sample := range template.SampleData {
		row := make([]string, len(template.Columns))
		for i, col := range template.Columns {
			row[i] = sample[col.Name]
		}
		_ = writer.Write(row)
	}
}

func (h *ImportHandler) writeXLSXTemplate(c *gin.Context, template ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	_ = f.SetSheetName("Sheet1", policySheet)

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(policySheet, cell, col.Name+" *")
		_ = f.SetCellStyle(policySheet, cell, cell, requiredStyle)

		colName, _ := excelize.ColumnNumberToName(i + 1)
		_ = f.SetColWidth(policySheet, colName, colName, 22)
	}

	for rowIdx, sample := range template.SampleData {
		for colIdx, col := range template.Columns {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			_ = f.SetCellValue(policySheet, cell, sample[col.Name])
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=stock_policies_import_template.xlsx")
	_ = f.Write(c.Writer)
}

// ImportStockPolicies upserts stock policies from a CSV or Excel file
// @Summary Import stock policies
// @Tags Stock Policies
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "CSV or XLSX file"
// @Success 200 {object} models.SuccessResponse{data=services.ImportResult}
// @Failure 400 {object} models.ErrorResponse
// @Router /api/v1/stock-policies/import [post]
func (h *ImportHandler) ImportStockPolicies(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "FILE_REQUIRED", "Please upload a CSV or Excel file")
		return
	}
	defer file.Close()

	records, err := parseFile(file, header.Filename)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "PARSE_ERROR", err.Error())
		return
	}
	if len(records) == 0 {
		abortWithError(c, http.StatusBadRequest, "EMPTY_FILE", "The file contains no data rows")
		return
	}

	rows, rowErrors := policyRows(records)

	result, err := h.service.ImportPolicies(c.Request.Context(), rows)
	if err != nil {
		respondError(c, err, true)
		return
	}

	result.TotalRows += len(rowErrors)
	result.Skipped += len(rowErrors)
	result.Errors = append(result.Errors, rowErrors...)
	slices.SortFunc(result.Errors, func(a, b services.ImportRowError) int {
		return cmp.Compare(a.Row, b.Row)
	})

	ok(c, result)
}

// policyRows converts parsed records, reporting rows whose numbers do not parse
func policyRows(records []map[string]string) ([]services.PolicyRow, []services.ImportRowError) {
	var rows []services.PolicyRow
	var rowErrors []services.ImportRowError

	for _, rec := range records {
		rowNum, _ := strconv.Atoi(rec["_row"])
		row := services.PolicyRow{
			Row:       rowNum,
			DepotCode: rec["depotcode"],
			FuelCode:  rec["fuelcode"],
		}

		var bad []string
		for _, field := range []struct {
			column string
			target *float64
		}{
			{"criticallevelliters", &row.CriticalLiters},
			{"minlevelliters", &row.MinLiters},
			{"targetlevelliters", &row.TargetLiters},
		} {
			v, err := strconv.ParseFloat(rec[field.column], 64)
			if err != nil {
				bad = append(bad, field.column)
				continue
			}
			*field.target = v
		}
		if len(bad) > 0 {
			rowErrors = append(rowErrors, services.ImportRowError{
				Row:     rowNum,
				Message: fmt.Sprintf("invalid number in %s", strings.Join(bad, ", ")),
			})
			continue
		}
		rows = append(rows, row)
	}
	return rows, rowErrors
}

func parseFile(file io.Reader, filename string) ([]map[string]string, error) {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".csv"):
		return parseCSV(file)
	case strings.HasSuffix(name, ".xlsx"):
		return parseXLSX(file)
	}
	return nil, fmt.Errorf("only CSV and XLSX files are supported")
}

func normalizeHeaders(headers []string) {
	for i := range headers {
		headers[i] = strings.TrimSuffix(strings.TrimSpace(strings.ToLower(headers[i])), " *")
	}
}

func parseCSV(file io.Reader) ([]map[string]string, error) {
	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}
	normalizeHeaders(headers)

	var rows []map[string]string
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading line %d: %w", line, err)
		}
		rows = append(rows, toRecord(headers, record, line))
	}
	return rows, nil
}

func parseXLSX(file io.Reader) ([]map[string]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("no sheets found in Excel file")
	}

	excelRows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(excelRows) < 2 {
		return nil, fmt.Errorf("file must have a header row and at least one data row")
	}

	headers := excelRows[0]
	normalizeHeaders(headers)

	var rows []map[string]string
	for i, excelRow := range excelRows[1:] {
		rows = append(rows, toRecord(headers, excelRow, i+2))
	}
	return rows, nil
}

func toRecord(headers, values []string, line int) map[string]string {
	row := make(map[string]string, len(headers)+1)
	for i, value := range values {
		if i < len(headers) {
			row[headers[i]] = strings.TrimSpace(value)
		}
	}
	row["_row"] = strconv.Itoa(line)
	return row
}
