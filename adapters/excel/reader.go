package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"shelflife/internal"
	"shelflife/internal/errors"
)

// DataReader handles reading Excel and CSV stability files
type DataReader struct {
	filePath string
	fileType string // "xlsx" or "csv"
	sheet    string
	logger   *internal.Logger
}

// NewDataReader creates a new data reader that handles both Excel and CSV files
func NewDataReader(filePath string) *DataReader {
	return &DataReader{
		filePath: filePath,
		fileType: FileType(filePath),
		sheet:    "Sheet1",
		logger:   internal.DefaultLogger.WithComponent("DataReader"),
	}
}

// WithSheet selects the worksheet read from xlsx files
func (r *DataReader) WithSheet(sheet string) *DataReader {
	r.sheet = sheet
	return r
}

// FileType classifies a file name as "xlsx" or "csv", or "" when neither
func FileType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "csv"
	case ".xlsx", ".xlsm":
		return "xlsx"
	}
	return ""
}

// ReadData reads the configured file into structured format
func (r *DataReader) ReadData() (*SheetData, error) {
	r.logger.Info("Starting to read %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, errors.InvalidInput(fmt.Sprintf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath))
	}

	f, err := os.Open(r.filePath)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open %s", r.filePath)
	}
	defer f.Close()

	return r.read(f, r.fileType)
}

// ReadStream parses an uploaded stream; name only selects the format
func (r *DataReader) ReadStream(src io.Reader, name string) (*SheetData, error) {
	fileType := FileType(name)
	if fileType == "" {
		return nil, errors.Unsupported(fmt.Sprintf("unsupported file type: %s", filepath.Ext(name)))
	}
	return r.read(src, fileType)
}

func (r *DataReader) read(src io.Reader, fileType string) (*SheetData, error) {
	switch fileType {
	case "csv":
		return r.readCSVData(src)
	case "xlsx":
		return r.readExcelData(src)
	default:
		return nil, errors.Unsupported(fmt.Sprintf("unsupported file type: %s", fileType))
	}
}

func (r *DataReader) readExcelData(src io.Reader) (*SheetData, error) {
	startTime := time.Now()
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to open Excel file")
	}
	defer f.Close()
	r.logger.Debug("Excel file opened in %.2fms", float64(time.Since(startTime).Nanoseconds())/1e6)

	readStart := time.Now()
	rows, err := f.GetRows(r.sheet)
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), fmt.Sprintf("failed to read %s", r.sheet))
	}
	r.logger.Debug("%s read in %.2fms (%d rows)", r.sheet, float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("Excel file must have at least a header row and one data row")
	}
	return r.processRows(rows, "xlsx"), nil
}

func (r *DataReader) readCSVData(src io.Reader) (*SheetData, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	readStart := time.Now()
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(errors.InvalidInput(err.Error()), "failed to read CSV file")
	}
	r.logger.Debug("CSV file read in %.2fms (%d rows)", float64(time.Since(readStart).Nanoseconds())/1e6, len(rows))

	if len(rows) < 2 {
		return nil, errors.InvalidInput("CSV file must have at least a header row and one data row")
	}
	return r.processRows(rows, "csv"), nil
}

// processRows converts raw string rows into SheetData. Excel drops trailing
// empty cells, so short rows are tolerated.
func (r *DataReader) processRows(rows [][]string, fileType string) *SheetData {
	headerRow := rows[0]
	headers := make([]string, len(headerRow))
	for i, header := range headerRow {
		headers[i] = strings.TrimSpace(header)
	}

	dataRows := make([]RawRowData, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rowData := make(RawRowData, len(headers))
		for j, cell := range rows[i] {
			if j < len(headers) && headers[j] != "" {
				rowData[headers[j]] = strings.TrimSpace(cell)
			}
		}
		dataRows = append(dataRows, rowData)
	}

	r.logger.Info("%s file processed (%d columns, %d rows)", strings.ToUpper(fileType), len(headers), len(dataRows))

	return &SheetData{
		Headers: headers,
		Rows:    dataRows,
	}
}
