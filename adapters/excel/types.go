package excel

// RawRowData represents a row of raw sheet data as header-keyed strings
type RawRowData map[string]string

// SheetData represents one parsed worksheet or CSV file
type SheetData struct {
	Headers []string     // Column headers, trimmed, in file order
	Rows    []RawRowData // Data rows; row i is line i+2 of the source
}
