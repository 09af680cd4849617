package vmssync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/admiralorbiter/VMS-sub007/config"
	"github.com/xuri/excelize/v2"
)

// spreadsheetPageSize bounds rows per Query page for workbook sources.
const spreadsheetPageSize = 200

// spreadsheetConnector reads a curated .xlsx workbook instead of the live
// source: one sheet per entity type, header row carrying the source field
// names, one record per row. Used for ad-hoc and backfill imports.
type spreadsheetConnector struct {
	path string
	file *excelize.File
}

func NewSpreadsheetConnector(path string) (Connector, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("spreadsheet path is empty")
	}
	return &spreadsheetConnector{path: path}, nil
}

func (c *spreadsheetConnector) Name() string {
	return "spreadsheet"
}

// Authenticate opens the workbook. There are no credentials; a missing or
// unreadable file is the equivalent failure.
func (c *spreadsheetConnector) Authenticate(ctx context.Context) error {
	if c.file != nil {
		return nil
	}
	f, err := excelize.OpenFile(c.path)
	if err != nil {
		return &ConnectorError{Kind: ErrorKindAuth, Message: fmt.Sprintf("cannot open workbook %s: %v", c.path, err)}
	}
	c.file = f
	return nil
}

// Query pages through the entity's sheet. The page token is the 1-based
// data row offset; filters are ignored since workbooks arrive pre-filtered.
func (c *spreadsheetConnector) Query(ctx context.Context, entityType string, filter string, pageToken string) (*QueryPage, error) {
	header, rows, err := c.sheetRows(entityType)
	if err != nil {
		return nil, err
	}

	offset := 0
	if pageToken != "" {
		offset, err = strconv.Atoi(pageToken)
		if err != nil || offset < 0 {
			return nil, &ConnectorError{Kind: ErrorKindMalformedQuery, Message: "invalid page token " + pageToken}
		}
	}
	if offset > len(rows) {
		offset = len(rows)
	}

	page := &QueryPage{}
	for _, row := range rows {
		if !rowIsEmpty(row) {
			page.TotalSize++
		}
	}
	end := offset + spreadsheetPageSize
	if end > len(rows) {
		end = len(rows)
	}
	for _, row := range rows[offset:end] {
		record := rowToRecord(header, row)
		if record == nil {
			continue
		}
		page.Records = append(page.Records, record)
	}
	if end < len(rows) {
		page.NextPageToken = strconv.Itoa(end)
	}
	return page, nil
}

func (c *spreadsheetConnector) Count(ctx context.Context, entityType string, filter string) (int64, error) {
	_, rows, err := c.sheetRows(entityType)
	if err != nil {
		return 0, err
	}
	var count int64
	for _, row := range rows {
		if !rowIsEmpty(row) {
			count++
		}
	}
	return count, nil
}

func (c *spreadsheetConnector) sheetRows(entityType string) ([]string, [][]string, error) {
	if c.file == nil {
		return nil, nil, &ConnectorError{Kind: ErrorKindAuth, Message: "workbook not opened"}
	}
	rows, err := c.file.GetRows(entityType)
	if err != nil {
		return nil, nil, &ConnectorError{Kind: ErrorKindMalformedQuery, Message: fmt.Sprintf("sheet %q: %v", entityType, err)}
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = strings.TrimSpace(cell)
	}
	return header, rows[1:], nil
}

// rowToRecord marshals one sheet row into the same JSON shape the live
// source emits. Empty cells are omitted so optional fields stay absent.
func rowToRecord(header []string, row []string) json.RawMessage {
	if rowIsEmpty(row) {
		return nil
	}
	record := make(map[string]string, len(header))
	for i, name := range header {
		if name == "" || i >= len(row) {
			continue
		}
		value := strings.TrimSpace(row[i])
		if value == "" {
			continue
		}
		record[name] = value
	}
	if len(record) == 0 {
		return nil
	}
	data, err := json.Marshal(record)
	if err != nil {
		config.LogError(config.GetLogger(), "vmssync", "rowToRecord", "Failed to encode sheet row", record, err)
		return nil
	}
	return data
}

func rowIsEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
