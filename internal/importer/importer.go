// Package importer loads seller product catalogs from CSV.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"localbazaar/internal/domain"
	"localbazaar/internal/logging"
)

// Columns understood by the importer. Only name and price are mandatory.
const (
	colName        = "name"
	colDescription = "description"
	colPrice       = "price"
	colStock       = "stock_quantity"
	colCategory    = "category"
	colActive      = "is_active"
)

// maxReportedErrors caps the row errors echoed back to the caller.
const maxReportedErrors = 10

type ProductWriter interface {
	Create(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type CategoryWriter interface {
	Upsert(ctx context.Context, category domain.Category) (*domain.Category, error)
}

// CSVImporter validates every row before writing any product, so a file
// with a bad row imports nothing.
type CSVImporter struct {
	reader     *csv.Reader
	products   ProductWriter
	categories CategoryWriter
	shopID     int64
	logger     *zap.Logger
}

func NewCSVImporter(r io.Reader, products ProductWriter, categories CategoryWriter, shopID int64, logger *zap.Logger) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:     csvr,
		products:   products,
		categories: categories,
		shopID:     shopID,
		logger:     logging.OrNop(logger).Named("importer"),
	}
}

type csvRow struct {
	line        int
	Name        string
	Description string
	Price       decimal.Decimal
	Stock       int
	Category    string
	Active      bool
}

// Run parses the file and creates one product per row. It returns the created products.
func (i *CSVImporter) Run(ctx context.Context) ([]domain.Product, error) {
	rows, err := i.parse()
	if err != nil {
		return nil, err
	}

	categoryIDs := make(map[string]int64)
	created := make([]domain.Product, 0, len(rows))
	for _, row := range rows {
		p := domain.Product{
			ShopID:        i.shopID,
			Name:          row.Name,
			Description:   row.Description,
			Price:         row.Price,
			StockQuantity: row.Stock,
			IsActive:      row.Active,
		}
		if row.Category != "" {
			id, err := i.category(ctx, categoryIDs, row.Category)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", row.line, err)
			}
			p.CategoryID = &id
		}
		saved, err := i.products.Create(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("line %d: create product %q: %w", row.line, row.Name, err)
		}
		created = append(created, *saved)
	}
	i.logger.Info("imported products", zap.Int64("shop_id", i.shopID), zap.Int("count", len(created)))
	return created, nil
}

func (i *CSVImporter) category(ctx context.Context, cache map[string]int64, name string) (int64, error) {
	key := strings.ToLower(name)
	if id, ok := cache[key]; ok {
		return id, nil
	}
	c, err := i.categories.Upsert(ctx, domain.Category{Name: name})
	if err != nil {
		return 0, fmt.Errorf("upsert category %q: %w", name, err)
	}
	cache[key] = c.ID
	return c.ID, nil
}

func (i *CSVImporter) parse() ([]csvRow, error) {
	headers, err := i.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, domain.Validation(domain.CodeInvalidField, "csv file is empty")
	}
	if err != nil {
		return nil, domain.Validation(domain.CodeInvalidField, fmt.Sprintf("read headers: %v", err))
	}
	index := headerIndex(headers)
	for _, required := range []string{colName, colPrice} {
		if _, ok := index[required]; !ok {
			return nil, domain.Validation(domain.CodeMissingField, fmt.Sprintf("csv header %q required", required))
		}
	}

	var (
		rows    []csvRow
		rowErrs []string
		line    = 1
	)
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, domain.Validation(domain.CodeInvalidField, fmt.Sprintf("line %d: %v", line, err))
		}
		if blank(record) {
			continue
		}
		row, err := parseRow(record, index)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Sprintf("line %d: %v", line, err))
			continue
		}
		row.line = line
		rows = append(rows, row)
	}

	if len(rowErrs) > 0 {
		shown := rowErrs
		if len(shown) > maxReportedErrors {
			shown = append(shown[:maxReportedErrors:maxReportedErrors], fmt.Sprintf("and %d more", len(rowErrs)-maxReportedErrors))
		}
		return nil, domain.Validation(domain.CodeInvalidField, strings.Join(shown, "; "))
	}
	if len(rows) == 0 {
		return nil, domain.Validation(domain.CodeInvalidField, "csv file has no product rows")
	}
	return rows, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) (csvRow, error) {
	row := csvRow{
		Name:        pick(record, index, colName),
		Description: pick(record, index, colDescription),
		Category:    pick(record, index, colCategory),
		Active:      true,
	}
	if row.Name == "" {
		return row, errors.New("name required")
	}

	price, err := decimal.NewFromString(pick(record, index, colPrice))
	if err != nil {
		return row, fmt.Errorf("price: invalid decimal %q", pick(record, index, colPrice))
	}
	if !domain.ValidPrice(price) {
		return row, errors.New("price must be non-negative with at most 2 decimal places")
	}
	row.Price = price

	if s := pick(record, index, colStock); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return row, fmt.Errorf("stock_quantity: %q is not a non-negative integer", s)
		}
		row.Stock = n
	}
	if s := pick(record, index, colActive); s != "" {
		active, err := parseBool(s)
		if err != nil {
			return row, err
		}
		row.Active = active
	}
	return row, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "1", "true", "yes", "y":
		return true, nil
	case "0", "false", "no", "n":
		return false, nil
	}
	return false, fmt.Errorf("is_active: %q is not a boolean", s)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}
