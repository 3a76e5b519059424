package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"

	"storefront-checkout/internal/domain"
	"storefront-checkout/internal/pricing"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

// CSVImporter reads catalog exports and inserts or updates products by slug.
//
// Recognised columns: id, slug, name, brand, image, price. Only name and price
// are required; a missing slug is derived from the name.
type CSVImporter struct {
	reader      *csv.Reader
	productRepo ProductWriter
}

func NewCSVImporter(r io.Reader, repo ProductWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // rows may have trailing commas
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:      csvr,
		productRepo: repo,
	}
}

type csvRow struct {
	Line  int
	ID    string
	Slug  string
	Name  string
	Brand string
	Image string
	Price string
}

// Run upserts every data row and returns how many products were written. It
// stops at the first invalid row.
func (i *CSVImporter) Run(ctx context.Context) (int, error) {
	headers, err := i.reader.Read()
	if err != nil {
		return 0, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	if _, ok := index["name"]; !ok {
		return 0, errors.New("missing name column")
	}
	if _, ok := index["price"]; !ok {
		return 0, errors.New("missing price column")
	}

	imported := 0
	line := 1
	for {
		record, err := i.reader.Read()
		line++
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return imported, fmt.Errorf("read row: %w", err)
		}

		row := parseRow(record, index)
		if row == nil {
			continue
		}
		row.Line = line
		if err := i.save(ctx, row); err != nil {
			return imported, err
		}
		imported++
	}

	return imported, nil
}

func (i *CSVImporter) save(ctx context.Context, row *csvRow) error {
	if row.Name == "" || row.Price == "" {
		return fmt.Errorf("line %d: invalid product row (missing name or price)", row.Line)
	}
	price, err := decimal.NewFromString(row.Price)
	if err != nil {
		return fmt.Errorf("line %d: invalid price %q: %w", row.Line, row.Price, err)
	}
	if price.IsNegative() {
		return fmt.Errorf("line %d: negative price %s", row.Line, row.Price)
	}
	if !price.Equal(price.Round(2)) {
		return fmt.Errorf("line %d: price %s has more than two decimals", row.Line, row.Price)
	}

	slug := row.Slug
	if slug == "" {
		slug = slugify(row.Name)
	}

	p := domain.Product{
		ID:    row.ID,
		Slug:  slug,
		Name:  row.Name,
		Brand: row.Brand,
		Image: row.Image,
		Price: pricing.Float(price),
	}

	if _, err := i.productRepo.Upsert(ctx, p); err != nil {
		return fmt.Errorf("upsert product %q: %w", slug, err)
	}
	return nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func parseRow(record []string, index map[string]int) *csvRow {
	row := &csvRow{
		ID:    pick(record, index, "id"),
		Slug:  strings.ToLower(pick(record, index, "slug")),
		Name:  pick(record, index, "name"),
		Brand: pick(record, index, "brand"),
		Image: pick(record, index, "image"),
		Price: pick(record, index, "price"),
	}
	if row.ID == "" && row.Slug == "" && row.Name == "" && row.Price == "" {
		return nil
	}
	return row
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func slugify(name string) string {
	fields := strings.Fields(strings.ToLower(name))
	return strings.Join(fields, "-")
}
