package catalog

import (
	"context"
	"encoding/json"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// Source supplies the full product list.
type Source interface {
	Products(ctx context.Context) ([]Product, error)
}

// SnapshotVersion is written into every msgpack snapshot header.
const SnapshotVersion = 1

// snapshot is the msgpack envelope. Prices travel as decimal strings so
// the encoding does not depend on decimal.Decimal internals.
type snapshot struct {
	Version  int              `msgpack:"v"`
	Products []snapshotRecord `msgpack:"p"`
}

type snapshotRecord struct {
	ID            string    `msgpack:"id"`
	Name          string    `msgpack:"n"`
	Description   string    `msgpack:"d,omitempty"`
	Price         string    `msgpack:"pr"`
	OriginalPrice string    `msgpack:"op,omitempty"`
	Category      string    `msgpack:"c"`
	Subcategory   string    `msgpack:"sc,omitempty"`
	Brand         string    `msgpack:"b,omitempty"`
	Rating        float64   `msgpack:"r"`
	ReviewCount   int       `msgpack:"rc"`
	InStock       bool      `msgpack:"s"`
	Tags          []string  `msgpack:"t,omitempty"`
	CreatedAt     time.Time `msgpack:"ca"`
	SourceURL     string    `msgpack:"u,omitempty"`
}

// FileSource loads products from a JSON or msgpack file.
type FileSource struct {
	path string
}

// NewFileSource creates a source for a catalog file; the format is picked from the extension on each load.
func NewFileSource(path string) *FileSource {
	return &FileSource{path: path}
}

// Path returns the file this source reads
func (fs *FileSource) Path() string {
	return fs.path
}

// Products reads and decodes the catalog file.
func (fs *FileSource) Products(ctx context.Context) ([]Product, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	format, err := DetectFileFormat(fs.path)
	if err != nil {
		return nil, err
	}
	if err := ValidateFileFormat(fs.path, format); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(fs.path)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", fs.path)
	}

	var products []Product
	switch format {
	case FormatJSON:
		products, err = decodeJSON(data)
	case FormatMsgpack:
		products, err = decodeSnapshot(data)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decode %s", fs.path)
	}

	log.Debugf("Loaded %d products from %s", len(products), fs.path)
	return products, nil
}

func decodeJSON(data []byte) ([]Product, error) {
	var products []Product
	if err := json.Unmarshal(data, &products); err != nil {
		return nil, err
	}
	if products == nil {
		products = []Product{}
	}
	return products, nil
}

func decodeSnapshot(data []byte) ([]Product, error) {
	var snap snapshot
	if err := msgpack.Unmarshal(data, &snap); err != nil {
		return nil, err
	}
	if snap.Version != SnapshotVersion {
		return nil, errors.Errorf("snapshot version %d, want %d", snap.Version, SnapshotVersion)
	}

	products := make([]Product, 0, len(snap.Products))
	for _, rec := range snap.Products {
		p, err := rec.toProduct()
		if err != nil {
			return nil, errors.Wrapf(err, "product %s", rec.ID)
		}
		products = append(products, p)
	}
	return products, nil
}

// SaveSnapshot writes products to path as a msgpack snapshot.
func SaveSnapshot(path string, products []Product) error {
	snap := snapshot{
		Version:  SnapshotVersion,
		Products: make([]snapshotRecord, 0, len(products)),
	}
	for _, p := range products {
		snap.Products = append(snap.Products, newSnapshotRecord(p))
	}

	data, err := msgpack.Marshal(&snap)
	if err != nil {
		return errors.Wrap(err, "encode snapshot")
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	log.Debugf("Saved %d products to snapshot %s", len(products), path)
	return nil
}

func newSnapshotRecord(p Product) snapshotRecord {
	rec := snapshotRecord{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.String(),
		Category:    p.Category,
		Subcategory: p.Subcategory,
		Brand:       p.Brand,
		Rating:      p.Rating,
		ReviewCount: p.ReviewCount,
		InStock:     p.InStock,
		Tags:        p.Tags,
		CreatedAt:   p.CreatedAt,
		SourceURL:   p.SourceURL,
	}
	if p.OriginalPrice != nil {
		rec.OriginalPrice = p.OriginalPrice.String()
	}
	return rec
}

func (rec snapshotRecord) toProduct() (Product, error) {
	price, err := decimal.NewFromString(rec.Price)
	if err != nil {
		return Product{}, errors.Wrap(err, "price")
	}
	p := Product{
		ID:          rec.ID,
		Name:        rec.Name,
		Description: rec.Description,
		Price:       price,
		Category:    rec.Category,
		Subcategory: rec.Subcategory,
		Brand:       rec.Brand,
		Rating:      rec.Rating,
		ReviewCount: rec.ReviewCount,
		InStock:     rec.InStock,
		Tags:        rec.Tags,
		CreatedAt:   rec.CreatedAt,
		SourceURL:   rec.SourceURL,
	}
	if rec.OriginalPrice != "" {
		op, err := decimal.NewFromString(rec.OriginalPrice)
		if err != nil {
			return Product{}, errors.Wrap(err, "original price")
		}
		p.OriginalPrice = &op
	}
	return p, nil
}
