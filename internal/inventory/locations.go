package inventory

import (
	"context"
	"errors"
	"sort"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"hortifruti-pdv/internal/models"
)

var (
	ErrLocationNotFound   = errors.New("location not found")
	ErrStockEntryNotFound = errors.New("product location not found")
	ErrAlreadyStocked     = errors.New("product already exists in this location")
)

// StockInput creates or edits the stock a location holds of one product.
// ProductID is only read on create.
type StockInput struct {
	ProductID   uint             `json:"product_id"`
	Quantity    *decimal.Decimal `json:"quantity"`
	MinQuantity *decimal.Decimal `json:"min_quantity"`
	MaxQuantity *decimal.Decimal `json:"max_quantity"`
	Notes       *string          `json:"notes"`
}

func (in StockInput) apply(pl *models.ProductLocation) error {
	if in.Quantity != nil {
		pl.Quantity = *in.Quantity
	}
	if in.MinQuantity != nil {
		pl.MinQuantity = *in.MinQuantity
	}
	if in.MaxQuantity != nil {
		pl.MaxQuantity = *in.MaxQuantity
	}
	if in.Notes != nil {
		pl.Notes = *in.Notes
	}
	if pl.Quantity.IsNegative() || pl.MinQuantity.IsNegative() || pl.MaxQuantity.IsNegative() {
		return ErrInvalidQuantity
	}
	// a zero maximum means no ceiling
	if pl.MaxQuantity.IsPositive() && pl.MinQuantity.GreaterThan(pl.MaxQuantity) {
		return ErrInvalidQuantity
	}
	return nil
}

// LocationStock lists what a location holds, with product and supplier loaded.
func LocationStock(ctx context.Context, db *gorm.DB, locationID uint) ([]models.ProductLocation, error) {
	db = db.WithContext(ctx)
	if err := db.Select("id").First(&models.Location{}, locationID).Error; err != nil {
		return nil, notFound(err, ErrLocationNotFound)
	}
	var out []models.ProductLocation
	err := db.Preload("Product.Supplier").Preload("Location").
		Where("location_id = ?", locationID).
		Order("id").
		Find(&out).Error
	return out, err
}

// AddToLocation starts tracking a product at a location. A product is kept
// at most once per location.
func AddToLocation(ctx context.Context, db *gorm.DB, locationID uint, in StockInput) (*models.ProductLocation, error) {
	entry := models.ProductLocation{LocationID: locationID, ProductID: in.ProductID}
	if err := in.apply(&entry); err != nil {
		return nil, err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Location{}, locationID).Error; err != nil {
			return notFound(err, ErrLocationNotFound)
		}
		if err := tx.Select("id").First(&models.Product{}, in.ProductID).Error; err != nil {
			return notFound(err, ErrProductNotFound)
		}
		var n int64
		if err := tx.Model(&models.ProductLocation{}).
			Where("product_id = ? AND location_id = ?", in.ProductID, locationID).
			Count(&n).Error; err != nil {
			return err
		}
		if n > 0 {
			return ErrAlreadyStocked
		}
		return tx.Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}
	return stockEntry(ctx, db, locationID, entry.ID)
}

func UpdateLocationStock(ctx context.Context, db *gorm.DB, locationID, entryID uint, in StockInput) (*models.ProductLocation, error) {
	entry, err := stockEntry(ctx, db, locationID, entryID)
	if err != nil {
		return nil, err
	}
	if err := in.apply(entry); err != nil {
		return nil, err
	}
	err = db.WithContext(ctx).Model(&models.ProductLocation{ID: entry.ID}).Updates(map[string]any{
		"quantity":     entry.Quantity,
		"min_quantity": entry.MinQuantity,
		"max_quantity": entry.MaxQuantity,
		"notes":        entry.Notes,
	}).Error
	return entry, err
}

func RemoveFromLocation(ctx context.Context, db *gorm.DB, locationID, entryID uint) error {
	res := db.WithContext(ctx).Where("id = ? AND location_id = ?", entryID, locationID).Delete(&models.ProductLocation{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStockEntryNotFound
	}
	return nil
}

func stockEntry(ctx context.Context, db *gorm.DB, locationID, entryID uint) (*models.ProductLocation, error) {
	var entry models.ProductLocation
	err := db.WithContext(ctx).Preload("Product.Supplier").Preload("Location").
		Where("id = ? AND location_id = ?", entryID, locationID).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err, ErrStockEntryNotFound)
	}
	return &entry, nil
}

type LocationSummary struct {
	ID          uint             `json:"id"`
	Name        string           `json:"name"`
	Type        string           `json:"type,omitempty"`
	Temperature *decimal.Decimal `json:"temperature,omitempty"`
}

type StockedProduct struct {
	ID          uint            `json:"id"`
	Name        string          `json:"name"`
	Supplier    string          `json:"supplier"`
	Quantity    decimal.Decimal `json:"quantity"`
	MinQuantity decimal.Decimal `json:"min_quantity"`
	MaxQuantity decimal.Decimal `json:"max_quantity"`
	Unit        string          `json:"unit"`
	Notes       string          `json:"notes"`
}

type LocationOverview struct {
	Location LocationSummary  `json:"location"`
	Products []StockedProduct `json:"products"`
}

// StockOverview groups every tracked product by active location, ordered by
// location name.
func StockOverview(ctx context.Context, db *gorm.DB) ([]LocationOverview, error) {
	entries, err := trackedStock(ctx, db, nil)
	if err != nil {
		return nil, err
	}

	out := []LocationOverview{}
	index := map[uint]int{}
	for _, e := range entries {
		i, ok := index[e.LocationID]
		if !ok {
			i = len(out)
			index[e.LocationID] = i
			out = append(out, LocationOverview{
				Location: LocationSummary{
					ID:          e.Location.ID,
					Name:        e.Location.Name,
					Type:        e.Location.LocationType,
					Temperature: e.Location.Temperature,
				},
				Products: []StockedProduct{},
			})
		}
		out[i].Products = append(out[i].Products, StockedProduct{
			ID:          e.Product.ID,
			Name:        e.Product.Name,
			Supplier:    supplierName(e.Product),
			Quantity:    e.Quantity,
			MinQuantity: e.MinQuantity,
			MaxQuantity: e.MaxQuantity,
			Unit:        e.Product.Unit,
			Notes:       e.Notes,
		})
	}
	return out, nil
}

type StockAlertProduct struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Supplier string `json:"supplier"`
}

type StockAlert struct {
	Product         StockAlertProduct `json:"product"`
	Location        LocationSummary   `json:"location"`
	CurrentQuantity decimal.Decimal   `json:"current_quantity"`
	MinQuantity     decimal.Decimal   `json:"min_quantity"`
	Unit            string            `json:"unit"`
}

// LowStockAtLocations reports entries at or below their minimum. Entries
// without a minimum are never reported.
func LowStockAtLocations(ctx context.Context, db *gorm.DB) ([]StockAlert, error) {
	entries, err := trackedStock(ctx, db, func(q *gorm.DB) *gorm.DB {
		return q.Where("quantity <= min_quantity AND min_quantity > 0")
	})
	if err != nil {
		return nil, err
	}
	out := make([]StockAlert, 0, len(entries))
	for _, e := range entries {
		out = append(out, StockAlert{
			Product:         StockAlertProduct{ID: e.Product.ID, Name: e.Product.Name, Supplier: supplierName(e.Product)},
			Location:        LocationSummary{ID: e.Location.ID, Name: e.Location.Name},
			CurrentQuantity: e.Quantity,
			MinQuantity:     e.MinQuantity,
			Unit:            e.Product.Unit,
		})
	}
	return out, nil
}

// trackedStock loads entries of active locations sorted by location name.
func trackedStock(ctx context.Context, db *gorm.DB, scope func(*gorm.DB) *gorm.DB) ([]models.ProductLocation, error) {
	q := db.WithContext(ctx).Preload("Product.Supplier").Preload("Location").Order("id")
	if scope != nil {
		q = scope(q)
	}
	var all []models.ProductLocation
	if err := q.Find(&all).Error; err != nil {
		return nil, err
	}

	entries := all[:0]
	for _, e := range all {
		if e.Location != nil && e.Location.IsActive && e.Product != nil {
			entries = append(entries, e)
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Location.Name < entries[j].Location.Name
	})
	return entries, nil
}

func supplierName(p *models.Product) string {
	if p.Supplier == nil {
		return ""
	}
	return p.Supplier.Name
}

func notFound(err, target error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return target
	}
	return err
}
