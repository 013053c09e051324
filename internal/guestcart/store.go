package guestcart

import (
	"context"
	"fmt"

	"github.com/ElisioMassango/chelevi-sub000/pkg/logger"
	"github.com/ElisioMassango/chelevi-sub000/pkg/types"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Store persists the guest cart in device-local storage. It is only ever
// written by the cart store from the single UI-facing goroutine; corruption on
// read is swallowed and treated as an empty cart.
type Store struct {
	db   *gorm.DB
	logg *logger.Logger
}

// NewStore migrates the guest cart table and returns the store.
func NewStore(db *gorm.DB, logg *logger.Logger) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("guest store database required")
	}
	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("migrating guest cart schema: %w", err)
	}
	return &Store{db: db, logg: logg}, nil
}

// Items returns the persisted line items. Read failures and unreadable rows
// degrade to an empty (or shorter) list rather than an error.
func (s *Store) Items(ctx context.Context) []types.CartLineItem {
	var records []Record
	if err := s.db.WithContext(ctx).Order("position asc").Find(&records).Error; err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "guest cart unreadable, treating as empty")
		}
		return nil
	}

	items := make([]types.CartLineItem, 0, len(records))
	for _, record := range records {
		if record.SchemaVersion != schemaVersion || record.ProductID == "" {
			continue
		}
		price, err := decimal.NewFromString(record.UnitPrice)
		if err != nil {
			continue
		}
		items = append(items, types.CartLineItem{
			ID:           record.ProductID,
			Name:         record.Name,
			UnitPrice:    price,
			Image:        record.Image,
			Quantity:     record.Quantity,
			VariantLabel: record.VariantLabel,
			VariantID:    record.VariantID,
		})
	}
	return items
}

// Replace serializes the full item list, dropping whatever was stored before.
func (s *Store) Replace(ctx context.Context, items []types.CartLineItem) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&Record{}).Error; err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		records := make([]Record, 0, len(items))
		for i, item := range items {
			records = append(records, Record{
				ProductID:     item.ID,
				Name:          item.Name,
				UnitPrice:     item.UnitPrice.String(),
				Image:         item.Image,
				Quantity:      item.Quantity,
				VariantLabel:  item.VariantLabel,
				VariantID:     item.VariantID,
				Position:      i,
				SchemaVersion: schemaVersion,
			})
		}
		return tx.Create(&records).Error
	})
}

// Clear erases the guest cart.
func (s *Store) Clear(ctx context.Context) error {
	return s.db.WithContext(ctx).Where("1 = 1").Delete(&Record{}).Error
}
