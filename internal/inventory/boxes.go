package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hortifruti-pdv/internal/models"
	"hortifruti-pdv/internal/sales"
	"hortifruti-pdv/internal/session"
)

// Supplier box statuses. Damaged and lost boxes keep their status when
// weight moves; the other two follow the weight.
const (
	BoxAvailable = "disponivel"
	BoxInUse     = "em_uso"
	BoxDamaged   = "danificada"
	BoxLost      = "perdida"
)

var (
	ErrBoxNotFound        = errors.New("supplier box not found")
	ErrSupplierNotFound   = errors.New("supplier not found")
	ErrBoxRequired        = errors.New("supplier_id and box_number are required")
	ErrDuplicateBox       = errors.New("box number already exists for this supplier")
	ErrInvalidBoxStatus   = errors.New("box status must be disponivel, em_uso, danificada or perdida")
	ErrInvalidBoxMovement = errors.New("box movement type must be entrada or saida")
	ErrInsufficientWeight = errors.New("insufficient weight in box")
)

func validBoxStatus(s string) bool {
	switch s {
	case BoxAvailable, BoxInUse, BoxDamaged, BoxLost:
		return true
	}
	return false
}

// BoxInput creates or edits a supplier box. SupplierID is only read on create.
type BoxInput struct {
	SupplierID uint             `json:"supplier_id"`
	BoxNumber  *string          `json:"box_number"`
	BoxType    *string          `json:"box_type"`
	Capacity   *decimal.Decimal `json:"capacity"`
	Status     *string          `json:"status"`
	Notes      *string          `json:"notes"`
	IsActive   *bool            `json:"is_active"`
}

func (in BoxInput) apply(b *models.SupplierBox) error {
	if in.BoxNumber != nil {
		b.BoxNumber = strings.TrimSpace(*in.BoxNumber)
	}
	if in.BoxType != nil {
		b.BoxType = *in.BoxType
	}
	if in.Capacity != nil {
		c := *in.Capacity
		b.Capacity = &c
	}
	if in.Status != nil {
		b.Status = strings.ReplaceAll(*in.Status, "í", "i")
	}
	if in.Notes != nil {
		b.Notes = *in.Notes
	}
	if in.IsActive != nil {
		b.IsActive = *in.IsActive
	}

	if b.BoxNumber == "" {
		return ErrBoxRequired
	}
	if !validBoxStatus(b.Status) {
		return ErrInvalidBoxStatus
	}
	if b.Capacity != nil && b.Capacity.IsNegative() {
		return ErrInvalidQuantity
	}
	return nil
}

type BoxFilter struct {
	SupplierID uint
	Status     string
}

// Boxes lists active boxes, newest first.
func Boxes(ctx context.Context, db *gorm.DB, f BoxFilter) ([]models.SupplierBox, error) {
	q := db.WithContext(ctx).Preload("Supplier").Where("is_active = ?", true)
	if f.SupplierID != 0 {
		q = q.Where("supplier_id = ?", f.SupplierID)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	var out []models.SupplierBox
	err := q.Order("created_at DESC").Order("id DESC").Find(&out).Error
	return out, err
}

func Box(ctx context.Context, db *gorm.DB, id uint) (*models.SupplierBox, error) {
	var box models.SupplierBox
	if err := db.WithContext(ctx).Preload("Supplier").First(&box, id).Error; err != nil {
		return nil, notFound(err, ErrBoxNotFound)
	}
	return &box, nil
}

// CreateBox registers a new empty box. Box numbers are unique per supplier.
func CreateBox(ctx context.Context, db *gorm.DB, in BoxInput) (*models.SupplierBox, error) {
	if in.SupplierID == 0 {
		return nil, ErrBoxRequired
	}
	box := models.SupplierBox{SupplierID: in.SupplierID, Status: BoxAvailable, IsActive: true}
	if err := in.apply(&box); err != nil {
		return nil, err
	}

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Select("id").First(&models.Supplier{}, in.SupplierID).Error; err != nil {
			return notFound(err, ErrSupplierNotFound)
		}
		if err := boxNumberFree(tx, box); err != nil {
			return err
		}
		return tx.Create(&box).Error
	})
	if err != nil {
		return nil, err
	}
	return Box(ctx, db, box.ID)
}

func UpdateBox(ctx context.Context, db *gorm.DB, id uint, in BoxInput) (*models.SupplierBox, error) {
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var box models.SupplierBox
		if err := tx.First(&box, id).Error; err != nil {
			return notFound(err, ErrBoxNotFound)
		}
		if err := in.apply(&box); err != nil {
			return err
		}
		if err := boxNumberFree(tx, box); err != nil {
			return err
		}
		return tx.Model(&models.SupplierBox{ID: box.ID}).Updates(map[string]any{
			"box_number": box.BoxNumber,
			"box_type":   box.BoxType,
			"capacity":   box.Capacity,
			"status":     box.Status,
			"notes":      box.Notes,
			"is_active":  box.IsActive,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return Box(ctx, db, id)
}

// DeactivateBox hides a box from listings. Its movements are kept.
func DeactivateBox(ctx context.Context, db *gorm.DB, id uint) error {
	res := db.WithContext(ctx).Model(&models.SupplierBox{}).Where("id = ?", id).Update("is_active", false)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrBoxNotFound
	}
	return nil
}

func boxNumberFree(tx *gorm.DB, box models.SupplierBox) error {
	var n int64
	err := tx.Model(&models.SupplierBox{}).
		Where("supplier_id = ? AND box_number = ? AND id <> ?", box.SupplierID, box.BoxNumber, box.ID).
		Count(&n).Error
	if err != nil {
		return err
	}
	if n > 0 {
		return ErrDuplicateBox
	}
	return nil
}

type BoxMove struct {
	MovementType string          `json:"movement_type" binding:"required"`
	Weight       decimal.Decimal `json:"weight"`
	Notes        string          `json:"notes"`
}

// MoveBox records weight put into (entrada) or taken out of (saida) a box.
func MoveBox(ctx context.Context, db *gorm.DB, sess session.Session, boxID uint, m BoxMove) (*models.BoxMovement, *models.SupplierBox, error) {
	switch m.MovementType {
	case sales.MovementIn, sales.MovementOut:
	case "saída":
		m.MovementType = sales.MovementOut
	default:
		return nil, nil, ErrInvalidBoxMovement
	}
	if !m.Weight.IsPositive() {
		return nil, nil, ErrInvalidQuantity
	}

	var (
		box      models.SupplierBox
		movement models.BoxMovement
	)
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&box, boxID).Error; err != nil {
			return notFound(err, ErrBoxNotFound)
		}

		weight := box.CurrentWeight
		if m.MovementType == sales.MovementIn {
			weight = weight.Add(m.Weight)
		} else {
			if weight.LessThan(m.Weight) {
				return fmt.Errorf("%w: %s kg in box %s", ErrInsufficientWeight, weight, box.BoxNumber)
			}
			weight = weight.Sub(m.Weight)
		}

		movement = models.BoxMovement{
			SupplierBoxID: box.ID,
			UserID:        sess.UserID,
			MovementType:  m.MovementType,
			Weight:        m.Weight,
			Notes:         m.Notes,
		}
		if err := tx.Create(&movement).Error; err != nil {
			return err
		}

		box.CurrentWeight = weight
		if box.Status == BoxAvailable || box.Status == BoxInUse {
			box.Status = BoxInUse
			if weight.IsZero() {
				box.Status = BoxAvailable
			}
		}
		return tx.Model(&models.SupplierBox{ID: box.ID}).Updates(map[string]any{
			"current_weight": box.CurrentWeight,
			"status":         box.Status,
		}).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &movement, &box, nil
}

// BoxMovements lists the history of a box, newest first.
func BoxMovements(ctx context.Context, db *gorm.DB, boxID uint) ([]models.BoxMovement, error) {
	var out []models.BoxMovement
	err := db.WithContext(ctx).
		Preload("User").
		Where("supplier_box_id = ?", boxID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error
	return out, err
}

type BoxStatusCount struct {
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// BoxStatusSummary counts active boxes per status.
func BoxStatusSummary(ctx context.Context, db *gorm.DB) ([]BoxStatusCount, error) {
	out := []BoxStatusCount{}
	err := db.WithContext(ctx).Model(&models.SupplierBox{}).
		Select("status, COUNT(*) AS count").
		Where("is_active = ?", true).
		Group("status").
		Order("status").
		Scan(&out).Error
	return out, err
}
