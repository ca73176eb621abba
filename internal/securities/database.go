package securities

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) List() ([]Security, error) {
	var out []Security
	if err := d.db.Where("is_active = ?", true).Order("ticker").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) GetByID(id int64) (*Security, error) {
	var s Security
	if err := d.db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (d *Database) GetByTicker(ticker string) (*Security, error) {
	var s Security
	if err := d.db.Where("ticker = ?", strings.ToUpper(ticker)).First(&s).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// Search matches the query as a case-insensitive substring of ticker or name.
func (d *Database) Search(query string) ([]Security, error) {
	like := "%" + strings.ToLower(query) + "%"
	var out []Security
	err := d.db.
		Where("is_active = ?", true).
		Where("LOWER(ticker) LIKE ? OR LOWER(name) LIKE ?", like, like).
		Order("ticker").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) Create(s *Security) error {
	return d.db.Create(s).Error
}

func (d *Database) Count() (int64, error) {
	var n int64
	err := d.db.Model(&Security{}).Count(&n).Error
	return n, err
}
