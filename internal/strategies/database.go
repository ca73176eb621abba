package strategies

import (
	"errors"

	"gorm.io/gorm"
)

type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func (d *Database) List() ([]Strategy, error) {
	var out []Strategy
	if err := d.db.Where("is_active = ?", true).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) GetByID(id int64) (*Strategy, error) {
	var s Strategy
	if err := d.db.First(&s, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (d *Database) GetByIDs(ids []int64) ([]Strategy, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Strategy
	if err := d.db.Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) Count() (int64, error) {
	var n int64
	err := d.db.Model(&Strategy{}).Count(&n).Error
	return n, err
}
