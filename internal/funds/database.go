package funds

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

func (d *Database) List() ([]Fund, error) {
	var out []Fund
	if err := d.db.Where("is_active = ?", true).Order("id").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) GetByID(id int64) (*Fund, error) {
	var f Fund
	if err := d.db.First(&f, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (d *Database) GetByIDs(ids []int64) ([]Fund, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var out []Fund
	if err := d.db.Where("id IN ?", ids).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Database) GetByCode(code string) (*Fund, error) {
	var f Fund
	if err := d.db.Where("code = ?", code).First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &f, nil
}

func (d *Database) Count() (int64, error) {
	var n int64
	err := d.db.Model(&Fund{}).Count(&n).Error
	return n, err
}
