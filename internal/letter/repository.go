package letter

import (
	"context"

	"github.com/changhyeonkim/letter-press/go-api-server/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type LetterRepository struct{}

func NewLetterRepository() *LetterRepository {
	return &LetterRepository{}
}

func (r *LetterRepository) Create(ctx context.Context, db *gorm.DB, letter *model.Letter) error {
	return db.WithContext(ctx).Create(letter).Error
}

func (r *LetterRepository) FindByID(ctx context.Context, db *gorm.DB, id uint32) (*model.Letter, error) {
	var letter model.Letter
	err := db.WithContext(ctx).Where("id = ?", id).First(&letter).Error
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// FindByIDForUpdate row-locks the letter for the rest of the transaction.
// SQLite ignores the locking clause; callers also hold a keyed lock.
func (r *LetterRepository) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id uint32) (*model.Letter, error) {
	var letter model.Letter
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&letter).Error
	if err != nil {
		return nil, err
	}
	return &letter, nil
}

// FindByIDs returns minimal display metadata for the given letters
func (r *LetterRepository) FindByIDs(ctx context.Context, db *gorm.DB, ids []uint32) ([]model.Letter, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var letters []model.Letter
	err := db.WithContext(ctx).
		Select("id", "author_id", "title", "type").
		Where("id IN ?", ids).
		Find(&letters).Error
	return letters, err
}

// ListIDsAfter pages through letter ids in ascending order
func (r *LetterRepository) ListIDsAfter(ctx context.Context, db *gorm.DB, afterID uint32, limit int) ([]uint32, error) {
	var ids []uint32
	err := db.WithContext(ctx).
		Model(&model.Letter{}).
		Where("id > ?", afterID).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *LetterRepository) UpdateSettings(ctx context.Context, db *gorm.DB, id uint32, settings map[string]interface{}) error {
	if len(settings) == 0 {
		return nil
	}
	return db.WithContext(ctx).
		Model(&model.Letter{}).
		Where("id = ?", id).
		Updates(settings).Error
}
