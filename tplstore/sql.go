package tplstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/lvillar/quotepdf/doctpl"
)

// TemplateModel is the database row of a stored template. Body holds the
// template as JSON.
type TemplateModel struct {
	ID        string `gorm:"primaryKey;size:64"`
	Name      string `gorm:"size:200;not null"`
	Version   string `gorm:"size:32"`
	Body      string `gorm:"type:text;not null"`
	Active    bool   `gorm:"not null;default:true;index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName implements gorm's tabler.
func (TemplateModel) TableName() string { return "document_templates" }

// SQLStore keeps templates in a SQL table through gorm.
type SQLStore struct {
	db *gorm.DB
}

// NewSQLStore creates a store on db.
func NewSQLStore(db *gorm.DB) *SQLStore {
	return &SQLStore{db: db}
}

// Migrate creates or updates the templates table.
func (s *SQLStore) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&TemplateModel{})
}

// Get returns the active template id.
func (s *SQLStore) Get(ctx context.Context, id string) (*doctpl.Template, error) {
	var m TemplateModel
	err := s.db.WithContext(ctx).Where("id = ? AND active = ?", id, true).First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("tplstore: loading %q: %w", id, err)
	}
	return decode(m.ID, []byte(m.Body))
}

// Save validates tpl and inserts or replaces it. tpl.ID must be set.
func (s *SQLStore) Save(ctx context.Context, tpl *doctpl.Template) error {
	if tpl == nil || tpl.ID == "" {
		return errors.New("tplstore: template id is required")
	}
	valid, err := doctpl.Validate(tpl)
	if err != nil {
		return err
	}
	body, err := json.Marshal(valid)
	if err != nil {
		return fmt.Errorf("tplstore: encoding %q: %w", tpl.ID, err)
	}
	m := TemplateModel{
		ID:      valid.ID,
		Name:    valid.Name,
		Version: valid.Version,
		Body:    string(body),
		Active:  true,
	}
	err = s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "version", "body", "active", "updated_at"}),
	}).Create(&m).Error
	if err != nil {
		return fmt.Errorf("tplstore: saving %q: %w", tpl.ID, err)
	}
	return nil
}

// Deactivate hides a template from Get without deleting it.
func (s *SQLStore) Deactivate(ctx context.Context, id string) error {
	res := s.db.WithContext(ctx).Model(&TemplateModel{}).Where("id = ?", id).Update("active", false)
	if res.Error != nil {
		return fmt.Errorf("tplstore: deactivating %q: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return nil
}
