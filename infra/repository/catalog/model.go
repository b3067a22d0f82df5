package catalog

import (
	"time"

	"github.com/amirasaad/walletledger/pkg/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents a catalog item in the database.
type Product struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name        string          `gorm:"type:varchar(255);not null"`
	Price       decimal.Decimal `gorm:"type:numeric(20,2);not null"`
	Description string          `gorm:"type:text"`
	CreatedAt   time.Time
}

// TableName specifies the table name for the Product model.
func (Product) TableName() string {
	return "products"
}

func fromDomain(i *domain.Item) Product {
	return Product{
		ID:          i.ID,
		Name:        i.Name,
		Price:       i.Price,
		Description: i.Description,
		CreatedAt:   i.CreatedAt,
	}
}

func toDomain(m *Product) domain.Item {
	return domain.Item{
		ID:          m.ID,
		Name:        m.Name,
		Price:       m.Price,
		Description: m.Description,
		CreatedAt:   m.CreatedAt,
	}
}
