package models

// Category classifies listings (house, apartment, ...).
type Category struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"nombre" gorm:"type:varchar(30);not null"`
}

func (Category) TableName() string { return "categorias" }

// Price is a price bracket listings are filed under.
type Price struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"nombre" gorm:"type:varchar(30);not null"`
}

func (Price) TableName() string { return "precios" }

// All returns every model the schema is built from, in dependency order.
func All() []any {
	return []any{&Category{}, &Price{}, &User{}, &Property{}, &Message{}}
}
