package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"        json:"id"`
	PhoneNumber  string    `gorm:"size:15;uniqueIndex;not null" json:"phone_number"`
	UserType     string    `gorm:"size:20;not null;index"      json:"user_type"`
	Name         string    `gorm:"size:255;not null"           json:"name"`
	Email        string    `gorm:"size:255"                    json:"email,omitempty"`
	AadharNumber string    `gorm:"size:12"                     json:"aadhar_number,omitempty"`
	GSTNumber    string    `gorm:"size:15"                     json:"gst_number,omitempty"`
	District     string    `gorm:"size:100;not null;index"     json:"district"`
	Taluk        string    `gorm:"size:100"                    json:"taluk,omitempty"`
	Village      string    `gorm:"size:100"                    json:"village,omitempty"`
	Address      string    `json:"address,omitempty"`
	BankAccount  string    `gorm:"size:20"                     json:"-"`
	IFSCCode     string    `gorm:"size:11"                     json:"-"`
	IsVerified   bool      `gorm:"default:false"               json:"is_verified"`
	IsActive     bool      `gorm:"default:true"                json:"is_active"`
	Language     string    `gorm:"size:10;default:tamil"       json:"language"`
	ProfileImage string    `gorm:"size:500"                    json:"profile_image,omitempty"`
	Latitude     *float64  `json:"latitude,omitempty"`
	Longitude    *float64  `json:"longitude,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

type Crop struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	CropName         string    `gorm:"size:100;not null"       json:"crop_name"`
	CropNameTamil    string    `gorm:"size:100;not null"       json:"crop_name_tamil"`
	Category         string    `gorm:"size:50;not null;index"  json:"category"`
	HarvestSeason    string    `gorm:"size:20;not null"        json:"harvest_season"`
	TypicalDistricts string    `gorm:"size:500"                json:"typical_districts,omitempty"`
	Description      string    `json:"description,omitempty"`
	IsActive         bool      `gorm:"default:true"            json:"is_active"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func (c *Crop) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type Product struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey"    json:"id"`
	FarmerID       uuid.UUID `gorm:"type:uuid;not null;index" json:"farmer_id"`
	CropID         uuid.UUID `gorm:"type:uuid;not null;index" json:"crop_id"`
	Variety        string    `gorm:"size:100;not null"       json:"variety"`
	Grade          string    `gorm:"size:1;not null"         json:"grade"`
	Quantity       float64   `gorm:"not null"                json:"quantity"`
	Unit           string    `gorm:"size:10;not null"        json:"unit"`
	PricePerUnit   float64   `gorm:"not null"                json:"price_per_unit"`
	HarvestDate    time.Time `gorm:"not null"                json:"harvest_date"`
	DeliveryWindow int       `gorm:"not null"                json:"delivery_window"`
	Description    string    `json:"description,omitempty"`
	Images         string    `gorm:"size:2000"               json:"images,omitempty"`
	IsAvailable    bool      `gorm:"default:true"            json:"is_available"`
	IsOrganic      bool      `gorm:"default:false"           json:"is_organic"`
	Certification  string    `gorm:"size:100"                json:"certification,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	Farmer *User `gorm:"foreignKey:FarmerID" json:"farmer,omitempty"`
	Crop   *Crop `gorm:"foreignKey:CropID"   json:"crop,omitempty"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type Order struct {
	ID              uuid.UUID     `gorm:"type:uuid;primaryKey"     json:"id"`
	BuyerID         uuid.UUID     `gorm:"type:uuid;not null;index" json:"buyer_id"`
	FarmerID        uuid.UUID     `gorm:"type:uuid;not null;index" json:"farmer_id"`
	ProductID       uuid.UUID     `gorm:"type:uuid;not null;index" json:"product_id"`
	Quantity        float64       `gorm:"not null"                 json:"quantity"`
	UnitPrice       float64       `gorm:"not null"                 json:"unit_price"`
	TotalAmount     float64       `gorm:"not null"                 json:"total_amount"`
	Status          OrderStatus   `gorm:"size:20;default:pending"  json:"status"`
	PaymentStatus   PaymentStatus `gorm:"size:20;default:pending"  json:"payment_status"`
	DeliveryAddress string        `gorm:"not null"                 json:"delivery_address"`
	DeliveryDate    *time.Time    `json:"delivery_date,omitempty"`
	Notes           string        `json:"notes,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Buyer   *User    `gorm:"foreignKey:BuyerID"   json:"buyer,omitempty"`
	Farmer  *User    `gorm:"foreignKey:FarmerID"  json:"farmer,omitempty"`
	Product *Product `gorm:"foreignKey:ProductID" json:"product,omitempty"`
}

func (o *Order) BeforeCreate(tx *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

type PriceHistory struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	CropID     uuid.UUID `gorm:"type:uuid;not null;index" json:"crop_id"`
	District   string    `gorm:"size:100;not null;index"  json:"district"`
	PricePerKg float64   `gorm:"not null"                 json:"price_per_kg"`
	Date       time.Time `gorm:"not null"                 json:"date"`
	Source     string    `gorm:"size:50;not null"         json:"source"`
	Grade      string    `gorm:"size:1;not null"          json:"grade"`
	CreatedAt  time.Time `json:"created_at"`
}

func (p *PriceHistory) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type PricePrediction struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	CropID          uuid.UUID `gorm:"type:uuid;not null;index" json:"crop_id"`
	District        string    `gorm:"size:100;not null;index"  json:"district"`
	PredictedPrice  float64   `gorm:"not null"                 json:"predicted_price"`
	ConfidenceScore float64   `gorm:"not null"                 json:"confidence_score"`
	PredictionDate  time.Time `gorm:"not null"                 json:"prediction_date"`
	ModelVersion    string    `gorm:"size:20"                  json:"model_version,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (p *PricePrediction) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

type ChatMessage struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"     json:"id"`
	SenderID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"sender_id"`
	ReceiverID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"receiver_id"`
	ProductID   *uuid.UUID `gorm:"type:uuid;index"          json:"product_id,omitempty"`
	Message     string     `gorm:"not null"                 json:"message"`
	MessageType string     `gorm:"size:10;default:text"     json:"message_type"`
	IsRead      bool       `gorm:"default:false"            json:"is_read"`
	CreatedAt   time.Time  `json:"created_at"`

	Sender   *User    `gorm:"foreignKey:SenderID"   json:"sender,omitempty"`
	Receiver *User    `gorm:"foreignKey:ReceiverID" json:"receiver,omitempty"`
	Product  *Product `gorm:"foreignKey:ProductID"  json:"product,omitempty"`
}

func (m *ChatMessage) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

type Contract struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"     json:"id"`
	OrderID         uuid.UUID `gorm:"type:uuid;not null;index" json:"order_id"`
	FarmerSignature string    `json:"farmer_signature,omitempty"`
	BuyerSignature  string    `json:"buyer_signature,omitempty"`
	ContractTerms   string    `gorm:"not null"                 json:"contract_terms"`
	Status          string    `gorm:"size:20;default:draft"    json:"status"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (c *Contract) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
