package models

const (
	RoleAdmin = "ADMIN"
	RoleUser  = "USER"
)

const (
	UserActive    = "Active"
	UserInactive  = "Inactive"
	UserSuspended = "Suspended"
)

const (
	DeliveryPending          = "Pending"
	DeliveryAssigned         = "Assigned"
	DeliveryAssignmentFailed = "Assignment Failed"
	DeliveryShipped          = "Shipped"
	DeliveryDelivered        = "Delivered"
)

type User struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name             string `gorm:"not null"                  json:"name"`
	Email            string `gorm:"unique;not null"           json:"email"`
	PasswordHash     string `gorm:"not null"                  json:"-"`
	Role             string `gorm:"not null;default:USER"     json:"role"`
	Status           string `gorm:"not null;default:Active"   json:"status"`
	StripeCustomerID string `json:"stripe_customer_id"`
	LastLoginAt      int64  `json:"last_login_at"`
	ResetOTP         string `json:"-"`
	ResetOTPExpiry   int64  `json:"-"`
	ShoppingCart     string `json:"shopping_cart"`
}

type RefreshToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	Token     string `gorm:"unique;not null"     json:"token"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	Role      string `gorm:"not null"            json:"role"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`
	Revoked   bool   `gorm:"default:false"       json:"revoked"`
}

// Address rows are never hard-deleted: Status=false marks them disabled so
// historical orders keep a valid delivery_address reference.
type Address struct {
	ID          uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID      uint   `gorm:"index;not null"            json:"user_id"`
	AddressLine string `gorm:"not null"                  json:"address_line"`
	City        string `json:"city"`
	State       string `json:"state"`
	Country     string `json:"country"`
	Pincode     string `json:"pincode"`
	Mobile      string `json:"mobile"`
	Status      bool   `gorm:"default:true"              json:"status"`
}

type Category struct {
	ID    uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name  string `gorm:"not null"                  json:"name"`
	Image string `json:"image"`
}

// SubCategory carries exactly one parent category.
type SubCategory struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name       string `gorm:"not null"                  json:"name"`
	Image      string `json:"image"`
	CategoryID uint   `gorm:"index;not null"            json:"category_id"`
}

func (SubCategory) TableName() string { return "subCategories" }

type Product struct {
	ID            uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	Name          string  `gorm:"not null"                  json:"name"`
	Images        string  `json:"images"`
	Unit          string  `json:"unit"`
	Stock         int     `gorm:"not null;default:0"        json:"stock"`
	Price         float64 `gorm:"not null"                  json:"price"`
	Discount      float64 `json:"discount"`
	Description   string  `json:"description"`
	MoreDetails   string  `json:"more_details"`
	Publish       bool    `gorm:"default:true"              json:"publish"`
	CategoryID    uint    `gorm:"index;not null"            json:"category_id"`
	SubCategoryID uint    `gorm:"index;not null"            json:"sub_category_id"`
}

type CartItem struct {
	ID        uint `gorm:"primaryKey"                  json:"id"`
	UserID    uint `gorm:"index;not null"              json:"user_id"`
	ProductID uint `gorm:"not null"                    json:"product_id"`
	Quantity  uint `gorm:"default:1;check:quantity>0"  json:"quantity"`
}

func (CartItem) TableName() string { return "cartProducts" }

// Order holds one row per (group, product). Rows created by the same checkout
// share OrderID. ProductDetails is a JSON snapshot of the product taken at
// purchase time and is never rewritten afterwards.
type Order struct {
	ID                uint    `gorm:"primaryKey;autoIncrement"  json:"id"`
	UserID            uint    `gorm:"index;not null"            json:"user_id"`
	OrderID           string  `gorm:"index;not null"            json:"order_id"`
	ProductID         uint    `gorm:"not null"                  json:"product_id"`
	ProductDetails    string  `gorm:"not null"                  json:"product_details"`
	Quantity          uint    `gorm:"default:1"                 json:"quantity"`
	PaymentID         string  `json:"payment_id"`
	PaymentStatus     string  `gorm:"not null"                  json:"payment_status"`
	DeliveryAddressID uint    `gorm:"not null"                  json:"delivery_address_id"`
	SubTotalAmt       float64 `json:"sub_total_amt"`
	TotalAmt          float64 `json:"total_amt"`
	DeliveryStatus    string  `gorm:"not null;default:Pending"  json:"delivery_status"`
	DeliveryTaskID    string  `json:"delivery_task_id"`
	CreatedAt         int64   `gorm:"not null"                  json:"created_at"`
}
