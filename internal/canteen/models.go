package canteen

import "time"

type PaymentMethod string

const (
	PayCash PaymentMethod = "cash"
	PayQRIS PaymentMethod = "qris"
)

func (p PaymentMethod) Valid() bool {
	return p == PayCash || p == PayQRIS
}

// MenuItem: stok & harga dipegang seller; engine hanya boleh menyentuh Stock.
type MenuItem struct {
	ID        string
	SellerID  string
	StoreName string
	Name      string
	Price     int // IDR, tanpa desimal
	Stock     int // invariant: >= 0
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine: satu pilihan buyer utk satu menu. UnitPrice = snapshot harga
// saat add-to-cart, bukan harga terkini.
type CartLine struct {
	BuyerID   string
	MenuID    string
	SellerID  string
	StoreName string
	MenuName  string
	UnitPrice int
	Quantity  int
	Notes     string
	CreatedAt time.Time
}

type OrderLine struct {
	MenuID    string
	MenuName  string
	UnitPrice int
	Quantity  int
	Notes     string
}

// Order immutable setelah dibuat; hanya Status + timestamp terminal yg berubah.
type Order struct {
	ID            string
	BuyerID       string
	SellerID      string
	StoreName     string
	Items         []OrderLine
	TotalAmount   int
	PaymentMethod PaymentMethod
	Status        Status
	CreatedAt     time.Time
	CompletedAt   *time.Time
	CancelledAt   *time.Time
}

// ItemCount = total unit di order (bukan jumlah baris).
func (o *Order) ItemCount() int {
	n := 0
	for _, it := range o.Items {
		n += it.Quantity
	}
	return n
}
