package canteen

// SellerGroup: subset cart satu seller yg nantinya jadi satu Order.
type SellerGroup struct {
	SellerID  string
	StoreName string
	Lines     []CartLine
	Subtotal  int
}

// GroupBySeller memecah cart per seller. Urutan group mengikuti kemunculan
// pertama seller di cart (deterministik, penting utk test). Qty <= 0 bukan
// input agregasi (itu removal request) jadi di-skip.
func GroupBySeller(lines []CartLine) []SellerGroup {
	idx := map[string]int{}
	var groups []SellerGroup
	for _, l := range lines {
		if l.Quantity <= 0 {
			continue
		}
		i, ok := idx[l.SellerID]
		if !ok {
			i = len(groups)
			idx[l.SellerID] = i
			groups = append(groups, SellerGroup{SellerID: l.SellerID, StoreName: l.StoreName})
		}
		groups[i].Lines = append(groups[i].Lines, l)
		groups[i].Subtotal += l.UnitPrice * l.Quantity
	}
	return groups
}
