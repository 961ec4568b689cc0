package canteen

import "testing"

func line(buyer, seller, store, menu string, price, qty int) CartLine {
	return CartLine{
		BuyerID: buyer, SellerID: seller, StoreName: store,
		MenuID: menu, MenuName: menu, UnitPrice: price, Quantity: qty,
	}
}

func TestGroupBySeller_SubtotalPerSeller(t *testing.T) {
	lines := []CartLine{
		line("b1", "s1", "Warung A", "m1", 15000, 2),
		line("b1", "s2", "Warung B", "m2", 8000, 1),
		line("b1", "s1", "Warung A", "m3", 5000, 3),
	}

	groups := GroupBySeller(lines)
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}

	if groups[0].SellerID != "s1" || groups[1].SellerID != "s2" {
		t.Errorf("group order must follow first occurrence, got %s then %s", groups[0].SellerID, groups[1].SellerID)
	}
	if groups[0].Subtotal != 15000*2+5000*3 {
		t.Errorf("s1 subtotal: expected %d, got %d", 15000*2+5000*3, groups[0].Subtotal)
	}
	if groups[1].Subtotal != 8000 {
		t.Errorf("s2 subtotal: expected 8000, got %d", groups[1].Subtotal)
	}
	if len(groups[0].Lines) != 2 || len(groups[1].Lines) != 1 {
		t.Errorf("line split wrong: %d and %d", len(groups[0].Lines), len(groups[1].Lines))
	}
}

func TestGroupBySeller_Deterministic(t *testing.T) {
	lines := []CartLine{
		line("b1", "s3", "C", "m1", 1000, 1),
		line("b1", "s1", "A", "m2", 1000, 1),
		line("b1", "s2", "B", "m3", 1000, 1),
		line("b1", "s1", "A", "m4", 1000, 1),
	}

	for i := 0; i < 50; i++ {
		groups := GroupBySeller(lines)
		if groups[0].SellerID != "s3" || groups[1].SellerID != "s1" || groups[2].SellerID != "s2" {
			t.Fatalf("iteration %d: non-deterministic order %v %v %v", i, groups[0].SellerID, groups[1].SellerID, groups[2].SellerID)
		}
	}
}

func TestGroupBySeller_SkipsNonPositiveQty(t *testing.T) {
	lines := []CartLine{
		line("b1", "s1", "A", "m1", 1000, 0),
		line("b1", "s1", "A", "m2", 1000, -2),
	}
	if groups := GroupBySeller(lines); len(groups) != 0 {
		t.Errorf("expected no groups from non-positive quantities, got %d", len(groups))
	}

	lines = append(lines, line("b1", "s1", "A", "m3", 1000, 2))
	groups := GroupBySeller(lines)
	if len(groups) != 1 || len(groups[0].Lines) != 1 || groups[0].Subtotal != 2000 {
		t.Errorf("expected single line subtotal 2000, got %+v", groups)
	}
}

func TestGroupBySeller_Empty(t *testing.T) {
	if groups := GroupBySeller(nil); groups != nil {
		t.Errorf("expected nil groups for empty cart, got %v", groups)
	}
}
