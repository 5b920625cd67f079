package csv

import "testing"

func TestResolveHeaderFullRow(t *testing.T) {
	h := ResolveHeader("Transaction ID,Date,Description,Amount,Transaction Type,Account Number")

	if h.Columns != 6 {
		t.Fatalf("Columns = %d, want 6", h.Columns)
	}
	want := Header{ID: 0, Date: 1, Description: 2, Amount: 3, Type: 4, Account: 5, Columns: 6}
	if h != want {
		t.Errorf("ResolveHeader = %+v, want %+v", h, want)
	}
}

func TestResolveHeaderCaseInsensitive(t *testing.T) {
	for _, hdr := range []string{"AMOUNT", "amount", "Amount", "  aMoUnT  "} {
		h := ResolveHeader(hdr)
		if h.Amount != 0 {
			t.Errorf("header %q: Amount index = %d, want 0", hdr, h.Amount)
		}
	}
}

func TestResolveHeaderAnyOrder(t *testing.T) {
	h := ResolveHeader("Amount,Transaction Type,Date")
	if h.Amount != 0 || h.Type != 1 || h.Date != 2 {
		t.Errorf("indexes = %+v", h)
	}
}

func TestResolveHeaderMissingColumnsDegrade(t *testing.T) {
	h := ResolveHeader("Date,Description,Amount,Transaction Type,Account Number")
	if h.ID != -1 {
		t.Errorf("ID index = %d, want -1", h.ID)
	}
	if h.Columns != 5 {
		t.Errorf("Columns = %d, want 5", h.Columns)
	}
}

func TestResolveHeaderFoldsDiacritics(t *testing.T) {
	// "Dátê" folds to "date".
	h := ResolveHeader("Dátê,Amount")
	if h.Date != 0 {
		t.Errorf("Date index = %d, want 0", h.Date)
	}
}

func TestResolveHeaderStripsBOM(t *testing.T) {
	// Windows spreadsheet exports prepend a UTF-8 BOM to the first cell.
	h := ResolveHeader("\ufeffTransaction ID,Amount")
	if h.ID != 0 || h.Amount != 1 {
		t.Errorf("indexes after BOM strip = %+v", h)
	}
}

func TestResolveHeaderQuotedCells(t *testing.T) {
	h := ResolveHeader(`"Transaction ID","Amount"`)
	if h.ID != 0 || h.Amount != 1 {
		t.Errorf("indexes = %+v", h)
	}
}
