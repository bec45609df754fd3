package resolve

import (
	"testing"
)

func TestDefaultPlaneTableOrder(t *testing.T) {
	table := DefaultPlaneTable()
	if len(table.Planes) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(table.Planes))
	}
	if table.Planes[0].Name != "TOP" || table.Planes[0].ID != "JHD" {
		t.Fatalf("expected TOP/JHD first, got %+v", table.Planes[0])
	}
}

func TestParsePlaneTable(t *testing.T) {
	raw := []byte(`
planes:
  - name: TOP
    id: AAA
  - name: FRONT
    id: BBB
`)
	table, err := ParsePlaneTable(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	entry, ok := table.Lookup("top")
	if !ok || entry.ID != "AAA" {
		t.Fatalf("expected case-insensitive lookup, got %+v ok=%v", entry, ok)
	}
}

func TestParsePlaneTableRejectsEmpty(t *testing.T) {
	if _, err := ParsePlaneTable([]byte("planes: []")); err == nil {
		t.Fatalf("expected error for empty table")
	}
}

func TestParsePlaneTableRejectsDuplicates(t *testing.T) {
	raw := []byte(`
planes:
  - name: TOP
    id: AAA
  - name: top
    id: BBB
`)
	if _, err := ParsePlaneTable(raw); err == nil {
		t.Fatalf("expected error for duplicate names")
	}
}

func TestParsePlaneTableRejectsMissingID(t *testing.T) {
	raw := []byte(`
planes:
  - name: TOP
`)
	if _, err := ParsePlaneTable(raw); err == nil {
		t.Fatalf("expected error for missing id")
	}
}
