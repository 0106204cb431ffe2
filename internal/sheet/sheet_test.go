package sheet

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/quadra/itemx/internal/models"
)

func sampleTable() *models.Table {
	return &models.Table{Records: []models.Record{
		{Quantity: "2", Code: "A100", Title: "Parafuso M8"},
		{Quantity: "1", Code: "B200", Title: "Farol dianteiro direito"},
	}}
}

func TestWrite_roundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(sampleTable(), &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows, want 3 (header + 2 records)", len(rows))
	}
	if rows[0][0] != "QTD" || rows[0][1] != "CÓDIGO" || rows[0][2] != "TITULO" {
		t.Errorf("header row = %v", rows[0])
	}
	if rows[1][0] != "2" || rows[1][1] != "A100" || rows[1][2] != "Parafuso M8" {
		t.Errorf("first record row = %v", rows[1])
	}
	if rows[2][2] != "Farol dianteiro direito" {
		t.Errorf("second record title = %q", rows[2][2])
	}
}

func TestWrite_emptyTableStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	if err := Write(&models.Table{}, &buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Sheet1")
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want header only", len(rows))
	}
}

func TestWriteFile_createsParentDirs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "nested", "result.xlsx")
	if err := WriteFile(sampleTable(), path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("output missing: %v", err)
	}
}

func TestOutputName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/tmp/orcamento.pdf", "orcamento_extracao.xlsx"},
		{"nota.PDF", "nota_extracao.xlsx"},
		{"dir/sem-extensao", "sem-extensao_extracao.xlsx"},
	}
	for _, tt := range tests {
		if got := OutputName(tt.in); got != tt.want {
			t.Errorf("OutputName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
