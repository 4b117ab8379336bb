package sheet

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jjansen/chatpilot/internal/types"
)

func writeTestWorkbook(t *testing.T, headers []string, rows [][]string) string {
	t.Helper()
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			t.Fatal(err)
		}
	}
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				t.Fatal(err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "questions.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()
	return path
}

func TestLoadAndQuestions(t *testing.T) {
	path := writeTestWorkbook(t,
		[]string{"ID", "Question"},
		[][]string{
			{"1", "What is Go?"},
			{"2", ""},
			{"3", "What is a goroutine?"},
		})

	w, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer w.Close()

	questions, err := w.Questions()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []string{"What is Go?", "", "What is a goroutine?"}
	if len(questions) != len(expected) {
		t.Fatalf("expected %d questions, got %d", len(expected), len(questions))
	}
	for i, q := range expected {
		if questions[i] != q {
			t.Errorf("question %d: expected %q, got %q", i, q, questions[i])
		}
	}
}

func TestLoadMissingQuestionColumn(t *testing.T) {
	path := writeTestWorkbook(t, []string{"ID", "Prompt"}, nil)
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for missing question column")
	}
}

func TestApplyAndSave(t *testing.T) {
	path := writeTestWorkbook(t,
		[]string{"Question"},
		[][]string{{"q one"}, {"q two"}})

	w, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	answers := []types.Answer{
		{Response: "a one", Seconds: 1.25},
		{Response: "a two", Seconds: 0.5},
	}
	if err := w.Apply(answers); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outPath := filepath.Join(t.TempDir(), "results.xlsx")
	if err := w.SaveAs(outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Close()

	f, err := excelize.OpenFile(outPath)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer f.Close()
	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][1] != "Response" || rows[0][2] != "Time Taken (seconds)" {
		t.Errorf("result columns not appended, got header %v", rows[0])
	}
	if rows[1][1] != "a one" || rows[2][1] != "a two" {
		t.Errorf("responses not written, got %v / %v", rows[1], rows[2])
	}
	if rows[1][2] != "1.25" {
		t.Errorf("expected time 1.25, got %q", rows[1][2])
	}
}

func TestApplyReusesExistingColumns(t *testing.T) {
	path := writeTestWorkbook(t,
		[]string{"Question", "Response", "Time Taken (seconds)"},
		[][]string{{"q one", "stale", "99"}})

	w, err := Load(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := w.Apply([]types.Answer{{Response: "fresh", Seconds: 2}}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	outPath := filepath.Join(t.TempDir(), "results.xlsx")
	if err := w.SaveAs(outPath); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	w.Close()

	f, err := excelize.OpenFile(outPath)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		t.Fatal(err)
	}
	if len(rows[0]) != 3 {
		t.Errorf("columns duplicated on rerun, got header %v", rows[0])
	}
	if rows[1][1] != "fresh" {
		t.Errorf("expected overwritten response, got %q", rows[1][1])
	}
}

func TestOutputName(t *testing.T) {
	now := time.Unix(1700000000, 0)
	if got := OutputName("chatgpt", now); got != "results_chatgpt_1700000000.xlsx" {
		t.Errorf("unexpected output name: %s", got)
	}
}
