package slideshow

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/magcho/vtrpon/internal/logging"
)

const samplePDFInfo = `Creator:         Impress
Producer:        LibreOffice 7.6
Pages:           3
Encrypted:       no
Page size:       720 x 540 pts
Page rot:        0
`

func TestParsePDFInfo(t *testing.T) {
	w, h, pages, err := parsePDFInfo(samplePDFInfo)
	if err != nil {
		t.Fatalf("parsePDFInfo: %v", err)
	}
	if w != 720 || h != 540 || pages != 3 {
		t.Fatalf("unexpected info %v %v %d", w, h, pages)
	}
	if _, _, _, err := parsePDFInfo("Pages: 1\n"); err == nil {
		t.Fatal("expected error without page size")
	}
}

// fakeOffice emulates soffice, pdfinfo and pdftoppm on disk.
func fakeOffice(t *testing.T, pages int, calls *[]string) commandRunner {
	t.Helper()
	return func(_ context.Context, name string, args ...string) ([]byte, error) {
		*calls = append(*calls, name+" "+strings.Join(args, " "))
		switch name {
		case "soffice":
			outdir := args[len(args)-2]
			src := args[len(args)-1]
			pdf := filepath.Join(outdir, BaseName(src)+".pdf")
			return nil, os.WriteFile(pdf, []byte("%PDF"), 0o644)
		case "pdfinfo":
			return []byte(samplePDFInfo), nil
		case "pdftoppm":
			prefix := args[len(args)-1]
			for i := 1; i <= pages; i++ {
				// pdftoppm pads page numbers to the width of the page count.
				path := fmt.Sprintf("%s-%02d.png", prefix, i)
				if err := os.WriteFile(path, []byte{byte(i)}, 0o644); err != nil {
					return nil, err
				}
			}
			return nil, nil
		}
		return nil, fmt.Errorf("unexpected command %s", name)
	}
}

func TestLibreOfficeExportRenamesPages(t *testing.T) {
	slideDir := t.TempDir()
	var calls []string
	exp := NewLibreOfficeExporter("", "", "", logging.NewNop())
	exp.run = fakeOffice(t, 12, &calls)

	count, err := exp.Export(context.Background(), "/decks/talk.pptx", slideDir)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if count != 12 {
		t.Fatalf("expected 12 slides, got %d", count)
	}
	slides, err := ListSlides(slideDir)
	if err != nil {
		t.Fatalf("ListSlides: %v", err)
	}
	if len(slides) != 12 || slides[0] != "Slide_001.png" || slides[11] != "Slide_012.png" {
		t.Fatalf("unexpected slides %v", slides)
	}
	tenth, err := os.ReadFile(filepath.Join(slideDir, "Slide_010.png"))
	if err != nil {
		t.Fatalf("read slide: %v", err)
	}
	if !reflect.DeepEqual(tenth, []byte{10}) {
		t.Fatalf("slide 10 holds page %v", tenth)
	}
	if len(calls) != 3 || !strings.Contains(calls[2], "-scale-to-x 1440 -scale-to-y 1080") {
		t.Fatalf("unexpected command sequence %v", calls)
	}
	entries, _ := os.ReadDir(slideDir)
	for _, entry := range entries {
		if entry.IsDir() {
			t.Fatalf("pdf workspace %s not cleaned up", entry.Name())
		}
	}
}

func TestLibreOfficeExportSofficeFailure(t *testing.T) {
	exp := NewLibreOfficeExporter("", "", "", logging.NewNop())
	exp.run = func(context.Context, string, ...string) ([]byte, error) {
		return nil, errors.New("soffice: exit status 1")
	}
	if _, err := exp.Export(context.Background(), "/decks/talk.pptx", t.TempDir()); err == nil {
		t.Fatal("expected soffice failure")
	}
}
