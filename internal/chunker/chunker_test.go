package chunker

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplit_Paragraphs(t *testing.T) {
	chunks := Split("A\n\nB\n\nC")
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Split: expected %v, got %v", want, chunks)
	}
}

func TestSplit_EmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "\n\n\n", " \t\n\n  \n"} {
		if chunks := Split(input); len(chunks) != 0 {
			t.Errorf("Split(%q): expected no chunks, got %v", input, chunks)
		}
	}
}

func TestSplit_SingleParagraph(t *testing.T) {
	chunks := Split("just one paragraph\nwith a soft break")
	if len(chunks) != 1 {
		t.Fatalf("Expected 1 chunk, got %d", len(chunks))
	}
	if chunks[0] != "just one paragraph\nwith a soft break" {
		t.Errorf("Unexpected chunk content: %q", chunks[0])
	}
}

func TestSplit_TrimsAndDropsEmptyUnits(t *testing.T) {
	chunks := Split("  first  \n\n\n\n   \n\n second ")
	want := []string{"first", "second"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

func TestSplit_ManyNewlinesAreOneBoundary(t *testing.T) {
	chunks := Split("A\n\n\n\n\nB")
	want := []string{"A", "B"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

func TestSplit_WindowsLineEndings(t *testing.T) {
	chunks := Split("A\r\n\r\nB")
	want := []string{"A", "B"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Expected %v, got %v", want, chunks)
	}
}

// TestSplit_Reconstruction verifies no content is lost or duplicated:
// rejoining the chunks with the paragraph separator reproduces the source
// modulo per-paragraph whitespace trimming.
func TestSplit_Reconstruction(t *testing.T) {
	inputs := []string{
		"A\n\nB\n\nC",
		"  padded \n\n paragraphs \n\n here ",
		"line one\nline two\n\nsecond paragraph",
	}
	for _, input := range inputs {
		chunks := Split(input)
		rejoined := strings.Join(chunks, "\n\n")

		var wantParts []string
		for _, p := range strings.Split(input, "\n\n") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				wantParts = append(wantParts, trimmed)
			}
		}
		if rejoined != strings.Join(wantParts, "\n\n") {
			t.Errorf("Reconstruction mismatch for %q: got %q", input, rejoined)
		}
	}
}

func TestSplit_OrderPreserved(t *testing.T) {
	chunks := Split("z\n\ny\n\nx\n\nw")
	want := []string{"z", "y", "x", "w"}
	if !reflect.DeepEqual(chunks, want) {
		t.Errorf("Chunk order not preserved: %v", chunks)
	}
}
