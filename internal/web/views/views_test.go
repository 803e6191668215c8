package views

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/productimport/internal/core"
)

func TestUploadPage(t *testing.T) {
	var buf bytes.Buffer
	if err := UploadPage(50<<20).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()

	for _, want := range []string{
		`hx-post="/api/import/product"`,
		`name="file"`,
		`value="atomic" checked`,
		`value="partial"`,
		"50.0 MB",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("page missing %q", want)
		}
	}
}

func TestImportSummary_EscapesInput(t *testing.T) {
	path := "$.row.2"
	res := &core.ImportResult{
		Batch:    core.ProductBatch{ID: uuid.New(), Filename: `<script>x</script>.csv`},
		Strategy: core.StrategyPartial,
		Imported: 1,
		Issues: []core.ValidationIssue{
			{Message: "Expected price in USD in row index 2 is invalid '<b>'", Path: &path, Type: core.IssueInvalidFormat},
		},
	}

	var buf bytes.Buffer
	if err := ImportSummary(res).Render(context.Background(), &buf); err != nil {
		t.Fatalf("Render: %v", err)
	}
	html := buf.String()

	if strings.Contains(html, "<script>") || strings.Contains(html, "<b>") {
		t.Errorf("unescaped user input in %q", html)
	}
	if !strings.Contains(html, "Imported 1 product(s)") {
		t.Errorf("missing count in %q", html)
	}
	if !strings.Contains(html, `data-type="invalid_format"`) {
		t.Errorf("missing issue in %q", html)
	}
}

func TestErrorAlert(t *testing.T) {
	tests := []struct {
		name    string
		action  string
		code    string
		issues  []core.ValidationIssue
		want    []string
		notWant []string
	}{
		{
			name:    "message only",
			want:    []string{"Something failed"},
			notWant: []string{"<ul", "Code:"},
		},
		{
			name:   "with action code and issues",
			action: "Try again",
			code:   "IMP001",
			issues: []core.ValidationIssue{{Message: "Error in row 3", Type: core.IssueInvalidData}},
			want:   []string{"Try again", "Code: IMP001", "Error in row 3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			if err := ErrorAlert("Something failed", tt.action, tt.code, tt.issues).Render(context.Background(), &buf); err != nil {
				t.Fatalf("Render: %v", err)
			}
			html := buf.String()
			for _, w := range tt.want {
				if !strings.Contains(html, w) {
					t.Errorf("missing %q in %q", w, html)
				}
			}
			for _, w := range tt.notWant {
				if strings.Contains(html, w) {
					t.Errorf("unexpected %q in %q", w, html)
				}
			}
		})
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{512, "512 B"},
		{1024, "1.0 KB"},
		{1536, "1.5 KB"},
		{50 << 20, "50.0 MB"},
	}
	for _, tt := range tests {
		if got := formatBytes(tt.n); got != tt.want {
			t.Errorf("formatBytes(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}
