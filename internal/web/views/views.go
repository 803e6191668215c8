// Package views renders the HTML pages and HTMX fragments of the importer.
package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/productimport/internal/core"
)

// ImportEndpoint is where the upload form posts.
const ImportEndpoint = "/api/import/product"

// UploadPage is the landing page with the CSV upload form.
func UploadPage(maxFileSize int64) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Product import</title>
<script src="https://unpkg.com/htmx.org@1.9.12"></script>
<script>
document.addEventListener("htmx:beforeSwap", function (e) {
	if (e.detail.xhr.status >= 400) {
		e.detail.shouldSwap = true;
		e.detail.isError = false;
	}
});
</script>
</head>
<body>
<main>
<h1>Product import</h1>
<form hx-post="`+ImportEndpoint+`" hx-encoding="multipart/form-data" hx-target="#result" hx-swap="innerHTML">
<label>CSV file <input type="file" name="file" accept=".csv,text/csv" required></label>
<fieldset>
<legend>Strategy</legend>
<label><input type="radio" name="strategy" value="atomic" checked> Atomic: reject the file on any invalid row</label>
<label><input type="radio" name="strategy" value="partial"> Partial: import valid rows, report the rest</label>
</fieldset>
`); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<p><small>Semicolon-delimited, UTF-8, at most %s.</small></p>\n",
			templ.EscapeString(formatBytes(maxFileSize))); err != nil {
			return err
		}
		_, err := io.WriteString(w, `<button type="submit">Import</button>
</form>
<section id="result" aria-live="polite"></section>
</main>
</body>
</html>
`)
		return err
	})
}

// ImportSummary is the fragment shown after a stored import.
func ImportSummary(res *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w,
			`<div class="import-summary"><p>Imported %d product(s) from <strong>%s</strong> (%s).</p><p><small>Batch %s</small></p>`,
			res.Imported,
			templ.EscapeString(res.Batch.Filename),
			templ.EscapeString(string(res.Strategy)),
			templ.EscapeString(res.Batch.ID.String()),
		); err != nil {
			return err
		}
		if err := issueList(w, res.Issues); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</div>\n")
		return err
	})
}

// ErrorAlert is the fragment shown when a request fails. Issues may be empty.
func ErrorAlert(message, action, code string, issues []core.ValidationIssue) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<div class="error-alert" role="alert"><p><strong>%s</strong></p>`,
			templ.EscapeString(message)); err != nil {
			return err
		}
		if action != "" {
			if _, err := fmt.Fprintf(w, "<p>%s</p>", templ.EscapeString(action)); err != nil {
				return err
			}
		}
		if err := issueList(w, issues); err != nil {
			return err
		}
		if code != "" {
			if _, err := fmt.Fprintf(w, "<p><small>Code: %s</small></p>", templ.EscapeString(code)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</div>\n")
		return err
	})
}

func issueList(w io.Writer, issues []core.ValidationIssue) error {
	if len(issues) == 0 {
		return nil
	}
	if _, err := io.WriteString(w, `<ul class="issues">`); err != nil {
		return err
	}
	for _, issue := range issues {
		if _, err := fmt.Fprintf(w, `<li data-type="%s">%s</li>`,
			templ.EscapeString(string(issue.Type)), templ.EscapeString(issue.Message)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</ul>")
	return err
}

func formatBytes(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGTPE"[exp])
}
