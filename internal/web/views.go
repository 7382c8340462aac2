package web

// views.go holds the server-rendered pages. Each piece is a templ component
// built from ComponentFunc and composed through Render, so no code generation
// step is needed.

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/bizdesk/internal/core"
)

const pageStyle = `body{font-family:system-ui,sans-serif;margin:2rem;color:#222}` +
	`table{border-collapse:collapse;margin-top:1rem}td,th{border:1px solid #ccc;padding:.3rem .6rem;text-align:left}` +
	`.alert{border:1px solid #c65911;background:#fff4ec;padding:.8rem 1rem;border-radius:4px}` +
	`.ok{color:#2e7d32}.warn{color:#c65911}.muted{color:#777}code{background:#f4f4f4;padding:0 .2rem}`

// esc escapes text for HTML output.
func esc(s string) string {
	return templ.EscapeString(s)
}

// text renders escaped text.
func text(s string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, esc(s))
		return err
	})
}

// element wraps children in an HTML element. attrs must already be escaped.
func element(tag, attrs string, children ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		open := "<" + tag
		if attrs != "" {
			open += " " + attrs
		}
		if _, err := io.WriteString(w, open+">"); err != nil {
			return err
		}
		for _, c := range children {
			if err := c.Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</"+tag+">")
		return err
	})
}

func link(href, label string) templ.Component {
	return element("a", `href="`+esc(string(templ.URL(href)))+`"`, text(label))
}

// ErrorAlert renders a user-facing error message as an HTML fragment.
func ErrorAlert(msg core.UserMessage) templ.Component {
	return element("div", `class="alert" role="alert"`,
		element("strong", "", text(msg.Message)),
		element("p", "", text(msg.Action)),
		element("p", `class="muted"`, text("Code: "+msg.Code)),
	)
}

// page is the document layout around body.
func page(title string, body ...templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<!DOCTYPE html><html lang="en"><head><meta charset="utf-8"><title>%s</title><style>%s</style></head>`,
			esc(title), pageStyle); err != nil {
			return err
		}
		if err := element("body", "", body...).Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</html>")
		return err
	})
}

// ReportPage renders the state of an import: progress while it runs, the
// report once it finished, or the failure.
func ReportPage(id string, st core.ImportStatus) templ.Component {
	body := []templ.Component{element("h1", "", text("Import of "+string(st.Progress.Entity)))}
	if st.Progress.FileName != "" {
		body = append(body, element("p", `class="muted"`,
			text(st.Progress.FileName+", started "+st.StartedAt.Format("2006-01-02 15:04:05"))))
	}

	switch {
	case st.Report != nil:
		body = append(body, reportView(id, *st.Report))
	case st.Progress.Phase == core.PhaseFailed:
		msg := core.MapError(fmt.Errorf("import aborted: %s", st.Progress.Error))
		body = append(body, element("div", `class="alert" role="alert"`,
			element("strong", "", text(msg.Message)),
			element("p", "", text(st.Progress.Error)),
		))
	default:
		body = append(body,
			element("p", "", text(fmt.Sprintf("%s: %d%%", st.Progress.Phase, st.Progress.Percent))),
			element("p", `class="muted"`, text("Reload the page to refresh.")),
		)
	}

	if st.ArchivedAt != "" {
		body = append(body, element("p", `class="muted"`, text("Original file archived at "+st.ArchivedAt)))
	}
	return page("Import "+id, body...)
}

func reportView(id string, r core.ImportReport) templ.Component {
	class := "ok"
	if r.Rejected() > 0 {
		class = "warn"
	}

	parts := []templ.Component{
		element("p", `class="`+class+`"`, element("strong", "", text(r.Summary()))),
		element("table", "",
			element("tr", "", element("th", "", text("Processed")), element("th", "", text("Imported")), element("th", "", text("Rejected"))),
			element("tr", "",
				element("td", "", text(fmt.Sprint(r.TotalProcessed))),
				element("td", "", text(fmt.Sprint(r.SuccessCount))),
				element("td", "", text(fmt.Sprint(r.Rejected()))),
			),
		),
	}
	if len(r.DuplicateKeys) > 0 {
		parts = append(parts, element("p", "", text("Already registered: "+strings.Join(r.DuplicateKeys, ", "))))
	}
	if len(r.Errors) == 0 {
		return templ.Join(parts...)
	}

	base := "/api/imports/" + id
	parts = append(parts, element("p", "",
		link(base+"/errors.csv", "Download errors (CSV)"),
		text(" | "),
		link(base+"/errors.xlsx", "Download errors (XLSX)"),
	))

	// Products split codes needing manual review from other failures.
	if r.Entity == core.EntityProducts && len(r.InvalidCodes) > 0 {
		parts = append(parts, invalidCodeTable(r.InvalidCodes), errorTable("Other errors", r.OtherErrors))
	} else {
		parts = append(parts, errorTable("Errors", r.Errors))
	}
	return templ.Join(parts...)
}

// invalidCodeTable lists rows whose clean code needs manual review, with the
// product text as it was read.
func invalidCodeTable(errs []core.ImportError) templ.Component {
	rows := []templ.Component{element("tr", "",
		element("th", "", text("Line")), element("th", "", text("Code")),
		element("th", "", text("Original")), element("th", "", text("Message")),
	)}
	for _, e := range errs {
		rows = append(rows, element("tr", "",
			element("td", "", text(fmt.Sprint(e.Line))),
			element("td", "", element("code", "", text(e.Code))),
			element("td", "", text(e.Original)),
			element("td", "", text(e.Message)),
		))
	}
	return templ.Join(
		element("h2", "", text(fmt.Sprintf("Codes to review (%d)", len(errs)))),
		element("table", "", rows...),
	)
}

func errorTable(title string, errs []core.ImportError) templ.Component {
	if len(errs) == 0 {
		return templ.NopComponent
	}
	rows := []templ.Component{element("tr", "",
		element("th", "", text("Line")), element("th", "", text("Category")),
		element("th", "", text("Chunk")), element("th", "", text("Message")),
	)}
	for _, e := range errs {
		chunk := ""
		if e.Chunk > 0 {
			chunk = fmt.Sprint(e.Chunk)
		}
		rows = append(rows, element("tr", "",
			element("td", "", text(fmt.Sprint(e.Line))),
			element("td", "", text(string(e.Category))),
			element("td", "", text(chunk)),
			element("td", "", text(e.Message)),
		))
	}
	return templ.Join(
		element("h2", "", text(fmt.Sprintf("%s (%d)", title, len(errs)))),
		element("table", "", rows...),
	)
}
