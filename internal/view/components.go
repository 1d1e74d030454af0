package view

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/nfrund/profitbridge/internal/domain"
	"github.com/nfrund/profitbridge/internal/investments"
	cmp "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	g "maragu.dev/gomponents/html"
)

const (
	// RowsID is the id of the table body holding the rows.
	RowsID = "investments-rows"
	// ToastsID is the id of the notice region.
	ToastsID = "toasts"

	searchPlaceholder = "Search user email"
)

// InvestmentsPage is the data for the full admin page.
type InvestmentsPage struct {
	Term  string
	Rows  []domain.ViewRow
	Flash FlashData
	// LiveURL is the HTML websocket endpoint; empty disables live updates.
	LiveURL string
	// Action is the path the search form submits to.
	Action string
}

// InvestmentsPageNode renders the complete investments page.
func InvestmentsPageNode(ctx context.Context, p InvestmentsPage) cmp.Node {
	body := []cmp.Node{
		g.Class("bg-gray-50 text-gray-900"),
		g.Main(
			g.Class("container mx-auto p-8"),
			g.H1(g.Class("text-3xl font-bold mb-6"), cmp.Text("Investments")),
			searchForm(p),
			g.Table(
				g.Class("min-w-full bg-white shadow rounded"),
				g.THead(
					g.Tr(
						g.Th(cmp.Text("User Email")),
						g.Th(cmp.Text("Amount")),
						g.Th(cmp.Text("ROI")),
						g.Th(cmp.Text("Created At")),
					),
				),
				rowsBody(p.Rows),
			),
		),
		g.Div(
			g.ID(ToastsID),
			g.Class("fixed bottom-4 right-4 space-y-2"),
			cmp.Map(p.Flash.Notices(), func(n investments.Notice) cmp.Node {
				return Templ(ctx, Toast(n))
			}),
		),
	}
	if p.LiveURL != "" {
		body = append(body, hx.Ext("ws"), cmp.Attr("ws-connect", p.LiveURL))
	}

	return g.Doctype(
		g.HTML(
			g.Lang("en"),
			g.Head(
				g.Meta(g.Charset("utf-8")),
				g.Meta(g.Name("viewport"), g.Content("width=device-width, initial-scale=1")),
				g.TitleEl(cmp.Text("Investments")),
				g.Link(g.Rel("stylesheet"), g.Href("/static/css/app.css")),
				g.Script(g.Src("https://unpkg.com/htmx.org@2.0.4")),
				g.Script(g.Src("https://unpkg.com/htmx-ext-ws@2.0.2/ws.js")),
			),
			g.Body(body...),
		),
	)
}

func searchForm(p InvestmentsPage) cmp.Node {
	action := p.Action
	if action == "" {
		action = "/admin/investments"
	}
	return g.Form(
		g.ID("investments-search"),
		g.Class("mb-4"),
		g.Method("get"),
		g.Action(action),
		cmp.If(p.LiveURL != "", cmp.Attr("ws-send", "")),
		cmp.If(p.LiveURL != "", hx.Trigger("input changed delay:300ms from:#search, submit")),
		g.Input(
			g.Type("search"),
			g.ID("search"),
			g.Name("search"),
			g.Value(p.Term),
			g.Placeholder(searchPlaceholder),
			g.AutoComplete("off"),
			g.Class("border rounded px-3 py-2 w-80"),
		),
	)
}

func rowsBody(rows []domain.ViewRow, extra ...cmp.Node) cmp.Node {
	return g.TBody(
		g.ID(RowsID),
		cmp.Group(extra),
		cmp.Map(rows, rowNode),
	)
}

func rowNode(r domain.ViewRow) cmp.Node {
	return g.Tr(
		g.ID("investment-"+r.ID),
		g.Td(cmp.Text(r.UserEmail)),
		g.Td(cmp.Text(investments.FormatAmount(r.Amount))),
		g.Td(cmp.Text(investments.FormatROI(r.ROI))),
		g.Td(cmp.Text(investments.FormatCreatedAt(r.CreatedAt))),
	)
}

// RowsFragment replaces the table body out of band.
func RowsFragment(rows []domain.ViewRow) cmp.Node {
	return rowsBody(rows, hx.SwapOOB("true"))
}

// NoticeFragment appends a toast to the notice region out of band.
func NoticeFragment(ctx context.Context, n investments.Notice) cmp.Node {
	return g.Div(
		hx.SwapOOB("beforeend:#"+ToastsID),
		Templ(ctx, Toast(n)),
	)
}

// Toast renders a single notice.
func Toast(n investments.Notice) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		class := "toast toast-" + string(n.Level)
		_, err := io.WriteString(w, `<div class="`+templ.EscapeString(class)+`" role="alert">`+
			templ.EscapeString(n.Message)+`</div>`)
		return err
	})
}
