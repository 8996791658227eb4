package unit

import (
	"database/sql"
	"fmt"
	"net/http"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/campsite/cmd/utils"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty/function"
)

// fileRoot is decoded from every unit source. Anything but app blocks is rejected.
type fileRoot struct {
	Apps []*appBlock `hcl:"app,block"`
}

type appBlock struct {
	Name   string        `hcl:"name,label"`
	Title  string        `hcl:"title,optional"`
	Routes []*routeBlock `hcl:"route,block"`
}

// routeBlock keeps its attributes as expressions, they are evaluated per request.
type routeBlock struct {
	Pattern     string         `hcl:"pattern,label"`
	Status      hcl.Expression `hcl:"status,optional"`
	ContentType hcl.Expression `hcl:"content_type,optional"`
	Headers     hcl.Expression `hcl:"headers,optional"`
	Body        hcl.Expression `hcl:"body,optional"`
	Query       hcl.Expression `hcl:"query,optional"`
	Args        hcl.Expression `hcl:"args,optional"`
	File        hcl.Expression `hcl:"file,optional"`
}

func (rb *routeBlock) expressions() []hcl.Expression {
	return []hcl.Expression{rb.Status, rb.ContentType, rb.Headers, rb.Body, rb.Query, rb.Args, rb.File}
}

var validName = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Root variables route expressions may reference.
var rootVariables = []string{"request", "params", "app"}

// compiler turns one source file into a handle.
type compiler struct {
	path  string
	src   []byte
	db    *sql.DB
	funcs map[string]function.Function
}

func (c *compiler) compile() (*Handle, *utils.SourceError) {
	file, diags := hclsyntax.ParseConfig(c.src, c.path, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, NewLoadError(c.path, c.src, diags)
	}

	var root fileRoot
	if diags = gohcl.DecodeBody(file.Body, nil, &root); diags.HasErrors() {
		return nil, NewLoadError(c.path, c.src, diags)
	}

	appBlocks := blocksOfType(file.Body, "app")
	switch len(root.Apps) {
	case 0:
		return nil, c.errorAt(1, "Missing app declaration",
			`A unit source must declare exactly one app "Name" { ... } block.`)
	case 1:
	default:
		return nil, c.errorAt(appBlocks[1].DefRange().Start.Line, "Duplicate app declaration",
			"Only one app block is allowed per unit source; split the apps into separate files.")
	}

	app := root.Apps[0]
	if !validName.MatchString(app.Name) {
		return nil, c.errorAt(appBlocks[0].DefRange().Start.Line, "Invalid app name",
			fmt.Sprintf("%q cannot be used as a URL segment; use letters, digits, '-', '_' or '.'.", app.Name))
	}

	h := &Handle{
		Name:       app.Name,
		MountName:  MountNameForName(app.Name),
		Title:      app.Title,
		SourcePath: c.path,
		Size:       int64(len(c.src)),
	}
	if h.Title == "" {
		h.Title = h.Name
	}

	routeBlocks := blocksOfType(appBlocks[0].Body, "route")
	mux := http.NewServeMux()
	for i, rb := range app.Routes {
		rt, diags := c.route(h, rb)
		if diags.HasErrors() {
			return nil, NewLoadError(c.path, c.src, diags)
		}
		if err := register(mux, rb.Pattern, rt); err != nil {
			return nil, c.errorAt(routeBlocks[i].DefRange().Start.Line, "Invalid route", err.Error())
		}
		h.Routes = append(h.Routes, rb.Pattern)
	}
	h.handler = mux
	return h, nil
}

// blocksOfType returns the blocks of body named typ in source order, the order
// gohcl decodes them in.
func blocksOfType(body hcl.Body, typ string) []*hclsyntax.Block {
	var blocks []*hclsyntax.Block
	for _, b := range body.(*hclsyntax.Body).Blocks {
		if b.Type == typ {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func (c *compiler) route(h *Handle, rb *routeBlock) (*route, hcl.Diagnostics) {
	rt := &route{
		unit:        h,
		pattern:     rb.Pattern,
		params:      wildcards(rb.Pattern),
		dir:         filepath.Dir(c.path),
		src:         c.src,
		db:          c.db,
		funcs:       c.funcs,
		status:      rb.Status,
		contentType: rb.ContentType,
		headers:     rb.Headers,
		body:        rb.Body,
		query:       rb.Query,
		args:        rb.Args,
		file:        rb.File,
	}

	var diags hcl.Diagnostics
	sources := 0
	for _, expr := range []hcl.Expression{rb.Body, rb.Query, rb.File} {
		if isSet(expr) {
			sources++
			if sources > 1 {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Conflicting response source",
					Detail:   "A route answers with only one of body, query or file.",
					Subject:  expr.Range().Ptr(),
				})
			}
		}
	}
	if isSet(rb.Args) && !isSet(rb.Query) {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Unexpected args",
			Detail:   "args only applies to routes declaring a query.",
			Subject:  rb.Args.Range().Ptr(),
		})
	}

	for _, expr := range rb.expressions() {
		diags = append(diags, c.checkReferences(expr, rt.params)...)
	}
	return rt, diags
}

// checkReferences rejects unknown variables, unknown path parameters and unknown
// functions at load time rather than on the first request.
func (c *compiler) checkReferences(expr hcl.Expression, params []string) hcl.Diagnostics {
	var diags hcl.Diagnostics
	for _, traversal := range expr.Variables() {
		root := traversal.RootName()
		if !utils.ContainsString(rootVariables, root) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown variable",
				Detail:   fmt.Sprintf("There is no variable named %q; use one of %s.", root, strings.Join(rootVariables, ", ")),
				Subject:  traversal.SourceRange().Ptr(),
			})
			continue
		}
		if root != "params" || len(traversal) < 2 {
			continue
		}
		if attr, ok := traversal[1].(hcl.TraverseAttr); ok && !utils.ContainsString(params, attr.Name) {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unknown path parameter",
				Detail:   fmt.Sprintf("The route pattern has no {%s} wildcard.", attr.Name),
				Subject:  traversal.SourceRange().Ptr(),
			})
		}
	}

	if syntaxExpr, ok := expr.(hclsyntax.Expression); ok {
		diags = append(diags, hclsyntax.VisitAll(syntaxExpr, func(node hclsyntax.Node) hcl.Diagnostics {
			call, ok := node.(*hclsyntax.FunctionCallExpr)
			if !ok {
				return nil
			}
			if _, found := c.funcs[call.Name]; found {
				return nil
			}
			return hcl.Diagnostics{{
				Severity: hcl.DiagError,
				Summary:  "Call to unknown function",
				Detail:   fmt.Sprintf("There is no function named %q.", call.Name),
				Subject:  call.NameRange.Ptr(),
			}}
		})...)
	}
	return diags
}

func (c *compiler) errorAt(line int, summary, detail string) *utils.SourceError {
	e := NewLoadError(c.path, c.src, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
	}})
	e.Line = line
	return e
}

// register adds the route to mux, turning the pattern panics of ServeMux into errors.
func register(mux *http.ServeMux, pattern string, h http.Handler) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()
	mux.Handle(pattern, h)
	return nil
}

// isSet reports whether an optional attribute was given. gohcl fills missing
// expression fields with a static null.
func isSet(expr hcl.Expression) bool {
	if expr == nil {
		return false
	}
	v, diags := expr.Value(nil)
	return diags.HasErrors() || !v.IsNull()
}

// wildcards returns the names of the {name} and {name...} segments of a ServeMux pattern.
func wildcards(pattern string) []string {
	if i := strings.IndexAny(pattern, " \t"); i >= 0 {
		pattern = strings.TrimSpace(pattern[i:])
	}
	var names []string
	for _, seg := range strings.Split(pattern, "/") {
		if !strings.HasPrefix(seg, "{") || !strings.HasSuffix(seg, "}") {
			continue
		}
		name := strings.TrimSuffix(strings.Trim(seg, "{}"), "...")
		if name == "$" || name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}
