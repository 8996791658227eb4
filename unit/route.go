package unit

import (
	"database/sql"
	"encoding/json"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/pkg/errors"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

// SendFileHeader names the file the middleware chain serves in place of the body.
const SendFileHeader = "X-Sendfile"

const (
	htmlContentType = "text/html; charset=utf-8"
	jsonContentType = "application/json"
)

// ErrNoDatabase is raised by query routes when the host runs without a database.
var ErrNoDatabase = errors.New("route declares a query but no database is configured")

type route struct {
	unit    *Handle
	pattern string
	params  []string
	dir     string
	src     []byte
	db      *sql.DB
	funcs   map[string]function.Function

	status, contentType, headers hcl.Expression
	body, query, args, file      hcl.Expression
}

type response struct {
	status int
	header http.Header
	body   []byte
}

// ServeHTTP evaluates the route for the request. Evaluation failures panic with
// the error so the host renders them as a diagnostic page.
func (rt *route) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp, err := rt.respond(r)
	if err != nil {
		panic(err)
	}

	for k, v := range resp.header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.status)
	if len(resp.body) > 0 {
		_, _ = w.Write(resp.body)
	}
}

func (rt *route) respond(r *http.Request) (*response, error) {
	ctx := rt.evalContext(r)
	resp := &response{status: http.StatusOK, header: http.Header{}}

	if v, err := rt.eval(rt.status, ctx, cty.Number); err != nil {
		return nil, err
	} else if !v.IsNull() {
		if err := gocty.FromCtyValue(v, &resp.status); err != nil {
			return nil, rt.evalError(rt.status, "Invalid status", err.Error())
		}
		if resp.status < 100 || resp.status > 999 {
			return nil, rt.evalError(rt.status, "Invalid status", strconv.Itoa(resp.status)+" is not an HTTP status code.")
		}
	}

	contentType := ""
	switch {
	case isSet(rt.file):
		v, err := rt.eval(rt.file, ctx, cty.String)
		if err != nil {
			return nil, err
		}
		if v.IsNull() {
			return nil, rt.evalError(rt.file, "Invalid file", "The file expression produced null.")
		}
		path := v.AsString()
		if !filepath.IsAbs(path) {
			path = filepath.Join(rt.dir, path)
		}
		resp.header.Set(SendFileHeader, path)
		contentType = mime.TypeByExtension(filepath.Ext(path))
		if contentType == "" {
			contentType = "application/octet-stream"
		}

	case isSet(rt.query):
		rows, err := rt.runQuery(r, ctx)
		if err != nil {
			return nil, err
		}
		if resp.body, err = json.Marshal(rows); err != nil {
			return nil, err
		}
		contentType = jsonContentType

	case isSet(rt.body):
		v, err := rt.eval(rt.body, ctx, cty.DynamicPseudoType)
		if err != nil {
			return nil, err
		}
		if v.Type().Equals(cty.String) {
			resp.body = []byte(v.AsString())
			contentType = htmlContentType
		} else {
			if resp.body, err = ctyjson.Marshal(v, v.Type()); err != nil {
				return nil, rt.evalError(rt.body, "Invalid body", err.Error())
			}
			contentType = jsonContentType
		}
	}

	if v, err := rt.eval(rt.contentType, ctx, cty.String); err != nil {
		return nil, err
	} else if !v.IsNull() {
		contentType = v.AsString()
	}
	if bodyAllowed(resp.status) {
		if contentType == "" {
			contentType = htmlContentType
		}
		resp.header.Set("Content-Type", contentType)
	} else {
		resp.body = nil
	}

	if v, err := rt.eval(rt.headers, ctx, cty.Map(cty.String)); err != nil {
		return nil, err
	} else if !v.IsNull() {
		for name, value := range v.AsValueMap() {
			if value.IsNull() {
				continue
			}
			resp.header.Set(name, value.AsString())
		}
	}
	return resp, nil
}

// eval evaluates expr and converts the result to want. Missing attributes give a null.
func (rt *route) eval(expr hcl.Expression, ctx *hcl.EvalContext, want cty.Type) (cty.Value, error) {
	v, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return cty.NilVal, sourceError(evalErrorTitle, rt.unit.SourcePath, rt.src, diags)
	}
	if v.IsNull() {
		return v, nil
	}
	if !v.IsWhollyKnown() {
		return cty.NilVal, rt.evalError(expr, "Unknown value", "The expression did not produce a known value.")
	}
	if want.Equals(cty.DynamicPseudoType) {
		return v, nil
	}
	converted, err := convert.Convert(v, want)
	if err != nil {
		return cty.NilVal, rt.evalError(expr, "Incorrect value type", err.Error())
	}
	return converted, nil
}

func (rt *route) evalError(expr hcl.Expression, summary, detail string) error {
	return sourceError(evalErrorTitle, rt.unit.SourcePath, rt.src, hcl.Diagnostics{{
		Severity: hcl.DiagError,
		Summary:  summary,
		Detail:   detail,
		Subject:  expr.Range().Ptr(),
	}})
}

func (rt *route) evalContext(r *http.Request) *hcl.EvalContext {
	query := map[string]cty.Value{}
	for k, v := range r.URL.Query() {
		if len(v) > 0 {
			query[k] = cty.StringVal(v[0])
		}
	}
	headers := map[string]cty.Value{}
	for k, v := range r.Header {
		if len(v) > 0 {
			headers[strings.ToLower(k)] = cty.StringVal(v[0])
		}
	}
	params := map[string]cty.Value{}
	for _, name := range rt.params {
		params[name] = cty.StringVal(r.PathValue(name))
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"request": cty.ObjectVal(map[string]cty.Value{
				"method":  cty.StringVal(r.Method),
				"path":    cty.StringVal(r.URL.Path),
				"host":    cty.StringVal(r.Host),
				"query":   stringMap(query),
				"headers": stringMap(headers),
			}),
			"params": cty.ObjectVal(params),
			"app": cty.ObjectVal(map[string]cty.Value{
				"name":  cty.StringVal(rt.unit.Name),
				"mount": cty.StringVal(rt.unit.MountName),
				"title": cty.StringVal(rt.unit.Title),
			}),
		},
		Functions: rt.funcs,
	}
}

func stringMap(m map[string]cty.Value) cty.Value {
	if len(m) == 0 {
		return cty.MapValEmpty(cty.String)
	}
	return cty.MapVal(m)
}

// runQuery executes the route query and returns the rows as column -> value maps.
func (rt *route) runQuery(r *http.Request, ctx *hcl.EvalContext) ([]map[string]interface{}, error) {
	if rt.db == nil {
		return nil, errors.Wrapf(ErrNoDatabase, "%s %s", rt.unit.MountName, rt.pattern)
	}
	q, err := rt.eval(rt.query, ctx, cty.String)
	if err != nil {
		return nil, err
	}
	if q.IsNull() {
		return nil, rt.evalError(rt.query, "Invalid query", "The query expression produced null.")
	}
	args, err := rt.queryArgs(ctx)
	if err != nil {
		return nil, err
	}

	rows, err := rt.db.QueryContext(r.Context(), q.AsString(), args...)
	if err != nil {
		return nil, rt.evalError(rt.query, "Query failed", err.Error())
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	result := []map[string]interface{}{}
	for rows.Next() {
		values := make([]interface{}, len(columns))
		pointers := make([]interface{}, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}
		row := make(map[string]interface{}, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}

func (rt *route) queryArgs(ctx *hcl.EvalContext) ([]interface{}, error) {
	v, err := rt.eval(rt.args, ctx, cty.DynamicPseudoType)
	if err != nil || v.IsNull() {
		return nil, err
	}
	if !v.CanIterateElements() || v.Type().IsMapType() || v.Type().IsObjectType() {
		return nil, rt.evalError(rt.args, "Incorrect value type", "args must be a list.")
	}

	var args []interface{}
	for it := v.ElementIterator(); it.Next(); {
		_, el := it.Element()
		arg, err := goValue(el)
		if err != nil {
			return nil, rt.evalError(rt.args, "Incorrect value type", err.Error())
		}
		args = append(args, arg)
	}
	return args, nil
}

func goValue(v cty.Value) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch v.Type() {
	case cty.String:
		return v.AsString(), nil
	case cty.Bool:
		return v.True(), nil
	case cty.Number:
		bf := v.AsBigFloat()
		if bf.IsInt() {
			i, _ := bf.Int64()
			return i, nil
		}
		f, _ := bf.Float64()
		return f, nil
	}
	return nil, errors.Errorf("cannot pass a %s as a query argument", v.Type().FriendlyName())
}

// bodyAllowed reports whether a response with this status may carry a body.
func bodyAllowed(status int) bool {
	return status >= 200 && status != http.StatusNoContent && status != http.StatusNotModified
}
