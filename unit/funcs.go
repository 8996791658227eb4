package unit

import (
	"html"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
)

// HTMLEscapeFunc escapes <, >, &, ' and " so values can be placed in markup.
var HTMLEscapeFunc = function.New(&function.Spec{
	Params: []function.Parameter{
		{Name: "str", Type: cty.String},
	},
	Type: function.StaticReturnType(cty.String),
	Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
		return cty.StringVal(html.EscapeString(args[0].AsString())), nil
	},
})

// Functions returns the functions route expressions may call.
func Functions() map[string]function.Function {
	return map[string]function.Function{
		"coalesce":    stdlib.CoalesceFunc,
		"format":      stdlib.FormatFunc,
		"html_escape": HTMLEscapeFunc,
		"join":        stdlib.JoinFunc,
		"jsondecode":  stdlib.JSONDecodeFunc,
		"jsonencode":  stdlib.JSONEncodeFunc,
		"length":      stdlib.LengthFunc,
		"lower":       stdlib.LowerFunc,
		"replace":     stdlib.ReplaceFunc,
		"split":       stdlib.SplitFunc,
		"strlen":      stdlib.StrlenFunc,
		"title":       stdlib.TitleFunc,
		"trimspace":   stdlib.TrimSpaceFunc,
		"upper":       stdlib.UpperFunc,
	}
}
