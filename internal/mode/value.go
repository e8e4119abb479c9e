package mode

import (
	"encoding/json"
	"reflect"

	"github.com/spf13/cast"
	"golang.org/x/net/html"

	"github.com/conneroisu/sigil/internal/errors"
	"github.com/conneroisu/sigil/internal/node"
)

// Stringify converts a resolved variable to text. Missing values become
// the empty string; maps and slices are encoded as JSON.
func Stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}

	switch reflect.ValueOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct:
		data, err := json.Marshal(v)
		if err == nil {
			return string(data)
		}
	}

	return ""
}

// Escape HTML-escapes s including both quote characters.
func Escape(s string) string {
	return html.EscapeString(s)
}

func checkArgs(name string, t *node.Tree, minArgs, maxArgs int) error {
	n := t.Args.Len()
	if n < minArgs || n > maxArgs {
		return errors.ErrArgumentCount(name, n, minArgs, maxArgs)
	}

	return nil
}
