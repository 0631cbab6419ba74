package datasource

import (
	"fmt"
	"strings"
)

// Dialectos de marcadores posicionales.
const (
	dialectPostgres = "postgres"
	dialectMySQL    = "mysql"
)

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdent(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// bindNamed reescribe :name a $n (postgres, numerado por primera aparición) o a ?
// (mysql, un argumento por aparición). Respeta literales entre comillas simples y
// los casts "::" de PostgreSQL.
func bindNamed(query string, params map[string]any, dialect string) (string, []any, error) {
	var (
		b     strings.Builder
		args  []any
		index = map[string]int{}
	)
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			end := strings.IndexByte(query[i+1:], '\'')
			if end < 0 {
				b.WriteString(query[i:])
				i = len(query)
				continue
			}
			b.WriteString(query[i : i+end+2])
			i += end + 1
		case c == ':' && i+1 < len(query) && query[i+1] == ':':
			b.WriteString("::")
			i++
		case c == ':' && i+1 < len(query) && isIdentStart(query[i+1]):
			j := i + 1
			for j < len(query) && isIdent(query[j]) {
				j++
			}
			name := query[i+1 : j]
			v, ok := params[name]
			if !ok {
				return "", nil, fmt.Errorf("缺少参数: %s", name)
			}
			if dialect == dialectMySQL {
				b.WriteByte('?')
				args = append(args, v)
			} else {
				n, seen := index[name]
				if !seen {
					args = append(args, v)
					n = len(args)
					index[name] = n
				}
				fmt.Fprintf(&b, "$%d", n)
			}
			i = j - 1
		default:
			b.WriteByte(c)
		}
	}
	return b.String(), args, nil
}
