package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"io/fs"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"
)

// TestErrorCodesAreUnique scans the package source for Error{...} literals
// assigned to package vars and fails on a repeated Code. Reflection can't
// list package-level vars, so the AST is the only way.
func TestErrorCodesAreUnique(t *testing.T) {
	c := qt.New(t)
	fset := token.NewFileSet()
	pkgs, err := parser.ParseDir(fset, ".", func(info fs.FileInfo) bool {
		name := info.Name()
		return strings.HasSuffix(name, ".go") && !strings.HasSuffix(name, "_test.go")
	}, 0)
	c.Assert(err, qt.IsNil)
	pkg, ok := pkgs["errors"]
	c.Assert(ok, qt.IsTrue)

	byCode := map[int][]string{}
	for _, f := range pkg.Files {
		ast.Inspect(f, func(n ast.Node) bool {
			gd, ok := n.(*ast.GenDecl)
			if !ok || gd.Tok != token.VAR {
				return true
			}
			for _, spec := range gd.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for i, name := range vs.Names {
					if i >= len(vs.Values) {
						continue
					}
					cl, ok := vs.Values[i].(*ast.CompositeLit)
					if !ok || !isErrorComposite(cl) {
						continue
					}
					if code, ok := extractCodeField(cl); ok {
						byCode[code] = append(byCode[code], name.Name+"@"+fset.Position(name.Pos()).String())
					}
				}
			}
			return true
		})
	}

	c.Assert(len(byCode) > 0, qt.IsTrue)
	var dups []string
	for code, refs := range byCode {
		if len(refs) > 1 {
			dups = append(dups, strconv.Itoa(code)+": "+strings.Join(refs, ", "))
		}
	}
	c.Assert(dups, qt.HasLen, 0, qt.Commentf("duplicate Error.Code values:\n  %s", strings.Join(dups, "\n  ")))
}

func isErrorComposite(cl *ast.CompositeLit) bool {
	switch t := cl.Type.(type) {
	case *ast.Ident:
		return t.Name == "Error"
	case *ast.SelectorExpr:
		return t.Sel.Name == "Error"
	default:
		return false
	}
}

func extractCodeField(cl *ast.CompositeLit) (int, bool) {
	for _, elt := range cl.Elts {
		kv, ok := elt.(*ast.KeyValueExpr)
		if !ok {
			continue
		}
		if key, ok := kv.Key.(*ast.Ident); !ok || key.Name != "Code" {
			continue
		}
		if v, ok := kv.Value.(*ast.BasicLit); ok && v.Kind == token.INT {
			n, err := strconv.ParseInt(strings.ReplaceAll(v.Value, "_", ""), 0, 32)
			if err == nil {
				return int(n), true
			}
		}
	}
	return 0, false
}

func TestWriteEnvelope(t *testing.T) {
	c := qt.New(t)
	w := httptest.NewRecorder()
	ErrPaymentDeclined.With("card ending 4242").Write(w)

	c.Assert(w.Code, qt.Equals, http.StatusPaymentRequired)
	c.Assert(w.Header().Get("Content-Type"), qt.Equals, "application/json")
	var body struct {
		Error string `json:"error"`
		Code  int    `json:"code"`
	}
	c.Assert(json.Unmarshal(w.Body.Bytes(), &body), qt.IsNil)
	c.Assert(body.Code, qt.Equals, 40201)
	c.Assert(body.Error, qt.Equals, "payment declined or requires authentication: card ending 4242")
}

func TestRefinedErrorsKeepIdentity(t *testing.T) {
	c := qt.New(t)
	cause := fmt.Errorf("upstream timeout")
	err := ErrGateway.WithErr(cause).WithData(map[string]string{"operation": "createCustomer"})

	c.Assert(stderrors.Is(err, ErrGateway), qt.IsTrue)
	c.Assert(stderrors.Is(err, ErrValidation), qt.IsFalse)
	c.Assert(stderrors.Is(err, cause), qt.IsTrue)
	c.Assert(err.HTTPstatus, qt.Equals, http.StatusBadGateway)
	c.Assert(err.Data, qt.DeepEquals, map[string]string{"operation": "createCustomer"})
	c.Assert(ErrValidation.Withf("field %s", "amount").Error(), qt.Equals, "invalid request: field amount")
}
