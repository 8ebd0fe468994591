package engine

import (
	"fmt"
	"strings"

	v3 "github.com/deadsy/sdfx/vec/v3"
	zygo "github.com/glycerine/zygomys/zygo"

	"github.com/chazu/mountscan/pkg/element"
	"github.com/chazu/mountscan/pkg/structure"
)

// ---------------------------------------------------------------------------
// Source preprocessing
// ---------------------------------------------------------------------------

// preprocessSource rewrites structure-script source before zygomys sees it:
//
//  1. :keyword becomes the string literal "__kw_keyword", so keywords never
//     collide with user variables.
//  2. kebab-case identifiers become underscore form (box-check ->
//     box_check); zygomys reads a hyphen as subtraction.
//  3. ; line comments become // comments.
//
// String literals are left untouched.
func preprocessSource(source string) string {
	result := make([]byte, 0, len(source)+len(source)/4)
	b := []byte(source)
	i := 0
	for i < len(b) {
		switch {
		case b[i] == '"':
			j := skipQuoted(b, i)
			result = append(result, b[i:j]...)
			i = j
		case b[i] == '`':
			j := i + 1
			for j < len(b) && b[j] != '`' {
				j++
			}
			if j < len(b) {
				j++
			}
			result = append(result, b[i:j]...)
			i = j
		case b[i] == ';':
			result = append(result, '/', '/')
			for i < len(b) && b[i] == ';' {
				i++
			}
			for i < len(b) && b[i] != '\n' {
				result = append(result, b[i])
				i++
			}
		case b[i] == ':' && i+1 < len(b) && b[i+1] == '=':
			result = append(result, ':', '=')
			i += 2
		case b[i] == ':' && i+1 < len(b) && isLetter(b[i+1]):
			j := i + 1
			for j < len(b) && isKWChar(b[j]) {
				j++
			}
			result = append(result, '"')
			result = append(result, kwPrefix...)
			result = append(result, b[i+1:j]...)
			result = append(result, '"')
			i = j
		case b[i] == '-' && i > 0 && i+1 < len(b) && isIdentChar(b[i-1]) && isIdentStartChar(b[i+1]):
			// Only a hyphen between identifier characters, never minus.
			result = append(result, '_')
			i++
		default:
			result = append(result, b[i])
			i++
		}
	}
	return string(result)
}

// skipQuoted returns the index just past the double-quoted literal starting
// at b[i], honouring backslash escapes.
func skipQuoted(b []byte, i int) int {
	j := i + 1
	for j < len(b) && b[j] != '"' {
		if b[j] == '\\' && j+1 < len(b) {
			j += 2
			continue
		}
		j++
	}
	if j < len(b) {
		j++
	}
	return j
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isKWChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '-' || c == '_'
}

func isIdentChar(c byte) bool {
	return isLetter(c) || (c >= '0' && c <= '9') || c == '_'
}

func isIdentStartChar(c byte) bool {
	return isLetter(c)
}

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a coordinate.
type sexpVec3 struct {
	vec v3.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpAtomRef refers to an atom already added to the model.
type sexpAtomRef struct {
	index  int
	symbol string
}

func (a *sexpAtomRef) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(atom %d %s)", a.index, a.symbol)
}
func (a *sexpAtomRef) Type() *zygo.RegisteredType { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// kwPrefix is the marker prepended to keyword names by preprocessSource.
const kwPrefix = "__kw_"

// isKW reports whether s is a preprocessed keyword and returns its name.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			// Trailing keyword with no value.
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts an integer from a SexpInt.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a plain string or keyword name from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	str, ok := s.(*zygo.SexpStr)
	if !ok {
		return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
	}
	return strings.TrimPrefix(str.S, kwPrefix), nil
}

// toSymbol extracts an element symbol and checks it against the table.
func toSymbol(s zygo.Sexp) (string, error) {
	str, err := toString(s)
	if err != nil {
		return "", err
	}
	e, err := element.Lookup(str)
	if err != nil {
		return "", err
	}
	return e.Symbol, nil
}

// toVec3 extracts a coordinate from a sexpVec3.
func toVec3(s zygo.Sexp) (v3.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return v3.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toAtomIndex accepts an atom reference or a plain index.
func toAtomIndex(s zygo.Sexp) (int, error) {
	if a, ok := s.(*sexpAtomRef); ok {
		return a.index, nil
	}
	idx, err := toInt(s)
	if err != nil {
		return 0, fmt.Errorf("expected atom reference or index: %w", err)
	}
	return idx, nil
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the structure-script builtins into a zygomys
// environment. They populate script during evaluation.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, script *Script) {
	m := script.Model

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: v3.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (atom "Fe" (vec3 0 0 0))
	// (atom :symbol "Fe" :at (vec3 0 0 0))
	// -----------------------------------------------------------------------
	env.AddFunction("atom", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		symArg, hasSym := pa.kw["symbol"]
		atArg, hasAt := pa.kw["at"]
		if !hasSym && len(pa.positional) > 0 {
			symArg, hasSym = pa.positional[0], true
		}
		if !hasAt && len(pa.positional) > 1 {
			atArg, hasAt = pa.positional[1], true
		}
		if !hasSym || !hasAt {
			return zygo.SexpNull, fmt.Errorf("atom requires a symbol and a position")
		}

		sym, err := toSymbol(symArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("atom: symbol: %w", err)
		}
		at, err := toVec3(atArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("atom: at: %w", err)
		}

		idx := m.AddAtom(sym, at)
		return &sexpAtomRef{index: idx, symbol: sym}, nil
	})

	// -----------------------------------------------------------------------
	// (atom-row "C" :from (vec3 0 0 0) :step (vec3 1.5 0 0) :count 7)
	// -----------------------------------------------------------------------
	env.AddFunction("atom_row", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		if len(pa.positional) < 1 {
			return zygo.SexpNull, fmt.Errorf("atom-row requires an element symbol")
		}
		sym, err := toSymbol(pa.positional[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("atom-row: symbol: %w", err)
		}

		var from, step v3.Vec
		if v, ok := pa.kw["from"]; ok {
			if from, err = toVec3(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("atom-row: from: %w", err)
			}
		}
		v, ok := pa.kw["step"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("atom-row requires :step")
		}
		if step, err = toVec3(v); err != nil {
			return zygo.SexpNull, fmt.Errorf("atom-row: step: %w", err)
		}
		count := 1
		if v, ok := pa.kw["count"]; ok {
			if count, err = toInt(v); err != nil {
				return zygo.SexpNull, fmt.Errorf("atom-row: count: %w", err)
			}
		}
		if count < 1 {
			return zygo.SexpNull, fmt.Errorf("atom-row: count must be positive, got %d", count)
		}

		refs := make([]zygo.Sexp, count)
		for i := range refs {
			idx := m.AddAtom(sym, from.Add(step.MulScalar(float64(i))))
			refs[i] = &sexpAtomRef{index: idx, symbol: sym}
		}
		return zygo.MakeList(refs), nil
	})

	// -----------------------------------------------------------------------
	// (structure "name" (atom ...) (atom ...))
	// -----------------------------------------------------------------------
	env.AddFunction("structure", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("structure requires a name argument")
		}
		structName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("structure: name: %w", err)
		}
		for i := 1; i < len(args); i++ {
			if _, ok := args[i].(*sexpAtomRef); ok {
				continue
			}
			items, err := sexpListToSlice(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("structure: child %d: expected atom, got %T", i, args[i])
			}
			for _, item := range items {
				if _, ok := item.(*sexpAtomRef); !ok {
					return zygo.SexpNull, fmt.Errorf("structure: child %d: expected atoms, got %T", i, item)
				}
			}
		}
		m.Name = structName
		return &zygo.SexpStr{S: structName}, nil
	})

	// -----------------------------------------------------------------------
	// (check 0 3 a)   ; indices or atom references
	// -----------------------------------------------------------------------
	env.AddFunction("check", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		for i, arg := range args {
			items := []zygo.Sexp{arg}
			if list, err := sexpListToSlice(arg); err == nil {
				items = list
			}
			for _, item := range items {
				idx, err := toAtomIndex(item)
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("check: argument %d: %w", i, err)
				}
				if idx < 0 || idx >= len(m.Atoms) {
					return zygo.SexpNull, fmt.Errorf("check: atom %d not defined", idx)
				}
				m.AddCheck(idx)
			}
		}
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (box-check :min (vec3 -1 -1 0) :max (vec3 1 1 5))
	// -----------------------------------------------------------------------
	env.AddFunction("box_check", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		minArg, okMin := pa.kw["min"]
		maxArg, okMax := pa.kw["max"]
		if !okMin || !okMax {
			return zygo.SexpNull, fmt.Errorf("box-check requires :min and :max")
		}
		lo, err := toVec3(minArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box-check: min: %w", err)
		}
		hi, err := toVec3(maxArg)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("box-check: max: %w", err)
		}
		box := structure.Box{Min: lo, Max: hi}
		if box.Inverted() {
			return zygo.SexpNull, fmt.Errorf("box-check: max %v is below min %v", hi, lo)
		}
		m.SetCheckBox(box)
		return zygo.SexpNull, nil
	})

	// -----------------------------------------------------------------------
	// (mount :element "H" :bond-length 1.1 :lower 0.6 :upper 1.15)
	// -----------------------------------------------------------------------
	env.AddFunction("mount", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		ms := script.Mount

		if v, ok := pa.kw["element"]; ok {
			sym, err := toSymbol(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mount: element: %w", err)
			}
			ms.Element = sym
		}
		for _, f := range []struct {
			key string
			dst *float64
		}{
			{"bond-length", &ms.BondLength},
			{"lower", &ms.Lower},
			{"upper", &ms.Upper},
		} {
			v, ok := pa.kw[f.key]
			if !ok {
				continue
			}
			x, err := toFloat64(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("mount: %s: %w", f.key, err)
			}
			if x <= 0 {
				return zygo.SexpNull, fmt.Errorf("mount: %s must be positive, got %g", f.key, x)
			}
			*f.dst = x
		}

		script.Mount = ms
		return zygo.SexpNull, nil
	})
}
