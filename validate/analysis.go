package validate

import (
	"github.com/dop251/goja/ast"
	"github.com/dop251/goja/file"
	"github.com/dop251/goja/token"
)

// BindingKind classifies how an identifier came to be bound or written.
type BindingKind string

// Binding and write kinds reported by the analysis.
const (
	KindAssignment          BindingKind = "assignment"
	KindUpdate              BindingKind = "update"
	KindDeclaration         BindingKind = "declaration"
	KindFunctionDeclaration BindingKind = "function-declaration"
	KindFunctionExpression  BindingKind = "function-expression"
	KindClassDeclaration    BindingKind = "class-declaration"
	KindClassExpression     BindingKind = "class-expression"
	KindParameter           BindingKind = "parameter"
	KindCatchParameter      BindingKind = "catch-parameter"
	KindImport              BindingKind = "import"
)

// scope is one level of the lexical scope chain. Shadowing checks run after
// the full walk, so hoisted declarations shadow references that precede
// them in source order, matching engine semantics.
type scope struct {
	parent   *scope
	declared map[string]bool
}

func (s *scope) declare(name string) {
	s.declared[name] = true
}

func (s *scope) resolves(name string) bool {
	for cur := s; cur != nil; cur = cur.parent {
		if cur.declared[name] {
			return true
		}
	}
	return false
}

// Reference is an identifier in usage position together with the scope it
// was read from.
type Reference struct {
	Identifier *ast.Identifier
	scope      *scope

	// Shorthand marks an object-literal shorthand property name, which
	// reads a variable but doubles as a property key and therefore must
	// never be renamed.
	Shorthand bool
}

// Shadowed reports whether the reference resolves to a local binding
// rather than a sandbox global.
func (r Reference) Shadowed() bool {
	return r.scope.resolves(string(r.Identifier.Name))
}

// Binding is an identifier in binding position (declaration, parameter,
// catch parameter, destructuring target, function or class name).
type Binding struct {
	Name string
	Kind BindingKind
	Idx  file.Idx
}

// WriteTarget is an identifier being assigned or updated.
type WriteTarget struct {
	Name string
	Kind BindingKind
	Idx  file.Idx
}

// ComputedKey is a computed member access whose key is a string literal or
// a substitution-free template literal, e.g. obj['eval'].
type ComputedKey struct {
	Key  string
	Node ast.Expression
}

// Analysis is the result of one scope-aware walk over a parsed program.
// Rules and the transformer both consume it.
type Analysis struct {
	Program      *ast.Program
	References   []Reference
	Bindings     []Binding
	WriteTargets []WriteTarget
	ComputedKeys []ComputedKey
}

// Position converts an AST index to a 1-based source location.
func (a *Analysis) Position(idx file.Idx) file.Position {
	return a.Program.File.Position(int(idx) - a.Program.File.Base())
}

// Span returns the 0-based byte offsets of a node within the source.
func (a *Analysis) Span(n ast.Node) (start, end int) {
	base := a.Program.File.Base()
	return int(n.Idx0()) - base, int(n.Idx1()) - base
}

// Analyze walks the program and collects references, bindings, write
// targets and computed keys.
func Analyze(prog *ast.Program) *Analysis {
	w := &walker{
		analysis: &Analysis{Program: prog},
	}
	w.scope = &scope{declared: make(map[string]bool)}
	w.funcScope = w.scope
	for _, stmt := range prog.Body {
		w.walkStmt(stmt)
	}
	return w.analysis
}

type walker struct {
	analysis  *Analysis
	scope     *scope
	funcScope *scope
}

func (w *walker) push() func() {
	prev := w.scope
	w.scope = &scope{parent: prev, declared: make(map[string]bool)}
	return func() { w.scope = prev }
}

func (w *walker) pushFunction() func() {
	prevScope, prevFunc := w.scope, w.funcScope
	w.scope = &scope{parent: prevScope, declared: make(map[string]bool)}
	w.funcScope = w.scope
	return func() { w.scope, w.funcScope = prevScope, prevFunc }
}

func (w *walker) reference(id *ast.Identifier, shorthand bool) {
	w.analysis.References = append(w.analysis.References, Reference{
		Identifier: id,
		scope:      w.scope,
		Shorthand:  shorthand,
	})
}

func (w *walker) binding(name string, kind BindingKind, idx file.Idx, sc *scope) {
	sc.declare(name)
	w.analysis.Bindings = append(w.analysis.Bindings, Binding{Name: name, Kind: kind, Idx: idx})
}

func (w *walker) write(name string, kind BindingKind, idx file.Idx) {
	w.analysis.WriteTargets = append(w.analysis.WriteTargets, WriteTarget{Name: name, Kind: kind, Idx: idx})
}

func (w *walker) walkStmt(stmt ast.Statement) {
	switch s := stmt.(type) {
	case nil:
	case *ast.BlockStatement:
		defer w.push()()
		for _, inner := range s.List {
			w.walkStmt(inner)
		}
	case *ast.ExpressionStatement:
		w.walkExpr(s.Expression)
	case *ast.IfStatement:
		w.walkExpr(s.Test)
		w.walkStmt(s.Consequent)
		w.walkStmt(s.Alternate)
	case *ast.ForStatement:
		defer w.push()()
		w.walkForInit(s.Initializer)
		w.walkExpr(s.Test)
		w.walkExpr(s.Update)
		w.walkStmt(s.Body)
	case *ast.ForInStatement:
		defer w.push()()
		w.walkForInto(s.Into)
		w.walkExpr(s.Source)
		w.walkStmt(s.Body)
	case *ast.ForOfStatement:
		defer w.push()()
		w.walkForInto(s.Into)
		w.walkExpr(s.Source)
		w.walkStmt(s.Body)
	case *ast.WhileStatement:
		w.walkExpr(s.Test)
		w.walkStmt(s.Body)
	case *ast.DoWhileStatement:
		w.walkStmt(s.Body)
		w.walkExpr(s.Test)
	case *ast.ReturnStatement:
		w.walkExpr(s.Argument)
	case *ast.ThrowStatement:
		w.walkExpr(s.Argument)
	case *ast.TryStatement:
		w.walkStmt(s.Body)
		if s.Catch != nil {
			restore := w.push()
			if s.Catch.Parameter != nil {
				w.walkBindingTarget(s.Catch.Parameter, KindCatchParameter, w.scope)
			}
			for _, inner := range s.Catch.Body.List {
				w.walkStmt(inner)
			}
			restore()
		}
		if s.Finally != nil {
			w.walkStmt(s.Finally)
		}
	case *ast.SwitchStatement:
		w.walkExpr(s.Discriminant)
		defer w.push()()
		for _, c := range s.Body {
			w.walkExpr(c.Test)
			for _, inner := range c.Consequent {
				w.walkStmt(inner)
			}
		}
	case *ast.LabelledStatement:
		w.walkStmt(s.Statement)
	case *ast.WithStatement:
		w.walkExpr(s.Object)
		w.walkStmt(s.Body)
	case *ast.VariableStatement:
		w.walkBindings(s.List, w.funcScope)
	case *ast.LexicalDeclaration:
		w.walkBindings(s.List, w.scope)
	case *ast.FunctionDeclaration:
		w.walkFunction(s.Function, KindFunctionDeclaration, w.funcScope)
	case *ast.ClassDeclaration:
		w.walkClass(s.Class, KindClassDeclaration, w.scope)
	case *ast.BranchStatement, *ast.EmptyStatement, *ast.DebuggerStatement:
	}
}

func (w *walker) walkBindings(list []*ast.Binding, sc *scope) {
	for _, b := range list {
		w.walkBindingTarget(b.Target, KindDeclaration, sc)
		w.walkExpr(b.Initializer)
	}
}

func (w *walker) walkForInit(init ast.ForLoopInitializer) {
	switch i := init.(type) {
	case nil:
	case *ast.ForLoopInitializerExpression:
		w.walkExpr(i.Expression)
	case *ast.ForLoopInitializerVarDeclList:
		w.walkBindings(i.List, w.funcScope)
	case *ast.ForLoopInitializerLexicalDecl:
		w.walkBindings(i.LexicalDeclaration.List, w.scope)
	}
}

func (w *walker) walkForInto(into ast.ForInto) {
	switch i := into.(type) {
	case nil:
	case *ast.ForIntoVar:
		w.walkBindingTarget(i.Binding.Target, KindDeclaration, w.funcScope)
		w.walkExpr(i.Binding.Initializer)
	case *ast.ForDeclaration:
		w.walkBindingTarget(i.Target, KindDeclaration, w.scope)
	case *ast.ForIntoExpression:
		w.walkAssignTarget(i.Expression)
	}
}

// walkBindingTarget descends a binding pattern, recording every bound
// identifier. Default values and computed keys inside patterns are usage
// positions and are walked as expressions.
func (w *walker) walkBindingTarget(target ast.Expression, kind BindingKind, sc *scope) {
	switch t := target.(type) {
	case nil:
	case *ast.Identifier:
		w.binding(string(t.Name), kind, t.Idx, sc)
	case *ast.ArrayPattern:
		for _, elem := range t.Elements {
			w.walkBindingTarget(elem, kind, sc)
		}
		w.walkBindingTarget(t.Rest, kind, sc)
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			switch p := prop.(type) {
			case *ast.PropertyKeyed:
				if p.Computed {
					w.walkExpr(p.Key)
				}
				w.walkBindingTarget(p.Value, kind, sc)
			case *ast.PropertyShort:
				w.binding(string(p.Name.Name), kind, p.Name.Idx, sc)
				w.walkExpr(p.Initializer)
			}
		}
		w.walkBindingTarget(t.Rest, kind, sc)
	case *ast.AssignExpression:
		// Pattern element with a default value.
		w.walkBindingTarget(t.Left, kind, sc)
		w.walkExpr(t.Right)
	default:
		// Member expressions and other non-binding targets are reads.
		w.walkExpr(target)
	}
}

// walkAssignTarget descends the left side of an assignment, recording
// writes to identifiers and treating them as usage references so the
// transformer can alias writes to protected globals as well.
func (w *walker) walkAssignTarget(target ast.Expression) {
	switch t := target.(type) {
	case nil:
	case *ast.Identifier:
		w.write(string(t.Name), KindAssignment, t.Idx)
		w.reference(t, false)
	case *ast.ArrayPattern:
		for _, elem := range t.Elements {
			w.walkAssignTarget(elem)
		}
		w.walkAssignTarget(t.Rest)
	case *ast.ObjectPattern:
		for _, prop := range t.Properties {
			switch p := prop.(type) {
			case *ast.PropertyKeyed:
				if p.Computed {
					w.walkExpr(p.Key)
				}
				w.walkAssignTarget(p.Value)
			case *ast.PropertyShort:
				w.write(string(p.Name.Name), KindAssignment, p.Name.Idx)
				w.walkExpr(p.Initializer)
			}
		}
		w.walkAssignTarget(t.Rest)
	case *ast.AssignExpression:
		w.walkAssignTarget(t.Left)
		w.walkExpr(t.Right)
	default:
		w.walkExpr(target)
	}
}

// walkFunction records the function name binding and walks the body in a
// fresh function scope. A declaration's name binds in nameScope; an
// expression's name (nameScope nil) binds only inside its own body.
func (w *walker) walkFunction(fn *ast.FunctionLiteral, kind BindingKind, nameScope *scope) {
	if fn.Name != nil && nameScope != nil {
		w.binding(string(fn.Name.Name), kind, fn.Name.Idx, nameScope)
	}
	defer w.pushFunction()()
	if fn.Name != nil && nameScope == nil {
		w.binding(string(fn.Name.Name), kind, fn.Name.Idx, w.scope)
	}
	w.walkParams(fn.ParameterList)
	for _, stmt := range fn.Body.List {
		w.walkStmt(stmt)
	}
}

func (w *walker) walkParams(params *ast.ParameterList) {
	if params == nil {
		return
	}
	for _, b := range params.List {
		w.walkBindingTarget(b.Target, KindParameter, w.scope)
		w.walkExpr(b.Initializer)
	}
	w.walkBindingTarget(params.Rest, KindParameter, w.scope)
}

// walkClass mirrors walkFunction: a class expression's name binds only
// within the class body.
func (w *walker) walkClass(cls *ast.ClassLiteral, kind BindingKind, nameScope *scope) {
	if cls.Name != nil && nameScope != nil {
		w.binding(string(cls.Name.Name), kind, cls.Name.Idx, nameScope)
	}
	defer w.push()()
	if cls.Name != nil && nameScope == nil {
		w.binding(string(cls.Name.Name), kind, cls.Name.Idx, w.scope)
	}
	w.walkExpr(cls.SuperClass)
	for _, elem := range cls.Body {
		switch e := elem.(type) {
		case *ast.MethodDefinition:
			if e.Computed {
				w.walkExpr(e.Key)
			}
			w.walkFunction(e.Body, KindFunctionExpression, nil)
		case *ast.FieldDefinition:
			if e.Computed {
				w.walkExpr(e.Key)
			}
			w.walkExpr(e.Initializer)
		}
	}
}

func (w *walker) walkExpr(expr ast.Expression) {
	switch e := expr.(type) {
	case nil:
	case *ast.Identifier:
		w.reference(e, false)
	case *ast.AssignExpression:
		w.walkAssignTarget(e.Left)
		w.walkExpr(e.Right)
	case *ast.BinaryExpression:
		w.walkExpr(e.Left)
		w.walkExpr(e.Right)
	case *ast.UnaryExpression:
		if e.Operator == token.INCREMENT || e.Operator == token.DECREMENT {
			if id, ok := e.Operand.(*ast.Identifier); ok {
				w.write(string(id.Name), KindUpdate, id.Idx)
			}
		}
		w.walkExpr(e.Operand)
	case *ast.ConditionalExpression:
		w.walkExpr(e.Test)
		w.walkExpr(e.Consequent)
		w.walkExpr(e.Alternate)
	case *ast.CallExpression:
		w.walkExpr(e.Callee)
		for _, arg := range e.ArgumentList {
			w.walkExpr(arg)
		}
	case *ast.NewExpression:
		w.walkExpr(e.Callee)
		for _, arg := range e.ArgumentList {
			w.walkExpr(arg)
		}
	case *ast.DotExpression:
		// The property identifier is a key, not a variable reference.
		w.walkExpr(e.Left)
	case *ast.BracketExpression:
		w.walkExpr(e.Left)
		w.walkComputedKey(e.Member)
		w.walkExpr(e.Member)
	case *ast.SequenceExpression:
		for _, inner := range e.Sequence {
			w.walkExpr(inner)
		}
	case *ast.ArrayLiteral:
		for _, elem := range e.Value {
			w.walkExpr(elem)
		}
	case *ast.ObjectLiteral:
		for _, prop := range e.Value {
			switch p := prop.(type) {
			case *ast.PropertyKeyed:
				if p.Computed {
					w.walkExpr(p.Key)
				}
				w.walkExpr(p.Value)
			case *ast.PropertyShort:
				w.reference(&p.Name, true)
				w.walkExpr(p.Initializer)
			case *ast.SpreadElement:
				w.walkExpr(p.Expression)
			}
		}
	case *ast.SpreadElement:
		w.walkExpr(e.Expression)
	case *ast.FunctionLiteral:
		w.walkFunction(e, KindFunctionExpression, nil)
	case *ast.ArrowFunctionLiteral:
		restore := w.pushFunction()
		w.walkParams(e.ParameterList)
		switch body := e.Body.(type) {
		case *ast.BlockStatement:
			for _, stmt := range body.List {
				w.walkStmt(stmt)
			}
		case *ast.ExpressionBody:
			w.walkExpr(body.Expression)
		}
		restore()
	case *ast.ClassLiteral:
		w.walkClass(e, KindClassExpression, nil)
	case *ast.TemplateLiteral:
		w.walkExpr(e.Tag)
		for _, inner := range e.Expressions {
			w.walkExpr(inner)
		}
	case *ast.OptionalChain:
		w.walkExpr(e.Expression)
	case *ast.Optional:
		w.walkExpr(e.Expression)
	case *ast.YieldExpression:
		w.walkExpr(e.Argument)
	case *ast.AwaitExpression:
		w.walkExpr(e.Argument)
	}
}

// walkComputedKey records bracket-access keys that are plain string
// literals or substitution-free template literals, for computed-member
// transformation.
func (w *walker) walkComputedKey(member ast.Expression) {
	switch m := member.(type) {
	case *ast.StringLiteral:
		w.analysis.ComputedKeys = append(w.analysis.ComputedKeys, ComputedKey{
			Key:  string(m.Value),
			Node: m,
		})
	case *ast.TemplateLiteral:
		if len(m.Expressions) == 0 && len(m.Elements) == 1 {
			w.analysis.ComputedKeys = append(w.analysis.ComputedKeys, ComputedKey{
				Key:  string(m.Elements[0].Parsed),
				Node: m,
			})
		}
	}
}
