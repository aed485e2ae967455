package analyzer

import (
	"fmt"
	"strings"

	"github.com/zilchlang/zilch/pkg/ast"
	"github.com/zilchlang/zilch/pkg/diagnostics"
	"github.com/zilchlang/zilch/pkg/types"
)

// classDecls and freeFunctionDecls are populated by collectClasses and
// consumed by every later pass; they're kept on the Analyzer rather than
// threaded as parameters since every pass walks the same program.

// collectClasses is pass 1: it registers an empty BoundType for every class
// declaration (so forward references -- a field of type B inside class A
// declared before B -- resolve) and records free function declarations for
// later passes.
func (a *Analyzer) collectClasses(program *ast.Program) error {
	a.classDecls = make(map[string]*ast.Class)
	for _, stmt := range program.Statements {
		switch s := stmt.(type) {
		case *ast.Class:
			if _, exists := a.classDecls[s.Name]; exists {
				return a.report(diagnostics.ErrorEvent{
					Code:   "E-DUP-CLASS",
					Reason: fmt.Sprintf("class %q is declared more than once", s.Name),
				})
			}
			a.classDecls[s.Name] = s
			a.classOrder = append(a.classOrder, s.Name)
			bt := types.NewBoundType(s.Name, types.ByReference)
			if err := a.Library.AddType(bt); err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-DUP-CLASS", Reason: err.Error()})
			}
		case ast.FunctionStatement:
			a.freeFunctionDecls = append(a.freeFunctionDecls, s.Fn)
		}
	}
	return nil
}

// resolveInheritanceAndTemplates is pass 2: it links each BoundType.Parent.
// Template references are not walked here; they are instantiated on demand
// by resolveTypeRef the first time a later pass resolves a field, return,
// parameter, or variable type that names one, and the first (base, args)
// pair seen wins the cache entry everyone else resolves to (see the Open
// Questions decision in the grounding ledger).
func (a *Analyzer) resolveInheritanceAndTemplates(program *ast.Program) error {
	for _, name := range a.classOrder {
		decl := a.classDecls[name]
		bt := a.Library.Types[name]
		if decl.SuperClass == "" {
			continue
		}
		parent, ok := a.lookupType(decl.SuperClass)
		if !ok {
			return a.report(diagnostics.ErrorEvent{
				Code:   "E-UNKNOWN-SUPER",
				Reason: fmt.Sprintf("class %q extends unknown class %q", name, decl.SuperClass),
			})
		}
		parentBound, ok := parent.(*types.BoundType)
		if !ok {
			return a.report(diagnostics.ErrorEvent{
				Code:   "E-BAD-SUPER",
				Reason: fmt.Sprintf("class %q cannot extend non-class type %q", name, decl.SuperClass),
			})
		}
		bt.Parent = parentBound
	}
	return nil
}

// lookupType resolves a bare name against the library under construction
// first, then the imported module, mirroring types.Module.FindType's
// root-precedence rule.
func (a *Analyzer) lookupType(name string) (types.Type, bool) {
	if bt, ok := a.Library.Types[name]; ok {
		return bt, true
	}
	switch name {
	case "Boolean":
		return types.Boolean, true
	case "Byte":
		return types.Byte, true
	case "Integer":
		return types.Integer, true
	case "DoubleInteger":
		return types.DoubleInteger, true
	case "Real":
		return types.Real, true
	case "DoubleReal":
		return types.DoubleReal, true
	case "String":
		return types.String, true
	case "Void":
		return types.Void, true
	case "Null":
		return types.Null, true
	case "Error":
		return types.Error, true
	case "Any":
		return types.TheAnyType, true
	}
	if bt, ok := a.Module.FindType(name); ok {
		return bt, true
	}
	return nil, false
}

// resolveTypeRef turns a parsed ast.TypeRef into a types.Type, instantiating
// a template when Args is non-empty.
func (a *Analyzer) resolveTypeRef(ref ast.TypeRef) (types.Type, error) {
	if len(ref.Args) == 0 {
		t, ok := a.lookupType(ref.Name)
		if !ok {
			return nil, fmt.Errorf("unknown type %q", ref.Name)
		}
		return t, nil
	}
	base, ok := a.classDecls[ref.Name]
	if !ok {
		return nil, fmt.Errorf("type %q is not a template and cannot take arguments", ref.Name)
	}
	args := make([]types.Constant, len(ref.Args))
	argNames := make([]string, len(ref.Args))
	for i, argRef := range ref.Args {
		argType, err := a.resolveTypeRef(argRef)
		if err != nil {
			return nil, err
		}
		args[i] = types.ConstStr(argType.TypeName())
		argNames[i] = argType.TypeName()
	}
	key := templateKey(ref.Name, argNames)
	if cached, ok := a.templateCache[key]; ok {
		return cached, nil
	}
	inst := a.instantiateTemplate(base, ref.Name, args, argNames)
	a.templateCache[key] = inst
	return inst, nil
}

func templateKey(base string, argNames []string) string {
	return base + "<" + strings.Join(argNames, ",") + ">"
}

// instantiateTemplate builds a fresh BoundType for one (base, args)
// combination. The clone is registered into the owning library under its
// mangled name so later lookups (including repeated IndexExpression
// accesses against the same instantiation) resolve to the identical
// *types.BoundType.
//
// The template's fields and methods are not copied and template parameter
// names (like "T") are not substituted: the instantiation is a structural
// shell carrying only its identity, its template base/arguments, and its
// Parent link, and no later pass attaches members to it. Tracking identity
// and dedup here is what the Open Questions decision is about.
func (a *Analyzer) instantiateTemplate(templateDecl *ast.Class, baseName string, args []types.Constant, argNames []string) *types.BoundType {
	mangled := templateKey(baseName, argNames)
	inst := types.NewBoundType(mangled, types.ByReference)
	inst.TemplateBase = baseName
	inst.TemplateArgs = args
	if templateDecl.SuperClass != "" {
		if parent, ok := a.lookupType(templateDecl.SuperClass); ok {
			if pb, ok := parent.(*types.BoundType); ok {
				inst.Parent = pb
			}
		}
	}
	// Registering under the mangled name keeps FindType/lookupType working
	// for later references without a separate instantiation table. It is
	// deliberately NOT added to classOrder: that slice drives collectMembers'
	// field/method collection, which walks a declaration's Fields/Methods
	// directly against the un-substituted template parameter names and so
	// does not apply to an instantiation shell.
	if _, exists := a.Library.Types[mangled]; !exists {
		_ = a.Library.AddType(inst)
	}
	inst.Finalize()
	return inst
}

// collectMembers is pass 3: fields, constructors, destructor,
// pre-constructor, ordinary methods, and attribute names are resolved and attached to each
// BoundType, and free functions are built as owner-less *types.Function
// values. Finalize is called last, parent-first, assigning field offsets.
func (a *Analyzer) collectMembers(program *ast.Program) error {
	for _, name := range a.classOrder {
		decl := a.classDecls[name]
		bt := a.Library.Types[name]
		for _, fd := range decl.Fields {
			ft, err := a.resolveTypeRef(fd.TypeRef)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-UNKNOWN-TYPE", Reason: err.Error()})
			}
			bt.Fields = append(bt.Fields, types.Field{Name: fd.Name, Type: ft})
		}
		for _, m := range decl.Methods {
			fn, err := a.buildFunction(m, bt)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-BAD-SIGNATURE", Reason: err.Error()})
			}
			bt.AddFunction(fn)
		}
		for _, m := range decl.Constructors {
			fn, err := a.buildFunction(m, bt)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-BAD-SIGNATURE", Reason: err.Error()})
			}
			bt.Constructors = append(bt.Constructors, fn)
		}
		if decl.Destructor != nil {
			fn, err := a.buildFunction(decl.Destructor, bt)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-BAD-SIGNATURE", Reason: err.Error()})
			}
			bt.Destructor = fn
		}
		if decl.PreConstructor != nil {
			fn, err := a.buildFunction(decl.PreConstructor, bt)
			if err != nil {
				return a.report(diagnostics.ErrorEvent{Code: "E-BAD-SIGNATURE", Reason: err.Error()})
			}
			bt.PreConstructor = fn
		}
		for _, attr := range decl.Attributes {
			bt.Attributes = append(bt.Attributes, types.Attribute{Name: attr.Name})
		}
	}
	for _, name := range a.classOrder {
		a.Library.Types[name].Finalize()
	}
	for _, m := range a.freeFunctionDecls {
		fn, err := a.buildFunction(m, nil)
		if err != nil {
			return a.report(diagnostics.ErrorEvent{Code: "E-BAD-SIGNATURE", Reason: err.Error()})
		}
		a.FreeFunctions = append(a.FreeFunctions, fn)
	}
	return nil
}

// buildFunction resolves a Method's signature into a types.Function skeleton
// (no bytecode yet -- that's package compiler's job). owner is nil for a
// free function.
func (a *Analyzer) buildFunction(m *ast.Method, owner *types.BoundType) (*types.Function, error) {
	params := make([]types.Type, len(m.Parameters))
	for i, p := range m.Parameters {
		pt, err := a.resolveTypeRef(p.TypeRef)
		if err != nil {
			return nil, fmt.Errorf("%s: parameter %q: %w", m.Name, p.Name, err)
		}
		if p.ByRef {
			pt = &types.IndirectionType{Inner: pt}
		}
		params[i] = pt
	}
	var ret types.Type = types.Void
	if m.ReturnType.Name != "" {
		rt, err := a.resolveTypeRef(m.ReturnType)
		if err != nil {
			return nil, fmt.Errorf("%s: return type: %w", m.Name, err)
		}
		ret = rt
	}
	sig := &types.DelegateType{Parameters: params, Return: ret}
	fn := &types.Function{
		Name:      m.Name,
		Signature: sig,
		Owner:     owner,
		IsVirtual: m.IsVirtual,
	}
	a.funcDecls[fn] = m
	return fn, nil
}
