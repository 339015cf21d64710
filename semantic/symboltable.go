package semantic

// Symbol is one entry in the symbol table: the memory offset and type
// info assigned to a declared identifier.
type Symbol struct {
	Name   string
	Offset int
	Type   TypeInfo
}

// SymbolTable maps identifiers to their (offset, TypeInfo) pair. It is
// built once during semantic analysis and is read-only thereafter; both
// emitters hold a shared reference, never a copy. Offsets are assigned in
// declaration order and are never reused — shadowing is not allowed.
type SymbolTable struct {
	order      []string
	symbols    map[string]Symbol
	nextOffset int
}

// NewSymbolTable returns an empty table with offset allocation starting
// at zero.
func NewSymbolTable() *SymbolTable {
	return &SymbolTable{symbols: make(map[string]Symbol)}
}

// Declare allocates a fresh offset for name and records its type. It
// reports Redeclared if name is already bound.
//
// Per §4.3's existing layout convention, next_offset advances by the
// type's bit width, not its byte width — this is observable in emitted
// PUSH immediates and must be reproduced verbatim.
func (t *SymbolTable) Declare(name string, typ TypeInfo) (Symbol, error) {
	if _, exists := t.symbols[name]; exists {
		return Symbol{}, RedeclaredError{Name: name}
	}
	sym := Symbol{Name: name, Offset: t.nextOffset, Type: typ}
	t.symbols[name] = sym
	t.order = append(t.order, name)
	t.nextOffset += typ.BitWidth()
	return sym, nil
}

// Lookup returns the symbol bound to name, if any.
func (t *SymbolTable) Lookup(name string) (Symbol, bool) {
	sym, ok := t.symbols[name]
	return sym, ok
}

// Names returns declared identifiers in declaration order.
func (t *SymbolTable) Names() []string {
	out := make([]string, len(t.order))
	copy(out, t.order)
	return out
}
