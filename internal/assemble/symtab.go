package assemble

import "strings"

// SymbolTable maps case-normalised labels to their 16-bit address. It is
// gob-encodable so a debug build can persist it alongside the object file,
// the same shape golc3's SymTable plays for its own debug symbol table.
type SymbolTable struct {
	Symbols map[string]uint16
	Source  string
}

func NewSymbolTable(source string) *SymbolTable {
	return &SymbolTable{Symbols: make(map[string]uint16), Source: source}
}

func normalize(label string) string {
	return strings.ToLower(label)
}

// Define records label at addr. Returns false if label is already defined.
func (st *SymbolTable) Define(label string, addr uint16) bool {
	key := normalize(label)
	if _, exists := st.Symbols[key]; exists {
		return false
	}
	st.Symbols[key] = addr
	return true
}

// Lookup returns the address for label, case-insensitively.
func (st *SymbolTable) Lookup(label string) (uint16, bool) {
	addr, ok := st.Symbols[normalize(label)]
	return addr, ok
}
