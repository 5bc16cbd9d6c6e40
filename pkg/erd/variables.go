package erd

// Variable is an event-local variable declared by a GBRVAR node.
type Variable struct {
	ID          string
	DisplayName string
	Alias       string
}

// VariableTable maps variable ids to their declarations. It is filled in
// document order during one pass, so a reference only resolves after its
// declaration has been visited.
type VariableTable struct {
	vars map[string]Variable
}

// NewVariableTable creates an empty table.
func NewVariableTable() *VariableTable {
	return &VariableTable{vars: make(map[string]Variable)}
}

// Declare registers a variable. Redeclaring an id replaces the entry.
func (t *VariableTable) Declare(id, displayName, alias string) {
	t.vars[id] = Variable{ID: id, DisplayName: displayName, Alias: alias}
}

// Resolve returns the declaration for id.
func (t *VariableTable) Resolve(id string) (Variable, bool) {
	v, ok := t.vars[id]
	return v, ok
}

// Len returns the number of declared variables.
func (t *VariableTable) Len() int {
	return len(t.vars)
}

func (t *VariableTable) reset() {
	clear(t.vars)
}
