package kernel

// StateRef is a logical state cell. Its Current value may be overlaid
// by a page (Leaf) or a Scope; reading through GetPageRef always
// resolves to the innermost applicable overlay.
type StateRef struct {
	ID      string
	Current any

	// Initial seeds a freshly materialized scope cell (see
	// initRefInScope) before any derivation rule applies.
	Initial any

	Meta map[string]any

	// SID, when non-empty, is the serialization id used to look up a
	// persisted value in Scope.Values.SIDMap during lazy
	// materialization, and to record Scope.SIDIDMap[sid] = ID exactly
	// once (invariant 4).
	SID string

	// Before is an ordered list of derivation commands used to lazily
	// construct a scope-local value when neither Scope.Values nor a
	// persisted sid entry supplies one directly.
	Before []BeforeCommand

	// NoInit tips initRefInScope's needToAssign computation toward
	// skipping derivation unless forced by isGetState or isKernelCall.
	NoInit bool
}

// BeforeKind tags which field of BeforeCommand is populated.
type BeforeKind int

const (
	BeforeMap BeforeKind = iota
	BeforeField
)

// BeforeCommand is one step of a StateRef's lazy derivation pipeline.
//
//   - map:   derive from an upstream ref, optionally through Fn.
//   - field: shallow-clone the ref's Current and copy one field from
//     an upstream ref's Current into it.
//
// The historical `closure` case is not represented here — see
// ValidateBeforeCommand.
type BeforeCommand struct {
	Kind BeforeKind

	// From is the upstream StateRef. Required for `field`; optional
	// for `map` (a `map` command with neither From nor Fn is a no-op).
	From *StateRef

	// Fn transforms From.Current for a `map` command. Nil means
	// identity (ref.Current = From.Current).
	Fn func(any) any

	// Field names the map key written for a `field` command; only a
	// map[string]any Current is written to.
	Field string
}

// Leaf is one node in the tree of per-instance state overlays (a
// "page" in spec terms). Its Reg is searched by walking the Parent
// chain outward.
type Leaf struct {
	Reg    map[string]*StateRef
	Parent *Leaf
	FullID string
}

// ScopeValues is the pair of maps a fork is constructed with: values
// observed directly (IDMap) and values recovered from a prior
// serialization (SIDMap), keyed by StateRef.SID.
type ScopeValues struct {
	IDMap  map[string]any
	SIDMap map[string]any
}

// Scope is a fork: an isolated state universe with its own lazily
// materialized state cells.
type Scope struct {
	Reg    map[string]*StateRef
	Values ScopeValues

	// SIDIDMap records, for each sid already consumed during this
	// scope's lifetime, which StateRef.ID claimed it. Invariant 4:
	// written exactly once per scope per sid.
	SIDIDMap map[string]string

	// FromSerialize marks that Values was populated from a
	// deserialized snapshot rather than fresh observation; it gates
	// whether meta.serialize.read is applied during sid recovery.
	FromSerialize bool

	// FxCount, StoreChange and WarnSerializeNode are sink nodes the
	// kernel driver (C4) enqueues after a node activation completes,
	// gated by the activated Node's Meta flags.
	FxCount           *Node
	StoreChange       *Node
	WarnSerializeNode *Node

	// AdditionalLinks maps a node ID to extra successor nodes that
	// should be enqueued whenever that node activates under this
	// scope, on top of Node.Next.
	AdditionalLinks map[string][]*Node
}

// NewScope allocates an empty fork ready for lazy materialization.
func NewScope(values ScopeValues, fromSerialize bool) *Scope {
	return &Scope{
		Reg:             make(map[string]*StateRef),
		Values:          values,
		SIDIDMap:        make(map[string]string),
		FromSerialize:   fromSerialize,
		AdditionalLinks: make(map[string][]*Node),
	}
}
