package kernel

// GetPageForRef walks page's Parent chain outward and returns the
// nearest page whose Reg owns id, or nil if none does.
func GetPageForRef(page *Leaf, id string) *Leaf {
	for p := page; p != nil; p = p.Parent {
		if _, ok := p.Reg[id]; ok {
			return p
		}
	}
	return nil
}

// GetPageRef resolves ref to the correct storage cell given a page
// chain and a scope (C2's central contract).
//
// If a page in the chain owns ref.ID, that cell is returned directly.
// Otherwise, if scope is present, the cell is lazily materialized via
// initRefInScope and returned from scope.Reg. With neither a page nor
// a scope, ref itself is returned (the StateRef's own Current is used
// as a global cell).
func GetPageRef(page *Leaf, scope *Scope, ref *StateRef, isGetState bool) *StateRef {
	if p := GetPageForRef(page, ref.ID); p != nil {
		return p.Reg[ref.ID]
	}
	if scope != nil {
		initRefInScope(scope, ref, isGetState, false, false)
		return scope.Reg[ref.ID]
	}
	return ref
}

// readRef returns the canonical current value of a StateRef, with no
// page/scope resolution — the fallback path used when neither a page
// nor a scope yields a cell. This is not an error.
func readRef(ref *StateRef) any {
	return ref.Current
}

// initRefInScope idempotently materializes scope.Reg[sourceRef.ID].
// Returns immediately if the cell already exists (testable property:
// "Idempotence of initRefInScope" — repeated calls never re-evaluate
// Before).
//
// isGetState forces derivation even when sourceRef.NoInit is set.
// isKernelCall forces derivation during kernel-internal traversal
// (e.g. the mov-from-store fallback in the step interpreter) even when
// the ref is marked NoInit. softRead suppresses Before entirely — the
// "don't derive yet, I only need identity" path used during a plain
// mov read.
func initRefInScope(scope *Scope, sourceRef *StateRef, isGetState, isKernelCall, softRead bool) {
	if _, ok := scope.Reg[sourceRef.ID]; ok {
		return
	}

	ref := &StateRef{
		ID:      sourceRef.ID,
		Current: sourceRef.Initial,
		Meta:    sourceRef.Meta,
	}

	switch {
	case hasIDMapValue(scope, sourceRef.ID):
		ref.Current = scope.Values.IDMap[sourceRef.ID]

	case sourceRef.SID != "" && hasSIDMapValue(scope, sourceRef.SID) && !sidAlreadyAssigned(scope, sourceRef.SID):
		raw := scope.Values.SIDMap[sourceRef.SID]
		ref.Current = parseSerializedValue(scope, sourceRef, raw)

	case len(sourceRef.Before) > 0 && !softRead:
		needToAssign := isGetState || !sourceRef.NoInit || isKernelCall
		applyBeforeCommands(scope, sourceRef, ref, needToAssign)

	case softRead:
		// Rule 4: leave ref.Current at Initial and skip Before.
	}

	if sourceRef.SID != "" {
		scope.SIDIDMap[sourceRef.SID] = sourceRef.ID
	}
	scope.Reg[sourceRef.ID] = ref
}

func hasIDMapValue(scope *Scope, id string) bool {
	if scope.Values.IDMap == nil {
		return false
	}
	_, ok := scope.Values.IDMap[id]
	return ok
}

func hasSIDMapValue(scope *Scope, sid string) bool {
	if scope.Values.SIDMap == nil {
		return false
	}
	_, ok := scope.Values.SIDMap[sid]
	return ok
}

func sidAlreadyAssigned(scope *Scope, sid string) bool {
	_, ok := scope.SIDIDMap[sid]
	return ok
}

// parseSerializedValue applies meta.serialize.read to a raw
// deserialized value. The serialize metadata is
// expected under ref.Meta["serialize"], either the literal string
// "ignore" (skip parsing, use raw as-is) or a SerializeSpec whose Read
// is applied. Any other value, or a SerializeSpec with a nil Read,
// leaves raw unchanged.
func parseSerializedValue(scope *Scope, ref *StateRef, raw any) any {
	if !scope.FromSerialize {
		return raw
	}
	serialize, ok := ref.Meta["serialize"]
	if !ok || serialize == "ignore" {
		return raw
	}
	if s, ok := serialize.(SerializeSpec); ok && s.Read != nil {
		return s.Read(raw)
	}
	return raw
}

// SerializeSpec names the (optional) read/write pair a StateRef's
// meta["serialize"] entry may carry. The kernel only ever consults
// Read, during sid recovery in initRefInScope; Write exists for
// callers constructing Scope.Values.SIDMap from a prior launch, not
// for any kernel-internal path — the kernel defines no wire protocol
// of its own.
type SerializeSpec struct {
	Read  func(any) any
	Write func(any) any
}

// applyBeforeCommands runs sourceRef.Before in order against ref,
// recursively materializing upstream refs as needed.
func applyBeforeCommands(scope *Scope, sourceRef, ref *StateRef, needToAssign bool) {
	fieldCloned := false

	for _, cmd := range sourceRef.Before {
		switch cmd.Kind {
		case BeforeMap:
			if cmd.From == nil && cmd.Fn == nil {
				continue
			}
			var fromCurrent any
			if cmd.From != nil {
				initRefInScope(scope, cmd.From, false, true, false)
				fromCurrent = scope.Reg[cmd.From.ID].Current
			}
			if !needToAssign {
				continue
			}
			if cmd.Fn != nil {
				ref.Current = cmd.Fn(fromCurrent)
			} else {
				ref.Current = fromCurrent
			}

		case BeforeField:
			if cmd.From == nil {
				continue
			}
			initRefInScope(scope, cmd.From, false, true, false)
			if !fieldCloned {
				ref.Current = shallowClone(ref.Current)
				fieldCloned = true
			}
			if !needToAssign {
				continue
			}
			writeField(ref.Current, cmd.Field, scope.Reg[cmd.From.ID].Current)
		}
	}
}

// shallowClone copies current for a `field` derivation: arrays get a
// positional clone, everything else gets a keyed clone. A non-object
// current under a `field` command is undefined behavior from the
// source; the kernel rejects it by returning current unchanged rather
// than guessing.
func shallowClone(current any) any {
	switch v := current.(type) {
	case []any:
		out := make([]any, len(v))
		copy(out, v)
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[k] = val
		}
		return out
	default:
		return current
	}
}

// writeField writes value into target[field] for the map shape
// shallowClone produces. Non-map targets are a graph-compile-time
// error and are silently ignored here rather than panicking mid-drain.
func writeField(target any, field string, value any) {
	if m, ok := target.(map[string]any); ok {
		m[field] = value
	}
}
