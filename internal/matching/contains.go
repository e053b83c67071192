package matching

// Contains reports whether predicate is a partial structural match of actual.
//
// Mapping predicates require every key to be present in actual with a
// recursively matching value. Set predicates require actual to hold every
// element, or to be the wildcard. Any other predicate is compared with Equal.
func Contains(predicate, actual any) bool {
	switch p := predicate.(type) {
	case Set:
		return setContained(p, actual)
	case *Set:
		if p == nil {
			return actual == nil
		}
		return setContained(*p, actual)
	}

	if pm, ok := asMap(predicate); ok {
		am, ok := asMap(actual)
		if !ok {
			return false
		}
		for key, pv := range pm {
			av, present := am[key]
			if !present {
				return false
			}
			if !Contains(pv, av) {
				return false
			}
		}
		return true
	}

	return Equal(predicate, actual)
}

// ContainsAny reports whether at least one of the predicates matches actual.
// An empty predicate list matches nothing.
func ContainsAny(predicates []any, actual any) bool {
	for _, p := range predicates {
		if Contains(p, actual) {
			return true
		}
	}
	return false
}

// setContained checks set membership of every predicate element.
func setContained(p Set, actual any) bool {
	if isWildcard(actual) {
		return true
	}
	elems, ok := asSlice(actual)
	if !ok {
		return false
	}
	for _, want := range p.items {
		found := false
		for _, have := range elems {
			if Equal(want, have) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// isWildcard reports whether v is "*" or a collection whose only element is "*".
func isWildcard(v any) bool {
	if s, ok := v.(string); ok {
		return s == Wildcard
	}
	elems, ok := asSlice(v)
	if !ok || len(elems) != 1 {
		return false
	}
	s, ok := elems[0].(string)
	return ok && s == Wildcard
}
