package ir

import "fmt"

// Snapshot returns the canonical JSON form of op and everything nested in it.
//
// Values are named "%N" and blocks "^N" in definition order (results of an
// operation before its regions, block arguments before block contents), so
// two structurally identical graphs produce identical bytes regardless of
// pointer identity. Values and blocks defined outside op are named "%extN"
// and "^extN" in order of first reference. Empty fields are omitted.
func Snapshot(op *Operation) ([]byte, error) {
	if op == nil {
		return nil, fmt.Errorf("Snapshot: operation is nil")
	}
	s := &snapshotter{
		values: make(map[Value]string),
		blocks: make(map[*Block]string),
	}
	s.number(op)
	form, err := s.op(op)
	if err != nil {
		return nil, err
	}
	return MarshalCanonical(form)
}

// MustSnapshot is like Snapshot but panics on error.
func MustSnapshot(op *Operation) []byte {
	data, err := Snapshot(op)
	if err != nil {
		panic(err)
	}
	return data
}

type snapshotter struct {
	values map[Value]string
	blocks map[*Block]string

	nextValue, nextBlock       int
	nextExtValue, nextExtBlock int
}

func (s *snapshotter) number(op *Operation) {
	for _, r := range op.results {
		s.values[r] = fmt.Sprintf("%%%d", s.nextValue)
		s.nextValue++
	}
	for _, reg := range op.regions {
		for _, b := range reg.blocks {
			s.blocks[b] = fmt.Sprintf("^%d", s.nextBlock)
			s.nextBlock++
			for _, a := range b.args {
				s.values[a] = fmt.Sprintf("%%%d", s.nextValue)
				s.nextValue++
			}
			for inner := range b.Ops() {
				s.number(inner)
			}
		}
	}
}

func (s *snapshotter) valueID(v Value) string {
	if id, ok := s.values[v]; ok {
		return id
	}
	id := fmt.Sprintf("%%ext%d", s.nextExtValue)
	s.nextExtValue++
	s.values[v] = id
	return id
}

func (s *snapshotter) blockID(b *Block) string {
	if id, ok := s.blocks[b]; ok {
		return id
	}
	id := fmt.Sprintf("^ext%d", s.nextExtBlock)
	s.nextExtBlock++
	s.blocks[b] = id
	return id
}

func (s *snapshotter) op(op *Operation) (map[string]any, error) {
	form := map[string]any{"name": op.name}

	if len(op.attrs) > 0 {
		attrs := make(map[string]any, len(op.attrs))
		for name, a := range op.attrs {
			if a == nil {
				return nil, fmt.Errorf("%s: attribute %q is nil", op.name, name)
			}
			attrs[name] = a.canonical()
		}
		form["attrs"] = attrs
	}
	if len(op.operands) > 0 {
		operands := make([]any, len(op.operands))
		for i, v := range op.operands {
			operands[i] = s.valueID(v)
		}
		form["operands"] = operands
	}
	if len(op.results) > 0 {
		results := make([]any, len(op.results))
		for i, r := range op.results {
			results[i] = map[string]any{"id": s.valueID(r), "type": typeCanonical(r.typ)}
		}
		form["results"] = results
	}
	if len(op.successors) > 0 {
		succs := make([]any, len(op.successors))
		for i, b := range op.successors {
			succs[i] = s.blockID(b)
		}
		form["successors"] = succs
	}
	if len(op.regions) > 0 {
		regions := make([]any, len(op.regions))
		for i, reg := range op.regions {
			blocks := make([]any, len(reg.blocks))
			for j, b := range reg.blocks {
				bf, err := s.block(b)
				if err != nil {
					return nil, err
				}
				blocks[j] = bf
			}
			regions[i] = blocks
		}
		form["regions"] = regions
	}
	return form, nil
}

func (s *snapshotter) block(b *Block) (map[string]any, error) {
	form := map[string]any{"id": s.blockID(b)}
	if len(b.args) > 0 {
		args := make([]any, len(b.args))
		for i, a := range b.args {
			args[i] = map[string]any{"id": s.valueID(a), "type": typeCanonical(a.typ)}
		}
		form["args"] = args
	}
	if b.length > 0 {
		ops := make([]any, 0, b.length)
		for inner := range b.Ops() {
			of, err := s.op(inner)
			if err != nil {
				return nil, err
			}
			ops = append(ops, of)
		}
		form["ops"] = ops
	}
	return form, nil
}
