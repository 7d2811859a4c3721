package vtparse

// DefaultParam marks a parameter position that was left empty by the
// sender (e.g. the middle ';;' in "ESC[1;;3m").
const DefaultParam = -1

// maxParam is the clamp ceiling for any single numeric component, mirroring
// a u16::MAX clamp with silently-ignored overflow.
const maxParam = 65535

// Params holds a CSI/DCS parameter list: semicolons separate groups,
// colons separate sub-parameters within a group. Missing components read
// back as DefaultParam.
type Params struct {
	groups [][]int
}

// Len returns the number of parameter groups.
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.groups)
}

// Get returns the first value of group i, or def if the group is absent
// or was left empty.
func (p *Params) Get(i, def int) int {
	if p == nil || i < 0 || i >= len(p.groups) || len(p.groups[i]) == 0 {
		return def
	}
	v := p.groups[i][0]
	if v == DefaultParam {
		return def
	}
	return v
}

// GetSub returns sub-parameter j of group i, or def if absent/empty.
func (p *Params) GetSub(i, j, def int) int {
	if p == nil || i < 0 || i >= len(p.groups) || j < 0 || j >= len(p.groups[i]) {
		return def
	}
	v := p.groups[i][j]
	if v == DefaultParam {
		return def
	}
	return v
}

// SubLen returns the number of sub-parameters in group i.
func (p *Params) SubLen(i int) int {
	if p == nil || i < 0 || i >= len(p.groups) {
		return 0
	}
	return len(p.groups[i])
}

// All exposes the raw group list; callers must not mutate it.
func (p *Params) All() [][]int {
	if p == nil {
		return nil
	}
	return p.groups
}

// paramBuilder accumulates parameter bytes while the parser walks a
// CsiParam/DcsParam run, producing a Params on finish.
type paramBuilder struct {
	groups   [][]int
	current  []int
	value    int
	hasValue bool
}

func (b *paramBuilder) reset() {
	b.groups = nil
	b.current = nil
	b.value = 0
	b.hasValue = false
}

func (b *paramBuilder) digit(d int) {
	if !b.hasValue {
		b.value = 0
		b.hasValue = true
	}
	b.value = b.value*10 + d
	if b.value > maxParam {
		b.value = maxParam
	}
}

func (b *paramBuilder) subSeparator() {
	b.pushValue()
}

func (b *paramBuilder) groupSeparator() {
	b.pushValue()
	b.groups = append(b.groups, b.current)
	b.current = nil
}

func (b *paramBuilder) pushValue() {
	if b.hasValue {
		b.current = append(b.current, b.value)
	} else {
		b.current = append(b.current, DefaultParam)
	}
	b.value = 0
	b.hasValue = false
}

func (b *paramBuilder) finish() *Params {
	// Only materialize a trailing group if something was actually typed;
	// "ESC[H" with zero bytes produces an empty Params, not one empty group.
	if b.hasValue || len(b.current) > 0 {
		b.pushValue()
		b.groups = append(b.groups, b.current)
	}
	p := &Params{groups: b.groups}
	b.reset()
	return p
}
