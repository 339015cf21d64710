package codegen

// Labels implements the label/backpatching protocol shared by the
// bytecode emitter: a monotonically increasing label id identifies a
// control-flow target, a pending push records where a placeholder was
// written, and Patch resolves every pending push once all labels have
// been recorded.
type Labels struct {
	counter int
	offsets map[int]int
	pending []pendingPush
}

type pendingPush struct {
	position int
	labelID  int
	size     int
}

// NewLabels returns an empty label table.
func NewLabels() *Labels {
	return &Labels{offsets: make(map[int]int)}
}

// New allocates a fresh label id.
func (l *Labels) New() int {
	id := l.counter
	l.counter++
	return id
}

// Record resolves labelID to offset. Called once the emitter reaches the
// position the label refers to.
func (l *Labels) Record(labelID, offset int) {
	l.offsets[labelID] = offset
}

// Pending registers a placeholder push: size zero bytes were written at
// position, to be overwritten with labelID's resolved offset.
func (l *Labels) Pending(position, labelID, size int) {
	l.pending = append(l.pending, pendingPush{position: position, labelID: labelID, size: size})
}

// Patch overwrites every pending push's placeholder bytes in buf with its
// label's resolved offset, big-endian. It fails with UnresolvedLabelError
// if any referenced label was never recorded.
func (l *Labels) Patch(buf []byte) error {
	for _, p := range l.pending {
		offset, ok := l.offsets[p.labelID]
		if !ok {
			return UnresolvedLabelError{ID: p.labelID}
		}
		encodeBigEndian(buf[p.position:p.position+p.size], offset)
	}
	return nil
}

// encodeBigEndian writes value into dst, big-endian and zero-padded on
// the left. If value does not fit dst's width, only its low-order bytes
// are kept -- this mirrors the fixed 1-byte width used for jump-label
// placeholders, which does not grow to fit large offsets.
func encodeBigEndian(dst []byte, value int) {
	for i := len(dst) - 1; i >= 0; i-- {
		dst[i] = byte(value)
		value >>= 8
	}
}
