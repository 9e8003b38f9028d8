package pipe

import (
	"testing"
	"unsafe"
)

// Writer cursors, reader cursor, the shared slot and the guards each start
// on their own 64-byte line relative to the struct.
func TestPipe_FieldLayout(t *testing.T) {
	var p Pipe[int]
	testCases := []struct {
		name   string
		offset uintptr
		want   uintptr
	}{
		{"r", unsafe.Offsetof(p.r), 64},
		{"c", unsafe.Offsetof(p.c), 128},
		{"writing", unsafe.Offsetof(p.writing), 192},
	}
	for _, tc := range testCases {
		if tc.offset != tc.want {
			t.Errorf("offset of %s = %d, want %d", tc.name, tc.offset, tc.want)
		}
	}
}
