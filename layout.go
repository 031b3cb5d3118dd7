package fallible

import (
	"math"
	"math/bits"
	"reflect"
	"sync"

	"github.com/JohnCGriffin/overflow"
)

// Layout is a (size, alignment) pair describing a block of memory.
// Align is always a power of two and Size rounded up to Align never
// exceeds math.MaxInt.
type Layout struct {
	size  int
	align int
}

// NewLayout validates size and align and returns the resulting Layout.
func NewLayout(size, align int) (Layout, error) {
	if align <= 0 || bits.OnesCount(uint(align)) != 1 {
		return Layout{}, newLayoutError("alignment %d is not a power of two", align)
	}
	if size < 0 {
		return Layout{}, newLayoutError("negative size %d", size)
	}
	if size > math.MaxInt-(align-1) {
		return Layout{}, newLayoutError("size %d overflows when padded to alignment %d", size, align)
	}
	return Layout{size: size, align: align}, nil
}

// Size returns the number of bytes in the block.
func (l Layout) Size() int { return l.size }

// Align returns the required address alignment.
func (l Layout) Align() int { return l.align }

// PadToAlign returns the layout with its size rounded up to a multiple of
// its alignment.
func (l Layout) PadToAlign() Layout {
	return Layout{size: alignUp(l.size, l.align), align: l.align}
}

// LayoutOf returns the layout of a single T.
func LayoutOf[T any]() (Layout, error) {
	return ArrayLayout[T](1)
}

// ArrayLayout returns the layout of count contiguous values of T.
// Every typed allocation in this package goes through here.
func ArrayLayout[T any](count int) (Layout, error) {
	typ := reflect.TypeFor[T]()
	if count < 0 {
		return Layout{}, newLayoutError("negative element count %d", count)
	}
	if hasPointers(typ) {
		return Layout{}, newLayoutError("type %s contains Go pointers", typ)
	}
	elem := int(typ.Size())
	total, ok := overflow.Mul(elem, count)
	if !ok {
		return Layout{}, newLayoutError("array of %d elements of size %d overflows", count, elem)
	}
	return NewLayout(total, typ.Align())
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

var pointerCache sync.Map // reflect.Type -> bool

// hasPointers reports whether values of typ hold references the garbage
// collector must see. Such values cannot be stored in memory obtained from
// a byte-oriented allocator.
func hasPointers(typ reflect.Type) bool {
	if v, ok := pointerCache.Load(typ); ok {
		return v.(bool)
	}
	res := scanPointers(typ)
	pointerCache.Store(typ, res)
	return res
}

func scanPointers(typ reflect.Type) bool {
	switch typ.Kind() {
	case reflect.Bool, reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128:
		return false
	case reflect.Array:
		return typ.Len() > 0 && scanPointers(typ.Elem())
	case reflect.Struct:
		for i := 0; i < typ.NumField(); i++ {
			if scanPointers(typ.Field(i).Type) {
				return true
			}
		}
		return false
	default:
		return true
	}
}
