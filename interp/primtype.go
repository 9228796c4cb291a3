package interp

// PrimType identifies one of the closed set of primitive value families the interpreter
// stores directly in block data.
type PrimType uint32

const (
	PrimBool PrimType = iota
	PrimInt8
	PrimUint8
	PrimInt16
	PrimUint16
	PrimInt32
	PrimUint32
	PrimInt64
	PrimUint64
	PrimFloat32
	PrimFloat64
	PrimFnPtr
)

var primTypeMapping = map[PrimType]string{
	PrimBool:    "PrimBool",
	PrimInt8:    "PrimInt8",
	PrimUint8:   "PrimUint8",
	PrimInt16:   "PrimInt16",
	PrimUint16:  "PrimUint16",
	PrimInt32:   "PrimInt32",
	PrimUint32:  "PrimUint32",
	PrimInt64:   "PrimInt64",
	PrimUint64:  "PrimUint64",
	PrimFloat32: "PrimFloat32",
	PrimFloat64: "PrimFloat64",
	PrimFnPtr:   "PrimFnPtr",
}

func (t PrimType) String() string {
	return primTypeMapping[t]
}

// Size returns the number of bytes a value of this family occupies in block data.
func (t PrimType) Size() int {
	switch t {
	case PrimBool, PrimInt8, PrimUint8:
		return 1
	case PrimInt16, PrimUint16:
		return 2
	case PrimInt32, PrimUint32, PrimFloat32:
		return 4
	case PrimInt64, PrimUint64, PrimFloat64, PrimFnPtr:
		return 8
	}

	panic("unknown primitive type")
}
