//go:build !debug_interp_mem

package interpmem

const (
	// DebugMargin is the number of bytes of debug data placed after the data region of every
	// block allocated by the interp package
	DebugMargin int = 0
)

// ValidateMagicValue verifies that the easy-to-identify marker written by WriteMagicValue is
// still present. It returns true if the value is still present and false otherwise.
// This method no-ops unless the debug_interp_mem build tag is present.
func ValidateMagicValue(data []byte, offset int) bool {
	return true
}

// WriteMagicValue writes an easy-to-identify marker across DebugMargin bytes beginning at the
// provided offset.
// This method no-ops unless the debug_interp_mem build tag is present.
func WriteMagicValue(data []byte, offset int) {
}

// DebugValidate will call Validate on the provided object and panics if any errors are returned. This
// method no-ops unless the debug_interp_mem build tag is present
func DebugValidate(validatable Validatable) {
}

// DebugAssert panics with the provided message when the condition is false.
// This method no-ops unless the debug_interp_mem build tag is present.
func DebugAssert(condition bool, format string, args ...any) {
}

// DebugCheckPow2 will verify that the numerical value passed in is a power of two, and panics if it is not.
// This method no-ops unless the debug_interp_mem build tag is present.
func DebugCheckPow2[T Number](value T, name string) {

}
