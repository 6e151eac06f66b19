package iso8583

import "sort"

// Registry is a field-number -> FieldDefinition map governing how an
// IsoMessage packs and unpacks its data elements. Adapted from the
// teacher's Packager (packager.go) JSON-registry idiom, retargeted to
// the FieldDefinition model in fieldformat.go.
type Registry struct {
	fields map[int]FieldDefinition
}

// NewRegistry builds a Registry from a field-number -> FieldDefinition
// map. Field 1 is reserved for the secondary-bitmap indicator bit and
// must never be registered directly; any key <= 1 fails KindBadRegistry.
func NewRegistry(fields map[int]FieldDefinition) (*Registry, error) {
	out := make(map[int]FieldDefinition, len(fields))
	for num, def := range fields {
		if num <= 1 {
			return nil, newErr(KindBadRegistry, num, errReservedFieldNumber)
		}
		if num > 128 {
			return nil, newErr(KindBadRegistry, num, errFieldNumberRange)
		}
		out[num] = def
	}
	return &Registry{fields: out}, nil
}

// MustNewRegistry is NewRegistry for static, known-good registries built
// at init time; it panics on error.
func MustNewRegistry(fields map[int]FieldDefinition) *Registry {
	r, err := NewRegistry(fields)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the definition for num and whether it is registered.
func (r *Registry) Lookup(num int) (FieldDefinition, bool) {
	def, ok := r.fields[num]
	return def, ok
}

// Numbers returns the registered field numbers in ascending order.
func (r *Registry) Numbers() []int {
	nums := make([]int, 0, len(r.fields))
	for n := range r.fields {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

// HasSecondaryBitmapFields reports whether any registered field number
// exceeds 64, meaning a message built from this registry may need the
// secondary bitmap and its bit-1 indicator.
func (r *Registry) HasSecondaryBitmapFields() bool {
	for n := range r.fields {
		if n > 64 {
			return true
		}
	}
	return false
}

var (
	errReservedFieldNumber = errSentinel("field 1 is reserved for the secondary bitmap indicator")
	errFieldNumberRange    = errSentinel("field number must be between 2 and 128")
)

// StandardRegistry is the default acquirer-side field-definition set,
// covering the data elements the sale, key-init, and token flows
// actually use. Individual handlers may build narrower registries of
// their own via NewRegistry.
var StandardRegistry = MustNewRegistry(map[int]FieldDefinition{
	2:  {Format: FormatN, MaxLen: 19, LenMode: LenLLVAR},
	3:  {Format: FormatN, MaxLen: 6, LenMode: LenFixed},
	4:  {Format: FormatN, MaxLen: 12, LenMode: LenFixed},
	7:  {Format: FormatN, MaxLen: 10, LenMode: LenFixed},
	11: {Format: FormatN, MaxLen: 6, LenMode: LenFixed},
	12: {Format: FormatN, MaxLen: 6, LenMode: LenFixed},
	13: {Format: FormatN, MaxLen: 4, LenMode: LenFixed},
	14: {Format: FormatN, MaxLen: 4, LenMode: LenFixed},
	22: {Format: FormatN, MaxLen: 3, LenMode: LenFixed},
	23: {Format: FormatN, MaxLen: 3, LenMode: LenFixed},
	25: {Format: FormatN, MaxLen: 2, LenMode: LenFixed},
	35: {Format: FormatZ, MaxLen: 37, LenMode: LenLLVAR},
	37: {Format: FormatAN, MaxLen: 12, LenMode: LenFixed},
	38: {Format: FormatAN, MaxLen: 6, LenMode: LenFixed},
	39: {Format: FormatAN, MaxLen: 2, LenMode: LenFixed},
	41: {Format: FormatANS, MaxLen: 8, LenMode: LenFixed},
	42: {Format: FormatANS, MaxLen: 15, LenMode: LenFixed},
	49: {Format: FormatAN, MaxLen: 3, LenMode: LenFixed},
	52: {Format: FormatB, MaxLen: 16, LenMode: LenFixed},
	55: {Format: FormatB, MaxLen: 255, LenMode: LenLLLVAR},
	62: {Format: FormatANS, MaxLen: 999, LenMode: LenLLLVAR},
	63: {Format: FormatANS, MaxLen: 999, LenMode: LenLLLVAR},
	64: {Format: FormatB, MaxLen: 8, LenMode: LenFixed},
	128: {Format: FormatB, MaxLen: 8, LenMode: LenFixed},
})
