package iso8583

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// sensitiveFields lists the data elements masked out of structured logs:
// PAN, track-2 data, and any field carrying key material.
var sensitiveFields = map[int]bool{
	2:  true,
	35: true,
	52: true,
	55: true,
	63: true,
}

// messagePool holds reusable IsoMessage objects to cut allocations on
// the request-per-message hot path.
var messagePool = sync.Pool{
	New: func() interface{} {
		return &IsoMessage{fields: make(map[int]string, 16)}
	},
}

// IsoMessage is a single ISO8583 message: an optional MTI, a sparse set
// of field values keyed by field number, and the Registry that governs
// how those fields pack and unpack. Adapted from the teacher's pooled,
// mutex-guarded Message (message.go/field.go/types.go), dropping its
// unsafe zero-copy Field storage and internal per-field locking in favor
// of plain strings — each IsoMessage here belongs to exactly one request
// and is never shared across goroutines while in use.
type IsoMessage struct {
	registry        *Registry
	mti             string
	fields          map[int]string
	bitmap          BitmapManager
	bitmapEncoding  BitmapEncoding
	validationLevel ValidationLevel
	validator       *CompiledValidator
	fullMessage     []byte
}

// Validate runs the message's configured CompiledValidator, if any,
// at its configured ValidationLevel.
func (m *IsoMessage) Validate() error {
	if m.validator == nil || m.validationLevel == ValidationNone {
		return nil
	}
	return m.validator.ValidateMessage(m, m.validationLevel)
}

// SetValidationLevel sets the level Validate runs at.
func (m *IsoMessage) SetValidationLevel(level ValidationLevel) {
	m.validationLevel = level
}

// ValidationLevel returns the currently configured validation level.
func (m *IsoMessage) ValidationLevel() ValidationLevel {
	return m.validationLevel
}

// NewIsoMessage retrieves an IsoMessage from the pool and applies opts.
// WithRegistry must be supplied (directly or via a default) before
// Pack/Unpack are used.
func NewIsoMessage(opts ...MessageOption) *IsoMessage {
	m := messagePool.Get().(*IsoMessage)
	m.reset()
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Release returns the message to the pool. It must not be used afterward.
func (m *IsoMessage) Release() {
	m.reset()
	messagePool.Put(m)
}

// Reset clears the message for reuse without returning it to the pool.
func (m *IsoMessage) Reset() {
	m.reset()
}

func (m *IsoMessage) reset() {
	m.registry = nil
	m.mti = ""
	for k := range m.fields {
		delete(m.fields, k)
	}
	m.bitmap.Reset()
	m.bitmapEncoding = BitmapEncodingHex
	m.validationLevel = ValidationNone
	m.validator = nil
	m.fullMessage = nil
}

// MTI returns the message's 4-digit Message Type Indicator.
func (m *IsoMessage) MTI() string { return m.mti }

// SetMTI validates and sets the Message Type Indicator.
func (m *IsoMessage) SetMTI(mti string) error {
	if _, err := ParseMTI(mti); err != nil {
		return err
	}
	m.mti = mti
	return nil
}

// SetField validates value against the registered format for fieldNum
// and stores it.
func (m *IsoMessage) SetField(fieldNum int, value string) error {
	if fieldNum < 2 || fieldNum > MaxFieldNumber {
		return newErr(KindBadField, fieldNum, errFieldNumberRange)
	}
	def, err := m.lookup(fieldNum)
	if err != nil {
		return err
	}
	if err := validateFormat(def.Format, value); err != nil {
		return &CodecError{Kind: KindBadFormat, Field: fieldNum, Err: err}
	}
	m.fields[fieldNum] = value
	return nil
}

// SetBinaryField sets a format-B field from raw bytes, hex-encoding them
// into the field's textual (hex-digit) representation.
func (m *IsoMessage) SetBinaryField(fieldNum int, value []byte) error {
	return m.SetField(fieldNum, bytesToHex(value))
}

// RemoveField deletes a field's value, if present.
func (m *IsoMessage) RemoveField(fieldNum int) {
	delete(m.fields, fieldNum)
}

// Clear removes all field values and the MTI, keeping the registry.
func (m *IsoMessage) Clear() {
	m.mti = ""
	for k := range m.fields {
		delete(m.fields, k)
	}
}

// HasField reports whether fieldNum has a stored value.
func (m *IsoMessage) HasField(fieldNum int) bool {
	_, ok := m.fields[fieldNum]
	return ok
}

// GetField returns the field's textual value.
func (m *IsoMessage) GetField(fieldNum int) (string, error) {
	v, ok := m.fields[fieldNum]
	if !ok {
		return "", newErr(KindBadField, fieldNum, errFieldNotPresent)
	}
	return v, nil
}

// PresentFields returns the registered field numbers present on the
// message, in ascending order.
func (m *IsoMessage) PresentFields() []int {
	nums := make([]int, 0, len(m.fields))
	for n := range m.fields {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	return nums
}

func (m *IsoMessage) lookup(fieldNum int) (FieldDefinition, error) {
	if m.registry == nil {
		return FieldDefinition{}, newErr(KindBadRegistry, fieldNum, errNoRegistry)
	}
	def, ok := m.registry.Lookup(fieldNum)
	if !ok {
		return FieldDefinition{}, newErr(KindBadField, fieldNum, errFieldNotConfigured)
	}
	return def, nil
}

// padFixed pads text to def.MaxLen for a FIXED-length field: numeric and
// binary-coded formats (N, B, XN) are left-padded with '0'; all other
// formats are right-padded with a space.
func padFixed(def FieldDefinition, text string) string {
	if len(text) >= def.MaxLen {
		return text
	}
	pad := def.MaxLen - len(text)
	switch def.Format {
	case FormatN, FormatB, FormatXN:
		return zeroPad(pad) + text
	default:
		return text + spacePad(pad)
	}
}

// unpadFixed reverses padFixed: strips leading zeros (collapsing to "0")
// for numeric/binary formats, or trims trailing spaces otherwise.
func unpadFixed(def FieldDefinition, text string) string {
	switch def.Format {
	case FormatN, FormatB, FormatXN:
		i := 0
		for i < len(text)-1 && text[i] == '0' {
			i++
		}
		return text[i:]
	default:
		i := len(text)
		for i > 0 && text[i-1] == ' ' {
			i--
		}
		return text[:i]
	}
}

func zeroPad(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = '0'
	}
	return string(b)
}

func spacePad(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = ' '
	}
	return string(b)
}

func formatDecimal(value, width int) string {
	b := make([]byte, width)
	for i := width - 1; i >= 0; i-- {
		b[i] = byte(value%10) + '0'
		value /= 10
	}
	return string(b)
}

func parseDecimal(b []byte) (int, error) {
	n := 0
	for _, c := range b {
		if c < '0' || c > '9' {
			return 0, newErr(KindBadLen, 0, errNonDecimalDigit)
		}
		n = n*10 + int(c-'0')
	}
	return n, nil
}

// Pack serializes the message into its wire form: 4-byte MTI, bitmap,
// then each present field in ascending order, each as its length prefix
// (for variable-length modes) followed by its packed bytes.
func (m *IsoMessage) Pack() ([]byte, error) {
	if len(m.mti) != 4 {
		return nil, newErr(KindBadMti, 0, errBadMtiLen)
	}
	if m.registry == nil {
		return nil, newErr(KindBadRegistry, 0, errNoRegistry)
	}

	buf := getBuffer()
	defer putBuffer(buf)
	buf = append(buf, m.mti...)

	m.bitmap.Reset()
	for num := range m.fields {
		if err := m.bitmap.SetField(num); err != nil {
			return nil, err
		}
	}
	bmBuf := make([]byte, 32)
	n, err := m.bitmap.PackBitmap(bmBuf, m.bitmapEncoding)
	if err != nil {
		return nil, err
	}
	buf = append(buf, bmBuf[:n]...)

	for _, num := range m.PresentFields() {
		def, err := m.lookup(num)
		if err != nil {
			return nil, err
		}
		text := m.fields[num]
		if err := validateFormat(def.Format, text); err != nil {
			return nil, &CodecError{Kind: KindBadFormat, Field: num, Err: err}
		}
		if def.LenMode == LenFixed {
			text = padFixed(def, text)
		}

		wireBytes, err := def.packer().pack(text)
		if err != nil {
			return nil, &CodecError{Kind: KindBadField, Field: num, Err: err}
		}

		if def.LenMode != LenFixed {
			if len(wireBytes) >= pow10(def.LenMode.Ordinal()) {
				return nil, &CodecError{Kind: KindBadLen, Field: num, Err: errFieldTooLong}
			}
			buf = append(buf, formatDecimal(len(wireBytes), def.LenMode.Ordinal())...)
		}
		buf = append(buf, wireBytes...)
	}

	out := make([]byte, len(buf))
	copy(out, buf)
	return out, nil
}

func pow10(n int) int {
	p := 1
	for i := 0; i < n; i++ {
		p *= 10
	}
	return p
}

// Unpack parses data into the message, replacing any current field
// values. The registry must already be set (e.g. via WithRegistry).
func (m *IsoMessage) Unpack(data []byte) error {
	if m.registry == nil {
		return newErr(KindBadRegistry, 0, errNoRegistry)
	}
	if len(data) < 4 {
		return newErr(KindBadMti, 0, errBadMtiLen)
	}

	m.fullMessage = data
	m.Clear()

	mti := string(data[:4])
	if _, err := ParseMTI(mti); err != nil {
		return err
	}
	m.mti = mti
	offset := 4

	n, err := m.bitmap.UnpackBitmap(data[offset:], m.bitmapEncoding)
	if err != nil {
		return err
	}
	offset += n

	for num := 2; num <= MaxFieldNumber; num++ {
		if !m.bitmap.IsFieldSet(num) {
			continue
		}
		def, err := m.lookup(num)
		if err != nil {
			return err
		}

		var wireLen int
		if def.LenMode == LenFixed {
			wireLen = def.packer().packedLen(def.MaxLen)
		} else {
			prefixLen := def.LenMode.Ordinal()
			if len(data) < offset+prefixLen {
				return &CodecError{Kind: KindBadLen, Field: num, Err: errInsufficientData}
			}
			wireLen, err = parseDecimal(data[offset : offset+prefixLen])
			if err != nil {
				return &CodecError{Kind: KindBadLen, Field: num, Err: err}
			}
			offset += prefixLen
		}

		if len(data) < offset+wireLen {
			return &CodecError{Kind: KindBadLen, Field: num, Err: errInsufficientData}
		}
		wireBytes := data[offset : offset+wireLen]
		offset += wireLen

		text, err := def.packer().unpack(wireBytes)
		if err != nil {
			return &CodecError{Kind: KindBadField, Field: num, Err: err}
		}
		if def.LenMode == LenFixed {
			text = padFixed(def, unpadFixed(def, text))
		}
		m.fields[num] = text
	}

	return nil
}

// LogValue implements slog.LogValuer, masking PAN/track/key-bearing
// fields rather than leaving them for a caller to remember to redact.
func (m *IsoMessage) LogValue() slog.Value {
	attrs := make([]slog.Attr, 0, 2+len(m.fields))
	attrs = append(attrs, slog.String("mti", m.mti))

	for _, num := range m.PresentFields() {
		v := m.fields[num]
		if sensitiveFields[num] {
			v = maskSensitive(v)
		}
		attrs = append(attrs, slog.String(fmt.Sprintf("field_%d", num), v))
	}
	return slog.GroupValue(attrs...)
}

// maskSensitive keeps the first 6 and last 4 characters of a value and
// stars out the rest, the common PAN-masking convention.
func maskSensitive(v string) string {
	if len(v) <= 10 {
		return "***"
	}
	stars := make([]byte, len(v)-10)
	for i := range stars {
		stars[i] = '*'
	}
	return v[:6] + string(stars) + v[len(v)-4:]
}

var (
	errNoRegistry         = errSentinel("no registry configured")
	errFieldNotConfigured = errSentinel("field not present in registry")
	errFieldNotPresent    = errSentinel("field not present on message")
	errFieldTooLong       = errSentinel("field value too long for its length-prefix width")
)
