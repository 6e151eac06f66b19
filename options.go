package iso8583

// MessageOption configures an IsoMessage at construction time via
// NewIsoMessage. Kept from the teacher's functional-options idiom
// (options.go), retargeted to the IsoMessage/Registry types.
type MessageOption func(*IsoMessage)

// WithRegistry sets the field-definition registry the message packs
// and unpacks against.
func WithRegistry(registry *Registry) MessageOption {
	return func(m *IsoMessage) {
		m.registry = registry
	}
}

// WithBitmapEncoding selects hex or binary bitmap rendering.
func WithBitmapEncoding(encoding BitmapEncoding) MessageOption {
	return func(m *IsoMessage) {
		m.bitmapEncoding = encoding
	}
}

// WithMTI sets the Message Type Indicator. Invalid MTIs are silently
// skipped here; callers who need the error should use SetMTI directly.
func WithMTI(mti string) MessageOption {
	return func(m *IsoMessage) {
		_ = m.SetMTI(mti)
	}
}

// WithField sets a field value during message creation. Validation
// errors are silently skipped here; callers who need the error should
// use SetField directly.
func WithField(fieldNum int, value string) MessageOption {
	return func(m *IsoMessage) {
		_ = m.SetField(fieldNum, value)
	}
}

// WithFields sets multiple field values during message creation.
func WithFields(fields map[int]string) MessageOption {
	return func(m *IsoMessage) {
		for fieldNum, value := range fields {
			_ = m.SetField(fieldNum, value)
		}
	}
}

// WithValidator attaches the business-rule validator Validate runs.
func WithValidator(validator *CompiledValidator) MessageOption {
	return func(m *IsoMessage) {
		m.validator = validator
	}
}

// WithValidationLevel sets the business-rule validation level applied
// by IsoMessage.Validate.
func WithValidationLevel(level ValidationLevel) MessageOption {
	return func(m *IsoMessage) {
		m.validationLevel = level
	}
}

func WithStrictValidation() MessageOption {
	return WithValidationLevel(ValidationStrict)
}

func WithBasicValidation() MessageOption {
	return WithValidationLevel(ValidationBasic)
}

// RegistryOption configures a Registry's build-up via NewRegistryFromOptions.
type RegistryOption func(map[int]FieldDefinition)

// WithFieldDefinition registers a single field's definition.
func WithFieldDefinition(fieldNum int, def FieldDefinition) RegistryOption {
	return func(fields map[int]FieldDefinition) {
		fields[fieldNum] = def
	}
}

// NewRegistryFromOptions builds a Registry using the functional-options
// pattern, for callers assembling a registry incrementally rather than
// from a single literal map.
func NewRegistryFromOptions(opts ...RegistryOption) (*Registry, error) {
	fields := make(map[int]FieldDefinition)
	for _, opt := range opts {
		opt(fields)
	}
	return NewRegistry(fields)
}
