package iso8583

import "sync"

// builderPool reuses Builder instances across requests.
var builderPool = sync.Pool{
	New: func() interface{} {
		return &Builder{errors: make([]error, 0, 4)}
	},
}

// Builder is a fluent helper for assembling an IsoMessage, collecting
// the first errors encountered rather than failing fast on each call.
// Kept from the teacher's sync.Pool-backed Builder (builder.go),
// retargeted to IsoMessage's string-valued fields.
type Builder struct {
	msg    *IsoMessage
	errors []error
}

// NewBuilder retrieves a Builder from the pool and starts a fresh
// IsoMessage with opts applied.
func NewBuilder(opts ...MessageOption) *Builder {
	b := builderPool.Get().(*Builder)
	b.msg = NewIsoMessage(opts...)
	b.errors = b.errors[:0]
	return b
}

// Release returns the builder to the pool. Call only after Build or
// MustBuild, or when abandoning the builder without ever building.
func (b *Builder) Release() {
	if b.msg != nil {
		b.msg.Release()
		b.msg = nil
	}
	b.errors = b.errors[:0]
	builderPool.Put(b)
}

func (b *Builder) MTI(mti string) *Builder {
	if err := b.msg.SetMTI(mti); err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

func (b *Builder) Field(fieldNum int, value string) *Builder {
	if err := b.msg.SetField(fieldNum, value); err != nil {
		b.errors = append(b.errors, err)
	}
	return b
}

func (b *Builder) PAN(pan string) *Builder { return b.Field(2, pan) }

func (b *Builder) ProcessingCode(code string) *Builder { return b.Field(3, code) }

func (b *Builder) Amount(amount string) *Builder { return b.Field(4, amount) }

func (b *Builder) STAN(stan string) *Builder { return b.Field(11, stan) }

// Build returns the assembled message, or the first error encountered.
// Ownership of the message transfers to the caller, who is responsible
// for calling Release on it.
func (b *Builder) Build() (*IsoMessage, error) {
	if len(b.errors) > 0 {
		return nil, b.errors[0]
	}
	msg := b.msg
	b.msg = nil
	return msg, nil
}

// MustBuild is Build but panics on the first error encountered.
func (b *Builder) MustBuild() *IsoMessage {
	if len(b.errors) > 0 {
		panic(b.errors[0])
	}
	msg := b.msg
	b.msg = nil
	return msg
}
