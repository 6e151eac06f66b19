package iso8583

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCompiledValidatorRequiredField(t *testing.T) {
	cv := NewCompiledValidator()
	cv.RequireField(2)

	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	require.NoError(t, msg.SetMTI("0200"))

	err := cv.ValidateMessage(msg, ValidationBasic)
	require.Error(t, err)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.Equal(t, 2, ve.Field)

	require.NoError(t, msg.SetField(2, "5500000000000004"))
	require.NoError(t, cv.ValidateMessage(msg, ValidationBasic))
}

func TestCompiledValidatorValidationNoneSkipsAllChecks(t *testing.T) {
	cv := NewCompiledValidator()
	cv.RequireField(2)
	msg := NewIsoMessage(WithRegistry(StandardRegistry))
	defer msg.Release()
	require.NoError(t, msg.SetMTI("0200"))
	require.NoError(t, cv.ValidateMessage(msg, ValidationNone))
}

func TestCompiledValidatorFieldRule(t *testing.T) {
	cv := NewCompiledValidator()
	cv.AddFieldRule(2, &PrefixDenylistRule{Prefixes: []string{"4"}})

	err := cv.ValidateField(2, "4111111111111111")
	require.Error(t, err)

	require.NoError(t, cv.ValidateField(2, "5500000000000004"))
}

func TestCompiledValidatorGlobalRule(t *testing.T) {
	cv := NewCompiledValidator()
	cv.AddGlobalRule(&LengthRule{MaxLength: 6})

	require.NoError(t, cv.ValidateField(11, "000001"))
	require.Error(t, cv.ValidateField(11, "0000012"))
}

func TestLengthRule(t *testing.T) {
	r := &LengthRule{ExactLength: 4}
	require.NoError(t, r.Validate("1234"))
	require.Error(t, r.Validate("123"))

	r = &LengthRule{MinLength: 2, MaxLength: 5}
	require.Error(t, r.Validate("1"))
	require.Error(t, r.Validate("123456"))
	require.NoError(t, r.Validate("123"))
}

func TestPrefixDenylistRule(t *testing.T) {
	r := &PrefixDenylistRule{Prefixes: []string{"4", "5"}}
	require.Error(t, r.Validate("411111"))
	require.Error(t, r.Validate("555555"))
	require.NoError(t, r.Validate("611111"))
}

func TestRegexRule(t *testing.T) {
	r := &RegexRule{Pattern: `^[0-9]{6}$`, Description: "must be 6 digits"}
	require.NoError(t, r.Validate("123456"))
	err := r.Validate("abc")
	require.Error(t, err)
	require.Equal(t, "must be 6 digits", err.Error())
}

func TestRangeRule(t *testing.T) {
	r := &RangeRule{Min: 0, Max: 100}
	require.NoError(t, r.Validate("50"))
	require.Error(t, r.Validate("101"))
	require.Error(t, r.Validate("not-a-number"))
}

func TestCustomRule(t *testing.T) {
	calls := 0
	r := &CustomRule{
		RuleName: "custom",
		ValidateFunc: func(v string) error {
			calls++
			if v == "bad" {
				return fmt.Errorf("value is bad")
			}
			return nil
		},
	}
	require.Equal(t, "custom", r.Name())
	require.NoError(t, r.Validate("good"))
	require.Error(t, r.Validate("bad"))
	require.Equal(t, 2, calls)
}
