package options

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/mesongo/internal/value"
)

func TestNewValidatesInitialValue(t *testing.T) {
	_, err := New("warning_level", "", TypeInteger, nil, value.NewStr("oops"), false, false, Deprecation{})
	require.Error(t, err, "constructing an integer option with a string initial value must fail")
}

func TestCloneLeavesReceiverUntouched(t *testing.T) {
	opt, err := New("prefix", "", TypeString, nil, value.NewStr("/usr"), false, false, Deprecation{})
	require.NoError(t, err)

	clone := opt.Clone(value.NewStr("/opt"))
	cv, _ := clone.Value.Str()
	require.Equal(t, "/opt", cv)

	ov, _ := opt.Value.Str()
	require.Equal(t, "/usr", ov, "Clone must never mutate the receiver")

	require.Equal(t, "/usr", mustOptStr(t, clone.Initial), "Initial must survive a Clone unchanged")
}

func mustOptStr(t *testing.T, v value.Value) string {
	t.Helper()
	s, ok := v.Str()
	require.True(t, ok)
	return s
}

func TestValidateValueArrayChoices(t *testing.T) {
	opt, err := New("langs", "", TypeArray, []string{"c", "cpp"}, value.NewList([]value.Value{value.NewStr("c")}), false, false, Deprecation{})
	require.NoError(t, err)

	err = opt.ValidateValue(value.NewList([]value.Value{value.NewStr("rust")}))
	require.Error(t, err, "an array entry outside the declared choices must be rejected")
}

func TestValidateValueFeatureRestrictsToTriState(t *testing.T) {
	opt, err := New("use_foo", "", TypeFeature, nil, value.NewStr("auto"), false, false, Deprecation{})
	require.NoError(t, err)

	require.NoError(t, opt.ValidateValue(value.NewStr("enabled")))
	require.Error(t, opt.ValidateValue(value.NewStr("maybe")))
}

func TestTypeStringRendering(t *testing.T) {
	require.Equal(t, "combo", TypeCombo.String())
	require.Equal(t, "feature", TypeFeature.String())
}
