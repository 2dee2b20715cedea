package options

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/standardbeagle/mesongo/internal/diag"
	"github.com/standardbeagle/mesongo/internal/value"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(false, diag.NewSink(false))
}

func TestSystemOptionRoundTrip(t *testing.T) {
	s := newTestStore(t)
	opt, err := New("prefix", "", TypeString, nil, value.NewStr("/usr"), false, false, Deprecation{})
	require.NoError(t, err)
	require.NoError(t, s.AddSystemOption("prefix", opt))

	got, err := s.GetValueFor("prefix", nil)
	require.NoError(t, err)
	sv, _ := got.Str()
	require.Equal(t, "/usr", sv)

	require.NoError(t, s.SetValue(SystemKey("prefix", MachineHost), value.NewStr("/opt")))
	got, err = s.GetValueFor("prefix", nil)
	require.NoError(t, err)
	sv, _ = got.Str()
	require.Equal(t, "/opt", sv)
}

func TestComboRejectsInvalidChoice(t *testing.T) {
	s := newTestStore(t)
	opt, err := New("buildtype", "", TypeCombo, []string{"debug", "release"}, value.NewStr("debug"), false, false, Deprecation{})
	require.NoError(t, err)
	require.NoError(t, s.AddSystemOption("buildtype", opt))

	err = s.SetValue(SystemKey("buildtype", MachineHost), value.NewStr("bogus"))
	require.Error(t, err)

	var derr *diag.Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, diag.KindOption, derr.Kind)
}

func TestComboRequiresChoices(t *testing.T) {
	_, err := New("mode", "", TypeCombo, nil, value.NewStr("x"), false, false, Deprecation{})
	require.Error(t, err, "a combo option with no choices must fail construction")
}

func TestSetValueNeverLeavesPartialUpdate(t *testing.T) {
	s := newTestStore(t)
	opt, err := New("warning_level", "", TypeCombo, []string{"0", "1", "2"}, value.NewStr("1"), false, false, Deprecation{})
	require.NoError(t, err)
	require.NoError(t, s.AddSystemOption("warning_level", opt))

	require.Error(t, s.SetValue(SystemKey("warning_level", MachineHost), value.NewStr("9")))

	got, err := s.GetValueFor("warning_level", nil)
	require.NoError(t, err)
	sv, _ := got.Str()
	require.Equal(t, "1", sv, "a rejected SetValue must leave the prior value untouched")
}

func TestAugmentOverridesSubprojectValue(t *testing.T) {
	s := newTestStore(t)
	opt, err := New("werror", "", TypeBoolean, nil, value.NewBool(false), false, false, Deprecation{})
	require.NoError(t, err)
	require.NoError(t, s.AddProjectOption(ProjectKey("werror", "sub", MachineHost), opt))

	sub := "sub"
	s.SetAugment(ProjectKey("werror", "sub", MachineHost).String(), "true")

	got, err := s.GetValueFor("werror", &sub)
	require.NoError(t, err)
	b, _ := got.Bool()
	require.True(t, b)
}

func TestDefaultAfterUndefine(t *testing.T) {
	s := newTestStore(t)
	opt, err := New("optimization", "", TypeString, nil, value.NewStr("0"), false, false, Deprecation{})
	require.NoError(t, err)
	require.NoError(t, s.AddSystemOption("optimization", opt))
	require.NoError(t, s.SetValue(SystemKey("optimization", MachineHost), value.NewStr("3")))

	def, err := s.Default(SystemKey("optimization", MachineHost))
	require.NoError(t, err)
	sv, _ := def.Str()
	require.Equal(t, "0", sv)
}
