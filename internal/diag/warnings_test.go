package diag

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWarnDedupesBySiteAndMessage(t *testing.T) {
	s := NewSink(false)
	s.Warn(Site{File: "a.build", Line: 1}, "deprecated option %s", "foo")
	s.Warn(Site{File: "a.build", Line: 1}, "deprecated option %s", "foo")
	s.Warn(Site{File: "a.build", Line: 2}, "deprecated option %s", "foo")

	require.Len(t, s.Warnings(), 2, "identical (site,message) pairs must only be recorded once")
}

func TestFinishEscalatesUnderWerror(t *testing.T) {
	s := NewSink(true)
	require.NoError(t, s.Finish(), "no warnings means no escalation even under --werror")

	s.Warn(Site{}, "something questionable")
	err := s.Finish()
	require.Error(t, err)

	var derr *Error
	require.ErrorAs(t, err, &derr)
	require.Equal(t, KindOption, derr.Kind)
	require.Equal(t, 1, derr.ExitCode(), "a --werror escalation is a configuration error, not an internal one, and must exit 1")
}

func TestFinishWithoutWerrorNeverFails(t *testing.T) {
	s := NewSink(false)
	s.Warn(Site{}, "a warning")
	require.NoError(t, s.Finish())
}
