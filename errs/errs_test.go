package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromStatus_Success(t *testing.T) {
	for _, kind := range []Kind{KindCreate, KindResolve, KindWrite} {
		require.NoError(t, FromStatus(kind, "op", StatusSuccess))
	}
}

func TestFromStatus_PreservesCode(t *testing.T) {
	tests := []struct {
		name     string
		kind     Kind
		code     Status
		sentinel error
	}{
		{"write bad arg", KindWrite, StatusBadArg, ErrWrite},
		{"resolve bad data", KindResolve, StatusBadData, ErrResolve},
		{"create general", KindCreate, StatusGeneral, ErrCreate},
		{"unknown code", KindWrite, Status(4242), ErrWrite},
		{"negative code", KindCreate, Status(-1), ErrCreate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromStatus(tt.kind, "op", tt.code)
			require.Error(t, err)
			require.ErrorIs(t, err, tt.sentinel)

			code, ok := CodeOf(err)
			require.True(t, ok)
			require.Equal(t, tt.code, code)
		})
	}
}

func TestWriteErrorCodeFive(t *testing.T) {
	err := FromStatus(KindWrite, "Session.Write", Status(5))

	var e *Error
	require.ErrorAs(t, err, &e)
	require.Equal(t, KindWrite, e.Kind)
	require.Equal(t, Status(5), e.Code)
	require.Contains(t, err.Error(), "engine status 5")
}

func TestCodeOf_Wrapped(t *testing.T) {
	err := fmt.Errorf("ingest: %w", FromStatus(KindResolve, "op", StatusBusy))

	code, ok := CodeOf(err)
	require.True(t, ok)
	require.Equal(t, StatusBusy, code)
	require.ErrorIs(t, err, ErrResolve)
	require.NotErrorIs(t, err, ErrWrite)
}

func TestCodeOf_NoCode(t *testing.T) {
	_, ok := CodeOf(Config("Create", "suffix contains NUL"))
	require.False(t, ok)

	_, ok = CodeOf(Open("Open", "/tmp/db"))
	require.False(t, ok)

	_, ok = CodeOf(errors.New("plain"))
	require.False(t, ok)

	_, ok = CodeOf(nil)
	require.False(t, ok)
}

func TestConfigAndOpenErrors(t *testing.T) {
	err := Config("Create", "suffix %q contains NUL", "d\x00b")
	require.ErrorIs(t, err, ErrConfig)
	require.NotErrorIs(t, err, ErrOpen)
	require.Contains(t, err.Error(), "Create: invalid configuration")

	err = Open("Open", "/var/lib/db/db.akumuli")
	require.ErrorIs(t, err, ErrOpen)
	require.Contains(t, err.Error(), "[/var/lib/db/db.akumuli]")
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "success", StatusSuccess.String())
	require.Equal(t, "bad argument", StatusBadArg.String())
	require.Equal(t, "status 99", Status(99).String())
	require.True(t, StatusSuccess.OK())
	require.False(t, StatusBusy.OK())
}

func TestInternalFault(t *testing.T) {
	f := &InternalFault{Message: "page index corrupted"}
	require.Equal(t, "akumuli: internal engine fault: page index corrupted", f.Error())
}
