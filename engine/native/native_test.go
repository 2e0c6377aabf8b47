//go:build akumuli && cgo

package native

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/expenses/akumuli-go/endian"
	"github.com/expenses/akumuli-go/engine"
	"github.com/expenses/akumuli-go/errs"
	"github.com/expenses/akumuli-go/sample"
)

func TestNative_WriteResolve(t *testing.T) {
	e := New()
	e.Initialize(func(msg string) { t.Errorf("engine fault: %s", msg) }, func(_ engine.LogLevel, msg string) { t.Log(msg) })

	dir := t.TempDir()
	require.Equal(t, errs.StatusSuccess, e.CreateDatabase("db", dir, dir, 1, 4096, false))

	db := e.OpenDatabase(filepath.Join(dir, "db"+engine.MetaExtension), engine.DefaultFineTuneParams())
	require.NotZero(t, db)
	defer e.CloseDatabase(db)

	s := e.CreateSession(db)
	require.NotZero(t, s)
	defer e.DestroySession(s)

	host := endian.HostEngine()
	rec := sample.NewResolveRequest().Bytes(host)
	require.Equal(t, errs.StatusSuccess, e.SeriesToParamID(s, []byte("temperature region=east"), rec))
	resolved, err := sample.Parse(rec, host)
	require.NoError(t, err)
	require.NotZero(t, resolved.ParamID)

	require.Equal(t, errs.StatusSuccess, e.Write(s, sample.NewFloat(1_700_000_000, resolved.ParamID, 21.5).Bytes(host)))
}
