package admin

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/cpdsstox/internal/core"
	_ "github.com/JonMunkholm/cpdsstox/internal/core/tables"
	"github.com/JonMunkholm/cpdsstox/internal/schema"
	"github.com/JonMunkholm/cpdsstox/internal/sink"
)

func TestResetOrder(t *testing.T) {
	order := ResetOrder()

	pos := make(map[string]int, len(order))
	for i, table := range order {
		pos[table] = i
	}

	assert.Len(t, order, len(core.LoadOrder)+1)
	assert.Equal(t, "HHE_data", order[0])
	assert.Equal(t, "document_dictionary", order[len(order)-1])
	assert.Less(t, pos["Identifier"], pos["DSSTox"], "satellite rows go before their parent")
	assert.Less(t, pos["QSUR_data"], pos["DSSTox"])
	assert.Less(t, pos["functional_use_data"], pos["functional_use_dictionary"])
}

func TestResetAll(t *testing.T) {
	ctx := context.Background()
	s, err := sink.OpenSQLite(ctx, filepath.Join(t.TempDir(), "cp.db"))
	require.NoError(t, err)
	defer s.Close(ctx)

	_, err = schema.Apply(ctx, s, schema.BuiltinScript())
	require.NoError(t, err)

	for _, stmt := range []string{
		"INSERT INTO document_dictionary (document_id, title) VALUES (1, 'a')",
		"INSERT INTO chemical_dictionary (chemical_id) VALUES (10)",
		"INSERT INTO HHE_data (document_id, chemical_id) VALUES (1, 10)",
		"INSERT INTO DSSTox (DTXSID, IDENTIFIER) VALUES ('DTXSID1', 'A')",
		"INSERT INTO Identifier (IDENTIFIER, CASRN, ALTERNATIVE_IDENTIFIER) VALUES ('A', 'A', 'B')",
	} {
		require.NoError(t, s.Exec(ctx, stmt))
	}

	tables, err := ResetAll(ctx, s)
	require.NoError(t, err)
	assert.Equal(t, ResetOrder(), tables)

	for _, table := range []string{"document_dictionary", "chemical_dictionary", "HHE_data", "DSSTox", "Identifier"} {
		var n int
		require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestResetAll_MissingTableRollsBack(t *testing.T) {
	ctx := context.Background()
	s, err := sink.OpenSQLite(ctx, filepath.Join(t.TempDir(), "cp.db"))
	require.NoError(t, err)
	defer s.Close(ctx)

	require.NoError(t, s.Exec(ctx, "CREATE TABLE HHE_data (document_id INTEGER, chemical_id INTEGER)"))
	require.NoError(t, s.Exec(ctx, "INSERT INTO HHE_data VALUES (1, 2)"))

	_, err = ResetAll(ctx, s)
	require.Error(t, err)
	assert.Equal(t, "TBL001", core.ClassifyFailure(err))

	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM HHE_data").Scan(&n))
	assert.Equal(t, 1, n, "a failed reset must not delete anything")
}
