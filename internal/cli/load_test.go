package cli

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/JonMunkholm/cpdsstox/internal/config"
	"github.com/JonMunkholm/cpdsstox/internal/core"
	"github.com/JonMunkholm/cpdsstox/internal/sink"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func writeDSSToxWorkbook(t *testing.T, path string) {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"DTXSID", "PREFERRED_NAME", "CASRN", "INCHIKEY", "IUPAC_NAME", "SMILES",
			"MOLECULAR_FORMULA", "AVERAGE_MASS", "MONOISOTOPIC_MASS", "QSAR_READY_SMILES",
			"MS_READY_SMILES", "IDENTIFIER"},
		{"DTXSID1", "Water", "7732-18-5", "XLYOFNOQVPJJNP-UHFFFAOYSA-N", "oxidane", "O",
			"H2O", "18.015", "18.0106", "O", "O", "7732-18-5|Aqua"},
		{"DTXSID2", "Ethanol", "64-17-5", "LFQSCWFLJHTTHZ-UHFFFAOYSA-N", "ethanol", "CCO",
			"C2H6O", "46.069", "46.0419", "CCO", "CCO", "64-17-5"},
		{"DTXSID3", "Benzene", "71-43-2", "UHOVQNZJYSORNB-UHFFFAOYSA-N", "benzene", "c1ccccc1",
			"C6H6", "78.114", "78.047", "c1ccccc1", "c1ccccc1", "71-43-2"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	require.NoError(t, f.SaveAs(path))
}

// fixtureDir lays out a small release: two dictionaries, one DSSTox dump,
// QSUR rows that reference it and hazard rows with a dangling chemical id.
func fixtureDir(t *testing.T) (dir, manifestPath string) {
	t.Helper()
	dir = t.TempDir()

	writeFile(t, dir, "document_dictionary.csv",
		"document_id,title,subtitle,doc_date\n"+
			"1,Doc A,NA,2-Jan-2006\n"+
			"2,Doc B,,2019\n")
	writeFile(t, dir, "chemical_dictionary.csv",
		"chemical_id,raw_chem_name,raw_casrn,preferred_name,preferred_casrn,DTXSID,curation_level\n"+
			"10,water,7732-18-5,Water,7732-18-5,DTXSID1,Manual\n")
	writeFile(t, dir, "QSUR_data.csv",
		"DTXSID,preferred_name,preferred_casrn,harmonized_function,probability\n"+
			"DTXSID1,Water,7732-18-5,solvent,0.9\n"+
			"DTXSID2,Ethanol,64-17-5,solvent,NA\n")
	writeFile(t, dir, "HHE_data.csv",
		"document_id,chemical_id\n"+
			"1,10\n"+
			"2,999\n")
	writeDSSToxWorkbook(t, filepath.Join(dir, "DSSToxDump1.xlsx"))

	manifestPath = filepath.Join(dir, "inputs.yaml")
	writeFile(t, dir, "inputs.yaml", `tables:
  document_dictionary: [document_dictionary.csv]
  chemical_dictionary: [chemical_dictionary.csv]
  DSSTox: [DSSToxDump1.xlsx]
  QSUR_data: [QSUR_data.csv]
  HHE_data: [HHE_data.csv]
`)
	return dir, manifestPath
}

func testConfig(dir, manifestPath string) *config.Config {
	return &config.Config{
		Database: config.DatabaseConfig{URL: filepath.Join(dir, "cp.db"), ConnectTimeout: 5 * time.Second},
		Load: config.LoadConfig{
			DataDir:     dir,
			Release:     "20201216",
			DSSToxFiles: 13,
			Manifest:    manifestPath,
			Schema:      "builtin",
		},
		Metrics: config.MetricsConfig{Job: "cpload"},
		Logging: config.LoggingConfig{Level: "error", Format: "text"},
	}
}

func count(t *testing.T, s *sink.SQL, table string) int {
	t.Helper()
	var n int
	require.NoError(t, s.DB().QueryRow("SELECT COUNT(*) FROM "+table).Scan(&n))
	return n
}

func TestExecLoad_EndToEnd(t *testing.T) {
	dir, manifestPath := fixtureDir(t)
	cfg := testConfig(dir, manifestPath)
	ctx := context.Background()

	report, err := execLoad(ctx, cfg)
	require.NoError(t, err)

	failed := report.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, "HHE_data", failed[0].Table)
	assert.Equal(t, "DB003", failed[0].Code)
	assert.Len(t, report.Tables, 5)

	db, err := sink.OpenSQLite(ctx, cfg.Database.URL)
	require.NoError(t, err)
	defer db.Close(ctx)

	assert.Equal(t, 2, count(t, db, "document_dictionary"))
	assert.Equal(t, 1, count(t, db, "chemical_dictionary"))
	assert.Equal(t, 3, count(t, db, "DSSTox"))
	assert.Equal(t, 1, count(t, db, "Identifier"))
	assert.Equal(t, 2, count(t, db, "QSUR_data"))
	assert.Equal(t, 0, count(t, db, "HHE_data"), "failed table must be rolled back")

	var date, subtitle any
	require.NoError(t, db.DB().QueryRow(
		"SELECT doc_date, subtitle FROM document_dictionary WHERE document_id = 1").Scan(&date, &subtitle))
	assert.Equal(t, "2006-01-02", date)
	assert.Nil(t, subtitle)

	var ident, alt string
	require.NoError(t, db.DB().QueryRow(
		"SELECT IDENTIFIER, ALTERNATIVE_IDENTIFIER FROM Identifier").Scan(&ident, &alt))
	assert.Equal(t, "7732-18-5", ident)
	assert.Equal(t, "Aqua", alt)

	var primary string
	require.NoError(t, db.DB().QueryRow(
		"SELECT IDENTIFIER FROM DSSTox WHERE DTXSID = 'DTXSID1'").Scan(&primary))
	assert.Equal(t, "7732-18-5", primary)

	var probability any
	require.NoError(t, db.DB().QueryRow(
		"SELECT probability FROM QSUR_data WHERE DTXSID = 'DTXSID2'").Scan(&probability))
	assert.Nil(t, probability)
}

func TestExecLoad_MissingInputIsFatal(t *testing.T) {
	dir, manifestPath := fixtureDir(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "HHE_data.csv")))
	cfg := testConfig(dir, manifestPath)

	_, err := execLoad(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingInput)
	assert.Equal(t, ExitGeneralError, ExitCodeForError(err))

	_, statErr := os.Stat(cfg.Database.URL)
	assert.True(t, os.IsNotExist(statErr), "nothing may be written before extraction succeeds")
}

func TestExecLoad_UnreadableInputAbortsBeforeLoad(t *testing.T) {
	dir, manifestPath := fixtureDir(t)
	writeFile(t, dir, "HHE_data.csv", "")
	cfg := testConfig(dir, manifestPath)

	_, err := execLoad(context.Background(), cfg)
	require.Error(t, err)
	assert.True(t, core.IsFatal(err))

	db, err := sink.OpenSQLite(context.Background(), cfg.Database.URL)
	require.NoError(t, err)
	defer db.Close(context.Background())

	// The schema exists but extraction failed before any insert.
	assert.Equal(t, 0, count(t, db, "document_dictionary"))
}

func TestExecLoad_ResetThenReload(t *testing.T) {
	dir, manifestPath := fixtureDir(t)
	writeFile(t, dir, "HHE_data.csv", "document_id,chemical_id\n1,10\n")
	cfg := testConfig(dir, manifestPath)
	ctx := context.Background()

	report, err := execLoad(ctx, cfg)
	require.NoError(t, err)
	require.Empty(t, report.Failed())

	// A second load hits primary keys.
	report, err = execLoad(ctx, cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, report.Failed())

	t.Setenv("DATABASE_URL", cfg.Database.URL)
	t.Setenv("DB_DRIVER", "")
	require.NoError(t, runRoot(t, "reset"))

	report, err = execLoad(ctx, cfg)
	require.NoError(t, err)
	assert.Empty(t, report.Failed())
}

// releaseDir lays out every table under its conventional file name, with
// rows that reference each other across all foreign keys.
func releaseDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	csv := func(table, content string) {
		writeFile(t, dir, table+"_20201216.csv", content)
	}

	csv("document_dictionary", "document_id,title,subtitle,doc_date\n"+
		"1,Doc A,NA,2-Jan-2006\n"+
		"2,Doc B,,March 2019\n")
	csv("chemical_dictionary", "chemical_id,raw_chem_name,raw_casrn,preferred_name,preferred_casrn,DTXSID,curation_level\n"+
		"10,water,7732-18-5,Water,7732-18-5,DTXSID1,Manual\n"+
		"11,ethanol,64-17-5,Ethanol,64-17-5,DTXSID2,NA\n")
	csv("list_presence_dictionary", "list_presence_id,name,definition,kind\n"+
		"5,food_additive,Listed as a food additive,General use\n")
	csv("PUC_dictionary", "puc_id,gen_cat,prod_fam,prod_type,description,puc_code,kind\n"+
		"7,Personal care,Hair,shampoo,Shampoos,PC.01,Formulation\n")
	csv("functional_use_dictionary", "chemical_id,functional_use_id,report_funcuse,oecd_function\n"+
		"10,100,solvent,Solvent\n"+
		"11,101,fragrance,NA\n")
	csv("QSUR_data", "DTXSID,preferred_name,preferred_casrn,harmonized_function,probability\n"+
		"DTXSID1,Water,7732-18-5,solvent,0.9\n"+
		"DTXSID3,Benzene,71-43-2,solvent,0.4\n")
	csv("functional_use_data", "document_id,chemical_id,functional_use_id\n"+
		"1,10,100\n"+
		"2,11,101\n")
	csv("product_composition_data", "document_id,product_id,chemical_id,functional_use_id,puc_id,"+
		"classification,prod_title,brand_name,raw_min_comp,raw_central_comp,raw_max_comp,"+
		"clean_min_wf,clean_central_wf,clean_max_wf\n"+
		"1,500,10,100,7,reported,Shampoo,Acme,45%,NA,abc,0.45,NA,NA\n")
	csv("list_presence_data", "document_id,chemical_id,list_presence_id\n"+
		"2,11,5\n")
	csv("HHE_data", "document_id,chemical_id\n"+
		"1,10\n")
	writeDSSToxWorkbook(t, filepath.Join(dir, "DSSToxDump1.xlsx"))
	return dir
}

func TestExecLoad_FullReleaseByNamingConvention(t *testing.T) {
	dir := releaseDir(t)
	cfg := testConfig(dir, "")
	cfg.Load.DSSToxFiles = 1
	ctx := context.Background()

	report, err := execLoad(ctx, cfg)
	require.NoError(t, err)
	assert.Equal(t, ExitSuccess, ExitCodeForError(err))
	assert.Empty(t, report.Failed())
	require.Len(t, report.Tables, len(core.LoadOrder))
	for i, tr := range report.Tables {
		assert.Equal(t, core.LoadOrder[i], tr.Table)
		assert.Positive(t, tr.Rows, "table %s loaded no rows", tr.Table)
	}

	db, err := sink.OpenSQLite(ctx, cfg.Database.URL)
	require.NoError(t, err)
	defer db.Close(ctx)

	assert.Equal(t, 3, count(t, db, "DSSTox"))
	assert.Equal(t, 1, count(t, db, "Identifier"))
	for _, table := range []string{
		"document_dictionary", "chemical_dictionary", "list_presence_dictionary",
		"PUC_dictionary", "functional_use_dictionary", "QSUR_data", "functional_use_data",
		"product_composition_data", "list_presence_data", "HHE_data",
	} {
		assert.Positive(t, count(t, db, table), table)
	}

	var violations int
	rows, err := db.DB().Query("PRAGMA foreign_key_check")
	require.NoError(t, err)
	for rows.Next() {
		violations++
	}
	require.NoError(t, rows.Err())
	require.NoError(t, rows.Close())
	assert.Zero(t, violations, "every foreign key resolves")

	var minComp, centralComp, maxComp any
	require.NoError(t, db.DB().QueryRow(
		"SELECT raw_min_comp, raw_central_comp, raw_max_comp FROM product_composition_data").
		Scan(&minComp, &centralComp, &maxComp))
	assert.InDelta(t, 0.45, minComp, 1e-9)
	assert.Nil(t, centralComp)
	assert.Nil(t, maxComp)

	var date string
	require.NoError(t, db.DB().QueryRow(
		"SELECT doc_date FROM document_dictionary WHERE document_id = 2").Scan(&date))
	assert.Equal(t, "2019-03-01", date)
}

// fakePushgateway records the body of every push.
func fakePushgateway(t *testing.T) (url string, bodies func() []string) {
	t.Helper()
	var (
		mu   sync.Mutex
		seen []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		body, _ := io.ReadAll(req.Body)
		mu.Lock()
		seen = append(seen, string(body))
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)

	return srv.URL, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), seen...)
	}
}

func TestExecLoad_AbortedRunIsNotPushedAsSuccess(t *testing.T) {
	dir, manifestPath := fixtureDir(t)
	writeFile(t, dir, "HHE_data.csv", "document_id,chemical_id\n")
	cfg := testConfig(dir, manifestPath)
	url, bodies := fakePushgateway(t)
	cfg.Metrics.PushgatewayURL = url

	_, err := execLoad(context.Background(), cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmptyInput)

	pushed := bodies()
	require.Len(t, pushed, 1)
	assert.NotContains(t, pushed[0], "last_success_timestamp_seconds")
	assert.Contains(t, pushed[0], "cpload_run_aborted")
}

func TestExecLoad_SuccessfulRunPushesSuccessTimestamp(t *testing.T) {
	cfg := testConfig(releaseDir(t), "")
	cfg.Load.DSSToxFiles = 1
	url, bodies := fakePushgateway(t)
	cfg.Metrics.PushgatewayURL = url

	_, err := execLoad(context.Background(), cfg)
	require.NoError(t, err)

	pushed := bodies()
	require.Len(t, pushed, 1)
	assert.Contains(t, pushed[0], "cpload_last_success_timestamp_seconds")
}
