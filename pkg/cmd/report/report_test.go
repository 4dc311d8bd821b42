package report

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Compaile/ctrack/internal/settings"
	"github.com/Compaile/ctrack/pkg/cmd/options"
	"github.com/Compaile/ctrack/pkg/ctrack"
)

func TestNewCommand_DefaultsFileFlagToEventsFileName(t *testing.T) {
	cmd := NewCommand(options.NewCommonOptions())

	fileFlag := cmd.Flags().Lookup("file")
	require.NotNil(t, fileFlag)
	assert.Equal(t, settings.EventsFileName, fileFlag.DefValue)

	jsonFlag := cmd.Flags().Lookup("json")
	require.NotNil(t, jsonFlag)
	assert.Equal(t, "false", jsonFlag.DefValue)
}

func writeSampleEventsFile(t *testing.T, path string) {
	t.Helper()
	ctrack.ResetForTesting()
	func() {
		defer ctrack.ScopeNamed("reported-site")()
	}()
	require.NoError(t, ctrack.SaveEventsToFile(path))
}

func TestRun_WritesJSONReportWhenRequested(t *testing.T) {
	t.Run("should write a JSON report file from a persisted events file", func(t *testing.T) {
		dir := t.TempDir()
		eventsPath := filepath.Join(dir, "events.bin")
		writeSampleEventsFile(t, eventsPath)

		reportPath := filepath.Join(dir, settings.ReportFileName)
		orig := settings.ReportFileName
		settings.ReportFileName = reportPath
		defer func() { settings.ReportFileName = orig }()

		o := &Options{file: eventsPath, json: true, CommonOptions: options.NewCommonOptions()}
		require.NoError(t, o.Run(nil, nil))

		data, err := os.ReadFile(reportPath)
		require.NoError(t, err)

		var decoded map[string]interface{}
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Contains(t, decoded, "summary")
	})
}

func TestRun_PrintsTablesByDefault(t *testing.T) {
	t.Run("should succeed when json mode is off", func(t *testing.T) {
		dir := t.TempDir()
		eventsPath := filepath.Join(dir, "events.bin")
		writeSampleEventsFile(t, eventsPath)

		o := &Options{file: eventsPath, json: false, CommonOptions: options.NewCommonOptions()}
		require.NoError(t, o.Run(nil, nil))
	})
}

func TestRun_FailsOnMissingFile(t *testing.T) {
	o := &Options{file: filepath.Join(t.TempDir(), "missing.bin"), CommonOptions: options.NewCommonOptions()}
	assert.Error(t, o.Run(nil, nil))
}
