package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itsjashshah/flowtag/internal/models"
)

const (
	lookupCSV = "dstport,protocol,tag\n25,tcp,sv_P1\n68,udp,sv_P2\n23,tcp,sv_P1\n"
	flowLogs  = `2 123456789012 eni-1 10.0.0.1 10.0.0.2 49153 25 6 1 40 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-1 10.0.0.1 10.0.0.2 49154 68 17 1 40 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-1 10.0.0.1 10.0.0.2 49155 999 6 1 40 1620140761 1620140821 ACCEPT OK
2 123456789012 eni-1 10.0.0.1 10.0.0.2 49156 25 6 1 40 1620140761 1620140821 ACCEPT OK
`
)

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, c := range cmd.Commands() {
		resetFlags(c)
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func inputs(t *testing.T, lookupBody, flowBody string) (dir, lookup, flows string) {
	t.Helper()
	dir = t.TempDir()
	lookup = filepath.Join(dir, "lookup.csv")
	flows = filepath.Join(dir, "flows.txt")
	require.NoError(t, os.WriteFile(lookup, []byte(lookupBody), 0o644))
	require.NoError(t, os.WriteFile(flows, []byte(flowBody), 0o644))
	return dir, lookup, flows
}

func TestRootCommand(t *testing.T) {
	dir, lookup, flows := inputs(t, lookupCSV, flowLogs)
	output := filepath.Join(dir, "out", "output.csv")
	metricsFile := filepath.Join(dir, "flowtag.prom")

	_, err := execute(t, "--quiet", "--log-level", "error",
		"--lookup", lookup, "--flows", flows, "--output", output,
		"--sort", "count", "--metrics-file", metricsFile)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, `Tag Counts:
Tag,Count
sv_P1,2
Untagged,1
sv_P2,1

Port/Protocol Combination Counts:
Port,Protocol,Count
25,tcp,2
68,udp,1
999,tcp,1
`, string(data))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "flowtag_flow_records_total 4")
}

func TestRootCommandConfigFile(t *testing.T) {
	dir, lookup, flows := inputs(t, lookupCSV, flowLogs)
	output := filepath.Join(dir, "report.json")
	cfgPath := filepath.Join(dir, "flowtag.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(
		"lookup_table: "+lookup+"\nflow_logs: "+flows+"\noutput: "+output+"\noutput_format: json\nlog_level: error\n"), 0o644))

	_, err := execute(t, "--quiet", "--config", cfgPath)
	require.NoError(t, err)

	data, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"records": 4`)
}

func TestRootCommandMissingInput(t *testing.T) {
	dir, lookup, _ := inputs(t, lookupCSV, flowLogs)

	_, err := execute(t, "--quiet", "--log-level", "error",
		"--lookup", lookup, "--flows", filepath.Join(dir, "nope.txt"),
		"--output", filepath.Join(dir, "out.csv"))
	assert.ErrorIs(t, err, models.ErrFileNotFound)
}

func TestRootCommandRejectsArgs(t *testing.T) {
	_, err := execute(t, "--quiet", "unexpected")
	assert.Error(t, err)
}

func TestRootCommandInvalidFlag(t *testing.T) {
	_, err := execute(t, "--quiet", "--format", "xml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output_format")
}

func TestValidateCommand(t *testing.T) {
	_, lookup, flows := inputs(t, lookupCSV+"bad,row\n", flowLogs+"short line\n")

	_, err := execute(t, "validate", "--quiet", "--log-level", "error", "--lookup", lookup, "--flows", flows)
	assert.NoError(t, err)

	_, err = execute(t, "validate", "--quiet", "--log-level", "error", "--strict", "--lookup", lookup, "--flows", flows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 anomalies found")
	assert.ErrorIs(t, err, models.ErrMalformedRow)
	assert.ErrorIs(t, err, models.ErrMalformedLine)
}

func TestValidateCommandStrictLookupOnly(t *testing.T) {
	_, lookup, flows := inputs(t, lookupCSV+"bad,row\n", flowLogs)

	_, err := execute(t, "validate", "--quiet", "--log-level", "error", "--strict", "--lookup", lookup, "--flows", flows)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 anomalies found")
	assert.ErrorIs(t, err, models.ErrMalformedRow)
	assert.NotErrorIs(t, err, models.ErrMalformedLine)
}

func TestValidateCommandStrictIgnoresOverwrittenKeys(t *testing.T) {
	_, lookup, flows := inputs(t, lookupCSV+"25,TCP,mail\n", flowLogs)

	_, err := execute(t, "validate", "--quiet", "--log-level", "error", "--strict", "--lookup", lookup, "--flows", flows)
	assert.NoError(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, AppVersion+"\n", out)
}
