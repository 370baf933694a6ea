package audit

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteCSV_SortsBeforeRendering(t *testing.T) {
	rows := []ReportRow{
		{SAMAccountName: "carol", DisplayName: "Carol C", Enabled: false, Privileged: true},
		{SAMAccountName: "bob", DisplayName: "Bob B", Enabled: true, Privileged: false},
		{SAMAccountName: "alice", DisplayName: "Alice A", Enabled: true, Privileged: true},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)

	assert.Equal(t, []string{"account", "privileged", "display_name", "enabled"}, records[0])
	assert.Equal(t, []string{"alice", "true", "Alice A", "true"}, records[1])
	assert.Equal(t, []string{"bob", "false", "Bob B", "true"}, records[2])
	assert.Equal(t, []string{"carol", "true", "Carol C", "false"}, records[3])
}

func TestWriteCSV_EmptyReportStillHasHeader(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, nil))
	assert.Equal(t, "account,privileged,display_name,enabled\n", buf.String())
}
