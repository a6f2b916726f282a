package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kbdigital/doc-ledger/internal/domain/entity"
	"github.com/kbdigital/doc-ledger/internal/ledger"
)

func TestBackupFilename(t *testing.T) {
	nairobi := time.FixedZone("EAT", 3*60*60)
	assert.Equal(t, "kb-digital-backup-2024-01-15.json", BackupFilename(time.Date(2024, 1, 15, 23, 0, 0, 0, time.UTC)))
	assert.Equal(t, "kb-digital-backup-2024-01-14.json", BackupFilename(time.Date(2024, 1, 15, 1, 0, 0, 0, nairobi)))
}

func TestBackup_RoundTrip(t *testing.T) {
	snap := entity.Snapshot{
		GeneratedAt: time.Date(2024, 1, 15, 10, 30, 0, 0, time.UTC),
		Data:        entity.SnapshotData{Documents: []entity.Document{reportDoc(t, entity.KindInvoice)}},
	}

	out, err := Backup(snap)
	require.NoError(t, err)
	text := string(out)
	assert.True(t, strings.HasPrefix(text, "{\n  \"generatedAt\": \"2024-01-15T10:30:00Z\",\n  \"version\": \"1.0\","))
	assert.Contains(t, text, `"documents": [`)

	back, err := ReadBackup(out)
	require.NoError(t, err)
	snap.Version = entity.SnapshotVersion
	assert.Equal(t, snap, back)
}

func TestBackup_EmptyLedger(t *testing.T) {
	out, err := Backup(entity.Snapshot{})
	require.NoError(t, err)
	assert.Contains(t, string(out), `"documents": []`)

	_, err = ReadBackup([]byte("not json"))
	assert.Error(t, err)
}

func TestReadBackup_RequiresKeys(t *testing.T) {
	tests := []struct {
		name  string
		input string
		field string
	}{
		{"foreign shape", `{"clients":[{"id":"C001"}]}`, "version"},
		{"missing version", `{"data":{"documents":[]}}`, "version"},
		{"missing data", `{"version":"1.0"}`, "data.documents"},
		{"missing documents", `{"version":"1.0","data":{}}`, "data.documents"},
		{"null documents", `{"version":"1.0","data":{"documents":null}}`, "data.documents"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadBackup([]byte(tt.input))
			require.ErrorIs(t, err, ledger.ErrValidation)
			var verr *ledger.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestReadBackup_EmptyDocumentsAccepted(t *testing.T) {
	snap, err := ReadBackup([]byte(`{"version":"1.0","data":{"documents":[]}}`))
	require.NoError(t, err)
	assert.Equal(t, entity.SnapshotVersion, snap.Version)
	assert.Empty(t, snap.Data.Documents)
}
