package gateway

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"splitledger/internal/core"
	"splitledger/internal/ledger"
)

func createTempCSV(t *testing.T, rows [][]string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data.csv")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()
	w := csv.NewWriter(f)
	require.NoError(t, w.WriteAll(rows))
	return path
}

func TestCSVRecordReader_ReadParticipations(t *testing.T) {
	header := []string{"expense_id", "payer_id", "participant_id", "share"}
	tests := []struct {
		name     string
		csvData  [][]string
		expected []core.Participation
		wantErr  bool
	}{
		{
			name: "valid participations",
			csvData: [][]string{
				header,
				{"1", "1", "1", "33.34"},
				{"1", "1", "2", "33.33"},
				{"1", "1", "3", "0"},
			},
			expected: []core.Participation{
				{ExpenseID: 1, PayerID: 1, ParticipantID: 1, Share: core.Money{Cents: 3334}},
				{ExpenseID: 1, PayerID: 1, ParticipantID: 2, Share: core.Money{Cents: 3333}},
				{ExpenseID: 1, PayerID: 1, ParticipantID: 3, Share: core.Money{Cents: 0}},
			},
		},
		{
			name:     "header only",
			csvData:  [][]string{header},
			expected: nil,
		},
		{
			name:    "unparsable share",
			csvData: [][]string{header, {"1", "1", "2", "12abc"}},
			wantErr: true,
		},
		{
			name:    "negative id",
			csvData: [][]string{header, {"1", "-1", "2", "5"}},
			wantErr: true,
		},
		{
			name:    "missing column",
			csvData: [][]string{header, {"1", "1", "2"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTempCSV(t, tt.csvData)
			got, err := NewCSVRecordReader().ReadParticipations(context.Background(), path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCSVRecordReader_ReadSettlements(t *testing.T) {
	header := []string{"payer_id", "payee_id", "amount", "group_id"}
	group := core.GroupID(7)
	tests := []struct {
		name     string
		csvData  [][]string
		expected []core.Settlement
		wantErr  bool
	}{
		{
			name: "with and without group",
			csvData: [][]string{
				header,
				{"2", "1", "10.50", "7"},
				{"3", "1", "4", ""},
			},
			expected: []core.Settlement{
				{PayerID: 2, PayeeID: 1, Amount: core.Money{Cents: 1050}, GroupID: &group},
				{PayerID: 3, PayeeID: 1, Amount: core.Money{Cents: 400}},
			},
		},
		{
			name:    "self settlement",
			csvData: [][]string{header, {"1", "1", "5"}},
			wantErr: true,
		},
		{
			name:    "zero amount",
			csvData: [][]string{header, {"2", "1", "0"}},
			wantErr: true,
		},
		{
			name:    "bad group id",
			csvData: [][]string{header, {"2", "1", "5", "abc"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := createTempCSV(t, tt.csvData)
			got, err := NewCSVRecordReader().ReadSettlements(context.Background(), path)
			if tt.wantErr {
				assert.Error(t, err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCSVRecordReader_FileErrors(t *testing.T) {
	r := NewCSVRecordReader()
	ctx := context.Background()

	_, err := r.ReadParticipations(ctx, "nonexistent_file.csv")
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.csv")
	require.NoError(t, os.WriteFile(empty, nil, 0o600))
	_, err = r.ReadSettlements(ctx, empty)
	assert.Error(t, err, "a file without header is rejected")
}

func TestCSVRecords_SettleEndToEnd(t *testing.T) {
	r := NewCSVRecordReader()
	ctx := context.Background()

	parts, err := r.ReadParticipations(ctx, createTempCSV(t, [][]string{
		{"expense_id", "payer_id", "participant_id", "share"},
		{"1", "1", "2", "50"},
		{"1", "1", "3", "50"},
	}))
	require.NoError(t, err)
	settlements, err := r.ReadSettlements(ctx, createTempCSV(t, [][]string{
		{"payer_id", "payee_id", "amount"},
		{"2", "1", "50"},
	}))
	require.NoError(t, err)

	plan := ledger.Settle(parts, settlements)
	assert.Equal(t, []core.Transfer{{From: 3, To: 1, Amount: core.Money{Cents: 5000}}}, plan.Transfers)
	assert.True(t, plan.Positions.Sum().IsZero())
}
