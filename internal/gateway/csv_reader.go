// Package gateway reads ledger records from CSV exports for offline
// evaluation.
package gateway

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"splitledger/internal/core"
)

// CSVRecordReader loads participations and settlements from CSV files. Each
// file starts with a header row, which is skipped.
type CSVRecordReader struct{}

func NewCSVRecordReader() *CSVRecordReader {
	return &CSVRecordReader{}
}

// ReadParticipations parses rows of expense_id,payer_id,participant_id,share.
func (r *CSVRecordReader) ReadParticipations(ctx context.Context, path string) ([]core.Participation, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open participations file %s: %w", path, err)
	}
	defer file.Close()

	var parts []core.Participation
	err = readRows(file, path, 4, func(line int, record []string) error {
		expenseID, err := parseID(record[0])
		if err != nil {
			return fmt.Errorf("line %d: could not parse expense_id '%s': %w", line, record[0], err)
		}
		payer, err := parseID(record[1])
		if err != nil {
			return fmt.Errorf("line %d: could not parse payer_id '%s': %w", line, record[1], err)
		}
		participant, err := parseID(record[2])
		if err != nil {
			return fmt.Errorf("line %d: could not parse participant_id '%s': %w", line, record[2], err)
		}
		share, err := core.ParseShareToCents(record[3])
		if err != nil {
			return fmt.Errorf("line %d: could not parse share '%s': %w", line, record[3], err)
		}
		parts = append(parts, core.Participation{
			ExpenseID:     core.ExpenseID(expenseID),
			PayerID:       core.UserID(payer),
			ParticipantID: core.UserID(participant),
			Share:         core.Money{Cents: share},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return parts, nil
}

// ReadSettlements parses rows of payer_id,payee_id,amount with an optional
// fourth group_id column.
func (r *CSVRecordReader) ReadSettlements(ctx context.Context, path string) ([]core.Settlement, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open settlements file %s: %w", path, err)
	}
	defer file.Close()

	var settlements []core.Settlement
	err = readRows(file, path, 3, func(line int, record []string) error {
		payer, err := parseID(record[0])
		if err != nil {
			return fmt.Errorf("line %d: could not parse payer_id '%s': %w", line, record[0], err)
		}
		payee, err := parseID(record[1])
		if err != nil {
			return fmt.Errorf("line %d: could not parse payee_id '%s': %w", line, record[1], err)
		}
		amount, err := core.ParseDecimalToCents(record[2])
		if err != nil {
			return fmt.Errorf("line %d: could not parse amount '%s': %w", line, record[2], err)
		}
		st := core.Settlement{
			PayerID: core.UserID(payer),
			PayeeID: core.UserID(payee),
			Amount:  core.Money{Cents: amount},
		}
		if len(record) > 3 && strings.TrimSpace(record[3]) != "" {
			groupID, err := parseID(record[3])
			if err != nil {
				return fmt.Errorf("line %d: could not parse group_id '%s': %w", line, record[3], err)
			}
			g := core.GroupID(groupID)
			st.GroupID = &g
		}
		if err := st.Validate(); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		settlements = append(settlements, st)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return settlements, nil
}

// readRows skips the header and hands every following record with at least
// minFields columns to fn. Line numbers are 1-based and count the header.
func readRows(rd io.Reader, path string, minFields int, fn func(line int, record []string) error) error {
	reader := csv.NewReader(rd)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	if _, err := reader.Read(); err != nil {
		return fmt.Errorf("failed to read header from %s: %w", path, err)
	}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("error reading record from %s: %w", path, err)
		}
		if len(record) < minFields {
			return fmt.Errorf("%s line %d: expected at least %d fields, got %d", path, line, minFields, len(record))
		}
		if err := fn(line, record); err != nil {
			return fmt.Errorf("%s %w", path, err)
		}
	}
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive")
	}
	return id, nil
}
