package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	"splitledger/internal/core"
	ports "splitledger/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

// Client writes settle-up plans into one spreadsheet, one tab per group.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string

	mu   sync.Mutex
	tabs map[string]bool
}

var _ ports.PlanWriter = (*Client)(nil)

// New creates a Sheets client. Authentication and endpoint come from opts,
// typically CredentialsOption plus the spreadsheets scope.
func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		tabs:          make(map[string]bool),
	}, nil
}

// CredentialsOption builds the service-account option from inline JSON or,
// failing that, a credentials file.
func CredentialsOption(ctx context.Context, inlineJSON, file string) (goption.ClientOption, error) {
	inlineJSON = strings.TrimSpace(inlineJSON)
	file = strings.TrimSpace(file)

	var credentialsJSON []byte
	switch {
	case inlineJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		credentialsJSON = []byte(inlineJSON)
	case file != "":
		slog.InfoContext(ctx, "Reading credentials from file", "path", file)
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE)")
	}
	return goption.WithCredentialsJSON(credentialsJSON), nil
}

// Scopes is the OAuth scope the client needs.
func Scopes() goption.ClientOption {
	return goption.WithScopes(gsheet.SpreadsheetsScope)
}

func quoteTab(tab string) string {
	return "'" + strings.ReplaceAll(tab, "'", "''") + "'"
}

// ensureTab creates the tab unless it is already known to exist.
func (c *Client) ensureTab(ctx context.Context, tab string) error {
	c.mu.Lock()
	known := c.tabs[tab]
	c.mu.Unlock()
	if known {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet tabs: %w", err)
	}

	found := false
	c.mu.Lock()
	for _, sh := range ss.Sheets {
		if sh.Properties == nil {
			continue
		}
		c.tabs[sh.Properties.Title] = true
		if sh.Properties.Title == tab {
			found = true
		}
	}
	c.mu.Unlock()
	if found {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{
				Properties: &gsheet.SheetProperties{Title: tab},
			},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add tab %s: %w", tab, err)
	}
	slog.InfoContext(ctx, "Created spreadsheet tab", "tab", tab)

	c.mu.Lock()
	c.tabs[tab] = true
	c.mu.Unlock()
	return nil
}

// WritePlan clears the group's tab and writes the plan from A1.
func (c *Client) WritePlan(ctx context.Context, plan ports.GroupPlan) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	tab := ports.TabName(int64(plan.GroupID))
	if err := c.ensureTab(ctx, tab); err != nil {
		return err
	}

	clearRange := quoteTab(tab) + "!A:Z"
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear %s: %w", clearRange, err)
	}

	rng := quoteTab(tab) + "!A1"
	vr := &gsheet.ValueRange{Values: plan.Rows()}
	if _, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Exported group plan",
		"group_id", plan.GroupID,
		"tab", tab,
		"transfers", len(plan.Transfers),
		"total_cents", total(plan.Transfers).Cents)
	return nil
}

func total(transfers []core.Transfer) core.Money {
	var sum core.Money
	for _, t := range transfers {
		sum = sum.Add(t.Amount)
	}
	return sum
}
