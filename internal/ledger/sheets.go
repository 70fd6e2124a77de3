package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/dshills/storebot/pkg/types"
)

// Column layout of the order sheet. Status lives in column H; the status
// update targets that single cell.
var sheetHeader = []interface{}{
	"Order ID", "User ID", "Name", "Phone", "Address",
	"Items JSON", "Total", "Status", "Payment Method", "Date",
}

const (
	sheetRange  = "Sheet1!A:J"
	statusCol   = "H"
	headerProbe = "Sheet1!A1:J1"
)

// Sheets mirrors orders into a Google Sheets spreadsheet.
type Sheets struct {
	svc     *sheets.Service
	sheetID string
}

// NewSheets opens the spreadsheet and writes the header row if the sheet is
// empty.
func NewSheets(ctx context.Context, sheetID, credentialsFile string) (*Sheets, error) {
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	s := &Sheets{svc: svc, sheetID: sheetID}
	if err := s.ensureHeader(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Sheets) ensureHeader(ctx context.Context) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, headerProbe).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to probe sheet header: %w", err)
	}
	if len(resp.Values) > 0 {
		return nil
	}
	_, err = s.svc.Spreadsheets.Values.Append(s.sheetID, sheetRange,
		&sheets.ValueRange{Values: [][]interface{}{sheetHeader}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to write sheet header: %w", err)
	}
	return nil
}

// orderRow flattens an order into one sheet row matching sheetHeader.
func orderRow(order *types.Order) ([]interface{}, error) {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return nil, fmt.Errorf("failed to encode order items: %w", err)
	}
	return []interface{}{
		order.ID,
		order.UserID,
		order.CustomerName,
		order.CustomerPhone,
		order.CustomerAddr,
		string(itemsJSON),
		order.Total.StringFixed(2),
		string(order.Status),
		string(order.Payment),
		order.CreatedAt.Format("2006-01-02 15:04:05"),
	}, nil
}

// AppendOrder adds one row for the order.
func (s *Sheets) AppendOrder(ctx context.Context, order *types.Order) error {
	row, err := orderRow(order)
	if err != nil {
		return err
	}
	_, err = s.svc.Spreadsheets.Values.Append(s.sheetID, sheetRange,
		&sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to append order %s: %w", order.ID, err)
	}
	return nil
}

// SetOrderStatus locates the order's row by id and rewrites the status
// cell.
func (s *Sheets) SetOrderStatus(ctx context.Context, orderID string, status types.OrderStatus) error {
	resp, err := s.svc.Spreadsheets.Values.Get(s.sheetID, "Sheet1!A:A").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to read order column: %w", err)
	}

	rowNumber := 0
	for i, row := range resp.Values {
		if len(row) > 0 && fmt.Sprint(row[0]) == orderID {
			rowNumber = i + 1 // sheet rows are 1-based
			break
		}
	}
	if rowNumber == 0 {
		return fmt.Errorf("order %s not found in sheet", orderID)
	}

	cell := fmt.Sprintf("Sheet1!%s%d", statusCol, rowNumber)
	_, err = s.svc.Spreadsheets.Values.Update(s.sheetID, cell,
		&sheets.ValueRange{Values: [][]interface{}{{string(status)}}}).
		ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to update status for %s: %w", orderID, err)
	}
	return nil
}
