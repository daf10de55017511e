package notionsync

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/jomei/notionapi"
	"github.com/shopspring/decimal"

	"github.com/dvloznov/statement-ledger/internal/domain"
	"github.com/dvloznov/statement-ledger/internal/ledger"
)

type mockNotion struct {
	pages     []notionapi.Page
	pageSize  int
	created   []notionapi.Properties
	archived  []string
	createErr error
	queries   int
}

func (m *mockNotion) CreatePage(ctx context.Context, databaseID string, properties notionapi.Properties) (*notionapi.Page, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = append(m.created, properties)
	return &notionapi.Page{ID: notionapi.ObjectID(fmt.Sprintf("new-%d", len(m.created)))}, nil
}

func (m *mockNotion) QueryDatabase(ctx context.Context, databaseID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	m.queries++
	size := m.pageSize
	if size == 0 {
		size = len(m.pages) + 1
	}
	start := 0
	if req.StartCursor != "" {
		fmt.Sscanf(string(req.StartCursor), "%d", &start)
	}
	end := start + size
	if end > len(m.pages) {
		end = len(m.pages)
	}
	resp := &notionapi.DatabaseQueryResponse{Results: m.pages[start:end]}
	if end < len(m.pages) {
		resp.HasMore = true
		resp.NextCursor = notionapi.Cursor(fmt.Sprintf("%d", end))
	}
	return resp, nil
}

func (m *mockNotion) ArchivePage(ctx context.Context, pageID string) error {
	m.archived = append(m.archived, pageID)
	return nil
}

func pageWithID(pageID, txID string) notionapi.Page {
	return notionapi.Page{
		ID: notionapi.ObjectID(pageID),
		Properties: notionapi.Properties{
			PropTransactionID: &notionapi.RichTextProperty{
				RichText: []notionapi.RichText{{PlainText: txID}},
			},
		},
	}
}

func testLedger() ledger.Ledger {
	return ledger.NewLedger(ledger.Batch{ID: "mar", Transactions: []domain.Transaction{
		{Date: time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC), Name: "Cafe", Price: decimal.RequireFromString("3.50"), Category: "Food", Batch: "mar"},
		{Date: time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC), Name: "Taxi", Price: decimal.RequireFromString("12"), Category: "Transport", Batch: "mar"},
	}})
}

func TestSyncLedger_CreatesMissing(t *testing.T) {
	l := testLedger()
	existingID := domain.StableID("mar", 0, l.Transactions[0])

	notion := &mockNotion{
		pages:    []notionapi.Page{pageWithID("p1", existingID), pageWithID("p2", "gone")},
		pageSize: 1,
	}

	res, err := SyncLedger(context.Background(), l, notion, "db", SyncOptions{})
	if err != nil {
		t.Fatalf("SyncLedger() error = %v", err)
	}
	if res.Created != 1 || res.Skipped != 1 || res.Archived != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
	if notion.queries != 2 {
		t.Errorf("expected paginated queries, got %d", notion.queries)
	}
	if len(notion.created) != 1 {
		t.Fatalf("created %d pages, want 1", len(notion.created))
	}
	title, ok := notion.created[0][PropName].(notionapi.TitleProperty)
	if !ok || title.Title[0].Text.Content != "Taxi" {
		t.Errorf("unexpected title property: %#v", notion.created[0][PropName])
	}
	if len(notion.archived) != 0 {
		t.Errorf("nothing should be archived without Prune, got %v", notion.archived)
	}
}

func TestSyncLedger_DryRunAndPrune(t *testing.T) {
	notion := &mockNotion{pages: []notionapi.Page{pageWithID("p2", "gone")}}

	res, err := SyncLedger(context.Background(), testLedger(), notion, "db", SyncOptions{DryRun: true, Prune: true})
	if err != nil {
		t.Fatalf("SyncLedger() error = %v", err)
	}
	if res.Created != 2 || res.Archived != 1 {
		t.Errorf("unexpected result: %+v", res)
	}
	if len(notion.created) != 0 || len(notion.archived) != 0 {
		t.Error("dry run must not write to Notion")
	}

	res, err = SyncLedger(context.Background(), testLedger(), notion, "db", SyncOptions{Prune: true})
	if err != nil {
		t.Fatal(err)
	}
	if res.Archived != 1 || len(notion.archived) != 1 || notion.archived[0] != "p2" {
		t.Errorf("expected p2 archived, got %+v / %v", res, notion.archived)
	}
}

func TestSyncLedger_CountsFailures(t *testing.T) {
	notion := &mockNotion{createErr: errors.New("rate limited")}

	res, err := SyncLedger(context.Background(), testLedger(), notion, "db", SyncOptions{})
	if err != nil {
		t.Fatalf("SyncLedger() error = %v", err)
	}
	if res.Failed != 2 || res.Created != 0 {
		t.Errorf("unexpected result: %+v", res)
	}
}

func TestTransactionToNotionProperties(t *testing.T) {
	tx := domain.Transaction{
		Date:  time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC),
		Name:  "Cafe",
		Price: decimal.RequireFromString("-3.25"),
	}
	props := TransactionToNotionProperties("id-1", tx)

	if n, ok := props[PropAmount].(notionapi.NumberProperty); !ok || n.Number != -3.25 {
		t.Errorf("Amount = %#v", props[PropAmount])
	}
	if _, ok := props[PropCategory]; ok {
		t.Error("empty category should be omitted")
	}
	if _, ok := props[PropBatch]; ok {
		t.Error("empty batch should be omitted")
	}
	d, ok := props[PropDate].(notionapi.DateProperty)
	if !ok || !time.Time(*d.Date.Start).Equal(tx.Date) {
		t.Errorf("Date = %#v", props[PropDate])
	}
}
