package notionsync

import (
	"github.com/jomei/notionapi"

	"github.com/dvloznov/statement-ledger/internal/domain"
)

// Property names of the ledger database.
const (
	PropName          = "Name"
	PropDate          = "Date"
	PropAmount        = "Amount"
	PropCategory      = "Category"
	PropBatch         = "Batch"
	PropTransactionID = "Transaction ID"
)

// TransactionToNotionProperties converts a ledger transaction to Notion properties.
// transactionID is the stable id used to recognise the row on later syncs.
func TransactionToNotionProperties(transactionID string, tx domain.Transaction) notionapi.Properties {
	date := notionapi.Date(tx.Date)
	amount, _ := tx.Price.Float64()

	props := notionapi.Properties{
		PropName: notionapi.TitleProperty{
			Title: richText(tx.Name),
		},
		PropDate: notionapi.DateProperty{
			Date: &notionapi.DateObject{Start: &date},
		},
		PropAmount: notionapi.NumberProperty{
			Number: amount,
		},
		PropTransactionID: notionapi.RichTextProperty{
			RichText: richText(transactionID),
		},
	}

	// Select options cannot be empty
	if tx.Category != "" {
		props[PropCategory] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category},
		}
	}
	if tx.Batch != "" {
		props[PropBatch] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Batch},
		}
	}

	return props
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

// extractTransactionID extracts the transaction ID from a Notion page's properties.
// Returns empty string if not found.
func extractTransactionID(page notionapi.Page) string {
	prop, ok := page.Properties[PropTransactionID]
	if !ok {
		return ""
	}
	if rt, ok := prop.(*notionapi.RichTextProperty); ok && len(rt.RichText) > 0 {
		if rt.RichText[0].PlainText != "" {
			return rt.RichText[0].PlainText
		}
		if rt.RichText[0].Text != nil {
			return rt.RichText[0].Text.Content
		}
	}
	return ""
}
