package service

// HelpText describes the available commands.
func HelpText() string {
	return `Statement Ledger Help

Tracks and analyzes credit card spending from uploaded statements.

Commands:
- help - Display available commands and instructions
- last-month-stats - Analysis of last month's expenses and a monthly overview of all transactions
- last-statement-stats - Analysis of the most recent statement's expenses
- data - List the months for which statement data is available
- list - Detailed list of the most recent statement's transactions, highest price first

Uploading statements:
1. Upload the PDF of a credit card statement.
2. It is converted to a categorized table and stored under the statement's file name.
   Uploading a file with the same name again replaces the earlier data.`
}
