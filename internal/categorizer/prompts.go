package categorizer

import (
	"fmt"
	"strings"
)

// buildCategorizationPrompt embeds the statement into the fixed instruction template.
func buildCategorizationPrompt(statementText string, currentYear int) string {
	var b strings.Builder

	b.WriteString("Help me categorize each transaction in this credit card statement into a csv table.\n")
	b.WriteString("Use exactly the columns date, name, price, category, with the header row \"date,name,price,category\".\n")
	b.WriteString("For BUS/MRT transactions, truncate the id at the end of the transaction name.\n")
	b.WriteString("Use a positive price for charges and a negative price for credits and refunds.\n")
	b.WriteString("Make sure that the result is a valid csv with a transaction on each row.\n")
	b.WriteString("Here's the credit card statement:\n\n")
	b.WriteString(statementText)
	b.WriteString("\n\nPlease provide the categorized transactions in CSV format.\n")
	fmt.Fprintf(&b, "Format the date as %%d %%b %%Y. If the year is missing, use %d.\n", currentYear)
	b.WriteString("Don't start the response with a message like 'This was generated by AI'. ")
	b.WriteString("Only output the csv and nothing else. Do NOT wrap the csv in code fences.\n")

	return b.String()
}
