package domain

import "strings"

// ExportFilename is the fixed name of the CSV artifact offered for download.
const ExportFilename = "clients_crm.csv"

var exportHeader = []string{"ID", "Name", "Email", "Phone", "Category", "CreatedAt"}

// ExportCSV serializes the full, unfiltered client list. Every field is
// double-quoted with embedded quotes doubled, rows are newline separated and
// the fixed header row comes first. The header itself is unquoted.
func ExportCSV(clients []Client) []byte {
	var b strings.Builder
	b.WriteString(strings.Join(exportHeader, ","))
	for _, c := range clients {
		b.WriteByte('\n')
		writeCSVRow(&b, []string{c.ID, c.Name, c.Email, c.Phone, string(c.Category), c.CreatedAt})
	}
	return []byte(b.String())
}

func writeCSVRow(b *strings.Builder, fields []string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
}
