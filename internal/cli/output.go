package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/kittclouds/contactkitt/internal/store"
)

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string      `json:"status"`         // "ok"
	Data   interface{} `json:"data,omitempty"` // success payload
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format string
	Writer io.Writer
}

// Success writes data as a JSON envelope, or calls text for the text format.
func (f *OutputFormatter) Success(data interface{}, text func(w io.Writer) error) error {
	if f.Format == "json" {
		enc := json.NewEncoder(f.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(CLIResponse{Status: "ok", Data: data})
	}
	return text(f.Writer)
}

func writeContactTable(w io.Writer, contacts []*store.Contact) error {
	if len(contacts) == 0 {
		_, err := fmt.Fprintln(w, "No contacts.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tPROFILE")
	for _, c := range contacts {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.Email, c.Phone, c.Profile)
	}
	return tw.Flush()
}
