package introspection

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// Metadata summarizes the size of a schema. It is informational only.
type Metadata struct {
	Schema     string          `yaml:"schema"`
	TableCount int             `yaml:"tableCount"`
	SizeBytes  int64           `yaml:"sizeBytes"`
	Tables     []TableMetadata `yaml:"tables,omitempty"`
}

// TableMetadata holds the estimated row count of one table.
type TableMetadata struct {
	Name     string `yaml:"name"`
	RowCount int64  `yaml:"rowCount"`
}

// Write prints the metadata as an aligned table.
func (m *Metadata) Write(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	fmt.Fprintf(tw, "schema\t%s\n", m.Schema)
	fmt.Fprintf(tw, "tables\t%d\n", m.TableCount)
	fmt.Fprintf(tw, "size\t%s\n", humanize.IBytes(uint64(max(m.SizeBytes, 0))))

	if len(m.Tables) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "TABLE\tROWS")

		for _, t := range m.Tables {
			fmt.Fprintf(tw, "%s\t%s\n", t.Name, humanize.Comma(t.RowCount))
		}
	}

	return tw.Flush()
}
