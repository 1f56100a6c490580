package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/telekom/k8s-fleetcred/pkg/naming"
	"github.com/telekom/k8s-fleetcred/pkg/pipeline"
	"github.com/telekom/k8s-fleetcred/pkg/registry"
)

func WriteClusterTable(w io.Writer, entries []registry.Entry) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ANCHOR\tCONFIGURED\tPROVIDER\tDESCRIPTION")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%v\t%s\t%s\n",
			e.Anchor, e.Configured(), orDash(e.Metadata.Provider), orDash(e.Metadata.Description))
	}
	_ = tw.Flush()
}

func WriteClusterTableWide(w io.Writer, entries []registry.Entry) {
	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "ANCHOR\tCONFIGURED\tPROVIDER\tDESCRIPTION\tKEYWORDS\tIDENTITIES\tNAMESPACE")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%v\t%s\t%s\t%s\t%s\t%s\n",
			e.Anchor,
			e.Configured(),
			orDash(e.Metadata.Provider),
			orDash(e.Metadata.Description),
			orDash(strings.Join(e.Metadata.Keywords, ",")),
			orDash(strings.Join(identityNames(e), ",")),
			naming.Namespace(e.Anchor))
	}
	_ = tw.Flush()
}

// WriteSummary renders the closing line of a bootstrap run.
func WriteSummary(w io.Writer, s pipeline.Summary) {
	_, _ = fmt.Fprintf(w, "%d configured, %d skipped, %d failed, %d warnings\n",
		s.Configured, s.Skipped, s.Failed, s.Warnings)
}

func identityNames(e registry.Entry) []string {
	if e.Override == nil {
		return nil
	}
	names := make([]string, 0, len(e.Override.Identities))
	for _, id := range e.Override.Identities {
		if id.Name != "" {
			names = append(names, id.Name)
		}
	}
	return names
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
