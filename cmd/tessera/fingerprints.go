package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/chazu/tessera/pkg/adjacency"
	"github.com/chazu/tessera/pkg/catalog"
	"github.com/spf13/cobra"
)

func newFingerprintsCmd(gf *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "fingerprints",
		Short: "Print per-face fingerprints for every tile variant",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := setup(cmd, gf)
			if err != nil {
				return err
			}
			cat, warnings, err := loadCatalog(cfg, log)
			if err != nil {
				return err
			}
			return printFingerprints(cmd.OutOrStdout(), cat, warnings)
		},
	}
}

func printFingerprints(w io.Writer, cat *catalog.Catalog, warnings []catalog.Warning) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "MODEL\tCATEGORY\tP")
	for _, o := range adjacency.Orientations {
		fmt.Fprintf(tw, "\t%s", o)
	}
	fmt.Fprintln(tw)

	for _, m := range cat.Models() {
		fmt.Fprintf(tw, "%s\t%s\t%g", m.ID(), m.Category, m.Probability)
		for _, o := range adjacency.Orientations {
			face := m.Faces[o]
			if face.IsEmpty() {
				fmt.Fprint(tw, "\t-")
				continue
			}
			fmt.Fprintf(tw, "\t%016x/%d", face.Fingerprint(), face.Len())
		}
		fmt.Fprintln(tw)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	for _, warn := range warnings {
		fmt.Fprintf(w, "warning: %s\n", warn)
	}
	return nil
}
