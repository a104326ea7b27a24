package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/communityambulance/mtrepair/internal/core/domain"
)

var kindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the recognized error kinds and their repair actions",
	Run:   runKinds,
}

func init() {
	rootCmd.AddCommand(kindsCmd)
}

func runKinds(cmd *cobra.Command, args []string) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', tabwriter.Debug)
	_, _ = fmt.Fprintln(w, "KIND\tREPAIR\tALERTS\tDESCRIPTION")
	for _, kind := range domain.AllKinds() {
		info := kind.Info()
		_, _ = fmt.Fprintf(w, "%s\t%s\t%v\t%s\n",
			info.Kind, info.Repair, info.ProducesAlerts, info.Description)
	}
	_ = w.Flush()
}
