package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var materialsCmd = &cobra.Command{
	Use:   "materials",
	Short: "Print the sampled material catalog as CSV",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfig(cmd)
		p, err := cfg.Problem()
		if err != nil {
			logrus.Fatalf("Failed to build catalog: %v", err)
		}
		if err := p.Catalog.WriteCSV(os.Stdout); err != nil {
			logrus.Fatalf("Failed to write catalog: %v", err)
		}
	},
}
