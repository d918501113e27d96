package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/haycash/toolbox/client"
	"github.com/haycash/toolbox/config"
	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/export"
	"github.com/haycash/toolbox/service"
)

var (
	factorajeSource    string
	factorajeIntervals []string
	factorajeKeepFX    bool
	factorajeEnv       string
	factorajeOut       string
	factorajeJSON      bool
)

// factorajeCmd represents the factoraje command
var factorajeCmd = &cobra.Command{
	Use:   "factoraje <rfc>...",
	Short: "Build the supplier concentration report",
	Long: `Factoraje pulls every received invoice of the given RFCs from Syntage
and aggregates suppliers per lookback interval. Requires SYNTAGE_API_KEY.

Example:
  toolbox factoraje HCA061115AB3
  toolbox factoraje HCA061115AB3 --source xml --intervals "Último mes"`,
	Args: cobra.MinimumNArgs(1),
	RunE: runFactoraje,
}

func init() {
	rootCmd.AddCommand(factorajeCmd)

	factorajeCmd.Flags().StringVar(&factorajeSource, "source", "api", "invoice source: api or xml")
	factorajeCmd.Flags().StringSliceVar(&factorajeIntervals, "intervals", nil, "interval labels (default all)")
	factorajeCmd.Flags().BoolVar(&factorajeKeepFX, "keep-unknown-fx", false, "keep foreign-currency invoices without an exchange rate")
	factorajeCmd.Flags().StringVar(&factorajeEnv, "env", "", "Syntage environment: production or sandbox (default SYNTAGE_ENV)")
	factorajeCmd.Flags().StringVarP(&factorajeOut, "out", "o", "", "output path (default Proveedores_por_intervalo_<date>.xlsx)")
	factorajeCmd.Flags().BoolVar(&factorajeJSON, "json", false, "print the JSON report instead of writing a workbook")
}

func runFactoraje(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	if cfg.Syntage.APIKey == "" {
		return dto.ErrMissingAPIKey
	}
	environment := factorajeEnv
	if environment == "" {
		environment = cfg.Syntage.Environment
	}

	syntageClient := client.NewSyntageClient(environment, cfg.Syntage.APIKey)
	svc := service.NewFactorajeService(syntageClient, nil)

	excludeFX := !factorajeKeepFX
	resp, err := svc.BuildReport(context.Background(), &dto.FactorajeRequest{
		RFCs:      strings.Join(args, ","),
		Source:    factorajeSource,
		Intervals: factorajeIntervals,
		ExcludeFX: &excludeFX,
	})
	if err != nil {
		return err
	}

	for _, report := range resp.Reports {
		fmt.Printf("%s: %d facturas recibidas, %d intervalos con datos\n",
			report.RFC, report.Invoices, len(report.Intervals))
	}

	if factorajeJSON {
		return printJSON(resp)
	}
	data, name, err := export.FactorajeWorkbook(resp)
	if err != nil {
		return err
	}
	return writeOutput(factorajeOut, name, data)
}
