package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haycash/toolbox/client"
	"github.com/haycash/toolbox/config"
	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/service"
)

var (
	edocatLang string
	edocatJSON bool
	edocatText bool
)

// statementKeys is the print order of the summary figures.
var statementKeys = []string{
	"Saldo_Inicial", "Depositos", "Retiros", "Saldo_Final",
	"Saldo_Promedio", "Interes_Mensual", "ISR_Mensual",
}

// edocatCmd represents the edocat command
var edocatCmd = &cobra.Command{
	Use:   "edocat <pdf>",
	Short: "Read the headline figures of a bank statement",
	Long: `Edocat OCRs every page of a bank statement and extracts the summary
figures: saldo inicial, depósitos, retiros, saldo final, saldo
promedio, interés y ISR del mes.

Example:
  toolbox edocat estado_julio.pdf
  toolbox edocat estado.pdf --lang spa+eng --json`,
	Args: cobra.ExactArgs(1),
	RunE: runEdocat,
}

func init() {
	rootCmd.AddCommand(edocatCmd)

	edocatCmd.Flags().StringVar(&edocatLang, "lang", "", "OCR language (default OCR_LANGS)")
	edocatCmd.Flags().BoolVar(&edocatJSON, "json", false, "print the full JSON response")
	edocatCmd.Flags().BoolVar(&edocatText, "text", false, "also print the raw OCR text")
}

func runEdocat(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	ensureTessdata(cfg)

	tesseractClient := client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.Languages)
	defer tesseractClient.Close()

	svc := service.NewEdocatService(service.NewPDFProcessor(), tesseractClient, nil)

	files, err := fileHeaders([]string{args[0]})
	if err != nil {
		return err
	}
	resp, err := svc.Read(&dto.EdocatRequest{File: files[0], Lang: edocatLang})
	if err != nil {
		return err
	}

	if edocatJSON {
		return printJSON(resp)
	}

	fmt.Printf("Páginas: %d\n", resp.Pages)
	for _, key := range statementKeys {
		value := resp.Formatted[key]
		if value == "" {
			value = "-"
		}
		fmt.Printf("  %-16s %s\n", key, value)
	}
	if edocatText {
		fmt.Println()
		fmt.Println(resp.Text)
	}
	return nil
}
