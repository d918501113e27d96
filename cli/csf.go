package cli

import (
	"context"
	"fmt"

	gocache "github.com/patrickmn/go-cache"
	"github.com/spf13/cobra"

	"github.com/haycash/toolbox/catalog"
	"github.com/haycash/toolbox/client"
	"github.com/haycash/toolbox/config"
	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/export"
	"github.com/haycash/toolbox/service"
)

var (
	csfOut    string
	csfUseOCR bool
	csfNoSAT  bool
	csfJSON   bool
)

// csfCmd represents the csf command
var csfCmd = &cobra.Command{
	Use:   "csf <pdf>...",
	Short: "Extract CSF/CFDI fields into an Excel workbook",
	Long: `Csf reads constancias de situación fiscal and CFDI PDFs and writes
one row per taxpayer to the Persona Física / Persona Moral sheets.

Example:
  toolbox csf constancia.pdf factura.pdf
  toolbox csf --ocr escaneo.pdf -o clientes.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCSF,
}

func init() {
	rootCmd.AddCommand(csfCmd)

	csfCmd.Flags().StringVarP(&csfOut, "out", "o", "", "output path (default csf_<timestamp>.xlsx)")
	csfCmd.Flags().BoolVar(&csfUseOCR, "ocr", false, "OCR pages even when the PDF carries embedded text")
	csfCmd.Flags().BoolVar(&csfNoSAT, "no-sat", false, "skip the SAT activity matcher")
	csfCmd.Flags().BoolVar(&csfJSON, "json", false, "print the JSON response instead of writing a workbook")
}

func runCSF(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	ensureTessdata(cfg)

	tesseractClient := client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.Languages)
	defer tesseractClient.Close()

	var picker service.ActivityPicker
	if !csfNoSAT && cfg.OpenAI.APIKey != "" {
		llm, err := client.NewLLMClient(cfg.OpenAI)
		if err != nil {
			fmt.Printf("OpenAI disabled: %v\n", err)
		} else {
			picker = llm
		}
	}
	matchCache := gocache.New(cfg.Catalog.CacheTTL, cfg.Catalog.CacheCleanup)
	satService := service.NewSATService(catalog.NewStore(cfg.Catalog.Dir), picker, matchCache, nil)
	svc := service.NewDocumentService(service.NewPDFProcessor(), tesseractClient, satService, nil)

	files, err := fileHeaders(args)
	if err != nil {
		return err
	}
	resp, err := svc.ExtractBatch(context.Background(), &dto.CSFExtractRequest{
		Files:    files,
		UseOCR:   csfUseOCR,
		MatchSAT: !csfNoSAT,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Personas Físicas: %d | Personas Morales: %d\n", len(resp.Fisicas), len(resp.Morales))
	if verbose {
		for _, d := range resp.Documents {
			status := string(d.DocType)
			if d.Error != "" {
				status = "error: " + d.Error
			} else if d.Empty {
				status += " (sin datos)"
			}
			fmt.Printf("  %s: %s\n", d.Filename, status)
		}
	}

	if csfJSON {
		return printJSON(resp)
	}
	data, name, err := export.CSFWorkbook(resp)
	if err != nil {
		return err
	}
	return writeOutput(csfOut, name, data)
}
