package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haycash/toolbox/client"
	"github.com/haycash/toolbox/config"
	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/export"
	"github.com/haycash/toolbox/service"
)

var (
	contratoOut  string
	contratoJSON bool
)

// contratoCmd represents the contrato command
var contratoCmd = &cobra.Command{
	Use:   "contrato <pdf>...",
	Short: "Extract the anchored amounts from factoring contracts",
	Long: `Contrato pulls capital, valor pagaré, comisión por apertura and the
monthly minimum payment out of each contract, keeping the raw matched
text next to every value for audit.

Example:
  toolbox contrato contratos/*.pdf -o extraccion.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runContrato,
}

func init() {
	rootCmd.AddCommand(contratoCmd)

	contratoCmd.Flags().StringVarP(&contratoOut, "out", "o", "", "output path (default extraccion_contratos_<timestamp>.xlsx)")
	contratoCmd.Flags().BoolVar(&contratoJSON, "json", false, "print the JSON response instead of writing a workbook")
}

func runContrato(cmd *cobra.Command, args []string) error {
	cfg := config.LoadConfig()
	ensureTessdata(cfg)

	tesseractClient := client.NewTesseractClient(cfg.OCR.TesseractDataPath, cfg.OCR.Languages)
	defer tesseractClient.Close()

	svc := service.NewContratoService(service.NewPDFProcessor(), tesseractClient, nil)

	files, err := fileHeaders(args)
	if err != nil {
		return err
	}
	resp, err := svc.ExtractBatch(context.Background(), &dto.ContractExtractRequest{Files: files})
	if err != nil {
		return err
	}

	fmt.Printf("Contratos procesados: %d\n", len(resp.Rows))
	fmt.Printf("Sin Capital: %d\n", resp.Missing["capital"])
	fmt.Printf("Sin Valor pagaré: %d\n", resp.Missing["valor_pagare"])
	fmt.Printf("Sin CPA: %d\n", resp.Missing["comision_apertura"])
	fmt.Printf("Sin min_payment: %d\n", resp.Missing["pago_minimo_mensual"])

	if contratoJSON {
		return printJSON(resp)
	}
	data, name, err := export.ContractWorkbook(resp)
	if err != nil {
		return err
	}
	return writeOutput(contratoOut, name, data)
}
