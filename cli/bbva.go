package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/haycash/toolbox/dto"
	"github.com/haycash/toolbox/service"
)

var (
	bbvaTemplate string
	bbvaFecha    string
	bbvaRefStart string
	bbvaBlock    string
	bbvaOut      string
)

// bbvaCmd represents the bbva command
var bbvaCmd = &cobra.Command{
	Use:   "bbva <dispersion-file>",
	Short: "Generate the BBVA fixed-width layout from a dispersion table",
	Long: `Bbva reads a dispersion table (.xlsx/.xls/.xlsm/.csv) and writes the
fixed-width bank file, latin-1 encoded with CRLF line endings. An .exp
template overrides record length, bank code, service and the emitter
name and RFC.

Example:
  toolbox bbva dispersion.xlsx --fecha 20260823 --ref-start 100
  toolbox bbva dispersion.csv --template layout.exp -o dispersion_BBVA.txt`,
	Args: cobra.ExactArgs(1),
	RunE: runBBVA,
}

func init() {
	rootCmd.AddCommand(bbvaCmd)

	bbvaCmd.Flags().StringVar(&bbvaTemplate, "template", "", "optional .exp layout template")
	bbvaCmd.Flags().StringVar(&bbvaFecha, "fecha", "", "process date AAAAMMDD (default today)")
	bbvaCmd.Flags().StringVar(&bbvaRefStart, "ref-start", "", "numeric reference start (default 1)")
	bbvaCmd.Flags().StringVar(&bbvaBlock, "block", "", "block number (default 1)")
	bbvaCmd.Flags().StringVarP(&bbvaOut, "out", "o", "", "output path (default <stem>_BBVA.txt)")
}

func runBBVA(cmd *cobra.Command, args []string) error {
	files, err := fileHeaders([]string{args[0]})
	if err != nil {
		return err
	}
	request := &dto.BBVARequest{
		File:      files[0],
		FechaProc: bbvaFecha,
		RefStart:  bbvaRefStart,
		Block:     bbvaBlock,
	}
	if bbvaTemplate != "" {
		tmpl, err := fileHeaders([]string{bbvaTemplate})
		if err != nil {
			return err
		}
		request.Template = tmpl[0]
	}

	data, resp, err := service.NewBBVAService(nil).Generate(request)
	if err != nil {
		return err
	}

	fmt.Println(resp.Message)
	return writeOutput(bbvaOut, resp.Filename, data)
}
