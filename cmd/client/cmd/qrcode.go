package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var qrOutput string

var qrcodeCmd = &cobra.Command{
	Use:   "qrcode <page-id>",
	Short: "Download the printable QR code of a page",
	Long: `Download the PDF holding a page's QR code.

Examples:
  chalets-admin qrcode 64f2 -o wifi.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := requireSession(); err != nil {
			return err
		}
		pdf, err := app.client.PageQRCode(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		out := qrOutput
		if out == "" {
			out = "qrcode-" + args[0] + ".pdf"
		}
		if err := os.WriteFile(out, pdf, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", out, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%d bytes)\n", out, len(pdf))
		return nil
	},
}

func init() {
	qrcodeCmd.Flags().StringVarP(&qrOutput, "output", "o", "", "output file (default qrcode-<page-id>.pdf)")
	rootCmd.AddCommand(qrcodeCmd)
}
